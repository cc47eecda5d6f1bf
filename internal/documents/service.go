package documents

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/storage/models"
	"github.com/HimanshuMohanty-Git24/KhataGPT/pkg/logger"
)

type Store interface {
	InsertDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	ListDocuments(ctx context.Context) ([]models.DocumentSummary, error)
	GetSummaries(ctx context.Context, ids []string) ([]models.DocumentSummary, error)
	SearchDocuments(ctx context.Context, term string) ([]models.DocumentSummary, error)
	UpdateDocument(ctx context.Context, id string, upd models.DocumentUpdate) (*models.Document, error)
	IncrementChatCount(ctx context.Context, id string, at time.Time) error
	DeleteDocument(ctx context.Context, id string) error
}

type TextIndex interface {
	Search(ctx context.Context, term string, limit int) ([]string, error)
	Upsert(doc *models.Document) error
	Delete(id string) error
}

// Service is the document store seen by handlers and the ingestion pipeline.
// Index failures are logged; the store stays authoritative.
type Service struct {
	store Store
	index TextIndex
}

func NewService(store Store, index TextIndex) *Service {
	return &Service{store: store, index: index}
}

func (s *Service) Create(ctx context.Context, doc *models.Document) error {
	if err := s.store.InsertDocument(ctx, doc); err != nil {
		return err
	}
	s.reindex(doc)
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Document, error) {
	return s.store.GetDocument(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]models.DocumentSummary, error) {
	return s.store.ListDocuments(ctx)
}

// Search uses the text index and falls back to substring matching when the
// index yields nothing or is unavailable.
func (s *Service) Search(ctx context.Context, term string) ([]models.DocumentSummary, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.List(ctx)
	}

	if s.index != nil {
		ids, err := s.index.Search(ctx, term, 100)
		if err != nil {
			logger.Warn("Text index search failed, using fallback", zap.String("term", term), zap.Error(err))
		} else if len(ids) > 0 {
			found, err := s.store.GetSummaries(ctx, ids)
			if err != nil {
				return nil, err
			}
			if len(found) > 0 {
				return found, nil
			}
		}
	}

	return s.store.SearchDocuments(ctx, term)
}

func (s *Service) Update(ctx context.Context, id string, upd models.DocumentUpdate) (*models.Document, error) {
	if upd.DocType != nil {
		parsed := models.ParseDocType(string(*upd.DocType))
		upd.DocType = &parsed
	}

	doc, err := s.store.UpdateDocument(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	if upd.Title != nil || upd.ExtractedText != nil {
		s.reindex(doc)
	}
	return doc, nil
}

func (s *Service) IncrementChatCount(ctx context.Context, id string) error {
	return s.store.IncrementChatCount(ctx, id, time.Now())
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteDocument(ctx, id); err != nil {
		return err
	}
	if s.index != nil {
		if err := s.index.Delete(id); err != nil {
			logger.Warn("Failed to remove document from text index", zap.String("doc_id", id), zap.Error(err))
		}
	}
	return nil
}

func (s *Service) reindex(doc *models.Document) {
	if s.index == nil {
		return
	}
	if err := s.index.Upsert(doc); err != nil {
		logger.Warn("Failed to index document", zap.String("doc_id", doc.ID), zap.Error(err))
	}
}
