package ingestion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/extraction"
	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/media"
	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/metrics"
	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/storage/models"
	"github.com/HimanshuMohanty-Git24/KhataGPT/pkg/logger"
	"github.com/HimanshuMohanty-Git24/KhataGPT/pkg/outcome"
)

var ErrNoFiles = errors.New("no files uploaded")

type Extractor interface {
	Extract(ctx context.Context, p extraction.Payload) outcome.Result[string]
}

type Classifier interface {
	Title(ctx context.Context, text string) outcome.Result[string]
	DocType(ctx context.Context, text string) outcome.Result[models.DocType]
	FallbackTitle() string
}

type Store interface {
	Create(ctx context.Context, doc *models.Document) error
}

type Pipeline struct {
	extractor  Extractor
	classifier Classifier
	store      Store
}

func NewPipeline(extractor Extractor, classifier Classifier, store Store) *Pipeline {
	return &Pipeline{extractor: extractor, classifier: classifier, store: store}
}

// Ingest turns an upload into a stored document. Only input problems and
// storage failures are returned as errors; model trouble degrades in place.
func (p *Pipeline) Ingest(ctx context.Context, u Upload) (*models.Document, error) {
	start := time.Now()

	payload, err := p.prepare(u)
	if err != nil {
		return nil, err
	}

	doc := &models.Document{
		Title:          models.PlaceholderTitle,
		DocType:        models.DocTypeUnknown,
		FileType:       payload.FileType,
		EncodedContent: media.EncodeBase64(payload.Data),
	}

	extracted := p.extractor.Extract(ctx, payload)
	p.noteDegraded("extraction", extracted.Cause)
	doc.ExtractedText = extracted.Value

	title := p.classifier.Title(ctx, doc.ExtractedText)
	p.noteDegraded("title", title.Cause)
	doc.Title = title.Value

	if u.DocType != "" && u.DocType != models.DocTypeUnknown {
		doc.DocType = models.ParseDocType(string(u.DocType))
	} else {
		docType := p.classifier.DocType(ctx, doc.ExtractedText)
		p.noteDegraded("doc_type", docType.Cause)
		doc.DocType = docType.Value
	}

	if err := p.store.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	metrics.DocumentsIngested.WithLabelValues(string(doc.FileType)).Inc()
	metrics.IngestionDuration.WithLabelValues(string(doc.FileType)).Observe(time.Since(start).Seconds())

	logger.Info("Document ingested",
		zap.String("doc_id", doc.ID),
		zap.String("file_type", string(doc.FileType)),
		zap.String("doc_type", string(doc.DocType)),
		zap.Int("files", len(u.Files)),
		zap.Bool("degraded", extracted.IsDegraded()),
		zap.Duration("elapsed", time.Since(start)),
	)

	return doc, nil
}

// prepare picks batch or single mode and produces the payload the model sees.
func (p *Pipeline) prepare(u Upload) (extraction.Payload, error) {
	if len(u.Files) == 0 {
		return extraction.Payload{}, ErrNoFiles
	}

	if u.IsBatch() {
		pages := make([][]byte, len(u.Files))
		for i, f := range u.Files {
			pages[i] = f.Data
		}
		combined, err := media.CombineToPDF(pages)
		if err != nil {
			return extraction.Payload{}, fmt.Errorf("failed to combine images: %w", err)
		}
		return extraction.Payload{FileType: models.FileTypePDF, Data: combined}, nil
	}

	if len(u.Files) > 1 {
		logger.Warn("Mixed multi-file upload, using the first file only",
			zap.Int("files", len(u.Files)),
			zap.String("name", u.Files[0].Name),
		)
	}

	file := u.Files[0]
	if file.FileType() == models.FileTypePDF {
		return extraction.Payload{FileType: models.FileTypePDF, Data: file.Data}, nil
	}

	img, err := media.Normalize(file.Data)
	if err != nil {
		return extraction.Payload{}, err
	}
	return extraction.Payload{FileType: models.FileTypeImage, Data: img.Data}, nil
}

// IngestEncoded handles the JSON upload form. A request without content is
// stored directly, with a generated title.
func (p *Pipeline) IngestEncoded(ctx context.Context, e EncodedUpload) (*models.Document, error) {
	if e.ImageBase64 == "" {
		return p.createEmpty(ctx, e)
	}

	data, err := media.DecodeBase64(e.ImageBase64)
	if err != nil {
		return nil, err
	}

	file := UploadFile{Name: "document.jpg", ContentType: "image/jpeg", Data: data}
	if e.FileType == models.FileTypePDF {
		file = UploadFile{Name: "document.pdf", ContentType: "application/pdf", Data: data}
	}

	return p.Ingest(ctx, Upload{Files: []UploadFile{file}, Title: e.Title, DocType: e.DocType})
}

func (p *Pipeline) createEmpty(ctx context.Context, e EncodedUpload) (*models.Document, error) {
	doc := &models.Document{
		Title:    p.classifier.FallbackTitle(),
		DocType:  models.DocTypeUnknown,
		FileType: models.FileTypeImage,
	}
	if e.FileType == models.FileTypePDF {
		doc.FileType = models.FileTypePDF
	}
	if e.DocType != "" && e.DocType != models.DocTypeUnknown {
		doc.DocType = models.ParseDocType(string(e.DocType))
	}

	if err := p.store.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}
	logger.Info("Document created without content", zap.String("doc_id", doc.ID))
	return doc, nil
}

func (p *Pipeline) noteDegraded(stage string, cause error) {
	if cause == nil {
		return
	}
	metrics.IngestionDegraded.WithLabelValues(stage).Inc()
	logger.Warn("Ingestion stage degraded", zap.String("stage", stage), zap.Error(cause))
}
