package index

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"go.uber.org/zap"

	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/storage/models"
	"github.com/HimanshuMohanty-Git24/KhataGPT/pkg/logger"
)

// Loader streams every stored document, used to fill the index when it is first opened.
type Loader func(ctx context.Context, fn func(*models.Document) error) error

// TextIndex is a full-text index over document titles and extracted text.
// It is opened lazily on the first search; writes before then are no-ops
// because opening reloads everything from the store.
type TextIndex struct {
	path   string
	loader Loader

	mu    sync.Mutex
	index bleve.Index
}

type indexedDocument struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// New returns an unopened index. An empty path keeps the index in memory.
func New(path string, loader Loader) *TextIndex {
	return &TextIndex{path: path, loader: loader}
}

func buildMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = standard.Name
	textField.Store = false
	docMapping.AddFieldMappingsAt("title", textField)
	docMapping.AddFieldMappingsAt("content", textField)

	im.AddDocumentMapping("document", docMapping)
	im.DefaultType = "document"
	im.DefaultMapping = docMapping
	return im
}

func (t *TextIndex) open(ctx context.Context) (bleve.Index, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.index != nil {
		return t.index, nil
	}

	var (
		idx bleve.Index
		err error
	)
	switch {
	case t.path == "":
		idx, err = bleve.NewMemOnly(buildMapping())
	default:
		if _, statErr := os.Stat(t.path); statErr == nil {
			idx, err = bleve.Open(t.path)
		} else {
			idx, err = bleve.New(t.path, buildMapping())
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open text index: %w", err)
	}

	count, err := t.reload(ctx, idx)
	if err != nil {
		idx.Close()
		return nil, err
	}

	logger.Info("Text index opened", zap.String("path", t.path), zap.Int("documents", count))
	t.index = idx
	return idx, nil
}

func (t *TextIndex) reload(ctx context.Context, idx bleve.Index) (int, error) {
	if t.loader == nil {
		return 0, nil
	}

	batch := idx.NewBatch()
	count := 0
	err := t.loader(ctx, func(doc *models.Document) error {
		count++
		if err := batch.Index(doc.ID, toIndexed(doc)); err != nil {
			return err
		}
		if batch.Size() >= 200 {
			if err := idx.Batch(batch); err != nil {
				return err
			}
			batch.Reset()
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to load documents into text index: %w", err)
	}
	if batch.Size() > 0 {
		if err := idx.Batch(batch); err != nil {
			return 0, fmt.Errorf("failed to load documents into text index: %w", err)
		}
	}
	return count, nil
}

func toIndexed(doc *models.Document) indexedDocument {
	return indexedDocument{Title: doc.Title, Content: doc.ExtractedText}
}

// Search returns matching document ids, best match first.
func (t *TextIndex) Search(ctx context.Context, term string, limit int) ([]string, error) {
	idx, err := t.open(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	req := bleve.NewSearchRequest(bleve.NewMatchQuery(term))
	req.Size = limit

	results, err := idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("text search failed: %w", err)
	}

	ids := make([]string, len(results.Hits))
	for i, hit := range results.Hits {
		ids[i] = hit.ID
	}
	return ids, nil
}

func (t *TextIndex) current() bleve.Index {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.index
}

func (t *TextIndex) Upsert(doc *models.Document) error {
	idx := t.current()
	if idx == nil {
		return nil
	}
	if err := idx.Index(doc.ID, toIndexed(doc)); err != nil {
		return fmt.Errorf("failed to index document: %w", err)
	}
	return nil
}

func (t *TextIndex) Delete(id string) error {
	idx := t.current()
	if idx == nil {
		return nil
	}
	if err := idx.Delete(id); err != nil {
		return fmt.Errorf("failed to remove document from index: %w", err)
	}
	return nil
}

func (t *TextIndex) Opened() bool {
	return t.current() != nil
}

func (t *TextIndex) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.index == nil {
		return nil
	}
	err := t.index.Close()
	t.index = nil
	return err
}
