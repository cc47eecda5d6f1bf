package index

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/storage/models"
)

func staticLoader(docs ...*models.Document) Loader {
	return func(ctx context.Context, fn func(*models.Document) error) error {
		for _, d := range docs {
			if err := fn(d); err != nil {
				return err
			}
		}
		return nil
	}
}

func TestIndexOpensLazilyAndLoadsStore(t *testing.T) {
	idx := New("", staticLoader(
		&models.Document{ID: "a", Title: "Receipt: Blue Tokai", ExtractedText: "Cappuccino 250"},
		&models.Document{ID: "b", Title: "Invoice: Acme", ExtractedText: "Consulting services"},
	))
	defer idx.Close()

	assert.False(t, idx.Opened())
	require.NoError(t, idx.Upsert(&models.Document{ID: "ignored", Title: "cappuccino"}))

	ids, err := idx.Search(context.Background(), "cappuccino", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)
	assert.True(t, idx.Opened())

	ids, err = idx.Search(context.Background(), "acme", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)
}

func TestIndexTracksWritesAfterOpen(t *testing.T) {
	idx := New("", nil)
	defer idx.Close()
	ctx := context.Background()

	ids, err := idx.Search(ctx, "menu", 10)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, idx.Upsert(&models.Document{ID: "m", Title: "Menu: Dosa Corner"}))
	ids, err = idx.Search(ctx, "dosa", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"m"}, ids)

	require.NoError(t, idx.Delete("m"))
	ids, err = idx.Search(ctx, "dosa", 10)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestIndexOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "text.bleve")
	doc := &models.Document{ID: "x", Title: "Statement", ExtractedText: "closing balance"}

	idx := New(path, staticLoader(doc))
	ids, err := idx.Search(context.Background(), "balance", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, ids)
	require.NoError(t, idx.Close())

	reopened := New(path, nil)
	defer reopened.Close()
	ids, err = reopened.Search(context.Background(), "balance", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, ids)
}
