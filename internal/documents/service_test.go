package documents

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/storage"
	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/storage/index"
	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/storage/models"
	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/storage/sqlite"
)

func newTestService(t *testing.T) (*Service, *index.TextIndex) {
	t.Helper()
	store, err := sqlite.NewClient(filepath.Join(t.TempDir(), "docs.db"))
	require.NoError(t, err)
	require.NoError(t, store.InitSchema())
	t.Cleanup(func() { store.Close() })

	idx := index.New("", store.AllDocuments)
	t.Cleanup(func() { idx.Close() })
	return NewService(store, idx), idx
}

func create(t *testing.T, s *Service, title, text string) *models.Document {
	t.Helper()
	doc := &models.Document{Title: title, ExtractedText: text, FileType: models.FileTypeImage, DocType: models.DocTypeReceipt}
	require.NoError(t, s.Create(context.Background(), doc))
	return doc
}

func TestSearchUsesIndexBuiltFromStore(t *testing.T) {
	s, idx := newTestService(t)
	ctx := context.Background()

	target := create(t, s, "Receipt: Chai Point", "Masala chai 2 x 40")
	create(t, s, "Invoice: Acme", "Consulting")
	assert.False(t, idx.Opened())

	got, err := s.Search(ctx, "masala")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, target.ID, got[0].ID)
	assert.True(t, idx.Opened())

	later := create(t, s, "Menu: Masala House", "")
	got, err = s.Search(ctx, "masala")
	require.NoError(t, err)
	assert.Len(t, got, 2)
	ids := []string{got[0].ID, got[1].ID}
	assert.Contains(t, ids, later.ID)
}

func TestSearchFallsBackToSubstring(t *testing.T) {
	s, _ := newTestService(t)
	doc := create(t, s, "Bill", "GSTIN 29ABCDE1234F1Z5")

	// Partial tokens are not matched by the analyzer, only by the fallback.
	got, err := s.Search(context.Background(), "ABCDE12")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, doc.ID, got[0].ID)
}

func TestSearchEmptyTermLists(t *testing.T) {
	s, _ := newTestService(t)
	create(t, s, "a", "")
	create(t, s, "b", "")

	got, err := s.Search(context.Background(), "  ")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestUpdateNormalizesDocTypeAndReindexes(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	doc := create(t, s, "Old title", "")

	_, err := s.Search(ctx, "anything")
	require.NoError(t, err)

	title := "Contract: Lease Agreement"
	dt := models.DocType("LEASE")
	updated, err := s.Update(ctx, doc.ID, models.DocumentUpdate{Title: &title, DocType: &dt})
	require.NoError(t, err)
	assert.Equal(t, models.DocTypeOther, updated.DocType)

	got, err := s.Search(ctx, "lease")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, doc.ID, got[0].ID)
}

func TestDeleteRemovesFromStoreAndIndex(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	doc := create(t, s, "Report: Quarterly", "revenue")

	_, err := s.Search(ctx, "revenue")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, doc.ID))

	_, err = s.Get(ctx, doc.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	got, err := s.Search(ctx, "revenue")
	require.NoError(t, err)
	assert.Empty(t, got)

	assert.ErrorIs(t, s.Delete(ctx, doc.ID), storage.ErrNotFound)
}

func TestIncrementChatCount(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	doc := create(t, s, "x", "")

	require.NoError(t, s.IncrementChatCount(ctx, doc.ID))
	got, err := s.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ChatCount)
	assert.NotNil(t, got.LastChatAt)
}
