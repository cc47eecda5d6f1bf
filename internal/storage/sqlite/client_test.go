package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/storage"
	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/storage/models"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	require.NoError(t, c.InitSchema())
	t.Cleanup(func() { c.Close() })
	return c
}

func insertDoc(t *testing.T, c *Client, title, text string) *models.Document {
	t.Helper()
	doc := &models.Document{
		Title:         title,
		DocType:       models.DocTypeReceipt,
		FileType:      models.FileTypeImage,
		ExtractedText: text,
	}
	require.NoError(t, c.InsertDocument(context.Background(), doc))
	return doc
}

func TestInsertAndGetDocument(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	doc := insertDoc(t, c, "Receipt: Cafe Mocha - Lunch", "Total: $42.99")
	require.NotEmpty(t, doc.ID)

	got, err := c.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.Title, got.Title)
	assert.Equal(t, models.DocTypeReceipt, got.DocType)
	assert.Equal(t, models.FileTypeImage, got.FileType)
	assert.Equal(t, 0, got.ChatCount)
	assert.Nil(t, got.LastChatAt)
}

func TestGetDocumentNotFound(t *testing.T) {
	c := newTestClient(t)
	_, err := c.GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListDocumentsNewestFirst(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	older := &models.Document{Title: "old", FileType: models.FileTypePDF, CreatedAt: time.Now().Add(-time.Hour)}
	require.NoError(t, c.InsertDocument(ctx, older))
	newer := insertDoc(t, c, "new", "")

	list, err := c.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)
	assert.Equal(t, models.DocTypeUnknown, list[1].DocType)
}

func TestSearchDocumentsEscapesWildcards(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	hit := insertDoc(t, c, "Menu", "Discount 100% off today")
	insertDoc(t, c, "Bill", "Discount 1000 off")

	got, err := c.SearchDocuments(ctx, "100%")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, hit.ID, got[0].ID)

	got, err = c.SearchDocuments(ctx, "DISCOUNT")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestGetSummariesKeepsOrder(t *testing.T) {
	c := newTestClient(t)
	a := insertDoc(t, c, "a", "")
	b := insertDoc(t, c, "b", "")

	got, err := c.GetSummaries(context.Background(), []string{b.ID, "gone", a.ID})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, b.ID, got[0].ID)
	assert.Equal(t, a.ID, got[1].ID)
}

func TestUpdateDocument(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	doc := insertDoc(t, c, "before", "text")

	title := "after"
	updated, err := c.UpdateDocument(ctx, doc.ID, models.DocumentUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "after", updated.Title)
	assert.Equal(t, "text", updated.ExtractedText)
	assert.False(t, updated.UpdatedAt.Before(doc.UpdatedAt.Truncate(time.Millisecond)))

	_, err = c.UpdateDocument(ctx, "missing", models.DocumentUpdate{Title: &title})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIncrementChatCountIsAtomic(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	doc := insertDoc(t, c, "counter", "")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.IncrementChatCount(ctx, doc.ID, time.Now()))
		}()
	}
	wg.Wait()

	got, err := c.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.ChatCount)
	require.NotNil(t, got.LastChatAt)

	err = c.IncrementChatCount(ctx, "missing", time.Now())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestChatsRoundTripWithTools(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	doc := insertDoc(t, c, "menu", "")

	q := "pizza calories"
	first := &models.Chat{DocumentID: doc.ID, UserMessage: "first", AIResponse: "a"}
	second := &models.Chat{
		DocumentID:  doc.ID,
		UserMessage: "second",
		AIResponse:  "b",
		UsedTools: []models.ToolInvocation{{
			ToolName: models.ToolSearch,
			Query:    &q,
			Results:  []models.SearchHit{{Title: "t", Link: "l", Snippet: "s"}},
		}},
	}
	require.NoError(t, c.InsertChat(ctx, first))
	require.NoError(t, c.InsertChat(ctx, second))

	chats, err := c.GetChats(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, "first", chats[0].UserMessage)
	assert.Empty(t, chats[0].UsedTools)
	require.Len(t, chats[1].UsedTools, 1)
	assert.Equal(t, "pizza calories", *chats[1].UsedTools[0].Query)
	assert.Equal(t, "l", chats[1].UsedTools[0].Results[0].Link)
}

func TestInsertChatRequiresDocument(t *testing.T) {
	c := newTestClient(t)
	err := c.InsertChat(context.Background(), &models.Chat{DocumentID: "missing", UserMessage: "hi"})
	assert.Error(t, err)
}

func TestDeleteDocumentCascadesToChats(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	doc := insertDoc(t, c, "doomed", "")

	for i := 0; i < 2; i++ {
		require.NoError(t, c.InsertChat(ctx, &models.Chat{DocumentID: doc.ID, UserMessage: "q", AIResponse: "a"}))
	}

	require.NoError(t, c.DeleteDocument(ctx, doc.ID))

	chats, err := c.GetChats(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, chats)

	_, err = c.GetDocument(ctx, doc.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = c.DeleteDocument(ctx, doc.ID)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestDeleteChats(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	doc := insertDoc(t, c, "history", "")
	require.NoError(t, c.InsertChat(ctx, &models.Chat{DocumentID: doc.ID, UserMessage: "q", AIResponse: "a"}))

	n, err := c.DeleteChats(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	exists, err := c.DocumentExists(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% \_x\\`, escapeLike(`50% _x\`))
}
