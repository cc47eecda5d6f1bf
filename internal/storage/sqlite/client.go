package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	sqlite3 "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/storage"
	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/storage/models"
	"github.com/HimanshuMohanty-Git24/KhataGPT/pkg/logger"
	"github.com/HimanshuMohanty-Git24/KhataGPT/pkg/retry"
)

type Client struct {
	db       *sql.DB
	retryCfg retry.Config
}

func NewClient(dbPath string) (*Client, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{
		db: db,
		retryCfg: retry.Config{
			MaxAttempts:     4,
			InitialDelay:    25 * time.Millisecond,
			MaxDelay:        500 * time.Millisecond,
			RetryableErrors: []error{storage.ErrBusy},
			Logger:          logger.GetLogger(),
		},
	}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		doc_type TEXT NOT NULL DEFAULT 'unknown',
		file_type TEXT NOT NULL,
		extracted_text TEXT NOT NULL DEFAULT '',
		encoded_content TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		last_chat_at INTEGER,
		chat_count INTEGER NOT NULL DEFAULT 0 CHECK (chat_count >= 0)
	);
	CREATE INDEX IF NOT EXISTS idx_documents_created ON documents(created_at);
	CREATE INDEX IF NOT EXISTS idx_documents_type ON documents(doc_type);

	CREATE TABLE IF NOT EXISTS chats (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL,
		user_message TEXT NOT NULL,
		ai_response TEXT NOT NULL,
		used_tools TEXT NOT NULL DEFAULT '[]',
		created_at INTEGER NOT NULL,
		FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_chats_document ON chats(document_id, created_at);
	`

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

// write runs fn, retrying while SQLite reports lock contention.
func (c *Client) write(ctx context.Context, op string, fn func() error) error {
	return retry.Do(ctx, c.retryCfg, func() error {
		return classify(op, fn())
	})
}

func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, storage.ErrNotFound) {
		return err
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && (sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked) {
		return fmt.Errorf("failed to %s: %w: %w", op, storage.ErrBusy, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func (c *Client) InsertDocument(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = doc.CreatedAt
	}
	if doc.DocType == "" {
		doc.DocType = models.DocTypeUnknown
	}

	query := `
		INSERT INTO documents (id, title, doc_type, file_type, extracted_text, encoded_content,
			created_at, updated_at, last_chat_at, chat_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := c.write(ctx, "insert document", func() error {
		_, err := c.db.ExecContext(ctx, query,
			doc.ID,
			doc.Title,
			string(doc.DocType),
			string(doc.FileType),
			doc.ExtractedText,
			doc.EncodedContent,
			doc.CreatedAt.UnixMilli(),
			doc.UpdatedAt.UnixMilli(),
			nullableMillis(doc.LastChatAt),
			doc.ChatCount,
		)
		return err
	})
	if err != nil {
		return err
	}

	logger.Debug("Document inserted", zap.String("doc_id", doc.ID), zap.String("file_type", string(doc.FileType)))
	return nil
}

const documentColumns = `id, title, doc_type, file_type, extracted_text, encoded_content,
	created_at, updated_at, last_chat_at, chat_count`

const summaryColumns = `id, title, doc_type, file_type, created_at, last_chat_at, chat_count`

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*models.Document, error) {
	var doc models.Document
	var docType, fileType string
	var createdAt, updatedAt int64
	var lastChatAt sql.NullInt64

	err := row.Scan(
		&doc.ID,
		&doc.Title,
		&docType,
		&fileType,
		&doc.ExtractedText,
		&doc.EncodedContent,
		&createdAt,
		&updatedAt,
		&lastChatAt,
		&doc.ChatCount,
	)
	if err != nil {
		return nil, err
	}

	doc.DocType = models.DocType(docType)
	doc.FileType = models.FileType(fileType)
	doc.CreatedAt = time.UnixMilli(createdAt).UTC()
	doc.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	doc.LastChatAt = fromNullableMillis(lastChatAt)
	return &doc, nil
}

func scanSummary(row scanner) (models.DocumentSummary, error) {
	var s models.DocumentSummary
	var docType, fileType string
	var createdAt int64
	var lastChatAt sql.NullInt64

	if err := row.Scan(&s.ID, &s.Title, &docType, &fileType, &createdAt, &lastChatAt, &s.ChatCount); err != nil {
		return s, err
	}
	s.DocType = models.DocType(docType)
	s.FileType = models.FileType(fileType)
	s.CreatedAt = time.UnixMilli(createdAt).UTC()
	s.LastChatAt = fromNullableMillis(lastChatAt)
	return s, nil
}

func (c *Client) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = ?`

	doc, err := scanDocument(c.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

func (c *Client) DocumentExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := c.db.QueryRowContext(ctx, `SELECT 1 FROM documents WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check document: %w", err)
	}
	return true, nil
}

func (c *Client) ListDocuments(ctx context.Context) ([]models.DocumentSummary, error) {
	query := `SELECT ` + summaryColumns + ` FROM documents ORDER BY created_at DESC, rowid DESC`
	return c.querySummaries(ctx, query)
}

// GetSummaries returns summaries for ids in the order given, skipping ids
// that no longer exist.
func (c *Client) GetSummaries(ctx context.Context, ids []string) ([]models.DocumentSummary, error) {
	if len(ids) == 0 {
		return []models.DocumentSummary{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := `SELECT ` + summaryColumns + ` FROM documents WHERE id IN (` + placeholders + `)`
	found, err := c.querySummaries(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.DocumentSummary, len(found))
	for _, s := range found {
		byID[s.ID] = s
	}
	out := make([]models.DocumentSummary, 0, len(found))
	for _, id := range ids {
		if s, ok := byID[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// SearchDocuments is a case-insensitive substring match over title and
// extracted text, newest first.
func (c *Client) SearchDocuments(ctx context.Context, term string) ([]models.DocumentSummary, error) {
	pattern := "%" + escapeLike(term) + "%"
	query := `SELECT ` + summaryColumns + ` FROM documents
		WHERE title LIKE ? ESCAPE '\' OR extracted_text LIKE ? ESCAPE '\'
		ORDER BY created_at DESC, rowid DESC`
	return c.querySummaries(ctx, query, pattern, pattern)
}

func escapeLike(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(term)
}

func (c *Client) querySummaries(ctx context.Context, query string, args ...any) ([]models.DocumentSummary, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	summaries := []models.DocumentSummary{}
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return summaries, nil
}

// AllDocuments streams every document to fn, used to rebuild the text index.
func (c *Client) AllDocuments(ctx context.Context, fn func(*models.Document) error) error {
	rows, err := c.db.QueryContext(ctx, `SELECT `+documentColumns+` FROM documents`)
	if err != nil {
		return fmt.Errorf("failed to read documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (c *Client) UpdateDocument(ctx context.Context, id string, upd models.DocumentUpdate) (*models.Document, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC().UnixMilli()}

	if upd.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *upd.Title)
	}
	if upd.DocType != nil {
		sets = append(sets, "doc_type = ?")
		args = append(args, string(*upd.DocType))
	}
	if upd.ExtractedText != nil {
		sets = append(sets, "extracted_text = ?")
		args = append(args, *upd.ExtractedText)
	}
	args = append(args, id)

	query := `UPDATE documents SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`

	err := c.write(ctx, "update document", func() error {
		res, err := c.db.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		return requireAffected(res, id)
	})
	if err != nil {
		return nil, err
	}

	return c.GetDocument(ctx, id)
}

// IncrementChatCount bumps chat_count and stamps last_chat_at in one statement.
func (c *Client) IncrementChatCount(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE documents SET chat_count = chat_count + 1, last_chat_at = ?, updated_at = ? WHERE id = ?`
	millis := at.UTC().UnixMilli()

	return c.write(ctx, "increment chat count", func() error {
		res, err := c.db.ExecContext(ctx, query, millis, millis, id)
		if err != nil {
			return err
		}
		return requireAffected(res, id)
	})
}

// DeleteDocument removes the document and every chat about it.
func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	err := c.write(ctx, "delete document", func() error {
		tx, err := c.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if _, err := tx.ExecContext(ctx, `DELETE FROM chats WHERE document_id = ?`, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if err := requireAffected(res, id); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return err
	}

	logger.Info("Document deleted", zap.String("doc_id", id))
	return nil
}

func (c *Client) InsertChat(ctx context.Context, chat *models.Chat) error {
	if chat.ID == "" {
		chat.ID = uuid.New().String()
	}
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = time.Now().UTC()
	}
	if chat.UsedTools == nil {
		chat.UsedTools = []models.ToolInvocation{}
	}

	toolsJSON, err := json.Marshal(chat.UsedTools)
	if err != nil {
		return fmt.Errorf("failed to encode used tools: %w", err)
	}

	query := `INSERT INTO chats (id, document_id, user_message, ai_response, used_tools, created_at) VALUES (?, ?, ?, ?, ?, ?)`

	return c.write(ctx, "insert chat", func() error {
		_, err := c.db.ExecContext(ctx, query,
			chat.ID,
			chat.DocumentID,
			chat.UserMessage,
			chat.AIResponse,
			string(toolsJSON),
			chat.CreatedAt.UnixMilli(),
		)
		return err
	})
}

func (c *Client) GetChats(ctx context.Context, documentID string) ([]models.Chat, error) {
	query := `
		SELECT id, document_id, user_message, ai_response, used_tools, created_at
		FROM chats
		WHERE document_id = ?
		ORDER BY created_at ASC, rowid ASC
	`

	rows, err := c.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chats: %w", err)
	}
	defer rows.Close()

	chats := []models.Chat{}
	for rows.Next() {
		var chat models.Chat
		var toolsJSON string
		var createdAt int64

		if err := rows.Scan(&chat.ID, &chat.DocumentID, &chat.UserMessage, &chat.AIResponse, &toolsJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(toolsJSON), &chat.UsedTools); err != nil {
			return nil, fmt.Errorf("failed to decode used tools for chat %s: %w", chat.ID, err)
		}
		if chat.UsedTools == nil {
			chat.UsedTools = []models.ToolInvocation{}
		}
		chat.CreatedAt = time.UnixMilli(createdAt).UTC()
		chats = append(chats, chat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chats: %w", err)
	}
	return chats, nil
}

func (c *Client) DeleteChats(ctx context.Context, documentID string) (int64, error) {
	var deleted int64
	err := c.write(ctx, "delete chats", func() error {
		res, err := c.db.ExecContext(ctx, `DELETE FROM chats WHERE document_id = ?`, documentID)
		if err != nil {
			return err
		}
		deleted, err = res.RowsAffected()
		return err
	})
	return deleted, err
}

func requireAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("document %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

func nullableMillis(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().UnixMilli()
}

func fromNullableMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64).UTC()
	return &t
}
