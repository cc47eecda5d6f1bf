package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/storage"
	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/storage/models"
	"github.com/HimanshuMohanty-Git24/KhataGPT/pkg/logger"
)

var ErrEmptyMessage = errors.New("user_message is required")

type Store interface {
	InsertChat(ctx context.Context, chat *models.Chat) error
	GetChats(ctx context.Context, documentID string) ([]models.Chat, error)
	DeleteChats(ctx context.Context, documentID string) (int64, error)
	DocumentExists(ctx context.Context, id string) (bool, error)
}

type Documents interface {
	IncrementChatCount(ctx context.Context, id string) error
}

type Answerer interface {
	Answer(ctx context.Context, documentID, message string) (*Reply, error)
}

// Service owns chat history. It records every answered question, including
// those whose answer is an error text.
type Service struct {
	store    Store
	docs     Documents
	answerer Answerer
}

func NewService(store Store, docs Documents, answerer Answerer) *Service {
	return &Service{store: store, docs: docs, answerer: answerer}
}

func (s *Service) Create(ctx context.Context, documentID, message string) (*models.Chat, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}

	reply, err := s.answerer.Answer(ctx, documentID, message)
	if err != nil {
		return nil, err
	}

	chat := &models.Chat{
		DocumentID:  documentID,
		UserMessage: message,
		AIResponse:  reply.Answer,
		UsedTools:   reply.UsedTools,
	}
	if err := s.store.InsertChat(ctx, chat); err != nil {
		return nil, fmt.Errorf("failed to store chat: %w", err)
	}

	if err := s.docs.IncrementChatCount(ctx, documentID); err != nil {
		logger.Warn("Failed to update chat count", zap.String("doc_id", documentID), zap.Error(err))
	}

	return chat, nil
}

// History is empty for unknown documents, including ones already deleted.
func (s *Service) History(ctx context.Context, documentID string) ([]models.Chat, error) {
	return s.store.GetChats(ctx, documentID)
}

func (s *Service) Clear(ctx context.Context, documentID string) (int64, error) {
	exists, err := s.store.DocumentExists(ctx, documentID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, fmt.Errorf("document %s: %w", documentID, storage.ErrNotFound)
	}
	deleted, err := s.store.DeleteChats(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear chats: %w", err)
	}
	logger.Info("Chat history cleared", zap.String("doc_id", documentID), zap.Int64("deleted", deleted))
	return deleted, nil
}
