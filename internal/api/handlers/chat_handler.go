package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/chat"
	"github.com/HimanshuMohanty-Git24/KhataGPT/pkg/logger"
)

type ChatHandler struct {
	chats *chat.Service
}

func NewChatHandler(chats *chat.Service) *ChatHandler {
	return &ChatHandler{
		chats: chats,
	}
}

func (h *ChatHandler) CreateChat(c *fiber.Ctx) error {
	var req struct {
		DocumentID  string `json:"document_id"`
		UserMessage string `json:"user_message"`
	}
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return badRequest(c, "Invalid request body")
	}
	if req.DocumentID == "" {
		return badRequest(c, "document_id is required")
	}

	record, err := h.chats.Create(c.UserContext(), req.DocumentID, req.UserMessage)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(record)
}

func (h *ChatHandler) GetChatHistory(c *fiber.Ctx) error {
	history, err := h.chats.History(c.UserContext(), c.Params("document_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(history)
}

func (h *ChatHandler) ClearChatHistory(c *fiber.Ctx) error {
	if _, err := h.chats.Clear(c.UserContext(), c.Params("document_id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Chat history deleted successfully"})
}
