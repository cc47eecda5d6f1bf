package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/chat"
	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/ingestion"
	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/media"
	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/storage"
	"github.com/HimanshuMohanty-Git24/KhataGPT/pkg/logger"
)

// respondError maps domain sentinels to HTTP statuses. Anything unknown is
// logged and reported as a 500 without leaking the cause.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Document not found"})
	case errors.Is(err, ingestion.ErrNoFiles),
		errors.Is(err, media.ErrNoImages),
		errors.Is(err, media.ErrDecode),
		errors.Is(err, media.ErrBase64),
		errors.Is(err, chat.ErrEmptyMessage):
		return badRequest(c, err.Error())
	}

	logger.Error("Request failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
