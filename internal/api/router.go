package api

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/api/handlers"
	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/metrics"
	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/middleware/ratelimit"
	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/middleware/security"
	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/middleware/validation"
	"github.com/HimanshuMohanty-Git24/KhataGPT/pkg/config"
	"github.com/HimanshuMohanty-Git24/KhataGPT/pkg/logger"
)

type Handlers struct {
	Documents *handlers.DocumentHandler
	Chats     *handlers.ChatHandler
	WebSocket *handlers.WebSocketHandler
	// Ready reports whether backing stores are reachable.
	Ready func(ctx context.Context) error
}

func NewRouter(cfg *config.Config, h Handlers) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Logger:               logger.GetLogger(),
	})
	app.Hooks().OnShutdown(func() error {
		limiter.Stop()
		return nil
	})

	validationCfg := validation.Config{
		MaxUploadSize:     int64(cfg.Upload.MaxSizeBytes),
		AllowedExtensions: cfg.Upload.AllowedExtensions,
		Logger:            logger.GetLogger(),
	}

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: allowOrigins(cfg.Server.AllowedOrigins),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		IsDevelopment:  cfg.Server.Development,
	}))

	app.Get("/metrics", metrics.MetricsHandler())

	api := app.Group("/api/v1", limiter.Middleware(), validation.ContentType(validationCfg))

	upload := validation.Upload(validationCfg)
	docs := api.Group("/documents")
	docs.Get("/", h.Documents.ListDocuments)
	docs.Post("/", upload, h.Documents.CreateDocument)
	docs.Post("/upload", upload, h.Documents.UploadDocument)
	docs.Get("/:id", h.Documents.GetDocument)
	docs.Put("/:id", h.Documents.UpdateDocument)
	docs.Delete("/:id", h.Documents.DeleteDocument)
	docs.Get("/:id/file", h.Documents.GetDocumentFile)
	docs.Put("/:id/content", h.Documents.UpdateContent)
	docs.Put("/:id/title", h.Documents.UpdateTitle)
	docs.Post("/:id/increment-chat", h.Documents.IncrementChatCount)

	chatMessage := validation.ChatMessage(validationCfg)
	for _, prefix := range []string{"/chats", "/chat"} {
		chats := api.Group(prefix)
		chats.Post("/", chatMessage, h.Chats.CreateChat)
		chats.Get("/:document_id", h.Chats.GetChatHistory)
		chats.Delete("/:document_id", h.Chats.ClearChatHistory)
	}

	ws := api.Group("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	ws.Get("/chats/:document_id", websocket.New(h.WebSocket.HandleConnection))

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		if h.Ready != nil {
			if err := h.Ready(c.UserContext()); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"status": "unavailable",
					"error":  err.Error(),
				})
			}
		}
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	return app
}

func allowOrigins(origins []string) string {
	if len(origins) == 0 {
		return "*"
	}
	return strings.Join(origins, ", ")
}
