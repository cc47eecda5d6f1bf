package validation

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var uploadFields = []string{"file", "files"}

type Config struct {
	MaxMessageLength    int
	MaxUploadSize       int64
	AllowedExtensions   []string
	AllowedContentTypes []string
	Logger              *zap.Logger
}

func (cfg *Config) applyDefaults() {
	if cfg.MaxMessageLength == 0 {
		cfg.MaxMessageLength = 5000
	}
	if cfg.MaxUploadSize == 0 {
		cfg.MaxUploadSize = 10 * 1024 * 1024
	}
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = []string{"jpg", "jpeg", "png", "webp", "pdf"}
	}
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = []string{"application/json", "multipart/form-data"}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
}

// ContentType rejects POST and PUT bodies that are neither JSON nor multipart.
func ContentType(cfg Config) fiber.Handler {
	cfg.applyDefaults()

	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost && c.Method() != fiber.MethodPut {
			return c.Next()
		}

		contentType := c.Get(fiber.HeaderContentType)
		if contentType == "" {
			return c.Next()
		}
		for _, allowed := range cfg.AllowedContentTypes {
			if strings.Contains(contentType, allowed) {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
			"error": "Unsupported content type",
		})
	}
}

// Upload enforces the extension allow-list and size limit on multipart uploads.
func Upload(cfg Config) fiber.Handler {
	cfg.applyDefaults()

	allowed := make(map[string]bool, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		allowed[strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))] = true
	}

	return func(c *fiber.Ctx) error {
		if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
			return c.Next()
		}

		form, err := c.MultipartForm()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid multipart form",
			})
		}

		for _, field := range uploadFields {
			for _, fh := range form.File[field] {
				if fh.Size > cfg.MaxUploadSize {
					cfg.Logger.Warn("Upload too large",
						zap.String("ip", c.IP()),
						zap.String("file", fh.Filename),
						zap.Int64("size", fh.Size),
					)
					return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
						"error": "File exceeds maximum upload size",
					})
				}

				ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fh.Filename), "."))
				if !allowed[ext] {
					cfg.Logger.Warn("Rejected upload extension",
						zap.String("ip", c.IP()),
						zap.String("file", fh.Filename),
					)
					return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
						"error": "File type not allowed: " + fh.Filename,
					})
				}
			}
		}

		return c.Next()
	}
}

// ChatMessage requires a document_id and a non-empty user_message on chat creation.
func ChatMessage(cfg Config) fiber.Handler {
	cfg.applyDefaults()

	return func(c *fiber.Ctx) error {
		var req map[string]interface{}
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid JSON format",
			})
		}

		documentID, ok := req["document_id"].(string)
		if !ok || strings.TrimSpace(documentID) == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "document_id is required and must be a string",
			})
		}

		message, ok := req["user_message"].(string)
		if !ok || sanitizeString(message) == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "user_message is required and must be a string",
			})
		}

		if len(message) > cfg.MaxMessageLength {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "user_message exceeds maximum length",
			})
		}

		return c.Next()
	}
}

func sanitizeString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.ReplaceAll(input, "\x00", "")
	return input
}
