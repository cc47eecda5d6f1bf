package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/documents"
	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/ingestion"
	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/storage/models"
	"github.com/HimanshuMohanty-Git24/KhataGPT/pkg/logger"
)

type DocumentHandler struct {
	docs     *documents.Service
	pipeline *ingestion.Pipeline
}

func NewDocumentHandler(docs *documents.Service, pipeline *ingestion.Pipeline) *DocumentHandler {
	return &DocumentHandler{
		docs:     docs,
		pipeline: pipeline,
	}
}

// CreateDocument accepts either a multipart upload or the JSON form with
// embedded base64 content.
func (h *DocumentHandler) CreateDocument(c *fiber.Ctx) error {
	if isMultipart(c) {
		return h.UploadDocument(c)
	}

	var req ingestion.EncodedUpload
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return badRequest(c, "Invalid request body")
	}

	doc, err := h.pipeline.IngestEncoded(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(doc)
}

func (h *DocumentHandler) UploadDocument(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return badRequest(c, "Invalid multipart form")
	}

	files, err := readUploadFiles(form)
	if err != nil {
		logger.Error("Failed to read uploaded files", zap.Error(err))
		return badRequest(c, "Failed to read uploaded file")
	}

	upload := ingestion.Upload{
		Files:   files,
		Title:   formValue(form, "title"),
		DocType: models.DocType(formValue(form, "doc_type")),
	}

	doc, err := h.pipeline.Ingest(c.UserContext(), upload)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(doc)
}

func (h *DocumentHandler) ListDocuments(c *fiber.Ctx) error {
	var (
		docs []models.DocumentSummary
		err  error
	)
	if term := c.Query("search"); term != "" {
		docs, err = h.docs.Search(c.UserContext(), term)
	} else {
		docs, err = h.docs.List(c.UserContext())
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(docs)
}

func (h *DocumentHandler) GetDocument(c *fiber.Ctx) error {
	doc, err := h.docs.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(doc)
}

func (h *DocumentHandler) GetDocumentFile(c *fiber.Ctx) error {
	doc, err := h.docs.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"image":     doc.EncodedContent,
		"file_type": doc.FileType,
	})
}

func (h *DocumentHandler) UpdateDocument(c *fiber.Ctx) error {
	var req struct {
		Title         *string `json:"title"`
		DocType       *string `json:"doc_type"`
		ExtractedText *string `json:"extracted_text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	upd := models.DocumentUpdate{Title: req.Title, ExtractedText: req.ExtractedText}
	if req.DocType != nil {
		docType := models.DocType(*req.DocType)
		upd.DocType = &docType
	}
	return h.applyUpdate(c, upd)
}

func (h *DocumentHandler) UpdateContent(c *fiber.Ctx) error {
	var req struct {
		Content *string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil || req.Content == nil {
		return badRequest(c, "content is required")
	}
	return h.applyUpdate(c, models.DocumentUpdate{ExtractedText: req.Content})
}

func (h *DocumentHandler) UpdateTitle(c *fiber.Ctx) error {
	var req struct {
		Title string `json:"title"`
	}
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		return badRequest(c, "title is required")
	}
	title := strings.TrimSpace(req.Title)
	return h.applyUpdate(c, models.DocumentUpdate{Title: &title})
}

func (h *DocumentHandler) applyUpdate(c *fiber.Ctx, upd models.DocumentUpdate) error {
	if upd.IsEmpty() {
		return badRequest(c, "No updatable fields provided")
	}
	doc, err := h.docs.Update(c.UserContext(), c.Params("id"), upd)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(doc)
}

func (h *DocumentHandler) DeleteDocument(c *fiber.Ctx) error {
	if err := h.docs.Delete(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Document deleted successfully"})
}

func (h *DocumentHandler) IncrementChatCount(c *fiber.Ctx) error {
	if err := h.docs.IncrementChatCount(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Chat count incremented"})
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm)
}

// readUploadFiles collects the "files" field, falling back to "file", in form order.
func readUploadFiles(form *multipart.Form) ([]ingestion.UploadFile, error) {
	headers := form.File["files"]
	if len(headers) == 0 {
		headers = form.File["file"]
	}

	files := make([]ingestion.UploadFile, 0, len(headers))
	for _, fh := range headers {
		data, err := readFileHeader(fh)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
		}
		files = append(files, ingestion.UploadFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get(fiber.HeaderContentType),
			Data:        data,
		})
	}
	return files, nil
}

func readFileHeader(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func formValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return strings.TrimSpace(values[0])
	}
	return ""
}
