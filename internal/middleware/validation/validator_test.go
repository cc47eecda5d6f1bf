package validation

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(mw fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Post("/", mw, func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Put("/", mw, func(c *fiber.Ctx) error { return c.SendString("ok") })
	return app
}

func status(t *testing.T, app *fiber.App, method, contentType, body string) int {
	t.Helper()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func upload(t *testing.T, app *fiber.App, field, name string, size int) int {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = fw.Write(make([]byte, size))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestContentType(t *testing.T) {
	app := newApp(ContentType(Config{}))

	assert.Equal(t, fiber.StatusOK, status(t, app, "POST", "application/json", "{}"))
	assert.Equal(t, fiber.StatusOK, status(t, app, "PUT", "application/json; charset=utf-8", "{}"))
	assert.Equal(t, fiber.StatusOK, status(t, app, "POST", "", ""))
	assert.Equal(t, fiber.StatusUnsupportedMediaType, status(t, app, "POST", "text/plain", "hi"))
}

func TestUpload(t *testing.T) {
	app := newApp(Upload(Config{MaxUploadSize: 1024, AllowedExtensions: []string{".JPG", "pdf"}}))

	assert.Equal(t, fiber.StatusOK, upload(t, app, "file", "scan.jpg", 100))
	assert.Equal(t, fiber.StatusOK, upload(t, app, "files", "statement.PDF", 100))
	assert.Equal(t, fiber.StatusUnsupportedMediaType, upload(t, app, "file", "notes.txt", 100))
	assert.Equal(t, fiber.StatusUnsupportedMediaType, upload(t, app, "file", "noext", 100))
	assert.Equal(t, fiber.StatusRequestEntityTooLarge, upload(t, app, "file", "scan.jpg", 4096))
	assert.Equal(t, fiber.StatusOK, upload(t, app, "other", "notes.txt", 100))
	assert.Equal(t, fiber.StatusOK, status(t, app, "POST", "application/json", `{"image_base64":""}`))
}

func TestChatMessage(t *testing.T) {
	app := newApp(ChatMessage(Config{MaxMessageLength: 10}))

	assert.Equal(t, fiber.StatusOK, status(t, app, "POST", "application/json", `{"document_id":"d1","user_message":"total?"}`))
	assert.Equal(t, fiber.StatusBadRequest, status(t, app, "POST", "application/json", `{"document_id":"d1","user_message":"  "}`))
	assert.Equal(t, fiber.StatusBadRequest, status(t, app, "POST", "application/json", `{"document_id":"d1"}`))
	assert.Equal(t, fiber.StatusBadRequest, status(t, app, "POST", "application/json", `{"user_message":"hi"}`))
	assert.Equal(t, fiber.StatusBadRequest, status(t, app, "POST", "application/json", `{"document_id":"d1","user_message":"far too long for it"}`))
	assert.Equal(t, fiber.StatusBadRequest, status(t, app, "POST", "application/json", `not json`))
}
