package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/websocket/v2"
	"github.com/jdkato/prose/v2"
	"go.uber.org/zap"

	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/chat"
	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/storage/models"
	"github.com/HimanshuMohanty-Git24/KhataGPT/pkg/logger"
)

// WebSocketHandler answers chat questions over a socket bound to one
// document, streaming the stored answer sentence by sentence.
type WebSocketHandler struct {
	chats *chat.Service
}

func NewWebSocketHandler(chats *chat.Service) *WebSocketHandler {
	return &WebSocketHandler{
		chats: chats,
	}
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	documentID := c.Params("document_id")
	logger.Info("WebSocket connection established", zap.String("doc_id", documentID))

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed", zap.String("doc_id", documentID))
	}()

	for {
		var msg struct {
			Type    string `json:"type"`
			Content string `json:"content"`
		}

		if err := c.ReadJSON(&msg); err != nil {
			logger.Debug("WebSocket read ended", zap.Error(err))
			break
		}

		if msg.Type != "query" {
			continue
		}

		if err := h.streamResponse(c, documentID, msg.Content); err != nil {
			logger.Error("Failed to stream response", zap.String("doc_id", documentID), zap.Error(err))
			h.sendError(c, "Failed to process question")
		}
	}
}

func (h *WebSocketHandler) streamResponse(c *websocket.Conn, documentID, message string) error {
	ctx := context.Background()

	if err := h.sendChunk(c, "status", "Processing question..."); err != nil {
		return err
	}

	record, err := h.chats.Create(ctx, documentID, message)
	if err != nil {
		return err
	}

	for _, chunk := range splitIntoSentences(record.AIResponse) {
		if err := h.sendChunk(c, "chunk", chunk); err != nil {
			return err
		}
	}

	return h.sendComplete(c, record)
}

func (h *WebSocketHandler) sendChunk(c *websocket.Conn, msgType, content string) error {
	msg := map[string]interface{}{
		"type":    msgType,
		"content": content,
	}

	return c.WriteJSON(msg)
}

func (h *WebSocketHandler) sendComplete(c *websocket.Conn, record *models.Chat) error {
	msg := map[string]interface{}{
		"type": "complete",
		"chat": record,
	}

	return c.WriteJSON(msg)
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) {
	msg := map[string]interface{}{
		"type":  "error",
		"error": errorMsg,
	}

	c.WriteJSON(msg)
}

// splitIntoSentences keeps markdown line structure: every line is split into
// sentences and the chunks concatenate back to the same lines.
func splitIntoSentences(text string) []string {
	chunks := []string{}
	lines := strings.Split(text, "\n")

	for i, line := range lines {
		end := "\n"
		if i == len(lines)-1 {
			end = ""
		}

		sentences := sentencesOf(line)
		if len(sentences) == 0 {
			if end != "" {
				chunks = append(chunks, end)
			}
			continue
		}
		for j, s := range sentences {
			if j < len(sentences)-1 {
				s += " "
			} else {
				s += end
			}
			chunks = append(chunks, s)
		}
	}

	return chunks
}

func sentencesOf(line string) []string {
	if strings.TrimSpace(line) == "" {
		return nil
	}

	doc, err := prose.NewDocument(line,
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return []string{line}
	}

	sentences := make([]string, 0, len(doc.Sentences()))
	for _, s := range doc.Sentences() {
		if t := strings.TrimSpace(s.Text); t != "" {
			sentences = append(sentences, t)
		}
	}
	if len(sentences) == 0 {
		return []string{line}
	}
	return sentences
}
