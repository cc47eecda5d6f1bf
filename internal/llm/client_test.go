package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HimanshuMohanty-Git24/KhataGPT/pkg/config"
)

type capturedRequest struct {
	Model    string            `json:"model"`
	Messages []json.RawMessage `json:"messages"`
}

func completionBody(content string) string {
	resp := map[string]any{
		"id":      "cmpl-1",
		"object":  "chat.completion",
		"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": content}, "finish_reason": "stop"}},
		"usage":   map[string]any{"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func newTestClient(t *testing.T, handler http.HandlerFunc, attempts int) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.LLMConfig{
		BaseURL:     srv.URL + "/",
		APIKey:      "test-key",
		ChatModel:   "chat-model",
		TimeoutSec:  5,
		MaxAttempts: attempts,
	})
}

func TestCompleteSendsTextPrompt(t *testing.T) {
	var got capturedRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody("NO")))
	}, 1)

	resp, err := c.Complete(context.Background(), CompletionRequest{SystemPrompt: "sys", UserPrompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "NO", resp.Content)
	assert.Equal(t, "chat-model", resp.Model)
	assert.Equal(t, 15, resp.Usage.TotalTokens)
	assert.Equal(t, "chat-model", got.Model)
	assert.Len(t, got.Messages, 2)
}

func TestCompleteSendsAttachmentsAsDataURLs(t *testing.T) {
	var body string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		b, _ := json.Marshal(raw["messages"])
		body = string(b)
		_, _ = w.Write([]byte(completionBody("# Receipt")))
	}, 1)

	_, err := c.Complete(context.Background(), CompletionRequest{
		Model:       "vision-model",
		UserPrompt:  "extract",
		Attachments: []Attachment{{MIMEType: MIMEPDF, Data: []byte("%PDF-1.4")}},
	})
	require.NoError(t, err)
	assert.Contains(t, body, "data:application/pdf;base64,JVBERi0xLjQ=")
	assert.Contains(t, body, `"type":"text"`)
}

func TestCompleteRejectsEmptyContent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(completionBody("   ")))
	}, 1)

	_, err := c.Complete(context.Background(), CompletionRequest{UserPrompt: "hi"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestCompleteDoesNotRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}, 0)

	_, err := c.Complete(context.Background(), CompletionRequest{UserPrompt: "hi"})
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCompleteRetriesTransientErrorsWhenConfigured(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"quota","type":"rate_limit"}}`))
			return
		}
		_, _ = w.Write([]byte(completionBody("ok")))
	}, 2)

	resp, err := c.Complete(context.Background(), CompletionRequest{UserPrompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, int32(2), calls.Load())
}

func TestIsTransient(t *testing.T) {
	assert.False(t, isTransient(context.Canceled))
	assert.False(t, isTransient(ErrEmptyResponse))
	assert.True(t, isTransient(assert.AnError))
}
