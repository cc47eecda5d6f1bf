// Package llmtest provides a scripted llm.Completer for tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/llm"
)

type Fake struct {
	Handler func(req llm.CompletionRequest) (string, error)

	mu       sync.Mutex
	requests []llm.CompletionRequest
}

func (f *Fake) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := f.Handler(req)
	if err != nil {
		return nil, err
	}
	return &llm.CompletionResponse{Content: content, Model: req.Model}, nil
}

func (f *Fake) Requests() []llm.CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llm.CompletionRequest(nil), f.requests...)
}

func Reply(content string) *Fake {
	return &Fake{Handler: func(llm.CompletionRequest) (string, error) { return content, nil }}
}

func Fail(err error) *Fake {
	return &Fake{Handler: func(llm.CompletionRequest) (string, error) { return "", err }}
}
