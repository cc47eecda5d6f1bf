package chat

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/llm"
	"github.com/HimanshuMohanty-Git24/KhataGPT/pkg/logger"
	"github.com/HimanshuMohanty-Git24/KhataGPT/pkg/outcome"
)

// Decider asks a small model whether a question needs information from the web.
type Decider struct {
	llm   llm.Completer
	model string
}

func NewDecider(completer llm.Completer, model string) *Decider {
	return &Decider{llm: completer, model: model}
}

// ShouldSearch never fails; any model problem degrades to false.
func (d *Decider) ShouldSearch(ctx context.Context, question, content string) outcome.Result[bool] {
	resp, err := d.llm.Complete(ctx, llm.CompletionRequest{
		Model:      d.model,
		UserPrompt: buildDeciderPrompt(question, content),
	})
	if err != nil {
		logger.Warn("Search decision failed", zap.Error(err))
		return outcome.Degraded(false, err)
	}

	verdict := strings.ToUpper(strings.TrimSpace(resp.Content))
	return outcome.Success(strings.Contains(verdict, "YES"))
}
