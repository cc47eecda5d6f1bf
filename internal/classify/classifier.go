package classify

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/llm"
	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/storage/models"
	"github.com/HimanshuMohanty-Git24/KhataGPT/pkg/logger"
	"github.com/HimanshuMohanty-Git24/KhataGPT/pkg/outcome"
	"github.com/HimanshuMohanty-Git24/KhataGPT/pkg/utils"
)

const (
	MaxTitleRunes = 60
	excerptRunes  = 1000
)

const titlePrompt = `Based on the following document text, generate a clear, descriptive title
(maximum 60 characters).

The title should:
1. Start with the document type (e.g., "Receipt:", "Invoice:", "Menu:")
2. Include business/organization name if available
3. Include key identifying details (date, reference numbers, etc.)
4. Be specific enough to distinguish it from similar documents

Examples of good titles:
- "Receipt: Walmart Groceries - March 24, 2025"
- "Menu: Riverfront Grill Food & Drinks"
- "Invoice #INV-2025-03-24: Computer Accessories"

Return only the title.

Document text:
`

const typePrompt = `Classify this document text into one category: receipt, invoice, bill, statement,
form, menu, contract, report, letter, or other.
Return only the category name, nothing else.

Document text:
`

// Classifier names and categorizes extracted documents. Neither operation
// fails: model problems fall back to deterministic defaults.
type Classifier struct {
	llm   llm.Completer
	model string
	now   func() time.Time
}

type Option func(*Classifier)

func WithClock(now func() time.Time) Option {
	return func(c *Classifier) { c.now = now }
}

func NewClassifier(completer llm.Completer, model string, opts ...Option) *Classifier {
	c := &Classifier{llm: completer, model: model, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FallbackTitle is used whenever no usable title comes back from the model.
func (c *Classifier) FallbackTitle() string {
	return fmt.Sprintf("Document Scan (%s)", c.now().Local().Format("2006-01-02 15:04"))
}

func (c *Classifier) Title(ctx context.Context, text string) outcome.Result[string] {
	resp, err := c.llm.Complete(ctx, llm.CompletionRequest{
		Model:      c.model,
		UserPrompt: titlePrompt + utils.Truncate(text, excerptRunes),
		MaxTokens:  64,
	})
	if err != nil {
		logger.Warn("Title generation failed", zap.Error(err))
		return outcome.Degraded(c.FallbackTitle(), err)
	}

	title := cleanTitle(resp.Content)
	if title == "" || utf8.RuneCountInString(title) > MaxTitleRunes {
		return outcome.Degraded(c.FallbackTitle(), fmt.Errorf("unusable title %q", utils.Truncate(title, 100)))
	}
	return outcome.Success(title)
}

func cleanTitle(s string) string {
	s = strings.TrimSpace(s)
	for _, q := range []string{`"`, `'`, "`", "*"} {
		if len(s) >= 2 && strings.HasPrefix(s, q) && strings.HasSuffix(s, q) {
			s = strings.TrimSpace(s[len(q) : len(s)-len(q)])
		}
	}
	return s
}

func (c *Classifier) DocType(ctx context.Context, text string) outcome.Result[models.DocType] {
	resp, err := c.llm.Complete(ctx, llm.CompletionRequest{
		Model:      c.model,
		UserPrompt: typePrompt + utils.Truncate(text, excerptRunes),
		MaxTokens:  16,
	})
	if err != nil {
		logger.Warn("Document type detection failed", zap.Error(err))
		return outcome.Degraded(models.DocTypeOther, err)
	}

	return outcome.Success(models.ParseDocType(resp.Content))
}
