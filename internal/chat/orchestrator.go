package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/llm"
	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/metrics"
	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/storage/models"
	"github.com/HimanshuMohanty-Git24/KhataGPT/pkg/logger"
	"github.com/HimanshuMohanty-Git24/KhataGPT/pkg/outcome"
)

type DocumentSource interface {
	Get(ctx context.Context, id string) (*models.Document, error)
}

type SearchDecider interface {
	ShouldSearch(ctx context.Context, question, content string) outcome.Result[bool]
}

type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]models.SearchHit, error)
}

type Options struct {
	QueryModel  string
	ChatModel   string
	MaxResults  int
	Temperature float32
	MaxTokens   int
}

// Reply is the outcome of one question. Cause is set when Answer holds the
// error text instead of a model answer.
type Reply struct {
	Answer    string
	UsedTools []models.ToolInvocation
	Cause     error
}

type Orchestrator struct {
	docs     DocumentSource
	decider  SearchDecider
	searcher Searcher
	llm      llm.Completer
	opts     Options
}

// NewOrchestrator wires the answering flow. A nil searcher disables web search.
func NewOrchestrator(docs DocumentSource, decider SearchDecider, searcher Searcher, completer llm.Completer, opts Options) *Orchestrator {
	return &Orchestrator{
		docs:     docs,
		decider:  decider,
		searcher: searcher,
		llm:      completer,
		opts:     opts,
	}
}

// Answer only returns an error when the document cannot be loaded. Every
// later failure is folded into the reply text.
func (o *Orchestrator) Answer(ctx context.Context, documentID, message string) (*Reply, error) {
	startTime := time.Now()

	doc, err := o.docs.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	logger.Info("Processing chat question",
		zap.String("doc_id", doc.ID),
		zap.String("doc_type", string(doc.DocType)),
	)

	reply, err := o.answer(ctx, doc, message)
	if err != nil {
		logger.Error("Chat answer failed", zap.String("doc_id", doc.ID), zap.Error(err))
		metrics.ChatsProcessed.WithLabelValues("error").Inc()
		return &Reply{
			Answer:    fmt.Sprintf("Error processing your question: %v", err),
			UsedTools: []models.ToolInvocation{},
			Cause:     err,
		}, nil
	}

	metrics.ChatsProcessed.WithLabelValues("success").Inc()
	metrics.ChatDuration.Observe(time.Since(startTime).Seconds())
	logger.Info("Chat question answered",
		zap.String("doc_id", doc.ID),
		zap.Int("tools_used", len(reply.UsedTools)),
		zap.Duration("elapsed", time.Since(startTime)),
	)
	return reply, nil
}

func (o *Orchestrator) answer(ctx context.Context, doc *models.Document, message string) (reply *Reply, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	tools := []models.ToolInvocation{}
	searchBlock := ""

	if o.searcher != nil && o.decider != nil {
		decision := o.decider.ShouldSearch(ctx, message, doc.ExtractedText)
		if decision.Value {
			if inv, ok := o.search(ctx, doc, message); ok {
				tools = append(tools, inv)
				searchBlock = formatSearchResults(inv.Results)
			}
		}
	}

	resp, err := o.llm.Complete(ctx, llm.CompletionRequest{
		Model:       o.opts.ChatModel,
		UserPrompt:  buildAnswerPrompt(doc, searchBlock, message),
		Temperature: o.opts.Temperature,
		MaxTokens:   o.opts.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	return &Reply{Answer: resp.Content, UsedTools: tools}, nil
}

// search runs one web lookup. Failures and empty results leave no tool record.
func (o *Orchestrator) search(ctx context.Context, doc *models.Document, message string) (models.ToolInvocation, bool) {
	metrics.WebSearchTriggered.Inc()

	query := o.searchQuery(ctx, doc, message)
	hits, err := o.searcher.Search(ctx, query, o.opts.MaxResults)
	if err != nil {
		logger.Warn("Web search failed", zap.String("query", query), zap.Error(err))
		return models.ToolInvocation{}, false
	}
	if len(hits) == 0 {
		return models.ToolInvocation{}, false
	}

	return models.ToolInvocation{
		ToolName: models.ToolSearch,
		Query:    &query,
		Results:  hits,
	}, true
}

func (o *Orchestrator) searchQuery(ctx context.Context, doc *models.Document, message string) string {
	resp, err := o.llm.Complete(ctx, llm.CompletionRequest{
		Model:      o.opts.QueryModel,
		UserPrompt: buildQueryPrompt(message, doc),
	})
	if err != nil {
		logger.Warn("Search query generation failed", zap.Error(err))
		return fallbackQuery(message, doc)
	}

	query := strings.TrimSpace(resp.Content)
	if query == "" {
		return fallbackQuery(message, doc)
	}
	return query
}
