package extraction

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/llm"
	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/media"
	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/storage/models"
	"github.com/HimanshuMohanty-Git24/KhataGPT/pkg/logger"
	"github.com/HimanshuMohanty-Git24/KhataGPT/pkg/outcome"
	"github.com/HimanshuMohanty-Git24/KhataGPT/pkg/utils"
)

// Payload is a normalized JPEG or an untouched PDF.
type Payload struct {
	FileType models.FileType
	Data     []byte
}

func (p Payload) hash() string {
	return utils.HashBytes(append([]byte(string(p.FileType)+":"), p.Data...))
}

type Cache interface {
	GetExtraction(ctx context.Context, payloadHash string) (string, bool, error)
	SetExtraction(ctx context.Context, payloadHash, text string) error
}

type Client struct {
	llm        llm.Completer
	imageModel string
	pdfModel   string
	cache      Cache
}

type Option func(*Client)

func WithCache(cache Cache) Option {
	return func(c *Client) { c.cache = cache }
}

func NewClient(completer llm.Completer, imageModel, pdfModel string, opts ...Option) *Client {
	c := &Client{llm: completer, imageModel: imageModel, pdfModel: pdfModel}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Extract turns the payload into markdown. Model failures never surface as
// errors: the result degrades to a visible surrogate text instead.
func (c *Client) Extract(ctx context.Context, p Payload) outcome.Result[string] {
	key := p.hash()
	if c.cache != nil {
		text, ok, err := c.cache.GetExtraction(ctx, key)
		if err != nil {
			logger.Warn("Extraction cache read failed", zap.Error(err))
		} else if ok {
			return outcome.Success(text)
		}
	}

	text, err := c.extract(ctx, p)
	if err != nil {
		surrogate := fmt.Sprintf("Error extracting text: %s", err)
		if p.FileType == models.FileTypePDF {
			surrogate = fmt.Sprintf("Error extracting text from PDF: %s", err)
		}
		logger.Warn("Extraction degraded", zap.String("file_type", string(p.FileType)), zap.Error(err))
		return outcome.Degraded(surrogate, err)
	}

	if c.cache != nil {
		if err := c.cache.SetExtraction(ctx, key, text); err != nil {
			logger.Warn("Extraction cache write failed", zap.Error(err))
		}
	}
	return outcome.Success(text)
}

func (c *Client) extract(ctx context.Context, p Payload) (string, error) {
	req := llm.CompletionRequest{
		Model:        c.imageModel,
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Attachments:  []llm.Attachment{{MIMEType: llm.MIMEJPEG, Data: p.Data}},
	}

	if p.FileType == models.FileTypePDF {
		req.Model = c.pdfModel
		req.Attachments[0].MIMEType = llm.MIMEPDF

		layer, err := media.PDFText(p.Data)
		if err != nil {
			logger.Debug("PDF text layer unavailable", zap.Error(err))
		} else if layer != "" {
			req.UserPrompt += textLayerHint + utils.Truncate(layer, maxTextLayerRunes)
		}
	}

	resp, err := c.llm.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
