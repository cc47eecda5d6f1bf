package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/storage/models"
	"github.com/HimanshuMohanty-Git24/KhataGPT/pkg/logger"
)

const (
	DefaultBaseURL    = "https://html.duckduckgo.com/html/"
	DefaultMaxResults = 3
	userAgent         = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/96.0.4664.110 Safari/537.36"
)

var ErrSearchFailed = errors.New("web search failed")

// Client scrapes the DuckDuckGo HTML endpoint. It never retries or caches.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Search returns at most maxResults hits in engine order. Zero hits is not an error.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]models.SearchHit, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	logger.Info("Performing web search", zap.String("query", query))

	searchURL := fmt.Sprintf("%s?q=%s", c.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", ErrSearchFailed, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: search returned status %d", ErrSearchFailed, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse HTML: %w", ErrSearchFailed, err)
	}

	hits := parseResults(doc, maxResults)
	logger.Info("Web search completed", zap.String("query", query), zap.Int("results", len(hits)))
	return hits, nil
}

func parseResults(doc *goquery.Document, maxResults int) []models.SearchHit {
	hits := make([]models.SearchHit, 0, maxResults)

	doc.Find(".result").EachWithBreak(func(i int, s *goquery.Selection) bool {
		titleElem := s.Find(".result__title").First()
		linkElem := s.Find(".result__url").First()
		snippetElem := s.Find(".result__snippet").First()

		if titleElem.Length() == 0 || linkElem.Length() == 0 || snippetElem.Length() == 0 {
			return true
		}

		link, ok := linkElem.Attr("href")
		if !ok || link == "" {
			link = strings.TrimSpace(linkElem.Text())
		}

		hits = append(hits, models.SearchHit{
			Title:   strings.TrimSpace(titleElem.Text()),
			Link:    link,
			Snippet: strings.TrimSpace(snippetElem.Text()),
		})
		return len(hits) < maxResults
	})

	return hits
}
