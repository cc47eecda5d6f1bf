package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/metrics"
	"github.com/HimanshuMohanty-Git24/KhataGPT/pkg/logger"
)

const extractionPrefix = "extraction:"

type Client struct {
	client *redis.Client
	ttl    time.Duration
}

func NewClient(host string, port int, password string, db int, ttl time.Duration) (*Client, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", addr), zap.Duration("ttl", ttl))

	return &Client{client: client, ttl: ttl}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func extractionKey(payloadHash string) string {
	return extractionPrefix + payloadHash
}

// GetExtraction looks up extracted text by payload hash.
func (c *Client) GetExtraction(ctx context.Context, payloadHash string) (string, bool, error) {
	text, err := c.client.Get(ctx, extractionKey(payloadHash)).Result()
	if errors.Is(err, redis.Nil) {
		metrics.CacheMisses.WithLabelValues("extraction").Inc()
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get extraction cache: %w", err)
	}

	metrics.CacheHits.WithLabelValues("extraction").Inc()
	logger.Debug("Extraction cache hit", zap.String("payload_hash", payloadHash))
	return text, true, nil
}

func (c *Client) SetExtraction(ctx context.Context, payloadHash, text string) error {
	if err := c.client.Set(ctx, extractionKey(payloadHash), text, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set extraction cache: %w", err)
	}

	logger.Debug("Extraction cached", zap.String("payload_hash", payloadHash), zap.Duration("ttl", c.ttl))
	return nil
}

// Invalidate drops every cached extraction.
func (c *Client) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, extractionPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warn("Failed to delete cache key", zap.Error(err))
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to iterate cache keys: %w", err)
	}

	logger.Info("Extraction cache invalidated")
	return nil
}
