package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/api"
	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/api/handlers"
	rediscache "github.com/HimanshuMohanty-Git24/KhataGPT/internal/cache/redis"
	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/chat"
	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/classify"
	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/documents"
	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/extraction"
	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/ingestion"
	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/llm"
	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/metrics"
	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/search/web"
	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/storage/index"
	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/storage/sqlite"
	"github.com/HimanshuMohanty-Git24/KhataGPT/pkg/config"
	appLogger "github.com/HimanshuMohanty-Git24/KhataGPT/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:           "khatagpt",
	Short:         "Document understanding backend for receipts, bills and menus",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds everything built from the configuration.
type app struct {
	cfg      *config.Config
	store    *sqlite.Client
	cache    *rediscache.Client
	index    *index.TextIndex
	docs     *documents.Service
	pipeline *ingestion.Pipeline
	chats    *chat.Service
}

func setup() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	metrics.Init()

	store, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create SQLite client: %w", err)
	}
	if err := store.InitSchema(); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	a := &app{cfg: cfg, store: store}

	var extractionOpts []extraction.Option
	if cfg.Redis.Enabled {
		cache, err := rediscache.NewClient(
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
			time.Duration(cfg.Redis.TTLHours)*time.Hour,
		)
		if err != nil {
			appLogger.Warn("Redis unavailable, extraction cache disabled", zap.Error(err))
		} else {
			a.cache = cache
			extractionOpts = append(extractionOpts, extraction.WithCache(cache))
		}
	}

	a.index = index.New(cfg.Search.IndexPath, store.AllDocuments)
	a.docs = documents.NewService(store, a.index)

	llmClient := llm.NewClient(cfg.LLM)

	a.pipeline = ingestion.NewPipeline(
		extraction.NewClient(llmClient, cfg.LLM.ExtractionModel, cfg.LLM.PDFModel, extractionOpts...),
		classify.NewClassifier(llmClient, cfg.LLM.ClassifierModel),
		a.docs,
	)

	var searcher chat.Searcher
	if cfg.Search.Enabled {
		searcher = web.NewClient(cfg.Search.BaseURL, time.Duration(cfg.Search.TimeoutSec)*time.Second)
	}
	orchestrator := chat.NewOrchestrator(
		a.docs,
		chat.NewDecider(llmClient, cfg.LLM.DeciderModel),
		searcher,
		llmClient,
		chat.Options{
			QueryModel:  cfg.LLM.DeciderModel,
			ChatModel:   cfg.LLM.ChatModel,
			MaxResults:  cfg.Search.MaxResults,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		},
	)
	a.chats = chat.NewService(store, a.docs, orchestrator)

	return a, nil
}

func (a *app) Close() {
	if err := a.index.Close(); err != nil {
		appLogger.Warn("Failed to close text index", zap.Error(err))
	}
	if a.cache != nil {
		a.cache.Close()
	}
	a.store.Close()
	appLogger.Sync()
}

func (a *app) ready(ctx context.Context) error {
	if err := a.store.Ping(ctx); err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	if a.cache != nil {
		if err := a.cache.Ping(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	appLogger.Info("Starting KhataGPT API server")

	server := api.NewRouter(a.cfg, api.Handlers{
		Documents: handlers.NewDocumentHandler(a.docs, a.pipeline),
		Chats:     handlers.NewChatHandler(a.chats),
		WebSocket: handlers.NewWebSocketHandler(a.chats),
		Ready:     a.ready,
	})

	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Listen(addr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	appLogger.Info("Server shutting down gracefully...")
	if err := server.ShutdownWithTimeout(30 * time.Second); err != nil {
		appLogger.Error("Server shutdown failed", zap.Error(err))
	}
	appLogger.Info("Server stopped")
	return nil
}
