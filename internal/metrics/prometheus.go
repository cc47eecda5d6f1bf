package metrics

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	IngestionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "khatagpt_ingestion_duration_seconds",
			Help:    "Document ingestion duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		},
		[]string{"file_type"},
	)

	DocumentsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "khatagpt_documents_ingested_total",
			Help: "Total documents created by the ingestion pipeline",
		},
		[]string{"file_type"},
	)

	IngestionDegraded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "khatagpt_ingestion_degraded_total",
			Help: "Ingestion stages that fell back to a default value",
		},
		[]string{"stage"},
	)

	ChatDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "khatagpt_chat_duration_seconds",
			Help:    "Chat answer duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40},
		},
	)

	ChatsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "khatagpt_chats_processed_total",
			Help: "Total chat questions answered",
		},
		[]string{"status"},
	)

	WebSearchTriggered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "khatagpt_web_search_triggered_total",
			Help: "Total number of web searches triggered",
		},
	)

	LLMTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "khatagpt_llm_tokens_used",
			Help: "Total LLM tokens used",
		},
		[]string{"model", "type"},
	)

	LLMRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "khatagpt_llm_requests_total",
			Help: "Total LLM requests",
		},
		[]string{"model", "status"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "khatagpt_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "khatagpt_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			IngestionDuration,
			DocumentsIngested,
			IngestionDegraded,
			ChatDuration,
			ChatsProcessed,
			WebSearchTriggered,
			LLMTokensUsed,
			LLMRequests,
			CacheHits,
			CacheMisses,
		)
	})
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
