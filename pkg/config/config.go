package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	SQLite    SQLiteConfig
	Redis     RedisConfig
	LLM       LLMConfig
	Search    SearchConfig
	Upload    UploadConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    int
	WriteTimeout   int
	BodyLimit      int
	AllowedOrigins []string
	Development    bool
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTLHours int
}

// LLMConfig points at an OpenAI-compatible chat completions endpoint.
// PDF and image extraction may use different models.
type LLMConfig struct {
	BaseURL         string
	APIKey          string
	ExtractionModel string
	PDFModel        string
	ClassifierModel string
	DeciderModel    string
	ChatModel       string
	Temperature     float32
	MaxTokens       int
	TimeoutSec      int
	MaxAttempts     int
}

type SearchConfig struct {
	Enabled    bool
	BaseURL    string
	MaxResults int
	TimeoutSec int
	IndexPath  string
}

type UploadConfig struct {
	Dir               string
	MaxSizeBytes      int
	AllowedExtensions []string
}

type RateLimitConfig struct {
	RequestsPerMinute int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/khatagpt")

	v.SetEnvPrefix("KHATAGPT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("llm.apiKey", "KHATAGPT_LLM_APIKEY", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind api key env: %w", err)
	}
	if err := v.BindEnv("sqlite.path", "KHATAGPT_SQLITE_PATH", "DATABASE_PATH"); err != nil {
		return nil, fmt.Errorf("failed to bind database env: %w", err)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.Upload.AllowedExtensions = normalizeExtensions(config.Upload.AllowedExtensions)

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.readTimeout", 120)
	v.SetDefault("server.writeTimeout", 180)
	v.SetDefault("server.bodyLimit", 12*1024*1024)
	v.SetDefault("server.allowedOrigins", []string{"http://localhost:3000", "http://127.0.0.1:3000"})
	v.SetDefault("server.development", false)

	v.SetDefault("sqlite.path", "./data/khatagpt.db")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttlHours", 24*7)

	v.SetDefault("llm.baseURL", "https://generativelanguage.googleapis.com/v1beta/openai/")
	v.SetDefault("llm.extractionModel", "gemini-2.5-pro")
	v.SetDefault("llm.pdfModel", "gemini-2.5-pro")
	v.SetDefault("llm.classifierModel", "gemini-2.0-flash")
	v.SetDefault("llm.deciderModel", "gemini-2.0-flash")
	v.SetDefault("llm.chatModel", "gemini-2.5-pro")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.maxTokens", 4096)
	v.SetDefault("llm.timeoutSec", 60)
	v.SetDefault("llm.maxAttempts", 1)

	v.SetDefault("search.enabled", true)
	v.SetDefault("search.baseURL", "https://html.duckduckgo.com/html/")
	v.SetDefault("search.maxResults", 3)
	v.SetDefault("search.timeoutSec", 10)
	v.SetDefault("search.indexPath", "")

	v.SetDefault("upload.dir", "./uploads")
	v.SetDefault("upload.maxSizeBytes", 10*1024*1024)
	v.SetDefault("upload.allowedExtensions", []string{"jpg", "jpeg", "png", "webp", "pdf"})

	v.SetDefault("rateLimit.requestsPerMinute", 120)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputPath", "stdout")
}

// normalizeExtensions lowercases and strips dots, and splits a single
// comma-separated entry as produced by an env override.
func normalizeExtensions(exts []string) []string {
	var out []string
	for _, e := range exts {
		for _, part := range strings.Split(e, ",") {
			part = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(part), "."))
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
