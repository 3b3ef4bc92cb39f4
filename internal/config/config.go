package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Vector store settings
	DatabaseURL string // PostgreSQL DSN; empty means embedded bbolt store
	BoltPath    string // path for the embedded store file

	// Embedding backend settings
	EmbeddingProvider string // "clova" or "gemini"
	ClovaEmbeddingURL string
	ClovaAPIKey       string
	ClovaRequestID    string
	GeminiAPIKey      string
	GeminiModel       string

	// News search settings
	NaverBaseURL      string
	NaverClientID     string
	NaverClientSecret string

	// Recommendation settings
	SimilarityThreshold float64       // minimum cosine similarity to recommend
	MaxRecommendations  int           // top-K cap
	RecentWindow        time.Duration // candidate window for script-based search

	// Batch ingestion settings
	KeywordsConfigPath string
	FeedsConfigPath    string
	BatchPageSize      int           // articles fetched per keyword
	BatchDelay         time.Duration // pause between embedding calls in a batch
	InitialRun         bool          // run one batch shortly after startup
	InitialRunDelay    time.Duration

	// Rate limits (per day, 0 = unlimited)
	MaxEmbedCalls  int
	MaxSearchCalls int

	// Scraper settings
	ScrapeMinDescription int // scrape full text when description is shorter

	// App settings
	Debug          bool
	RequestTimeout time.Duration
	RetryAttempts  int
	RetryDelay     time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		BoltPath:             "newsbrief.db",
		EmbeddingProvider:    "clova",
		ClovaEmbeddingURL:    "https://clovastudio.stream.ntruss.com/testapp/v1/api-tools/embedding/clir-emb-dolphin",
		GeminiModel:          "text-embedding-004",
		NaverBaseURL:         "https://openapi.naver.com",
		SimilarityThreshold:  0.7,
		MaxRecommendations:   5,
		RecentWindow:         7 * 24 * time.Hour,
		KeywordsConfigPath:   "configs/keywords.yaml",
		FeedsConfigPath:      "configs/feeds.yaml",
		BatchPageSize:        10,
		BatchDelay:           2 * time.Second,
		InitialRunDelay:      5 * time.Minute,
		ScrapeMinDescription: 80,
		RequestTimeout:       30 * time.Second,
		RetryAttempts:        3,
		RetryDelay:           5 * time.Second,
	}

	// Load from environment
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.ClovaAPIKey = os.Getenv("CLOVA_EMBEDDING_API_KEY")
	cfg.ClovaRequestID = os.Getenv("CLOVA_EMBEDDING_REQUEST_ID")
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.NaverClientID = os.Getenv("NAVER_CLIENT_ID")
	cfg.NaverClientSecret = os.Getenv("NAVER_CLIENT_SECRET")

	cfg.BoltPath = getEnvOrDefault("BOLT_PATH", cfg.BoltPath)
	cfg.EmbeddingProvider = getEnvOrDefault("EMBEDDING_PROVIDER", cfg.EmbeddingProvider)
	cfg.ClovaEmbeddingURL = getEnvOrDefault("CLOVA_EMBEDDING_URL", cfg.ClovaEmbeddingURL)
	cfg.GeminiModel = getEnvOrDefault("GEMINI_EMBEDDING_MODEL", cfg.GeminiModel)
	cfg.NaverBaseURL = getEnvOrDefault("NAVER_BASE_URL", cfg.NaverBaseURL)
	cfg.KeywordsConfigPath = getEnvOrDefault("KEYWORDS_CONFIG_PATH", cfg.KeywordsConfigPath)
	cfg.FeedsConfigPath = getEnvOrDefault("FEEDS_CONFIG_PATH", cfg.FeedsConfigPath)

	if v := os.Getenv("SIMILARITY_THRESHOLD"); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil && val >= -1 && val <= 1 {
			cfg.SimilarityThreshold = val
		}
	}
	cfg.MaxRecommendations = getEnvIntOrDefault("MAX_RECOMMENDATIONS", cfg.MaxRecommendations)
	cfg.BatchPageSize = getEnvIntOrDefault("BATCH_PAGE_SIZE", cfg.BatchPageSize)
	cfg.MaxEmbedCalls = getEnvIntOrDefault("MAX_EMBED_CALLS_PER_DAY", 0)
	cfg.MaxSearchCalls = getEnvIntOrDefault("MAX_SEARCH_CALLS_PER_DAY", 0)
	cfg.ScrapeMinDescription = getEnvIntOrDefault("SCRAPE_MIN_DESCRIPTION", cfg.ScrapeMinDescription)
	cfg.RetryAttempts = getEnvIntOrDefault("RETRY_ATTEMPTS", cfg.RetryAttempts)

	if v := os.Getenv("RECENT_WINDOW_DAYS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.RecentWindow = time.Duration(val) * 24 * time.Hour
		}
	}
	if v := os.Getenv("BATCH_DELAY_SECONDS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val >= 0 {
			cfg.BatchDelay = time.Duration(val) * time.Second
		}
	}
	if v := os.Getenv("REQUEST_TIMEOUT_SECONDS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.RequestTimeout = time.Duration(val) * time.Second
		}
	}
	if v := os.Getenv("INITIAL_RUN_DELAY_MINUTES"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val >= 0 {
			cfg.InitialRunDelay = time.Duration(val) * time.Minute
		}
	}

	if os.Getenv("EMBEDDING_INITIAL_RUN") == "true" {
		cfg.InitialRun = true
	}
	if os.Getenv("DEBUG") == "true" {
		cfg.Debug = true
	}

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func (c *Config) Validate() error {
	switch c.EmbeddingProvider {
	case "clova":
		if c.ClovaAPIKey == "" {
			return fmt.Errorf("CLOVA_EMBEDDING_API_KEY is required for the clova provider")
		}
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
		}
	default:
		return fmt.Errorf("EMBEDDING_PROVIDER must be 'clova' or 'gemini'")
	}
	if c.NaverClientID == "" || c.NaverClientSecret == "" {
		return fmt.Errorf("NAVER_CLIENT_ID and NAVER_CLIENT_SECRET are required")
	}
	if c.MaxRecommendations <= 0 {
		return fmt.Errorf("MAX_RECOMMENDATIONS must be positive")
	}
	return nil
}
