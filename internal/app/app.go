// Package app wires configuration, storage, embedding, search and the
// scheduler into a running service.
package app

import (
	"context"
	"fmt"
	"log"

	"github.com/swen/newsbrief/internal/config"
	"github.com/swen/newsbrief/internal/embedding"
	"github.com/swen/newsbrief/internal/ingest"
	"github.com/swen/newsbrief/internal/logger"
	"github.com/swen/newsbrief/internal/news"
	"github.com/swen/newsbrief/internal/ratelimit"
	"github.com/swen/newsbrief/internal/recommend"
	"github.com/swen/newsbrief/internal/retry"
	"github.com/swen/newsbrief/internal/rss"
	"github.com/swen/newsbrief/internal/scheduler"
	"github.com/swen/newsbrief/internal/scraper"
	"github.com/swen/newsbrief/internal/storage"
)

// App holds the wired components. Handlers in cmd reach the recommenders
// and the ingestor through it.
type App struct {
	Config      *config.Config
	Store       storage.VectorStore
	Embedder    embedding.Embedder
	Searcher    news.Searcher
	Ingestor    *ingest.Ingestor
	Recommender *recommend.Recommender
	Fallback    *recommend.FallbackRecommender
	Scheduler   *scheduler.Scheduler
	Limiter     *ratelimit.APIRateLimiter

	closers []func()
}

// New builds the full component graph from configuration.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger.Init()

	a := &App{Config: cfg}

	store, err := newStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing vector store: %w", err)
	}
	a.Store = store
	a.closers = append(a.closers, func() {
		if err := store.Close(); err != nil {
			log.Printf("⚠️ Closing vector store: %v", err)
		}
	})

	embedder, err := a.newEmbedder(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("initializing embedder: %w", err)
	}
	a.Embedder = embedder

	a.Searcher = news.NewNaverClient(cfg.NaverBaseURL, cfg.NaverClientID, cfg.NaverClientSecret, cfg.RequestTimeout)

	if cfg.MaxEmbedCalls > 0 || cfg.MaxSearchCalls > 0 {
		a.Limiter = ratelimit.NewAPIRateLimiter(cfg.MaxEmbedCalls, cfg.MaxSearchCalls)
	}

	feeds, err := rss.LoadFeeds(cfg.FeedsConfigPath)
	if err != nil {
		log.Printf("⚠️ Feeds config %s not loaded, RSS ingestion disabled: %v", cfg.FeedsConfigPath, err)
		feeds = nil
	}

	a.Ingestor = ingest.New(
		a.Searcher,
		a.Embedder,
		a.Store,
		scraper.New(cfg.RequestTimeout, cfg.ScrapeMinDescription),
		a.Limiter,
		ingest.Options{
			Keywords:   ingest.LoadKeywords(cfg.KeywordsConfigPath),
			FeedURLs:   feeds,
			PageSize:   cfg.BatchPageSize,
			EmbedDelay: cfg.BatchDelay,
			RetryCfg: retry.RetryConfig{
				MaxAttempts: cfg.RetryAttempts,
				Delay:       cfg.RetryDelay,
				Backoff:     true,
			},
		},
	)

	a.Recommender = recommend.NewRecommender(
		a.Embedder, a.Store,
		cfg.SimilarityThreshold, cfg.MaxRecommendations, cfg.RecentWindow,
	)
	a.Fallback = recommend.NewFallbackRecommender(a.Searcher, a.Ingestor)

	a.Scheduler = scheduler.New(func(ctx context.Context) {
		if err := a.Ingestor.RunBatch(ctx); err != nil {
			log.Printf("❌ Batch run failed: %v", err)
		}
		if err := a.Ingestor.IngestFeeds(ctx); err != nil {
			log.Printf("⚠️ RSS ingestion failed: %v", err)
		}
	}, cfg.InitialRun, cfg.InitialRunDelay)

	return a, nil
}

// Run starts the write-back worker and the scheduler, blocking until the
// context ends.
func (a *App) Run(ctx context.Context) {
	go a.Ingestor.RunWriteback(ctx)
	a.Scheduler.Run(ctx)
}

// Close releases held resources in reverse construction order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// Recommend is the main read path: similarity search first, keyword
// fallback when it yields nothing.
func (a *App) Recommend(ctx context.Context, current news.Article) []news.Article {
	if recs := a.Recommender.ByContent(ctx, current); len(recs) > 0 {
		return recs
	}
	log.Printf("Similarity search empty for %s, using keyword fallback", current.Link)
	return a.Fallback.Recommend(ctx, current, a.Config.MaxRecommendations)
}

// RecommendByScript matches a generated script against the recent window,
// with the same keyword fallback.
func (a *App) RecommendByScript(ctx context.Context, script string, current news.Article) []news.Article {
	if recs := a.Recommender.ByScript(ctx, script, current); len(recs) > 0 {
		return recs
	}
	log.Printf("Script similarity search empty, using keyword fallback")
	if current.Title == "" {
		current.Title = script
	}
	return a.Fallback.Recommend(ctx, current, a.Config.MaxRecommendations)
}

// newStore picks PostgreSQL when a DSN is configured and the embedded
// bbolt store otherwise.
func newStore(cfg *config.Config) (storage.VectorStore, error) {
	if cfg.DatabaseURL != "" {
		return storage.NewPostgresStore(cfg.DatabaseURL)
	}
	log.Printf("DATABASE_URL not set, using embedded store at %s", cfg.BoltPath)
	return storage.NewBoltStore(cfg.BoltPath)
}

func (a *App) newEmbedder(ctx context.Context, cfg *config.Config) (embedding.Embedder, error) {
	switch cfg.EmbeddingProvider {
	case "gemini":
		g, err := embedding.NewGeminiEmbedder(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, g.Close)
		return g, nil
	case "clova":
		return embedding.NewClovaEmbedder(cfg.ClovaEmbeddingURL, cfg.ClovaAPIKey, cfg.ClovaRequestID, cfg.RequestTimeout), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}
}
