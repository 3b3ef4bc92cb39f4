// Package ingest builds the embedding corpus: it fetches articles by
// keyword search and RSS, preprocesses and embeds them, and stores the
// results. Each article is embedded at most once.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/swen/newsbrief/internal/embedding"
	"github.com/swen/newsbrief/internal/metrics"
	"github.com/swen/newsbrief/internal/news"
	"github.com/swen/newsbrief/internal/ratelimit"
	"github.com/swen/newsbrief/internal/retry"
	"github.com/swen/newsbrief/internal/rss"
	"github.com/swen/newsbrief/internal/scraper"
	"github.com/swen/newsbrief/internal/storage"
)

// defaultKeywords drives the scheduled batch when no keywords file is
// configured.
var defaultKeywords = []string{
	"최신", "정부", "경제", "기술", "사회", "문화", "스포츠",
	"정치", "국제", "증시", "부동산", "교육", "과학", "환경",
}

// KeywordsConfig is YAML config structure
// keywords:
//   - 경제
type KeywordsConfig struct {
	Keywords []string `yaml:"keywords"`
}

// LoadKeywords reads the batch keyword list from a YAML file, falling
// back to the built-in defaults when the path is empty or unreadable.
func LoadKeywords(path string) []string {
	if path == "" {
		return defaultKeywords
	}

	f, err := os.Open(path)
	if err != nil {
		log.Printf("⚠️ Keywords config %s not readable, using defaults: %v", path, err)
		return defaultKeywords
	}
	defer f.Close()

	var cfg KeywordsConfig
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		log.Printf("⚠️ Keywords config %s invalid, using defaults: %v", path, err)
		return defaultKeywords
	}
	if len(cfg.Keywords) == 0 {
		return defaultKeywords
	}
	return cfg.Keywords
}

// Options are the tunables for a single Ingestor.
type Options struct {
	Keywords   []string
	FeedURLs   []string
	PageSize   int           // articles fetched per keyword
	EmbedDelay time.Duration // pause between embedding calls
	RetryCfg   retry.RetryConfig
	QueueSize  int // write-back queue capacity
}

// Ingestor runs the ingestion pipeline against the configured search and
// storage backends.
type Ingestor struct {
	searcher news.Searcher
	embedder embedding.Embedder
	store    storage.VectorStore
	scraper  *scraper.Scraper // nil disables description enrichment
	limiter  *ratelimit.APIRateLimiter
	opts     Options

	queue chan news.Article
}

func New(searcher news.Searcher, embedder embedding.Embedder, store storage.VectorStore, sc *scraper.Scraper, limiter *ratelimit.APIRateLimiter, opts Options) *Ingestor {
	if opts.PageSize <= 0 {
		opts.PageSize = 10
	}
	if opts.EmbedDelay <= 0 {
		opts.EmbedDelay = 2 * time.Second
	}
	if len(opts.Keywords) == 0 {
		opts.Keywords = defaultKeywords
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 100
	}
	if opts.RetryCfg.MaxAttempts <= 0 {
		opts.RetryCfg = retry.RetryConfig{MaxAttempts: 1}
	}
	return &Ingestor{
		searcher: searcher,
		embedder: embedder,
		store:    store,
		scraper:  sc,
		limiter:  limiter,
		opts:     opts,
		queue:    make(chan news.Article, opts.QueueSize),
	}
}

// ProcessArticle embeds and stores one article. Articles already stored
// are skipped cheaply; a concurrent insert of the same URL is treated as
// success.
func (in *Ingestor) ProcessArticle(ctx context.Context, article news.Article) error {
	if article.Link == "" {
		return fmt.Errorf("article has no link: %q", article.Title)
	}

	existing, err := in.store.FindBySourceURL(ctx, article.Link)
	if err != nil {
		return fmt.Errorf("duplicate check failed: %w", err)
	}
	if existing != nil {
		metrics.Global.IncrementDuplicatesSkipped()
		return nil
	}

	if in.scraper != nil {
		article = in.scraper.Enrich(ctx, article)
	}

	text := embedding.Preprocess(article)
	if text == "" {
		return fmt.Errorf("article %s has no text to embed", article.Link)
	}

	if in.limiter != nil {
		if err := in.limiter.UseEmbed(); err != nil {
			return err
		}
	}

	var vector []float64
	var dimension int
	err = retry.WithRetry(ctx, in.opts.RetryCfg, func() error {
		var embedErr error
		vector, dimension, embedErr = in.embedder.Embed(ctx, text)
		return embedErr
	})
	if err != nil {
		metrics.Global.IncrementEmbeddingFailures()
		return fmt.Errorf("embedding %s: %w", article.Link, err)
	}

	raw, err := storage.EncodeVector(vector)
	if err != nil {
		return fmt.Errorf("encoding vector for %s: %w", article.Link, err)
	}

	record := storage.EmbeddingRecord{
		SourceURL:   article.Link,
		Title:       article.Title,
		Description: article.Description,
		Publisher:   article.Publisher,
		RawVector:   raw,
		Dimension:   dimension,
	}
	if err := in.store.Save(ctx, record); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			// Lost the race to another writer, the record is there.
			metrics.Global.IncrementDuplicatesSkipped()
			return nil
		}
		return fmt.Errorf("saving %s: %w", article.Link, err)
	}

	metrics.Global.IncrementArticlesProcessed()
	metrics.Global.IncrementEmbeddingsStored()
	return nil
}

// RunBatch fetches articles for every configured keyword and embeds the
// new ones. Failures are isolated per article and per keyword so a bad
// keyword or a flaky page never aborts the batch.
func (in *Ingestor) RunBatch(ctx context.Context) error {
	start := time.Now()
	log.Printf("🔄 Batch embedding started: %d keywords", len(in.opts.Keywords))

	processed := 0
	for _, keyword := range in.opts.Keywords {
		if err := ctx.Err(); err != nil {
			return err
		}

		if in.limiter != nil {
			if err := in.limiter.UseSearch(); err != nil {
				log.Printf("⚠️ Search limit reached, stopping batch early: %v", err)
				break
			}
		}

		articles, err := in.searcher.Search(ctx, keyword, in.opts.PageSize)
		if err != nil {
			log.Printf("⚠️ 키워드 '%s' 검색 실패: %v", keyword, err)
			continue
		}

		for _, article := range articles {
			if err := in.processWithDelay(ctx, article); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				log.Printf("⚠️ 기사 처리 실패 %s: %v", article.Link, err)
				continue
			}
			processed++
		}
	}

	duration := time.Since(start)
	metrics.Global.RecordBatchDuration(duration)
	metrics.Global.SetLastRun()
	log.Printf("✅ Batch embedding finished: %d articles in %v", processed, duration.Round(time.Second))
	return nil
}

// IngestFeeds pulls the configured RSS feeds and embeds their items with
// the same per-article isolation as the keyword batch.
func (in *Ingestor) IngestFeeds(ctx context.Context) error {
	if len(in.opts.FeedURLs) == 0 {
		return nil
	}

	articles, err := rss.FetchAllFeeds(ctx, in.opts.FeedURLs)
	if err != nil {
		return fmt.Errorf("fetching feeds: %w", err)
	}

	for _, article := range articles {
		if err := in.processWithDelay(ctx, article); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			log.Printf("⚠️ RSS 기사 처리 실패 %s: %v", article.Link, err)
		}
	}
	return nil
}

// processWithDelay runs ProcessArticle and then waits the configured
// embed delay, so batch embedding never hammers the embedding API.
func (in *Ingestor) processWithDelay(ctx context.Context, article news.Article) error {
	if err := in.ProcessArticle(ctx, article); err != nil {
		return err
	}

	select {
	case <-time.After(in.opts.EmbedDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Enqueue accepts an article for asynchronous ingestion without blocking.
// It reports false when the queue is full.
func (in *Ingestor) Enqueue(article news.Article) bool {
	select {
	case in.queue <- article:
		return true
	default:
		return false
	}
}

// RunWriteback drains the write-back queue until the context ends. Meant
// to run as a goroutine next to the scheduler.
func (in *Ingestor) RunWriteback(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case article := <-in.queue:
			if err := in.ProcessArticle(ctx, article); err != nil {
				log.Printf("⚠️ Write-back 처리 실패 %s: %v", article.Link, err)
			}
		}
	}
}
