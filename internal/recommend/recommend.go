// Package recommend selects related articles for a target article or a
// generated script. Recommendation is best-effort: every failure degrades
// to an empty list so the playback flow that asked is never blocked.
package recommend

import (
	"context"
	"log"
	"time"

	"github.com/swen/newsbrief/internal/embedding"
	"github.com/swen/newsbrief/internal/metrics"
	"github.com/swen/newsbrief/internal/news"
	"github.com/swen/newsbrief/internal/similarity"
	"github.com/swen/newsbrief/internal/storage"
)

// Recommender ranks stored embeddings against a target and filters by a
// similarity threshold.
type Recommender struct {
	embedder  embedding.Embedder
	store     storage.VectorStore
	threshold float64
	maxCount  int
	window    time.Duration
}

// NewRecommender builds the orchestrator with its policy knobs.
func NewRecommender(embedder embedding.Embedder, store storage.VectorStore, threshold float64, maxCount int, window time.Duration) *Recommender {
	if maxCount <= 0 {
		maxCount = 5
	}
	if window <= 0 {
		window = 7 * 24 * time.Hour
	}
	return &Recommender{
		embedder:  embedder,
		store:     store,
		threshold: threshold,
		maxCount:  maxCount,
		window:    window,
	}
}

// ByScript recommends articles related to a generated script. The script
// is embedded as-is (it is already clean generated text) and matched
// against the recent window only.
func (r *Recommender) ByScript(ctx context.Context, script string, current news.Article) []news.Article {
	vector, _, err := r.embedder.Embed(ctx, script)
	if err != nil {
		log.Printf("❌ Script embedding failed, returning no recommendations: %v", err)
		return []news.Article{}
	}

	since := time.Now().Add(-r.window)
	candidates, err := r.store.FindRecent(ctx, since)
	if err != nil {
		log.Printf("❌ Recent candidate lookup failed: %v", err)
		return []news.Article{}
	}
	candidates = excludeURL(candidates, current.Link)

	return r.selectTop(similarity.Rank(vector, current, candidates))
}

// ByContent recommends articles related to the article itself, scanning
// the whole store with self-exclusion.
func (r *Recommender) ByContent(ctx context.Context, current news.Article) []news.Article {
	text := embedding.Preprocess(current)
	vector, _, err := r.embedder.Embed(ctx, text)
	if err != nil {
		log.Printf("❌ Content embedding failed, returning no recommendations: %v", err)
		return []news.Article{}
	}

	candidates, err := r.store.FindAllExcluding(ctx, current.Link)
	if err != nil {
		log.Printf("❌ Candidate lookup failed: %v", err)
		return []news.Article{}
	}

	return r.selectTop(similarity.Rank(vector, current, candidates))
}

// selectTop applies the threshold and the top-K cap to ranked candidates.
func (r *Recommender) selectTop(ranked []similarity.ScoredCandidate) []news.Article {
	result := make([]news.Article, 0, r.maxCount)
	for _, c := range ranked {
		if c.Similarity < r.threshold {
			// Ranked descending, nothing below will pass either.
			break
		}
		result = append(result, c.Article)
		if len(result) >= r.maxCount {
			break
		}
	}

	if len(result) > 0 {
		metrics.Global.IncrementRecommendationsServed()
	}
	return result
}

func excludeURL(records []storage.EmbeddingRecord, url string) []storage.EmbeddingRecord {
	if url == "" {
		return records
	}
	kept := records[:0]
	for _, rec := range records {
		if rec.SourceURL != url {
			kept = append(kept, rec)
		}
	}
	return kept
}
