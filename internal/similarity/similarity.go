// Package similarity ranks stored embeddings against a query vector by
// cosine similarity.
package similarity

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"

	"github.com/swen/newsbrief/internal/news"
	"github.com/swen/newsbrief/internal/storage"
)

// ErrDimensionMismatch marks a comparison between vectors of different
// dimensions. This is a data error, never coerced into a score.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// ScoredCandidate is one ranked article. Transient; produced here and
// consumed immediately by threshold filtering.
type ScoredCandidate struct {
	Article     news.Article
	Similarity  float64
	MatchReason string
}

// Cosine computes cosine similarity between two vectors of equal
// dimension. Returns 0.0 exactly when either vector has a zero norm.
func Cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// Rank scores every candidate record against the target vector and returns
// them sorted by similarity, highest first. Records whose stored vector
// cannot be parsed or whose dimension does not match are skipped with a
// warning. The sort is stable, so equal scores keep the store's
// newest-first scan order.
func Rank(targetVector []float64, target news.Article, candidates []storage.EmbeddingRecord) []ScoredCandidate {
	scored := make([]ScoredCandidate, 0, len(candidates))

	for _, record := range candidates {
		vector, err := record.Vector()
		if err != nil {
			log.Printf("⚠️ Skipping candidate %s: %v", record.SourceURL, err)
			continue
		}

		sim, err := Cosine(targetVector, vector)
		if err != nil {
			log.Printf("⚠️ Skipping candidate %s: %v", record.SourceURL, err)
			continue
		}

		article := news.Article{
			Title:       record.Title,
			Link:        record.SourceURL,
			Description: record.Description,
			Publisher:   record.Publisher,
			PublishedAt: record.CreatedAt,
		}

		scored = append(scored, ScoredCandidate{
			Article:     article,
			Similarity:  sim,
			MatchReason: matchReason(target, article, sim),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	return scored
}

// matchReason renders a human-readable explanation: the score, plus
// publisher and shared-title-word annotations when they apply.
func matchReason(target, candidate news.Article, sim float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "유사도: %.2f", sim)

	if target.Publisher != "" && target.Publisher == candidate.Publisher {
		b.WriteString(" (같은 발행사)")
	}

	if n := sharedTitleWords(target.Title, candidate.Title); n > 0 {
		fmt.Fprintf(&b, " (공통키워드: %d개)", n)
	}
	return b.String()
}

// sharedTitleWords counts words from the target title, longer than one
// character, that also appear in the candidate title.
func sharedTitleWords(targetTitle, candidateTitle string) int {
	if targetTitle == "" || candidateTitle == "" {
		return 0
	}

	count := 0
	for _, word := range strings.Fields(targetTitle) {
		if len([]rune(word)) <= 1 {
			continue
		}
		if strings.Contains(candidateTitle, word) {
			count++
		}
	}
	return count
}
