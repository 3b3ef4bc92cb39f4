package similarity

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/swen/newsbrief/internal/news"
	"github.com/swen/newsbrief/internal/storage"
)

func TestCosine_SelfSimilarity(t *testing.T) {
	t.Parallel()

	vectors := [][]float64{
		{1, 0, 0},
		{0.3, -0.7, 2.1},
		{5, 5, 5, 5},
	}
	for _, v := range vectors {
		got, err := Cosine(v, v)
		if err != nil {
			t.Fatalf("Cosine(%v, %v): %v", v, v, err)
		}
		if math.Abs(got-1.0) > 1e-9 {
			t.Errorf("Cosine(v, v) = %v, want 1.0", got)
		}
	}
}

func TestCosine_ZeroVector(t *testing.T) {
	t.Parallel()

	zero := []float64{0, 0, 0}
	v := []float64{1, 2, 3}

	for _, pair := range [][2][]float64{{zero, v}, {v, zero}, {zero, zero}} {
		got, err := Cosine(pair[0], pair[1])
		if err != nil {
			t.Fatalf("Cosine: %v", err)
		}
		if got != 0.0 {
			t.Errorf("Cosine with zero vector = %v, want exactly 0.0", got)
		}
	}
}

func TestCosine_Symmetric(t *testing.T) {
	t.Parallel()

	a := []float64{0.2, -1.3, 4.4}
	b := []float64{2.5, 0.1, -0.9}

	ab, err := Cosine(a, b)
	if err != nil {
		t.Fatalf("Cosine(a, b): %v", err)
	}
	ba, err := Cosine(b, a)
	if err != nil {
		t.Fatalf("Cosine(b, a): %v", err)
	}
	if ab != ba {
		t.Errorf("Cosine not symmetric: %v vs %v", ab, ba)
	}
}

func TestCosine_DimensionMismatch(t *testing.T) {
	t.Parallel()

	_, err := Cosine([]float64{1, 2}, []float64{1, 2, 3})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestCosine_Orthogonal(t *testing.T) {
	t.Parallel()

	got, err := Cosine([]float64{1, 0}, []float64{0, 1})
	if err != nil {
		t.Fatalf("Cosine: %v", err)
	}
	if math.Abs(got) > 1e-9 {
		t.Errorf("orthogonal vectors should score 0, got %v", got)
	}
}

func record(url string, vector []float64, createdAt time.Time) storage.EmbeddingRecord {
	raw, _ := storage.EncodeVector(vector)
	return storage.EmbeddingRecord{
		SourceURL: url,
		Title:     "기사 " + url,
		Publisher: "test.co.kr",
		RawVector: raw,
		Dimension: len(vector),
		CreatedAt: createdAt,
	}
}

func TestRank_SortedDescending(t *testing.T) {
	t.Parallel()

	now := time.Now()
	candidates := []storage.EmbeddingRecord{
		record("https://x/low", []float64{0, 1, 0}, now),
		record("https://x/high", []float64{1, 0, 0}, now.Add(-time.Minute)),
		record("https://x/mid", []float64{1, 1, 0}, now.Add(-2*time.Minute)),
	}

	ranked := Rank([]float64{1, 0, 0}, news.Article{}, candidates)
	if len(ranked) != 3 {
		t.Fatalf("expected 3 ranked candidates, got %d", len(ranked))
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Similarity > ranked[i-1].Similarity {
			t.Fatalf("ranking not non-increasing at %d: %v", i, ranked)
		}
	}
	if ranked[0].Article.Link != "https://x/high" {
		t.Errorf("expected exact match first, got %s", ranked[0].Article.Link)
	}
}

func TestRank_TieBreakKeepsScanOrder(t *testing.T) {
	t.Parallel()

	now := time.Now()
	// Identical vectors, identical similarity; scan order must survive.
	candidates := []storage.EmbeddingRecord{
		record("https://x/first", []float64{1, 0, 0}, now),
		record("https://x/second", []float64{1, 0, 0}, now.Add(-time.Minute)),
	}

	ranked := Rank([]float64{1, 0, 0}, news.Article{}, candidates)
	if len(ranked) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(ranked))
	}
	for _, c := range ranked {
		if math.Abs(c.Similarity-1.0) > 1e-9 {
			t.Errorf("expected similarity 1.0, got %v", c.Similarity)
		}
	}
	if ranked[0].Article.Link != "https://x/first" || ranked[1].Article.Link != "https://x/second" {
		t.Errorf("tie-break changed scan order: %s, %s", ranked[0].Article.Link, ranked[1].Article.Link)
	}
}

func TestRank_SkipsUnparseableVectors(t *testing.T) {
	t.Parallel()

	now := time.Now()
	bad := storage.EmbeddingRecord{
		SourceURL: "https://x/bad",
		RawVector: "{broken",
		Dimension: 3,
		CreatedAt: now,
	}
	wrongDim := record("https://x/wrongdim", []float64{1, 0}, now)
	good := record("https://x/good", []float64{0, 1, 0}, now)

	ranked := Rank([]float64{1, 0, 0}, news.Article{}, []storage.EmbeddingRecord{bad, wrongDim, good})
	if len(ranked) != 1 {
		t.Fatalf("expected only the parseable candidate, got %d", len(ranked))
	}
	if ranked[0].Article.Link != "https://x/good" {
		t.Errorf("wrong survivor: %s", ranked[0].Article.Link)
	}
}

func TestRank_MatchReason(t *testing.T) {
	t.Parallel()

	now := time.Now()
	raw, _ := storage.EncodeVector([]float64{1, 0, 0})
	candidate := storage.EmbeddingRecord{
		SourceURL: "https://x/1",
		Title:     "정부 예산안 국회 통과",
		Publisher: "yonhap.co.kr",
		RawVector: raw,
		Dimension: 3,
		CreatedAt: now,
	}
	target := news.Article{
		Title:     "정부 예산안 발표",
		Publisher: "yonhap.co.kr",
	}

	ranked := Rank([]float64{1, 0, 0}, target, []storage.EmbeddingRecord{candidate})
	if len(ranked) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(ranked))
	}

	reason := ranked[0].MatchReason
	if !strings.Contains(reason, "유사도: 1.00") {
		t.Errorf("match reason missing score: %q", reason)
	}
	if !strings.Contains(reason, "같은 발행사") {
		t.Errorf("match reason missing publisher annotation: %q", reason)
	}
	if !strings.Contains(reason, "공통키워드: 2개") {
		t.Errorf("match reason missing shared keyword count: %q", reason)
	}
}
