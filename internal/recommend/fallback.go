package recommend

import (
	"context"
	"log"
	"strings"

	"github.com/swen/newsbrief/internal/metrics"
	"github.com/swen/newsbrief/internal/news"
)

// TopicKeyword pairs a vocabulary word with its coarse category. The slice
// order matters: extraction returns the first matches in this order.
type TopicKeyword struct {
	Keyword  string
	Category string
}

// topicVocabulary is the fixed list matched against article titles when
// the vector store is too sparse for similarity search.
var topicVocabulary = []TopicKeyword{
	{"정부", "government"},
	{"경제", "economy"},
	{"정치", "politics"},
	{"사회", "society"},
	{"문화", "culture"},
	{"스포츠", "sports"},
	{"기술", "tech"},
	{"과학", "science"},
	{"교육", "education"},
	{"환경", "environment"},
	{"국제", "international"},
	{"부동산", "real-estate"},
	{"금융", "finance"},
	{"증시", "stock-market"},
	{"AI", "ai"},
	{"날씨", "weather"},
}

// Generic queries used when nothing in the vocabulary matches, and as the
// very last resort when every keyword search fails.
const (
	latestKeyword   = "최신"
	genericKeyword  = "뉴스"
	breakingKeyword = "속보"
)

const (
	maxExtractedKeywords = 2
	perKeywordResults    = 3
	topUpResults         = 5
	topUpBelow           = 3
)

// Writeback hands fallback results to the ingestion path so the vector
// store grows from fallback usage. Enqueue must never block; it reports
// whether the article was accepted.
type Writeback interface {
	Enqueue(article news.Article) bool
}

// FallbackRecommender recommends by external keyword search when
// similarity search cannot deliver.
type FallbackRecommender struct {
	searcher  news.Searcher
	writeback Writeback
}

// NewFallbackRecommender wires the search backend and the optional
// write-back sink (nil disables write-back).
func NewFallbackRecommender(searcher news.Searcher, writeback Writeback) *FallbackRecommender {
	return &FallbackRecommender{searcher: searcher, writeback: writeback}
}

// ExtractKeywords picks up to max vocabulary words contained in the title,
// in vocabulary order. Falls back to the generic keyword pair when none
// match.
func ExtractKeywords(title string, max int) []string {
	if max <= 0 {
		max = maxExtractedKeywords
	}

	var found []string
	for _, topic := range topicVocabulary {
		if strings.Contains(title, topic.Keyword) {
			found = append(found, topic.Keyword)
			if len(found) >= max {
				return found
			}
		}
	}

	if len(found) == 0 {
		found = []string{latestKeyword, genericKeyword}
		if len(found) > max {
			found = found[:max]
		}
	}
	return found
}

// Recommend searches the news backend by extracted keywords, deduplicates
// against the current article and earlier hits, tops up with a generic
// query when thin, and feeds everything it returns back into ingestion.
func (f *FallbackRecommender) Recommend(ctx context.Context, current news.Article, maxCount int) []news.Article {
	if maxCount <= 0 {
		maxCount = topUpResults
	}

	log.Printf("Fallback 추천 시작: %s", current.Title)
	metrics.Global.IncrementFallbackRecommendations()

	recommendations, failed := f.searchByKeywords(ctx, current, maxCount)
	if failed {
		// Entire keyword pass failed; one last generic attempt.
		breaking, err := f.searcher.Search(ctx, breakingKeyword, maxCount)
		if err != nil {
			log.Printf("❌ Fallback breaking-news search also failed: %v", err)
			return []news.Article{}
		}
		recommendations = dedupMerge(nil, breaking, current.Link, maxCount)
	}

	if len(recommendations) > maxCount {
		recommendations = recommendations[:maxCount]
	}

	f.enqueueWriteback(recommendations)

	log.Printf("Fallback 추천 완료: %d건", len(recommendations))
	return recommendations
}

// searchByKeywords runs the per-keyword searches plus the generic top-up.
// The second return value reports total failure (no search succeeded).
func (f *FallbackRecommender) searchByKeywords(ctx context.Context, current news.Article, maxCount int) ([]news.Article, bool) {
	keywords := ExtractKeywords(current.Title, maxExtractedKeywords)

	var recommendations []news.Article
	succeeded := false

	for _, keyword := range keywords {
		results, err := f.searcher.Search(ctx, keyword, perKeywordResults)
		if err != nil {
			log.Printf("⚠️ 키워드 '%s' 검색 실패: %v", keyword, err)
			continue
		}
		succeeded = true
		recommendations = dedupMerge(recommendations, results, current.Link, maxCount)
		if len(recommendations) >= maxCount {
			break
		}
	}

	// Below the minimum? Top up with the generic latest-news query.
	if len(recommendations) < topUpBelow {
		latest, err := f.searcher.Search(ctx, latestKeyword, topUpResults)
		if err != nil {
			log.Printf("⚠️ 최신 뉴스 보완 검색 실패: %v", err)
		} else {
			succeeded = true
			recommendations = dedupMerge(recommendations, latest, current.Link, maxCount)
		}
	}

	return recommendations, !succeeded
}

// dedupMerge appends candidates that are neither the current article nor
// already collected, up to the cap.
func dedupMerge(existing, candidates []news.Article, currentLink string, maxCount int) []news.Article {
	for _, c := range candidates {
		if len(existing) >= maxCount {
			break
		}
		if c.Link == currentLink {
			continue
		}
		if news.ContainsLink(existing, c.Link) {
			continue
		}
		existing = append(existing, c)
	}
	return existing
}

// enqueueWriteback hands results to the ingestion queue. Failures are the
// queue's problem; the recommendation response never waits for them.
func (f *FallbackRecommender) enqueueWriteback(articles []news.Article) {
	if f.writeback == nil {
		return
	}
	for _, a := range articles {
		if f.writeback.Enqueue(a) {
			metrics.Global.IncrementWriteBacksQueued()
		} else {
			metrics.Global.IncrementWriteBacksDropped()
			log.Printf("⚠️ Write-back queue full, dropping: %s", a.Title)
		}
	}
}
