package recommend

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/swen/newsbrief/internal/news"
)

type fakeSearcher struct {
	results map[string][]news.Article
	err     error
	queries []string
}

func (f *fakeSearcher) Search(ctx context.Context, query string, count int) ([]news.Article, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	items := f.results[query]
	if len(items) > count {
		items = items[:count]
	}
	return items, nil
}

type fakeWriteback struct {
	enqueued []news.Article
	full     bool
}

func (f *fakeWriteback) Enqueue(article news.Article) bool {
	if f.full {
		return false
	}
	f.enqueued = append(f.enqueued, article)
	return true
}

func articlesFor(prefix string, n int) []news.Article {
	out := make([]news.Article, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, news.Article{
			Title: prefix + " 기사",
			Link:  "https://news/" + prefix + "/" + string(rune('a'+i)),
		})
	}
	return out
}

func TestExtractKeywords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		title string
		want  []string
	}{
		{"two matches in vocabulary order", "정부 경제 정책 발표", []string{"정부", "경제"}},
		{"capped at two", "정부가 경제와 정치 현안을 논의", []string{"정부", "경제"}},
		{"no match falls back to defaults", "오늘 점심 메뉴 추천", []string{"최신", "뉴스"}},
		{"empty title", "", []string{"최신", "뉴스"}},
		{"substring match", "부동산 시장 동향", []string{"부동산"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractKeywords(tt.title, 2)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractKeywords(%q, 2) = %v, want %v", tt.title, got, tt.want)
			}
		})
	}
}

func TestFallbackRecommend_MergesAndDedups(t *testing.T) {
	t.Parallel()

	shared := news.Article{Title: "공유 기사", Link: "https://news/shared"}
	searcher := &fakeSearcher{results: map[string][]news.Article{
		"정부": append(articlesFor("정부", 2), shared),
		"경제": append([]news.Article{shared}, articlesFor("경제", 2)...),
	}}
	wb := &fakeWriteback{}
	f := NewFallbackRecommender(searcher, wb)

	got := f.Recommend(context.Background(), news.Article{Title: "정부 경제 정책", Link: "https://news/self"}, 10)
	if len(got) != 5 {
		t.Fatalf("expected 5 deduplicated articles, got %d", len(got))
	}
	seen := map[string]bool{}
	for _, a := range got {
		if seen[a.Link] {
			t.Fatalf("duplicate link %s in results", a.Link)
		}
		seen[a.Link] = true
	}
	if len(wb.enqueued) != 5 {
		t.Errorf("expected all results queued for write-back, got %d", len(wb.enqueued))
	}
}

func TestFallbackRecommend_ExcludesCurrentAndTruncates(t *testing.T) {
	t.Parallel()

	current := news.Article{Title: "정부 경제", Link: "https://news/정부/a"}
	searcher := &fakeSearcher{results: map[string][]news.Article{
		"정부": articlesFor("정부", 3),
		"경제": articlesFor("경제", 3),
	}}
	f := NewFallbackRecommender(searcher, &fakeWriteback{})

	got := f.Recommend(context.Background(), current, 2)
	if len(got) != 2 {
		t.Fatalf("expected truncation to 2, got %d", len(got))
	}
	for _, a := range got {
		if a.Link == current.Link {
			t.Fatal("current article must never be recommended")
		}
	}
}

func TestFallbackRecommend_TopUpBelowThree(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{results: map[string][]news.Article{
		"환경": articlesFor("환경", 1),
		"최신": articlesFor("최신", 5),
	}}
	f := NewFallbackRecommender(searcher, &fakeWriteback{})

	got := f.Recommend(context.Background(), news.Article{Title: "환경 오염 문제"}, 10)
	if len(got) < 3 {
		t.Fatalf("expected top-up to at least 3 articles, got %d", len(got))
	}
	topUpQueried := false
	for _, q := range searcher.queries {
		if q == "최신" {
			topUpQueried = true
		}
	}
	if !topUpQueried {
		t.Error("expected a 최신 top-up search when results fall below 3")
	}
}

func TestFallbackRecommend_TotalFailureUsesBreaking(t *testing.T) {
	t.Parallel()

	calls := 0
	searcher := &breakingOnlySearcher{calls: &calls}
	f := NewFallbackRecommender(searcher, &fakeWriteback{})

	got := f.Recommend(context.Background(), news.Article{Title: "정부 경제"}, 5)
	if len(got) != 1 || got[0].Link != "https://news/breaking" {
		t.Fatalf("expected the 속보 fallback result, got %+v", got)
	}
}

// breakingOnlySearcher fails every query except 속보.
type breakingOnlySearcher struct {
	calls *int
}

func (s *breakingOnlySearcher) Search(ctx context.Context, query string, count int) ([]news.Article, error) {
	*s.calls++
	if query == "속보" {
		return []news.Article{{Title: "속보 기사", Link: "https://news/breaking"}}, nil
	}
	return nil, errors.New("search unavailable")
}

func TestFallbackRecommend_EverythingFailsReturnsEmpty(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{err: errors.New("search unavailable")}
	f := NewFallbackRecommender(searcher, &fakeWriteback{})

	got := f.Recommend(context.Background(), news.Article{Title: "정부"}, 5)
	if got == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(got) != 0 {
		t.Fatalf("expected no results when every search fails, got %+v", got)
	}
}

func TestFallbackRecommend_FullQueueDoesNotBlockResults(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{results: map[string][]news.Article{
		"정부": articlesFor("정부", 3),
	}}
	f := NewFallbackRecommender(searcher, &fakeWriteback{full: true})

	got := f.Recommend(context.Background(), news.Article{Title: "정부 발표"}, 5)
	if len(got) == 0 {
		t.Fatal("a full write-back queue must not affect returned recommendations")
	}
}
