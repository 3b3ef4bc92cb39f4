// Package scraper fetches article pages to recover a usable description
// when the search API returns a truncated one. Embedding quality depends
// on the description text, so thin results get enriched before embedding.
package scraper

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/swen/newsbrief/internal/news"
)

const userAgent = "Mozilla/5.0 (compatible; newsbrief/1.0)"

// Scraper extracts body text from news article pages.
type Scraper struct {
	client *http.Client
	// descriptions shorter than this get the scrape treatment
	minDescription int
}

func New(timeout time.Duration, minDescription int) *Scraper {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Scraper{
		client:         &http.Client{Timeout: timeout},
		minDescription: minDescription,
	}
}

// Enrich replaces the article description with scraped body text when the
// current description is too short to embed well. Scrape failures leave
// the article unchanged.
func (s *Scraper) Enrich(ctx context.Context, article news.Article) news.Article {
	if len([]rune(article.Description)) >= s.minDescription {
		return article
	}

	content, err := s.ExtractContent(ctx, article.Link)
	if err != nil {
		log.Printf("⚠️ Scrape failed for %s: %v", article.Link, err)
		return article
	}
	if content == "" {
		return article
	}

	article.Description = content
	return article
}

// ExtractContent gets the body text of an article page by URL.
func (s *Scraper) ExtractContent(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("error building request: %v", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error loading page: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error parsing HTML: %v", err)
	}

	content := extractContentBySource(doc, url)
	if content == "" {
		return "", fmt.Errorf("can't get content")
	}
	return content, nil
}

// extractContentBySource gets content by news site
func extractContentBySource(doc *goquery.Document, url string) string {
	var content string

	switch {
	case strings.Contains(url, "naver.com"):
		content = extractBySelectors(doc, []string{
			"#dic_area",
			"#newsct_article",
			".newsct_body p",
			"article p",
		}, 1)
	case strings.Contains(url, "daum.net"):
		content = extractBySelectors(doc, []string{
			".article_view p",
			"#harmonyContainer p",
			"article p",
		}, 1)
	default:
		content = extractGenericContent(doc)
	}

	return cleanContent(content)
}

// extractGenericContent is universal parser for any site
func extractGenericContent(doc *goquery.Document) string {
	selectors := []string{
		"article p",
		".article p",
		".article-body p",
		".content p",
		".news-content p",
		"main p",
		"#content p",
		"p",
	}
	// 3 paragraphs is enough for a description
	return extractBySelectors(doc, selectors, 3)
}

// extractBySelectors tries selectors in order and stops at the first one
// that yields at least minParagraphs usable paragraphs.
func extractBySelectors(doc *goquery.Document, selectors []string, minParagraphs int) string {
	var paragraphs []string

	for _, selector := range selectors {
		doc.Find(selector).Each(func(i int, sel *goquery.Selection) {
			text := strings.TrimSpace(sel.Text())
			if text != "" && len([]rune(text)) > 10 {
				paragraphs = append(paragraphs, text)
			}
		})
		if len(paragraphs) >= minParagraphs {
			break
		}
		paragraphs = paragraphs[:0]
	}

	return strings.Join(paragraphs, "\n\n")
}

// cleanContent strips boilerplate the Korean portals append to article
// bodies and normalizes whitespace.
func cleanContent(content string) string {
	if content == "" {
		return ""
	}

	junkPhrases := []string{
		"무단전재 및 재배포 금지",
		"무단 전재 및 재배포 금지",
		"저작권자 ⓒ",
		"기사제보 및 보도자료",
		"구독하기", "네이버에서 구독", "카카오톡에서 구독",
		"관련기사", "함께 보면 좋은 기사",
	}
	for _, phrase := range junkPhrases {
		content = strings.ReplaceAll(content, phrase, "")
	}

	lines := strings.Split(content, "\n")
	var kept []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if len([]rune(line)) < 8 {
			continue
		}
		kept = append(kept, line)
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}
