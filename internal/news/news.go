package news

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// ErrSearchFailed marks failures of the external news search backend.
var ErrSearchFailed = errors.New("news search failed")

// Article is a single news item as returned by the search backend or a feed.
// Link is the canonical identity used for dedup everywhere; the struct is
// never mutated after construction.
type Article struct {
	Title        string
	Link         string
	OriginalLink string
	Description  string
	Publisher    string
	PublishedAt  time.Time
}

var (
	reTags     = regexp.MustCompile(`<[^>]*>`)
	reEntities = regexp.MustCompile(`&[^;]+;`)
)

// CleanHTML strips HTML tags and entities from search payloads. Naver wraps
// matched query terms in <b>...</b> and escapes quotes, so raw titles and
// descriptions are never safe to embed or display as-is.
func CleanHTML(text string) string {
	if text == "" {
		return ""
	}
	text = reTags.ReplaceAllString(text, "")
	text = reEntities.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// searchResponse mirrors the Naver news search JSON payload.
type searchResponse struct {
	Items []searchItem `json:"items"`
}

type searchItem struct {
	Title        string `json:"title"`
	Link         string `json:"link"`
	OriginalLink string `json:"originallink"`
	Description  string `json:"description"`
	Publisher    string `json:"publisher"`
	PubDate      string `json:"pubDate"`
}

// ParseSearchResults converts a raw search response body into articles.
// Items without a link are dropped; everything else is cleaned up.
func ParseSearchResults(body []byte) ([]Article, error) {
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}

	articles := make([]Article, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Link == "" {
			continue
		}

		published := time.Now()
		if item.PubDate != "" {
			if parsed, err := time.Parse(time.RFC1123Z, item.PubDate); err == nil {
				published = parsed
			}
		}

		a := Article{
			Title:        CleanHTML(item.Title),
			Link:         item.Link,
			OriginalLink: item.OriginalLink,
			Description:  CleanHTML(item.Description),
			Publisher:    item.Publisher,
			PublishedAt:  published,
		}
		if a.Publisher == "" {
			a.Publisher = PublisherFromLink(a)
		}
		articles = append(articles, a)
	}
	return articles, nil
}

// PublisherFromLink derives a publisher name from the article host when the
// search payload omits one. The original link usually points at the outlet
// itself rather than the aggregator.
func PublisherFromLink(a Article) string {
	for _, link := range []string{a.OriginalLink, a.Link} {
		if link == "" {
			continue
		}
		u, err := url.Parse(link)
		if err != nil || u.Host == "" {
			continue
		}
		host := strings.ToLower(u.Host)
		host = strings.TrimPrefix(host, "www.")
		host = strings.TrimPrefix(host, "news.")
		return host
	}
	return "unknown"
}

// ContainsLink reports whether any article in the list shares the given link.
func ContainsLink(articles []Article, link string) bool {
	for _, a := range articles {
		if a.Link == link {
			return true
		}
	}
	return false
}
