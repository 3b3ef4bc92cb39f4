package news

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Searcher issues keyword queries against an external news search backend.
type Searcher interface {
	Search(ctx context.Context, query string, count int) ([]Article, error)
}

// NaverClient calls the Naver news search API.
type NaverClient struct {
	baseURL      string
	clientID     string
	clientSecret string
	http         *http.Client
}

var _ Searcher = (*NaverClient)(nil)

// NewNaverClient creates a reusable search client.
func NewNaverClient(baseURL, clientID, clientSecret string, timeout time.Duration) *NaverClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &NaverClient{
		baseURL:      baseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		http:         &http.Client{Timeout: timeout},
	}
}

// Search fetches up to count recent articles for the query, newest first.
func (c *NaverClient) Search(ctx context.Context, query string, count int) ([]Article, error) {
	if count <= 0 {
		count = 10
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("display", strconv.Itoa(count))
	params.Set("start", "1")
	params.Set("sort", "date")

	endpoint := c.baseURL + "/v1/search/news.json?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: new request: %v", ErrSearchFailed, err)
	}
	req.Header.Set("X-Naver-Client-Id", c.clientID)
	req.Header.Set("X-Naver-Client-Secret", c.clientSecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %s", ErrSearchFailed, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrSearchFailed, err)
	}

	articles, err := ParseSearchResults(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	return articles, nil
}
