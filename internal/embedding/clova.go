package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ClovaEmbedder calls the Clova Studio embedding API.
type ClovaEmbedder struct {
	endpoint  string
	apiKey    string
	requestID string
	client    *http.Client
}

var _ Embedder = (*ClovaEmbedder)(nil)

type clovaRequest struct {
	Text string `json:"text"`
}

type clovaResponse struct {
	Result *clovaResult `json:"result"`
}

type clovaResult struct {
	Embedding []float64 `json:"embedding"`
}

// NewClovaEmbedder creates a reusable HTTP embedder.
func NewClovaEmbedder(endpoint, apiKey, requestID string, timeout time.Duration) *ClovaEmbedder {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ClovaEmbedder{
		endpoint:  endpoint,
		apiKey:    apiKey,
		requestID: requestID,
		client:    &http.Client{Timeout: timeout},
	}
}

// Embed posts the text and returns the vector with its dimension. One
// network call, no internal retry.
func (e *ClovaEmbedder) Embed(ctx context.Context, text string) ([]float64, int, error) {
	body, err := json.Marshal(clovaRequest{Text: text})
	if err != nil {
		return nil, 0, fmt.Errorf("%w: marshal request: %v", ErrGenerationFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: new request: %v", ErrGenerationFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	req.Header.Set("X-NCP-CLOVASTUDIO-REQUEST-ID", e.requestID)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("%w: unexpected status %s", ErrGenerationFailed, resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: read body: %v", ErrGenerationFailed, err)
	}

	var parsed clovaResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, 0, fmt.Errorf("%w: parse response: %v", ErrGenerationFailed, err)
	}
	if parsed.Result == nil || len(parsed.Result.Embedding) == 0 {
		return nil, 0, fmt.Errorf("%w: response has no embedding", ErrGenerationFailed)
	}

	vector := parsed.Result.Embedding
	return vector, len(vector), nil
}
