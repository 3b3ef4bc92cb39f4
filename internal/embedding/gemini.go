package embedding

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiEmbedder generates vectors through the Gemini SDK.
type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

var _ Embedder = (*GeminiEmbedder)(nil)

// NewGeminiEmbedder creates a Gemini-backed embedder.
func NewGeminiEmbedder(ctx context.Context, apiKey, model string) (*GeminiEmbedder, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if model == "" {
		model = "text-embedding-004"
	}
	return &GeminiEmbedder{client: client, model: model}, nil
}

func (e *GeminiEmbedder) Close() {
	if e.client != nil {
		e.client.Close()
	}
}

// Embed requests a single-content embedding from the configured model.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float64, int, error) {
	em := e.client.EmbeddingModel(e.model)

	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if res == nil || res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, 0, fmt.Errorf("%w: empty embedding from Gemini", ErrGenerationFailed)
	}

	vector := make([]float64, len(res.Embedding.Values))
	for i, v := range res.Embedding.Values {
		vector[i] = float64(v)
	}
	return vector, len(vector), nil
}
