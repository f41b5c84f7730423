package embeddings

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type geminiProvider struct {
	client *genai.Client
	model  string
	dim    int
}

// NewGemini constructs a provider backed by the Gemini embedding models.
func NewGemini(ctx context.Context, cfg *Config) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	dim := cfg.Dim
	if dim == 0 && model == DefaultGeminiModel {
		dim = DefaultGeminiDim
	}

	return &geminiProvider{client: client, model: model, dim: dim}, nil
}

func (p *geminiProvider) ModelID() string {
	return "gemini:" + p.model
}

func (p *geminiProvider) Dim() int {
	return p.dim
}

func (p *geminiProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ProviderError{Model: p.ModelID(), Message: "cannot embed empty text"}
	}

	em := p.client.EmbeddingModel(p.model)
	resp, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, &ProviderError{Model: p.ModelID(), Message: "embed content failed", Cause: err}
	}
	if resp == nil || resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, &ProviderError{Model: p.ModelID(), Message: "response missing embedding"}
	}

	if err := checkDim(p.ModelID(), p.dim, resp.Embedding.Values); err != nil {
		return nil, err
	}
	return resp.Embedding.Values, nil
}
