package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/feedhaus/storyvec/app/metrics"
)

// Provider computes embeddings for a batch of texts. The result is
// positional: result[i] is the vector for texts[i].
type Provider interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	ModelName() string
}

var _ Provider = (*OpenAIProvider)(nil)

// OpenAIProvider talks to an OpenAI-compatible embedding API
type OpenAIProvider struct {
	embedder  embeddings.Embedder
	modelName string
}

// NewOpenAIProvider creates a provider for the given OpenAI-compatible host.
// An empty API key falls back to a placeholder token for local services that
// do not require authentication.
func NewOpenAIProvider(host, model, apiKey string) (*OpenAIProvider, error) {
	if apiKey == "" {
		apiKey = "none"
	}

	client, err := openai.New(
		openai.WithBaseURL(host),
		openai.WithToken(apiKey),
		openai.WithEmbeddingModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	return &OpenAIProvider{
		embedder:  embedder,
		modelName: model,
	}, nil
}

// Embed generates one vector per input text, in input order
func (p *OpenAIProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrNoTextsProvided
	}

	start := time.Now()
	vectors, err := p.embedder.EmbedDocuments(ctx, texts)
	metrics.EmbeddingProviderDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.EmbeddingProviderCalls.WithLabelValues("error").Inc()
		providerErr := classifyProviderError(err)
		slog.Error("Embedding provider call failed", "count", len(texts), "kind", string(providerErr.Kind), "error", err)
		return nil, providerErr
	}

	if len(vectors) != len(texts) {
		metrics.EmbeddingProviderCalls.WithLabelValues("error").Inc()
		return nil, &ProviderError{
			Kind: ErrorKindMalformedInput,
			Err:  fmt.Errorf("embedding count mismatch: expected %d, received %d", len(texts), len(vectors)),
		}
	}

	metrics.EmbeddingProviderCalls.WithLabelValues("success").Inc()
	return vectors, nil
}

func (p *OpenAIProvider) ModelName() string {
	return p.modelName
}
