package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/podsearch/ai"
	"github.com/poiesic/podsearch/core"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder implements ai.Embedder using OpenAI-compatible embedding APIs.
//
// Transient failures (timeouts, 5xx, connection resets) are retried with
// exponential backoff, which also absorbs cold-start latency on serverless
// embedding deployments: a slow first call that eventually answers is a
// success, not an error. After the retry budget is exhausted the failure
// surfaces as core.ErrEmbeddingUnavailable.
type Embedder struct {
	embedder   embeddings.Embedder
	dimensions int
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
}

// newEmbedder is an internal constructor that returns the concrete type.
func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't
	// require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder:   embedder,
		dimensions: config.EmbeddingDimensions,
		maxRetries: config.MaxRetries,
		retryDelay: config.RetryDelay,
		logger:     slog.Default().With("component", "openai-embedder"),
	}, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// EmbedText generates a vector embedding for a single text string.
// The input is normalized before the call so the embedded string is exactly
// the string callers fingerprint for caching.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	normalized := core.NormalizeQuery(text)
	if err := core.ValidateQuery(normalized); err != nil {
		return nil, err
	}

	e.logger.Debug("generating embedding for single text", "length", len(normalized))

	var vector []float32
	start := time.Now()
	err := core.RetryWithBackoff(ctx, func() error {
		vectors, err := e.embedder.EmbedDocuments(ctx, []string{normalized})
		if err != nil {
			return err
		}
		if len(vectors) == 0 {
			return errors.New("embedder returned empty result")
		}
		if err := e.checkDimensions(vectors[0]); err != nil {
			return err
		}
		vector = vectors[0]
		return nil
	}, e.maxRetries, e.retryDelay)

	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		e.logger.Error("embedding failed after retries", "attempts", e.maxRetries, "err", err)
		return nil, fmt.Errorf("%w: %w", core.ErrEmbeddingUnavailable, err)
	}

	if elapsed := time.Since(start); elapsed > 5*time.Second {
		e.logger.Warn("slow embedding call, likely cold start", "elapsed", elapsed)
	}

	return vector, nil
}

// EmbedTexts generates vector embeddings for multiple text strings in a
// batch. The inputs are corpus documents, not queries: casing is preserved
// and the length check is the fragment limit, not the query cap.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	normalized := make([]string, len(texts))
	for i, text := range texts {
		normalized[i] = strings.TrimSpace(text)
		if err := core.ValidateDocument(normalized[i]); err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
	}

	e.logger.Debug("generating embeddings for texts", "count", len(normalized))

	var vectors [][]float32
	err := core.RetryWithBackoff(ctx, func() error {
		vs, err := e.embedder.EmbedDocuments(ctx, normalized)
		if err != nil {
			return err
		}
		if len(vs) != len(normalized) {
			return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(normalized), len(vs))
		}
		for i, v := range vs {
			if err := e.checkDimensions(v); err != nil {
				return fmt.Errorf("text %d: %w", i, err)
			}
		}
		vectors = vs
		return nil
	}, e.maxRetries, e.retryDelay)

	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		e.logger.Error("batch embedding failed after retries", "count", len(normalized), "err", err)
		return nil, fmt.Errorf("%w: %w", core.ErrEmbeddingUnavailable, err)
	}

	return vectors, nil
}

// checkDimensions rejects vectors that don't match the configured
// dimensionality. A truncated or resized response is a failure, never a
// partial success.
func (e *Embedder) checkDimensions(vector []float32) error {
	if len(vector) != e.dimensions {
		return fmt.Errorf("unexpected embedding dimensionality: expected %d, got %d", e.dimensions, len(vector))
	}
	return nil
}
