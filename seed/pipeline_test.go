package seed

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	aimock "github.com/poiesic/podsearch/ai/mock"
	"github.com/poiesic/podsearch/core"
	indexmock "github.com/poiesic/podsearch/index/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPipeline(t *testing.T) {
	t.Run("nil writer", func(t *testing.T) {
		_, err := NewPipeline(nil, aimock.NewMockEmbedder())
		assert.Equal(t, ErrWriterRequired, err)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewPipeline(indexmock.NewMockWriter(), nil)
		assert.Equal(t, ErrEmbedderRequired, err)
	})
}

func TestPipeline_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("processes all fragments in batches", func(t *testing.T) {
		writer := indexmock.NewMockWriter()
		pipeline, err := NewPipeline(writer, aimock.NewMockEmbedder(),
			WithPoolSize(1), WithBatchSize(2))
		require.NoError(t, err)
		defer pipeline.Release()

		stats, err := pipeline.Run(ctx, "sample.jsonl", strings.NewReader(sampleJSONL))
		require.NoError(t, err)

		assert.Equal(t, uint64(3), stats.Processed)
		assert.Equal(t, uint64(0), stats.Skipped)
		assert.Equal(t, 2, stats.Batches)
		require.Len(t, writer.Upserted, 3)
		assert.Equal(t, "f1", writer.Upserted[0].Id)
		assert.Equal(t, "f3", writer.Upserted[2].Id)
	})

	t.Run("vectors are unit length", func(t *testing.T) {
		var (
			mu      sync.Mutex
			vectors [][]float32
		)
		writer := indexmock.NewMockWriter()
		writer.UpsertFunc = func(_ context.Context, _ []core.Fragment, batch [][]float32) error {
			mu.Lock()
			vectors = append(vectors, batch...)
			mu.Unlock()
			return nil
		}

		pipeline, err := NewPipeline(writer, aimock.NewMockEmbedder(), WithBatchSize(2))
		require.NoError(t, err)
		defer pipeline.Release()

		_, err = pipeline.Run(ctx, "sample.jsonl", strings.NewReader(sampleJSONL))
		require.NoError(t, err)

		require.Len(t, vectors, 3)
		for _, vector := range vectors {
			var magnitude float64
			for _, v := range vector {
				magnitude += float64(v) * float64(v)
			}
			assert.InDelta(t, 1.0, math.Sqrt(magnitude), 1e-5)
		}
	})

	t.Run("resumes from checkpoint", func(t *testing.T) {
		store := openTestStore(t)
		require.NoError(t, store.Save(ctx, &Checkpoint{Source: "sample.jsonl", Records: 2}))

		writer := indexmock.NewMockWriter()
		pipeline, err := NewPipeline(writer, aimock.NewMockEmbedder(),
			WithPoolSize(1), WithCheckpointStore(store))
		require.NoError(t, err)
		defer pipeline.Release()

		stats, err := pipeline.Run(ctx, "sample.jsonl", strings.NewReader(sampleJSONL))
		require.NoError(t, err)

		assert.Equal(t, uint64(2), stats.Skipped)
		assert.Equal(t, uint64(1), stats.Processed)
		require.Len(t, writer.Upserted, 1)
		assert.Equal(t, "f3", writer.Upserted[0].Id)

		checkpoint, err := store.Load(ctx, "sample.jsonl")
		require.NoError(t, err)
		require.NotNil(t, checkpoint)
		assert.Equal(t, uint64(3), checkpoint.Records)
	})

	t.Run("empty source rejected", func(t *testing.T) {
		pipeline, err := NewPipeline(indexmock.NewMockWriter(), aimock.NewMockEmbedder())
		require.NoError(t, err)
		defer pipeline.Release()

		_, err = pipeline.Run(ctx, "", strings.NewReader(sampleJSONL))
		assert.Equal(t, ErrEmptySource, err)
	})

	t.Run("embedding failure fails the run", func(t *testing.T) {
		embedder := aimock.NewMockEmbedder()
		embedder.EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
			return nil, errors.New("embedding service down")
		}

		pipeline, err := NewPipeline(indexmock.NewMockWriter(), embedder,
			WithPoolSize(1), WithRetry(1, time.Millisecond))
		require.NoError(t, err)
		defer pipeline.Release()

		_, err = pipeline.Run(ctx, "sample.jsonl", strings.NewReader(sampleJSONL))
		assert.Error(t, err)
	})

	t.Run("writer failure fails the run", func(t *testing.T) {
		writer := indexmock.NewMockWriter()
		writer.UpsertFunc = func(context.Context, []core.Fragment, [][]float32) error {
			return errors.New("index unavailable")
		}

		pipeline, err := NewPipeline(writer, aimock.NewMockEmbedder(), WithPoolSize(1))
		require.NoError(t, err)
		defer pipeline.Release()

		_, err = pipeline.Run(ctx, "sample.jsonl", strings.NewReader(sampleJSONL))
		assert.Error(t, err)
	})
}
