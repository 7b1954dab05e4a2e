// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package seed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/podsearch/ai"
	"github.com/poiesic/podsearch/core"
	"github.com/poiesic/podsearch/index"
)

const defaultBatchSize = 64

// Pipeline embeds transcript fragments and loads them into the search
// indexes. Batches run concurrently on a worker pool; checkpoints advance
// only after every batch in a wave has landed, so a resume never skips an
// unwritten fragment.
type Pipeline struct {
	writer      index.Writer
	embedder    ai.Embedder
	checkpoints *CheckpointStore
	pool        *ants.Pool
	batchSize   int
	maxRetries  int
	retryDelay  time.Duration
	progress    *ProgressTracker
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent batches.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithBatchSize sets how many fragments are embedded per request.
// Default is 64.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.batchSize = size
		return nil
	}
}

// WithCheckpointStore enables resumable runs.
func WithCheckpointStore(store *CheckpointStore) Option {
	return func(p *Pipeline) error {
		p.checkpoints = store
		return nil
	}
}

// WithProgress reports progress to the tracker during runs.
func WithProgress(tracker *ProgressTracker) Option {
	return func(p *Pipeline) error {
		p.progress = tracker
		return nil
	}
}

// WithRetry sets the retry budget and base delay for embedding calls.
// Defaults are 3 attempts and 500ms.
func WithRetry(maxRetries int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		p.maxRetries = maxRetries
		p.retryDelay = baseDelay
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new seeding pipeline.
func NewPipeline(writer index.Writer, embedder ai.Embedder, opts ...Option) (*Pipeline, error) {
	if writer == nil {
		return nil, ErrWriterRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		writer:     writer,
		embedder:   embedder,
		pool:       pool,
		batchSize:  defaultBatchSize,
		maxRetries: 3,
		retryDelay: 500 * time.Millisecond,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// RunStats summarizes a completed seeding run.
type RunStats struct {
	Processed uint64
	Skipped   uint64
	Batches   int
	Elapsed   time.Duration
}

// Run seeds fragments from JSONL input into the indexes. The source name
// keys the checkpoint; rerunning with the same source resumes after the
// last fully committed wave of batches.
func (p *Pipeline) Run(ctx context.Context, source string, input io.Reader) (*RunStats, error) {
	if source == "" {
		return nil, ErrEmptySource
	}

	start := time.Now()
	reader := NewFragmentReader(input)
	stats := &RunStats{}

	if p.checkpoints != nil {
		checkpoint, err := p.checkpoints.Load(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("failed to load checkpoint: %w", err)
		}
		if checkpoint != nil && checkpoint.Records > 0 {
			skipped, err := reader.Skip(checkpoint.Records)
			if err != nil {
				return nil, err
			}
			stats.Skipped = skipped
			p.logger.Info("resuming from checkpoint",
				"source", source,
				"records", checkpoint.Records)
		}
	}

	if p.progress != nil {
		p.progress.Start()
	}

	waveSize := p.pool.Cap()
	committed := stats.Skipped
	for {
		wave, err := p.readWave(reader, waveSize)
		if err != nil {
			return nil, err
		}
		if len(wave) == 0 {
			break
		}

		if err := p.runWave(ctx, wave); err != nil {
			return nil, err
		}

		for _, batch := range wave {
			committed += uint64(len(batch))
			stats.Processed += uint64(len(batch))
			stats.Batches++
			if p.progress != nil {
				p.progress.Increment(len(batch))
			}
		}

		if p.checkpoints != nil {
			checkpoint := &Checkpoint{Source: source, Records: committed}
			if err := p.checkpoints.Save(ctx, checkpoint); err != nil {
				return nil, fmt.Errorf("failed to save checkpoint: %w", err)
			}
		}
	}

	if p.progress != nil {
		p.progress.Finish()
	}

	stats.Elapsed = time.Since(start)
	p.logger.Info("seeding complete",
		"source", source,
		"processed", stats.Processed,
		"skipped", stats.Skipped,
		"batches", stats.Batches,
		"elapsed", stats.Elapsed)
	return stats, nil
}

// readWave reads up to count batches from the reader.
func (p *Pipeline) readWave(reader *FragmentReader, count int) ([][]core.Fragment, error) {
	var wave [][]core.Fragment
	for len(wave) < count {
		batch, err := p.readBatch(reader)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		wave = append(wave, batch)
	}
	return wave, nil
}

// readBatch reads up to batchSize fragments from the reader.
func (p *Pipeline) readBatch(reader *FragmentReader) ([]core.Fragment, error) {
	var batch []core.Fragment
	for len(batch) < p.batchSize {
		fragment, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		batch = append(batch, fragment)
	}
	return batch, nil
}

// runWave processes the wave's batches concurrently and waits for all of
// them. The first batch error fails the wave.
func (p *Pipeline) runWave(ctx context.Context, wave [][]core.Fragment) error {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for _, batch := range wave {
		batch := batch
		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			if err := p.processBatch(ctx, batch); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = submitErr
			}
			mu.Unlock()
		}
	}
	wg.Wait()

	return firstErr
}

// processBatch embeds one batch with retry, normalizes the vectors, and
// upserts the fragments.
func (p *Pipeline) processBatch(ctx context.Context, batch []core.Fragment) error {
	texts := make([]string, len(batch))
	for i, fragment := range batch {
		texts[i] = fragment.Text
	}

	var embeddings [][]float32
	err := core.RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = p.embedder.EmbedTexts(ctx, texts)
		return err
	}, p.maxRetries, p.retryDelay)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", p.maxRetries, err)
	}
	if len(embeddings) != len(batch) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(batch), len(embeddings))
	}

	vectors := make([][]float32, len(embeddings))
	for i, embedding := range embeddings {
		vectors[i] = NormalizeVector(embedding)
	}

	if err := p.writer.UpsertFragments(ctx, batch, vectors); err != nil {
		return fmt.Errorf("failed to upsert fragments: %w", err)
	}
	return nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
