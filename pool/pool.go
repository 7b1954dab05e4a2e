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


package pool

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrNilResource is returned when a pool is constructed without a resource.
var ErrNilResource = errors.New("pool resource required")

// ErrInvalidMaxConnections is returned for a non-positive connection cap.
var ErrInvalidMaxConnections = errors.New("max connections must be positive")

// DefaultMaxConnections caps simultaneous use of the shared resource when no
// explicit limit is configured.
const DefaultMaxConnections = 10

// defaultBackoffBase is the base wait for Execute retries.
const defaultBackoffBase = 100 * time.Millisecond

// Pool bounds concurrent use of a shared resource to a fixed number of
// slots. Callers that arrive while all slots are held wait until a slot
// frees or their context is done; exhaustion is queuing, never an error.
type Pool[R any] struct {
	resource R
	sem      *semaphore.Weighted
	max      int64

	active        atomic.Int64
	peak          atomic.Int64
	totalAcquired atomic.Uint64
	errorCount    atomic.Uint64

	backoffBase time.Duration
	logger      *slog.Logger
}

// Option configures a Pool.
type Option[R any] func(*Pool[R]) error

// WithMaxConnections sets the connection cap.
// Default is DefaultMaxConnections.
func WithMaxConnections[R any](max int) Option[R] {
	return func(p *Pool[R]) error {
		if max <= 0 {
			return ErrInvalidMaxConnections
		}
		p.max = int64(max)
		p.sem = semaphore.NewWeighted(int64(max))
		return nil
	}
}

// WithBackoffBase sets the base delay for Execute retries.
func WithBackoffBase[R any](base time.Duration) Option[R] {
	return func(p *Pool[R]) error {
		if base > 0 {
			p.backoffBase = base
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger[R any](logger *slog.Logger) Option[R] {
	return func(p *Pool[R]) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// New creates a pool guarding the given shared resource.
func New[R any](resource R, opts ...Option[R]) (*Pool[R], error) {
	p := &Pool[R]{
		resource:    resource,
		sem:         semaphore.NewWeighted(DefaultMaxConnections),
		max:         DefaultMaxConnections,
		backoffBase: defaultBackoffBase,
		logger:      slog.Default().With("component", "pool"),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Acquire blocks until a slot is free or ctx is done, then returns the
// shared resource and a release callback. The callback is idempotent:
// releasing twice frees the slot exactly once, so careless callers cannot
// corrupt the active count.
func (p *Pool[R]) Acquire(ctx context.Context) (R, func(), error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		var zero R
		return zero, func() {}, err
	}

	p.totalAcquired.Add(1)
	active := p.active.Add(1)
	for {
		peak := p.peak.Load()
		if active <= peak || p.peak.CompareAndSwap(peak, active) {
			break
		}
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			p.active.Add(-1)
			p.sem.Release(1)
		})
	}
	return p.resource, release, nil
}

// Execute acquires a slot, runs fn against the shared resource, and releases
// the slot on every exit path including panics. Failures are retried with
// exponential backoff (base * 2^attempt) up to maxRetries additional
// attempts; the last error is returned when the budget is spent.
func Execute[R, T any](ctx context.Context, p *Pool[R], fn func(R) (T, error), maxRetries int) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			wait := p.backoffBase << (attempt - 1)
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
			p.logger.Debug("retrying pooled operation", "attempt", attempt, "maxRetries", maxRetries)
		}

		value, err := func() (T, error) {
			resource, release, err := p.Acquire(ctx)
			if err != nil {
				return zero, err
			}
			defer release()
			return fn(resource)
		}()
		if err == nil {
			return value, nil
		}
		if ctx.Err() != nil {
			return zero, err
		}

		p.errorCount.Add(1)
		lastErr = err
	}

	return zero, lastErr
}

// Stats is a point-in-time snapshot of pool utilization for health
// reporting.
type Stats struct {
	Active         int64
	Peak           int64
	MaxConnections int64
	TotalAcquired  uint64
	Errors         uint64
}

// Stats returns a snapshot of the pool counters.
func (p *Pool[R]) Stats() Stats {
	return Stats{
		Active:         p.active.Load(),
		Peak:           p.peak.Load(),
		MaxConnections: p.max,
		TotalAcquired:  p.totalAcquired.Load(),
		Errors:         p.errorCount.Load(),
	}
}
