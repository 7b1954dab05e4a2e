// Package mock provides test doubles for the index interfaces.
//
// The fakes follow the same conventions as ai/mock: injectable behavior via
// function fields, call counters for assertions, and benign defaults.
package mock

import (
	"context"
	"sync/atomic"

	"github.com/poiesic/podsearch/core"
)

// MockVectorIndex is a test double for index.VectorIndex.
type MockVectorIndex struct {
	// SearchFunc is called by Search if set. If nil, Search returns no hits.
	SearchFunc func(ctx context.Context, vector []float32, limit, numCandidates int, minScore float64) ([]core.Fragment, error)

	callCount atomic.Int64
}

// NewMockVectorIndex creates a mock vector index that returns no hits.
func NewMockVectorIndex() *MockVectorIndex {
	return &MockVectorIndex{}
}

// Search records the call and delegates to SearchFunc when set.
func (m *MockVectorIndex) Search(ctx context.Context, vector []float32, limit, numCandidates int, minScore float64) ([]core.Fragment, error) {
	m.callCount.Add(1)
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, vector, limit, numCandidates, minScore)
	}
	return nil, nil
}

// CallCount returns how many times Search was called.
func (m *MockVectorIndex) CallCount() int {
	return int(m.callCount.Load())
}

// MockTextIndex is a test double for index.TextIndex.
type MockTextIndex struct {
	// SearchFunc is called by Search if set. If nil, Search returns no hits.
	SearchFunc func(ctx context.Context, terms map[string]float64, limit, skip int) ([]core.Fragment, error)

	callCount atomic.Int64
}

// NewMockTextIndex creates a mock text index that returns no hits.
func NewMockTextIndex() *MockTextIndex {
	return &MockTextIndex{}
}

// Search records the call and delegates to SearchFunc when set.
func (m *MockTextIndex) Search(ctx context.Context, terms map[string]float64, limit, skip int) ([]core.Fragment, error) {
	m.callCount.Add(1)
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, terms, limit, skip)
	}
	return nil, nil
}

// CallCount returns how many times Search was called.
func (m *MockTextIndex) CallCount() int {
	return int(m.callCount.Load())
}

// MockWriter is a test double for index.Writer. It records upserted
// fragments for assertions.
type MockWriter struct {
	// UpsertFunc is called by UpsertFragments if set.
	UpsertFunc func(ctx context.Context, fragments []core.Fragment, vectors [][]float32) error

	// Upserted accumulates fragments from successful default-path calls.
	Upserted []core.Fragment

	callCount atomic.Int64
}

// NewMockWriter creates a mock writer that accepts all fragments.
func NewMockWriter() *MockWriter {
	return &MockWriter{}
}

// UpsertFragments records the call and delegates to UpsertFunc when set.
func (m *MockWriter) UpsertFragments(ctx context.Context, fragments []core.Fragment, vectors [][]float32) error {
	m.callCount.Add(1)
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, fragments, vectors)
	}
	m.Upserted = append(m.Upserted, fragments...)
	return nil
}

// CallCount returns how many times UpsertFragments was called.
func (m *MockWriter) CallCount() int {
	return int(m.callCount.Load())
}
