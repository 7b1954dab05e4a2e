package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	aimock "github.com/poiesic/podsearch/ai/mock"
	"github.com/poiesic/podsearch/core"
	indexmock "github.com/poiesic/podsearch/index/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSearcher(t *testing.T, embedder *aimock.MockEmbedder, vector *indexmock.MockVectorIndex, text *indexmock.MockTextIndex, opts ...Option) *Searcher {
	t.Helper()
	s, err := NewSearcher(embedder, vector, text, opts...)
	require.NoError(t, err)
	return s
}

func TestNewSearcher(t *testing.T) {
	embedder := aimock.NewMockEmbedder()
	vector := indexmock.NewMockVectorIndex()
	text := indexmock.NewMockTextIndex()

	t.Run("valid configuration", func(t *testing.T) {
		s, err := NewSearcher(embedder, vector, text)
		require.NoError(t, err)
		assert.NotNil(t, s)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewSearcher(nil, vector, text)
		assert.Equal(t, ErrEmbedderRequired, err)
	})

	t.Run("nil vector index", func(t *testing.T) {
		_, err := NewSearcher(embedder, nil, text)
		assert.Equal(t, ErrVectorIndexRequired, err)
	})

	t.Run("nil text index", func(t *testing.T) {
		_, err := NewSearcher(embedder, vector, nil)
		assert.Equal(t, ErrTextIndexRequired, err)
	})
}

func TestSearch_InvalidQuery(t *testing.T) {
	s := newTestSearcher(t, aimock.NewMockEmbedder(), indexmock.NewMockVectorIndex(), indexmock.NewMockTextIndex())

	_, err := s.Search(context.Background(), "   ", 10)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestSearch_HybridResult(t *testing.T) {
	vector := indexmock.NewMockVectorIndex()
	vector.SearchFunc = func(_ context.Context, _ []float32, limit, numCandidates int, minScore float64) ([]core.Fragment, error) {
		assert.Equal(t, 10, limit)
		assert.Equal(t, 500, numCandidates, "limit*50 oversampling")
		assert.Equal(t, DefaultMinScore, minScore)
		a := frag("a", "ep-1", "agents were the whole conversation")
		a.VectorScore = 0.9
		return []core.Fragment{a}, nil
	}

	text := indexmock.NewMockTextIndex()
	text.SearchFunc = func(_ context.Context, terms map[string]float64, limit, skip int) ([]core.Fragment, error) {
		assert.Equal(t, 20, limit, "limit*2 lexical candidate pool")
		assert.Equal(t, 0, skip)
		assert.NotEmpty(t, terms)
		a := frag("a", "ep-1", "agents were the whole conversation")
		a.LexicalScore = 0.5
		b := frag("b", "ep-2", "another conversation entirely")
		b.LexicalScore = 1.0
		return []core.Fragment{a, b}, nil
	}

	s := newTestSearcher(t, aimock.NewMockEmbedder(), vector, text)

	result, err := s.Search(context.Background(), "AI agent valuations", 10)
	require.NoError(t, err)
	require.Len(t, result.Fragments, 2)

	assert.Equal(t, core.SearchMethodHybrid, result.Method)
	assert.Equal(t, "a", result.Fragments[0].Id)
	assert.Equal(t, "b", result.Fragments[1].Id)
	assert.True(t, result.Origins["a"].FromVector())
	assert.True(t, result.Origins["a"].FromText())
	assert.False(t, result.Origins["b"].FromVector())
}

func TestSearch_NoResultsIsTerminalNotError(t *testing.T) {
	s := newTestSearcher(t, aimock.NewMockEmbedder(), indexmock.NewMockVectorIndex(), indexmock.NewMockTextIndex())

	result, err := s.Search(context.Background(), "anything at all", 10)
	require.NoError(t, err)
	assert.Empty(t, result.Fragments)
	assert.Equal(t, core.SearchMethodNone, result.Method)
}

func TestSearch_VectorFailureDegradesToText(t *testing.T) {
	vector := indexmock.NewMockVectorIndex()
	vector.SearchFunc = func(context.Context, []float32, int, int, float64) ([]core.Fragment, error) {
		return nil, core.ErrUpstreamUnavailable
	}
	text := indexmock.NewMockTextIndex()
	text.SearchFunc = func(context.Context, map[string]float64, int, int) ([]core.Fragment, error) {
		b := frag("b", "ep-2", "lexical only hit")
		b.LexicalScore = 1.0
		return []core.Fragment{b}, nil
	}

	s := newTestSearcher(t, aimock.NewMockEmbedder(), vector, text)

	result, err := s.Search(context.Background(), "agent valuations", 10)
	require.NoError(t, err)
	require.Len(t, result.Fragments, 1)
	assert.Equal(t, "b", result.Fragments[0].Id)
	assert.Equal(t, core.SearchMethodTextOnly, result.Method)
}

func TestSearch_EmbeddingFailureFallsBackToTextOnly(t *testing.T) {
	embedder := aimock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(context.Context, string) ([]float32, error) {
		return nil, core.ErrEmbeddingUnavailable
	}
	vector := indexmock.NewMockVectorIndex()
	text := indexmock.NewMockTextIndex()
	text.SearchFunc = func(context.Context, map[string]float64, int, int) ([]core.Fragment, error) {
		b := frag("b", "ep-2", "lexical only hit")
		b.LexicalScore = 0.5
		return []core.Fragment{b}, nil
	}

	s := newTestSearcher(t, embedder, vector, text)

	result, err := s.Search(context.Background(), "agent valuations", 10)
	require.NoError(t, err)
	assert.Equal(t, core.SearchMethodTextOnly, result.Method)
	assert.Equal(t, 0, vector.CallCount(), "vector index must not be queried without an embedding")
}

func TestSearch_BothPathsFailing(t *testing.T) {
	vector := indexmock.NewMockVectorIndex()
	vector.SearchFunc = func(context.Context, []float32, int, int, float64) ([]core.Fragment, error) {
		return nil, core.ErrUpstreamUnavailable
	}
	text := indexmock.NewMockTextIndex()
	text.SearchFunc = func(context.Context, map[string]float64, int, int) ([]core.Fragment, error) {
		return nil, errors.New("text index down")
	}

	s := newTestSearcher(t, aimock.NewMockEmbedder(), vector, text)

	_, err := s.Search(context.Background(), "agent valuations", 10)
	assert.ErrorIs(t, err, ErrAllPathsFailed)
}

func TestSearch_VectorResultCache(t *testing.T) {
	hits := []core.Fragment{func() core.Fragment {
		f := frag("a", "ep-1", "cached hit")
		f.VectorScore = 0.8
		return f
	}()}

	vector := indexmock.NewMockVectorIndex()
	vector.SearchFunc = func(context.Context, []float32, int, int, float64) ([]core.Fragment, error) {
		return hits, nil
	}

	s := newTestSearcher(t, aimock.NewMockEmbedder(), vector, indexmock.NewMockTextIndex())

	// Same normalized query twice: one underlying index query.
	_, err := s.Search(context.Background(), "Agent Valuations", 10)
	require.NoError(t, err)
	_, err = s.Search(context.Background(), "  agent valuations ", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, vector.CallCount(), "second search must be a cache hit")

	// A different limit changes the fingerprint.
	_, err = s.Search(context.Background(), "agent valuations", 5)
	require.NoError(t, err)
	assert.Equal(t, 2, vector.CallCount())

	embedStats, resultStats := s.CacheStats()
	assert.Equal(t, uint64(2), embedStats.Hits)
	assert.Equal(t, uint64(1), resultStats.Hits)
}

func TestSearch_VectorResultCacheTTLExpiry(t *testing.T) {
	config := DefaultConfig()
	config.ResultCacheTTL = 30 * time.Millisecond
	config.EmbedCacheTTL = 30 * time.Millisecond

	vector := indexmock.NewMockVectorIndex()
	vector.SearchFunc = func(context.Context, []float32, int, int, float64) ([]core.Fragment, error) {
		f := frag("a", "ep-1", "hit")
		f.VectorScore = 0.7
		return []core.Fragment{f}, nil
	}

	s := newTestSearcher(t, aimock.NewMockEmbedder(), vector, indexmock.NewMockTextIndex(), WithConfig(config))

	_, err := s.Search(context.Background(), "agent valuations", 10)
	require.NoError(t, err)
	_, err = s.Search(context.Background(), "agent valuations", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, vector.CallCount())

	time.Sleep(60 * time.Millisecond)

	_, err = s.Search(context.Background(), "agent valuations", 10)
	require.NoError(t, err)
	assert.Equal(t, 2, vector.CallCount(), "expired entry must trigger a fresh index query")
}

func TestSearch_DedupeCapsSources(t *testing.T) {
	text := indexmock.NewMockTextIndex()
	text.SearchFunc = func(context.Context, map[string]float64, int, int) ([]core.Fragment, error) {
		var out []core.Fragment
		for i := 0; i < 8; i++ {
			f := frag(string(rune('a'+i)), "ep-1", "same episode again")
			f.LexicalScore = 1.0
			out = append(out, f)
		}
		return out, nil
	}

	s := newTestSearcher(t, aimock.NewMockEmbedder(), indexmock.NewMockVectorIndex(), text)

	result, err := s.Search(context.Background(), "agent valuations", 10)
	require.NoError(t, err)
	assert.Len(t, result.Fragments, DefaultMaxPerSource)
}

func TestSearchWithMonitor_StagesObserved(t *testing.T) {
	text := indexmock.NewMockTextIndex()
	text.SearchFunc = func(context.Context, map[string]float64, int, int) ([]core.Fragment, error) {
		f := frag("b", "ep-2", "hit")
		f.LexicalScore = 1.0
		return []core.Fragment{f}, nil
	}

	s := newTestSearcher(t, aimock.NewMockEmbedder(), indexmock.NewMockVectorIndex(), text)

	monitor := &recordingMonitor{}
	result, err := s.SearchWithMonitor(context.Background(), "agent valuations", 10, monitor)
	require.NoError(t, err)

	assert.Equal(t, "agent valuations", monitor.query)
	assert.NotEmpty(t, monitor.terms)
	assert.True(t, monitor.embedded)
	assert.True(t, monitor.fused)
	assert.Equal(t, 1, monitor.pathCalls())
	assert.Equal(t, result, monitor.result)
}

// The per-path hooks fire from the two retrieval goroutines, so the recorder
// guards them with a mutex as the SearchMonitor contract requires.
type recordingMonitor struct {
	noopMonitor
	query    string
	terms    map[string]float64
	embedded bool
	fused    bool
	result   *core.FusedResult

	mu    sync.Mutex
	paths int
}

func (m *recordingMonitor) Start(query string)                           { m.query = query }
func (m *recordingMonitor) AfterTermExtraction(terms map[string]float64) { m.terms = terms }
func (m *recordingMonitor) AfterEmbedding(_ int, _ bool)                 { m.embedded = true }
func (m *recordingMonitor) AfterFusion(_ []core.Fragment)                { m.fused = true }
func (m *recordingMonitor) Finish(result *core.FusedResult)              { m.result = result }

func (m *recordingMonitor) AfterVectorSearch(fragments []core.Fragment, _ error) {
	m.recordPath(fragments)
}

func (m *recordingMonitor) AfterTextSearch(fragments []core.Fragment, _ error) {
	m.recordPath(fragments)
}

func (m *recordingMonitor) recordPath(fragments []core.Fragment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(fragments) > 0 {
		m.paths++
	}
}

func (m *recordingMonitor) pathCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paths
}
