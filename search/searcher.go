package search

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/poiesic/podsearch/ai"
	"github.com/poiesic/podsearch/cache"
	"github.com/poiesic/podsearch/core"
	"github.com/poiesic/podsearch/index"
)

// Default retrieval parameters.
const (
	DefaultLimit             = 10
	DefaultMinScore          = 0.6
	DefaultOversampleFactor  = 50
	DefaultOversampleCeiling = 10000
	defaultCandidateFactor   = 2
)

// Config holds the retrieval parameters for a Searcher.
type Config struct {
	// MinScore is the minimum native similarity for vector hits. Default 0.6.
	MinScore float64
	// OversampleFactor multiplies the requested limit into the ANN
	// numCandidates parameter. Default 50.
	OversampleFactor int
	// OversampleCeiling is the hard cap on numCandidates. Default 10000.
	OversampleCeiling int
	// MaxPerSource caps fragments kept per episode after fusion. Default 3.
	MaxPerSource int
	// CandidateFactor multiplies the limit for the lexical candidate pool
	// fetched before fusion. Default 2.
	CandidateFactor int
	// Fusion holds the score-fusion parameters.
	Fusion FusionConfig
	// ResultCacheSize / ResultCacheTTL size the vector-result cache.
	ResultCacheSize int
	ResultCacheTTL  time.Duration
	// EmbedCacheSize / EmbedCacheTTL size the query-embedding cache.
	EmbedCacheSize int
	EmbedCacheTTL  time.Duration
}

// DefaultConfig returns the default retrieval parameters.
func DefaultConfig() *Config {
	return &Config{
		MinScore:          DefaultMinScore,
		OversampleFactor:  DefaultOversampleFactor,
		OversampleCeiling: DefaultOversampleCeiling,
		MaxPerSource:      DefaultMaxPerSource,
		CandidateFactor:   defaultCandidateFactor,
		Fusion:            DefaultFusionConfig(),
		ResultCacheSize:   cache.DefaultCapacity,
		ResultCacheTTL:    cache.DefaultTTL,
		EmbedCacheSize:    cache.DefaultCapacity,
		EmbedCacheTTL:     cache.DefaultTTL,
	}
}

// Searcher runs hybrid semantic plus lexical retrieval over the transcript
// corpus. The two searches fan out concurrently; a failure on one path
// degrades to the other instead of failing the query. Safe for concurrent
// use; the caches are the only shared mutable state and are
// concurrency-safe.
type Searcher struct {
	embedder    ai.Embedder
	vectorIndex index.VectorIndex
	textIndex   index.TextIndex
	ranker      *FusionRanker
	config      *Config
	embedCache  *cache.Cache[core.Fingerprint, []float32]
	resultCache *cache.Cache[core.Fingerprint, []core.Fragment]
	logger      *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithConfig overrides the retrieval parameters.
func WithConfig(config *Config) Option {
	return func(s *Searcher) error {
		if config == nil {
			config = DefaultConfig()
		}
		s.config = config
		return nil
	}
}

// NewSearcher creates a new hybrid searcher.
func NewSearcher(
	embedder ai.Embedder,
	vectorIndex index.VectorIndex,
	textIndex index.TextIndex,
	opts ...Option,
) (*Searcher, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if vectorIndex == nil {
		return nil, ErrVectorIndexRequired
	}
	if textIndex == nil {
		return nil, ErrTextIndexRequired
	}

	s := &Searcher{
		embedder:    embedder,
		vectorIndex: vectorIndex,
		textIndex:   textIndex,
		config:      DefaultConfig(),
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	s.ranker = NewFusionRanker(s.config.Fusion)
	s.embedCache = cache.New[core.Fingerprint, []float32](s.config.EmbedCacheSize, s.config.EmbedCacheTTL)
	s.resultCache = cache.New[core.Fingerprint, []core.Fragment](s.config.ResultCacheSize, s.config.ResultCacheTTL)

	return s, nil
}

// Search runs a hybrid search for the query, returning up to limit
// deduplicated fragments ranked by fused score.
func (s *Searcher) Search(ctx context.Context, query string, limit int) (*core.FusedResult, error) {
	return s.SearchWithMonitor(ctx, query, limit, nil)
}

// SearchWithMonitor runs a hybrid search with per-stage monitoring.
//
// The query lifecycle is linear: validate, extract terms, embed, fan out to
// both indexes in parallel, fuse, dedupe. An embedding failure skips the
// vector path and continues text-only. A failure on one retrieval path
// degrades to the surviving path. Both paths empty is a valid terminal
// state (SearchMethodNone), not an error; only both paths hard-failing
// surfaces an error.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, limit int, monitor SearchMonitor) (*core.FusedResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	if err := core.ValidateQuery(query); err != nil {
		return nil, err
	}
	normalized := core.NormalizeQuery(query)
	monitor.Start(normalized)

	terms := ExtractTerms(normalized)
	monitor.AfterTermExtraction(terms)

	vector, embedErr := s.embedQuery(ctx, normalized, monitor)
	if embedErr != nil {
		if ctx.Err() != nil {
			return nil, embedErr
		}
		s.logger.Warn("embedding unavailable, continuing text-only", "err", embedErr)
	}

	var (
		wg         sync.WaitGroup
		vectorHits []core.Fragment
		textHits   []core.Fragment
		vectorErr  error
		textErr    error
	)

	if embedErr == nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vectorHits, vectorErr = s.vectorSearch(ctx, vector, limit)
			monitor.AfterVectorSearch(vectorHits, vectorErr)
		}()
	}
	if len(terms) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			textHits, textErr = s.textIndex.Search(ctx, terms, limit*s.config.CandidateFactor, 0)
			monitor.AfterTextSearch(textHits, textErr)
		}()
	}
	wg.Wait()

	if vectorErr != nil {
		s.logger.Warn("vector search failed, degrading to lexical results", "err", vectorErr)
		vectorHits = nil
	}
	if textErr != nil {
		s.logger.Warn("lexical search failed, degrading to vector results", "err", textErr)
		textHits = nil
	}

	vectorDead := embedErr != nil || vectorErr != nil
	textDead := textErr != nil
	if vectorDead && textDead {
		return nil, fmt.Errorf("%w: embedding=%v vector=%v text=%v", ErrAllPathsFailed, embedErr, vectorErr, textErr)
	}

	fused, origins := s.ranker.Merge(vectorHits, textHits, terms, limit)
	monitor.AfterFusion(fused)

	deduped := Dedupe(fused, s.config.MaxPerSource)
	monitor.AfterDedupe(deduped)

	result := &core.FusedResult{
		Fragments: deduped,
		Method:    method(len(vectorHits) > 0, len(textHits) > 0),
		Origins:   origins,
	}
	monitor.Finish(result)

	s.logger.Debug("search complete",
		"query", normalized,
		"method", result.Method.String(),
		"vectorHits", len(vectorHits),
		"textHits", len(textHits),
		"returned", len(result.Fragments))
	return result, nil
}

// embedQuery returns the embedding for normalized query text, consulting
// the fingerprint-keyed cache first. The embedded string is exactly the
// fingerprinted string.
func (s *Searcher) embedQuery(ctx context.Context, normalized string, monitor SearchMonitor) ([]float32, error) {
	fingerprint := core.QueryFingerprint(normalized)
	if vector, ok := s.embedCache.Get(fingerprint); ok {
		monitor.AfterEmbedding(len(vector), true)
		return vector, nil
	}

	vector, err := s.embedder.EmbedText(ctx, normalized)
	if err != nil {
		monitor.EmbeddingFailed(err)
		return nil, err
	}
	s.embedCache.Add(fingerprint, vector)
	monitor.AfterEmbedding(len(vector), false)
	return vector, nil
}

// vectorSearch queries the ANN index with oversampling, consulting the
// result cache first. The cache key is a fingerprint of the leading vector
// components plus the search parameters, so fingerprint-equal requests
// within the TTL issue exactly one index query.
func (s *Searcher) vectorSearch(ctx context.Context, vector []float32, limit int) ([]core.Fragment, error) {
	fingerprint := core.VectorFingerprint(vector, limit, s.config.MinScore)
	if hits, ok := s.resultCache.Get(fingerprint); ok {
		return hits, nil
	}

	numCandidates := limit * s.config.OversampleFactor
	if numCandidates > s.config.OversampleCeiling {
		numCandidates = s.config.OversampleCeiling
	}

	hits, err := s.vectorIndex.Search(ctx, vector, limit, numCandidates, s.config.MinScore)
	if err != nil {
		return nil, err
	}
	s.resultCache.Add(fingerprint, hits)
	return hits, nil
}

// CacheStats reports the embedding and vector-result cache snapshots for
// health reporting.
func (s *Searcher) CacheStats() (embed, result cache.Stats) {
	return s.embedCache.Stats(), s.resultCache.Stats()
}

// method derives the diagnostic search method from which paths contributed.
func method(vectorContributed, textContributed bool) core.SearchMethod {
	switch {
	case vectorContributed && textContributed:
		return core.SearchMethodHybrid
	case vectorContributed:
		return core.SearchMethodVectorOnly
	case textContributed:
		return core.SearchMethodTextOnly
	default:
		return core.SearchMethodNone
	}
}
