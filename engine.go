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

package podsearch

import (
	"context"
	"log/slog"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/poiesic/podsearch/ai"
	aiopenai "github.com/poiesic/podsearch/ai/openai"
	"github.com/poiesic/podsearch/answer"
	answeropenai "github.com/poiesic/podsearch/answer/openai"
	"github.com/poiesic/podsearch/cache"
	"github.com/poiesic/podsearch/core"
	"github.com/poiesic/podsearch/index/mongodb"
	"github.com/poiesic/podsearch/pool"
	"github.com/poiesic/podsearch/search"
	"github.com/poiesic/podsearch/seed"
)

const (
	defaultDatabase        = "podsearch"
	defaultCollection      = "fragments"
	defaultVectorIndexName = "fragment_embedding_index"
)

// Engine wires the full retrieval stack: the MongoDB connection pool, the
// vector and text indexes, the embedding client, the hybrid searcher, and
// optionally an answer synthesizer.
type Engine struct {
	disconnect  func(context.Context) error
	pool        *pool.Pool[*mongo.Collection]
	embedder    ai.Embedder
	writer      *mongodb.Writer
	searcher    *search.Searcher
	synthesizer answer.Synthesizer
	logger      *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig        *ai.Config
	searchConfig    *search.Config
	database        string
	collection      string
	vectorIndexName string
	maxConnections  int
	synthesis       bool
	synthesizer     answer.Synthesizer
}

// WithAIConfig sets the embedding and chat service configuration.
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithSearchConfig sets the retrieval parameters.
func WithSearchConfig(config *search.Config) EngineOption {
	return func(o *engineOptions) {
		if config != nil {
			o.searchConfig = config
		}
	}
}

// WithDatabase sets the MongoDB database name. Default is "podsearch".
func WithDatabase(name string) EngineOption {
	return func(o *engineOptions) {
		if name != "" {
			o.database = name
		}
	}
}

// WithCollection sets the corpus collection name. Default is "fragments".
func WithCollection(name string) EngineOption {
	return func(o *engineOptions) {
		if name != "" {
			o.collection = name
		}
	}
}

// WithVectorIndexName sets the Atlas vector index name.
// Default is "fragment_embedding_index".
func WithVectorIndexName(name string) EngineOption {
	return func(o *engineOptions) {
		if name != "" {
			o.vectorIndexName = name
		}
	}
}

// WithMaxConnections bounds concurrent index operations.
func WithMaxConnections(n int) EngineOption {
	return func(o *engineOptions) {
		o.maxConnections = n
	}
}

// WithSynthesis enables answer synthesis for Ask.
func WithSynthesis() EngineOption {
	return func(o *engineOptions) {
		o.synthesis = true
	}
}

// WithSynthesizer supplies a custom answer synthesizer and enables synthesis
// for Ask, bypassing the default chat-backed one.
func WithSynthesizer(s answer.Synthesizer) EngineOption {
	return func(o *engineOptions) {
		o.synthesizer = s
	}
}

// NewEngine connects to MongoDB and assembles the retrieval stack.
func NewEngine(ctx context.Context, mongoURI string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig:        ai.DefaultConfig(),
		database:        defaultDatabase,
		collection:      defaultCollection,
		vectorIndexName: defaultVectorIndexName,
		maxConnections:  pool.DefaultMaxConnections,
	}
	for _, opt := range opts {
		opt(options)
	}

	coll, disconnect, err := mongodb.Connect(ctx, mongoURI, options.database, options.collection)
	if err != nil {
		return nil, err
	}

	connPool, err := pool.New(coll, pool.WithMaxConnections[*mongo.Collection](options.maxConnections))
	if err != nil {
		_ = disconnect(ctx)
		return nil, err
	}

	vectorIndex, err := mongodb.NewVectorIndex(connPool, options.vectorIndexName)
	if err != nil {
		_ = disconnect(ctx)
		return nil, err
	}
	textIndex, err := mongodb.NewTextIndex(connPool)
	if err != nil {
		_ = disconnect(ctx)
		return nil, err
	}
	writer, err := mongodb.NewWriter(connPool)
	if err != nil {
		_ = disconnect(ctx)
		return nil, err
	}

	embedder, err := aiopenai.NewEmbedder(options.aiConfig)
	if err != nil {
		_ = disconnect(ctx)
		return nil, err
	}

	var searchOpts []search.Option
	if options.searchConfig != nil {
		searchOpts = append(searchOpts, search.WithConfig(options.searchConfig))
	}
	searcher, err := search.NewSearcher(embedder, vectorIndex, textIndex, searchOpts...)
	if err != nil {
		_ = disconnect(ctx)
		return nil, err
	}

	synthesizer := options.synthesizer
	if synthesizer == nil && options.synthesis {
		synthesizer, err = answeropenai.NewSynthesizer(options.aiConfig)
		if err != nil {
			_ = disconnect(ctx)
			return nil, err
		}
	}

	return &Engine{
		disconnect:  disconnect,
		pool:        connPool,
		embedder:    embedder,
		writer:      writer,
		searcher:    searcher,
		synthesizer: synthesizer,
		logger:      slog.Default().With("component", "engine"),
	}, nil
}

// Search runs a hybrid search for the query.
func (e *Engine) Search(ctx context.Context, query string, limit int) (*core.FusedResult, error) {
	return e.searcher.Search(ctx, query, limit)
}

// AskResult bundles retrieval output with an optional synthesized answer.
type AskResult struct {
	Result *core.FusedResult

	// Answer is nil when synthesis is disabled, no fragments were found,
	// or synthesis failed. Retrieval results are returned regardless.
	Answer *answer.Answer
}

// Ask runs a hybrid search and, when synthesis is enabled, generates a
// cited answer from the retrieved fragments. A synthesis failure is logged
// and swallowed so callers still get the fragments.
func (e *Engine) Ask(ctx context.Context, question string, limit int) (*AskResult, error) {
	result, err := e.searcher.Search(ctx, question, limit)
	if err != nil {
		return nil, err
	}

	ask := &AskResult{Result: result}
	if e.synthesizer == nil || len(result.Fragments) == 0 {
		return ask, nil
	}

	synthesized, err := e.synthesizer.Synthesize(ctx, question, result.Fragments)
	if err != nil {
		e.logger.Warn("answer synthesis failed, returning fragments only", "err", err)
		return ask, nil
	}
	ask.Answer = synthesized
	return ask, nil
}

// NewSeedPipeline creates a seeding pipeline that loads fragments through
// the engine's writer and embedder.
func (e *Engine) NewSeedPipeline(opts ...seed.Option) (*seed.Pipeline, error) {
	return seed.NewPipeline(e.writer, e.embedder, opts...)
}

// Searcher exposes the underlying hybrid searcher.
func (e *Engine) Searcher() *search.Searcher {
	return e.searcher
}

// EngineStats aggregates health counters across the stack.
type EngineStats struct {
	Pool        pool.Stats
	EmbedCache  cache.Stats
	ResultCache cache.Stats
}

// Stats returns a snapshot of pool and cache counters.
func (e *Engine) Stats() EngineStats {
	embed, result := e.searcher.CacheStats()
	return EngineStats{
		Pool:        e.pool.Stats(),
		EmbedCache:  embed,
		ResultCache: result,
	}
}

// Close disconnects from MongoDB.
// The engine should not be used after calling Close.
func (e *Engine) Close(ctx context.Context) error {
	if err := e.disconnect(ctx); err != nil {
		e.logger.Error("error disconnecting from mongodb", "err", err)
		return err
	}
	return nil
}
