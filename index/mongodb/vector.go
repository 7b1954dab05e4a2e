package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/poiesic/podsearch/core"
	"github.com/poiesic/podsearch/index"
	"github.com/poiesic/podsearch/pool"
)

// defaultVectorPath is the document field holding fragment embeddings.
const defaultVectorPath = "embedding"

// VectorIndex implements index.VectorIndex against an Atlas Vector Search
// index. Every query runs through the shared connection pool so concurrent
// requests cannot exceed the configured connection ceiling.
type VectorIndex struct {
	pool      *pool.Pool[*mongo.Collection]
	indexName string
	path      string
	logger    *slog.Logger
}

var _ index.VectorIndex = (*VectorIndex)(nil)

// NewVectorIndex creates a vector index client over the pooled collection.
// indexName identifies the Atlas Vector Search index to query.
func NewVectorIndex(p *pool.Pool[*mongo.Collection], indexName string) (*VectorIndex, error) {
	if p == nil {
		return nil, pool.ErrNilResource
	}
	if indexName == "" {
		return nil, errors.New("vector index name required")
	}
	return &VectorIndex{
		pool:      p,
		indexName: indexName,
		path:      defaultVectorPath,
		logger:    slog.Default().With("component", "mongodb-vector"),
	}, nil
}

// Search issues a $vectorSearch aggregation with the given oversampling
// parameter and trims to fragments scoring at least minScore. The native
// vectorSearchScore is carried into VectorScore unmodified.
func (v *VectorIndex) Search(ctx context.Context, vector []float32, limit, numCandidates int, minScore float64) ([]core.Fragment, error) {
	if len(vector) == 0 {
		return nil, index.ErrEmptyVector
	}
	if limit <= 0 {
		return nil, index.ErrInvalidLimit
	}
	if numCandidates < limit {
		numCandidates = limit
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: v.indexName},
			{Key: "path", Value: v.path},
			{Key: "queryVector", Value: vector},
			{Key: "numCandidates", Value: numCandidates},
			{Key: "limit", Value: limit},
		}}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
		bson.D{{Key: "$match", Value: bson.D{
			{Key: "score", Value: bson.D{{Key: "$gte", Value: minScore}}},
		}}},
		bson.D{{Key: "$unset", Value: v.path}},
	}

	docs, err := pool.Execute(ctx, v.pool, func(coll *mongo.Collection) ([]fragmentDoc, error) {
		cursor, err := coll.Aggregate(ctx, pipeline)
		if err != nil {
			return nil, err
		}
		defer cursor.Close(ctx)

		var docs []fragmentDoc
		if err := cursor.All(ctx, &docs); err != nil {
			return nil, err
		}
		return docs, nil
	}, 0)
	if err != nil {
		v.logger.Error("vector search failed", "err", err)
		return nil, classify(err)
	}

	fragments := make([]core.Fragment, 0, len(docs))
	for _, doc := range docs {
		fragment := doc.toFragment()
		fragment.VectorScore = doc.Score
		fragments = append(fragments, fragment)
	}

	v.logger.Debug("vector search complete", "hits", len(fragments), "numCandidates", numCandidates)
	return fragments, nil
}

// classify maps driver errors onto the engine's error taxonomy so callers
// can distinguish retryable timeouts from hard outages.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || mongo.IsTimeout(err) {
		return fmt.Errorf("%w: %w", core.ErrUpstreamTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %w", core.ErrUpstreamUnavailable, err)
}
