package mongodb

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/poiesic/podsearch/core"
	"github.com/poiesic/podsearch/index"
	"github.com/poiesic/podsearch/pool"
)

// upsertRetries is the retry budget for corpus writes. Seeding is a batch
// job, so a couple of retries on transient failures is cheap.
const upsertRetries = 2

// Writer implements index.Writer for the corpus collection. Only the
// seeding pipeline uses it; the search engine never writes.
type Writer struct {
	pool   *pool.Pool[*mongo.Collection]
	logger *slog.Logger
}

var _ index.Writer = (*Writer)(nil)

// NewWriter creates a corpus writer over the pooled collection.
func NewWriter(p *pool.Pool[*mongo.Collection]) (*Writer, error) {
	if p == nil {
		return nil, pool.ErrNilResource
	}
	return &Writer{
		pool:   p,
		logger: slog.Default().With("component", "mongodb-writer"),
	}, nil
}

// UpsertFragments bulk-replaces fragments keyed by id, attaching the
// provided embedding vectors.
func (w *Writer) UpsertFragments(ctx context.Context, fragments []core.Fragment, vectors [][]float32) error {
	if len(fragments) == 0 {
		return nil
	}
	if len(vectors) != len(fragments) {
		return fmt.Errorf("vector count mismatch: %d fragments, %d vectors", len(fragments), len(vectors))
	}

	models := make([]mongo.WriteModel, 0, len(fragments))
	for i, fragment := range fragments {
		if err := fragment.Validate(); err != nil {
			return fmt.Errorf("fragment %q: %w", fragment.Id, err)
		}
		doc := fragmentDoc{
			Id:        fragment.Id,
			EpisodeId: fragment.SourceDocumentId,
			Text:      fragment.Text,
			Start:     fragment.StartOffset,
			End:       fragment.EndOffset,
			Metadata:  fragment.Metadata,
			Embedding: vectors[i],
		}
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": fragment.Id}).
			SetReplacement(doc).
			SetUpsert(true))
	}

	_, err := pool.Execute(ctx, w.pool, func(coll *mongo.Collection) (struct{}, error) {
		_, err := coll.BulkWrite(ctx, models, mongoopts.BulkWrite().SetOrdered(false))
		return struct{}{}, err
	}, upsertRetries)
	if err != nil {
		w.logger.Error("fragment upsert failed", "count", len(fragments), "err", err)
		return classify(err)
	}

	w.logger.Debug("fragments upserted", "count", len(fragments))
	return nil
}
