package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/poiesic/podsearch/core"
)

// Connect establishes a MongoDB connection, verifies it with a ping, and
// returns the corpus collection plus a disconnect function.
func Connect(ctx context.Context, uri, database, collection string) (*mongo.Collection, func(context.Context) error, error) {
	if uri == "" {
		return nil, nil, fmt.Errorf("mongodb uri required")
	}
	if database == "" || collection == "" {
		return nil, nil, fmt.Errorf("mongodb database and collection required")
	}

	client, err := mongo.Connect(ctx, mongoopts.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	coll := client.Database(database).Collection(collection)
	return coll, client.Disconnect, nil
}

// fragmentDoc is the corpus document shape. The embedding field is excluded
// from read projections; scores arrive through $meta projections.
type fragmentDoc struct {
	Id        string            `bson:"_id"`
	EpisodeId string            `bson:"episode_id"`
	Text      string            `bson:"text"`
	Start     float64           `bson:"start"`
	End       float64           `bson:"end"`
	Metadata  map[string]string `bson:"metadata,omitempty"`
	Embedding []float32         `bson:"embedding,omitempty"`
	Score     float64           `bson:"score,omitempty"`
}

// toFragment converts a corpus document into the engine's fragment shape.
// Scores other than the one the query produced are left zero; the fusion
// ranker owns FusedScore.
func (d *fragmentDoc) toFragment() core.Fragment {
	return core.Fragment{
		Id:               d.Id,
		SourceDocumentId: d.EpisodeId,
		Text:             d.Text,
		StartOffset:      d.Start,
		EndOffset:        d.End,
		Metadata:         d.Metadata,
	}
}
