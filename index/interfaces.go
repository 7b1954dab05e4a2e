package index

import (
	"context"

	"github.com/poiesic/podsearch/core"
)

// VectorIndex issues approximate-nearest-neighbor queries against the
// semantic index. Implementations must be safe for concurrent use by
// independent request contexts.
type VectorIndex interface {
	// Search returns up to limit fragments whose native similarity is at
	// least minScore, ordered by similarity descending. numCandidates is the
	// oversampling parameter passed to the ANN index: searching more
	// candidates than requested improves recall before trimming.
	// Fragments carry the index's native score in VectorScore; no
	// renormalization is applied.
	Search(ctx context.Context, vector []float32, limit, numCandidates int, minScore float64) ([]core.Fragment, error)
}

// TextIndex issues lexical term and phrase queries against the corpus.
// Implementations must be safe for concurrent use by independent request
// contexts.
type TextIndex interface {
	// Search returns up to limit fragments matching ANY of the weighted
	// terms (OR semantics), starting at skip for pagination. Fragments carry
	// matched-weight / total-weight in LexicalScore, ordered descending.
	Search(ctx context.Context, terms map[string]float64, limit, skip int) ([]core.Fragment, error)
}

// Writer persists fragments with their embeddings into the corpus store.
// Used by the seeding pipeline; the search engine itself never writes.
type Writer interface {
	// UpsertFragments inserts or replaces fragments keyed by their id.
	// vectors[i] is the embedding for fragments[i].
	UpsertFragments(ctx context.Context, fragments []core.Fragment, vectors [][]float32) error
}
