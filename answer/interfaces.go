package answer

import (
	"context"

	"github.com/poiesic/podsearch/core"
)

// Answer is a synthesized response grounded in retrieved fragments.
type Answer struct {
	// Text is the model's response, with citation markers left in place.
	Text string

	// Citations lists the fragments the text cites, in first-appearance
	// order, each at most once.
	Citations []Citation
}

// Synthesizer generates an answer to a question from the fragments it is
// given. Implementations must treat the fragments as the only source of
// truth and must not perform retrieval of their own.
type Synthesizer interface {
	Synthesize(ctx context.Context, question string, fragments []core.Fragment) (*Answer, error)
}
