package core

// Fragment is a single retrievable unit of transcript text. Fragments are
// created fresh per request by the retrieval clients; the engine never
// persists them.
type Fragment struct {
	Id               string
	SourceDocumentId string // groups fragments belonging to the same episode
	Text             string
	StartOffset      float64 // media time, seconds
	EndOffset        float64
	VectorScore      float64 // native similarity from the vector index
	LexicalScore     float64 // matched-weight ratio from the text index
	DomainBoost      float64
	FusedScore       float64 // derived; written only by the fusion ranker
	Metadata         map[string]string
}

// Origin records which retrieval path(s) produced a fragment.
type Origin uint8

const (
	// OriginVector marks a fragment returned by the vector index.
	OriginVector Origin = 1 << iota
	// OriginText marks a fragment returned by the text index.
	OriginText
)

// FromVector reports whether the vector path contributed.
func (o Origin) FromVector() bool { return o&OriginVector != 0 }

// FromText reports whether the text path contributed.
func (o Origin) FromText() bool { return o&OriginText != 0 }

// SearchMethod describes which retrieval paths contributed to a result.
type SearchMethod int

const (
	// SearchMethodNone means both paths came back empty. This is a valid
	// terminal state, not a failure.
	SearchMethodNone SearchMethod = iota
	// SearchMethodVectorOnly means only the semantic path contributed.
	SearchMethodVectorOnly
	// SearchMethodTextOnly means only the lexical path contributed.
	SearchMethodTextOnly
	// SearchMethodHybrid means both paths contributed.
	SearchMethodHybrid
)

// String returns a short diagnostic name for the method.
func (m SearchMethod) String() string {
	switch m {
	case SearchMethodVectorOnly:
		return "vector"
	case SearchMethodTextOnly:
		return "text"
	case SearchMethodHybrid:
		return "hybrid"
	default:
		return "none"
	}
}

// FusedResult is the ordered, deduplicated outcome of one hybrid search,
// plus diagnostics about which paths produced it.
type FusedResult struct {
	Fragments []Fragment
	Method    SearchMethod
	// Origins maps fragment id to the path(s) that returned it, for
	// caller-side fallback decisions.
	Origins map[string]Origin
}
