package search

import "github.com/poiesic/podsearch/core"

// DefaultMaxPerSource caps how many fragments one episode may contribute.
const DefaultMaxPerSource = 3

// Dedupe walks the already score-sorted fragments and keeps at most
// maxPerSource fragments per source document, preserving relative order.
// Without this, one episode's near-duplicate fragments would monopolize the
// synthesis context window.
func Dedupe(fragments []core.Fragment, maxPerSource int) []core.Fragment {
	if maxPerSource <= 0 {
		maxPerSource = DefaultMaxPerSource
	}

	counts := make(map[string]int)
	kept := make([]core.Fragment, 0, len(fragments))
	for _, fragment := range fragments {
		if counts[fragment.SourceDocumentId] >= maxPerSource {
			continue
		}
		counts[fragment.SourceDocumentId]++
		kept = append(kept, fragment)
	}
	return kept
}
