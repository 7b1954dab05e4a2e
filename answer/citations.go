package answer

import (
	"regexp"
	"strconv"

	"github.com/poiesic/podsearch/core"
)

// Citation links a marker in the answer text back to the fragment it cites.
type Citation struct {
	// Index is the 1-based position of the fragment as it was numbered in
	// the prompt.
	Index int

	// FragmentId identifies the cited fragment.
	FragmentId string

	// SourceDocumentId identifies the episode the fragment came from.
	SourceDocumentId string

	// StartOffset is the fragment's start position in seconds, for
	// building timestamped links.
	StartOffset float64
}

var citationPattern = regexp.MustCompile(`\[(\d+)\]`)

// ParseCitations extracts citation markers like "[2]" from text and
// resolves them against fragments, where marker [n] refers to
// fragments[n-1]. Markers outside the fragment range are ignored, and
// repeated markers yield a single citation. Order follows first appearance
// in the text.
func ParseCitations(text string, fragments []core.Fragment) []Citation {
	matches := citationPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[int]bool, len(matches))
	var citations []Citation
	for _, match := range matches {
		n, err := strconv.Atoi(match[1])
		if err != nil || n < 1 || n > len(fragments) {
			continue
		}
		if seen[n] {
			continue
		}
		seen[n] = true

		fragment := fragments[n-1]
		citations = append(citations, Citation{
			Index:            n,
			FragmentId:       fragment.Id,
			SourceDocumentId: fragment.SourceDocumentId,
			StartOffset:      fragment.StartOffset,
		})
	}
	return citations
}
