package search

import (
	"fmt"
	"testing"

	"github.com/poiesic/podsearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupe_CapsPerSource(t *testing.T) {
	var fragments []core.Fragment
	for i := 0; i < 6; i++ {
		fragments = append(fragments, frag(fmt.Sprintf("a-%d", i), "ep-1", "text"))
	}
	fragments = append(fragments, frag("b-0", "ep-2", "text"))

	kept := Dedupe(fragments, 2)

	counts := make(map[string]int)
	for _, f := range kept {
		counts[f.SourceDocumentId]++
	}
	for source, count := range counts {
		assert.LessOrEqual(t, count, 2, "source %s exceeds cap", source)
	}
	assert.Equal(t, 2, counts["ep-1"])
	assert.Equal(t, 1, counts["ep-2"])
}

func TestDedupe_PreservesOrder(t *testing.T) {
	fragments := []core.Fragment{
		frag("1", "ep-1", "text"),
		frag("2", "ep-2", "text"),
		frag("3", "ep-1", "text"),
		frag("4", "ep-1", "text"), // dropped: third from ep-1
		frag("5", "ep-3", "text"),
	}

	kept := Dedupe(fragments, 2)
	require.Len(t, kept, 4)

	ids := make([]string, len(kept))
	for i, f := range kept {
		ids[i] = f.Id
	}
	assert.Equal(t, []string{"1", "2", "3", "5"}, ids)
}

func TestDedupe_EmptyInput(t *testing.T) {
	assert.Empty(t, Dedupe(nil, 3))
}

func TestDedupe_NonPositiveCapUsesDefault(t *testing.T) {
	var fragments []core.Fragment
	for i := 0; i < 10; i++ {
		fragments = append(fragments, frag(fmt.Sprintf("f-%d", i), "ep-1", "text"))
	}
	kept := Dedupe(fragments, 0)
	assert.Len(t, kept, DefaultMaxPerSource)
}
