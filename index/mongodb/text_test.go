package mongodb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreByTermMatches(t *testing.T) {
	docs := []fragmentDoc{
		{Id: "a", EpisodeId: "ep-1", Text: "Seed round valuations doubled this year"},
		{Id: "b", EpisodeId: "ep-2", Text: "The hosts talked about seed stage companies"},
		{Id: "c", EpisodeId: "ep-3", Text: "Completely unrelated banter"},
	}
	terms := map[string]float64{
		"seed":       1.0,
		"valuations": 2.0,
	}

	fragments := scoreByTermMatches(docs, terms)

	// Doc c matches nothing and is dropped.
	require.Len(t, fragments, 2)

	// Doc a matches both terms (3/3), doc b only "seed" (1/3).
	assert.Equal(t, "a", fragments[0].Id)
	assert.InDelta(t, 1.0, fragments[0].LexicalScore, 1e-9)
	assert.Equal(t, "b", fragments[1].Id)
	assert.InDelta(t, 1.0/3.0, fragments[1].LexicalScore, 1e-9)
}

func TestScoreByTermMatches_CaseInsensitive(t *testing.T) {
	docs := []fragmentDoc{
		{Id: "a", EpisodeId: "ep-1", Text: "Series B rounds got bigger"},
	}
	terms := map[string]float64{"series b": 1.0}

	fragments := scoreByTermMatches(docs, terms)
	require.Len(t, fragments, 1)
	assert.InDelta(t, 1.0, fragments[0].LexicalScore, 1e-9)
}

func TestScoreByTermMatches_Empty(t *testing.T) {
	assert.Empty(t, scoreByTermMatches(nil, map[string]float64{"x": 1}))
}

func TestFragmentDocConversion(t *testing.T) {
	doc := fragmentDoc{
		Id:        "f1",
		EpisodeId: "ep-1",
		Text:      "hello",
		Start:     12.5,
		End:       19.25,
		Metadata:  map[string]string{"speaker": "host"},
		Score:     0.87,
	}

	fragment := doc.toFragment()
	assert.Equal(t, "f1", fragment.Id)
	assert.Equal(t, "ep-1", fragment.SourceDocumentId)
	assert.Equal(t, 12.5, fragment.StartOffset)
	assert.Equal(t, 19.25, fragment.EndOffset)
	assert.Equal(t, "host", fragment.Metadata["speaker"])

	// Scores are owned by the query paths and the fusion ranker.
	assert.Zero(t, fragment.VectorScore)
	assert.Zero(t, fragment.FusedScore)
}
