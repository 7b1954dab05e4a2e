package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTerms(t *testing.T) {
	t.Run("unigrams and bigrams", func(t *testing.T) {
		terms := ExtractTerms("ai agent valuations")

		assert.Equal(t, unigramWeight, terms["ai"])
		assert.Equal(t, unigramWeight, terms["agent"])
		assert.Equal(t, bigramWeight, terms["ai agent"])
		assert.Equal(t, bigramWeight, terms["agent valuations"])
	})

	t.Run("domain terms outweigh generic words", func(t *testing.T) {
		terms := ExtractTerms("ai agent valuations")
		assert.Equal(t, domainTermWeight, terms["valuations"])
		assert.Greater(t, terms["valuations"], terms["agent"])
	})

	t.Run("domain bigrams", func(t *testing.T) {
		terms := ExtractTerms("what was the series b price")
		assert.Equal(t, domainTermWeight, terms["series b"])
	})

	t.Run("stop words removed", func(t *testing.T) {
		terms := ExtractTerms("what is the valuation of the company")
		_, hasThe := terms["the"]
		_, hasWhat := terms["what"]
		assert.False(t, hasThe)
		assert.False(t, hasWhat)
		assert.Equal(t, domainTermWeight, terms["valuation"])
	})

	t.Run("punctuation trimmed", func(t *testing.T) {
		terms := ExtractTerms(`"valuation?"`)
		assert.Equal(t, domainTermWeight, terms["valuation"])
	})

	t.Run("stop-word-only query yields no terms", func(t *testing.T) {
		assert.Empty(t, ExtractTerms("what is the"))
	})
}

func TestPhrases(t *testing.T) {
	terms := map[string]float64{
		"agent":            1.0,
		"agent valuations": 1.5,
		"series a":         2.0,
	}
	got := phrases(terms)
	assert.Len(t, got, 2)
	assert.Contains(t, got, "agent valuations")
	assert.Contains(t, got, "series a")
}

func TestContainsAnyPhrase(t *testing.T) {
	doc := "The Series A round closed at a record price"

	assert.True(t, containsAnyPhrase(doc, []string{"series a"}), "matching ignores case")
	assert.False(t, containsAnyPhrase(doc, []string{"series b"}))
	assert.False(t, containsAnyPhrase(doc, nil))
}
