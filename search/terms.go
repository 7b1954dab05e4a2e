package search

import "strings"

// Term weights. Domain vocabulary outranks generic words so a query like
// "AI agent valuations" leans on "valuations" rather than "agent".
const (
	unigramWeight    = 1.0
	bigramWeight     = 1.5
	domainTermWeight = 2.0
)

// Stop words to filter out during term extraction
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "what": true, "how": true, "about": true,
}

// domainTerms is the lexicon of startup/finance vocabulary that gets the
// elevated weight. Multi-word entries match extracted bigrams.
var domainTerms = map[string]bool{
	"valuation": true, "valuations": true, "arr": true, "mrr": true,
	"revenue": true, "funding": true, "fundraise": true, "raise": true,
	"acquisition": true, "ipo": true, "exit": true, "dilution": true,
	"runway": true, "churn": true, "margin": true, "moat": true,
	"seed round": true, "series a": true, "series b": true, "series c": true,
	"burn rate": true, "run rate": true, "term sheet": true,
	"cap table": true, "market fit": true, "growth rate": true,
}

// tokenizeAndFilter splits text into words, lowercases, trims punctuation,
// and removes stop words
func tokenizeAndFilter(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))

		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// ExtractTerms derives weighted search terms from normalized query text:
// filtered unigrams plus adjacent-word bigrams, with domain vocabulary
// weighted above generic words. The result feeds both the lexical search
// and the fusion ranker's exact-phrase boost.
func ExtractTerms(query string) map[string]float64 {
	words := tokenizeAndFilter(query)
	terms := make(map[string]float64, len(words)*2)

	for _, word := range words {
		weight := unigramWeight
		if domainTerms[word] {
			weight = domainTermWeight
		}
		if terms[word] < weight {
			terms[word] = weight
		}
	}

	for i := 0; i+1 < len(words); i++ {
		bigram := words[i] + " " + words[i+1]
		weight := bigramWeight
		if domainTerms[bigram] {
			weight = domainTermWeight
		}
		if terms[bigram] < weight {
			terms[bigram] = weight
		}
	}

	return terms
}

// phrases returns the multi-word terms, lowercased, for exact-phrase
// boosting.
func phrases(terms map[string]float64) []string {
	var out []string
	for term := range terms {
		if strings.Contains(term, " ") {
			out = append(out, strings.ToLower(term))
		}
	}
	return out
}

// containsAnyPhrase checks whether document text contains at least one of
// the query phrases verbatim, ignoring case.
func containsAnyPhrase(document string, phrases []string) bool {
	if len(phrases) == 0 {
		return false
	}
	lowered := strings.ToLower(document)
	for _, phrase := range phrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}
