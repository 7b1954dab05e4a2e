package search

import (
	"regexp"
	"sort"

	"github.com/poiesic/podsearch/core"
)

// FusionConfig holds the scoring parameters for merging the two candidate
// sets. The defaults were chosen empirically against a podcast corpus;
// treat them as tuning knobs, not invariants.
type FusionConfig struct {
	// VectorWeight scales the semantic similarity contribution. Default 0.4.
	VectorWeight float64
	// LexicalWeight scales the term-match contribution. Default 0.4.
	LexicalWeight float64
	// DomainWeight scales the domain-signal contribution. Default 0.2.
	DomainWeight float64
	// PhraseBoost multiplies the fused score when the fragment contains an
	// exact multi-word query phrase. Default 1.2.
	PhraseBoost float64
	// DomainBoostStep is added per distinct domain pattern matched in the
	// fragment text, capped at 1.0. Default 0.2.
	DomainBoostStep float64
}

// DefaultFusionConfig returns the empirically chosen fusion parameters.
func DefaultFusionConfig() FusionConfig {
	return FusionConfig{
		VectorWeight:    0.4,
		LexicalWeight:   0.4,
		DomainWeight:    0.2,
		PhraseBoost:     1.2,
		DomainBoostStep: 0.2,
	}
}

// domainPatterns are the fixed domain-signal patterns. A fragment quoting
// concrete deal terms is a stronger answer to a business question than one
// merely near it in embedding space.
var domainPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$\s?\d+(?:\.\d+)?\s*(?:k|m|b|mm|bn|million|billion|trillion)?\b`),
	regexp.MustCompile(`(?i)\bseries\s+[a-f]\b`),
	regexp.MustCompile(`(?i)\b(?:pre-)?seed\s+round\b`),
	regexp.MustCompile(`(?i)\b(?:valuation|term\s+sheet|cap\s+table|burn\s+rate|run\s+rate|runway)\b`),
	regexp.MustCompile(`(?i)\b(?:arr|mrr)\b`),
	regexp.MustCompile(`(?i)\b(?:acquisition|acquired|ipo|dilution)\b`),
	regexp.MustCompile(`(?i)\bproduct[- ]market\s+fit\b`),
}

// FusionRanker merges vector and lexical candidate sets into one ranked
// list. Merge is a pure function of its inputs: no I/O, no side effects,
// and a deterministic ordering for identical inputs.
type FusionRanker struct {
	config FusionConfig
}

// NewFusionRanker creates a ranker. Zero-valued config fields fall back to
// the defaults.
func NewFusionRanker(config FusionConfig) *FusionRanker {
	defaults := DefaultFusionConfig()
	if config.VectorWeight == 0 {
		config.VectorWeight = defaults.VectorWeight
	}
	if config.LexicalWeight == 0 {
		config.LexicalWeight = defaults.LexicalWeight
	}
	if config.DomainWeight == 0 {
		config.DomainWeight = defaults.DomainWeight
	}
	if config.PhraseBoost == 0 {
		config.PhraseBoost = defaults.PhraseBoost
	}
	if config.DomainBoostStep == 0 {
		config.DomainBoostStep = defaults.DomainBoostStep
	}
	return &FusionRanker{config: config}
}

// Merge combines the two candidate sets keyed by fragment id, computes the
// composite score per fragment, sorts descending, and truncates to limit.
// Ties keep insertion order (vector hits before text-only hits), so the
// ordering does not depend on which search finished first.
func (r *FusionRanker) Merge(vectorHits, lexicalHits []core.Fragment, queryTerms map[string]float64, limit int) ([]core.Fragment, map[string]core.Origin) {
	merged := make(map[string]*core.Fragment, len(vectorHits)+len(lexicalHits))
	origins := make(map[string]core.Origin, len(vectorHits)+len(lexicalHits))
	order := make([]string, 0, len(vectorHits)+len(lexicalHits))

	for _, hit := range vectorHits {
		if _, exists := merged[hit.Id]; exists {
			continue
		}
		fragment := hit
		fragment.LexicalScore = 0
		merged[hit.Id] = &fragment
		origins[hit.Id] = core.OriginVector
		order = append(order, hit.Id)
	}

	for _, hit := range lexicalHits {
		if existing, exists := merged[hit.Id]; exists {
			existing.LexicalScore = hit.LexicalScore
			origins[hit.Id] |= core.OriginText
			continue
		}
		fragment := hit
		fragment.VectorScore = 0
		merged[hit.Id] = &fragment
		origins[hit.Id] = core.OriginText
		order = append(order, hit.Id)
	}

	queryPhrases := phrases(queryTerms)

	results := make([]core.Fragment, 0, len(order))
	for _, id := range order {
		fragment := merged[id]
		fragment.DomainBoost = r.domainBoost(fragment.Text)

		score := r.config.VectorWeight*fragment.VectorScore +
			r.config.LexicalWeight*fragment.LexicalScore +
			r.config.DomainWeight*fragment.DomainBoost
		if containsAnyPhrase(fragment.Text, queryPhrases) {
			score *= r.config.PhraseBoost
		}
		if score > 1.0 {
			score = 1.0
		}
		fragment.FusedScore = score
		results = append(results, *fragment)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].FusedScore > results[j].FusedScore
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, origins
}

// domainBoost scans fragment text for the fixed domain patterns, adding
// DomainBoostStep per distinct pattern matched, capped at 1.0.
func (r *FusionRanker) domainBoost(text string) float64 {
	var boost float64
	for _, pattern := range domainPatterns {
		if pattern.MatchString(text) {
			boost += r.config.DomainBoostStep
		}
	}
	if boost > 1.0 {
		boost = 1.0
	}
	return boost
}
