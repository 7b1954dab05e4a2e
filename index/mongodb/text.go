package mongodb

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/poiesic/podsearch/core"
	"github.com/poiesic/podsearch/index"
	"github.com/poiesic/podsearch/pool"
)

// TextIndex implements index.TextIndex over the corpus collection. It
// prefers the native $text index and falls back to a case-insensitive regex
// scan when the text index is missing or errors. Term text is escaped
// before pattern construction; query input is untrusted.
type TextIndex struct {
	pool   *pool.Pool[*mongo.Collection]
	logger *slog.Logger
}

var _ index.TextIndex = (*TextIndex)(nil)

// NewTextIndex creates a lexical search client over the pooled collection.
func NewTextIndex(p *pool.Pool[*mongo.Collection]) (*TextIndex, error) {
	if p == nil {
		return nil, pool.ErrNilResource
	}
	return &TextIndex{
		pool:   p,
		logger: slog.Default().With("component", "mongodb-text"),
	}, nil
}

// Search returns fragments matching any of the weighted terms, scored by
// matched-weight over total-weight and ordered descending.
func (t *TextIndex) Search(ctx context.Context, terms map[string]float64, limit, skip int) ([]core.Fragment, error) {
	if len(terms) == 0 {
		return nil, index.ErrNoTerms
	}
	if limit <= 0 {
		return nil, index.ErrInvalidLimit
	}
	if skip < 0 {
		skip = 0
	}

	docs, err := pool.Execute(ctx, t.pool, func(coll *mongo.Collection) ([]fragmentDoc, error) {
		docs, err := t.nativeSearch(ctx, coll, terms, limit, skip)
		if err == nil {
			return docs, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		t.logger.Warn("text index query failed, falling back to regex scan", "err", err)
		return t.regexSearch(ctx, coll, terms, limit, skip)
	}, 0)
	if err != nil {
		t.logger.Error("lexical search failed", "err", err)
		return nil, classify(err)
	}

	fragments := scoreByTermMatches(docs, terms)
	t.logger.Debug("lexical search complete", "hits", len(fragments), "terms", len(terms))
	return fragments, nil
}

// nativeSearch runs a $text query. Multi-word terms become quoted phrases
// so the index matches them exactly.
func (t *TextIndex) nativeSearch(ctx context.Context, coll *mongo.Collection, terms map[string]float64, limit, skip int) ([]fragmentDoc, error) {
	var expr strings.Builder
	for term := range terms {
		if expr.Len() > 0 {
			expr.WriteByte(' ')
		}
		cleaned := strings.ReplaceAll(term, `"`, "")
		if strings.Contains(cleaned, " ") {
			expr.WriteByte('"')
			expr.WriteString(cleaned)
			expr.WriteByte('"')
		} else {
			expr.WriteString(cleaned)
		}
	}

	opts := mongoopts.Find().
		SetProjection(bson.M{"embedding": 0}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))

	cursor, err := coll.Find(ctx, bson.M{"$text": bson.M{"$search": expr.String()}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []fragmentDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// regexSearch is the fallback path: an OR of escaped, case-insensitive
// patterns over the raw text field.
func (t *TextIndex) regexSearch(ctx context.Context, coll *mongo.Collection, terms map[string]float64, limit, skip int) ([]fragmentDoc, error) {
	patterns := make([]bson.M, 0, len(terms))
	for term := range terms {
		patterns = append(patterns, bson.M{"text": primitive.Regex{
			Pattern: regexp.QuoteMeta(term),
			Options: "i",
		}})
	}

	opts := mongoopts.Find().
		SetProjection(bson.M{"embedding": 0}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))

	cursor, err := coll.Find(ctx, bson.M{"$or": patterns}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []fragmentDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// scoreByTermMatches computes LexicalScore client-side so both the native
// and fallback paths score identically: matched term weight over total term
// weight, OR semantics across terms.
func scoreByTermMatches(docs []fragmentDoc, terms map[string]float64) []core.Fragment {
	var totalWeight float64
	for _, weight := range terms {
		totalWeight += weight
	}

	fragments := make([]core.Fragment, 0, len(docs))
	for _, doc := range docs {
		lowered := strings.ToLower(doc.Text)
		var matched float64
		for term, weight := range terms {
			if strings.Contains(lowered, strings.ToLower(term)) {
				matched += weight
			}
		}
		if matched == 0 {
			continue
		}
		fragment := doc.toFragment()
		if totalWeight > 0 {
			fragment.LexicalScore = matched / totalWeight
		}
		fragments = append(fragments, fragment)
	}

	sort.SliceStable(fragments, func(i, j int) bool {
		return fragments[i].LexicalScore > fragments[j].LexicalScore
	})
	return fragments
}
