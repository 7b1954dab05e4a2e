// Package index defines the retrieval backends the search engine reads
// from: an approximate-nearest-neighbor vector index and a lexical text
// index over the same transcript corpus.
//
// The engine depends only on these interfaces. The production
// implementation lives in index/mongodb (Atlas Vector Search plus text
// search); index/mock provides test doubles.
package index
