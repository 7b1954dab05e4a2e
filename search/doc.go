// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package search provides hybrid semantic and lexical retrieval with score
// fusion.
//
// The Searcher type fans a query out to a vector (ANN) index and a lexical
// text index concurrently, then merges the candidate sets:
//   - Semantic search using query embeddings, with oversampling and a
//     fingerprint-keyed LRU+TTL result cache
//   - Lexical search using weighted unigram and bigram terms
//   - Domain-signal boosting for text quoting deal terms and financial
//     jargon, plus an exact-phrase boost
//
// Results are fused by FusionRanker (a pure, deterministic merge), capped
// per source document by Dedupe, and returned with diagnostics describing
// which retrieval paths contributed.
package search
