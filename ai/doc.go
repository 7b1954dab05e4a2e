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


// Package ai provides abstractions for the embedding services used by podsearch.
//
// The core engine depends on the Embedder interface rather than a concrete
// client, keeping retrieval logic testable without a live embedding service.
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// Public constructors (openai.NewEmbedder) return the ai.Embedder INTERFACE
// to enforce abstraction. Test utility constructors (mock.NewMockEmbedder)
// return CONCRETE types to enable behavior injection and call-count
// assertions.
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithEmbeddingModel("text-embedding-3-small"))
//	embedder, err := openai.NewEmbedder(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	vector, err := embedder.EmbedText(ctx, "ai agent valuations")
package ai
