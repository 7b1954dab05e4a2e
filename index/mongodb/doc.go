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


// Package mongodb implements the index interfaces against MongoDB Atlas.
//
// The vector path issues $vectorSearch aggregations against a configured
// Atlas Vector Search index, passing the caller's numCandidates
// oversampling parameter through to the ANN engine. The lexical path
// prefers the native $text index and degrades to an escaped,
// case-insensitive regex scan when no text index is available.
//
// All reads and writes run through a shared pool.Pool so request
// concurrency cannot exceed the downstream connection ceiling.
package mongodb
