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

// Package seed loads transcript fragments into the search indexes.
//
// The pipeline reads fragments from JSON Lines input, embeds them in
// batches on a worker pool, normalizes the vectors to unit length, and
// upserts them through an index.Writer. Progress is checkpointed to a
// local BadgerDB store keyed by source name, so an interrupted run resumes
// where it left off. Upserts are idempotent, so replaying a partial batch
// after a resume is harmless.
package seed
