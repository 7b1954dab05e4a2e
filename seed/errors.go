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

package seed

import "errors"

var (
	// ErrWriterRequired is returned when a nil index writer is provided.
	ErrWriterRequired = errors.New("index writer is required")

	// ErrEmbedderRequired is returned when a nil embedder is provided.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrEmptySource is returned when the source name is empty.
	ErrEmptySource = errors.New("source name is required")

	// ErrMalformedRecord is returned when a JSONL line cannot be decoded.
	ErrMalformedRecord = errors.New("malformed fragment record")
)
