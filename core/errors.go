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


package core

import "errors"

// Error taxonomy shared across the engine
var (
	// ErrInvalidInput indicates a malformed or oversized query.
	// Never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmbeddingUnavailable indicates the embedding service failed after
	// the retry budget was exhausted.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrUpstreamUnavailable indicates a retrieval backend is down after
	// retries. Callers degrade to the surviving path rather than failing.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrUpstreamTimeout indicates a retryable upstream timeout.
	ErrUpstreamTimeout = errors.New("upstream timeout")

	// ErrInvalidMaxAttempts indicates a non-positive retry budget.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrEmptyFragmentId indicates a fragment with no id.
	ErrEmptyFragmentId = errors.New("fragment id cannot be empty")

	// ErrEmptyFragmentText indicates a fragment with no text.
	ErrEmptyFragmentText = errors.New("fragment text cannot be empty")

	// ErrInvalidOffsets indicates EndOffset precedes StartOffset.
	ErrInvalidOffsets = errors.New("fragment end offset precedes start offset")
)
