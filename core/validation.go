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

import (
	"fmt"
	"strings"
)

// MaxQueryLength is the maximum accepted query length in bytes after
// normalization. Longer input is rejected with ErrInvalidInput.
const MaxQueryLength = 1000

// MaxFragmentLength is the maximum accepted fragment text length in bytes.
// Transcript fragments are documents, not queries, and are not held to the
// query cap. The limit matches the seed reader's line buffer.
const MaxFragmentLength = 1024 * 1024

// ValidateQuery checks that normalized query text is non-empty and within
// the accepted length.
func ValidateQuery(text string) error {
	normalized := NormalizeQuery(text)
	if normalized == "" {
		return fmt.Errorf("%w: empty query", ErrInvalidInput)
	}
	if len(normalized) > MaxQueryLength {
		return fmt.Errorf("%w: query exceeds %d bytes", ErrInvalidInput, MaxQueryLength)
	}
	return nil
}

// ValidateDocument checks that fragment text is non-empty and within the
// accepted length. Casing is preserved; documents are embedded as written.
func ValidateDocument(text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return fmt.Errorf("%w: empty document", ErrInvalidInput)
	}
	if len(trimmed) > MaxFragmentLength {
		return fmt.Errorf("%w: document exceeds %d bytes", ErrInvalidInput, MaxFragmentLength)
	}
	return nil
}

// Validate checks structural invariants of a fragment.
func (f *Fragment) Validate() error {
	if f.Id == "" {
		return ErrEmptyFragmentId
	}
	if f.Text == "" {
		return ErrEmptyFragmentText
	}
	if f.EndOffset < f.StartOffset {
		return ErrInvalidOffsets
	}
	return nil
}
