// Package mock provides a test double for the answer.Synthesizer interface.
package mock

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/poiesic/podsearch/answer"
	"github.com/poiesic/podsearch/core"
)

// MockSynthesizer is a test double for answer.Synthesizer.
type MockSynthesizer struct {
	// SynthesizeFunc is called by Synthesize if set. If nil, Synthesize
	// returns a canned answer citing the first fragment.
	SynthesizeFunc func(ctx context.Context, question string, fragments []core.Fragment) (*answer.Answer, error)

	callCount atomic.Int64
}

// NewMockSynthesizer creates a mock that returns a canned cited answer.
func NewMockSynthesizer() *MockSynthesizer {
	return &MockSynthesizer{}
}

// Synthesize records the call and delegates to SynthesizeFunc when set.
func (m *MockSynthesizer) Synthesize(ctx context.Context, question string, fragments []core.Fragment) (*answer.Answer, error) {
	m.callCount.Add(1)
	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, question, fragments)
	}

	text := fmt.Sprintf("Mock answer to %q [1]", question)
	return &answer.Answer{
		Text:      text,
		Citations: answer.ParseCitations(text, fragments),
	}, nil
}

// CallCount returns how many times Synthesize was called.
func (m *MockSynthesizer) CallCount() int {
	return int(m.callCount.Load())
}
