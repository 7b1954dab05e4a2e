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

package podsearch

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aimock "github.com/poiesic/podsearch/ai/mock"
	"github.com/poiesic/podsearch/answer"
	answermock "github.com/poiesic/podsearch/answer/mock"
	"github.com/poiesic/podsearch/core"
	indexmock "github.com/poiesic/podsearch/index/mock"
	"github.com/poiesic/podsearch/search"
)

func newTestEngine(t *testing.T, synth answer.Synthesizer, text *indexmock.MockTextIndex) *Engine {
	t.Helper()
	searcher, err := search.NewSearcher(aimock.NewMockEmbedder(), indexmock.NewMockVectorIndex(), text)
	require.NoError(t, err)
	return &Engine{
		searcher:    searcher,
		synthesizer: synth,
		logger:      slog.Default().With("component", "engine"),
	}
}

func hitTextIndex() *indexmock.MockTextIndex {
	text := indexmock.NewMockTextIndex()
	text.SearchFunc = func(context.Context, map[string]float64, int, int) ([]core.Fragment, error) {
		return []core.Fragment{{
			Id:               "f1",
			SourceDocumentId: "ep-1",
			Text:             "the round valued the company at $2 billion",
			StartOffset:      12,
			EndOffset:        30,
			LexicalScore:     1.0,
		}}, nil
	}
	return text
}

func TestAsk_SynthesisFailureReturnsFragments(t *testing.T) {
	synth := answermock.NewMockSynthesizer()
	synth.SynthesizeFunc = func(context.Context, string, []core.Fragment) (*answer.Answer, error) {
		return nil, errors.New("chat service down")
	}
	e := newTestEngine(t, synth, hitTextIndex())

	result, err := e.Ask(context.Background(), "agent valuations", 10)
	require.NoError(t, err)
	require.NotNil(t, result.Result)
	assert.Len(t, result.Result.Fragments, 1)
	assert.Nil(t, result.Answer)
	assert.Equal(t, 1, synth.CallCount())
}

func TestAsk_SynthesizesCitedAnswer(t *testing.T) {
	synth := answermock.NewMockSynthesizer()
	e := newTestEngine(t, synth, hitTextIndex())

	result, err := e.Ask(context.Background(), "agent valuations", 10)
	require.NoError(t, err)
	require.NotNil(t, result.Answer)
	assert.Contains(t, result.Answer.Text, "[1]")
	require.Len(t, result.Answer.Citations, 1)
	assert.Equal(t, "f1", result.Answer.Citations[0].FragmentId)
}

func TestAsk_NoFragmentsSkipsSynthesis(t *testing.T) {
	synth := answermock.NewMockSynthesizer()
	e := newTestEngine(t, synth, indexmock.NewMockTextIndex())

	result, err := e.Ask(context.Background(), "agent valuations", 10)
	require.NoError(t, err)
	assert.Equal(t, core.SearchMethodNone, result.Result.Method)
	assert.Nil(t, result.Answer)
	assert.Equal(t, 0, synth.CallCount())
}

func TestAsk_SynthesisDisabled(t *testing.T) {
	e := newTestEngine(t, nil, hitTextIndex())

	result, err := e.Ask(context.Background(), "agent valuations", 10)
	require.NoError(t, err)
	assert.Len(t, result.Result.Fragments, 1)
	assert.Nil(t, result.Answer)
}

func TestAsk_InvalidQuery(t *testing.T) {
	e := newTestEngine(t, nil, indexmock.NewMockTextIndex())

	_, err := e.Ask(context.Background(), "   ", 10)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}
