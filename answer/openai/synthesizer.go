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

package openai

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/poiesic/podsearch/ai"
	"github.com/poiesic/podsearch/answer"
	"github.com/poiesic/podsearch/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Synthesizer implements answer.Synthesizer using OpenAI-compatible chat APIs.
type Synthesizer struct {
	client llms.Model
	logger *slog.Logger
}

// newSynthesizer is an internal constructor that returns the concrete type.
func newSynthesizer(config *ai.Config) (*Synthesizer, error) {
	config.Normalize()
	if config.ChatHost == "" {
		return nil, errors.New("ai config: ChatHost is required for synthesis")
	}
	if config.ChatModel == "" {
		return nil, errors.New("ai config: ChatModel is required for synthesis")
	}

	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken("none"),
		openai.WithModel(config.ChatModel),
	)
	if err != nil {
		return nil, err
	}

	return &Synthesizer{
		client: client,
		logger: slog.Default().With("component", "openai-synthesizer"),
	}, nil
}

// NewSynthesizer creates a new answer synthesizer using the provided
// configuration.
//
// Returns answer.Synthesizer interface to enforce abstraction.
func NewSynthesizer(config *ai.Config) (answer.Synthesizer, error) {
	return newSynthesizer(config)
}

// Synthesize generates a cited answer from the fragments. Temperature is
// pinned to zero so the same fragments produce the same answer.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, fragments []core.Fragment) (*answer.Answer, error) {
	if len(fragments) == 0 {
		return nil, errors.New("no fragments to synthesize from")
	}

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(synthesisSystemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(buildUserPrompt(question, fragments)),
			},
		},
	}

	response, err := s.client.GenerateContent(ctx, content, llms.WithTemperature(0.0))
	if err != nil {
		s.logger.Error("failed to generate answer", "err", err)
		return nil, err
	}
	if len(response.Choices) < 1 {
		return nil, errors.New("no choices returned from model")
	}

	text := strings.TrimSpace(response.Choices[0].Content)
	result := &answer.Answer{
		Text:      text,
		Citations: answer.ParseCitations(text, fragments),
	}

	s.logger.Debug("synthesized answer",
		"fragments", len(fragments),
		"citations", len(result.Citations),
		"length", len(text))
	return result, nil
}
