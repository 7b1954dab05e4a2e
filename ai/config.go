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


package ai

import (
	"errors"
	"strings"
	"time"
)

// Config holds configuration for the embedding service client.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "embeddinggemma", "text-embedding-3-small"
	EmbeddingModel string

	// EmbeddingDimensions is the expected vector dimensionality. Responses
	// with a different dimensionality are treated as failures.
	// Default: 768
	EmbeddingDimensions int

	// ChatHost is the base URL for the chat completion service used for
	// answer synthesis. Usually the same server as EmbeddingHost.
	ChatHost string

	// ChatModel is the model identifier for answer synthesis.
	// Example: "llama3.1", "gpt-4o-mini"
	ChatModel string

	// MaxRetries is the retry budget for transient embedding failures.
	// Default: 3
	MaxRetries int

	// RetryDelay is the base delay between retries.
	// Default: 500ms
	RetryDelay time.Duration
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithEmbeddingDimensions sets the expected vector dimensionality.
func WithEmbeddingDimensions(dims int) ConfigOption {
	return func(c *Config) {
		c.EmbeddingDimensions = dims
	}
}

// WithChatHost sets the chat completion service host URL.
func WithChatHost(host string) ConfigOption {
	return func(c *Config) {
		c.ChatHost = host
	}
}

// WithChatModel sets the chat model identifier.
func WithChatModel(model string) ConfigOption {
	return func(c *Config) {
		c.ChatModel = model
	}
}

// WithMaxRetries sets the retry budget for transient failures.
func WithMaxRetries(n int) ConfigOption {
	return func(c *Config) {
		c.MaxRetries = n
	}
}

// WithRetryDelay sets the base retry delay.
func WithRetryDelay(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.RetryDelay = d
	}
}

// DefaultConfig returns a Config with sensible defaults for local
// OpenAI-compatible services.
func DefaultConfig() *Config {
	return &Config{
		EmbeddingHost:       "http://localhost:11434/v1",
		EmbeddingModel:      "embeddinggemma",
		EmbeddingDimensions: 768,
		ChatHost:            "http://localhost:11434/v1",
		ChatModel:           "llama3.1",
		MaxRetries:          3,
		RetryDelay:          500 * time.Millisecond,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := ai.NewConfig(
//	    ai.WithEmbeddingHost("http://localhost:11434"),
//	    ai.WithEmbeddingModel("text-embedding-3-small"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It automatically adds the /v1 suffix to the host if missing, which is
// required by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	c.EmbeddingHost = normalizeHost(c.EmbeddingHost)
	c.ChatHost = normalizeHost(c.ChatHost)
}

func normalizeHost(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.EmbeddingDimensions <= 0 {
		return errors.New("ai config: EmbeddingDimensions must be positive")
	}
	if c.MaxRetries <= 0 {
		return errors.New("ai config: MaxRetries must be positive")
	}
	if c.RetryDelay <= 0 {
		return errors.New("ai config: RetryDelay must be positive")
	}
	return nil
}
