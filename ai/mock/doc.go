// Package mock provides test double implementations of the ai interfaces.
//
// The mocks allow tests to run without an embedding service and enable
// controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	embedder := mock.NewMockEmbedder()
//	vector, err := embedder.EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return []float32{0.1, 0.2, 0.3}, nil
//	}
//
//	// Check call counts
//	count := embedder.CallCount()
//
// The default behavior returns deterministic vectors derived from the text
// hash, so repeated embeddings of the same text agree.
package mock
