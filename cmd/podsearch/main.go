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

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	podsearch "github.com/poiesic/podsearch"
	"github.com/poiesic/podsearch/ai"
	"github.com/poiesic/podsearch/seed"
)

func main() {
	app := &cli.App{
		Name:  "podsearch",
		Usage: "Hybrid semantic and lexical search over podcast transcripts",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Search the transcript corpus",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: append(engineFlags(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: 10,
					},
					&cli.BoolFlag{
						Name:  "stats",
						Usage: "Print pool and cache statistics after the query",
					},
				),
			},
			{
				Name:      "ask",
				Usage:     "Ask a question and synthesize a cited answer",
				ArgsUsage: "<question>",
				Action:    askCommand,
				Flags: append(engineFlags(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of fragments to retrieve",
						Value: 10,
					},
					&cli.StringFlag{
						Name:  "chat-host",
						Usage: "Chat service host URL (defaults to embedding-host)",
					},
					&cli.StringFlag{
						Name:  "chat-model",
						Usage: "Chat model name for answer synthesis",
						Value: "llama3.1",
					},
					&cli.BoolFlag{
						Name:  "stats",
						Usage: "Print pool and cache statistics after the query",
					},
				),
			},
			{
				Name:      "seed",
				Usage:     "Load transcript fragments from a JSONL file into the corpus",
				ArgsUsage: "<fragments.jsonl>",
				Action:    seedCommand,
				Flags: append(engineFlags(),
					&cli.StringFlag{
						Name:  "checkpoint-db",
						Usage: "Path to BadgerDB checkpoint directory (omit to disable resume)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of fragments to embed per request",
						Value: 64,
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Number of concurrent embedding workers",
						Value: 4,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N fragments",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for embedding calls",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// engineFlags are shared by every command that connects to the corpus.
func engineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "mongo-uri",
			Aliases:  []string{"m"},
			Usage:    "MongoDB connection URI",
			EnvVars:  []string{"PODSEARCH_MONGO_URI"},
			Required: true,
		},
		&cli.StringFlag{
			Name:  "database",
			Usage: "MongoDB database name",
			Value: "podsearch",
		},
		&cli.StringFlag{
			Name:  "collection",
			Usage: "Corpus collection name",
			Value: "fragments",
		},
		&cli.StringFlag{
			Name:  "vector-index",
			Usage: "Atlas vector index name",
			Value: "fragment_embedding_index",
		},
		&cli.IntFlag{
			Name:  "max-connections",
			Usage: "Maximum concurrent index operations",
			Value: 10,
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.IntFlag{
			Name:  "embedding-dimensions",
			Usage: "Expected embedding dimensionality",
			Value: 768,
		},
	}
}

func buildAIConfig(c *cli.Context) *ai.Config {
	opts := []ai.ConfigOption{
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithEmbeddingDimensions(c.Int("embedding-dimensions")),
	}
	if c.IsSet("chat-host") || c.IsSet("chat-model") {
		chatHost := c.String("chat-host")
		if chatHost == "" {
			chatHost = c.String("embedding-host")
		}
		opts = append(opts,
			ai.WithChatHost(chatHost),
			ai.WithChatModel(c.String("chat-model")),
		)
	}
	return ai.NewConfig(opts...)
}

func openEngine(ctx context.Context, c *cli.Context, extra ...podsearch.EngineOption) (*podsearch.Engine, error) {
	aiConfig := buildAIConfig(c)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	opts := append([]podsearch.EngineOption{
		podsearch.WithAIConfig(aiConfig),
		podsearch.WithDatabase(c.String("database")),
		podsearch.WithCollection(c.String("collection")),
		podsearch.WithVectorIndexName(c.String("vector-index")),
		podsearch.WithMaxConnections(c.Int("max-connections")),
	}, extra...)

	engine, err := podsearch.NewEngine(ctx, c.String("mongo-uri"), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return engine, nil
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query is required")
	}

	ctx := context.Background()
	engine, err := openEngine(ctx, c)
	if err != nil {
		return err
	}
	defer engine.Close(ctx)

	result, err := engine.Search(ctx, query, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(result.Fragments) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d fragments (%s):\n\n", len(result.Fragments), result.Method)
	for i, fragment := range result.Fragments {
		fmt.Printf("%2d. [%.3f] %s @ %s\n    %s\n\n",
			i+1,
			fragment.FusedScore,
			fragment.SourceDocumentId,
			formatOffset(fragment.StartOffset),
			fragment.Text)
	}

	if c.Bool("stats") {
		printStats(engine)
	}
	return nil
}

func askCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("question is required")
	}

	ctx := context.Background()
	engine, err := openEngine(ctx, c, podsearch.WithSynthesis())
	if err != nil {
		return err
	}
	defer engine.Close(ctx)

	result, err := engine.Ask(ctx, question, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if len(result.Result.Fragments) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	if result.Answer != nil {
		fmt.Println(result.Answer.Text)
		if len(result.Answer.Citations) > 0 {
			fmt.Println("\nSources:")
			for _, citation := range result.Answer.Citations {
				fmt.Printf("  [%d] %s @ %s\n",
					citation.Index,
					citation.SourceDocumentId,
					formatOffset(citation.StartOffset))
			}
		}
	} else {
		fmt.Println("No answer synthesized; retrieved fragments:")
		for i, fragment := range result.Result.Fragments {
			fmt.Printf("  [%d] %s @ %s: %s\n",
				i+1,
				fragment.SourceDocumentId,
				formatOffset(fragment.StartOffset),
				fragment.Text)
		}
	}

	if c.Bool("stats") {
		printStats(engine)
	}
	return nil
}

func seedCommand(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("input file is required")
	}

	input, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer input.Close()

	ctx := context.Background()
	engine, err := openEngine(ctx, c)
	if err != nil {
		return err
	}
	defer engine.Close(ctx)

	seedOpts := []seed.Option{
		seed.WithBatchSize(c.Int("batch-size")),
		seed.WithPoolSize(c.Int("pool-size")),
		seed.WithRetry(c.Int("max-retries"), c.Duration("retry-delay")),
		seed.WithProgress(seed.NewProgressTracker(os.Stderr, 0, c.Int("report-interval"))),
	}

	if checkpointPath := c.String("checkpoint-db"); checkpointPath != "" {
		store, err := seed.OpenCheckpointStore(checkpointPath, false)
		if err != nil {
			return fmt.Errorf("failed to open checkpoint store: %w", err)
		}
		defer store.Close()
		seedOpts = append(seedOpts, seed.WithCheckpointStore(store))
	}

	pipeline, err := engine.NewSeedPipeline(seedOpts...)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	fmt.Fprintf(os.Stderr, "Input: %s\n", path)
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	stats, err := pipeline.Run(ctx, path, input)
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Seeded %d fragments in %d batches (%d skipped) in %s\n",
		stats.Processed, stats.Batches, stats.Skipped, stats.Elapsed.Round(time.Millisecond))
	return nil
}

func printStats(engine *podsearch.Engine) {
	stats := engine.Stats()
	fmt.Printf("\nPool: active=%d peak=%d max=%d acquired=%d errors=%d\n",
		stats.Pool.Active, stats.Pool.Peak, stats.Pool.MaxConnections,
		stats.Pool.TotalAcquired, stats.Pool.Errors)
	fmt.Printf("Embed cache: hits=%d misses=%d entries=%d ratio=%.2f\n",
		stats.EmbedCache.Hits, stats.EmbedCache.Misses,
		stats.EmbedCache.Entries, stats.EmbedCache.HitRatio)
	fmt.Printf("Result cache: hits=%d misses=%d entries=%d ratio=%.2f\n",
		stats.ResultCache.Hits, stats.ResultCache.Misses,
		stats.ResultCache.Entries, stats.ResultCache.HitRatio)
}

func formatOffset(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
