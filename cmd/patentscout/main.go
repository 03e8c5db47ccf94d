// Copyright 2025 Easy Patent Authors
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

	"github.com/easypatent/patentscout/ai"
	"github.com/easypatent/patentscout/ai/openai"
	"github.com/easypatent/patentscout/embed"
	"github.com/easypatent/patentscout/epo"
	"github.com/easypatent/patentscout/harvest"
	"github.com/easypatent/patentscout/pipeline"
	"github.com/easypatent/patentscout/ratelimit"
	"github.com/easypatent/patentscout/storage"
	"github.com/easypatent/patentscout/storage/badger"
	"github.com/easypatent/patentscout/storage/mongo"
	"github.com/easypatent/patentscout/vector/vectorize"
)

func main() {
	app := &cli.App{
		Name:  "patentscout",
		Usage: "Patent abstract harvesting and embedding pipeline",
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
				Name:   "harvest",
				Usage:  "Search the EPO OPS API for keywords and store matching patents",
				Action: harvestCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "keywords",
						Aliases:  []string{"k"},
						Usage:    "Path to keyword CSV file",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "max-keywords",
						Usage: "Process at most N keywords from the file (0 = all)",
						Value: 0,
					},
					&cli.StringFlag{
						Name:    "consumer-key",
						Usage:   "EPO OPS consumer key",
						EnvVars: []string{"OPS_CONSUMER_KEY"},
					},
					&cli.StringFlag{
						Name:    "consumer-secret",
						Usage:   "EPO OPS consumer secret",
						EnvVars: []string{"OPS_CONSUMER_SECRET"},
					},
					&cli.DurationFlag{
						Name:  "rate",
						Usage: "Minimum interval between API calls per keyword",
						Value: time.Second,
					},
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Number of concurrent workers",
						Value: harvest.DefaultConcurrency,
					},
				}, storageFlags()...),
			},
			{
				Name:   "embed",
				Usage:  "Embed stored patent abstracts and upsert them into a vector index",
				Action: embedCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "https://api.openai.com/v1",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
						Value: "text-embedding-3-large",
					},
					&cli.StringFlag{
						Name:    "api-key",
						Usage:   "Embedding service API key",
						EnvVars: []string{"OPENAI_API_KEY"},
					},
					&cli.IntFlag{
						Name:  "dimensions",
						Usage: "Expected embedding vector length",
						Value: 1536,
					},
					&cli.StringFlag{
						Name:    "cf-account",
						Usage:   "Cloudflare account ID",
						EnvVars: []string{"CF_ACCOUNT_ID"},
					},
					&cli.StringFlag{
						Name:    "cf-index",
						Usage:   "Cloudflare Vectorize index name",
						EnvVars: []string{"CF_VECTORIZE_INDEX"},
					},
					&cli.StringFlag{
						Name:    "cf-token",
						Usage:   "Cloudflare API token",
						EnvVars: []string{"CF_API_TOKEN"},
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed embedding calls",
						Value: embed.DefaultMaxAttempts,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: embed.DefaultRetryDelay,
					},
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Number of concurrent workers",
						Value: embed.DefaultConcurrency,
					},
				}, storageFlags()...),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// storageFlags are shared by every command that touches the document store.
func storageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "local-db",
			Usage: "Path to a local BadgerDB directory (overrides MongoDB)",
		},
		&cli.StringFlag{
			Name:    "mongo-uri",
			Usage:   "MongoDB connection URI",
			EnvVars: []string{"MONGODB_URI"},
			Value:   mongo.DefaultURI,
		},
		&cli.StringFlag{
			Name:  "db-name",
			Usage: "MongoDB database name",
			Value: mongo.DefaultDatabase,
		},
		&cli.StringFlag{
			Name:  "collection",
			Usage: "MongoDB collection name",
			Value: mongo.DefaultCollection,
		},
	}
}

// openRepository opens the document store selected by the storage flags.
// The returned closer releases the underlying backend as well.
func openRepository(ctx context.Context, c *cli.Context) (storage.PatentRepository, func(), error) {
	if dbPath := c.String("local-db"); dbPath != "" {
		backend, err := badger.OpenBackend(dbPath, false)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		repo, err := badger.NewPatentRepository(backend)
		if err != nil {
			backend.Close()
			return nil, nil, fmt.Errorf("failed to create repository: %w", err)
		}
		return repo, func() {
			repo.Close()
			backend.Close()
		}, nil
	}

	repo, err := mongo.NewPatentRepository(ctx, mongo.Config{
		URI:        c.String("mongo-uri"),
		Database:   c.String("db-name"),
		Collection: c.String("collection"),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	return repo, func() { repo.Close() }, nil
}

func harvestCommand(c *cli.Context) error {
	ctx := context.Background()

	keywords, err := readKeywords(c.String("keywords"), c.Int("max-keywords"))
	if err != nil {
		return fmt.Errorf("failed to read keywords: %w", err)
	}
	if len(keywords) == 0 {
		return fmt.Errorf("no keywords found in %s", c.String("keywords"))
	}

	repo, closeRepo, err := openRepository(ctx, c)
	if err != nil {
		return err
	}
	defer closeRepo()

	epoConfig := epo.DefaultConfig()
	epoConfig.ConsumerKey = c.String("consumer-key")
	epoConfig.ConsumerSecret = c.String("consumer-secret")

	client, err := epo.NewClient(ctx, epoConfig,
		epo.WithRateGate(ratelimit.NewGate(c.Duration("rate"))))
	if err != nil {
		return fmt.Errorf("failed to create OPS client: %w", err)
	}

	progress := pipeline.NewProgressTracker(os.Stderr, len(keywords), 1)
	harvester, err := harvest.NewHarvester(client, repo,
		harvest.WithConcurrency(c.Int("concurrency")),
		harvest.WithProgress(progress))
	if err != nil {
		return fmt.Errorf("failed to create harvester: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Keywords: %d\n", len(keywords))
	fmt.Fprintf(os.Stderr, "Concurrency: %d\n", c.Int("concurrency"))
	fmt.Fprintln(os.Stderr)

	report, err := harvester.Run(ctx, keywords)
	if err != nil {
		return fmt.Errorf("harvest failed: %w", err)
	}

	slog.Info("harvest complete",
		"submitted", report.Submitted,
		"succeeded", report.Succeeded,
		"failed", report.Failed)
	if report.Failed > 0 {
		slog.Warn("failed keywords", "keywords", report.FailedIDs())
	}
	return nil
}

func embedCommand(c *cli.Context) error {
	ctx := context.Background()

	repo, closeRepo, err := openRepository(ctx, c)
	if err != nil {
		return err
	}
	defer closeRepo()

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithAPIKey(c.String("api-key")),
		ai.WithDimensions(c.Int("dimensions")),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	store, err := vectorize.NewStore(vectorize.Config{
		AccountID: c.String("cf-account"),
		IndexName: c.String("cf-index"),
		APIToken:  c.String("cf-token"),
	})
	if err != nil {
		return fmt.Errorf("failed to create vector store: %w", err)
	}
	defer store.Close()

	progress := pipeline.NewProgressTracker(os.Stderr, 0, 1)
	stage, err := embed.NewEmbedder(repo, embedder, store, aiConfig.Dimensions,
		embed.WithConcurrency(c.Int("concurrency")),
		embed.WithRetryPolicy(c.Int("max-retries"), c.Duration("retry-delay")),
		embed.WithProgress(progress))
	if err != nil {
		return fmt.Errorf("failed to create embedding stage: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", aiConfig.EmbeddingHost)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", aiConfig.EmbeddingModel)
	fmt.Fprintln(os.Stderr)

	report, err := stage.Run(ctx)
	if err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}

	slog.Info("embedding complete",
		"submitted", report.Submitted,
		"succeeded", report.Succeeded,
		"failed", report.Failed)
	if report.Failed > 0 {
		slog.Warn("failed patents", "patents", report.FailedIDs())
	}
	return nil
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
