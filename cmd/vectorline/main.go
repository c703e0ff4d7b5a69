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
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/vectorline"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "vectorline",
		Usage: "Idempotent chunk/embed/publish pipeline for tenant documents",
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
				Name:   "seed",
				Usage:  "Store a raw document so it can be chunked",
				Action: seedCommand,
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:     "document",
						Usage:    "Document ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "file",
						Usage: "Read document content from this file (default: stdin)",
					},
				),
			},
			{
				Name:   "chunk",
				Usage:  "Split seeded documents into chunk records",
				Action: chunkCommand,
				Flags: append(commonFlags(),
					&cli.StringSliceFlag{
						Name:     "document",
						Usage:    "Document ID (repeatable)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "profile",
						Usage: "Chunking profile name or 'active'",
						Value: "active",
					},
				),
			},
			{
				Name:   "embed",
				Usage:  "Generate embeddings for stored chunks",
				Action: embedCommand,
				Flags: append(commonFlags(),
					&cli.StringSliceFlag{
						Name:  "chunk-id",
						Usage: "Chunk ID to embed (repeatable; default: up to --limit stored chunks)",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Number of chunks to embed when no --chunk-id is given",
						Value: 100,
					},
					&cli.StringFlag{
						Name:  "profile",
						Usage: "Embedding profile name, strategy alias, or 'active'",
						Value: "active",
					},
				),
			},
			{
				Name:   "publish",
				Usage:  "Publish processed embeddings into a vector index",
				Action: publishCommand,
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:     "index",
						Usage:    "Target index name",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:  "embedding-id",
						Usage: "Embedding ID to publish (repeatable; default: up to --limit processed embeddings)",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Number of embeddings to publish when no --embedding-id is given",
						Value: 100,
					},
					&cli.StringFlag{
						Name:  "profile",
						Usage: "Indexing profile name, strategy alias, or 'active'",
						Value: "active",
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "tenant",
			Aliases:  []string{"t"},
			Usage:    "Tenant ID",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "profiles",
			Usage: "YAML profile file overriding the embedded defaults",
		},
	}
}

func openService(c *cli.Context) (*vectorline.Service, error) {
	opts := []vectorline.ServiceOption{}
	if path := c.String("profiles"); path != "" {
		opts = append(opts, vectorline.WithProfiles(path))
	}
	svc, err := vectorline.NewService(c.String("db"), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return svc, nil
}

func seedCommand(c *cli.Context) error {
	ctx := context.Background()

	var content []byte
	var err error
	if file := c.String("file"); file != "" {
		content, err = os.ReadFile(file)
	} else {
		content, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("failed to read document content: %w", err)
	}

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.SeedDocument(ctx, c.String("tenant"), c.String("document"), string(content)); err != nil {
		return fmt.Errorf("failed to store document: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Seeded document %s (%d bytes)\n", c.String("document"), len(content))
	return nil
}

func chunkCommand(c *cli.Context) error {
	ctx := context.Background()

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	batch, err := svc.ChunkDocuments(ctx, c.String("tenant"), c.StringSlice("document"), c.String("profile"), nil)
	if err != nil {
		return fmt.Errorf("chunking failed: %w", err)
	}

	for docID, res := range batch.Results {
		fmt.Fprintf(os.Stderr, "Document %s: %d chunks (%d inserted, %d updated)\n",
			docID, len(res.ChunkIDs), res.Inserted, res.Updated)
	}
	for _, itemErr := range batch.Errors {
		fmt.Fprintf(os.Stderr, "Document %s failed: %s\n", itemErr.ItemID, itemErr.Message)
	}
	if len(batch.Errors) > 0 {
		return fmt.Errorf("%d of %d documents failed", len(batch.Errors), len(c.StringSlice("document")))
	}
	return nil
}

func embedCommand(c *cli.Context) error {
	ctx := context.Background()

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	chunkIDs := c.StringSlice("chunk-id")
	if len(chunkIDs) == 0 {
		chunkIDs, err = svc.ChunkStore().ListChunkIDs(ctx, c.String("tenant"), c.Int("limit"))
		if err != nil {
			return fmt.Errorf("failed to list chunks: %w", err)
		}
		if len(chunkIDs) == 0 {
			fmt.Fprintln(os.Stderr, "No chunks stored for tenant; nothing to embed")
			return nil
		}
	}

	result, err := svc.EmbedChunks(ctx, c.String("tenant"), chunkIDs, c.String("profile"), nil)
	if err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Embedded %d chunks: %d created, %d updated, %d skipped, %d failed\n",
		len(chunkIDs), result.Created, result.Updated, result.Skipped, result.Failed)
	for _, itemErr := range result.Errors {
		fmt.Fprintf(os.Stderr, "  %s [%s]: %s\n", itemErr.ItemID, itemErr.Code, itemErr.Message)
	}
	return nil
}

func publishCommand(c *cli.Context) error {
	ctx := context.Background()

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	embeddingIDs := c.StringSlice("embedding-id")
	if len(embeddingIDs) == 0 {
		embeddingIDs, err = svc.EmbeddingStore().ListEmbeddingIDs(ctx, c.String("tenant"), c.Int("limit"))
		if err != nil {
			return fmt.Errorf("failed to list embeddings: %w", err)
		}
		if len(embeddingIDs) == 0 {
			fmt.Fprintln(os.Stderr, "No processed embeddings for tenant; nothing to publish")
			return nil
		}
	}

	result, err := svc.PublishEmbeddings(ctx, c.String("tenant"), embeddingIDs, c.String("index"), c.String("profile"), nil)
	if err != nil {
		return fmt.Errorf("publish failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Published %d of %d embeddings to %s (dimension %d, %s); %d failed\n",
		result.Indexed, len(embeddingIDs), c.String("index"), result.Dimension, result.Similarity, result.Failed)
	for _, itemErr := range result.Errors {
		fmt.Fprintf(os.Stderr, "  %s [%s]: %s\n", itemErr.ItemID, itemErr.Code, itemErr.Message)
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
