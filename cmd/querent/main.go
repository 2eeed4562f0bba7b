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
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	querent "github.com/poiesic/querent"
	"github.com/poiesic/querent/ai"
	"github.com/poiesic/querent/ai/openai"
	"github.com/poiesic/querent/core"
	"github.com/poiesic/querent/ingestion"
	"github.com/poiesic/querent/pipeline"
	"github.com/poiesic/querent/reindex"
	"github.com/poiesic/querent/storage/badger"
)

func main() {
	app := &cli.App{
		Name:  "querent",
		Usage: "Workspace-scoped question answering over your own documents",
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
				Name:      "ask",
				Usage:     "Answer a question from a workspace's documents",
				ArgsUsage: "QUESTION",
				Action:    askCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "workspace",
						Aliases:  []string{"w"},
						Usage:    "Workspace to answer from",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Answering mode (reference, synthesis, custom)",
						Value: "reference",
					},
					&cli.StringFlag{
						Name:  "role",
						Usage: "Custom system role (custom mode only)",
					},
					&cli.StringFlag{
						Name:  "host",
						Usage: "OpenAI-compatible service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
						Value: "embeddinggemma",
					},
					&cli.StringFlag{
						Name:  "chat-model",
						Usage: "Chat model name",
						Value: "llama3.2:latest",
					},
					&cli.BoolFlag{
						Name:  "save-note",
						Usage: "Save the answer and its sources as a note",
					},
					&cli.BoolFlag{
						Name:  "no-judge",
						Usage: "Use keyword relevance selection instead of the LLM judge",
					},
				},
			},
			{
				Name:      "ingest",
				Usage:     "Ingest a text file into a workspace",
				ArgsUsage: "FILE",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "workspace",
						Aliases:  []string{"w"},
						Usage:    "Workspace to ingest into",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "Source label for the document (defaults to the file name)",
					},
					&cli.StringFlag{
						Name:  "host",
						Usage: "OpenAI-compatible service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
						Value: "embeddinggemma",
					},
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "Target chunk length in characters",
						Value: ingestion.DefaultChunkSize,
					},
					&cli.IntFlag{
						Name:  "chunk-overlap",
						Usage: "Characters shared between adjacent chunks",
						Value: ingestion.DefaultChunkOverlap,
					},
				},
			},
			{
				Name:   "workspaces",
				Usage:  "List workspaces and their chunk counts",
				Action: workspacesCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
				},
			},
			{
				Name:  "notes",
				Usage: "Manage saved question/answer notes",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List notes in a workspace",
						Action: notesListCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "db",
								Aliases:  []string{"d"},
								Usage:    "Path to BadgerDB database directory",
								Required: true,
							},
							&cli.StringFlag{
								Name:     "workspace",
								Aliases:  []string{"w"},
								Usage:    "Workspace to list notes from",
								Required: true,
							},
							&cli.TimestampFlag{
								Name:   "since",
								Usage:  "Only notes created at or after this time (RFC 3339)",
								Layout: time.RFC3339,
							},
							&cli.TimestampFlag{
								Name:   "until",
								Usage:  "Only notes created before this time (RFC 3339)",
								Layout: time.RFC3339,
							},
						},
					},
					{
						Name:      "add",
						Usage:     "Save a question/answer note",
						ArgsUsage: "QUESTION ANSWER",
						Action:    notesAddCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "db",
								Aliases:  []string{"d"},
								Usage:    "Path to BadgerDB database directory",
								Required: true,
							},
							&cli.StringFlag{
								Name:     "workspace",
								Aliases:  []string{"w"},
								Usage:    "Workspace to save the note in",
								Required: true,
							},
						},
					},
				},
			},
			{
				Name:   "reindex",
				Usage:  "Re-embed all stored chunks with a new embedding model",
				Action: reindexCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func askCommand(c *cli.Context) error {
	ctx := context.Background()

	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("a question is required")
	}

	mode := pipeline.Mode(c.String("mode"))
	switch mode {
	case pipeline.ModeReference, pipeline.ModeSynthesis, pipeline.ModeCustom:
	default:
		return fmt.Errorf("invalid mode %q: must be one of reference, synthesis, custom", c.String("mode"))
	}

	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithChatModel(c.String("chat-model")),
	)

	db, err := querent.NewDatabase(c.String("db"), querent.WithAIConfig(aiConfig))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	pipelineConfig := pipeline.DefaultConfig()
	if c.Bool("no-judge") {
		pipelineConfig.JudgeEnabled = false
	}

	p, err := db.NewPipeline(pipelineConfig)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer p.Release()

	answer, err := p.AnswerQuestion(ctx, c.String("workspace"), question, mode, c.String("role"))
	if err != nil {
		return fmt.Errorf("failed to answer question: %w", err)
	}

	fmt.Println(answer.Text)

	if !answer.Decision.NoEvidence() {
		fmt.Println("\nSources:")
		for _, candidate := range answer.Decision.Evidence {
			ref := candidate.Ref()
			fmt.Printf("  %s #%d (score %.4f)\n", ref.Source, ref.Index, candidate.FusedScore)
		}
	}

	if c.Bool("save-note") {
		refs := make([]core.EvidenceRef, 0, len(answer.Decision.Evidence))
		for _, candidate := range answer.Decision.Evidence {
			refs = append(refs, candidate.Ref())
		}
		note := &core.Note{
			WorkspaceId: c.String("workspace"),
			Question:    question,
			Answer:      answer.Text,
			Sources:     refs,
		}
		if _, err := db.NoteRepository().AddNotes(ctx, note); err != nil {
			return fmt.Errorf("failed to save note: %w", err)
		}
		fmt.Fprintln(os.Stderr, "Note saved.")
	}

	return nil
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	if c.NArg() != 1 {
		return fmt.Errorf("exactly one file argument is required")
	}
	filePath := c.Args().First()

	text, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	source := c.String("source")
	if source == "" {
		source = filepath.Base(filePath)
	}

	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)

	db, err := querent.NewDatabase(c.String("db"), querent.WithAIConfig(aiConfig))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	p, err := db.NewIngestionPipeline(
		ingestion.WithChunking(c.Int("chunk-size"), c.Int("chunk-overlap")))
	if err != nil {
		return fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}
	defer p.Release()

	doc, err := p.Ingest(ctx, c.String("workspace"), source, string(text), nil)
	if err != nil {
		return fmt.Errorf("failed to ingest document: %w", err)
	}

	count, err := db.ChunkRepository().CountChunks(ctx, c.String("workspace"))
	if err != nil {
		return fmt.Errorf("failed to count chunks: %w", err)
	}

	fmt.Printf("Ingested %q into workspace %q (workspace now holds %d chunks)\n",
		doc.Source, c.String("workspace"), count)
	return nil
}

func workspacesCommand(c *cli.Context) error {
	ctx := context.Background()

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewChunkRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	defer repo.Close()

	workspaces, err := repo.ListWorkspaces(ctx)
	if err != nil {
		return fmt.Errorf("failed to list workspaces: %w", err)
	}

	if len(workspaces) == 0 {
		fmt.Println("No workspaces found.")
		return nil
	}

	for _, workspace := range workspaces {
		count, err := repo.CountChunks(ctx, workspace)
		if err != nil {
			return fmt.Errorf("failed to count chunks in %q: %w", workspace, err)
		}
		fmt.Printf("%s\t%d chunks\n", workspace, count)
	}
	return nil
}

func notesListCommand(c *cli.Context) error {
	ctx := context.Background()

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewNoteRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	defer repo.Close()

	start := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	if since := c.Timestamp("since"); since != nil {
		start = *since
	}
	end := time.Date(2100, 12, 31, 23, 59, 59, 0, time.UTC)
	if until := c.Timestamp("until"); until != nil {
		end = *until
	}

	notes, err := repo.ListNotes(ctx, c.String("workspace"), start, end)
	if err != nil {
		return fmt.Errorf("failed to list notes: %w", err)
	}

	if len(notes) == 0 {
		fmt.Println("No notes found.")
		return nil
	}

	for _, note := range notes {
		fmt.Printf("[%s] %s\n", note.CreatedAt.Format(time.RFC3339), note.Question)
		fmt.Printf("    %s\n", note.Answer)
		for _, ref := range note.Sources {
			fmt.Printf("    - %s #%d\n", ref.Source, ref.Index)
		}
	}
	return nil
}

func notesAddCommand(c *cli.Context) error {
	ctx := context.Background()

	if c.NArg() != 2 {
		return fmt.Errorf("QUESTION and ANSWER arguments are required")
	}

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewNoteRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	defer repo.Close()

	note := &core.Note{
		WorkspaceId: c.String("workspace"),
		Question:    c.Args().Get(0),
		Answer:      c.Args().Get(1),
	}
	added, err := repo.AddNotes(ctx, note)
	if err != nil {
		return fmt.Errorf("failed to save note: %w", err)
	}

	fmt.Printf("Saved note %d\n", added[0].Id)
	return nil
}

func reindexCommand(c *cli.Context) error {
	ctx := context.Background()

	// Open database
	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewChunkRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	defer repo.Close()

	// Create AI config
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)

	// Create embedder
	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	// Create reindexing config
	reindexConfig := &reindex.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}

	// Validate config
	if reindexConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reindexConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reindexConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	// Create reindexer
	reindexer := reindex.NewReindexer(repo, embedder, reindexConfig, os.Stderr)

	// Run reindexing
	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	if err := reindexer.Run(ctx); err != nil {
		return fmt.Errorf("reindexing failed: %w", err)
	}

	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
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

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
