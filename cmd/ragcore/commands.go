package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/poiesic/ragcore"
	"github.com/poiesic/ragcore/answer"
	"github.com/poiesic/ragcore/core"
	"github.com/poiesic/ragcore/ingestion"
	"github.com/poiesic/ragcore/metrics"
	"github.com/poiesic/ragcore/reembed"
	"github.com/poiesic/ragcore/retrieval"
	"github.com/poiesic/ragcore/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
)

var errMissingArgument = errors.New("missing argument")

func serveCommand(c *cli.Context) error {
	cfg := loadedConfig(c)
	if c.IsSet("addr") {
		cfg.Server.Addr = c.String("addr")
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector("ragcore", reg, nil)

	engine, err := ragcore.NewEngine(cfg, ragcore.WithMonitors(collector, collector))
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	pipeline, err := engine.NewIngestionPipeline()
	if err != nil {
		return fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}
	defer pipeline.Release()

	srv, err := server.New(engine,
		server.WithRetriever(engine.Retriever()),
		server.WithIngester(pipeline),
		server.WithReadiness(engine.Store()),
		server.WithMetrics(collector, reg),
		server.WithMessages(cfg.ErrorMessages),
	)
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx, cfg.Server)
}

func askCommand(c *cli.Context) error {
	question := c.Args().First()
	if question == "" {
		return fmt.Errorf("%w: QUESTION", errMissingArgument)
	}
	filters, err := parseFilters(c.StringSlice("filter"))
	if err != nil {
		return err
	}

	engine, err := ragcore.NewEngine(loadedConfig(c))
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	resp, err := engine.Answer(c.Context, c.String("session"), question, nil, filters)
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return writeJSON(c.App.Writer, resp)
	}
	printResponse(c.App.Writer, resp)
	return nil
}

func printResponse(w io.Writer, resp *answer.Response) {
	fmt.Fprintln(w, resp.AnswerText)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Finish reason: %s\n", resp.FinishReason)
	for i, piece := range resp.Citations {
		document, _ := piece.Metadata["document"].(string)
		fmt.Fprintf(w, "[%d] %s %s (%.3f)\n", i+1, piece.ContentType, document, piece.ScoreValue())
	}
}

func searchCommand(c *cli.Context) error {
	term := c.Args().First()
	if term == "" {
		return fmt.Errorf("%w: TERM", errMissingArgument)
	}
	filters, err := parseFilters(c.StringSlice("filter"))
	if err != nil {
		return err
	}

	cfg := loadedConfig(c)
	engine, err := ragcore.NewEngine(cfg)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	return runSearch(c.Context, c.App.Writer, engine.Retriever(), term, filters, cfg.ErrorMessages)
}

// runSearch prints the retrieved pieces as JSON Lines. An empty or missing
// collection prints the canned answer instead of failing, as /search does.
func runSearch(ctx context.Context, w io.Writer, retriever retrieval.Retriever, term string, filters core.FilterSet, messages answer.Messages) error {
	pieces, err := retriever.Retrieve(ctx, term, filters)
	if errors.Is(err, retrieval.ErrNoOrEmptyCollection) {
		slog.Warn("search on empty collection")
		text := messages.NoOrEmptyCollection
		if text == "" {
			text = answer.DefaultMessages().NoOrEmptyCollection
		}
		_, err := fmt.Fprintln(w, text)
		return err
	}
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	for _, piece := range pieces {
		if err := enc.Encode(piece); err != nil {
			return err
		}
	}
	return nil
}

func ingestCommand(c *cli.Context) error {
	metadata, err := parseMetadata(c.StringSlice("metadata"))
	if err != nil {
		return err
	}

	var in io.Reader = os.Stdin
	if path := c.String("file"); path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		in = f
	}
	pieces, err := ingestion.ReadJSONL(in)
	if err != nil {
		return err
	}

	engine, err := ragcore.NewEngine(loadedConfig(c))
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	pipeline, err := engine.NewIngestionPipeline()
	if err != nil {
		return fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}
	defer pipeline.Release()

	result, err := pipeline.Ingest(c.Context, pieces, &ingestion.IngestOptions{
		ReplaceDocuments: c.Bool("replace"),
		Metadata:         metadata,
	})
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	fmt.Fprintf(c.App.ErrWriter, "Stored %d pieces in %d batches (%d removed)\n", result.Stored, result.Batches, result.Removed)
	return nil
}

func reembedCommand(c *cli.Context) error {
	cfg := loadedConfig(c)
	if c.IsSet("embedding-host") {
		cfg.AI.EmbeddingHost = c.String("embedding-host")
	}
	if c.IsSet("embedding-model") {
		cfg.AI.EmbeddingModel = c.String("embedding-model")
	}
	if err := cfg.AI.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}

	// Validate config
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	engine, err := ragcore.NewEngine(cfg)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", cfg.Store.Path)
	fmt.Fprintf(c.App.ErrWriter, "Embedding host: %s\n", cfg.AI.EmbeddingHost)
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", cfg.AI.EmbeddingModel)
	fmt.Fprintln(c.App.ErrWriter)

	if _, err := engine.NewReembedder(reembedConfig, c.App.ErrWriter).Run(c.Context); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
