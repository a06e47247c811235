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

// Package ragcore wires the piece store, the retrievers and the answer
// state machine into one engine.
package ragcore

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/poiesic/ragcore/ai"
	"github.com/poiesic/ragcore/ai/openai"
	"github.com/poiesic/ragcore/answer"
	"github.com/poiesic/ragcore/config"
	"github.com/poiesic/ragcore/core"
	"github.com/poiesic/ragcore/ingestion"
	"github.com/poiesic/ragcore/reembed"
	"github.com/poiesic/ragcore/rerank"
	"github.com/poiesic/ragcore/retrieval"
	"github.com/poiesic/ragcore/storage"
	"github.com/poiesic/ragcore/storage/badger"
)

// Engine owns the store and the components built on top of it.
type Engine struct {
	cfg       *config.Config
	backend   *badger.Backend
	repo      storage.PieceRepository
	store     storage.VectorStore
	provider  ai.AIProvider
	retriever *retrieval.CompositeRetriever
	answerer  *answer.StateMachine
	logger    *slog.Logger
}

// EngineOption configures optional engine dependencies.
type EngineOption func(*engineOptions)

type engineOptions struct {
	provider         ai.AIProvider
	retrievalMonitor retrieval.Monitor
	answerMonitor    answer.Monitor
	logger           *slog.Logger
}

// WithProvider replaces the OpenAI-compatible provider built from the config.
// The engine takes ownership and closes it.
func WithProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithMonitors installs retrieval and turn hooks, typically a *metrics.Collector.
func WithMonitors(retrievalMonitor retrieval.Monitor, answerMonitor answer.Monitor) EngineOption {
	return func(o *engineOptions) {
		o.retrievalMonitor = retrievalMonitor
		o.answerMonitor = answerMonitor
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// NewEngine opens the store named by cfg and builds the retrieval and
// answer components.
func NewEngine(cfg *config.Config, opts ...EngineOption) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	options := &engineOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	backend, err := badger.OpenBackend(cfg.Store.Path, cfg.Store.InMemory)
	if err != nil {
		return nil, err
	}

	repo, err := badger.NewPieceRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		aiConfig := cfg.AI
		provider, err = openai.NewProvider(&aiConfig)
		if err != nil {
			repo.Close()
			backend.Close()
			return nil, err
		}
	}

	e := &Engine{
		cfg:      cfg,
		backend:  backend,
		repo:     repo,
		provider: provider,
		logger:   options.logger,
	}
	if err := e.build(options); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func (e *Engine) build(options *engineOptions) error {
	var err error
	e.store, err = storage.NewEmbeddingStore(e.repo, e.provider.Embedder(), storage.WithStoreLogger(options.logger))
	if err != nil {
		return err
	}

	quarks, err := newQuarks(e.store, e.cfg.Retriever, options.logger)
	if err != nil {
		return err
	}

	reranker, err := newReranker(e.cfg.Reranker, options.logger)
	if err != nil {
		return err
	}

	e.retriever, err = retrieval.NewCompositeRetriever(e.store, quarks,
		retrieval.WithLogger(options.logger),
		retrieval.WithReranker(reranker),
		retrieval.WithRerankerK(e.cfg.Reranker.KDocuments),
		retrieval.WithTotalK(e.cfg.Retriever.TotalK),
		retrieval.WithMonitor(options.retrievalMonitor),
	)
	if err != nil {
		return err
	}

	answerOpts := []answer.Option{
		answer.WithLogger(options.logger),
		answer.WithMessages(e.cfg.ErrorMessages),
		answer.WithHistorySettings(e.cfg.ChatHistory),
		answer.WithMonitor(options.answerMonitor),
	}
	if e.cfg.FallbackFilters.Enabled {
		answerOpts = append(answerOpts, answer.WithFallbackFilters(e.cfg.FallbackFilters.Filters))
	}
	e.answerer, err = answer.NewStateMachine(e.retriever, e.provider, answerOpts...)
	return err
}

func newQuarks(store storage.VectorStore, cfg config.RetrieverConfig, logger *slog.Logger) ([]retrieval.Quark, error) {
	var quarks []retrieval.Quark
	for _, q := range cfg.Quarks() {
		quark, err := retrieval.NewRetrieverQuark(store, q.ContentType, q.K, q.Threshold, retrieval.WithQuarkLogger(logger))
		if err != nil {
			return nil, err
		}
		quarks = append(quarks, quark)
	}
	return quarks, nil
}

// newReranker returns nil when reranking is disabled, the HTTP reranker
// when an endpoint is configured and the lexical reranker otherwise.
func newReranker(cfg config.RerankerConfig, logger *slog.Logger) (retrieval.Reranker, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if cfg.Endpoint.BaseURL != "" {
		return rerank.NewHTTPReranker(cfg.Endpoint, cfg.KDocuments, rerank.WithLogger(logger))
	}
	return rerank.NewLexicalReranker(cfg.KDocuments)
}

// Answer runs one chat turn.
func (e *Engine) Answer(ctx context.Context, sessionID, question string, history []core.Message, filters core.FilterSet) (*answer.Response, error) {
	return e.answerer.Answer(ctx, sessionID, question, history, filters)
}

// Retrieve returns the fused pieces for query without generating an answer.
func (e *Engine) Retrieve(ctx context.Context, query string, filters core.FilterSet) ([]*core.Piece, error) {
	return e.retriever.Retrieve(ctx, query, filters)
}

// Repository returns the piece repository.
func (e *Engine) Repository() storage.PieceRepository {
	return e.repo
}

// Store returns the similarity search surface.
func (e *Engine) Store() storage.VectorStore {
	return e.store
}

// Retriever returns the composite retriever.
func (e *Engine) Retriever() *retrieval.CompositeRetriever {
	return e.retriever
}

// Answerer returns the answer state machine.
func (e *Engine) Answerer() *answer.StateMachine {
	return e.answerer
}

// NewIngestionPipeline creates a pipeline that writes into the engine's store.
// Callers must Release it.
func (e *Engine) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	base := []ingestion.Option{
		ingestion.WithLogger(e.logger),
		ingestion.WithPoolSize(e.cfg.Ingestion.Workers),
		ingestion.WithBatchSize(e.cfg.Ingestion.BatchSize),
	}
	return ingestion.NewPipeline(e.repo, e.provider, append(base, opts...)...)
}

// NewReembedder creates a reembedder over the engine's store using the
// configured embedder.
func (e *Engine) NewReembedder(cfg *reembed.Config, progress io.Writer) *reembed.Reembedder {
	return reembed.NewReembedder(e.repo, e.provider.Embedder(), cfg, progress)
}

// Close releases the provider, the repository and the backend.
func (e *Engine) Close() error {
	logger := e.logger.With("component", "engine")
	var errs []error
	if err := e.provider.Close(); err != nil {
		logger.Error("error closing AI provider", "err", err)
	}
	if err := e.repo.Close(); err != nil {
		logger.Error("error closing piece repository", "err", err)
		errs = append(errs, err)
	}
	if err := e.backend.Close(); err != nil {
		logger.Error("error closing backend storage", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
