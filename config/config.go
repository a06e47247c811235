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


package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/poiesic/ragcore/ai"
	"github.com/poiesic/ragcore/answer"
	"github.com/poiesic/ragcore/core"
	"github.com/poiesic/ragcore/rerank"
	"github.com/poiesic/ragcore/retrieval"
)

// Config is the complete service configuration.
type Config struct {
	Retriever       RetrieverConfig        `yaml:"retriever" env:"RETRIEVER"`
	Reranker        RerankerConfig         `yaml:"reranker" env:"RERANKER"`
	ChatHistory     answer.HistorySettings `yaml:"chat_history" env:"CHAT_HISTORY"`
	ErrorMessages   answer.Messages        `yaml:"error_messages" env:"ERROR_MESSAGES"`
	FallbackFilters FallbackConfig         `yaml:"fallback_filters" env:"FALLBACK"`
	Store           StoreConfig            `yaml:"store" env:"STORE"`
	Server          ServerConfig           `yaml:"server" env:"SERVER"`
	AI              ai.Config              `yaml:"ai" env:"AI"`
	Ingestion       IngestionConfig        `yaml:"ingestion" env:"INGESTION"`
	Log             LogConfig              `yaml:"log" env:"LOG"`
}

// QuarkConfig configures the retriever of one content type.
type QuarkConfig struct {
	Enabled   bool    `yaml:"enabled" env:"ENABLED"`
	K         int     `yaml:"k" env:"K"`
	Threshold float32 `yaml:"threshold" env:"THRESHOLD"`
}

// RetrieverConfig configures the composite retriever and its quarks.
type RetrieverConfig struct {
	Text    QuarkConfig `yaml:"text" env:"TEXT"`
	Table   QuarkConfig `yaml:"table" env:"TABLE"`
	Summary QuarkConfig `yaml:"summary" env:"SUMMARY"`
	Image   QuarkConfig `yaml:"image" env:"IMAGE"`
	TotalK  int         `yaml:"total_k" env:"TOTAL_K"`
}

// Quarks returns the enabled quark settings keyed by content type, in canonical order.
func (r RetrieverConfig) Quarks() []QuarkSettings {
	all := []QuarkSettings{
		{core.ContentTypeText, r.Text},
		{core.ContentTypeTable, r.Table},
		{core.ContentTypeSummary, r.Summary},
		{core.ContentTypeImage, r.Image},
	}
	out := all[:0]
	for _, q := range all {
		if q.Enabled {
			out = append(out, q)
		}
	}
	return out
}

// QuarkSettings pairs a content type with its quark configuration.
type QuarkSettings struct {
	ContentType core.ContentType
	QuarkConfig
}

// RerankerConfig configures reranking. Without an endpoint base URL the
// offline lexical reranker is used.
type RerankerConfig struct {
	Enabled    bool          `yaml:"enabled" env:"ENABLED"`
	KDocuments int           `yaml:"k_documents" env:"K_DOCUMENTS"`
	Endpoint   rerank.Config `yaml:"endpoint" env:"ENDPOINT"`
}

// FallbackConfig is the broader scope of the single retry.
// Enabled with empty filters means "search everything".
type FallbackConfig struct {
	Enabled bool           `yaml:"enabled" env:"ENABLED"`
	Filters core.FilterSet `yaml:"filters" env:"-"`
}

// StoreConfig configures the badger piece store.
type StoreConfig struct {
	Path     string `yaml:"path" env:"PATH"`
	InMemory bool   `yaml:"in_memory" env:"IN_MEMORY"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"ADDR"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// IngestionConfig configures the ingestion pipeline.
type IngestionConfig struct {
	Workers   int `yaml:"workers" env:"WORKERS"`
	BatchSize int `yaml:"batch_size" env:"BATCH_SIZE"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" env:"LEVEL"`
	// Format is text or json.
	Format string `yaml:"format" env:"FORMAT"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	quark := QuarkConfig{Enabled: true, K: 10, Threshold: 0.5}
	return &Config{
		Retriever: RetrieverConfig{
			Text:    quark,
			Table:   quark,
			Summary: quark,
			Image:   quark,
			TotalK:  retrieval.DefaultTotalK,
		},
		Reranker: RerankerConfig{
			Enabled:    true,
			KDocuments: retrieval.DefaultRerankerK,
			Endpoint: rerank.Config{
				Path:       rerank.DefaultPath,
				Model:      rerank.DefaultModel,
				Timeout:    rerank.DefaultTimeout,
				MaxRetries: rerank.DefaultMaxRetries,
			},
		},
		ChatHistory:   answer.DefaultHistorySettings(),
		ErrorMessages: answer.DefaultMessages(),
		Store: StoreConfig{
			Path: "./ragcore.db",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		AI: *ai.DefaultConfig(),
		Ingestion: IngestionConfig{
			Workers:   4,
			BatchSize: 32,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks the configuration and normalizes the AI hosts.
func (c *Config) Validate() error {
	for _, q := range []struct {
		name string
		cfg  QuarkConfig
	}{
		{"text", c.Retriever.Text},
		{"table", c.Retriever.Table},
		{"summary", c.Retriever.Summary},
		{"image", c.Retriever.Image},
	} {
		if !q.cfg.Enabled {
			continue
		}
		if q.cfg.K <= 0 {
			return fmt.Errorf("config: retriever.%s.k must be positive, got %d", q.name, q.cfg.K)
		}
		if q.cfg.Threshold < 0 || q.cfg.Threshold > 1 {
			return fmt.Errorf("config: retriever.%s.threshold must be in [0,1], got %g", q.name, q.cfg.Threshold)
		}
	}
	if len(c.Retriever.Quarks()) == 0 {
		return errors.New("config: at least one retriever must be enabled")
	}
	if c.Retriever.TotalK <= 0 {
		return fmt.Errorf("config: retriever.total_k must be positive, got %d", c.Retriever.TotalK)
	}
	if c.Reranker.KDocuments <= 0 {
		return fmt.Errorf("config: reranker.k_documents must be positive, got %d", c.Reranker.KDocuments)
	}
	if c.ChatHistory.Limit < 0 {
		return fmt.Errorf("config: chat_history.limit cannot be negative, got %d", c.ChatHistory.Limit)
	}
	if c.Store.Path == "" && !c.Store.InMemory {
		return errors.New("config: store.path is required unless store.in_memory is set")
	}
	if c.Ingestion.Workers <= 0 || c.Ingestion.BatchSize <= 0 {
		return errors.New("config: ingestion.workers and ingestion.batch_size must be positive")
	}
	for _, key := range c.FallbackFilters.Filters.Keys() {
		if key == "" {
			return errors.New("config: fallback_filters.filters has an empty key")
		}
	}
	if err := c.AI.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
