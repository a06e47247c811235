package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/ragcore/core"
	"github.com/poiesic/ragcore/reembed"
	"github.com/poiesic/ragcore/retrieval"
)

const (
	DefaultPath       = "/v2/rerank"
	DefaultModel      = "rerank-v3.5"
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
	defaultRetryDelay = 200 * time.Millisecond
	maxErrorBody      = 512
)

// Config configures an HTTPReranker.
type Config struct {
	BaseURL    string        `yaml:"base_url" env:"BASE_URL"`
	Path       string        `yaml:"path" env:"PATH"`
	Model      string        `yaml:"model" env:"MODEL"`
	APIKey     string        `yaml:"api_key" env:"API_KEY"`
	Timeout    time.Duration `yaml:"timeout" env:"TIMEOUT"`
	MaxRetries int           `yaml:"max_retries" env:"MAX_RETRIES"`
}

// HTTPReranker reranks pieces with a Cohere-compatible REST service.
type HTTPReranker struct {
	cfg        Config
	topN       int
	client     *http.Client
	retryDelay time.Duration
	logger     *slog.Logger
}

var _ retrieval.Reranker = (*HTTPReranker)(nil)

// Option configures an HTTPReranker.
type Option func(*HTTPReranker) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *HTTPReranker) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger.With("component", "http-reranker")
		return nil
	}
}

// WithHTTPClient replaces the HTTP client. The configured timeout is not applied to it.
func WithHTTPClient(client *http.Client) Option {
	return func(r *HTTPReranker) error {
		if client == nil {
			return errors.New("http client cannot be nil")
		}
		r.client = client
		return nil
	}
}

// WithRetryDelay sets the base delay between attempts. It doubles per retry.
func WithRetryDelay(delay time.Duration) Option {
	return func(r *HTTPReranker) error {
		r.retryDelay = delay
		return nil
	}
}

// NewHTTPReranker creates a reranker that keeps the topN most relevant pieces.
func NewHTTPReranker(cfg Config, topN int, opts ...Option) (*HTTPReranker, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, ErrEndpointRequired
	}
	if topN <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTopN, topN)
	}
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}

	r := &HTTPReranker{
		cfg:        cfg,
		topN:       topN,
		client:     &http.Client{Timeout: cfg.Timeout},
		retryDelay: defaultRetryDelay,
		logger:     slog.Default().With("component", "http-reranker"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

type rerankRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	Model     string   `json:"model"`
	TopN      int      `json:"top_n,omitempty"`
}

type rerankResult struct {
	Index          int     `json:"index"`
	RelevanceScore float64 `json:"relevance_score"`
}

type rerankResponse struct {
	Results []rerankResult `json:"results"`
}

// Rerank sends pieces to the service and returns at most topN of them,
// most relevant first. Each returned piece is a copy carrying the service's
// relevance score; content and metadata are kept.
func (r *HTTPReranker) Rerank(ctx context.Context, pieces []*core.Piece, query string) ([]*core.Piece, error) {
	if len(pieces) == 0 {
		return []*core.Piece{}, nil
	}

	docs := make([]string, len(pieces))
	for i, p := range pieces {
		docs[i] = p.Content
	}
	payload, err := json.Marshal(rerankRequest{
		Query:     query,
		Documents: docs,
		Model:     r.cfg.Model,
		TopN:      r.topN,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding rerank request: %w", err)
	}

	var resp *rerankResponse
	err = reembed.RetryWithBackoff(ctx, func() error {
		var callErr error
		resp, callErr = r.call(ctx, payload)
		var statusErr *StatusError
		if errors.As(callErr, &statusErr) && !statusErr.Retryable() {
			return reembed.Permanent(callErr)
		}
		return callErr
	}, r.cfg.MaxRetries, r.retryDelay)
	if err != nil {
		return nil, err
	}

	out := make([]*core.Piece, 0, min(len(resp.Results), r.topN))
	used := make(map[int]struct{}, len(resp.Results))
	results := slices.Clone(resp.Results)
	slices.SortStableFunc(results, func(a, b rerankResult) int {
		switch {
		case a.RelevanceScore > b.RelevanceScore:
			return -1
		case a.RelevanceScore < b.RelevanceScore:
			return 1
		}
		return 0
	})
	for _, res := range results {
		if res.Index < 0 || res.Index >= len(pieces) {
			return nil, fmt.Errorf("%w: index %d out of range for %d documents", ErrInvalidResponse, res.Index, len(pieces))
		}
		if _, dup := used[res.Index]; dup {
			continue
		}
		used[res.Index] = struct{}{}
		out = append(out, pieces[res.Index].WithScore(float32(res.RelevanceScore)))
		if len(out) == r.topN {
			break
		}
	}

	r.logger.Debug("rerank complete", "in", len(pieces), "out", len(out))
	return out, nil
}

func (r *HTTPReranker) call(ctx context.Context, payload []byte) (*rerankResponse, error) {
	url := strings.TrimRight(r.cfg.BaseURL, "/") + r.cfg.Path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)
	}

	httpResp, err := r.client.Do(req)
	if err != nil {
		r.logger.Warn("rerank request failed", "err", err)
		return nil, fmt.Errorf("rerank request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBody))
		r.logger.Warn("rerank service error", "status", httpResp.StatusCode)
		return nil, &StatusError{Code: httpResp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var resp rerankResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decoding rerank response: %w", err)
	}
	return &resp, nil
}
