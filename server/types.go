package server

import (
	"github.com/poiesic/ragcore/answer"
	"github.com/poiesic/ragcore/core"
)

// ChatRequest is the body of POST /chat/{session_id}.
type ChatRequest struct {
	Message string         `json:"message"`
	History []core.Message `json:"history,omitempty"`
	Filters core.FilterSet `json:"filters,omitempty"`
}

// SearchRequest is the body of POST /search. Metadata values are exact
// matches on the named dimension.
type SearchRequest struct {
	SearchTerm string            `json:"search_term"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// SearchResponse carries either documents or, when the store holds nothing,
// a canned answer.
type SearchResponse struct {
	Documents []*core.Piece    `json:"documents"`
	Answer    *answer.Response `json:"answer,omitempty"`
}

// RemoveRequest is the body of POST /information_pieces/remove.
type RemoveRequest struct {
	Metadata map[string]string `json:"metadata"`
}

// RemoveResponse reports how many pieces were removed.
type RemoveResponse struct {
	Removed int `json:"removed"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
	Ready  bool   `json:"ready"`
}

// ErrorResponse is the body of every error status.
type ErrorResponse struct {
	Error string `json:"error"`
}

func metadataFilters(metadata map[string]string) core.FilterSet {
	filters := make(core.FilterSet, len(metadata))
	for k, v := range metadata {
		filters[k] = []string{v}
	}
	return filters
}
