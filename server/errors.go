package server

import "errors"

var (
	// ErrAnswererRequired is returned when no answerer is provided.
	ErrAnswererRequired = errors.New("answerer required")
)
