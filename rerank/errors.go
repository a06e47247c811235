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


package rerank

import (
	"errors"
	"fmt"
)

var (
	// ErrEndpointRequired is returned when no base URL is configured.
	ErrEndpointRequired = errors.New("rerank endpoint required")

	// ErrInvalidTopN is returned for a non-positive top n.
	ErrInvalidTopN = errors.New("top n must be positive")

	// ErrInvalidResponse is returned when the service names a document it was not sent.
	ErrInvalidResponse = errors.New("invalid rerank response")
)

// StatusError reports a non-success HTTP status from the rerank service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("rerank service returned status %d: %s", e.Code, e.Body)
}

// Retryable reports whether the request may succeed when repeated.
func (e *StatusError) Retryable() bool {
	return e.Code == 429 || e.Code >= 500
}
