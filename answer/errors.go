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


package answer

import "errors"

var (
	// ErrTurnFailed wraps every fatal turn error: upstream step, store or
	// reranker failures, cancellation, and a broken transition table.
	ErrTurnFailed = errors.New("turn failed")

	// ErrTransitionLimit is returned when a turn takes more steps than any
	// valid path through the state machine needs.
	ErrTransitionLimit = errors.New("state transition limit exceeded")

	// ErrRetrieverRequired is returned when a retriever is not provided.
	ErrRetrieverRequired = errors.New("retriever required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrInvalidHistoryLimit is returned for a negative chat history limit.
	ErrInvalidHistoryLimit = errors.New("chat history limit must not be negative")
)
