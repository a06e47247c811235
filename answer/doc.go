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


// Package answer implements the per-turn answer state machine.
//
// A turn moves through these states:
//
//	DetermineLanguage ┐
//	                  ├─> Retrieve ─> Generate ─> Evaluate ─> Done
//	Rephrase ─────────┘      │  ^                    │
//	                         │  └── fallback retry ──┘
//	                         └──> Error ─> Done
//
// Language detection and rephrasing run concurrently. When retrieval finds
// nothing, or the evaluator judges the answer unhelpful, the turn switches
// once to the fallback filters and retrieves again. An answer generated
// after that switch is not evaluated. Every turn owns its TurnState, so
// concurrent turns share nothing mutable.
package answer
