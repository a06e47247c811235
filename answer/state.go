package answer

import (
	"fmt"

	"github.com/poiesic/ragcore/core"
)

// State is a node of the answer state machine.
type State int

// States of a turn. StateDone is terminal.
const (
	StateDetermineLanguage State = iota
	StateRephrase
	StateRetrieve
	StateGenerate
	StateEvaluate
	StateError
	StateDone
)

var stateNames = [...]string{
	StateDetermineLanguage: "DetermineLanguage",
	StateRephrase:          "Rephrase",
	StateRetrieve:          "Retrieve",
	StateGenerate:          "Generate",
	StateEvaluate:          "Evaluate",
	StateError:             "Error",
	StateDone:              "Done",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// TurnState is the working state of one turn. It is created per turn and
// owned by the dispatcher loop; handlers mutate it only through the pointer
// they are given.
type TurnState struct {
	SessionID string
	TurnID    string

	Question          string
	RephrasedQuestion string
	Language          string
	// History is the formatted chat history.
	History string

	Pieces     []*core.Piece
	AnswerText string

	ErrorMessages []string
	FinishReasons []string

	ActiveFilters core.FilterSet

	// RetryUsed is written only when switching to the fallback filters and
	// read by the Retrieve and Evaluate handlers.
	RetryUsed bool
	// SkipEvaluate is written only when switching to the fallback filters
	// and read by the Generate handler.
	SkipEvaluate bool
}

// addError records a recoverable condition for the Error node.
func (ts *TurnState) addError(message, finishReason string) {
	ts.ErrorMessages = append(ts.ErrorMessages, message)
	ts.FinishReasons = append(ts.FinishReasons, finishReason)
}

// switchToFallback moves the turn onto the fallback filters and discards
// everything produced under the previous scope. An answer generated after
// the switch is final and skips evaluation.
func (ts *TurnState) switchToFallback(fallback core.FilterSet) {
	ts.ActiveFilters = fallback.Clone()
	ts.Pieces = nil
	ts.AnswerText = ""
	ts.FinishReasons = nil
	ts.RetryUsed = true
	ts.SkipEvaluate = true
}
