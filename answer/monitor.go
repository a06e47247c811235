package answer

import "time"

// Monitor provides hooks to observe turns.
// Implementations must be safe for concurrent use; the language and
// rephrase states are entered from separate goroutines.
type Monitor interface {
	StateEntered(state State)
	TurnCompleted(finishReason string, retryUsed bool, elapsed time.Duration)
	TurnFailed(err error)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) StateEntered(_ State)                            {}
func (n *noopMonitor) TurnCompleted(_ string, _ bool, _ time.Duration) {}
func (n *noopMonitor) TurnFailed(_ error)                              {}
