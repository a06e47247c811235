package retrieval

import (
	"time"

	"github.com/poiesic/ragcore/core"
)

// FusionStats describes one fusion pass.
type FusionStats struct {
	// Retrieved is the number of pieces all quarks returned together.
	Retrieved int
	// Summaries is the number of SUMMARY pieces removed.
	Summaries int
	// Expanded is the number of pieces added through summary related ids.
	Expanded int
	// Duplicates is the number of pieces dropped by dedup.
	Duplicates int
	// Pruned is the number of pieces cut by total_k.
	Pruned int
	// Result is the size of the fused set before reranking.
	Result int
}

// Monitor provides hooks to observe retrieval.
// QuarkCompleted is called from the quark goroutines; implementations must be
// safe for concurrent use.
type Monitor interface {
	RetrievalStarted(query string, filters core.FilterSet)
	QuarkCompleted(contentType core.ContentType, hits int, elapsed time.Duration)
	FusionCompleted(stats FusionStats)
	RerankCompleted(in, out int, elapsed time.Duration)
	RetrievalFailed(err error)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) RetrievalStarted(_ string, _ core.FilterSet)               {}
func (n *noopMonitor) QuarkCompleted(_ core.ContentType, _ int, _ time.Duration) {}
func (n *noopMonitor) FusionCompleted(_ FusionStats)                             {}
func (n *noopMonitor) RerankCompleted(_, _ int, _ time.Duration)                 {}
func (n *noopMonitor) RetrievalFailed(_ error)                                   {}
