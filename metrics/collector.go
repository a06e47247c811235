// Package metrics exports retrieval, answer and HTTP metrics to Prometheus.
package metrics

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/poiesic/ragcore/answer"
	"github.com/poiesic/ragcore/core"
	"github.com/poiesic/ragcore/retrieval"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector records pipeline metrics. It implements both retrieval.Monitor
// and answer.Monitor so one instance can observe a whole turn.
type Collector struct {
	retrievalsTotal   *prometheus.CounterVec
	quarkHits         *prometheus.HistogramVec
	quarkDuration     *prometheus.HistogramVec
	fusionPieces      *prometheus.CounterVec
	rerankDuration    prometheus.Histogram
	statesEntered     *prometheus.CounterVec
	turnsTotal        *prometheus.CounterVec
	turnDuration      prometheus.Histogram
	fallbackRetries   prometheus.Counter
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec

	logger *slog.Logger
}

var (
	_ retrieval.Monitor = (*Collector)(nil)
	_ answer.Monitor    = (*Collector)(nil)
)

// NewCollector registers the collector's metrics with reg under namespace.
// A nil reg uses prometheus.DefaultRegisterer.
func NewCollector(namespace string, reg prometheus.Registerer, logger *slog.Logger) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = slog.Default()
	}
	factory := promauto.With(reg)

	return &Collector{
		retrievalsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrievals_total",
			Help:      "Composite retrievals by outcome",
		}, []string{"status"}),
		quarkHits: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quark_hits",
			Help:      "Pieces returned per quark search",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		}, []string{"content_type"}),
		quarkDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quark_duration_seconds",
			Help:      "Quark search duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"content_type"}),
		fusionPieces: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fusion_pieces_total",
			Help:      "Pieces seen by fusion, by stage",
		}, []string{"stage"}),
		rerankDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rerank_duration_seconds",
			Help:      "Rerank duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		statesEntered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answer_states_total",
			Help:      "State machine states entered",
		}, []string{"state"}),
		turnsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Answered turns by finish reason",
		}, []string{"finish_reason"}),
		turnDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Turn duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		fallbackRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_retries_total",
			Help:      "Turns that retried with the fallback filters",
		}),
		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		logger: logger.With("component", "metrics"),
	}
}

func (c *Collector) RetrievalStarted(_ string, _ core.FilterSet) {}

func (c *Collector) QuarkCompleted(contentType core.ContentType, hits int, dur time.Duration) {
	c.quarkHits.WithLabelValues(contentType.String()).Observe(float64(hits))
	c.quarkDuration.WithLabelValues(contentType.String()).Observe(dur.Seconds())
}

func (c *Collector) FusionCompleted(stats retrieval.FusionStats) {
	c.fusionPieces.WithLabelValues("retrieved").Add(float64(stats.Retrieved))
	c.fusionPieces.WithLabelValues("summaries").Add(float64(stats.Summaries))
	c.fusionPieces.WithLabelValues("expanded").Add(float64(stats.Expanded))
	c.fusionPieces.WithLabelValues("duplicates").Add(float64(stats.Duplicates))
	c.fusionPieces.WithLabelValues("pruned").Add(float64(stats.Pruned))
	c.retrievalsTotal.WithLabelValues("ok").Inc()
}

func (c *Collector) RerankCompleted(_, _ int, dur time.Duration) {
	c.rerankDuration.Observe(dur.Seconds())
}

func (c *Collector) RetrievalFailed(err error) {
	c.retrievalsTotal.WithLabelValues("error").Inc()
	c.logger.Debug("retrieval failed", "err", err)
}

func (c *Collector) StateEntered(state answer.State) {
	c.statesEntered.WithLabelValues(state.String()).Inc()
}

func (c *Collector) TurnCompleted(finishReason string, retryUsed bool, dur time.Duration) {
	c.turnsTotal.WithLabelValues(finishReason).Inc()
	c.turnDuration.Observe(dur.Seconds())
	if retryUsed {
		c.fallbackRetries.Inc()
	}
}

func (c *Collector) TurnFailed(error) {
	c.turnsTotal.WithLabelValues("failed").Inc()
}

// RecordHTTPRequest records one served request. route is the route pattern,
// not the raw path, to keep label cardinality bounded.
func (c *Collector) RecordHTTPRequest(method, route string, status int, dur time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(dur.Seconds())
}
