package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"blockscape.ai/internal/gen/region"
)

const (
	sourceLabel = "source"
	kindLabel   = "kind"
)

var (
	queries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blockscape_queries_total",
		Help: "Generation queries run.",
	}, []string{sourceLabel})

	blocksEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blockscape_blocks_emitted_total",
		Help: "Blocks emitted by generation queries.",
	}, []string{sourceLabel})

	ascentSteps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blockscape_ascent_steps_total",
		Help: "Parent regions synthesized while enclosing viewports.",
	}, []string{sourceLabel})

	generationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blockscape_generation_errors_total",
		Help: "Queries that ended in a generation error.",
	}, []string{sourceLabel, kindLabel})

	queryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "blockscape_query_seconds",
		Help:    "Wall time of one generation query including frame assembly.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	}, []string{sourceLabel})

	sessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "blockscape_ws_sessions",
		Help: "Connected websocket viewer sessions.",
	})
)

// ObserveQuery records one query from source ("ws", "http", "replay").
func ObserveQuery(source string, st region.Stats, took time.Duration, err error) {
	queries.WithLabelValues(source).Inc()
	blocksEmitted.WithLabelValues(source).Add(float64(st.Blocks))
	ascentSteps.WithLabelValues(source).Add(float64(st.AscentSteps))
	queryLatency.WithLabelValues(source).Observe(took.Seconds())
	if err != nil {
		generationErrors.WithLabelValues(source, ErrorKind(err)).Inc()
	}
}

func SessionOpened() { sessions.Inc() }
func SessionClosed() { sessions.Dec() }

// ErrorKind is a low-cardinality label for a generation error.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, region.ErrDepthExceeded):
		return "depth_exceeded"
	case errors.Is(err, region.ErrAscentStalled):
		return "ascent_stalled"
	case errors.Is(err, region.ErrAscentLimit):
		return "ascent_limit"
	case errors.Is(err, region.ErrEmptyViewport):
		return "empty_viewport"
	case errors.Is(err, region.ErrBadRegion):
		return "bad_region"
	case errors.Is(err, region.ErrBadConfig):
		return "bad_config"
	default:
		return "other"
	}
}
