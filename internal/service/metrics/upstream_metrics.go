package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Upstream labels.
const (
	UpstreamSentiment = "sentiment"
	UpstreamNarrative = "narrative"
	UpstreamFinnhub   = "finnhub"
	UpstreamPriceDB   = "clickhouse"
)

var (
	once sync.Once

	UpstreamLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fincast",
			Subsystem: "upstream",
			Name:      "latency_seconds",
			Help:      "Latency of calls to external collaborators",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
		},
		[]string{"upstream"},
	)

	UpstreamErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fincast",
			Subsystem: "upstream",
			Name:      "errors_total",
			Help:      "Failed calls to external collaborators, after retries",
		},
		[]string{"upstream"},
	)

	Fallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fincast",
			Subsystem: "upstream",
			Name:      "fallbacks_total",
			Help:      "Times a degraded substitute was served instead of the collaborator",
		},
		[]string{"upstream", "fallback"},
	)
)

// Register adds the upstream collectors to reg once per process.
func Register(reg prometheus.Registerer) {
	once.Do(func() {
		reg.MustRegister(UpstreamLatency, UpstreamErrors, Fallbacks)
	})
}

// ObserveCall records one finished upstream call.
func ObserveCall(upstream string, start time.Time, err error) {
	UpstreamLatency.WithLabelValues(upstream).Observe(time.Since(start).Seconds())
	if err != nil {
		UpstreamErrors.WithLabelValues(upstream).Inc()
	}
}

func RecordFallback(upstream, fallback string) {
	Fallbacks.WithLabelValues(upstream, fallback).Inc()
}
