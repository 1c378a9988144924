package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"FinCast/internal/domain/models"
	"FinCast/internal/domain/repository"
)

var _ repository.Metrics = (*Recorder)(nil)

// Recorder implements repository.Metrics using Prometheus.
type Recorder struct {
	analyses    *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	riskScore   *prometheus.GaugeVec
	confidence  *prometheus.GaugeVec
	latency     *prometheus.HistogramVec
}

// New registers the recorder's collectors on reg. Registering twice on the
// same registry reuses the existing collectors.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fincast_analyses_total",
			Help: "Completed prediction analyses by direction",
		}, []string{"symbol", "direction"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fincast_errors_total",
			Help: "Errors encountered by kind",
		}, []string{"kind"}),
		riskScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fincast_last_risk_score",
			Help: "Most recent risk score per symbol",
		}, []string{"symbol"}),
		confidence: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fincast_last_confidence_score",
			Help: "Most recent confidence score per symbol",
		}, []string{"symbol"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fincast_operation_duration_seconds",
			Help:    "Duration of pipeline operations in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"operation"}),
	}
	r.analyses = mustRegister(reg, r.analyses).(*prometheus.CounterVec)
	r.errorsTotal = mustRegister(reg, r.errorsTotal).(*prometheus.CounterVec)
	r.riskScore = mustRegister(reg, r.riskScore).(*prometheus.GaugeVec)
	r.confidence = mustRegister(reg, r.confidence).(*prometheus.GaugeVec)
	r.latency = mustRegister(reg, r.latency).(*prometheus.HistogramVec)
	return r
}

func mustRegister(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if reg == nil {
		return c
	}
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector
		}
		panic(err)
	}
	return c
}

func (r *Recorder) RecordAnalysis(symbol string, direction models.Direction) {
	r.analyses.WithLabelValues(symbol, string(direction)).Inc()
}

func (r *Recorder) RecordScores(symbol string, risk, confidence int) {
	r.riskScore.WithLabelValues(symbol).Set(float64(risk))
	r.confidence.WithLabelValues(symbol).Set(float64(confidence))
}

func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
