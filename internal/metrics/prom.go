package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Recorder records backtest runs in Prometheus metrics. A nil *Recorder is
// valid and records nothing.
type Recorder struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	revenue  *prometheus.GaugeVec
}

// NewRecorder registers run metrics on the default Prometheus registerer.
func NewRecorder() (*Recorder, error) {
	return NewRecorderWithRegistry(prometheus.DefaultRegisterer)
}

// NewRecorderWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewRecorderWithRegistry(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arbitrage_runs_total",
		Help: "Total number of backtest runs",
	}, []string{"strategy", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "arbitrage_run_duration_seconds",
		Help:    "Wall time of a backtest run, strategy construction included",
		Buckets: prometheus.DefBuckets,
	}, []string{"strategy"})
	revenue := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "arbitrage_revenue",
		Help: "Total revenue of the most recent successful run",
	}, []string{"strategy"})

	var err error
	if runs, err = register(reg, runs); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if revenue, err = register(reg, revenue); err != nil {
		return nil, err
	}
	return &Recorder{runs: runs, duration: duration, revenue: revenue}, nil
}

// register reuses an already registered collector of the same shape.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordRun counts one run and, on success, its revenue.
func (r *Recorder) RecordRun(strategy string, elapsed time.Duration, revenue float64, err error) {
	if r == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	r.runs.WithLabelValues(strategy, outcome).Inc()
	r.duration.WithLabelValues(strategy).Observe(elapsed.Seconds())
	if err == nil {
		r.revenue.WithLabelValues(strategy).Set(revenue)
	}
}
