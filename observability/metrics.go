package observability

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// InstructionMetrics tracks runtime instruction throughput and latency.
type InstructionMetrics struct {
	executed *prometheus.CounterVec
	failed   *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

var (
	instructionMetricsOnce sync.Once
	instructionRegistry    *InstructionMetrics
)

// NewInstructionMetrics builds the collectors and registers them with reg when
// it is non-nil.
func NewInstructionMetrics(reg prometheus.Registerer) *InstructionMetrics {
	m := &InstructionMetrics{
		executed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "basalt",
			Subsystem: "runtime",
			Name:      "instructions_total",
			Help:      "Instructions executed segmented by program, operation and outcome.",
		}, []string{"program", "op", "outcome"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "basalt",
			Subsystem: "runtime",
			Name:      "instruction_failures_total",
			Help:      "Rejected instructions segmented by program and error category.",
		}, []string{"program", "category"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "basalt",
			Subsystem: "runtime",
			Name:      "instruction_duration_seconds",
			Help:      "Latency distribution for instruction execution including commit.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"program", "op"}),
	}
	if reg != nil {
		reg.MustRegister(m.executed, m.failed, m.latency)
	}
	return m
}

// Instructions returns the lazily-initialised metrics registered with the
// default prometheus registry.
func Instructions() *InstructionMetrics {
	instructionMetricsOnce.Do(func() {
		instructionRegistry = NewInstructionMetrics(prometheus.DefaultRegisterer)
	})
	return instructionRegistry
}

// Observe records one executed instruction. category is empty on success.
func (m *InstructionMetrics) Observe(program, op, category string, duration time.Duration) {
	if m == nil {
		return
	}
	program = normalizeLabel(program)
	op = normalizeLabel(op)
	outcome := "ok"
	if category != "" {
		outcome = "error"
		m.failed.WithLabelValues(program, normalizeLabel(category)).Inc()
	}
	m.executed.WithLabelValues(program, op, outcome).Inc()
	m.latency.WithLabelValues(program, op).Observe(duration.Seconds())
}

// ExecutedVec exposes the outcome counter for tests.
func (m *InstructionMetrics) ExecutedVec() *prometheus.CounterVec {
	if m == nil {
		return nil
	}
	return m.executed
}

func (m *InstructionMetrics) FailedVec() *prometheus.CounterVec {
	if m == nil {
		return nil
	}
	return m.failed
}

func normalizeLabel(v string) string {
	trimmed := strings.ToLower(strings.TrimSpace(v))
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}
