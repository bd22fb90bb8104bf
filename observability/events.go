package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"basalt/core/events"
)

// EventMetrics counts committed program events by type. It satisfies
// events.Emitter so the runtime can forward flushed events to it.
type EventMetrics struct {
	emitted *prometheus.CounterVec
}

var (
	eventMetricsOnce sync.Once
	eventRegistry    *EventMetrics
)

func NewEventMetrics(reg prometheus.Registerer) *EventMetrics {
	m := &EventMetrics{
		emitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "basalt",
			Subsystem: "events",
			Name:      "emitted_total",
			Help:      "Count of committed program events segmented by type.",
		}, []string{"type"}),
	}
	if reg != nil {
		reg.MustRegister(m.emitted)
	}
	return m
}

// Events returns the metrics registry tracking committed events.
func Events() *EventMetrics {
	eventMetricsOnce.Do(func() {
		eventRegistry = NewEventMetrics(prometheus.DefaultRegisterer)
	})
	return eventRegistry
}

func (m *EventMetrics) Emit(evt events.Event) {
	if m == nil || evt == nil {
		return
	}
	m.emitted.WithLabelValues(normalizeLabel(evt.EventType())).Inc()
}

func (m *EventMetrics) EmittedVec() *prometheus.CounterVec {
	if m == nil {
		return nil
	}
	return m.emitted
}
