package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics records the order lifecycle.
type OrderMetrics struct {
	placed               prometheus.Counter
	placementFailures    *prometheus.CounterVec
	transitions          *prometheus.CounterVec
	restockedUnits       prometheus.Counter
	notificationFailures *prometheus.CounterVec
}

// NewOrderMetrics registers the order metrics on reg. A nil reg yields a no-op recorder.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	m := &OrderMetrics{
		placed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_placed_total",
			Help: "Orders committed by checkout.",
		}),
		placementFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_placement_failures_total",
			Help: "Rejected or failed checkout attempts by error code.",
		}, []string{"code"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_status_transitions_total",
			Help: "Committed order status changes.",
		}, []string{"from", "to"}),
		restockedUnits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "order_restocked_units_total",
			Help: "Units returned to stock by cancellations.",
		}),
		notificationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Notifications that could not be delivered.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.placed, m.placementFailures, m.transitions, m.restockedUnits, m.notificationFailures)
	return m
}

func (m *OrderMetrics) IncPlaced() {
	if m == nil || m.placed == nil {
		return
	}
	m.placed.Inc()
}

func (m *OrderMetrics) IncPlacementFailure(code string) {
	if m == nil || m.placementFailures == nil {
		return
	}
	m.placementFailures.WithLabelValues(normalizeLabel(code)).Inc()
}

func (m *OrderMetrics) IncTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

func (m *OrderMetrics) AddRestocked(units int) {
	if m == nil || m.restockedUnits == nil || units <= 0 {
		return
	}
	m.restockedUnits.Add(float64(units))
}

func (m *OrderMetrics) IncNotificationFailure(kind string) {
	if m == nil || m.notificationFailures == nil {
		return
	}
	m.notificationFailures.WithLabelValues(normalizeLabel(kind)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
