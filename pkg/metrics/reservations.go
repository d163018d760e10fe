package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ReservationMetrics tracks the unlock lifecycle counters.
type ReservationMetrics struct {
	unlocks   *prometheus.CounterVec
	refunds   *prometheus.CounterVec
	oversells prometheus.Counter
}

// NewReservationMetrics registers the reservation metrics on the provided registerer.
func NewReservationMetrics(reg prometheus.Registerer) *ReservationMetrics {
	if reg == nil {
		return &ReservationMetrics{}
	}
	unlocks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reservation_unlocks_granted",
		Help: "Unlocks granted after verified payment.",
	}, []string{"tier"})
	refunds := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reservation_refunds",
		Help: "Refunds processed for paid unlocks.",
	}, []string{"tier"})
	oversells := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reservation_oversell_alerts",
		Help: "Unlocks granted while the listing had no rooms left to decrement.",
	})
	reg.MustRegister(unlocks, refunds, oversells)
	return &ReservationMetrics{
		unlocks:   unlocks,
		refunds:   refunds,
		oversells: oversells,
	}
}

// IncUnlock increments the granted-unlock counter for the listing tier.
func (m *ReservationMetrics) IncUnlock(tier string) {
	if m == nil || m.unlocks == nil {
		return
	}
	m.unlocks.WithLabelValues(normalizeLabel(tier)).Inc()
}

// IncRefund increments the refund counter for the listing tier.
func (m *ReservationMetrics) IncRefund(tier string) {
	if m == nil || m.refunds == nil {
		return
	}
	m.refunds.WithLabelValues(normalizeLabel(tier)).Inc()
}

// IncOversell increments the oversell alert counter.
func (m *ReservationMetrics) IncOversell() {
	if m == nil || m.oversells == nil {
		return
	}
	m.oversells.Inc()
}
