package metrics

import "github.com/prometheus/client_golang/prometheus"

// Availability fetch outcomes.
const (
	OutcomeReady   = "ready"
	OutcomeEmpty   = "empty"
	OutcomeHoliday = "holiday"
	OutcomeError   = "error"
)

// Submission outcomes.
const (
	SubmitSucceeded = "succeeded"
	SubmitFailed    = "failed"
	SubmitSimulated = "simulated"
)

// BookingMetrics exposes counters/histograms for the booking flow.
type BookingMetrics struct {
	availabilityTotal   *prometheus.CounterVec
	availabilityLatency prometheus.Histogram
	staleDiscarded      prometheus.Counter
	submitTotal         *prometheus.CounterVec
	submitLatency       prometheus.Histogram
	activeSessions      prometheus.Gauge
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		availabilityTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "patient_booking",
			Subsystem: "availability",
			Name:      "fetch_total",
			Help:      "Availability fetches by outcome",
		}, []string{"outcome"}),
		availabilityLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "patient_booking",
			Subsystem: "availability",
			Name:      "fetch_latency_seconds",
			Help:      "Latency of doctor slot lookups",
			Buckets:   prometheus.DefBuckets,
		}),
		staleDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "patient_booking",
			Subsystem: "availability",
			Name:      "stale_discarded_total",
			Help:      "Slot responses dropped because a newer date was selected",
		}),
		submitTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "patient_booking",
			Subsystem: "booking",
			Name:      "submit_total",
			Help:      "Booking submissions by outcome",
		}, []string{"outcome"}),
		submitLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "patient_booking",
			Subsystem: "booking",
			Name:      "submit_latency_seconds",
			Help:      "Latency of booking submissions",
			Buckets:   prometheus.DefBuckets,
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "patient_booking",
			Subsystem: "gateway",
			Name:      "active_sessions",
			Help:      "Booking sessions currently held by the gateway",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.availabilityTotal, m.availabilityLatency, m.staleDiscarded,
		m.submitTotal, m.submitLatency, m.activeSessions)
	return m
}

func (m *BookingMetrics) ObserveAvailability(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.availabilityTotal.WithLabelValues(outcome).Inc()
	m.availabilityLatency.Observe(seconds)
}

func (m *BookingMetrics) ObserveStaleDiscard() {
	if m == nil {
		return
	}
	m.staleDiscarded.Inc()
}

func (m *BookingMetrics) ObserveSubmit(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.submitTotal.WithLabelValues(outcome).Inc()
	m.submitLatency.Observe(seconds)
}

func (m *BookingMetrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}
