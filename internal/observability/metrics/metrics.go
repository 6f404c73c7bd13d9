package metrics

import "github.com/prometheus/client_golang/prometheus"

// Outcome labels shared by the API client and the booking workflow.
const (
	OutcomeOK          = "ok"
	OutcomeRejected    = "rejected"
	OutcomeNoResponse  = "no_response"
	OutcomeRequest     = "request_error"
	OutcomeBadResponse = "bad_response"
	OutcomeInvalid     = "validation_failed"
)

// ClientMetrics exposes counters/histograms for Slotify API calls and the
// booking workflow running on top of them.
type ClientMetrics struct {
	requestsTotal  *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	bookingsTotal  *prometheus.CounterVec
	slotsListed    *prometheus.HistogramVec
}

func NewClientMetrics(reg prometheus.Registerer) *ClientMetrics {
	m := &ClientMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slotify",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total Slotify API requests by operation and outcome",
		}, []string{"operation", "outcome"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "slotify",
			Subsystem: "api",
			Name:      "request_latency_seconds",
			Help:      "Latency of Slotify API requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slotify",
			Subsystem: "booking",
			Name:      "submissions_total",
			Help:      "Booking form submissions by outcome",
		}, []string{"outcome"}),
		slotsListed: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "slotify",
			Subsystem: "timeslots",
			Name:      "listed_count",
			Help:      "Number of time slots returned per listing",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}, []string{"mode"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.requestLatency, m.bookingsTotal, m.slotsListed)
	return m
}

func (m *ClientMetrics) ObserveRequest(operation, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(operation, outcome).Inc()
	m.requestLatency.WithLabelValues(operation).Observe(seconds)
}

func (m *ClientMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *ClientMetrics) ObserveSlotsListed(mode string, count int) {
	if m == nil {
		return
	}
	m.slotsListed.WithLabelValues(mode).Observe(float64(count))
}
