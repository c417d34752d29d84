package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "campusrides"

var (
	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "bookings_total", Help: "Booking attempts by outcome"},
		[]string{"outcome"},
	)
	CancellationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "cancellations_total", Help: "Cancellation attempts by outcome"},
		[]string{"outcome"},
	)

	SeatsBooked    = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "seats_booked_total", Help: "Seats reserved by committed bookings"})
	SeatsReleased  = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "seats_released_total", Help: "Seats returned by committed cancellations"})
	RidesPublished = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "rides_published_total", Help: "Rides published"})

	RideStatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "ride_status_changes_total", Help: "Ride status writes by target status"},
		[]string{"status"},
	)

	ChatsCreated = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "chats_created_total", Help: "Chats created by get-or-create"})
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "messages_sent_total", Help: "Chat messages stored"})

	TransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transaction_duration_seconds",
			Help:      "Duration of multi-document transactions including retries",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	PushDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "push_deliveries_total", Help: "Push notification deliveries by platform and outcome"},
		[]string{"platform", "outcome"},
	)
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "events_published_total", Help: "Domain events by type and outcome"},
		[]string{"type", "outcome"},
	)
	EmailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "emails_sent_total", Help: "Outbound emails by outcome"},
		[]string{"outcome"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// RegisterLiveClients exposes the number of connected websocket clients.
func RegisterLiveClients(count func() int64) {
	promauto.NewGaugeFunc(
		prometheus.GaugeOpts{Namespace: namespace, Name: "live_clients", Help: "Connected websocket clients"},
		func() float64 { return float64(count()) },
	)
}

// Outcome labels.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)
