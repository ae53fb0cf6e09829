// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cinema",
		Name:      "bookings_created_total",
		Help:      "Bookings committed.",
	})

	BookingsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cinema",
		Name:      "bookings_cancelled_total",
		Help:      "Bookings cancelled and refunded.",
	})

	SeatsReserved = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cinema",
		Name:      "seats_reserved_total",
		Help:      "Seats taken by committed bookings.",
	})

	SeatsReleased = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cinema",
		Name:      "seats_released_total",
		Help:      "Seats returned by cancellations.",
	})

	BookingRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cinema",
		Name:      "booking_rejections_total",
		Help:      "Booking attempts rejected by a business rule.",
	}, []string{"reason"})

	ScheduleConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cinema",
		Name:      "schedule_conflicts_total",
		Help:      "Screening writes rejected because the hall was already busy.",
	})

	TxRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cinema",
		Name:      "tx_retries_total",
		Help:      "Transactions retried after serialization failure, deadlock or lock timeout.",
	})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cinema",
		Name:      "cache_lookups_total",
		Help:      "Upcoming screening cache lookups by result.",
	}, []string{"result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cinema",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
