package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Booking metrics
	BookingsTotal       *prometheus.CounterVec
	BookingRejections   *prometheus.CounterVec
	SlotLockContention  prometheus.Counter
	BookingLatency      prometheus.Histogram
	AppointmentsByState *prometheus.GaugeVec

	// Schedule metrics
	WindowsCreated prometheus.Counter
	WindowsDeleted prometheus.Counter
}

// NewMetrics creates all application metrics and registers them with the
// given registerer. Tests pass a fresh registry so instances never
// collide.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BookingsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_total",
			Help:      "Total number of booking attempts",
		}, []string{"outcome"}),
		BookingRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_rejections_total",
			Help:      "Booking attempts rejected, labelled by error kind",
		}, []string{"kind"}),
		SlotLockContention: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slot_lock_contention_total",
			Help:      "Bookings that failed to acquire the per-slot lock in time",
		}),
		BookingLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "booking_duration_seconds",
			Help:      "Time spent inside the booking critical section",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		AppointmentsByState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "appointments_by_state",
			Help:      "Current number of appointments per status",
		}, []string{"status"}),
		WindowsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "availability_windows_created_total",
			Help:      "Total number of availability windows created",
		}),
		WindowsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "availability_windows_deleted_total",
			Help:      "Total number of availability windows deleted",
		}),
	}
}
