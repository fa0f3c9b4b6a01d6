package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	requestDuration   *prometheus.HistogramVec
	bookingsCreated   prometheus.Counter
	bookingsCancelled prometheus.Counter
	bookingsCompleted prometheus.Counter
	refundCents       prometheus.Counter
}

func New(service string) *Metrics {
	labels := prometheus.Labels{"service": service}
	return &Metrics{
		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency by method, path and status.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		bookingsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bookings_created_total", Help: "Bookings created.", ConstLabels: labels,
		}),
		bookingsCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bookings_cancelled_total", Help: "Bookings cancelled.", ConstLabels: labels,
		}),
		bookingsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bookings_completed_total", Help: "Bookings swept to completed.", ConstLabels: labels,
		}),
		refundCents: promauto.NewCounter(prometheus.CounterOpts{
			Name: "refunds_issued_cents_total", Help: "Total refunded amount in cents.", ConstLabels: labels,
		}),
	}
}

func (m *Metrics) BookingCreated() { m.bookingsCreated.Inc() }
func (m *Metrics) BookingCancelled(refundCents int64) {
	m.bookingsCancelled.Inc()
	m.refundCents.Add(float64(refundCents))
}
func (m *Metrics) BookingsCompleted(n int) { m.bookingsCompleted.Add(float64(n)) }

// Middleware records request latency per route. Uses the route template, not
// the raw path, so reference parameters do not explode label cardinality.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.requestDuration.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
