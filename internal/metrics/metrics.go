package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bizadmin_client"

// Collectors groups the client-side instruments. Each apiclient.Client owns one set,
// registered on the Registerer it was built with.
type Collectors struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Refreshes       *prometheus.CounterVec
	Retries         prometheus.Counter
}

// Refresh outcomes
const (
	RefreshSucceeded = "success"
	RefreshFailed    = "failure"
	RefreshSkipped   = "reused"
)

func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of backend requests sent, by method and status.",
			},
			[]string{"method", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of backend requests.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
			},
			[]string{"method"},
		),
		Refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "auth",
				Name:      "token_refresh_total",
				Help:      "Access token refreshes triggered by 401 responses, by outcome.",
			},
			[]string{"outcome"},
		),
		Retries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "retries_total",
				Help:      "Requests re-issued after a 401.",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(c.Requests, c.RequestDuration, c.Refreshes, c.Retries)
	}
	return c
}

// ObserveRequest records one round trip. status 0 means no response reached the client.
func (c *Collectors) ObserveRequest(method string, status int, elapsed time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	c.Requests.WithLabelValues(method, label).Inc()
	c.RequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (c *Collectors) ObserveRefresh(outcome string) {
	c.Refreshes.WithLabelValues(outcome).Inc()
}
