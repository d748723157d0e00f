// Package metrics exposes HTTP and team lifecycle counters to Prometheus.
package metrics

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yakoovad/hackathon-teams/internal/model"
	"net/http"
	"strconv"
	"time"
)

const (
	namespace = "hackathon"
	subsystem = "teams"
)

var histogramBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}

type Metrics struct {
	gatherer prometheus.Gatherer

	requestTotal   *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	rateLimitHits  *prometheus.CounterVec

	teamsCreated     prometheus.Counter
	requestsCreated  *prometheus.CounterVec
	requestsAccepted *prometheus.CounterVec
	requestsRejected prometheus.Counter
	requestsPurged   prometheus.Counter
}

// New registers the collectors on reg. Collectors already present in reg are reused,
// so calling New twice against the default registry is safe.
func New(reg prometheus.Registerer, gatherer prometheus.Gatherer) (*Metrics, error) {
	m := &Metrics{gatherer: gatherer}

	m.requestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "http_requests_total",
		Help:      "Count of processed HTTP requests",
	}, []string{"method", "route", "status"})

	m.requestLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "http_request_duration_seconds",
		Help:      "Latency distribution of HTTP handlers",
		Buckets:   histogramBuckets,
	}, []string{"method", "route", "status"})

	m.rateLimitHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "rate_limit_hits_total",
		Help:      "Number of rate-limited responses",
	}, []string{"route"})

	m.teamsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "created_total",
		Help:      "Number of teams created",
	})

	m.requestsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "requests_created_total",
		Help:      "Number of invitations and applications created",
	}, []string{"direction"})

	m.requestsAccepted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "requests_accepted_total",
		Help:      "Number of requests turned into memberships",
	}, []string{"direction"})

	m.requestsRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "requests_rejected_total",
		Help:      "Number of rejected requests",
	})

	m.requestsPurged = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "requests_purged_total",
		Help:      "Number of expired requests removed",
	})

	var err error
	if m.requestTotal, err = register(reg, m.requestTotal); err != nil {
		return nil, err
	}
	if m.requestLatency, err = register(reg, m.requestLatency); err != nil {
		return nil, err
	}
	if m.rateLimitHits, err = register(reg, m.rateLimitHits); err != nil {
		return nil, err
	}
	if m.teamsCreated, err = register(reg, m.teamsCreated); err != nil {
		return nil, err
	}
	if m.requestsCreated, err = register(reg, m.requestsCreated); err != nil {
		return nil, err
	}
	if m.requestsAccepted, err = register(reg, m.requestsAccepted); err != nil {
		return nil, err
	}
	if m.requestsRejected, err = register(reg, m.requestsRejected); err != nil {
		return nil, err
	}
	if m.requestsPurged, err = register(reg, m.requestsPurged); err != nil {
		return nil, err
	}

	return m, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, errors.Wrap(err, "register collector")
	}
	return c, nil
}

// Handler serves the gathered metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	labels := prometheus.Labels{
		"method": method,
		"route":  route,
		"status": strconv.Itoa(status),
	}
	m.requestTotal.With(labels).Inc()
	m.requestLatency.With(labels).Observe(duration.Seconds())
}

func (m *Metrics) RateLimitHit(route string) {
	m.rateLimitHits.WithLabelValues(route).Inc()
}

func (m *Metrics) TeamCreated() {
	m.teamsCreated.Inc()
}

func (m *Metrics) TeamRequestCreated(direction model.Direction) {
	m.requestsCreated.WithLabelValues(string(direction)).Inc()
}

func (m *Metrics) TeamRequestAccepted(direction model.Direction) {
	m.requestsAccepted.WithLabelValues(string(direction)).Inc()
}

func (m *Metrics) TeamRequestRejected() {
	m.requestsRejected.Inc()
}

func (m *Metrics) TeamRequestsPurged(count int64) {
	m.requestsPurged.Add(float64(count))
}
