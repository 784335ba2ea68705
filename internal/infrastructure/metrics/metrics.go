package metrics

import (
	"net/http"
	"strconv"
	"time"

	"catalog-content-sync/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors of one run. A nil *Metrics records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	actions         *prometheus.CounterVec
	tasks           *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
}

// New registers the sync collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "catalogsync_platform_requests_total",
			Help: "Platform API requests by method and response status",
		}, []string{"method", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "catalogsync_platform_request_duration_seconds",
			Help:    "Platform API request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		actions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "catalogsync_actions_total",
			Help: "Settled sync actions by family and status",
		}, []string{"family", "status"}),
		tasks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "catalogsync_task_transitions_total",
			Help: "Sync task state transitions",
		}, []string{"family", "state"}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "catalogsync_cache_lookups_total",
			Help: "In-memory cache lookups by cache and result",
		}, []string{"cache", "result"}),
	}
}

func (m *Metrics) ObserveRequest(method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.requests.WithLabelValues(method, label).Inc()
	m.requestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// ObserveAction counts actions once they leave the pending state.
func (m *Metrics) ObserveAction(a domain.Action) {
	if m == nil || a.Status == domain.ActionPending {
		return
	}
	m.actions.WithLabelValues(a.Family, string(a.Status)).Inc()
}

func (m *Metrics) ObserveTask(family string, state domain.TaskState) {
	if m == nil {
		return
	}
	m.tasks.WithLabelValues(family, string(state)).Inc()
}

func (m *Metrics) ObserveCacheLookup(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(cache, result).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests and embedding.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
