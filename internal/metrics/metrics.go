// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Bulk patch outcomes.
const (
	OutcomeApplied = "applied"
	OutcomeNoop    = "noop"
	OutcomeFailed  = "failed"
)

// Registry is the collector set of one server. Tests build their own with New.
type Registry struct {
	reg *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	activations     *prometheus.CounterVec
	settingUpdates  *prometheus.CounterVec
	valueDeletes    *prometheus.CounterVec
	bulkPatches     *prometheus.CounterVec
	bulkEntities    *prometheus.CounterVec
	resolveRequests *prometheus.CounterVec
}

func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cardvault", Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cardvault", Subsystem: "http", Name: "request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		activations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cardvault", Subsystem: "fields", Name: "activations_total",
			Help: "Custom field slots activated.",
		}, []string{"kind", "type"}),
		settingUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cardvault", Subsystem: "fields", Name: "setting_updates_total",
			Help: "Field setting updates.",
		}, []string{"kind"}),
		valueDeletes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cardvault", Subsystem: "fields", Name: "value_deletes_total",
			Help: "Legacy value deletions by result.",
		}, []string{"kind", "result"}),
		bulkPatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cardvault", Subsystem: "bulk", Name: "patches_total",
			Help: "Bulk edits by outcome.",
		}, []string{"kind", "outcome"}),
		bulkEntities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cardvault", Subsystem: "bulk", Name: "entities_patched_total",
			Help: "Entities written by bulk edits.",
		}, []string{"kind"}),
		resolveRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cardvault", Subsystem: "fields", Name: "resolutions_total",
			Help: "Field resolutions by mode.",
		}, []string{"kind", "mode"}),
	}
	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.httpRequests, r.httpDuration,
		r.activations, r.settingUpdates, r.valueDeletes,
		r.bulkPatches, r.bulkEntities, r.resolveRequests,
	)
	return r
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Gatherer exposes the registry to tests.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

func (r *Registry) ObserveHTTP(method, route string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (r *Registry) FieldActivated(kind, valueType string) {
	if r == nil {
		return
	}
	r.activations.WithLabelValues(kind, valueType).Inc()
}

func (r *Registry) SettingUpdated(kind string) {
	if r == nil {
		return
	}
	r.settingUpdates.WithLabelValues(kind).Inc()
}

// ValueDeleted records a delete attempt; rejected is true when the guard refused it.
func (r *Registry) ValueDeleted(kind string, rejected bool) {
	if r == nil {
		return
	}
	result := "deleted"
	if rejected {
		result = "rejected"
	}
	r.valueDeletes.WithLabelValues(kind, result).Inc()
}

func (r *Registry) BulkPatch(kind, outcome string, entities int) {
	if r == nil {
		return
	}
	r.bulkPatches.WithLabelValues(kind, outcome).Inc()
	if entities > 0 {
		r.bulkEntities.WithLabelValues(kind).Add(float64(entities))
	}
}

func (r *Registry) Resolved(kind string, readOnly bool) {
	if r == nil {
		return
	}
	mode := "edit"
	if readOnly {
		mode = "read"
	}
	r.resolveRequests.WithLabelValues(kind, mode).Inc()
}
