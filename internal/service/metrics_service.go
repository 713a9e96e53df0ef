package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/unitime-api/internal/models"
)

// MetricsService owns the Prometheus registry of the scheduling API and keeps
// a few plain counters for the JSON summary endpoint.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	httpDuration *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec

	occupancyLookups       *prometheus.CounterVec
	occupancyCacheSeconds  *prometheus.HistogramVec
	occupancyBuildSeconds  prometheus.Histogram
	occupancyHitRatio      prometheus.Gauge
	occupancyInvalidations *prometheus.CounterVec
	occupancyWarmups       *prometheus.CounterVec

	assignments *prometheus.CounterVec
	conflicts   *prometheus.CounterVec

	totals metricTotals
}

type metricTotals struct {
	requests      atomic.Uint64
	requestNanos  atomic.Uint64
	cacheHits     atomic.Uint64
	cacheMisses   atomic.Uint64
	builds        atomic.Uint64
	buildNanos    atomic.Uint64
	invalidations atomic.Uint64
	committed     atomic.Uint64
	rejected      atomic.Uint64
}

// NewMetricsService registers the API collectors on a private registry.
func NewMetricsService() *MetricsService {
	m := &MetricsService{
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		occupancyLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "occupancy_cache_lookups_total",
			Help: "Occupancy cache lookups by result",
		}, []string{"result"}),
		occupancyCacheSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "occupancy_cache_seconds",
			Help:    "Latency of occupancy cache reads and writes",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}, []string{"op"}),
		occupancyBuildSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "occupancy_build_seconds",
			Help:    "Time spent loading occupancy rows from the database",
			Buckets: prometheus.DefBuckets,
		}),
		occupancyHitRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "occupancy_cache_hit_ratio",
			Help: "Ratio of occupancy cache hits to lookups",
		}),
		occupancyInvalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "occupancy_cache_invalidations_total",
			Help: "Occupancy cache invalidations by scope",
		}, []string{"scope"}),
		occupancyWarmups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "occupancy_warmups_total",
			Help: "Background occupancy rebuilds by result",
		}, []string{"result"}),
		assignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "schedule_assignments_total",
			Help: "Scheduling writes by operation and outcome",
		}, []string{"operation", "outcome"}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "schedule_conflicts_total",
			Help: "Detected scheduling conflicts by resource",
		}, []string{"kind"}),
	}

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	m.registry = prometheus.NewRegistry()
	m.registry.MustRegister(
		m.httpDuration, m.httpRequests,
		m.occupancyLookups, m.occupancyCacheSeconds, m.occupancyBuildSeconds, m.occupancyHitRatio,
		m.occupancyInvalidations, m.occupancyWarmups,
		m.assignments, m.conflicts,
		goroutines,
	)
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one served request. path must be a route template.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	m.httpRequests.WithLabelValues(method, path, code).Inc()
	m.totals.requests.Add(1)
	m.totals.requestNanos.Add(uint64(duration.Nanoseconds()))
}

// RecordOccupancyLookup counts an occupancy cache read.
func (m *MetricsService) RecordOccupancyLookup(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.occupancyCacheSeconds.WithLabelValues("get").Observe(duration.Seconds())
	if hit {
		m.occupancyLookups.WithLabelValues("hit").Inc()
		m.totals.cacheHits.Add(1)
	} else {
		m.occupancyLookups.WithLabelValues("miss").Inc()
		m.totals.cacheMisses.Add(1)
	}
	hits, misses := m.totals.cacheHits.Load(), m.totals.cacheMisses.Load()
	m.occupancyHitRatio.Set(float64(hits) / float64(hits+misses))
}

// ObserveOccupancyCacheWrite times storing a rebuilt index.
func (m *MetricsService) ObserveOccupancyCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.occupancyCacheSeconds.WithLabelValues("set").Observe(duration.Seconds())
}

// ObserveOccupancyBuild times the database read behind an index.
func (m *MetricsService) ObserveOccupancyBuild(duration time.Duration) {
	if m == nil {
		return
	}
	m.occupancyBuildSeconds.Observe(duration.Seconds())
	m.totals.builds.Add(1)
	m.totals.buildNanos.Add(uint64(duration.Nanoseconds()))
}

// RecordOccupancyInvalidation counts a dropped cache scope ("day" or "semester").
func (m *MetricsService) RecordOccupancyInvalidation(scope string) {
	if m == nil {
		return
	}
	m.occupancyInvalidations.WithLabelValues(scope).Inc()
	m.totals.invalidations.Add(1)
}

// RecordOccupancyWarmup counts a background rebuild.
func (m *MetricsService) RecordOccupancyWarmup(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.occupancyWarmups.WithLabelValues(result).Inc()
}

// RecordAssignmentOutcome counts a scheduling write by its outcome.
func (m *MetricsService) RecordAssignmentOutcome(operation string, kind models.OutcomeKind) {
	if m == nil {
		return
	}
	m.assignments.WithLabelValues(operation, string(kind)).Inc()
	if kind == models.OutcomeCommitted {
		m.totals.committed.Add(1)
	} else {
		m.totals.rejected.Add(1)
	}
}

// RecordConflicts counts detected conflicts per resource kind.
func (m *MetricsService) RecordConflicts(conflicts []models.ScheduleConflict) {
	if m == nil {
		return
	}
	for _, c := range conflicts {
		m.conflicts.WithLabelValues(string(c.Kind)).Inc()
	}
}

// MetricsSnapshot is the JSON view served by the summary endpoint.
type MetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheInvalidations       uint64    `json:"cache_invalidations"`
	OccupancyBuilds          uint64    `json:"occupancy_builds"`
	AverageOccupancyBuildMs  float64   `json:"average_occupancy_build_ms"`
	AssignmentsCommitted     uint64    `json:"assignments_committed"`
	AssignmentsRejected      uint64    `json:"assignments_rejected"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// Snapshot returns aggregated metrics for the summary endpoint.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	t := &m.totals
	hits, misses := t.cacheHits.Load(), t.cacheMisses.Load()
	snapshot := MetricsSnapshot{
		RequestsTotal:            t.requests.Load(),
		AverageRequestDurationMs: averageMillis(t.requestNanos.Load(), t.requests.Load()),
		CacheHits:                hits,
		CacheMisses:              misses,
		CacheInvalidations:       t.invalidations.Load(),
		OccupancyBuilds:          t.builds.Load(),
		AverageOccupancyBuildMs:  averageMillis(t.buildNanos.Load(), t.builds.Load()),
		AssignmentsCommitted:     t.committed.Load(),
		AssignmentsRejected:      t.rejected.Load(),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
	if total := hits + misses; total > 0 {
		snapshot.CacheHitRatio = float64(hits) / float64(total)
	}
	return snapshot
}

func averageMillis(nanos, count uint64) float64 {
	if count == 0 {
		return 0
	}
	return float64(nanos) / float64(count) / float64(time.Millisecond)
}
