package metric

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "larder"

// Metrics holds all application instruments.
type Metrics struct {
	registry *prometheus.Registry

	exportDuration  *prometheus.HistogramVec
	importsTotal    *prometheus.CounterVec
	importedRecords prometheus.Counter
	autoBackupRuns  *prometheus.CounterVec
	backupsSaved    prometheus.Counter
	backupsEvicted  prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates the metrics set on a fresh registry, including the
// standard process and Go runtime collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		exportDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "export_duration_seconds",
			Help:      "Snapshot export duration by outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		importsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imports_total",
			Help:      "Snapshot imports by mode and outcome.",
		}, []string{"mode", "status"}),
		importedRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imported_records_total",
			Help:      "Records written by committed import batches.",
		}),
		autoBackupRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auto_backup_runs_total",
			Help:      "Auto-backup captures by outcome.",
		}, []string{"status"}),
		backupsSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "local_backups_saved_total",
			Help:      "Snapshots written to the local cache.",
		}),
		backupsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "local_backups_evicted_total",
			Help:      "Cache entries evicted by the per-tenant bound.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route, and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
	reg.MustRegister(
		m.exportDuration,
		m.importsTotal,
		m.importedRecords,
		m.autoBackupRuns,
		m.backupsSaved,
		m.backupsEvicted,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Registry exposes the underlying registry so storage backends can
// register their own collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler returns the /metrics HTTP handler.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveExport records one export with its outcome.
func (m *Metrics) ObserveExport(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.exportDuration.WithLabelValues(status).Observe(d.Seconds())
}

// ObserveImport records one import with its outcome and the number of
// records committed.
func (m *Metrics) ObserveImport(mode, status string, records int) {
	if m == nil {
		return
	}
	m.importsTotal.WithLabelValues(mode, status).Inc()
	m.importedRecords.Add(float64(records))
}

// IncAutoBackup records one auto-backup capture outcome.
func (m *Metrics) IncAutoBackup(status string) {
	if m == nil {
		return
	}
	m.autoBackupRuns.WithLabelValues(status).Inc()
}

// IncBackupSaved records one cache save.
func (m *Metrics) IncBackupSaved() {
	if m == nil {
		return
	}
	m.backupsSaved.Inc()
}

// IncBackupEvicted records one cache eviction.
func (m *Metrics) IncBackupEvicted() {
	if m == nil {
		return
	}
	m.backupsEvicted.Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}
