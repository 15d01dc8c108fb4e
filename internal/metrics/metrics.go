package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bidops-platform/api/internal/importer"
)

var _ importer.Observer = (*Metrics)(nil)

type Metrics struct {
	registry *prometheus.Registry

	importsTotal  *prometheus.CounterVec
	rowsTotal     *prometheus.CounterVec
	messagesTotal *prometheus.CounterVec
	importLatency *prometheus.HistogramVec
	exportsTotal  *prometheus.CounterVec
}

// New registers the import collectors on a fresh registry, alongside the
// standard Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		importsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bidops",
			Name:      "imports_total",
			Help:      "Total number of completed import batches.",
		}, []string{"kind"}),
		rowsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bidops",
			Name:      "import_rows_total",
			Help:      "Rows processed by import, by outcome.",
		}, []string{"kind", "outcome"}),
		messagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bidops",
			Name:      "import_messages_total",
			Help:      "Warnings and errors reported back to callers.",
		}, []string{"kind"}),
		importLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bidops",
			Name:      "import_duration_seconds",
			Help:      "Latency distribution for import batches.",
			Buckets: []float64{
				0.01, 0.05,
				0.1, 0.25, 0.5,
				1, 2.5, 5, 10, 30,
			},
		}, []string{"kind"}),
		exportsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bidops",
			Name:      "exports_total",
			Help:      "Total number of spreadsheet exports served.",
		}, []string{"kind"}),
	}
}

func (m *Metrics) ObserveImport(kind importer.Kind, res importer.Result, elapsed time.Duration) {
	k := string(kind)
	m.importsTotal.WithLabelValues(k).Inc()
	m.rowsTotal.WithLabelValues(k, "new").Add(float64(res.NewCount))
	m.rowsTotal.WithLabelValues(k, "updated").Add(float64(res.UpdatedCount))
	m.rowsTotal.WithLabelValues(k, "failed").Add(float64(res.FailedCount))
	m.messagesTotal.WithLabelValues(k).Add(float64(len(res.Errors)))
	m.importLatency.WithLabelValues(k).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveExport(kind importer.Kind) {
	m.exportsTotal.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
