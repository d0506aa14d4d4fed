// Package metricsvc exposes engine activity as Prometheus metrics.
package metricsvc

import (
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trezcool/cantine/core/selection"
)

const namespace = "cantine"

// Prometheus implements selection.Metrics.
type Prometheus struct {
	reg *prometheus.Registry

	assignments   *prometheus.CounterVec
	assigned      *prometheus.CounterVec
	importRows    *prometheus.CounterVec
	importLatency *prometheus.HistogramVec
}

var _ selection.Metrics = (*Prometheus)(nil)

// NewPrometheus registers the engine collectors, plus the go and process ones, on a fresh registry.
func NewPrometheus() *Prometheus {
	p := &Prometheus{
		reg: prometheus.NewRegistry(),
		assignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assignment",
			Name:      "calls_total",
			Help:      "Assign calls by policy and result (ok, partial, error).",
		}, []string{"policy", "result"}),
		assigned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assignment",
			Name:      "students_total",
			Help:      "Students passed to Assign by policy.",
		}, []string{"policy"}),
		importRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "rows_total",
			Help:      "Processed import rows by kind and success.",
		}, []string{"kind", "ok"}),
		importLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "duration_seconds",
			Help:      "Duration of bulk imports by kind.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms .. ~25s
		}, []string{"kind"}),
	}

	p.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		p.assignments,
		p.assigned,
		p.importRows,
		p.importLatency,
	)
	return p
}

func (p *Prometheus) Registry() *prometheus.Registry { return p.reg }

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{})
}

func (p *Prometheus) ObserveAssignment(policy selection.Policy, count int, err error) {
	result := "ok"
	if err != nil {
		result = "error"
		var aerr *selection.AssignmentError
		if errors.As(err, &aerr) && aerr.Partial {
			result = "partial"
		}
	}
	p.assignments.WithLabelValues(string(policy), result).Inc()
	p.assigned.WithLabelValues(string(policy)).Add(float64(count))
}

func (p *Prometheus) ObserveImportRow(kind string, ok bool) {
	p.importRows.WithLabelValues(kind, strconv.FormatBool(ok)).Inc()
}

func (p *Prometheus) ObserveImport(kind string, d time.Duration) {
	p.importLatency.WithLabelValues(kind).Observe(d.Seconds())
}
