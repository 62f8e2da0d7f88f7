// Package metrics records per-run pipeline metrics and writes them in the
// Prometheus textfile format for a node exporter to pick up.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mip"

// Result labels of the packages counter.
const (
	ResultPrepared = "prepared"
	ResultSkipped  = "skipped"
	ResultFailed   = "failed"
)

// Recorder collects metrics of one mip-prepare run.
type Recorder struct {
	registry *prometheus.Registry
	packages *prometheus.CounterVec
	duration *prometheus.GaugeVec
	symbols  *prometheus.GaugeVec
	lastRun  prometheus.Gauge
}

// NewRecorder creates a recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		packages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "prepare",
			Name:      "packages_total",
			Help:      "Packages handled by the last prepare run, by result.",
		}, []string{"result"}),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "prepare",
			Name:      "duration_seconds",
			Help:      "Time spent preparing a package.",
		}, []string{"package"}),
		symbols: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "prepare",
			Name:      "exposed_symbols",
			Help:      "Number of symbols exposed by a prepared package.",
		}, []string{"package"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "prepare",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last prepare run finished.",
		}),
	}

	r.registry.MustRegister(r.packages, r.duration, r.symbols, r.lastRun)

	for _, result := range []string{ResultPrepared, ResultSkipped, ResultFailed} {
		r.packages.WithLabelValues(result)
	}

	return r
}

// Prepared records a successful build.
func (r *Recorder) Prepared(pkg string, took time.Duration, symbols int) {
	r.packages.WithLabelValues(ResultPrepared).Inc()
	r.duration.WithLabelValues(pkg).Set(took.Seconds())
	r.symbols.WithLabelValues(pkg).Set(float64(symbols))
}

// Skipped records a package whose published build was reused.
func (r *Recorder) Skipped() {
	r.packages.WithLabelValues(ResultSkipped).Inc()
}

// Failed records a failed build.
func (r *Recorder) Failed(pkg string, took time.Duration) {
	r.packages.WithLabelValues(ResultFailed).Inc()
	r.duration.WithLabelValues(pkg).Set(took.Seconds())
}

// Gatherer exposes the underlying registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile stamps the run time and writes every metric to path.
func (r *Recorder) WriteTextfile(path string, finished time.Time) error {
	r.lastRun.Set(float64(finished.Unix()))

	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}

	return nil
}
