package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry        *prom.Registry
	versionDuration *prom.HistogramVec
	runDuration     prom.Histogram
	stepResults     *prom.CounterVec
	runOutcomes     *prom.CounterVec
	mergedFiles     *prom.CounterVec
	lastSuccess     prom.Gauge
}

// Generator builds are slow; default buckets top out at 10s.
var buildBuckets = []float64{5, 15, 30, 60, 120, 300, 600, 1200, 2400}

// NewPrometheusRecorder constructs and registers the collectors on reg (a new
// registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.versionDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: "docversions",
		Name:      "version_build_duration_seconds",
		Help:      "Duration of one version's patch, build and merge cycle",
		Buckets:   buildBuckets,
	}, []string{"version"})
	pr.runDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: "docversions",
		Name:      "run_duration_seconds",
		Help:      "Total orchestrator run duration",
		Buckets:   buildBuckets,
	})
	pr.stepResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "docversions",
		Name:      "step_results_total",
		Help:      "Toolchain and assembly step results by outcome",
	}, []string{"step", "result"})
	pr.runOutcomes = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "docversions",
		Name:      "run_outcomes_total",
		Help:      "Orchestrator runs by final status",
	}, []string{"outcome"})
	pr.mergedFiles = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "docversions",
		Name:      "merged_files_total",
		Help:      "Files merged into the staging tree per version",
	}, []string{"version"})
	pr.lastSuccess = prom.NewGauge(prom.GaugeOpts{
		Namespace: "docversions",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last successful run",
	})
	reg.MustRegister(pr.versionDuration, pr.runDuration, pr.stepResults, pr.runOutcomes, pr.mergedFiles, pr.lastSuccess)
	return pr
}

// Registry returns the registry the collectors live on.
func (p *PrometheusRecorder) Registry() *prom.Registry {
	return p.registry
}

func (p *PrometheusRecorder) ObserveVersionDuration(version string, d time.Duration) {
	if p == nil {
		return
	}
	p.versionDuration.WithLabelValues(version).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStepResult(step string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stepResults.WithLabelValues(step, string(result)).Inc()
}

func (p *PrometheusRecorder) IncRunOutcome(outcome RunOutcome) {
	if p == nil {
		return
	}
	p.runOutcomes.WithLabelValues(string(outcome)).Inc()
	if outcome == OutcomeSuccess {
		p.lastSuccess.SetToCurrentTime()
	}
}

func (p *PrometheusRecorder) AddMergedFiles(version string, n int) {
	if p == nil {
		return
	}
	p.mergedFiles.WithLabelValues(version).Add(float64(n))
}

// WriteTextfile writes the registry in Prometheus text format to path.
// The write is atomic so a concurrent scrape never sees a partial file.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create metrics directory: %w", err)
		}
	}
	if err := prom.WriteToTextfile(path, p.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
