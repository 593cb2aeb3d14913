// Package metrics records run statistics in a Prometheus registry and writes
// them in the text exposition format, suitable for the node_exporter
// textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"verdict/internal/failure"
	"verdict/internal/result"
	"verdict/pkg/logging"
)

const (
	MetricsNamespace = "verdict"
)

// Recorder collects metrics of one process. It observes analyzer invocations
// and consumes run results.
type Recorder struct {
	registry *prometheus.Registry

	fixturesTotal   *prometheus.CounterVec
	processDuration prometheus.Histogram
	processFailures *prometheus.CounterVec
	runDuration     prometheus.Gauge
	runSuccess      prometheus.Gauge
	runNodes        prometheus.Gauge
	lastRun         prometheus.Gauge
}

// NewRecorder returns a Recorder with its own registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		fixturesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "fixtures_total",
			Help:      "Count of checked fixtures",
		}, []string{
			"plugin",
			"status",
		}),
		processDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Name:      "process_duration_seconds",
			Help:      "Duration of analyzer invocations",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		processFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "process_failures_total",
			Help:      "Count of analyzer invocations that timed out or terminated abnormally",
		}, []string{
			"kind",
		}),
		runDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of the last run",
		}),
		runSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "run_success",
			Help:      "1 if no fixture failed in the last run, 0 otherwise",
		}),
		runNodes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "run_config_nodes",
			Help:      "Number of configuration nodes in the last run",
		}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished",
		}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// ProcessFinished records one analyzer invocation.
func (r *Recorder) ProcessFinished(elapsed time.Duration, err error) {
	r.processDuration.Observe(elapsed.Seconds())
	if err != nil {
		r.processFailures.WithLabelValues(failure.KindOf(err).String()).Inc()
	}
}

func (r *Recorder) ReportStart(info result.RunInfo) {
	r.runNodes.Set(float64(info.Nodes))
}

func (r *Recorder) ReportResult(tr result.TestResult) {
	r.fixturesTotal.WithLabelValues(tr.Plugin, string(tr.Status.Kind)).Inc()
}

func (r *Recorder) ReportSummary(s result.Summary) {
	r.runDuration.Set(s.Duration.Seconds())
	if s.Success() {
		r.runSuccess.Set(1)
	} else {
		r.runSuccess.Set(0)
	}
	end := s.EndTime
	if end.IsZero() {
		end = time.Now()
	}
	r.lastRun.Set(float64(end.Unix()))
}

// WriteTextfile writes all metrics to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return err
	}
	logging.Debug("Metrics", "Wrote metrics to %s", path)
	return nil
}
