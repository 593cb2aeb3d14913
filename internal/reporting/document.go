package reporting

import (
	"encoding/json"
	"io"
	"sync"

	"sigs.k8s.io/yaml"

	"verdict/internal/result"
	"verdict/pkg/logging"
)

// documentReporter collects the run and writes it as one document.
type documentReporter struct {
	mu      sync.Mutex
	out     io.Writer
	info    result.RunInfo
	marshal func(Report) ([]byte, error)
}

// NewJSONReporter creates a reporter writing indented JSON.
func NewJSONReporter(options Options) result.Aggregator {
	return &documentReporter{out: options.Out, marshal: func(r Report) ([]byte, error) {
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}}
}

// NewYAMLReporter creates a reporter writing YAML. Field names follow the
// JSON tags of the result types.
func NewYAMLReporter(options Options) result.Aggregator {
	return &documentReporter{out: options.Out, marshal: func(r Report) ([]byte, error) {
		return yaml.Marshal(r)
	}}
}

func (r *documentReporter) ReportStart(info result.RunInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.info = info
}

func (r *documentReporter) ReportResult(result.TestResult) {}

func (r *documentReporter) ReportSummary(s result.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, err := r.marshal(Report{Run: r.info, Summary: s})
	if err != nil {
		logging.Error("Reporting", err, "Failed to encode report")
		return
	}
	if _, err := r.out.Write(data); err != nil {
		logging.Error("Reporting", err, "Failed to write report")
	}
}
