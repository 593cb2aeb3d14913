// Package result holds the per-fixture outcomes of a run and the contract
// for consuming them.
package result

import (
	"time"
)

// StatusKind is the outcome class of a fixture.
type StatusKind string

const (
	// KindPass indicates the fixture met its expectations
	KindPass StatusKind = "PASSED"
	// KindFail indicates the fixture did not meet its expectations or could not be checked
	KindFail StatusKind = "FAILED"
	// KindIgnored indicates the fixture was excluded from execution
	KindIgnored StatusKind = "IGNORED"
)

// Status is the verdict for a fixture. Message carries the full explanation
// and Short a one-line form suitable for tables.
type Status struct {
	Kind    StatusKind `json:"kind"`
	Message string     `json:"message,omitempty"`
	Short   string     `json:"short,omitempty"`
}

// Pass returns a passing status, optionally carrying a note.
func Pass(note string) Status {
	return Status{Kind: KindPass, Message: note, Short: note}
}

// Fail returns a failing status.
func Fail(message, short string) Status {
	return Status{Kind: KindFail, Message: message, Short: short}
}

// Ignored returns an ignored status.
func Ignored(reason string) Status {
	return Status{Kind: KindIgnored, Message: reason, Short: reason}
}

// DebugInfo is the evidence attached to a result.
type DebugInfo struct {
	// Stdout holds analyzer stdout lines that mention the fixture
	Stdout string `json:"stdout,omitempty"`
	// Stderr holds analyzer stderr lines that mention the fixture
	Stderr string `json:"stderr,omitempty"`
	// Error describes the failure that degraded the batch, if any
	Error string `json:"error,omitempty"`
	// Diff is the unified diff produced by the fix plugin
	Diff string `json:"diff,omitempty"`
}

// TestResult is the outcome for one fixture.
type TestResult struct {
	// Fixtures are the files this result covers; normally exactly one
	Fixtures []string `json:"fixtures"`
	// Plugin is the plugin kind that produced the result
	Plugin string `json:"plugin"`
	// Config is the location of the governing configuration file
	Config string `json:"config"`
	// Status is the verdict
	Status Status `json:"status"`
	// Debug holds captured output and error descriptions
	Debug DebugInfo `json:"debug,omitzero"`
	// Duration of the batch the fixture ran in
	Duration time.Duration `json:"duration"`
}

// Summary aggregates the results of a run.
type Summary struct {
	StartTime time.Time     `json:"startTime"`
	EndTime   time.Time     `json:"endTime"`
	Duration  time.Duration `json:"duration"`
	Total     int           `json:"total"`
	Passed    int           `json:"passed"`
	Failed    int           `json:"failed"`
	Ignored   int           `json:"ignored"`
	Results   []TestResult  `json:"results"`
}

// Add records r and updates the counters.
func (s *Summary) Add(r TestResult) {
	s.Results = append(s.Results, r)
	s.Total++
	switch r.Status.Kind {
	case KindPass:
		s.Passed++
	case KindFail:
		s.Failed++
	case KindIgnored:
		s.Ignored++
	}
}

// Success reports whether no fixture failed.
func (s Summary) Success() bool {
	return s.Failed == 0
}

// RunInfo describes a run as it starts.
type RunInfo struct {
	Entry    string `json:"entry"`
	Nodes    int    `json:"nodes"`
	Parallel int    `json:"parallel"`
}

// Aggregator consumes the results of a run. ReportResult may be called from
// several goroutines.
type Aggregator interface {
	// ReportStart is called once before any result
	ReportStart(info RunInfo)
	// ReportResult is called once per fixture
	ReportResult(r TestResult)
	// ReportSummary is called once after all results
	ReportSummary(s Summary)
}
