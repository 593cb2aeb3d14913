// Package reporting renders run results for people and tools.
//
// Every reporter implements result.Aggregator. Plain output streams one line
// per fixture as results arrive; table, JSON and YAML output are rendered
// once the run summary is known.
package reporting

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"verdict/internal/result"
)

// Format represents the desired report format
type Format string

const (
	FormatPlain Format = "plain" // One line per fixture
	FormatTable Format = "table" // Rich table output
	FormatJSON  Format = "json"  // JSON document
	FormatYAML  Format = "yaml"  // YAML document
)

// Formats lists the supported formats.
var Formats = []Format{FormatPlain, FormatTable, FormatJSON, FormatYAML}

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown report type %q (expected one of plain, table, json, yaml)", s)
}

// Options configures reporter behavior
type Options struct {
	Format Format
	Out    io.Writer
	// Verbose adds captured output and diffs of failing fixtures
	Verbose bool
	// Quiet limits streamed output to failures
	Quiet bool
	// Color enables colored table output
	Color bool
	// BaseDir shortens fixture paths in human readable output
	BaseDir string
}

// Report is the document written by the JSON and YAML reporters.
type Report struct {
	Run     result.RunInfo `json:"run"`
	Summary result.Summary `json:"summary"`
}

// New creates the reporter for options.Format.
func New(options Options) (result.Aggregator, error) {
	if options.Out == nil {
		options.Out = os.Stdout
	}
	switch options.Format {
	case FormatPlain, "":
		return NewPlainReporter(options), nil
	case FormatTable:
		return NewTableReporter(options), nil
	case FormatJSON:
		return NewJSONReporter(options), nil
	case FormatYAML:
		return NewYAMLReporter(options), nil
	default:
		return nil, fmt.Errorf("unknown report type %q", options.Format)
	}
}

// Extension is the file extension used for reports in format f.
func Extension(f Format) string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return "txt"
	}
}

// CreateReportFile creates a timestamped report file in dir.
func CreateReportFile(dir string, f Format, now time.Time) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}
	name := fmt.Sprintf("verdict-report-%s.%s", now.Format("20060102-150405"), Extension(f))
	file, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}
	return file, nil
}

// displayPath shortens path relative to base when it lies below it.
func displayPath(base, path string) string {
	if base == "" {
		return path
	}
	rel, err := filepath.Rel(base, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

func fixtureNames(base string, r result.TestResult) string {
	names := make([]string, len(r.Fixtures))
	for i, f := range r.Fixtures {
		names[i] = displayPath(base, f)
	}
	return strings.Join(names, ", ")
}

// symbol returns an appropriate symbol for the status
func symbol(kind result.StatusKind) string {
	switch kind {
	case result.KindPass:
		return "✅"
	case result.KindFail:
		return "❌"
	case result.KindIgnored:
		return "⏭️"
	default:
		return "❓"
	}
}

// successRate is the share of passed fixtures among those that ran.
func successRate(s result.Summary) float64 {
	ran := s.Passed + s.Failed
	if ran == 0 {
		return 0
	}
	return float64(s.Passed) / float64(ran) * 100
}
