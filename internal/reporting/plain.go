package reporting

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"verdict/internal/result"
)

// PlainReporter streams one line per fixture and prints the failures again
// with their details once the run completes.
type PlainReporter struct {
	mu      sync.Mutex
	out     io.Writer
	verbose bool
	quiet   bool
	base    string
}

// NewPlainReporter creates a plain text reporter
func NewPlainReporter(options Options) *PlainReporter {
	return &PlainReporter{out: options.Out, verbose: options.Verbose, quiet: options.Quiet, base: options.BaseDir}
}

func (r *PlainReporter) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

// ReportStart is called when test execution begins
func (r *PlainReporter) ReportStart(info result.RunInfo) {
	if r.quiet {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.printf("🧪 Running %s (%d configuration node(s), %d worker(s))\n", info.Entry, info.Nodes, info.Parallel)
}

// ReportResult is called once per fixture
func (r *PlainReporter) ReportResult(tr result.TestResult) {
	if r.quiet && tr.Status.Kind != result.KindFail {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	line := fmt.Sprintf("%s %-7s [%s] %s", symbol(tr.Status.Kind), tr.Status.Kind, tr.Plugin, fixtureNames(r.base, tr))
	if tr.Status.Short != "" {
		line += ": " + tr.Status.Short
	}
	r.printf("%s\n", line)
}

// ReportSummary is called when the run completes
func (r *PlainReporter) ReportSummary(s result.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var failed []result.TestResult
	for _, tr := range s.Results {
		if tr.Status.Kind == result.KindFail {
			failed = append(failed, tr)
		}
	}
	if len(failed) > 0 {
		r.printf("\n📋 Failures:\n")
		for _, tr := range failed {
			r.printf("\n❌ [%s] %s (%s)\n", tr.Plugin, fixtureNames(r.base, tr), displayPath(r.base, tr.Config))
			r.printf("%s\n", indentText(tr.Status.Message, "   "))
			if r.verbose {
				r.printDebug(tr.Debug)
			}
		}
	}

	r.printf("\n🏁 Run complete\n")
	r.printf("⏱️  Duration: %v\n", s.Duration)
	r.printf("📊 Results:\n")
	r.printf("   ✅ Passed: %d\n", s.Passed)
	if s.Failed > 0 {
		r.printf("   ❌ Failed: %d\n", s.Failed)
	}
	if s.Ignored > 0 {
		r.printf("   ⏭️  Ignored: %d\n", s.Ignored)
	}
	r.printf("   📈 Total: %d\n", s.Total)
	r.printf("   📏 Success Rate: %.1f%%\n", successRate(s))

	if s.Success() {
		r.printf("\n🎉 All fixtures passed!\n")
	} else {
		r.printf("\n💔 Some fixtures failed\n")
	}
}

func (r *PlainReporter) printDebug(d result.DebugInfo) {
	sections := []struct{ title, body string }{
		{"stdout", d.Stdout},
		{"stderr", d.Stderr},
		{"error", d.Error},
		{"diff", d.Diff},
	}
	for _, sec := range sections {
		if sec.body == "" {
			continue
		}
		r.printf("   📄 %s:\n%s\n", sec.title, indentText(strings.TrimRight(sec.body, "\n"), "      "))
	}
}

// indentText adds indentation to each line of text
func indentText(text, indent string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = indent + line
		}
	}
	return strings.Join(lines, "\n")
}
