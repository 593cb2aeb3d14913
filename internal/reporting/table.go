package reporting

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"verdict/internal/result"
	strutil "verdict/pkg/strings"
)

// TableReporter renders all results as one table when the run completes.
type TableReporter struct {
	mu      sync.Mutex
	out     io.Writer
	color   bool
	verbose bool
	base    string
	info    result.RunInfo
}

// NewTableReporter creates a new table reporter
func NewTableReporter(options Options) *TableReporter {
	return &TableReporter{out: options.Out, color: options.Color, verbose: options.Verbose, base: options.BaseDir}
}

func (r *TableReporter) ReportStart(info result.RunInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.info = info
}

// ReportResult is a no-op; the table is rendered from the summary.
func (r *TableReporter) ReportResult(result.TestResult) {}

func (r *TableReporter) ReportSummary(s result.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.createTable()
	t.SetTitle("verdict: %s", displayPath(r.base, r.info.Entry))
	t.AppendHeader(table.Row{r.header("STATUS"), r.header("PLUGIN"), r.header("FIXTURE"), r.header("DETAILS"), r.header("DURATION")})

	for _, tr := range s.Results {
		details := tr.Status.Short
		if r.verbose && tr.Status.Message != "" {
			details = tr.Status.Message
		}
		t.AppendRow(table.Row{
			r.status(tr.Status.Kind),
			tr.Plugin,
			fixtureNames(r.base, tr),
			strutil.Truncate(details, strutil.DefaultCellMaxLen),
			tr.Duration.Round(time.Millisecond),
		})
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		s.Total,
		fmt.Sprintf("%d passed, %d failed, %d ignored", s.Passed, s.Failed, s.Ignored),
		fmt.Sprintf("%.1f%% success", successRate(s)),
		s.Duration.Round(time.Millisecond),
	})
	t.Render()
}

// createTable creates a new table with standard styling
func (r *TableReporter) createTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleRounded)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, WidthMax: strutil.DefaultCellMaxLen},
	})
	return t
}

func (r *TableReporter) header(s string) string {
	if !r.color {
		return s
	}
	return text.FgHiCyan.Sprint(s)
}

func (r *TableReporter) status(kind result.StatusKind) string {
	if !r.color {
		return string(kind)
	}
	switch kind {
	case result.KindPass:
		return text.FgGreen.Sprint(kind)
	case result.KindFail:
		return text.FgRed.Sprint(kind)
	default:
		return text.FgYellow.Sprint(kind)
	}
}
