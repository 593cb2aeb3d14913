package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"verdict/internal/config"
	"verdict/internal/engine"
	"verdict/internal/fsys"
	"verdict/internal/metrics"
	"verdict/internal/plugin"
	"verdict/internal/process"
	"verdict/internal/reporting"
	"verdict/internal/result"
	"verdict/internal/watch"
	"verdict/pkg/logging"
)

// Result output destinations.
const (
	outputStdout = "stdout"
	outputFile   = "file"
)

// runOptions holds the flags of the run command.
type runOptions struct {
	timeout        time.Duration
	parallel       int
	reportType     string
	resultOutput   string
	reportDir      string
	exact          bool
	batchSize      int
	metricsFile    string
	watch          bool
	quiet          bool
	verbose        bool
	propertiesFile string
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run <entry> [fixtures...]",
		Short: "Run the test suite governed by an entry point",
		Long: `The run command resolves the configuration tree of an entry point and
checks every fixture below it.

The entry point may be a directory containing verdict.yaml, a verdict.yaml
file, or a single fixture. Additional arguments restrict the run to the
listed fixtures.

Example usage:
  verdict run examples/java                     # Run a whole suite
  verdict run examples/java/verdict.yaml        # Same, naming the file
  verdict run examples/java/ImportTest.java     # Run one fixture
  verdict run examples/java --parallel=4        # Check 4 directories at once
  verdict run examples/java --report-type=json  # Machine readable output
  verdict run examples/java --watch             # Re-run on every change

Exit codes: 0 when all fixtures pass, 1 when some fail, 2 when no
configuration was found, 3 when a configuration is invalid.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.propertiesFile != "" {
				if err := applyProperties(cmd, opts.propertiesFile); err != nil {
					return err
				}
				if err := initLogging(cmd); err != nil {
					return err
				}
			}
			return opts.validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, opts, args)
		},
	}

	f := cmd.Flags()
	f.DurationVar(&opts.timeout, "timeout", 0, "Overall run timeout (0 disables)")
	f.IntVar(&opts.parallel, "parallel", 1, "Number of configuration nodes checked concurrently (1-64)")
	f.StringVar(&opts.reportType, "report-type", string(reporting.FormatPlain), "Report format (plain, table, json, yaml)")
	f.StringVar(&opts.resultOutput, "result-output", outputStdout, "Where to write the report (stdout, file)")
	f.StringVar(&opts.reportDir, "report-dir", "verdict-reports", "Directory for report files when --result-output=file")
	f.BoolVar(&opts.exact, "exact", true, "Fail on warnings that no fixture declares; overrides exactWarningsMatch when set")
	f.IntVar(&opts.batchSize, "batch-size", 0, "Fixtures per analyzer invocation; overrides batchSize when positive")
	f.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file after each run")
	f.BoolVar(&opts.watch, "watch", false, "Re-run when files below the entry point change")
	f.BoolVar(&opts.quiet, "quiet", false, "Only report failing fixtures and the summary")
	f.BoolVar(&opts.verbose, "verbose", false, "Include captured output and diffs of failing fixtures")
	f.StringVar(&opts.propertiesFile, "properties-file", "", "YAML file with default values for these flags")

	_ = cmd.RegisterFlagCompletionFunc("report-type", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"plain", "table", "json", "yaml"}, cobra.ShellCompDirectiveDefault
	})
	_ = cmd.RegisterFlagCompletionFunc("result-output", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{outputStdout, outputFile}, cobra.ShellCompDirectiveDefault
	})
	return cmd
}

func (o *runOptions) validate() error {
	if o.parallel < 1 || o.parallel > 64 {
		return usageErrorf("parallel workers must be between 1 and 64, got %d", o.parallel)
	}
	if o.batchSize < 0 {
		return usageErrorf("batch size must not be negative, got %d", o.batchSize)
	}
	if _, err := reporting.ParseFormat(o.reportType); err != nil {
		return &usageError{err: err}
	}
	if o.resultOutput != outputStdout && o.resultOutput != outputFile {
		return usageErrorf("invalid result output %q, must be %q or %q", o.resultOutput, outputStdout, outputFile)
	}
	if o.timeout < 0 {
		return usageErrorf("timeout must not be negative")
	}
	return nil
}

// overrides converts flags into plugin overrides. --exact only overrides
// configuration files when given explicitly.
func (o *runOptions) overrides(cmd *cobra.Command) plugin.Overrides {
	ov := plugin.Overrides{BatchSize: o.batchSize}
	if cmd.Flags().Changed("exact") {
		exact := o.exact
		ov.ExactWarningsMatch = &exact
	}
	return ov
}

func runRun(cmd *cobra.Command, opts *runOptions, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Handle interrupts gracefully
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(cmd.ErrOrStderr(), "\nReceived interrupt signal, stopping gracefully...")
			cancel()
		case <-ctx.Done():
		}
	}()

	entry, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	var selected []string
	for _, a := range args[1:] {
		abs, err := filepath.Abs(a)
		if err != nil {
			return err
		}
		selected = append(selected, abs)
	}

	fs := fsys.OS{}
	if n := process.CleanupStaleTempDirs(fs, fs.TempDir(), process.StaleAfter, time.Now()); n > 0 {
		logging.Info("Run", "Removed %d stale temporary director(ies)", n)
	}

	r := &suiteRun{
		fs:        fs,
		opts:      opts,
		overrides: opts.overrides(cmd),
		out:       cmd.OutOrStdout(),
		entry:     entry,
		selected:  selected,
		recorder:  metrics.NewRecorder(),
	}

	summary, err := r.once(ctx)
	if !opts.watch {
		if err != nil {
			return err
		}
		if !summary.Success() {
			return ErrFixturesFailed
		}
		return nil
	}
	if err != nil && !isRecoverable(err) {
		return err
	}

	watchDir := entry
	if fi, statErr := os.Stat(entry); statErr == nil && !fi.IsDir() {
		watchDir = filepath.Dir(entry)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "👀 Watching %s for changes (Ctrl+C to stop)\n", watchDir)
	return watch.New(watchDir, watch.DefaultDebounce).Run(ctx, func(ctx context.Context, change watch.Change) {
		logging.Info("Run", "Re-running after change of %d file(s)", len(change.Paths))
		if _, err := r.once(ctx); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), formatError(err))
		}
	})
}

// isRecoverable reports whether watch mode may continue after err; a broken
// configuration can be fixed while watching.
func isRecoverable(err error) bool {
	code := getExitCode(err)
	return code == ExitCodeInvalidConfig || code == ExitCodeFailed
}

// suiteRun executes the suite of one entry point, possibly repeatedly.
type suiteRun struct {
	fs        fsys.FS
	opts      *runOptions
	overrides plugin.Overrides
	out       io.Writer
	entry     string
	selected  []string
	recorder  *metrics.Recorder
}

// once resolves the configuration tree afresh and runs it.
func (r *suiteRun) once(ctx context.Context) (result.Summary, error) {
	if r.opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.timeout)
		defer cancel()
	}

	tree, err := config.NewResolver(r.fs).Resolve(r.entry)
	if err != nil {
		return result.Summary{}, err
	}
	tree.Fixtures = append(tree.Fixtures, r.selected...)

	out, closeOut, err := r.output()
	if err != nil {
		return result.Summary{}, err
	}
	defer closeOut()

	format, _ := reporting.ParseFormat(r.opts.reportType)
	reporter, err := reporting.New(reporting.Options{
		Format:  format,
		Out:     out,
		Verbose: r.opts.verbose,
		Quiet:   r.opts.quiet,
		Color:   r.opts.resultOutput == outputStdout && isTerminal(out),
		BaseDir: tree.Entry.Dir,
	})
	if err != nil {
		return result.Summary{}, err
	}

	aggs := []result.Aggregator{reporter, r.recorder}
	if !r.opts.quiet && format != reporting.FormatPlain {
		progress := newProgress(tree)
		defer progress.stop()
		aggs = append(aggs, progress)
	}

	runner := process.NewRunner(r.fs, process.WithObserver(r.recorder))
	eng := engine.New(r.fs, runner, result.Tee(aggs...), engine.Options{
		Parallel:  r.opts.parallel,
		Overrides: r.overrides,
	})
	summary, runErr := eng.Run(ctx, tree)

	if r.opts.metricsFile != "" {
		if err := r.recorder.WriteTextfile(r.opts.metricsFile); err != nil {
			logging.Error("Run", err, "Failed to write metrics to %s", r.opts.metricsFile)
		}
	}
	if errors.Is(runErr, context.DeadlineExceeded) {
		return summary, fmt.Errorf("run timed out after %s: %w", r.opts.timeout, runErr)
	}
	return summary, runErr
}

// output returns the report destination and a function releasing it.
func (r *suiteRun) output() (io.Writer, func(), error) {
	if r.opts.resultOutput != outputFile {
		return r.out, func() {}, nil
	}
	format, _ := reporting.ParseFormat(r.opts.reportType)
	file, err := reporting.CreateReportFile(r.opts.reportDir, format, time.Now())
	if err != nil {
		return nil, nil, err
	}
	return file, func() {
		if err := file.Close(); err != nil {
			logging.Error("Run", err, "Failed to close report file %s", file.Name())
			return
		}
		fmt.Fprintf(r.out, "📄 Report saved to: %s\n", file.Name())
	}, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// progress shows a spinner with the number of checked fixtures on stderr.
type progress struct {
	s    *spinner.Spinner
	done int
}

func newProgress(tree *config.Tree) *progress {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = fmt.Sprintf(" Checking %s...", tree.Entry.Dir)
	return &progress{s: s}
}

func (p *progress) ReportStart(result.RunInfo) { p.s.Start() }

func (p *progress) ReportResult(tr result.TestResult) {
	p.s.Lock()
	p.done++
	p.s.Suffix = fmt.Sprintf(" Checked %d fixture(s), last %s", p.done, filepath.Base(tr.Fixtures[0]))
	p.s.Unlock()
}

func (p *progress) ReportSummary(result.Summary) { p.s.Stop() }

func (p *progress) stop() { p.s.Stop() }
