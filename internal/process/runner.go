package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"verdict/internal/failure"
	"verdict/internal/fsys"
	"verdict/pkg/logging"
	strutil "verdict/pkg/strings"
)

const (
	// TempDirPrefix starts the name of every per-invocation directory.
	TempDirPrefix = "verdict-exec-"

	stdoutFile = "stdout.txt"
	stderrFile = "stderr.txt"

	// waitDelay bounds how long Wait keeps copying output after a kill.
	waitDelay = 2 * time.Second
)

// Observer is notified after every invocation.
type Observer interface {
	ProcessFinished(elapsed time.Duration, err error)
}

// Option configures a Runner.
type Option func(*Runner)

// WithPlatform overrides the detected platform.
func WithPlatform(p Platform) Option {
	return func(r *Runner) { r.platform = p }
}

// WithTempDir sets the directory under which invocation directories are made.
func WithTempDir(dir string) Option {
	return func(r *Runner) { r.tempDir = dir }
}

// WithObserver registers an Observer.
func WithObserver(o Observer) Option {
	return func(r *Runner) { r.observer = o }
}

// Runner executes commands. It is safe for concurrent use.
type Runner struct {
	fs       fsys.FS
	platform Platform
	tempDir  string
	observer Observer
	now      func() time.Time
}

// NewRunner returns a Runner that keeps its capture files on fs.
func NewRunner(fs fsys.FS, opts ...Option) *Runner {
	r := &Runner{
		fs:       fs,
		platform: CurrentPlatform(),
		tempDir:  fs.TempDir(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Exec runs req.Command and waits for it to finish, time out or be cancelled
// through ctx. A non-zero exit code is not an error. Timeouts are Timeout
// failures; spawn errors, signals and cancellation are ProcessExecution
// failures.
func (r *Runner) Exec(ctx context.Context, req Request) (res ExecutionResult, err error) {
	start := r.now()
	if r.observer != nil {
		defer func() { r.observer.ProcessFinished(r.now().Sub(start), err) }()
	}

	if strings.TrimSpace(req.Command) == "" {
		return ExecutionResult{}, failure.New(failure.ProcessExecution, "exec", req.Fixtures, "empty command")
	}
	if strings.Contains(req.Command, ">") {
		logging.Warn("ProcessRunner", "Command %q contains a redirection; internal redirection of stdout and stderr takes precedence", req.Command)
	}

	dir := filepath.Join(r.tempDir, fmt.Sprintf("%s%d-%s", TempDirPrefix, start.UnixMilli(), uuid.NewString()))
	if err := r.fs.Mkdir(dir, 0o700); err != nil {
		return ExecutionResult{}, failure.Wrap(failure.ProcessExecution, "exec", req.Fixtures,
			fmt.Errorf("failed to create temporary directory: %w", err))
	}
	defer func() {
		if rmErr := r.fs.RemoveAll(dir); rmErr != nil {
			logging.Error("ProcessRunner", rmErr, "Failed to remove temporary directory %s", dir)
		}
	}()

	code, err := r.run(ctx, req, dir)
	if err != nil {
		return ExecutionResult{}, err
	}

	res.ExitCode = code
	if res.Stderr, err = r.readLines(filepath.Join(dir, stderrFile), req.Fixtures); err != nil {
		return ExecutionResult{}, err
	}
	if !req.DiscardStdout {
		if res.Stdout, err = r.readLines(filepath.Join(dir, stdoutFile), req.Fixtures); err != nil {
			return ExecutionResult{}, err
		}
	}

	if req.RedirectTo != "" {
		if err := r.fs.WriteFile(req.RedirectTo, []byte(strings.Join(res.Stdout, "\n")), 0o644); err != nil {
			return ExecutionResult{}, failure.Wrap(failure.ProcessExecution, "exec", req.Fixtures,
				fmt.Errorf("failed to write stdout to %s: %w", req.RedirectTo, err))
		}
		res.Stdout = nil
	}

	logging.Debug("ProcessRunner", "Command %q exited with code %d (%d stdout, %d stderr lines)",
		req.Command, res.ExitCode, len(res.Stdout), len(res.Stderr))
	return res, nil
}

// run starts the command with its output bound to the capture files in dir
// and returns its exit code.
func (r *Runner) run(ctx context.Context, req Request, dir string) (int, error) {
	stdout, err := r.fs.Create(filepath.Join(dir, stdoutFile))
	if err != nil {
		return 0, failure.Wrap(failure.ProcessExecution, "exec", req.Fixtures, err)
	}
	defer stdout.Close()
	stderr, err := r.fs.Create(filepath.Join(dir, stderrFile))
	if err != nil {
		return 0, failure.Wrap(failure.ProcessExecution, "exec", req.Fixtures, err)
	}
	defer stderr.Close()

	argv := PrepareCommand(r.platform, req.Command)
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdout = stdout
	if req.DiscardStdout {
		cmd.Stdout = io.Discard
	}
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay
	configureProcAttr(cmd)

	logging.Debug("ProcessRunner", "Executing %v", argv)
	if err := cmd.Start(); err != nil {
		return 0, failure.Wrap(failure.ProcessExecution, "exec", req.Fixtures,
			fmt.Errorf("failed to start %q: %w", req.Command, err))
	}

	// settled is set exactly once, by whichever of the watcher and the wait
	// path gets there first.
	var settled atomic.Bool
	var interrupt error
	done := make(chan struct{})
	stopped := make(chan struct{})

	var timeout <-chan time.Time
	if req.Timeout > 0 {
		timer := time.NewTimer(req.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	go func() {
		defer close(stopped)
		select {
		case <-done:
			return
		case <-timeout:
			if !settled.CompareAndSwap(false, true) {
				return
			}
			interrupt = failure.New(failure.Timeout, "exec", req.Fixtures,
				"timeout of %s reached for command %q", req.Timeout, req.Command)
		case <-ctx.Done():
			if !settled.CompareAndSwap(false, true) {
				return
			}
			interrupt = failure.Wrap(failure.ProcessExecution, "exec", req.Fixtures,
				fmt.Errorf("cancelled: %w", ctx.Err()))
		}
		if err := killProcessGroup(cmd.Process.Pid); err != nil {
			logging.Error("ProcessRunner", err, "Failed to kill process %d", cmd.Process.Pid)
		}
	}()

	waitErr := cmd.Wait()
	close(done)
	<-stopped

	if !settled.CompareAndSwap(false, true) {
		if failure.IsKind(interrupt, failure.Timeout) {
			logging.Warn("ProcessRunner", "Timeout reached for %s", strings.Join(req.Fixtures, ", "))
		}
		return 0, interrupt
	}

	if waitErr == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return code, nil
		}
		return 0, failure.New(failure.ProcessExecution, "exec", req.Fixtures,
			"command %q terminated abnormally: %s", req.Command, exitErr.String())
	}
	return 0, failure.Wrap(failure.ProcessExecution, "exec", req.Fixtures, waitErr)
}

func (r *Runner) readLines(path string, fixtures []string) ([]string, error) {
	data, err := r.fs.ReadFile(path)
	if err != nil {
		return nil, failure.Wrap(failure.ProcessExecution, "exec", fixtures,
			fmt.Errorf("failed to read captured output: %w", err))
	}
	return strutil.SplitLines(string(data)), nil
}
