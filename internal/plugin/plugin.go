// Package plugin implements the execution strategies bound to configuration
// nodes. Each plugin discovers fixtures in a node's resource directories,
// runs the analyzer over batches of them and emits one result per fixture.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"verdict/internal/config"
	"verdict/internal/discovery"
	"verdict/internal/failure"
	"verdict/internal/fsys"
	"verdict/internal/process"
	"verdict/internal/result"
	"verdict/pkg/logging"
	strutil "verdict/pkg/strings"
)

// Plugin is one execution strategy.
type Plugin interface {
	// Kind names the configuration section the plugin consumes.
	Kind() config.PluginKind
	// Discover lists the fixtures of node found in dirs, in directory order.
	Discover(node *config.Node, dirs []string) ([]string, error)
	// BatchSize is the number of fixtures passed to one analyzer invocation.
	BatchSize(node *config.Node) int
	// Execute checks one batch and returns one result per fixture. Failures
	// of the batch are reported as failing results, never as errors.
	Execute(ctx context.Context, node *config.Node, batch []string) []result.TestResult
	// Cleanup removes temporary files the plugin still holds.
	Cleanup() error
}

// Executor runs analyzer commands; *process.Runner implements it.
type Executor interface {
	Exec(ctx context.Context, req process.Request) (process.ExecutionResult, error)
}

// Overrides are run-wide settings that take precedence over configuration files.
type Overrides struct {
	// ExactWarningsMatch replaces warn.exactWarningsMatch when set
	ExactWarningsMatch *bool
	// BatchSize replaces the batch size of every plugin when positive
	BatchSize int
}

// Env is shared by the plugins of a run.
type Env struct {
	FS        fsys.FS
	Exec      Executor
	Overrides Overrides
}

// New returns the plugin for kind.
func New(kind config.PluginKind, env Env) (Plugin, error) {
	switch kind {
	case config.KindWarn:
		return NewWarnPlugin(env), nil
	case config.KindFix:
		return NewFixPlugin(env), nil
	default:
		return nil, fmt.Errorf("unknown plugin kind %q", kind)
	}
}

// Batch splits fixtures into consecutive chunks of at most size elements.
func Batch(fixtures []string, size int) [][]string {
	if size < 1 {
		size = 1
	}
	var out [][]string
	for start := 0; start < len(fixtures); start += size {
		end := min(start+size, len(fixtures))
		out = append(out, fixtures[start:end:end])
	}
	return out
}

// ResourceDirs returns node's directory followed by every descendant
// directory not governed by a configuration file of its own.
func ResourceDirs(fs fsys.FS, node *config.Node) ([]string, error) {
	return discovery.DescendantDirs(fs, node.Dir, true, func(dir string) bool {
		found, err := discovery.FindChild(fs, dir, config.IsConfigFile)
		return err == nil && found == ""
	})
}

// batchFailure builds the results for a batch that could not be checked.
func batchFailure(kind config.PluginKind, node *config.Node, batch []string, err error) []result.TestResult {
	logging.Error(pluginSubsystem(kind), err, "Batch %v failed", batch)
	out := make([]result.TestResult, 0, len(batch))
	for _, f := range batch {
		out = append(out, result.TestResult{
			Fixtures: []string{f},
			Plugin:   string(kind),
			Config:   node.Location,
			Status:   result.Fail(err.Error(), shortError(err)),
			Debug:    result.DebugInfo{Error: err.Error()},
		})
	}
	return out
}

// shortError is the one-line form of a batch failure.
func shortError(err error) string {
	var fe *failure.Error
	if errors.As(err, &fe) {
		return fe.Kind.String()
	}
	return "Error"
}

func pluginSubsystem(kind config.PluginKind) string {
	switch kind {
	case config.KindWarn:
		return "WarnPlugin"
	case config.KindFix:
		return "FixPlugin"
	}
	return "Plugin"
}

func readLines(fs fsys.FS, path string) ([]string, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return strutil.SplitLines(string(data)), nil
}

// debugInfo collects the output lines that mention fixture.
func debugInfo(fixture string, res process.ExecutionResult) result.DebugInfo {
	name := filepath.Base(fixture)
	return result.DebugInfo{
		Stdout: strutil.Excerpt(strutil.LinesContaining(res.Stdout, name), maxDebugLines),
		Stderr: strutil.Excerpt(strutil.LinesContaining(res.Stderr, name), maxDebugLines),
	}
}

const maxDebugLines = 50

// tempRoots tracks temporary directories a plugin created so that Cleanup
// can remove any that an interrupted Execute left behind.
type tempRoots struct {
	fs     fsys.FS
	prefix string

	mu   sync.Mutex
	dirs map[string]struct{}
}

func newTempRoots(fs fsys.FS, prefix string) *tempRoots {
	return &tempRoots{fs: fs, prefix: prefix, dirs: map[string]struct{}{}}
}

func (t *tempRoots) create() (string, error) {
	dir := filepath.Join(t.fs.TempDir(), t.prefix+uuid.NewString())
	if err := t.fs.Mkdir(dir, 0o700); err != nil {
		return "", err
	}
	t.mu.Lock()
	t.dirs[dir] = struct{}{}
	t.mu.Unlock()
	return dir, nil
}

func (t *tempRoots) remove(dir string) {
	if err := t.fs.RemoveAll(dir); err != nil {
		logging.Error("Plugin", err, "Failed to remove %s", dir)
		return
	}
	t.mu.Lock()
	delete(t.dirs, dir)
	t.mu.Unlock()
}

func (t *tempRoots) removeAll() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	var firstErr error
	for dir := range t.dirs {
		if err := t.fs.RemoveAll(dir); err != nil && firstErr == nil {
			firstErr = err
			continue
		}
		delete(t.dirs, dir)
	}
	return firstErr
}
