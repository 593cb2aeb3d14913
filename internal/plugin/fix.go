package plugin

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"

	"verdict/internal/config"
	"verdict/internal/discovery"
	"verdict/internal/fsys"
	"verdict/internal/process"
	"verdict/internal/result"
	"verdict/pkg/logging"
)

// FixPlugin runs the analyzer in fix mode over a copy of each fixture and
// compares the patched copy with the fixture's expected counterpart.
type FixPlugin struct {
	env   Env
	temps *tempRoots
}

// NewFixPlugin returns a FixPlugin.
func NewFixPlugin(env Env) *FixPlugin {
	return &FixPlugin{env: env, temps: newTempRoots(env.FS, "verdict-fix-")}
}

func (p *FixPlugin) Kind() config.PluginKind { return config.KindFix }

func (p *FixPlugin) settings(node *config.Node) *config.FixSettings {
	fx := *node.Settings().Fix
	if p.env.Overrides.BatchSize > 0 {
		fx.BatchSize = p.env.Overrides.BatchSize
	}
	return &fx
}

func (p *FixPlugin) BatchSize(node *config.Node) int { return p.settings(node).BatchSize }

// ExpectedPath returns the expected counterpart of a test file: the base
// name's trailing testSuffix replaced by expectedSuffix. ok is false when the
// name does not end with testSuffix.
func ExpectedPath(fixture, testSuffix, expectedSuffix string) (string, bool) {
	ext := filepath.Ext(fixture)
	stem := strings.TrimSuffix(filepath.Base(fixture), ext)
	if !strings.HasSuffix(stem, testSuffix) {
		return "", false
	}
	name := strings.TrimSuffix(stem, testSuffix) + expectedSuffix + ext
	return filepath.Join(filepath.Dir(fixture), name), true
}

// Discover lists test files that have an expected counterpart next to them.
func (p *FixPlugin) Discover(node *config.Node, dirs []string) ([]string, error) {
	fx := p.settings(node)
	var out []string
	for _, dir := range dirs {
		children, err := discovery.ListChildren(p.env.FS, dir)
		if err != nil {
			return nil, err
		}
		for _, c := range children {
			expected, ok := ExpectedPath(c, fx.TestSuffix, fx.ExpectedSuffix)
			if !ok || !fsys.IsRegular(p.env.FS, c) {
				continue
			}
			if !fsys.IsRegular(p.env.FS, expected) {
				logging.Debug("FixPlugin", "Skipping %s: no expected file %s", c, expected)
				continue
			}
			out = append(out, c)
		}
	}
	return out, nil
}

// Execute copies batch to a temporary directory, runs the analyzer over the
// copies and diffs each patched copy against its expected file.
func (p *FixPlugin) Execute(ctx context.Context, node *config.Node, batch []string) []result.TestResult {
	start := time.Now()
	general := node.Settings().General
	fx := p.settings(node)

	root, err := p.temps.create()
	if err != nil {
		return batchFailure(p.Kind(), node, batch, fmt.Errorf("failed to create working directory: %w", err))
	}
	defer p.temps.remove(root)

	copies := make([]string, len(batch))
	for i, fixture := range batch {
		data, err := p.env.FS.ReadFile(fixture)
		if err != nil {
			return batchFailure(p.Kind(), node, batch, fmt.Errorf("failed to read fixture %s: %w", fixture, err))
		}
		// one subdirectory per fixture keeps equal base names apart
		dir := filepath.Join(root, strconv.Itoa(i))
		if err := p.env.FS.Mkdir(dir, 0o755); err != nil {
			return batchFailure(p.Kind(), node, batch, err)
		}
		copies[i] = filepath.Join(dir, filepath.Base(fixture))
		if err := p.env.FS.WriteFile(copies[i], data, 0o644); err != nil {
			return batchFailure(p.Kind(), node, batch, err)
		}
	}

	command, err := BuildCommand(CommandSpec{
		ExecCmd:   general.ExecCmd,
		ExecFlags: fx.ExecFlags,
		Files:     copies,
		ConfigDir: node.Dir,
	})
	if err != nil {
		return batchFailure(p.Kind(), node, batch, err)
	}

	res, err := p.env.Exec.Exec(ctx, process.Request{
		Command:       command,
		DiscardStdout: true,
		Timeout:       general.Timeout,
		Fixtures:      batch,
	})
	if err != nil {
		return batchFailure(p.Kind(), node, batch, err)
	}
	elapsed := time.Since(start)

	out := make([]result.TestResult, 0, len(batch))
	for i, fixture := range batch {
		tr := result.TestResult{
			Fixtures: []string{fixture},
			Plugin:   string(p.Kind()),
			Config:   node.Location,
			Debug:    debugInfo(fixture, res),
			Duration: elapsed,
		}
		expectedPath, _ := ExpectedPath(fixture, fx.TestSuffix, fx.ExpectedSuffix)
		diff, err := p.diff(expectedPath, copies[i], fixture)
		switch {
		case err != nil:
			tr.Status = result.Fail(err.Error(), "Error")
			tr.Debug.Error = err.Error()
		case diff == "":
			tr.Status = result.Pass("")
		default:
			tr.Status = result.Fail(
				fmt.Sprintf("Fixed %s differs from %s", filepath.Base(fixture), filepath.Base(expectedPath)),
				"Fixed file differs from expected",
			)
			tr.Debug.Diff = diff
		}
		out = append(out, tr)
	}
	return out
}

func (p *FixPlugin) diff(expectedPath, patchedPath, fixture string) (string, error) {
	expected, err := p.env.FS.ReadFile(expectedPath)
	if err != nil {
		return "", fmt.Errorf("failed to read expected file %s: %w", expectedPath, err)
	}
	patched, err := p.env.FS.ReadFile(patchedPath)
	if err != nil {
		return "", fmt.Errorf("failed to read fixed copy of %s: %w", fixture, err)
	}
	if string(expected) == string(patched) {
		return "", nil
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(expected)),
		B:        difflib.SplitLines(string(patched)),
		FromFile: expectedPath,
		ToFile:   fixture + " (fixed)",
		Context:  3,
	})
}

// Cleanup removes working directories left by interrupted executions.
func (p *FixPlugin) Cleanup() error {
	return p.temps.removeAll()
}
