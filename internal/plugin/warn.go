package plugin

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"verdict/internal/config"
	"verdict/internal/discovery"
	"verdict/internal/failure"
	"verdict/internal/fsys"
	"verdict/internal/process"
	"verdict/internal/result"
	"verdict/internal/warning"
	"verdict/pkg/logging"
)

// WarnPlugin runs the analyzer over fixtures and compares the warnings it
// prints with the warnings declared in fixture comments.
type WarnPlugin struct {
	env   Env
	temps *tempRoots
}

// NewWarnPlugin returns a WarnPlugin.
func NewWarnPlugin(env Env) *WarnPlugin {
	return &WarnPlugin{env: env, temps: newTempRoots(env.FS, "verdict-warn-")}
}

func (p *WarnPlugin) Kind() config.PluginKind { return config.KindWarn }

func (p *WarnPlugin) settings(node *config.Node) *config.WarnSettings {
	ws := *node.Settings().Warn
	if p.env.Overrides.ExactWarningsMatch != nil {
		ws.ExactWarningsMatch = *p.env.Overrides.ExactWarningsMatch
	}
	if p.env.Overrides.BatchSize > 0 {
		ws.BatchSize = p.env.Overrides.BatchSize
	}
	return &ws
}

func (p *WarnPlugin) BatchSize(node *config.Node) int { return p.settings(node).BatchSize }

// Discover lists the regular files in dirs whose names match testNamePattern.
func (p *WarnPlugin) Discover(node *config.Node, dirs []string) ([]string, error) {
	pattern := p.settings(node).TestNamePattern
	var out []string
	for _, dir := range dirs {
		children, err := discovery.ListChildren(p.env.FS, dir)
		if err != nil {
			return nil, err
		}
		for _, c := range children {
			if pattern.MatchString(filepath.Base(c)) && fsys.IsRegular(p.env.FS, c) {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func extractorFor(ws *config.WarnSettings) warning.Extractor {
	return warning.Extractor{
		Expected: warning.Pattern{
			Regexp:       ws.ExpectedPattern,
			LineGroup:    ws.LineGroup,
			ColumnGroup:  ws.ColumnGroup,
			MessageGroup: ws.MessageGroup,
		},
		Actual: warning.Pattern{
			Regexp:        ws.ActualPattern,
			FileNameGroup: ws.FileNameGroupOut,
			LineGroup:     ws.LineGroupOut,
			ColumnGroup:   ws.ColumnGroupOut,
			MessageGroup:  ws.MessageGroupOut,
		},
		Placeholder: ws.LinePlaceholder,
	}
}

// Execute runs one analyzer invocation over batch.
func (p *WarnPlugin) Execute(ctx context.Context, node *config.Node, batch []string) []result.TestResult {
	start := time.Now()
	general := node.Settings().General
	ws := p.settings(node)
	extractor := extractorFor(ws)

	if ws.FileNameGroupOut == 0 && len(batch) > 1 {
		return batchFailure(p.Kind(), node, batch, failure.New(failure.ResourceFormat, "warn", batch,
			"actual warnings carry no file name (fileNameCaptureGroupOut is 0), so a batch of %d fixtures cannot be checked; use a batch size of 1", len(batch)))
	}

	var expected []warning.Warning
	sources := make(map[string][]string, len(batch))
	for _, fixture := range batch {
		lines, err := readLines(p.env.FS, fixture)
		if err != nil {
			return batchFailure(p.Kind(), node, batch, fmt.Errorf("failed to read fixture %s: %w", fixture, err))
		}
		sources[fixture] = lines
		declared, err := extractor.ExtractExpected(filepath.Base(fixture), lines)
		if err != nil {
			return batchFailure(p.Kind(), node, batch, err)
		}
		expected = append(expected, declared...)
	}

	files := batch
	if general.IgnoreTechnicalComments {
		root, err := p.temps.create()
		if err != nil {
			return batchFailure(p.Kind(), node, batch, fmt.Errorf("failed to create directory for stripped fixtures: %w", err))
		}
		defer p.temps.remove(root)
		if files, err = p.writeStripped(root, node.Dir, batch, sources, ws); err != nil {
			return batchFailure(p.Kind(), node, batch, err)
		}
	}

	command, err := BuildCommand(CommandSpec{
		ExecCmd:   general.ExecCmd,
		ExecFlags: ws.ExecFlags,
		Files:     files,
		ConfigDir: node.Dir,
	})
	if err != nil {
		return batchFailure(p.Kind(), node, batch, err)
	}

	res, err := p.env.Exec.Exec(ctx, process.Request{
		Command:  command,
		Timeout:  general.Timeout,
		Fixtures: batch,
	})
	if err != nil {
		return batchFailure(p.Kind(), node, batch, err)
	}

	defaultFile := ""
	if len(batch) == 1 {
		defaultFile = filepath.Base(batch[0])
	}
	actual, err := extractor.ExtractActual(res.Stdout, defaultFile)
	if err != nil {
		return batchFailure(p.Kind(), node, batch, err)
	}

	expectedGroups := warning.Group(expected)
	actualGroups := warning.Group(actual)
	elapsed := time.Since(start)

	out := make([]result.TestResult, 0, len(batch))
	for _, fixture := range batch {
		name := filepath.Base(fixture)
		missing, unexpected := warning.Compare(expectedGroups.Filter(name), actualGroups.Filter(name))
		status := warning.Verdict(missing, unexpected, ws.ExactWarningsMatch)
		logging.Debug("WarnPlugin", "%s: %s (%d missing, %d unexpected)", fixture, status.Kind, len(missing), len(unexpected))
		out = append(out, result.TestResult{
			Fixtures: []string{fixture},
			Plugin:   string(p.Kind()),
			Config:   node.Location,
			Status:   status,
			Debug:    debugInfo(fixture, res),
			Duration: elapsed,
		})
	}
	return out
}

// writeStripped writes copies of batch without warning comments under root,
// mirroring their position relative to nodeDir, and returns the copies' paths.
func (p *WarnPlugin) writeStripped(root, nodeDir string, batch []string, sources map[string][]string, ws *config.WarnSettings) ([]string, error) {
	copies := make([]string, 0, len(batch))
	for _, fixture := range batch {
		rel, err := filepath.Rel(nodeDir, fixture)
		if err != nil || strings.HasPrefix(rel, "..") {
			rel = filepath.Base(fixture)
		}
		target := filepath.Join(root, rel)
		if err := p.env.FS.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory for %s: %w", target, err)
		}

		var b strings.Builder
		for _, line := range sources[fixture] {
			if !ws.ExpectedPattern.MatchString(line) {
				b.WriteString(line)
				b.WriteByte('\n')
			}
		}
		if err := p.env.FS.WriteFile(target, []byte(b.String()), 0o644); err != nil {
			return nil, fmt.Errorf("failed to write stripped copy of %s: %w", fixture, err)
		}
		copies = append(copies, target)
	}
	return copies, nil
}

// Cleanup removes stripped copies left by interrupted executions.
func (p *WarnPlugin) Cleanup() error {
	return p.temps.removeAll()
}
