package engine

import (
	"cmp"
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"verdict/internal/config"
	"verdict/internal/fsys"
	"verdict/internal/plugin"
	"verdict/internal/result"
	"verdict/pkg/logging"
)

// Options tune a run.
type Options struct {
	// Parallel is the number of nodes processed concurrently; values below 1 mean 1
	Parallel int
	// Overrides take precedence over configuration files
	Overrides plugin.Overrides
}

// Engine runs plugins over configuration trees.
type Engine struct {
	fs   fsys.FS
	exec plugin.Executor
	agg  result.Aggregator
	opts Options
	now  func() time.Time
}

// New returns an Engine that executes commands through exec and reports to agg.
func New(fs fsys.FS, exec plugin.Executor, agg result.Aggregator, opts Options) *Engine {
	if opts.Parallel < 1 {
		opts.Parallel = 1
	}
	return &Engine{fs: fs, exec: exec, agg: agg, opts: opts, now: time.Now}
}

// Run checks every node of tree's entry subtree and returns the summary.
// The summary is reported even when the run is cancelled part way.
func (e *Engine) Run(ctx context.Context, tree *config.Tree) (result.Summary, error) {
	if err := tree.Validate(); err != nil {
		return result.Summary{}, err
	}

	nodes := tree.Nodes()
	plugins, err := e.plugins(nodes)
	if err != nil {
		return result.Summary{}, err
	}
	defer func() {
		for _, p := range plugins {
			if err := p.Cleanup(); err != nil {
				logging.Error("Engine", err, "Cleanup of %s plugin failed", p.Kind())
			}
		}
	}()

	summary := result.Summary{StartTime: e.now()}
	var mu sync.Mutex
	report := func(r result.TestResult) {
		mu.Lock()
		defer mu.Unlock()
		summary.Add(r)
		e.agg.ReportResult(r)
	}

	e.agg.ReportStart(result.RunInfo{
		Entry:    tree.Entry.Location,
		Nodes:    len(nodes),
		Parallel: e.opts.Parallel,
	})
	logging.Info("Engine", "Running %d configuration node(s) from %s with parallelism %d",
		len(nodes), tree.Entry.Location, e.opts.Parallel)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Parallel)
	for _, node := range nodes {
		g.Go(func() error {
			return e.runNode(gctx, node, plugins, tree.Fixtures, report)
		})
	}
	runErr := g.Wait()

	summary.EndTime = e.now()
	summary.Duration = summary.EndTime.Sub(summary.StartTime)
	slices.SortStableFunc(summary.Results, func(a, b result.TestResult) int {
		return cmp.Or(
			cmp.Compare(firstFixture(a), firstFixture(b)),
			cmp.Compare(a.Plugin, b.Plugin),
		)
	})
	e.agg.ReportSummary(summary)

	logging.Info("Engine", "Run finished in %s: %d passed, %d failed, %d ignored",
		summary.Duration, summary.Passed, summary.Failed, summary.Ignored)
	return summary, runErr
}

// plugins creates one plugin per kind used by nodes.
func (e *Engine) plugins(nodes []*config.Node) (map[config.PluginKind]plugin.Plugin, error) {
	env := plugin.Env{FS: e.fs, Exec: e.exec, Overrides: e.opts.Overrides}
	out := map[config.PluginKind]plugin.Plugin{}
	for _, n := range nodes {
		for _, kind := range n.PluginKinds() {
			if _, ok := out[kind]; ok {
				continue
			}
			p, err := plugin.New(kind, env)
			if err != nil {
				return nil, err
			}
			out[kind] = p
		}
	}
	return out, nil
}

func (e *Engine) runNode(ctx context.Context, node *config.Node, plugins map[config.PluginKind]plugin.Plugin, selected []string, report func(result.TestResult)) error {
	kinds := node.PluginKinds()
	if len(kinds) == 0 {
		logging.Debug("Engine", "Skipping %s: no plugin sections", node.Location)
		return nil
	}

	dirs, err := plugin.ResourceDirs(e.fs, node)
	if err != nil {
		return fmt.Errorf("failed to list resource directories of %s: %w", node.Location, err)
	}

	general := node.Settings().General
	for _, kind := range kinds {
		p := plugins[kind]
		fixtures, err := p.Discover(node, dirs)
		if err != nil {
			return fmt.Errorf("failed to discover %s fixtures of %s: %w", kind, node.Location, err)
		}
		fixtures = restrict(fixtures, selected)
		logging.Debug("Engine", "%s: %d %s fixture(s) in %d director(ies)", node.Location, len(fixtures), kind, len(dirs))

		runnable := fixtures[:0:0]
		for _, f := range fixtures {
			if pattern := plugin.MatchExcluded(general.ExcludedTests, node.Dir, f); pattern != "" {
				report(result.TestResult{
					Fixtures: []string{f},
					Plugin:   string(kind),
					Config:   node.Location,
					Status:   result.Ignored(fmt.Sprintf("Excluded by pattern %q", pattern)),
				})
				continue
			}
			runnable = append(runnable, f)
		}

		for _, batch := range plugin.Batch(runnable, p.BatchSize(node)) {
			if err := ctx.Err(); err != nil {
				return err
			}
			for _, r := range p.Execute(ctx, node, batch) {
				report(r)
			}
		}
	}
	return nil
}

// restrict keeps the fixtures listed in selected; an empty selection keeps all.
func restrict(fixtures, selected []string) []string {
	if len(selected) == 0 {
		return fixtures
	}
	want := make(map[string]struct{}, len(selected))
	for _, s := range selected {
		want[filepath.Clean(s)] = struct{}{}
	}
	var out []string
	for _, f := range fixtures {
		if _, ok := want[filepath.Clean(f)]; ok {
			out = append(out, f)
		}
	}
	return out
}

func firstFixture(r result.TestResult) string {
	if len(r.Fixtures) == 0 {
		return ""
	}
	return r.Fixtures[0]
}
