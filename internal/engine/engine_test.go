package engine

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verdict/internal/config"
	"verdict/internal/failure"
	"verdict/internal/fsys"
	"verdict/internal/process"
	"verdict/internal/result"
)

// scriptedExecutor prints, for every file on the command line, the lines
// registered for its base name.
type scriptedExecutor struct {
	mu       sync.Mutex
	output   map[string][]string
	commands []string
	fail     map[string]error
	hook     func()
}

func (s *scriptedExecutor) Exec(_ context.Context, req process.Request) (process.ExecutionResult, error) {
	s.mu.Lock()
	s.commands = append(s.commands, req.Command)
	s.mu.Unlock()
	if s.hook != nil {
		s.hook()
	}
	var out []string
	for _, f := range strings.Fields(req.Command)[1:] {
		name := f[strings.LastIndex(f, "/")+1:]
		if err, ok := s.fail[name]; ok {
			return process.ExecutionResult{}, err
		}
		out = append(out, s.output[name]...)
	}
	return process.ExecutionResult{Stdout: out}, nil
}

type recordingAggregator struct {
	mu      sync.Mutex
	info    *result.RunInfo
	results []result.TestResult
	summary *result.Summary
}

func (r *recordingAggregator) ReportStart(info result.RunInfo) { r.info = &info }

func (r *recordingAggregator) ReportResult(tr result.TestResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, tr)
}

func (r *recordingAggregator) ReportSummary(s result.Summary) { r.summary = &s }

func resolve(t *testing.T, fs fsys.FS, entry string) *config.Tree {
	t.Helper()
	tree, err := config.NewResolver(fs).Resolve(entry)
	require.NoError(t, err)
	return tree
}

func statuses(s result.Summary) map[string]result.StatusKind {
	out := map[string]result.StatusKind{}
	for _, r := range s.Results {
		out[r.Plugin+":"+r.Fixtures[0]] = r.Status.Kind
	}
	return out
}

func nestedSuite() *fsys.MemFS {
	return fsys.NewMemFS().
		Add("/suite/verdict.yaml", "general:\n  execCmd: analyzer\n  excludedTests: ['**/SkipTest.java']\nwarn: {}\n").
		Add("/suite/ATest.java", "// ;warn:2:1: unused import\nimport x;\n").
		Add("/suite/plain/BTest.java", "// ;warn:2:1: magic number\nint x = 42;\n").
		Add("/suite/plain/SkipTest.java", "// ;warn:1:1: never checked\n").
		Add("/suite/child/verdict.yaml", "warn:\n  exactWarningsMatch: false\n").
		Add("/suite/child/CTest.java", "// ;warn:2:1: unused import\nimport y;\n")
}

func nestedOutput() map[string][]string {
	return map[string][]string{
		"ATest.java": {"ATest.java:2:1: unused import"},
		"BTest.java": {},
		"CTest.java": {"CTest.java:2:1: unused import", "CTest.java:2:5: extra"},
	}
}

func TestEngine_RunNestedTree(t *testing.T) {
	fs := nestedSuite()
	exec := &scriptedExecutor{output: nestedOutput()}
	agg := &recordingAggregator{}

	summary, err := New(fs, exec, agg, Options{Parallel: 2}).Run(context.Background(), resolve(t, fs, "/suite"))
	require.NoError(t, err)

	assert.Equal(t, map[string]result.StatusKind{
		"warn:/suite/ATest.java":          result.KindPass,
		"warn:/suite/plain/BTest.java":    result.KindFail,
		"warn:/suite/plain/SkipTest.java": result.KindIgnored,
		"warn:/suite/child/CTest.java":    result.KindPass,
	}, statuses(summary))
	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 2, summary.Passed)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Ignored)
	assert.False(t, summary.Success())
	assert.Len(t, exec.commands, 3, "ignored fixtures must not run")

	require.NotNil(t, agg.info)
	assert.Equal(t, "/suite/verdict.yaml", agg.info.Entry)
	assert.Equal(t, 2, agg.info.Nodes)
	assert.Len(t, agg.results, 4)
	require.NotNil(t, agg.summary)
	assert.Equal(t, summary.Total, agg.summary.Total)

	// results are sorted by fixture in the summary
	assert.Equal(t, "/suite/ATest.java", summary.Results[0].Fixtures[0])
	assert.Equal(t, "/suite/child/CTest.java", summary.Results[1].Fixtures[0])
}

func TestEngine_RunsOnlyEntrySubtree(t *testing.T) {
	fs := nestedSuite()
	exec := &scriptedExecutor{output: nestedOutput()}

	summary, err := New(fs, exec, &recordingAggregator{}, Options{}).Run(context.Background(), resolve(t, fs, "/suite/child"))
	require.NoError(t, err)

	assert.Equal(t, map[string]result.StatusKind{
		"warn:/suite/child/CTest.java": result.KindPass,
	}, statuses(summary))
}

func TestEngine_SingleFixtureEntry(t *testing.T) {
	fs := nestedSuite()
	exec := &scriptedExecutor{output: nestedOutput()}

	summary, err := New(fs, exec, &recordingAggregator{}, Options{}).Run(context.Background(), resolve(t, fs, "/suite/plain/BTest.java"))
	require.NoError(t, err)

	assert.Equal(t, map[string]result.StatusKind{
		"warn:/suite/plain/BTest.java": result.KindFail,
	}, statuses(summary))
	assert.Equal(t, []string{"analyzer /suite/plain/BTest.java"}, exec.commands)
}

func TestEngine_BatchFailureDoesNotStopRun(t *testing.T) {
	fs := nestedSuite()
	exec := &scriptedExecutor{
		output: nestedOutput(),
		fail: map[string]error{
			"ATest.java": failure.New(failure.Timeout, "exec", []string{"/suite/ATest.java"}, "timeout of 10s reached"),
		},
	}

	summary, err := New(fs, exec, &recordingAggregator{}, Options{}).Run(context.Background(), resolve(t, fs, "/suite"))
	require.NoError(t, err)

	got := statuses(summary)
	assert.Equal(t, result.KindFail, got["warn:/suite/ATest.java"])
	assert.Equal(t, result.KindPass, got["warn:/suite/child/CTest.java"])
	assert.Equal(t, 4, summary.Total)
}

func TestEngine_BatchSizeOverride(t *testing.T) {
	fs := fsys.NewMemFS().
		Add("/s/verdict.yaml", "general:\n  execCmd: analyzer\nwarn: {}\n").
		Add("/s/ATest.java", "x\n").
		Add("/s/BTest.java", "x\n").
		Add("/s/CTest.java", "x\n")
	exec := &scriptedExecutor{}

	summary, err := New(fs, exec, &recordingAggregator{}, Options{Overrides: overridesWithBatch(2)}).Run(context.Background(), resolve(t, fs, "/s"))
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Passed)
	assert.Equal(t, []string{
		"analyzer /s/ATest.java /s/BTest.java",
		"analyzer /s/CTest.java",
	}, exec.commands)
}

func TestEngine_ValidationFailure(t *testing.T) {
	fs := fsys.NewMemFS().
		Add("/s/verdict.yaml", "warn: {}\n").
		Add("/s/ATest.java", "x\n")
	agg := &recordingAggregator{}

	_, err := New(fs, &scriptedExecutor{}, agg, Options{}).Run(context.Background(), resolve(t, fs, "/s"))
	require.Error(t, err)

	var collection config.ConfigurationErrorCollection
	require.ErrorAs(t, err, &collection)
	assert.Nil(t, agg.info, "nothing is reported for an invalid tree")
}

func TestEngine_CancelledRunStopsBetweenBatches(t *testing.T) {
	fs := fsys.NewMemFS().
		Add("/s/verdict.yaml", "general:\n  execCmd: analyzer\nwarn: {}\n").
		Add("/s/ATest.java", "x\n").
		Add("/s/BTest.java", "x\n")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	exec := &scriptedExecutor{hook: cancel}
	agg := &recordingAggregator{}

	summary, err := New(fs, exec, agg, Options{}).Run(ctx, resolve(t, fs, "/s"))
	require.ErrorIs(t, err, context.Canceled)

	assert.Len(t, exec.commands, 1)
	assert.Equal(t, 1, summary.Total)
	require.NotNil(t, agg.summary, "partial summary is still reported")
}

func TestEngine_NodesRunConcurrently(t *testing.T) {
	fs := fsys.NewMemFS().
		Add("/s/verdict.yaml", "general:\n  execCmd: analyzer\nwarn: {}\n").
		Add("/s/a/verdict.yaml", "").
		Add("/s/a/ATest.java", "x\n").
		Add("/s/b/verdict.yaml", "").
		Add("/s/b/BTest.java", "x\n").
		Add("/s/c/verdict.yaml", "").
		Add("/s/c/CTest.java", "x\n")

	var running, peak atomic.Int32
	exec := &scriptedExecutor{hook: func() {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(50 * time.Millisecond)
		running.Add(-1)
	}}

	summary, err := New(fs, exec, &recordingAggregator{}, Options{Parallel: 4}).Run(context.Background(), resolve(t, fs, "/s"))
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Passed)
	assert.Greater(t, peak.Load(), int32(1))
	assert.LessOrEqual(t, peak.Load(), int32(4))
}

func TestEngine_FixAndWarnOnSameNode(t *testing.T) {
	fs := fsys.NewMemFS().
		Add("/s/verdict.yaml", "general:\n  execCmd: tool\nwarn: {}\nfix: {}\n").
		Add("/s/ATest.java", "clean\n").
		Add("/s/AExpected.java", "clean\n")

	summary, err := New(fs, &scriptedExecutor{}, &recordingAggregator{}, Options{}).Run(context.Background(), resolve(t, fs, "/s"))
	require.NoError(t, err)

	assert.Equal(t, map[string]result.StatusKind{
		"warn:/s/ATest.java": result.KindPass,
		"fix:/s/ATest.java":  result.KindPass,
	}, statuses(summary))
}

func TestRestrict(t *testing.T) {
	fixtures := []string{"/s/A", "/s/B", "/s/C"}
	assert.Equal(t, fixtures, restrict(fixtures, nil))
	assert.Equal(t, []string{"/s/B"}, restrict(fixtures, []string{"/s/./B", "/s/D"}))
	assert.Empty(t, restrict(fixtures, []string{"/x"}))
}
