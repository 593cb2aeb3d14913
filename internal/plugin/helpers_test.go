package plugin

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"verdict/internal/config"
	"verdict/internal/fsys"
	"verdict/internal/process"
)

// fakeExecutor records requests and answers them with respond.
type fakeExecutor struct {
	mu       sync.Mutex
	requests []process.Request
	respond  func(req process.Request) (process.ExecutionResult, error)
}

func (f *fakeExecutor) Exec(_ context.Context, req process.Request) (process.ExecutionResult, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.respond == nil {
		return process.ExecutionResult{}, nil
	}
	return f.respond(req)
}

func stdout(lines ...string) func(process.Request) (process.ExecutionResult, error) {
	return func(process.Request) (process.ExecutionResult, error) {
		return process.ExecutionResult{Stdout: lines}, nil
	}
}

func entryNode(t *testing.T, fs fsys.FS, dir string) *config.Node {
	t.Helper()
	tree, err := config.NewResolver(fs).Resolve(dir)
	require.NoError(t, err)
	return tree.Entry
}
