package process

import (
	"time"
)

// Request describes one analyzer invocation.
type Request struct {
	// Command is the shell command line.
	Command string
	// RedirectTo, when set, receives the joined stdout lines instead of
	// ExecutionResult.Stdout.
	RedirectTo string
	// DiscardStdout skips stdout collection. Stderr is still collected.
	DiscardStdout bool
	// Timeout bounds the wall-clock duration. Zero means no timeout.
	Timeout time.Duration
	// Fixtures are the files under test, used in failure messages.
	Fixtures []string
}

// ExecutionResult is the outcome of a finished invocation.
type ExecutionResult struct {
	ExitCode int      `json:"exitCode"`
	Stdout   []string `json:"stdout,omitempty"`
	Stderr   []string `json:"stderr,omitempty"`
}
