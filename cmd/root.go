package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"verdict/internal/config"
	"verdict/internal/failure"
	"verdict/pkg/logging"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution with no failing fixture.
	ExitCodeSuccess = 0
	// ExitCodeFailed indicates failing fixtures or a general error.
	ExitCodeFailed = 1
	// ExitCodeConfigNotFound indicates that no configuration governs the entry point.
	ExitCodeConfigNotFound = 2
	// ExitCodeInvalidConfig indicates a malformed configuration or invalid usage.
	ExitCodeInvalidConfig = 3
)

// ErrFixturesFailed is returned by commands whose run completed with failing fixtures.
var ErrFixturesFailed = errors.New("some fixtures failed")

var logLevel string

// rootCmd represents the base command for the verdict application.
var rootCmd = &cobra.Command{
	Use:   "verdict",
	Short: "Run analyzer test suites described by verdict.yaml files",
	Long: `verdict checks static analyzers against fixture files.

Fixtures declare the warnings an analyzer must report in comments, or come
with an expected file the analyzer must produce in fix mode. verdict finds
the fixtures through verdict.yaml files, runs the analyzer and reports a
verdict per fixture.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogging(cmd)
	},
}

func initLogging(cmd *cobra.Command) error {
	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return &usageError{err: err}
	}
	logging.InitForCLI(level, cmd.ErrOrStderr())
	return nil
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "verdict version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		if !errors.Is(err, ErrFixturesFailed) {
			fmt.Fprintln(os.Stderr, formatError(err))
		}
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}
	if errors.Is(err, ErrFixturesFailed) {
		return ExitCodeFailed
	}

	switch failure.KindOf(err) {
	case failure.ConfigurationNotFound:
		return ExitCodeConfigNotFound
	case failure.InvalidArgument:
		return ExitCodeInvalidConfig
	}

	var configErr config.ConfigurationError
	if errors.As(err, &configErr) {
		return ExitCodeInvalidConfig
	}
	var configErrs config.ConfigurationErrorCollection
	if errors.As(err, &configErrs) {
		return ExitCodeInvalidConfig
	}
	var usageErr *usageError
	if errors.As(err, &usageErr) {
		return ExitCodeInvalidConfig
	}

	return ExitCodeFailed
}

// formatError renders err for the terminal, expanding configuration errors.
func formatError(err error) string {
	var configErrs config.ConfigurationErrorCollection
	if errors.As(err, &configErrs) {
		return configErrs.GetDetailedReport()
	}
	var configErr config.ConfigurationError
	if errors.As(err, &configErr) {
		return configErr.DetailedError()
	}
	return "Error: " + err.Error()
}

// usageError marks invalid flag values and arguments.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newTreeCmd())
}
