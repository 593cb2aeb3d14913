// Package logging provides the subsystem-tagged logging sink used across verdict.
//
// It is a thin layer over log/slog. Every entry carries a subsystem attribute
// so that output from the config resolver, the process runner and the plugins
// can be told apart when several configuration nodes execute concurrently.
//
// # Usage
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("ConfigResolver", "Resolved %d configuration nodes", n)
//	logging.Debug("ProcessRunner", "Executing: %s", cmd)
//	logging.Warn("ProcessRunner", "Command contains a redirection, internal redirection takes precedence")
//	logging.Error("Engine", err, "Batch failed")
//
// Until InitForCLI is called, WARN and ERROR entries are written to stderr and
// everything below is dropped. Reports are never written through this package;
// they go to the writer the reporter was configured with.
//
// # Thread Safety
//
// All functions are safe for concurrent use.
package logging
