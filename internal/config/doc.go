// Package config resolves the hierarchy of verdict.yaml files that governs a
// test run.
//
// # Configuration Files
//
// Every directory of a test suite may contain a verdict.yaml. A file has up to
// three sections:
//
//	general:
//	  execCmd: ./analyzer
//	  timeout: 10s
//	warn:
//	  execFlags: --report=plain
//	  exactWarningsMatch: false
//	fix:
//	  execFlags: --fix
//
// Every field is optional. A node's effective configuration is its parent's
// effective configuration overridden field by field with its own; a section
// that the node does not declare is inherited whole. Defaults are applied
// after merging, when the effective configuration is resolved into
// GeneralSettings, WarnSettings and FixSettings.
//
// # Tree Resolution
//
// Resolver accepts three kinds of entry point: a directory holding a
// verdict.yaml, a verdict.yaml itself, or a single fixture. It builds the
// chain of ancestor nodes above the entry and then links every descendant
// verdict.yaml below it to its nearest governing node.
//
// Capture groups are 1-based regular expression group indexes. A group index
// of 0 disables the field, which lets a child node drop a column group set by
// its parent.
package config
