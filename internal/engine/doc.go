// Package engine drives a run over a resolved configuration tree.
//
// Every node of the entry subtree is checked by the plugins its effective
// configuration enables. Batches of one node run one after another; distinct
// nodes run concurrently up to the configured parallelism. Failures inside a
// batch are reported as failing results and never stop the run; only
// configuration validation, discovery and cancellation errors are returned.
package engine
