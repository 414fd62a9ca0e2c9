// Package nest runs the per-call-site half of the pipeline: it parses and
// binds the selector, lowers nested Project calls, rewrites null-safe
// operators and infers the schema tree, then enforces the nesting limits.
//
// Analyze touches no shared mutable state and may run for many call sites in
// parallel.
package nest
