// Package bind resolves a selector syntax tree against the source type graph
// and produces a typed expr tree. Object constructions become shapes: output
// types with a per-call-site reference that are named later, during emission.
// Nested Project calls are lowered here into Select calls or inlined bodies.
package bind
