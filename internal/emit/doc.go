// Package emit turns the analyzed call sites of one batch into artifacts:
// deduplicated output type definitions per caller package and one projection
// function per call site.
//
// Emission is a single deterministic fold over the call sites sorted by
// namespace, file, line, column and id. The registry built by the fold lives
// for one pass only; running Emit twice on the same input yields equal
// batches.
package emit
