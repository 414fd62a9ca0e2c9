// Package plan runs batches of call sites through the projection pipeline.
//
// Pipeline per batch:
//  1. Analyze every call site concurrently (selector model, null-safety
//     rewrite, schema inference, nesting limits)
//  2. Wait for all call sites (barrier)
//  3. Fold the surviving results into artifacts with one sequential
//     emission pass
//
// A call site that fails with a domain error is skipped for the batch and
// reported as a diagnostic; the rest of the batch continues.
package plan
