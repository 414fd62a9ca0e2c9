// Package gen renders an emission batch as Go source.
//
// Each caller package receives one projections_gen.go holding, in order:
//   - the generated output types, in first-seen order
//   - one builder function per binding key, returning the rewritten
//     expression tree as nested expr constructor calls
//   - an init function registering every builder with proj.Register
//
// Rendering uses text/template + go/format. When formatting fails the
// unformatted source is written next to the intended output for debugging.
package gen
