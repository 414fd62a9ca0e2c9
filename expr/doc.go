// Package expr is the serializable expression tree produced by the projection
// generator.
//
// A compiled projection is a *Lambda whose body is built from Node values.
// Trees handed to a query backend contain no null-safe links and no coalesce
// nodes: every null check is spelled out as an explicit conditional, so a
// backend only has to understand member access, calls, operators, conditionals
// and object construction.
//
// Key types:
//   - Type: a type descriptor (basic, named, struct, slice, map, shape)
//   - Node: a single tagged node; Kind selects which fields are meaningful
//   - Lambda: the root of a projection
//
// Eval is a reference evaluator over map[string]any / []any values with native
// null propagation. It defines the semantics a backend translation must keep.
package expr
