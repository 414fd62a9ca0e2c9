// Package schema infers the output shapes of a bound, null-safe selector.
//
// Every object construction of a call site becomes a Node. Nodes form a tree
// that mirrors the nesting of constructions in the selector; a property whose
// value is a construction, or a collection of them, points at the nested node.
//
// Nodes are hashed structurally (names, types, nullability and nested hashes),
// so equal shapes from unrelated call sites hash equally. The emitter relies
// on that to declare each shape once.
package schema
