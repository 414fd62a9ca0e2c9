package schema

import (
	"strings"

	"projection-generator/expr"
	"projection-generator/internal/analyze"
	"projection-generator/internal/callsite"
	"projection-generator/internal/diagnostic"
)

// Property is one member of an output shape.
type Property struct {
	Name string
	// Expr is the rewritten expression producing the value.
	Expr *expr.Node
	// Type is the lifted type of Expr. Shape components still carry the
	// call-site local Ref.
	Type          *expr.Type
	Nullable      bool
	EmptyFallback bool
	// Nested is the node of the shape carried by Type, if any.
	Nested *Node
	// Source is the selector text of the member.
	Source string
	// Target is the declared field a pre-existing type stores the value in.
	Target *analyze.FieldInfo
}

// Node is one output shape.
type Node struct {
	Properties []*Property
	// Hash is the structural content hash; see ComputeHashes.
	Hash      string
	Mode      callsite.Mode
	Name      string
	Namespace callsite.Namespace
	// Source is the type of the value the shape is constructed from.
	Source *expr.Type
	// Origin is the output member holding the shape, empty for the root.
	Origin string
	// Key identifies the source member the shape projects.
	Key   string
	Depth int
	// Detached nodes exceeded the nesting limits. They are emitted as
	// top-level anonymous shapes.
	Detached bool
	// Shape is the shape type shared with the expression tree.
	Shape    *expr.Type
	Parent   *Node
	Children []*Node
	Location diagnostic.Location
}

// Ref returns the call-site local reference of the node's shape.
func (n *Node) Ref() string {
	return n.Shape.Ref
}

// Path returns the dotted output member path from the root, e.g.
// "Lines.Product".
func (n *Node) Path() string {
	var parts []string
	for c := n; c != nil && c.Origin != ""; c = c.Parent {
		parts = append(parts, c.Origin)
	}

	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}

	return strings.Join(parts, ".")
}

// Property returns the property named name, or nil.
func (n *Node) Property(name string) *Property {
	for _, p := range n.Properties {
		if p.Name == name {
			return p
		}
	}

	return nil
}

// IsPreExisting reports whether the node binds to a declared type.
func (n *Node) IsPreExisting() bool {
	_, ok := n.Mode.(callsite.PreExisting)
	return ok
}

// Tree is the schema of one call site.
type Tree struct {
	Root *Node
	// Nodes lists every node in pre-order, the root first.
	Nodes []*Node
}

// ByRef returns the node of the shape with the given reference, or nil.
func (t *Tree) ByRef(ref string) *Node {
	for _, n := range t.Nodes {
		if n.Ref() == ref {
			return n
		}
	}

	return nil
}
