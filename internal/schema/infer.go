package schema

import (
	"fmt"

	"projection-generator/expr"
	"projection-generator/internal/analyze"
	"projection-generator/internal/bind"
	"projection-generator/internal/callsite"
	"projection-generator/internal/diagnostic"
	"projection-generator/internal/match"
	"projection-generator/internal/nullsafe"
)

// Infer builds the schema tree of site. bound is the binder's result and body
// the rewritten root construction.
func Infer(site *callsite.CallSite, bound *bind.Result, body *expr.Node) (*Tree, error) {
	if body == nil || body.Kind != expr.KindNew {
		return nil, diagnostic.Errorf(diagnostic.CodeUnsupportedSelectorShape, "selector body is not an object construction")
	}

	news := constructions(body)
	tree := &Tree{}
	byRef := make(map[string]*Node, len(bound.Shapes))

	for _, s := range bound.Shapes {
		n, ok := news[s.Type.Ref]
		if !ok {
			continue
		}

		node := &Node{
			Name:      s.Name,
			Namespace: site.Namespace,
			Source:    s.Source,
			Origin:    s.Origin,
			Key:       s.Key(),
			Depth:     s.Depth,
			Shape:     s.Type,
			Location:  site.Location,
		}

		for p := s.Parent; p != nil; p = p.Parent {
			if parent, ok := byRef[p.Type.Ref]; ok {
				node.Parent = parent
				parent.Children = append(parent.Children, node)

				break
			}
		}

		for _, f := range n.Fields {
			r := nullsafe.Describe(f.Value)
			node.Properties = append(node.Properties, &Property{
				Name:          f.Name,
				Expr:          f.Value,
				Type:          r.Type,
				Nullable:      r.Nullable,
				EmptyFallback: r.EmptyFallback,
				Source:        memberText(s, f.Name),
			})
		}

		byRef[s.Type.Ref] = node
		tree.Nodes = append(tree.Nodes, node)
	}

	tree.Root = byRef[body.Type.Ref]
	if tree.Root == nil {
		return nil, diagnostic.Errorf(diagnostic.CodeUnsupportedSelectorShape, "root construction has no shape")
	}

	for _, node := range tree.Nodes {
		for _, p := range node.Properties {
			if s := p.Type.ShapeRoot(); s != nil && s.Ref != "" {
				p.Nested = byRef[s.Ref]
			}
		}
	}

	assignModes(site, tree)

	if err := matchTree(tree); err != nil {
		return nil, err
	}

	return tree, nil
}

// constructions indexes the first construction of every shape, in pre-order.
func constructions(body *expr.Node) map[string]*expr.Node {
	out := make(map[string]*expr.Node)
	expr.Walk(body, func(n *expr.Node) bool {
		if n.Kind == expr.KindNew && n.Type != nil {
			if _, ok := out[n.Type.Ref]; !ok {
				out[n.Type.Ref] = n
			}
		}

		return true
	})

	return out
}

func memberText(s *bind.Shape, name string) string {
	for _, m := range s.Members {
		if m.Name == name {
			return m.Text
		}
	}

	return ""
}

// assignModes gives every node its naming mode: the root inherits the call
// site's, other nodes are explicit when the selector names them and anonymous
// otherwise. Names already declared in the caller's package bind to the
// declared type.
func assignModes(site *callsite.CallSite, tree *Tree) {
	for _, n := range tree.Nodes {
		var mode callsite.Mode = callsite.Anonymous{}

		switch {
		case n.Name != "" && (n != tree.Root || isAnonymous(site.Mode)):
			mode = callsite.ExplicitNamed{Name: n.Name}
		case n == tree.Root:
			mode = site.Mode
		}

		if m, ok := mode.(callsite.ExplicitNamed); ok {
			if t, ok := site.Declared[m.Name]; ok && t.Deref().Kind == analyze.TypeKindStruct {
				mode = callsite.PreExisting{Type: t}
			}
		}

		n.Mode = mode

		if m, ok := mode.(callsite.PreExisting); ok {
			n.Name = m.Type.ID.Name
		}
	}
}

func isAnonymous(m callsite.Mode) bool {
	_, ok := m.(callsite.Anonymous)
	return ok
}

// matchTree checks every pre-existing node against its declared type. Nested
// shapes stored in a declared struct field bind to that struct.
func matchTree(tree *Tree) error {
	done := make(map[*Node]bool)

	var visit func(n *Node) error
	visit = func(n *Node) error {
		if done[n] {
			return nil
		}

		done[n] = true

		m, ok := n.Mode.(callsite.PreExisting)
		if !ok {
			return nil
		}

		return matchNode(n, m.Type, visit)
	}

	for _, n := range tree.Nodes {
		if err := visit(n); err != nil {
			return err
		}
	}

	return nil
}

func matchNode(n *Node, decl *analyze.TypeInfo, visit func(*Node) error) error {
	for _, p := range n.Properties {
		f, ok := decl.FieldByName(p.Name)
		if !ok {
			list := match.RankFields(p.Name, p.Type, decl.Deref().Fields)

			return diagnostic.Errorf(diagnostic.CodeMissingTargetMember,
				"%s has no member %s", decl.ID, p.Name).
				In(memberPath(n, p)).
				WithSuggestions(list.AboveThreshold(match.DefaultMinScore).Top(3).Names()...)
		}

		p.Target = f

		if p.Nested != nil {
			inner := declaredStruct(f.Type)
			if inner == nil {
				return conflict(n, p, f, fmt.Sprintf("%s is not a struct", analyze.TypeString(f.Type)))
			}

			p.Nested.Mode = callsite.PreExisting{Type: inner}
			p.Nested.Name = inner.ID.Name

			if err := visit(p.Nested); err != nil {
				return err
			}
		}

		res := match.Compatible(declaredView(p), analyze.ExprType(f.Type))
		if !res.Compatibility.OK() {
			return conflict(n, p, f, res.Reason)
		}
	}

	return nil
}

// declaredStruct returns the struct stored in a field of type t: T, *T, []T
// or []*T.
func declaredStruct(t *analyze.TypeInfo) *analyze.TypeInfo {
	d := t.Deref()
	if d.IsCollection() {
		d = d.Elem().Deref()
	}

	if d == nil || d.Kind != analyze.TypeKindStruct || !d.IsNamed() {
		return nil
	}

	return d
}

// declaredView replaces the shape in p's type by the declared type it is
// bound to.
func declaredView(p *Property) *expr.Type {
	return expr.MapType(p.Type, func(t *expr.Type) *expr.Type {
		if t.Kind != expr.TypeShape || t.Ref == "" || p.Nested == nil {
			return nil
		}

		m, ok := p.Nested.Mode.(callsite.PreExisting)
		if !ok {
			return nil
		}

		s := expr.Shape(m.Type.ID.PkgPath, m.Type.ID.Name)
		s.Nullable = t.Nullable

		return s
	})
}

func conflict(n *Node, p *Property, f *analyze.FieldInfo, reason string) error {
	return diagnostic.Errorf(diagnostic.CodeAmbiguousMemberTypeConflict,
		"member %s is declared as %s but the selector produces %s: %s",
		f.Name, analyze.TypeString(f.Type), p.Type, reason).
		In(memberPath(n, p)).
		At(f.Pos)
}

func memberPath(n *Node, p *Property) string {
	if path := n.Path(); path != "" {
		return path + "." + p.Name
	}

	return p.Name
}
