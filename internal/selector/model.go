package selector

import "projection-generator/internal/diagnostic"

// Property is one output member: its name and the expression producing it.
type Property struct {
	Name string
	Expr Expr
	Pos  int
}

// Model is the property list of a selector whose body constructs an object.
type Model struct {
	Param string
	// Type is the type named in the root construction (new OrderDto { ... }),
	// empty for anonymous objects.
	Type       string
	Properties []Property
	Lambda     *LambdaExpr
}

// BuildModel parses src and models its body. A conditional body is accepted
// when both branches construct objects with the same ordered member names; it
// becomes one property list with a conditional per property.
func BuildModel(src string) (*Model, error) {
	lam, err := Parse(src)
	if err != nil {
		return nil, err
	}

	typ, props, err := ModelOf(lam.Body)
	if err != nil {
		return nil, err
	}

	return &Model{Param: lam.Params[0], Type: typ, Properties: props, Lambda: lam}, nil
}

// ModelOf models an object-construction expression, or a conditional choosing
// between two compatible ones.
func ModelOf(e Expr) (string, []Property, error) {
	switch n := e.(type) {
	case *NewExpr:
		props, err := ModelOfNew(n)
		return n.Type, props, err

	case *CondExpr:
		thenType, thenProps, err := ModelOf(n.Then)
		if err != nil {
			return "", nil, err
		}

		elseType, elseProps, err := ModelOf(n.Else)
		if err != nil {
			return "", nil, err
		}

		if thenType != elseType {
			return "", nil, shapeError(n.At, "conditional branches construct different types %q and %q", thenType, elseType)
		}

		if !sameNames(thenProps, elseProps) {
			return "", nil, shapeError(n.At, "conditional branches construct objects with different members")
		}

		props := make([]Property, len(thenProps))
		for i := range thenProps {
			props[i] = Property{
				Name: thenProps[i].Name,
				Expr: &CondExpr{At: n.At, Test: n.Test, Then: thenProps[i].Expr, Else: elseProps[i].Expr},
				Pos:  thenProps[i].Pos,
			}
		}

		return thenType, props, nil
	}

	return "", nil, shapeError(e.Pos(), "selector body must construct an object with new { ... }, got %s", Print(e))
}

// ModelOfNew returns the ordered properties of an object construction.
// Shorthand members take the name of their last member access.
func ModelOfNew(n *NewExpr) ([]Property, error) {
	props := make([]Property, 0, len(n.Members))
	seen := make(map[string]bool, len(n.Members))

	for _, m := range n.Members {
		name := m.Name
		if !m.Explicit {
			var ok bool
			if name, ok = ShorthandName(m.Value); !ok {
				return nil, shapeError(m.At, "cannot infer a member name from %s; write Name = %s", Print(m.Value), Print(m.Value))
			}
		}

		if seen[name] {
			return nil, shapeError(m.At, "duplicate member %q", name)
		}

		seen[name] = true
		props = append(props, Property{Name: name, Expr: m.Value, Pos: m.At})
	}

	return props, nil
}

// ShorthandName returns the member name a shorthand initializer produces.
func ShorthandName(e Expr) (string, bool) {
	switch v := e.(type) {
	case *MemberExpr:
		return v.Name, true
	case *Ident:
		return v.Name, true
	}

	return "", false
}

func sameNames(a, b []Property) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i].Name != b[i].Name {
			return false
		}
	}

	return true
}

func shapeError(pos int, format string, args ...any) *diagnostic.Error {
	return syntaxError(pos, format, args...)
}
