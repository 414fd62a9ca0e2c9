package expr

import "slices"

// Children returns the direct sub-nodes of n in evaluation order.
func (n *Node) Children() []*Node {
	if n == nil {
		return nil
	}

	var out []*Node
	add := func(c *Node) {
		if c != nil {
			out = append(out, c)
		}
	}

	add(n.Target)
	for _, a := range n.Args {
		add(a)
	}

	add(n.Body)
	add(n.Left)
	add(n.Right)
	add(n.Test)
	add(n.Then)
	add(n.Else)

	for _, f := range n.Fields {
		add(f.Value)
	}

	return out
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the children of the current node.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}

	for _, c := range n.Children() {
		Walk(c, fn)
	}
}

// Any reports whether pred holds for n or any descendant.
func Any(n *Node, pred func(*Node) bool) bool {
	found := false
	Walk(n, func(c *Node) bool {
		if found {
			return false
		}

		if pred(c) {
			found = true
			return false
		}

		return true
	})

	return found
}

// ContainsOpaque reports whether evaluating n would run an opaque call.
func ContainsOpaque(n *Node) bool {
	return Any(n, func(c *Node) bool { return c.Kind == KindCall && c.Opaque })
}

// Clone returns a deep copy of n. Types are shared.
func Clone(n *Node) *Node {
	return Rebuild(n, func(c *Node) *Node { return c })
}

// Rebuild copies n bottom-up and passes every copied node to fn, whose result
// replaces it in the parent.
func Rebuild(n *Node, fn func(*Node) *Node) *Node {
	if n == nil {
		return nil
	}

	c := *n
	c.Target = Rebuild(n.Target, fn)
	c.Body = Rebuild(n.Body, fn)
	c.Left = Rebuild(n.Left, fn)
	c.Right = Rebuild(n.Right, fn)
	c.Test = Rebuild(n.Test, fn)
	c.Then = Rebuild(n.Then, fn)
	c.Else = Rebuild(n.Else, fn)
	c.Params = slices.Clone(n.Params)
	c.TypeArgs = slices.Clone(n.TypeArgs)

	if n.Args != nil {
		c.Args = make([]*Node, len(n.Args))
		for i, a := range n.Args {
			c.Args[i] = Rebuild(a, fn)
		}
	}

	if n.Fields != nil {
		c.Fields = make([]Field, len(n.Fields))
		for i, f := range n.Fields {
			c.Fields[i] = Field{Name: f.Name, Value: Rebuild(f.Value, fn)}
		}
	}

	return fn(&c)
}

// MapTypes returns a copy of n with every type passed through MapType(f).
func MapTypes(n *Node, f func(*Type) *Type) *Node {
	return Rebuild(n, func(c *Node) *Node {
		c.Type = MapType(c.Type, f)
		for i, t := range c.TypeArgs {
			c.TypeArgs[i] = MapType(t, f)
		}

		return c
	})
}

// Substitute replaces free references to parameter name with copies of repl.
// Inner lambdas that rebind name shadow it.
func Substitute(n *Node, name string, repl *Node) *Node {
	if n == nil {
		return nil
	}

	switch {
	case n.Kind == KindParam && n.Name == name:
		return Clone(repl)
	case n.Kind == KindLambda && slices.Contains(n.Params, name):
		return Clone(n)
	}

	c := *n
	c.Target = Substitute(n.Target, name, repl)
	c.Body = Substitute(n.Body, name, repl)
	c.Left = Substitute(n.Left, name, repl)
	c.Right = Substitute(n.Right, name, repl)
	c.Test = Substitute(n.Test, name, repl)
	c.Then = Substitute(n.Then, name, repl)
	c.Else = Substitute(n.Else, name, repl)
	c.Params = slices.Clone(n.Params)

	if n.Args != nil {
		c.Args = make([]*Node, len(n.Args))
		for i, a := range n.Args {
			c.Args[i] = Substitute(a, name, repl)
		}
	}

	if n.Fields != nil {
		c.Fields = make([]Field, len(n.Fields))
		for i, f := range n.Fields {
			c.Fields[i] = Field{Name: f.Name, Value: Substitute(f.Value, name, repl)}
		}
	}

	return &c
}
