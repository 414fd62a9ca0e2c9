package nullsafe

import (
	"errors"

	"projection-generator/expr"
	"projection-generator/internal/diagnostic"
)

// Result is a rewritten expression.
type Result struct {
	// Node contains no null-propagating links and no coalesce nodes.
	Node *expr.Node
	// Type is the lifted result type.
	Type *expr.Type
	// Nullable reports that the expression may yield null.
	Nullable bool
	// EmptyFallback reports that the expression falls back to an empty
	// sequence when its source is absent.
	EmptyFallback bool
}

// Rewrite rewrites n. It fails with a null_safety_rewrite_failure diagnostic
// when a guard would have to evaluate an opaque call a second time.
func Rewrite(n *expr.Node) (Result, error) {
	out, err := rewrite(n)
	if err != nil {
		return Result{}, err
	}

	if err := expr.ValidateRewritten(out); err != nil {
		return Result{}, diagnostic.Errorf(diagnostic.CodeNullSafetyRewriteFailure, "%v", err)
	}

	return Describe(out), nil
}

// Describe summarizes an already rewritten expression.
func Describe(n *expr.Node) Result {
	return Result{
		Node:          n,
		Type:          n.Type,
		Nullable:      n.Type != nil && n.Type.Nullable,
		EmptyFallback: hasEmptyFallback(n),
	}
}

func hasEmptyFallback(n *expr.Node) bool {
	if n == nil || n.Kind != expr.KindCond {
		return false
	}

	return n.Then.Kind == expr.KindEmpty || n.Else.Kind == expr.KindEmpty ||
		hasEmptyFallback(n.Then) || hasEmptyFallback(n.Else)
}

func rewrite(n *expr.Node) (*expr.Node, error) {
	if n == nil {
		return nil, nil
	}

	switch n.Kind {
	case expr.KindMember, expr.KindCall:
		if n.Target != nil && n.HasSafeLink() {
			c, err := flatten(n)
			if err != nil {
				return nil, err
			}

			return c.guarded(), nil
		}
	case expr.KindCoalesce:
		return rewriteCoalesce(n)
	case expr.KindCond:
		return rewriteCond(n)
	}

	return rewriteChildren(n)
}

// rewriteChildren copies n with every child rewritten.
func rewriteChildren(n *expr.Node) (*expr.Node, error) {
	var errs []error
	sub := func(c *expr.Node) *expr.Node {
		r, err := rewrite(c)
		if err != nil {
			errs = append(errs, err)
		}

		return r
	}

	c := *n
	c.Target = sub(n.Target)
	c.Body = sub(n.Body)
	c.Left = sub(n.Left)
	c.Right = sub(n.Right)
	c.Test = sub(n.Test)
	c.Then = sub(n.Then)
	c.Else = sub(n.Else)

	if n.Args != nil {
		c.Args = make([]*expr.Node, len(n.Args))
		for i, a := range n.Args {
			c.Args[i] = sub(a)
		}
	}

	if n.Fields != nil {
		c.Fields = make([]expr.Field, len(n.Fields))
		for i, f := range n.Fields {
			c.Fields[i] = expr.F(f.Name, sub(f.Value))
		}
	}

	if len(errs) > 0 {
		return nil, errs[0]
	}

	return &c, nil
}

// chain is a flattened null-propagating chain: the conjunction of guards and
// the plain chain they protect.
type chain struct {
	guards []*expr.Node
	plain  *expr.Node
	lifted *expr.Type
}

func flatten(n *expr.Node) (*chain, error) {
	var links []*expr.Node
	for l := n; l.IsChainLink(); l = l.Target {
		links = append(links, l)
	}

	base := links[len(links)-1].Target

	acc, err := rewrite(base)
	if err != nil {
		return nil, err
	}

	c := &chain{lifted: n.LiftedType()}

	for i := len(links) - 1; i >= 0; i-- {
		link := links[i]

		if link.Safe {
			if expr.ContainsOpaque(acc) {
				return nil, diagnostic.Errorf(diagnostic.CodeNullSafetyRewriteFailure,
					"guarding %s would evaluate %s twice", n, acc)
			}

			c.guards = append(c.guards, expr.NotNil(expr.Clone(acc)))
		}

		l := *link
		l.Safe = false
		l.Target = acc

		if link.Args != nil {
			l.Args = make([]*expr.Node, len(link.Args))
			for j, a := range link.Args {
				if l.Args[j], err = rewrite(a); err != nil {
					return nil, err
				}
			}
		}

		acc = &l
	}

	c.plain = acc

	return c, nil
}

// fallback is the value of the chain when a guard fails.
func (c *chain) fallback() *expr.Node {
	if c.lifted.IsCollection() {
		return expr.Empty(c.lifted)
	}

	return expr.Null(c.lifted)
}

func (c *chain) guarded() *expr.Node {
	return expr.Cond(expr.And(c.guards...), c.plain, c.fallback(), c.lifted)
}

// rewriteCoalesce turns l ?? r into l != null ? l : r. For a
// null-propagating l the guards are reused: a?.b ?? r becomes
// a != null && a.b != null ? a.b : r.
func rewriteCoalesce(n *expr.Node) (*expr.Node, error) {
	r, err := rewrite(n.Right)
	if err != nil {
		return nil, err
	}

	var (
		test *expr.Node
		then *expr.Node
	)

	if n.Left.IsChainLink() && n.Left.HasSafeLink() {
		c, err := flatten(n.Left)
		if err != nil {
			return nil, err
		}

		then = c.plain
		test = expr.And(c.guards...)

		if c.plain.Type.Nullable || c.plain.Type.IsCollection() {
			if expr.ContainsOpaque(c.plain) {
				return nil, opaqueTwice(n.Left)
			}

			test = expr.And(test, expr.NotNil(expr.Clone(c.plain)))
		}
	} else {
		l, err := rewrite(n.Left)
		if err != nil {
			return nil, err
		}

		if expr.ContainsOpaque(l) {
			return nil, opaqueTwice(n.Left)
		}

		then = l
		test = expr.NotNil(expr.Clone(l))
	}

	return normalizeCond(expr.Cond(test, then, r, n.Type)), nil
}

func opaqueTwice(n *expr.Node) error {
	return diagnostic.Errorf(diagnostic.CodeNullSafetyRewriteFailure,
		"coalescing %s would evaluate it twice", n)
}

func rewriteCond(n *expr.Node) (*expr.Node, error) {
	c, err := rewriteChildren(n)
	if err != nil {
		return nil, err
	}

	return normalizeCond(c), nil
}

// normalizeCond applies the collection fallback policy: a null branch of a
// collection-valued conditional becomes the empty sequence, and every empty
// branch is typed with the conditional's result type.
func normalizeCond(n *expr.Node) *expr.Node {
	if !n.Type.IsCollection() {
		return n
	}

	fix := func(b *expr.Node) *expr.Node {
		if b.Kind == expr.KindNull || b.Kind == expr.KindEmpty {
			return expr.Empty(n.Type)
		}

		return b
	}

	n.Then = fix(n.Then)
	n.Else = fix(n.Else)
	n.Type = expr.NonNull(n.Type)

	return n
}

// ErrNotRewritten reports a tree that still contains null-propagating links.
var ErrNotRewritten = errors.New("expression still contains null-propagating operators")

// Check returns ErrNotRewritten when n contains a null-propagating link or a
// coalesce node.
func Check(n *expr.Node) error {
	if expr.Any(n, func(c *expr.Node) bool { return c.Safe || c.Kind == expr.KindCoalesce }) {
		return ErrNotRewritten
	}

	return nil
}
