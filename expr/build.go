package expr

// Constructors used by the generator and by generated code.

// Param references a lambda parameter.
func Param(name string, t *Type) *Node {
	return &Node{Kind: KindParam, Name: name, Type: t}
}

// Capture references a value captured from the caller's scope.
func Capture(name string, t *Type) *Node {
	return &Node{Kind: KindCapture, Name: name, Type: t}
}

// Const is a literal value.
func Const(v any, t *Type) *Node {
	return &Node{Kind: KindConst, Value: v, Type: t}
}

// Null is the null literal of type t.
func Null(t *Type) *Node {
	return &Node{Kind: KindNull, Type: Nullable(t)}
}

// Empty is the canonical empty sequence of collection type t.
func Empty(t *Type) *Node {
	return &Node{Kind: KindEmpty, Type: NonNull(t)}
}

// Member is a plain member access target.name.
func Member(target *Node, name string, t *Type) *Node {
	return &Node{Kind: KindMember, Target: target, Name: name, Type: t}
}

// SafeMember is a null-propagating member access target?.name.
func SafeMember(target *Node, name string, t *Type) *Node {
	n := Member(target, name, t)
	n.Safe = true

	return n
}

// Call is a method call target.name(args...).
func Call(target *Node, name string, t *Type, args ...*Node) *Node {
	return &Node{Kind: KindCall, Target: target, Name: name, Type: t, Args: args}
}

// OpaqueCall is a call the generator cannot see through.
func OpaqueCall(target *Node, name string, t *Type, args ...*Node) *Node {
	n := Call(target, name, t, args...)
	n.Opaque = true

	return n
}

// Fn is an inner lambda passed as a call argument.
func Fn(params []string, body *Node) *Node {
	return &Node{Kind: KindLambda, Params: params, Body: body}
}

// Unary applies a prefix operator.
func Unary(op string, x *Node, t *Type) *Node {
	return &Node{Kind: KindUnary, Op: op, Left: x, Type: t}
}

// Binary applies an infix operator.
func Binary(op string, l, r *Node, t *Type) *Node {
	return &Node{Kind: KindBinary, Op: op, Left: l, Right: r, Type: t}
}

// Cond is test ? then : els.
func Cond(test, then, els *Node, t *Type) *Node {
	return &Node{Kind: KindCond, Test: test, Then: then, Else: els, Type: t}
}

// Coalesce is l ?? r. Rewritten trees never contain it.
func Coalesce(l, r *Node, t *Type) *Node {
	return &Node{Kind: KindCoalesce, Left: l, Right: r, Type: t}
}

// New constructs a value of shape t.
func New(t *Type, fields ...Field) *Node {
	return &Node{Kind: KindNew, Type: t, Fields: fields}
}

// F is a shorthand for a Field literal.
func F(name string, value *Node) Field {
	return Field{Name: name, Value: value}
}

// NewLambda returns the root lambda of a projection.
func NewLambda(param string, source *Type, body *Node) *Lambda {
	return &Lambda{Param: param, Source: source, Body: body}
}

// NotNil is x != null.
func NotNil(x *Node) *Node {
	return Binary(OpNe, x, Null(x.Type), Basic("bool"))
}

// And folds the operands into a left-associated conjunction. It returns nil
// for no operands.
func And(xs ...*Node) *Node {
	var acc *Node
	for _, x := range xs {
		if acc == nil {
			acc = x
			continue
		}

		acc = Binary(OpAnd, acc, x, Basic("bool"))
	}

	return acc
}
