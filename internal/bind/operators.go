package bind

import (
	"projection-generator/expr"
	"projection-generator/internal/selector"
)

func (b *binder) bindUnary(n *selector.UnaryExpr, scope env) (*expr.Node, error) {
	x, err := b.bindValue(n.X, scope)
	if err != nil {
		return nil, err
	}

	t := x.LiftedType()

	switch n.Op {
	case expr.OpNot:
		if !t.IsBool() {
			return nil, shapeErr("operator ! on %s", t)
		}
	case expr.OpNeg:
		if !t.IsNumeric() {
			return nil, shapeErr("operator - on %s", t)
		}
	}

	return expr.Unary(n.Op, x, t), nil
}

func (b *binder) bindBinary(n *selector.BinaryExpr, scope env) (*expr.Node, error) {
	l, err := b.bind(n.X, scope)
	if err != nil {
		return nil, err
	}

	r, err := b.bind(n.Y, scope)
	if err != nil {
		return nil, err
	}

	if n.Op == "??" {
		return b.coalesce(l, r)
	}

	if n.Op == expr.OpEq || n.Op == expr.OpNe {
		l, r = typeNull(l, r), typeNull(r, l)
	}

	if l.Type == nil || r.Type == nil {
		return nil, shapeErr("operator %s on an untyped value", n.Op)
	}

	lt, rt := l.LiftedType(), r.LiftedType()
	boolean := expr.Basic("bool")

	switch n.Op {
	case expr.OpAnd, expr.OpOr:
		if !lt.IsBool() || !rt.IsBool() {
			return nil, shapeErr("operator %s on %s and %s", n.Op, lt, rt)
		}

		return expr.Binary(n.Op, l, r, boolean), nil

	case expr.OpEq, expr.OpNe:
		if l.Kind != expr.KindNull && r.Kind != expr.KindNull && !equatable(lt, rt) {
			return nil, shapeErr("cannot compare %s and %s", lt, rt)
		}

		return expr.Binary(n.Op, l, r, boolean), nil

	case expr.OpLt, expr.OpLe, expr.OpGt, expr.OpGe:
		if !ordered(lt, rt) {
			return nil, shapeErr("cannot order %s and %s", lt, rt)
		}

		return expr.Binary(n.Op, l, r, boolean), nil

	case expr.OpAdd:
		if stringish(lt) || stringish(rt) {
			return expr.Binary(n.Op, l, r, lift(expr.Basic("string"), lt, rt)), nil
		}
	}

	if !lt.IsNumeric() || !rt.IsNumeric() {
		return nil, shapeErr("operator %s on %s and %s", n.Op, lt, rt)
	}

	return expr.Binary(n.Op, l, r, lift(widen(lt, rt), lt, rt)), nil
}

func (b *binder) bindCond(n *selector.CondExpr, scope env) (*expr.Node, error) {
	test, err := b.bindValue(n.Test, scope)
	if err != nil {
		return nil, err
	}

	if !test.LiftedType().IsBool() {
		return nil, shapeErr("condition %s is not bool", selector.Print(n.Test))
	}

	then, err := b.bind(n.Then, scope)
	if err != nil {
		return nil, err
	}

	els, err := b.bind(n.Else, scope)
	if err != nil {
		return nil, err
	}

	then, els, t, err := b.unify(then, els)
	if err != nil {
		return nil, err
	}

	return expr.Cond(test, then, els, t), nil
}

func (b *binder) coalesce(l, r *expr.Node) (*expr.Node, error) {
	if l.Type == nil {
		return nil, shapeErr("left operand of ?? is untyped")
	}

	l, r, t, err := b.unify(l, r)
	if err != nil {
		return nil, err
	}

	if !t.IsCollection() {
		t = expr.NonNull(t)
		if r.LiftedType().Nullable {
			t = expr.Nullable(t)
		}
	}

	return expr.Coalesce(l, r, t), nil
}

// unify types the two branches of a conditional or coalesce. Untyped null and
// empty-sequence branches take the type of the other branch, and typed empty
// sequences are re-typed to it. Two constructions with the same members share
// one shape.
func (b *binder) unify(a, c *expr.Node) (*expr.Node, *expr.Node, *expr.Type, error) {
	if a.Type == nil && c.Type == nil {
		return nil, nil, nil, shapeErr("cannot infer the type of a conditional whose branches are both untyped")
	}

	var err error
	if a, err = retype(a, c); err != nil {
		return nil, nil, nil, err
	}

	if c, err = retype(c, a); err != nil {
		return nil, nil, nil, err
	}

	if a.Type == nil || c.Type == nil {
		return nil, nil, nil, shapeErr("cannot infer the type of a null or empty branch")
	}

	at, ct := a.LiftedType(), c.LiftedType()

	if as, cs := at.ShapeRoot(), ct.ShapeRoot(); as != nil && cs != nil && as.Ref != cs.Ref {
		if err := b.mergeShapes(a, c); err != nil {
			return nil, nil, nil, err
		}

		ct = c.LiftedType()
	}

	nullable := at.Nullable || ct.Nullable

	switch {
	case sameType(at, ct):
	case at.IsNumeric() && ct.IsNumeric():
		at = widen(at, ct)
	default:
		return nil, nil, nil, shapeErr("branches have different types %s and %s", at, ct)
	}

	t := expr.NonNull(at)
	if nullable {
		t = expr.Nullable(t)
	}

	return a, c, t, nil
}

// retype gives an untyped null or any empty sequence the type of other.
func retype(n, other *expr.Node) (*expr.Node, error) {
	switch {
	case n.Kind == expr.KindNull && n.Type == nil:
		return expr.Null(other.LiftedType()), nil
	case n.Kind == expr.KindEmpty && other.Type != nil && other.Kind != expr.KindEmpty:
		ot := other.LiftedType()
		if !ot.IsCollection() {
			return nil, shapeErr("empty sequence in a branch whose other branch is %s", ot)
		}

		return expr.Empty(ot), nil
	case n.Kind == expr.KindEmpty && n.Type == nil && other.Type != nil:
		return expr.Empty(other.Type), nil
	}

	return n, nil
}

// typeNull types an untyped null compared with other.
func typeNull(n, other *expr.Node) *expr.Node {
	if n.Kind == expr.KindNull && n.Type == nil && other.Type != nil {
		return expr.Null(other.LiftedType())
	}

	return n
}

// mergeShapes makes the construction c reuse the shape of a when both build
// objects with the same members and member types.
func (b *binder) mergeShapes(a, c *expr.Node) error {
	if a.Kind != expr.KindNew || c.Kind != expr.KindNew || len(a.Fields) != len(c.Fields) {
		return shapeErr("branches construct different shapes")
	}

	for i := range a.Fields {
		af, cf := a.Fields[i], c.Fields[i]
		if af.Name != cf.Name || !sameType(af.Value.LiftedType(), cf.Value.LiftedType()) {
			return shapeErr("branches construct different shapes (member %s)", af.Name)
		}
	}

	b.dropShape(c.Type.Ref)
	c.Type = a.Type

	return nil
}

// sameType compares types ignoring top-level nullability.
func sameType(a, c *expr.Type) bool {
	return expr.Equal(expr.NonNull(a), expr.NonNull(c))
}

func equatable(a, c *expr.Type) bool {
	if a.IsCollection() || c.IsCollection() || a.Kind == expr.TypeShape || c.Kind == expr.TypeShape {
		return false
	}

	return sameType(a, c) || (a.IsNumeric() && c.IsNumeric()) || (stringish(a) && stringish(c)) ||
		a.Kind == expr.TypeStruct && c.Kind == expr.TypeStruct
}

func ordered(a, c *expr.Type) bool {
	return (a.IsNumeric() && c.IsNumeric()) || (stringish(a) && stringish(c)) ||
		(a.Kind == expr.TypeNamed && sameType(a, c))
}

// stringish reports string and named string-like types such as enums.
func stringish(t *expr.Type) bool {
	return t.IsString() || t.Kind == expr.TypeNamed
}

func widen(a, c *expr.Type) *expr.Type {
	switch {
	case expr.NonNull(a).Name == expr.NonNull(c).Name:
		return expr.NonNull(a)
	case isFloat(a) || isFloat(c):
		return expr.Basic("float64")
	default:
		return expr.Basic("int64")
	}
}

func isFloat(t *expr.Type) bool {
	return t.Name == "float32" || t.Name == "float64"
}

// lift makes t nullable when any operand is.
func lift(t *expr.Type, operands ...*expr.Type) *expr.Type {
	for _, o := range operands {
		if o.Nullable {
			return expr.Nullable(t)
		}
	}

	return t
}
