package bind

import (
	"go/types"
	"slices"

	"projection-generator/expr"
	"projection-generator/internal/analyze"
	"projection-generator/internal/diagnostic"
	"projection-generator/internal/match"
	"projection-generator/internal/selector"
)

func (b *binder) bindCall(n *selector.CallExpr, scope env) (*expr.Node, error) {
	if n.X == nil {
		return nil, unresolved("unknown function %s", n.Name)
	}

	if id, ok := n.X.(*selector.Ident); ok && id.Name == "Enumerable" && !b.defined(id.Name, scope) {
		return b.bindEnumerable(n)
	}

	recv, err := b.bind(n.X, scope)
	if err != nil {
		return nil, err
	}

	if recv.Type == nil {
		return nil, shapeErr("method %s on an untyped value", n.Name)
	}

	rt := expr.NonNull(recv.Type)

	switch {
	case n.Name == "Project":
		return b.bindProject(n, recv, scope)
	case len(n.TypeArgs) > 0:
		return nil, shapeErr("method %s does not take type arguments", n.Name)
	case rt.Kind == expr.TypeSlice:
		return b.bindSequence(n, recv, scope)
	case rt.IsString():
		return b.bindString(n, recv, scope)
	case captureRooted(recv):
		return b.bindOpaque(n, recv, scope)
	}

	return nil, unresolved("%s has no method %s", rt, n.Name)
}

func (b *binder) defined(name string, scope env) bool {
	if _, ok := scope.vars[name]; ok {
		return true
	}

	_, ok := b.site.Capture(name)

	return ok
}

// bindEnumerable binds Enumerable.Empty<T>(). An element type that is not a
// Go type leaves the sequence untyped; the enclosing conditional types it.
func (b *binder) bindEnumerable(n *selector.CallExpr) (*expr.Node, error) {
	if n.Name != "Empty" || len(n.Args) != 0 || len(n.TypeArgs) != 1 {
		return nil, shapeErr("only Enumerable.Empty<T>() is supported, got %s", selector.Print(n))
	}

	elem := b.resolveType(n.TypeArgs[0])
	if elem == nil {
		return &expr.Node{Kind: expr.KindEmpty}, nil
	}

	return expr.Empty(expr.SliceOf(elem)), nil
}

func (b *binder) bindSequence(n *selector.CallExpr, recv *expr.Node, scope env) (*expr.Node, error) {
	rt := expr.NonNull(recv.Type)
	elem := rt.Elem

	call := func(t *expr.Type, args ...*expr.Node) *expr.Node {
		c := expr.Call(recv, n.Name, t, args...)
		c.Safe = n.Safe

		return c
	}

	switch n.Name {
	case "Select":
		fn, body, err := b.lambdaArg(n, recv, elem, scope, "")
		if err != nil {
			return nil, err
		}

		return call(expr.SliceOf(body.LiftedType()), fn), nil

	case "Where", "All":
		fn, body, err := b.lambdaArg(n, recv, elem, scope, "")
		if err != nil {
			return nil, err
		}

		if !body.LiftedType().IsBool() {
			return nil, shapeErr("%s predicate must be bool, got %s", n.Name, body.LiftedType())
		}

		if n.Name == "All" {
			return call(expr.Basic("bool"), fn), nil
		}

		return call(rt, fn), nil

	case "OrderBy", "OrderByDescending":
		fn, _, err := b.lambdaArg(n, recv, elem, scope, "")
		if err != nil {
			return nil, err
		}

		return call(rt, fn), nil

	case "Take", "Skip":
		if len(n.Args) != 1 {
			return nil, shapeErr("%s expects one argument", n.Name)
		}

		k, err := b.bindValue(n.Args[0], scope)
		if err != nil {
			return nil, err
		}

		if !k.LiftedType().IsNumeric() {
			return nil, shapeErr("%s expects an integer, got %s", n.Name, k.LiftedType())
		}

		return call(rt, k), nil

	case "Distinct", "ToList", "ToArray":
		if len(n.Args) != 0 {
			return nil, shapeErr("%s takes no arguments", n.Name)
		}

		return call(rt), nil

	case "Count", "Any", "First", "FirstOrDefault":
		args, err := b.optionalPredicate(n, recv, elem, scope)
		if err != nil {
			return nil, err
		}

		switch n.Name {
		case "Count":
			return call(expr.Basic("int"), args...), nil
		case "Any":
			return call(expr.Basic("bool"), args...), nil
		case "First":
			return call(elem, args...), nil
		default:
			return call(expr.Nullable(elem), args...), nil
		}

	case "Sum", "Min", "Max":
		t := elem

		var args []*expr.Node
		if len(n.Args) > 0 {
			fn, body, err := b.lambdaArg(n, recv, elem, scope, "")
			if err != nil {
				return nil, err
			}

			t = body.LiftedType()
			args = append(args, fn)
		}

		if n.Name == "Sum" {
			if !t.IsNumeric() {
				return nil, shapeErr("Sum over %s", t)
			}

			return call(expr.NonNull(t), args...), nil
		}

		return call(expr.Nullable(t), args...), nil
	}

	return nil, unresolved("%s has no method %s", rt, n.Name)
}

func (b *binder) optionalPredicate(n *selector.CallExpr, recv *expr.Node, elem *expr.Type, scope env) ([]*expr.Node, error) {
	if len(n.Args) == 0 {
		return nil, nil
	}

	fn, body, err := b.lambdaArg(n, recv, elem, scope, "")
	if err != nil {
		return nil, err
	}

	if !body.LiftedType().IsBool() {
		return nil, shapeErr("%s predicate must be bool, got %s", n.Name, body.LiftedType())
	}

	return []*expr.Node{fn}, nil
}

// lambdaArg binds the only argument of n as a single-parameter lambda over elem.
func (b *binder) lambdaArg(n *selector.CallExpr, recv *expr.Node, elem *expr.Type, scope env, name string) (*expr.Node, *expr.Node, error) {
	if len(n.Args) != 1 {
		return nil, nil, shapeErr("%s expects a lambda argument", n.Name)
	}

	lam, ok := n.Args[0].(*selector.LambdaExpr)
	if !ok || len(lam.Params) != 1 {
		return nil, nil, shapeErr("%s expects a lambda such as x => ..., got %s", n.Name, selector.Print(n.Args[0]))
	}

	inner := scope.with(lam.Params[0], expr.NonNull(elem))
	inner.owner, inner.field = origin(recv, scope)
	inner.name = name

	body, err := b.bindValue(lam.Body, inner)
	if err != nil {
		return nil, nil, err
	}

	return expr.Fn(lam.Params, body), body, nil
}

// origin returns the source member a method call ranges over: for
// o.Items.Where(...).Select(...) it is (Order, Items).
func origin(recv *expr.Node, scope env) (*expr.Type, string) {
	n := recv
	for n != nil && n.Kind == expr.KindCall {
		n = n.Target
	}

	if n != nil && n.Kind == expr.KindMember {
		return expr.NonNull(n.Target.Type), n.Name
	}

	return scope.owner, scope.field
}

func (b *binder) bindString(n *selector.CallExpr, recv *expr.Node, scope env) (*expr.Node, error) {
	var (
		t     *expr.Type
		arity int
	)

	switch n.Name {
	case "ToUpper", "ToLower", "Trim":
		t = expr.Basic("string")
	case "Contains", "StartsWith", "EndsWith":
		t, arity = expr.Basic("bool"), 1
	default:
		return nil, unresolved("string has no method %s", n.Name).
			WithSuggestions("ToUpper", "ToLower", "Trim", "Contains", "StartsWith", "EndsWith")
	}

	if len(n.Args) != arity {
		return nil, shapeErr("%s expects %d argument(s)", n.Name, arity)
	}

	args := make([]*expr.Node, len(n.Args))
	for i, a := range n.Args {
		v, err := b.bindValue(a, scope)
		if err != nil {
			return nil, err
		}

		if !v.LiftedType().IsString() {
			return nil, shapeErr("%s expects a string argument, got %s", n.Name, v.LiftedType())
		}

		args[i] = v
	}

	c := expr.Call(recv, n.Name, t, args...)
	c.Safe = n.Safe

	return c, nil
}

func captureRooted(n *expr.Node) bool {
	for n.IsChainLink() {
		n = n.Target
	}

	return n.Kind == expr.KindCapture
}

// bindOpaque binds a method call on a captured value. The method is resolved
// with go/types and the call is marked opaque.
func (b *binder) bindOpaque(n *selector.CallExpr, recv *expr.Node, scope env) (*expr.Node, error) {
	gt := b.goType(recv)
	if gt == nil {
		return nil, unresolved("%s has no method %s", recv.Type, n.Name)
	}

	var pkg *types.Package
	if named, ok := types.Unalias(gt).(*types.Named); ok {
		pkg = named.Obj().Pkg()
	}

	obj, _, _ := types.LookupFieldOrMethod(gt, true, pkg, n.Name)

	fn, ok := obj.(*types.Func)
	if !ok {
		return nil, unresolved("%s has no method %s", recv.Type, n.Name)
	}

	sig, _ := fn.Type().(*types.Signature)
	if sig == nil || sig.Results().Len() != 1 {
		return nil, shapeErr("method %s must return exactly one value", n.Name)
	}

	if sig.Params().Len() != len(n.Args) {
		return nil, shapeErr("method %s expects %d argument(s), got %d", n.Name, sig.Params().Len(), len(n.Args))
	}

	rt := analyze.ExprType(b.types.TypeOf(sig.Results().At(0).Type()))
	if rt == nil {
		return nil, shapeErr("method %s returns an unsupported type", n.Name)
	}

	args := make([]*expr.Node, len(n.Args))
	for i, a := range n.Args {
		v, err := b.bindValue(a, scope)
		if err != nil {
			return nil, err
		}

		if err := b.checkArg(n.Name, i, v, sig.Params().At(i).Type()); err != nil {
			return nil, err
		}

		args[i] = v
	}

	c := expr.OpaqueCall(recv, n.Name, rt, args...)
	c.Safe = n.Safe

	return c, nil
}

// checkArg rejects an argument Go would not accept without a conversion.
// Constants stay untyped until the call is evaluated and are not checked.
func (b *binder) checkArg(method string, i int, arg *expr.Node, param types.Type) error {
	if arg.Kind == expr.KindConst || arg.Kind == expr.KindNull {
		return nil
	}

	gt := b.goType(arg)
	if gt == nil {
		if t := arg.Type; t != nil && t.Kind == expr.TypeBasic && !t.Nullable {
			if obj, ok := types.Universe.Lookup(t.Name).(*types.TypeName); ok {
				gt = obj.Type()
			}
		}
	}

	if gt == nil {
		return nil
	}

	res := match.ScoreTypeCompatibility(gt, param)
	if !res.Compatibility.OK() {
		return shapeErr("argument %d of %s: %s value cannot be passed as %s", i+1, method, res.SourceType, res.TargetType)
	}

	return nil
}

func (b *binder) goType(recv *expr.Node) types.Type {
	if recv.Kind == expr.KindCapture {
		if c, ok := b.site.Capture(recv.Name); ok && c.Type != nil {
			return c.Type.GoType
		}
	}

	t := expr.NonNull(recv.Type)
	if t.Kind != expr.TypeStruct && t.Kind != expr.TypeNamed {
		return nil
	}

	if info := b.types.Lookup(t.Pkg, t.Name); info != nil {
		return info.GoType
	}

	return nil
}

// bindProject lowers a nested Project call. Over a collection it becomes
// Select; over a single value the lambda body is inlined with the parameter
// replaced by the receiver, guarded when the receiver may be null.
func (b *binder) bindProject(n *selector.CallExpr, recv *expr.Node, scope env) (*expr.Node, error) {
	var name string
	if len(n.TypeArgs) > 0 {
		name = lastElem(n.TypeArgs[len(n.TypeArgs)-1])
	}

	if len(n.Args) != 1 {
		return nil, shapeErr("Project expects one lambda argument")
	}

	lam, ok := n.Args[0].(*selector.LambdaExpr)
	if !ok || len(lam.Params) != 1 {
		return nil, shapeErr("Project expects a lambda such as x => new { ... }")
	}

	if _, ok := lam.Body.(*selector.NewExpr); !ok {
		return nil, shapeErr("Project lambda must construct an object, got %s", selector.Print(lam.Body))
	}

	rt := expr.NonNull(recv.Type)
	if rt.Kind == expr.TypeSlice {
		fn, body, err := b.lambdaArg(n, recv, rt.Elem, scope, name)
		if err != nil {
			return nil, err
		}

		c := expr.Call(recv, "Select", expr.SliceOf(body.Type), fn)
		c.Safe = n.Safe

		return c, nil
	}

	if rt.Kind != expr.TypeStruct {
		return nil, shapeErr("Project over %s", rt)
	}

	_, body, err := b.lambdaArg(n, recv, rt, scope, name)
	if err != nil {
		return nil, err
	}

	param := lam.Params[0]
	guard := n.Safe || recv.HasSafeLink()

	if expr.ContainsOpaque(recv) && (guard || uses(body, param) > 1) {
		return nil, diagnostic.Errorf(diagnostic.CodeNullSafetyRewriteFailure,
			"inlining Project would evaluate %s more than once", recv)
	}

	if !guard {
		return expr.Substitute(body, param, recv), nil
	}

	inlined := expr.Substitute(body, param, stripSafe(recv))
	t := expr.Nullable(body.Type)

	return expr.Cond(expr.NotNil(expr.Clone(recv)), inlined, expr.Null(t), t), nil
}

func stripSafe(n *expr.Node) *expr.Node {
	c := expr.Clone(n)
	for l := c; l.IsChainLink(); l = l.Target {
		l.Safe = false
	}

	return c
}

func uses(n *expr.Node, param string) int {
	count := 0
	expr.Walk(n, func(c *expr.Node) bool {
		if c.Kind == expr.KindLambda && slices.Contains(c.Params, param) {
			return false
		}

		if c.Kind == expr.KindParam && c.Name == param {
			count++
		}

		return true
	})

	return count
}
