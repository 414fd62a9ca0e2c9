package bind

import (
	"errors"
	"fmt"
	"go/types"
	"maps"
	"slices"
	"strings"

	"projection-generator/expr"
	"projection-generator/internal/analyze"
	"projection-generator/internal/callsite"
	"projection-generator/internal/diagnostic"
	"projection-generator/internal/match"
	"projection-generator/internal/selector"
)

// Types is the view of the type graph the binder needs. *analyze.Analyzer
// implements it.
type Types interface {
	Lookup(pkgPath, name string) *analyze.TypeInfo
	TypeOf(t types.Type) *analyze.TypeInfo
	Resolve(name string) (*analyze.TypeInfo, error)
}

// Shape is one object construction in a selector.
type Shape struct {
	// Type is the shared shape type; its Ref is unique within the call site.
	Type *expr.Type
	// Name is the type name written in the selector or the Project type
	// argument, empty for anonymous constructions.
	Name string
	// Source is the type of the innermost lambda parameter.
	Source *expr.Type
	// Owner and Field identify the source member the shape projects: for
	// o.Items.Select(i => new {...}) they are Order and Items.
	Owner *expr.Type
	Field string
	// Origin is the output member holding the shape.
	Origin  string
	Parent  *Shape
	Depth   int
	Pos     int
	Members []Member
}

// Member records the selector text of one shape member.
type Member struct {
	Name string
	Text string
}

// Key identifies the source member a shape projects, for recursion checks.
func (s *Shape) Key() string {
	if s.Owner == nil {
		return s.Field
	}

	return expr.NonNull(s.Owner).String() + "." + s.Field
}

// Property is one bound top-level output member.
type Property struct {
	Name string
	Node *expr.Node
	Text string
	Pos  int
}

// Result is a bound selector.
type Result struct {
	Lambda     *expr.Lambda
	Root       *Shape
	Shapes     []*Shape
	Properties []Property
}

// ShapeByRef returns the shape with the given reference.
func (r *Result) ShapeByRef(ref string) *Shape {
	for _, s := range r.Shapes {
		if s.Type.Ref == ref {
			return s
		}
	}

	return nil
}

type binder struct {
	types  Types
	site   *callsite.CallSite
	shapes []*Shape
	next   int
}

// env is the lexical environment of an expression.
type env struct {
	vars   map[string]*expr.Type
	source *expr.Type
	owner  *expr.Type
	field  string
	// member is the output member being bound.
	member string
	shape  *Shape
	// name is the explicit type name for a construction that is the direct
	// body of a Project lambda.
	name string
}

func (e env) with(param string, t *expr.Type) env {
	e.vars = maps.Clone(e.vars)
	e.vars[param] = t
	e.source = t

	return e
}

// Bind types the model of site's selector.
func Bind(ts Types, site *callsite.CallSite, m *selector.Model) (*Result, error) {
	b := &binder{types: ts, site: site}

	source := analyze.ExprType(site.Source)
	if source == nil || source.Kind != expr.TypeStruct {
		return nil, diagnostic.Errorf(diagnostic.CodeInvalidCallSite, "source type %s is not a struct", site.Source.ID)
	}

	source = expr.NonNull(source)

	name, err := rootName(site.Mode, m.Type)
	if err != nil {
		return nil, err
	}

	root := b.newShape(name, env{source: source}, 0)
	scope := env{
		vars:   map[string]*expr.Type{m.Param: source},
		source: source,
		owner:  source,
		shape:  root,
	}

	res := &Result{Root: root}
	fields := make([]expr.Field, 0, len(m.Properties))

	for _, p := range m.Properties {
		scope.field = p.Name
		scope.member = p.Name

		n, err := b.bindValue(p.Expr, scope)
		if err != nil {
			return nil, under(err, p.Name)
		}

		text := selector.Print(p.Expr)
		res.Properties = append(res.Properties, Property{Name: p.Name, Node: n, Text: text, Pos: p.Pos})
		root.Members = append(root.Members, Member{Name: p.Name, Text: text})
		fields = append(fields, expr.F(p.Name, n))
	}

	res.Lambda = expr.NewLambda(m.Param, source, expr.New(root.Type, fields...))
	res.Shapes = b.shapes

	return res, nil
}

func rootName(mode callsite.Mode, written string) (string, error) {
	written = lastElem(written)

	switch m := mode.(type) {
	case callsite.Anonymous:
		return written, nil
	case callsite.ExplicitNamed:
		if written != "" && written != m.Name {
			return "", diagnostic.Errorf(diagnostic.CodeUnsupportedSelectorShape,
				"selector constructs %s but the call site expects %s", written, m.Name)
		}

		return m.Name, nil
	case callsite.PreExisting:
		if written != "" && written != m.Type.ID.Name {
			return "", diagnostic.Errorf(diagnostic.CodeUnsupportedSelectorShape,
				"selector constructs %s but the call site expects %s", written, m.Type.ID.Name)
		}

		return m.Type.ID.Name, nil
	default:
		panic(fmt.Sprintf("bind: unknown mode %T", mode))
	}
}

func (b *binder) newShape(name string, e env, pos int) *Shape {
	b.next++

	s := &Shape{
		Type:   &expr.Type{Kind: expr.TypeShape, Ref: fmt.Sprintf("s%d", b.next)},
		Name:   name,
		Source: e.source,
		Owner:  e.owner,
		Field:  e.field,
		Origin: e.member,
		Parent: e.shape,
		Pos:    pos,
	}

	if e.shape != nil {
		s.Depth = e.shape.Depth + 1
	}

	b.shapes = append(b.shapes, s)

	return s
}

func (b *binder) dropShape(ref string) {
	b.shapes = slices.DeleteFunc(b.shapes, func(s *Shape) bool { return s.Type.Ref == ref })
}

// bindValue binds an expression whose value is stored in an output member.
// Its type must be known.
func (b *binder) bindValue(e selector.Expr, scope env) (*expr.Node, error) {
	n, err := b.bind(e, scope)
	if err != nil {
		return nil, err
	}

	if n.Type == nil {
		return nil, shapeErr("cannot infer the type of %s", selector.Print(e))
	}

	return n, nil
}

func (b *binder) bind(e selector.Expr, scope env) (*expr.Node, error) {
	switch n := e.(type) {
	case *selector.Ident:
		return b.bindIdent(n, scope)
	case *selector.Literal:
		return bindLiteral(n), nil
	case *selector.EmptyList:
		return &expr.Node{Kind: expr.KindEmpty}, nil
	case *selector.MemberExpr:
		return b.bindMember(n, scope)
	case *selector.CallExpr:
		return b.bindCall(n, scope)
	case *selector.UnaryExpr:
		return b.bindUnary(n, scope)
	case *selector.BinaryExpr:
		return b.bindBinary(n, scope)
	case *selector.CondExpr:
		return b.bindCond(n, scope)
	case *selector.NewExpr:
		return b.bindNew(n, scope)
	case *selector.LambdaExpr:
		return nil, shapeErr("lambda %s outside a method call", selector.Print(n))
	}

	return nil, shapeErr("unsupported expression %T", e)
}

func (b *binder) bindIdent(n *selector.Ident, scope env) (*expr.Node, error) {
	if t, ok := scope.vars[n.Name]; ok {
		return expr.Param(n.Name, t), nil
	}

	if c, ok := b.site.Capture(n.Name); ok {
		t := analyze.ExprType(c.Type)
		if t == nil {
			return nil, unresolved("capture %q has no usable type", n.Name)
		}

		return expr.Capture(n.Name, t), nil
	}

	candidates := slices.Sorted(maps.Keys(scope.vars))
	for _, c := range b.site.Captures {
		candidates = append(candidates, c.Name)
	}

	return nil, unresolved("unknown identifier %q", n.Name).
		WithSuggestions(match.Suggest(n.Name, candidates, 3)...)
}

func bindLiteral(n *selector.Literal) *expr.Node {
	switch n.Kind {
	case selector.LitString:
		return expr.Const(n.Value, expr.Basic("string"))
	case selector.LitInt:
		return expr.Const(n.Value, expr.Basic("int"))
	case selector.LitFloat:
		return expr.Const(n.Value, expr.Basic("float64"))
	case selector.LitBool:
		return expr.Const(n.Value, expr.Basic("bool"))
	default:
		return &expr.Node{Kind: expr.KindNull}
	}
}

func (b *binder) bindMember(n *selector.MemberExpr, scope env) (*expr.Node, error) {
	x, err := b.bind(n.X, scope)
	if err != nil {
		return nil, err
	}

	if x.Type == nil {
		return nil, shapeErr("member %s of an untyped value", n.Name)
	}

	xt := expr.NonNull(x.Type)

	info := b.structInfo(xt)
	if info == nil {
		return nil, unresolved("%s has no member %s", xt, n.Name)
	}

	f, ok := info.FieldByName(n.Name)
	if !ok {
		return nil, unresolved("%s has no member %s", xt, n.Name).
			WithSuggestions(match.Suggest(n.Name, info.FieldNames(), 3)...)
	}

	ft := analyze.ExprType(f.Type)
	if ft == nil {
		return nil, unresolved("member %s.%s has an unsupported type", xt, n.Name)
	}

	m := expr.Member(x, n.Name, ft)
	m.Safe = n.Safe

	return m, nil
}

func (b *binder) structInfo(t *expr.Type) *analyze.TypeInfo {
	if t == nil || t.Kind != expr.TypeStruct {
		return nil
	}

	info := b.types.Lookup(t.Pkg, t.Name)
	if info == nil || info.Deref().Kind != analyze.TypeKindStruct {
		return nil
	}

	return info
}

func (b *binder) bindNew(n *selector.NewExpr, scope env) (*expr.Node, error) {
	props, err := selector.ModelOfNew(n)
	if err != nil {
		return nil, err
	}

	name := lastElem(n.Type)
	if scope.name != "" {
		if name != "" && name != scope.name {
			return nil, shapeErr("Project<%s> constructs %s", scope.name, name)
		}

		name = scope.name
	}

	shape := b.newShape(name, scope, n.At)

	inner := scope
	inner.shape = shape
	inner.owner = scope.source
	inner.name = ""

	fields := make([]expr.Field, 0, len(props))
	for _, p := range props {
		inner.field = p.Name
		inner.member = p.Name

		v, err := b.bindValue(p.Expr, inner)
		if err != nil {
			return nil, under(err, p.Name)
		}

		shape.Members = append(shape.Members, Member{Name: p.Name, Text: selector.Print(p.Expr)})
		fields = append(fields, expr.F(p.Name, v))
	}

	return expr.New(shape.Type, fields...), nil
}

// resolveType resolves a type argument such as store.OrderItem or int64. It
// returns nil for names that are not Go types, such as output type names.
func (b *binder) resolveType(name string) *expr.Type {
	info, err := b.types.Resolve(name)
	if err != nil {
		return nil
	}

	return analyze.ExprType(info)
}

func lastElem(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}

	return name
}

func shapeErr(format string, args ...any) *diagnostic.Error {
	return diagnostic.Errorf(diagnostic.CodeUnsupportedSelectorShape, format, args...)
}

func unresolved(format string, args ...any) *diagnostic.Error {
	return diagnostic.Errorf(diagnostic.CodeUnresolvedMember, format, args...)
}

func under(err error, name string) error {
	var de *diagnostic.Error
	if errors.As(err, &de) {
		return de.Under(name)
	}

	return fmt.Errorf("%s: %w", name, err)
}
