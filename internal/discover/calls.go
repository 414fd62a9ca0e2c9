package discover

import (
	"fmt"
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"
	"path/filepath"

	"golang.org/x/tools/go/packages"

	"projection-generator/internal/analyze"
	"projection-generator/internal/callsite"
	"projection-generator/internal/diagnostic"
)

// markers are the proj functions whose first argument is a selector.
var markers = map[string]bool{
	"Select":     true,
	"SelectAs":   true,
	"MustSelect": true,
}

// markerCall is a recognized proj call before validation.
type markerCall struct {
	expr     *ast.CallExpr
	name     string
	typeArgs []ast.Expr
}

func (d *Discoverer) inspect(pkg *packages.Package, diags *diagnostic.Diagnostics) []*callsite.CallSite {
	var (
		sites    []*callsite.CallSite
		declared map[string]*analyze.TypeInfo
	)

	ns := namespaceOf(pkg)

	for _, f := range pkg.Syntax {
		if ast.IsGenerated(f) {
			continue
		}

		ast.Inspect(f, func(n ast.Node) bool {
			ce, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}

			mc, ok := findMarker(pkg.TypesInfo, ce)
			if !ok {
				return true
			}

			if declared == nil {
				declared = d.declared(pkg)
			}

			loc := position(pkg.Fset, ce.Pos())
			id := siteID(pkg.PkgPath, loc)

			site, err := d.callSite(pkg, mc, id, loc)
			if err != nil {
				d.logger.Debug("discover.skip", "call_site", id, "error", err.Message)
				diags.Add(err.Diagnostic(id, loc))

				return true
			}

			site.Namespace = ns
			site.Declared = declared
			sites = append(sites, site)

			return true
		})
	}

	return sites
}

// findMarker reports whether ce calls proj.Select, proj.SelectAs or
// proj.MustSelect with explicit type arguments.
func findMarker(info *types.Info, ce *ast.CallExpr) (markerCall, bool) {
	fun := ast.Unparen(ce.Fun)

	var typeArgs []ast.Expr

	switch x := fun.(type) {
	case *ast.IndexExpr:
		fun, typeArgs = x.X, []ast.Expr{x.Index}
	case *ast.IndexListExpr:
		fun, typeArgs = x.X, x.Indices
	default:
		return markerCall{}, false
	}

	var ident *ast.Ident

	switch x := fun.(type) {
	case *ast.Ident:
		ident = x
	case *ast.SelectorExpr:
		ident = x.Sel
	default:
		return markerCall{}, false
	}

	fn, ok := info.Uses[ident].(*types.Func)
	if !ok || fn.Pkg() == nil || fn.Pkg().Path() != projPkg || !markers[fn.Name()] {
		return markerCall{}, false
	}

	return markerCall{expr: ce, name: fn.Name(), typeArgs: typeArgs}, true
}

func (d *Discoverer) callSite(pkg *packages.Package, mc markerCall, id string, loc diagnostic.Location) (*callsite.CallSite, *diagnostic.Error) {
	want := 1
	if mc.name == "SelectAs" {
		want = 2
	}

	if len(mc.typeArgs) != want {
		return nil, invalid("proj.%s takes %d type arguments, got %d", mc.name, want, len(mc.typeArgs))
	}

	if len(mc.expr.Args) == 0 {
		return nil, invalid("proj.%s has no selector", mc.name)
	}

	if mc.expr.Ellipsis.IsValid() {
		return nil, invalid("captures must be listed one by one, not spread with ...")
	}

	sel, err := constString(pkg.TypesInfo, mc.expr.Args[0])
	if err != nil {
		return nil, invalid("selector %s", err)
	}

	src := pkg.TypesInfo.TypeOf(mc.typeArgs[0])
	if !isValid(src) {
		return nil, invalid("source type %s does not type-check", types.ExprString(mc.typeArgs[0]))
	}

	site := &callsite.CallSite{
		ID:       id,
		Location: loc,
		Source:   d.analyzer.TypeOf(deref(src)),
		Mode:     callsite.Anonymous{},
		Selector: sel,
		Options:  d.config.Options,
	}

	if mc.name == "SelectAs" {
		mode, err := d.outputMode(pkg, mc.typeArgs[1])
		if err != nil {
			return nil, err
		}

		site.Mode = mode
	}

	for _, arg := range mc.expr.Args[1:] {
		cp, err := d.capture(pkg.TypesInfo, arg)
		if err != nil {
			return nil, err
		}

		if _, dup := site.Capture(cp.Name); dup {
			return nil, invalid("capture %q is passed twice", cp.Name)
		}

		site.Captures = append(site.Captures, cp)
	}

	return site, nil
}

// outputMode classifies the Dst type argument of SelectAs. A type declared by
// hand is pre-existing; a generated or not yet declared name is explicit.
func (d *Discoverer) outputMode(pkg *packages.Package, x ast.Expr) (callsite.Mode, *diagnostic.Error) {
	t := pkg.TypesInfo.TypeOf(x)
	if !isValid(t) {
		// Not generated yet.
		if id, ok := ast.Unparen(x).(*ast.Ident); ok {
			return callsite.ExplicitNamed{Name: id.Name}, nil
		}

		return nil, invalid("output type %s does not type-check", types.ExprString(x))
	}

	named, ok := types.Unalias(deref(t)).(*types.Named)
	if !ok {
		return nil, invalid("output type %s must be a named type", types.ExprString(x))
	}

	obj := named.Obj()
	if obj.Pkg() != nil && obj.Pkg().Path() == pkg.PkgPath &&
		d.analyzer.IsGeneratedFile(pkg.Fset.Position(obj.Pos()).Filename) {
		return callsite.ExplicitNamed{Name: obj.Name()}, nil
	}

	return callsite.PreExisting{Type: d.analyzer.TypeOf(named)}, nil
}

// capture decodes a proj.Capture("name", value) argument.
func (d *Discoverer) capture(info *types.Info, arg ast.Expr) (callsite.Capture, *diagnostic.Error) {
	ce, ok := ast.Unparen(arg).(*ast.CallExpr)
	if !ok || !isProjFunc(info, ce.Fun, "Capture") || len(ce.Args) != 2 {
		return callsite.Capture{}, invalid("captures must be passed as proj.Capture(name, value), got %s", types.ExprString(arg))
	}

	name, err := constString(info, ce.Args[0])
	if err != nil {
		return callsite.Capture{}, invalid("capture name %s", err)
	}

	if !token.IsIdentifier(name) {
		return callsite.Capture{}, invalid("capture name %q is not an identifier", name)
	}

	t := info.TypeOf(ce.Args[1])
	if !isValid(t) {
		return callsite.Capture{}, invalid("capture %q does not type-check", name)
	}

	return callsite.Capture{Name: name, Type: d.analyzer.TypeOf(types.Default(t))}, nil
}

func isProjFunc(info *types.Info, fun ast.Expr, name string) bool {
	var ident *ast.Ident

	switch x := ast.Unparen(fun).(type) {
	case *ast.Ident:
		ident = x
	case *ast.SelectorExpr:
		ident = x.Sel
	default:
		return false
	}

	fn, ok := info.Uses[ident].(*types.Func)

	return ok && fn.Pkg() != nil && fn.Pkg().Path() == projPkg && fn.Name() == name
}

func constString(info *types.Info, x ast.Expr) (string, error) {
	tv, ok := info.Types[x]
	if !ok || tv.Value == nil {
		return "", fmt.Errorf("must be a constant string, got %s", types.ExprString(x))
	}

	if tv.Value.Kind() != constant.String {
		return "", fmt.Errorf("must be a string, got %s", tv.Value.Kind())
	}

	return constant.StringVal(tv.Value), nil
}

func isValid(t types.Type) bool {
	return t != nil && t != types.Typ[types.Invalid]
}

func deref(t types.Type) types.Type {
	for {
		p, ok := types.Unalias(t).(*types.Pointer)
		if !ok {
			return t
		}

		t = p.Elem()
	}
}

func position(fset *token.FileSet, pos token.Pos) diagnostic.Location {
	p := fset.Position(pos)

	return diagnostic.Location{File: p.Filename, Line: p.Line, Column: p.Column, Offset: p.Offset}
}

// siteID returns "pkg/path/file.go:line:col".
func siteID(pkgPath string, loc diagnostic.Location) string {
	return fmt.Sprintf("%s/%s:%d:%d", pkgPath, filepath.Base(loc.File), loc.Line, loc.Column)
}

func invalid(format string, args ...any) *diagnostic.Error {
	return diagnostic.Errorf(diagnostic.CodeInvalidCallSite, format, args...)
}
