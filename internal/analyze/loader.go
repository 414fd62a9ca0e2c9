package analyze

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"golang.org/x/tools/go/packages"

	"projection-generator/internal/diagnostic"
)

// LoadMode specifies what information to load from packages.
const LoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedSyntax |
	packages.NeedTypes |
	packages.NeedTypesInfo |
	packages.NeedImports

// opaquePackages hold named struct types that are treated as scalars.
var opaquePackages = map[string]bool{
	"time":          true,
	"math/big":      true,
	"net/url":       true,
	"net/netip":     true,
	"database/sql":  true,
	"encoding/json": true,
}

// Analyzer loads Go packages and builds a type graph. After loading, its
// lookup methods are safe for concurrent use.
type Analyzer struct {
	mu        sync.Mutex
	graph     *TypeGraph
	typeCache map[types.Type]*TypeInfo // Cache to handle recursive types
	fset      *token.FileSet
	generated map[string]bool // files carrying a "Code generated" header
}

// NewAnalyzer creates a new Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		graph:     NewTypeGraph(),
		typeCache: make(map[types.Type]*TypeInfo),
		generated: make(map[string]bool),
	}
}

// LoadPackages loads the specified packages and builds the type graph.
// Patterns are standard Go package patterns (e.g., "./store", "projection-generator/warehouse").
// Any package error fails the load.
func (a *Analyzer) LoadPackages(patterns ...string) (*TypeGraph, error) {
	cfg := &packages.Config{
		Mode: LoadMode,
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}

	// Check for package errors
	var errs []error
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			errs = append(errs, e)
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("package errors: %v", errs)
	}

	if err := a.AddPackages(pkgs); err != nil {
		return nil, err
	}

	return a.graph, nil
}

// AddPackages adds every package of pkgs. Generated files of all packages
// are recorded first, so types reached across packages are flagged correctly.
func (a *Analyzer) AddPackages(pkgs []*packages.Package) error {
	a.mu.Lock()
	for _, pkg := range pkgs {
		a.markGenerated(pkg)
	}
	a.mu.Unlock()

	for _, pkg := range pkgs {
		if err := a.AddPackage(pkg); err != nil {
			return fmt.Errorf("failed to process package %s: %w", pkg.PkgPath, err)
		}
	}

	return nil
}

// Graph returns the current type graph.
func (a *Analyzer) Graph() *TypeGraph {
	return a.graph
}

// AddPackage extracts types from a loaded package. Packages with type errors
// are accepted as long as type information is present.
func (a *Analyzer) AddPackage(pkg *packages.Package) error {
	if pkg.Types == nil {
		return fmt.Errorf("package %s has no type information", pkg.PkgPath)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.markGenerated(pkg)

	pkgInfo := &PackageInfo{
		Path: pkg.PkgPath,
		Name: pkg.Name,
	}

	if len(pkg.GoFiles) > 0 {
		pkgInfo.Dir = filepath.Dir(pkg.GoFiles[0])
	}

	scope := pkg.Types.Scope()
	for _, name := range scope.Names() {
		obj := scope.Lookup(name)

		// Only process type names (not variables, constants, functions)
		typeName, ok := obj.(*types.TypeName)
		if !ok {
			continue
		}

		// Only process exported, non-alias types
		if !typeName.Exported() || typeName.IsAlias() {
			continue
		}

		typeID := TypeID{
			PkgPath: pkg.PkgPath,
			Name:    name,
		}

		typeInfo := a.typeOf(typeName.Type())
		typeInfo.ID = typeID

		a.graph.Types[typeID] = typeInfo
		pkgInfo.Types = append(pkgInfo.Types, typeID)
	}

	a.graph.Packages[pkg.PkgPath] = pkgInfo
	return nil
}

func (a *Analyzer) markGenerated(pkg *packages.Package) {
	if a.fset == nil {
		a.fset = pkg.Fset
	}

	for _, f := range pkg.Syntax {
		if ast.IsGenerated(f) {
			a.generated[a.fset.Position(f.Pos()).Filename] = true
		}
	}
}

// TypeOf returns the TypeInfo for any go/types type, analyzing it on first use.
func (a *Analyzer) TypeOf(t types.Type) *TypeInfo {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.typeOf(t)
}

func (a *Analyzer) typeOf(t types.Type) *TypeInfo {
	// Check cache to handle recursive types
	if cached, ok := a.typeCache[t]; ok {
		return cached
	}

	info := &TypeInfo{
		GoType: t,
	}

	// Pre-cache to handle recursive types (we'll fill in details)
	a.typeCache[t] = info

	switch tt := t.(type) {
	case *types.Named:
		a.analyzeNamedType(tt, info)

	case *types.Alias:
		cached := a.typeOf(types.Unalias(tt))
		a.typeCache[t] = cached

		return cached

	case *types.Basic:
		info.Kind = TypeKindBasic
		info.ID = TypeID{Name: tt.Name()}

	case *types.Pointer:
		info.Kind = TypeKindPointer
		info.ElemType = a.typeOf(tt.Elem())

	case *types.Slice:
		info.Kind = TypeKindSlice
		info.ElemType = a.typeOf(tt.Elem())

	case *types.Array:
		info.Kind = TypeKindArray
		info.ElemType = a.typeOf(tt.Elem())

	case *types.Map:
		info.Kind = TypeKindMap
		info.KeyType = a.typeOf(tt.Key())
		info.ElemType = a.typeOf(tt.Elem())

	case *types.Struct:
		info.Kind = TypeKindStruct
		a.analyzeStructFields(tt, info)

	default:
		// Interfaces, channels, funcs etc. are marked as unknown (unsupported)
		info.Kind = TypeKindUnknown
	}

	return info
}

// analyzeNamedType analyzes a named type.
func (a *Analyzer) analyzeNamedType(named *types.Named, info *TypeInfo) {
	obj := named.Obj()
	if obj.Pkg() == nil {
		// Universe types such as error.
		info.ID = TypeID{Name: obj.Name()}
		info.Kind = TypeKindExternal

		return
	}

	info.ID = TypeID{
		PkgPath: obj.Pkg().Path(),
		Name:    obj.Name(),
	}
	info.Pos = a.position(obj.Pos())
	info.IsGenerated = a.generated[info.Pos.File]

	// Package-level types reached through fields or type arguments are
	// registered too, so Lookup finds them without loading their package.
	if _, ok := a.graph.Types[info.ID]; !ok && obj.Parent() == obj.Pkg().Scope() {
		a.graph.Types[info.ID] = info
	}

	switch ut := named.Underlying().(type) {
	case *types.Struct:
		if opaquePackages[obj.Pkg().Path()] || !hasExportedField(ut) {
			info.Kind = TypeKindExternal
			return
		}

		info.Kind = TypeKindStruct
		a.analyzeStructFields(ut, info)

	case *types.Basic:
		// Named basic type (e.g., type OrderStatus string)
		info.Kind = TypeKindAlias
		info.Underlying = a.typeOf(ut)

	case *types.Interface:
		info.Kind = TypeKindExternal

	default:
		// Named slices, maps and pointers behave like their underlying type.
		u := a.typeOf(ut)
		info.Kind = u.Kind
		info.Underlying = u
		info.ElemType = u.ElemType
		info.KeyType = u.KeyType
	}
}

// analyzeStructFields extracts fields from a struct type.
func (a *Analyzer) analyzeStructFields(st *types.Struct, info *TypeInfo) {
	for i := range st.NumFields() {
		field := st.Field(i)

		// Only process exported fields, plus embedded structs whose fields are promoted.
		if !field.Exported() && !field.Embedded() {
			continue
		}

		fieldInfo := FieldInfo{
			Name:     field.Name(),
			Exported: field.Exported(),
			Type:     a.typeOf(field.Type()),
			Tag:      reflect.StructTag(st.Tag(i)),
			Embedded: field.Embedded(),
			Index:    i,
			Pos:      a.position(field.Pos()),
		}

		info.Fields = append(info.Fields, fieldInfo)
	}
}

func (a *Analyzer) position(pos token.Pos) diagnostic.Location {
	if a.fset == nil || !pos.IsValid() {
		return diagnostic.Location{}
	}

	p := a.fset.Position(pos)

	return diagnostic.Location{File: p.Filename, Line: p.Line, Column: p.Column, Offset: p.Offset}
}

// IsGeneratedFile reports whether filename carries a "Code generated" header.
func (a *Analyzer) IsGeneratedFile(filename string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.generated[filename]
}

// Lookup returns the named type pkgPath.name from the graph, or nil.
func (a *Analyzer) Lookup(pkgPath, name string) *TypeInfo {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.graph.GetType(TypeID{PkgPath: pkgPath, Name: name})
}

func hasExportedField(st *types.Struct) bool {
	for i := range st.NumFields() {
		if st.Field(i).Exported() {
			return true
		}
	}

	return false
}

// Resolve looks up a type by qualified name: "pkg/path.Name", "alias.Name"
// (matched against the last element of loaded package paths) or a predeclared
// basic type such as "int64".
func (a *Analyzer) Resolve(name string) (*TypeInfo, error) {
	if obj := types.Universe.Lookup(name); obj != nil {
		if tn, ok := obj.(*types.TypeName); ok {
			return a.TypeOf(tn.Type()), nil
		}
	}

	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return nil, fmt.Errorf("type %q must be qualified with its package", name)
	}

	pkg, typ := name[:i], name[i+1:]
	if info := a.graph.GetType(TypeID{PkgPath: pkg, Name: typ}); info != nil {
		return info, nil
	}

	var found *TypeInfo
	for path := range a.graph.Packages {
		if filepath.Base(path) != pkg {
			continue
		}

		if info := a.graph.GetType(TypeID{PkgPath: path, Name: typ}); info != nil {
			if found != nil {
				return nil, fmt.Errorf("type %q is ambiguous", name)
			}

			found = info
		}
	}

	if found == nil {
		return nil, fmt.Errorf("type %q not found in loaded packages", name)
	}

	return found, nil
}
