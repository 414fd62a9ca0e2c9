package gen

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode"

	"projection-generator/expr"
	"projection-generator/internal/common"
	"projection-generator/proj"
)

var (
	exprPkg = reflect.TypeFor[expr.Node]().PkgPath()
	projPkg = reflect.TypeFor[proj.Binding]().PkgPath()
)

// importSpec represents a single import line.
type importSpec struct {
	Alias string
	Path  string
}

// importSet assigns package qualifiers for one generated file.
type importSet struct {
	self   string
	byPath map[string]string
	used   map[string]string
}

func newImportSet(self string) *importSet {
	s := &importSet{
		self:   self,
		byPath: make(map[string]string),
		used:   make(map[string]string),
	}

	s.add(exprPkg)
	s.add(projPkg)

	return s
}

// add imports pkgPath and returns its qualifier.
func (s *importSet) add(pkgPath string) string {
	if alias, ok := s.byPath[pkgPath]; ok {
		return alias
	}

	base := pkgName(pkgPath)

	alias := base
	for i := 2; s.used[alias] != ""; i++ {
		alias = fmt.Sprintf("%s%d", base, i)
	}

	s.byPath[pkgPath] = alias
	s.used[alias] = pkgPath

	return alias
}

// qualify returns name as referenced from the generated file.
func (s *importSet) qualify(pkgPath, name string) string {
	if pkgPath == "" || pkgPath == s.self {
		return name
	}

	return s.add(pkgPath) + "." + name
}

// specs returns the imports sorted by path. The alias is only spelled out
// when it differs from the last path element.
func (s *importSet) specs() []importSpec {
	out := make([]importSpec, 0, len(s.byPath))
	for p, alias := range s.byPath {
		spec := importSpec{Path: p}
		if alias != common.PkgAlias(p) {
			spec.Alias = alias
		}

		out = append(out, spec)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Path < out[j].Path
	})

	return out
}

// goType renders t as a Go type. Nullable values become pointers.
func (s *importSet) goType(t *expr.Type) string {
	if t == nil {
		return "any"
	}

	var base string

	switch t.Kind {
	case expr.TypeBasic:
		base = t.Name
	case expr.TypeNamed, expr.TypeStruct, expr.TypeShape:
		base = s.qualify(t.Pkg, t.Name)
	case expr.TypeSlice:
		return "[]" + s.goType(t.Elem)
	case expr.TypeMap:
		return "map[" + s.goType(t.Key) + "]" + s.goType(t.Elem)
	default:
		base = "any"
	}

	if t.Nullable {
		return "*" + base
	}

	return base
}

// pkgName guesses the package name of an import path: "gopkg.in/yaml.v3" is
// yaml, "github.com/x/y/v2" is y.
func pkgName(pkgPath string) string {
	elems := strings.Split(pkgPath, "/")

	name := elems[len(elems)-1]
	if len(elems) > 1 && isMajorVersion(name) {
		name = elems[len(elems)-2]
	}

	if i := strings.IndexByte(name, '.'); i > 0 {
		name = name[:i]
	}

	name = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return r
		}

		return -1
	}, name)

	if name == "" || unicode.IsDigit([]rune(name)[0]) {
		name = "pkg" + name
	}

	return name
}

func isMajorVersion(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}

	for _, r := range s[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}
