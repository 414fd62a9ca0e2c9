package emit

import (
	"cmp"
	"slices"

	"projection-generator/expr"
	"projection-generator/internal/callsite"
	"projection-generator/internal/diagnostic"
)

// FieldDef is one field of a generated type.
type FieldDef struct {
	Name string `json:"name"`
	// Type is the concrete field type: nested shapes carry their emitted
	// names.
	Type          *expr.Type `json:"type"`
	Nullable      bool       `json:"nullable"`
	EmptyFallback bool       `json:"empty_fallback,omitempty"`
	// Source is the selector text producing the value.
	Source string `json:"source,omitempty"`
}

// TypeDef is a generated output type.
type TypeDef struct {
	ID        string             `json:"id"`
	Namespace callsite.Namespace `json:"namespace"`
	Name      string             `json:"name"`
	Exported  bool               `json:"exported"`
	// Explicit is set for caller-named types.
	Explicit bool       `json:"explicit,omitempty"`
	Hash     string     `json:"hash"`
	Fields   []FieldDef `json:"fields"`
	// Source is the type the first construction of the shape reads from.
	Source  *expr.Type       `json:"source"`
	Options callsite.Options `json:"-"`
	// Sites lists the call sites using the type, in emission order.
	Sites []string `json:"sites"`
}

// Capture is a captured value a projection function expects at run time.
type Capture struct {
	Name string     `json:"name"`
	Type *expr.Type `json:"type"`
}

// FuncDef is the projection function of one call site, or of several call
// sites with the same binding key in one namespace.
type FuncDef struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Key       string              `json:"key"`
	Namespace callsite.Namespace  `json:"namespace"`
	CallSite  string              `json:"call_site"`
	Location  diagnostic.Location `json:"location"`
	Sites     []string            `json:"sites"`
	Source    *expr.Type          `json:"source"`
	// Output is the concrete output type: a generated shape or a declared
	// struct.
	Output     *expr.Type       `json:"output"`
	OutputName string           `json:"output_name"`
	Lambda     *expr.Lambda     `json:"lambda"`
	Captures   []Capture        `json:"captures,omitempty"`
	Options    callsite.Options `json:"-"`
	Selector   string           `json:"selector"`
}

// Batch is the result of one emission pass.
type Batch struct {
	Types       []*TypeDef
	Funcs       []*FuncDef
	Diagnostics diagnostic.Diagnostics
}

// Namespaces returns the namespaces receiving artifacts, sorted by path.
func (b *Batch) Namespaces() []callsite.Namespace {
	seen := make(map[string]callsite.Namespace)
	for _, t := range b.Types {
		seen[t.Namespace.Path] = t.Namespace
	}

	for _, f := range b.Funcs {
		seen[f.Namespace.Path] = f.Namespace
	}

	out := make([]callsite.Namespace, 0, len(seen))
	for _, ns := range seen {
		out = append(out, ns)
	}

	slices.SortFunc(out, func(a, c callsite.Namespace) int {
		return cmp.Compare(a.Path, c.Path)
	})

	return out
}

// TypesIn returns the types of namespace path in emission order.
func (b *Batch) TypesIn(path string) []*TypeDef {
	var out []*TypeDef
	for _, t := range b.Types {
		if t.Namespace.Path == path {
			out = append(out, t)
		}
	}

	return out
}

// FuncsIn returns the functions of namespace path in emission order.
func (b *Batch) FuncsIn(path string) []*FuncDef {
	var out []*FuncDef
	for _, f := range b.Funcs {
		if f.Namespace.Path == path {
			out = append(out, f)
		}
	}

	return out
}
