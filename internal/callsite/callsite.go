package callsite

import (
	"cmp"
	"fmt"
	"strings"

	"projection-generator/internal/analyze"
	"projection-generator/internal/diagnostic"
	"projection-generator/proj"
)

// Namespace is the package that receives the generated artifacts of a call
// site. It is the caller's package, not the source type's.
type Namespace struct {
	Path    string `json:"path"`          // import path
	Package string `json:"package"`       // package name
	Dir     string `json:"dir,omitempty"` // directory of the package's files
}

// Mode is the closed set of output naming modes: Anonymous, ExplicitNamed
// and PreExisting.
type Mode interface {
	isMode()
	String() string
}

// Anonymous outputs get a synthesized, hash-derived type name.
type Anonymous struct{}

// ExplicitNamed outputs use the caller-supplied type name.
type ExplicitNamed struct {
	Name string
}

// PreExisting outputs bind to a type the caller already declared.
type PreExisting struct {
	Type *analyze.TypeInfo
}

func (Anonymous) isMode()     {}
func (ExplicitNamed) isMode() {}
func (PreExisting) isMode()   {}

func (Anonymous) String() string       { return "anonymous" }
func (m ExplicitNamed) String() string { return "explicit(" + m.Name + ")" }

func (m PreExisting) String() string {
	if m.Type == nil {
		return "preexisting(?)"
	}

	return "preexisting(" + m.Type.ID.String() + ")"
}

// Capture is a value passed into a selector with proj.Capture.
type Capture struct {
	Name string
	Type *analyze.TypeInfo
}

// CallSite is one projection call to compile. It is never mutated after
// discovery.
type CallSite struct {
	ID        string
	Location  diagnostic.Location
	Namespace Namespace
	Source    *analyze.TypeInfo
	Mode      Mode
	Selector  string
	Captures  []Capture
	Options   Options
	// Declared holds the types already declared (outside generated files) in
	// the caller's package, by name.
	Declared map[string]*analyze.TypeInfo
}

// OutputName returns the output type name used in the binding key: empty for
// anonymous outputs.
func (c *CallSite) OutputName() string {
	switch m := c.Mode.(type) {
	case Anonymous:
		return ""
	case ExplicitNamed:
		return m.Name
	case PreExisting:
		if m.Type == nil {
			return ""
		}

		return m.Type.ID.Name
	default:
		panic(fmt.Sprintf("callsite: unknown mode %T", c.Mode))
	}
}

// Key returns the binding key proj.Select computes for this call at run time.
func (c *CallSite) Key() string {
	return proj.Key(c.Namespace.Path, c.Source.ID.String(), c.OutputName(), c.Selector)
}

// Capture returns the capture named name.
func (c *CallSite) Capture(name string) (Capture, bool) {
	for _, cp := range c.Captures {
		if cp.Name == name {
			return cp, true
		}
	}

	return Capture{}, false
}

// Validate reports a malformed call site.
func (c *CallSite) Validate() error {
	var problems []string

	if c.ID == "" {
		problems = append(problems, "missing id")
	}

	if c.Source == nil || !c.Source.IsNamed() {
		problems = append(problems, "missing source type")
	} else if c.Source.Deref().Kind != analyze.TypeKindStruct {
		problems = append(problems, fmt.Sprintf("source type %s is not a struct", c.Source.ID))
	}

	if c.Mode == nil {
		problems = append(problems, "missing naming mode")
	}

	if m, ok := c.Mode.(PreExisting); ok && (m.Type == nil || m.Type.Deref().Kind != analyze.TypeKindStruct) {
		problems = append(problems, "pre-existing output type is not a struct")
	}

	if m, ok := c.Mode.(ExplicitNamed); ok && m.Name == "" {
		problems = append(problems, "explicit output name is empty")
	}

	if strings.TrimSpace(c.Selector) == "" {
		problems = append(problems, "empty selector")
	}

	if c.Namespace.Path == "" {
		problems = append(problems, "missing namespace")
	}

	if len(problems) == 0 {
		return nil
	}

	return diagnostic.Errorf(diagnostic.CodeInvalidCallSite, "%s", strings.Join(problems, "; ")).At(c.Location)
}

// Compare orders call sites by namespace, file, line, column and id. Emission
// walks call sites in this order.
func Compare(a, b *CallSite) int {
	return cmp.Or(
		cmp.Compare(a.Namespace.Path, b.Namespace.Path),
		a.Location.Compare(b.Location),
		cmp.Compare(a.ID, b.ID),
	)
}
