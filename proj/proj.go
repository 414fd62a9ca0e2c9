// Package proj is the runtime side of the projection generator.
//
// User code marks projections with Select or SelectAs:
//
//	p, err := proj.Select[store.Order](`o => new { o.ID, Name = o.Customer?.FullName }`)
//
// `projection-generator gen` compiles every such call site ahead of time into
// a projections_gen.go file next to the caller, whose init function registers
// one Binding per call site. At run time Select only looks the binding up; no
// selector text is parsed and no reflection-based mapping takes place.
package proj

import (
	"encoding/hex"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/zeebo/xxh3"

	"projection-generator/expr"
)

// ErrNotGenerated is returned when a call site has no registered binding,
// usually because the generator has not been run since the selector changed.
var ErrNotGenerated = errors.New("projection not generated; run projection-generator gen")

// Binding ties one compiled call site to its generated artifacts.
type Binding struct {
	// Key identifies the call site; see Key.
	Key string
	// Source is the fully qualified source type, e.g. "projection-generator/store.Order".
	Source string
	// Output is the name of the output type in the caller's package.
	Output string
	// Build returns the compiled expression tree.
	Build func() *expr.Lambda
	// New returns a zero value of the output type: a pointer, or a value for
	// record outputs.
	New func() any
}

// Projection is the result of Select.
type Projection struct {
	Lambda   *expr.Lambda
	Output   string
	Captures map[string]any
	newFn    func() any
}

// NewOutput returns a zero value of the projection's output type.
func (p *Projection) NewOutput() any {
	if p.newFn == nil {
		return nil
	}

	return p.newFn()
}

// CaptureArg passes a value from the caller's scope into a selector.
type CaptureArg struct {
	Name  string
	Value any
}

// Capture names a captured value. The name is how the selector refers to it.
func Capture(name string, value any) CaptureArg {
	return CaptureArg{Name: name, Value: value}
}

var (
	mu       sync.RWMutex
	bindings = map[string]Binding{}
)

// Register adds a binding. It is called from generated init functions.
// Registering a key twice keeps the first binding: equal keys mean equal
// caller package, source type, output name and selector, hence equal trees.
func Register(b Binding) {
	if b.Key == "" || b.Build == nil {
		panic(fmt.Sprintf("proj: invalid binding for %s -> %s", b.Source, b.Output))
	}

	mu.Lock()
	defer mu.Unlock()

	if _, ok := bindings[b.Key]; !ok {
		bindings[b.Key] = b
	}
}

// Lookup returns the binding registered under key.
func Lookup(key string) (Binding, bool) {
	mu.RLock()
	defer mu.RUnlock()

	b, ok := bindings[key]

	return b, ok
}

// Keys returns all registered keys, sorted.
func Keys() []string {
	mu.RLock()
	defer mu.RUnlock()

	keys := make([]string, 0, len(bindings))
	for k := range bindings {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// Key computes the binding key of a call site from the calling package's
// import path, the qualified source type, the output type name ("" for
// anonymous outputs) and the selector text. Equal selectors in different
// packages produce different keys because their output types differ.
func Key(pkg, source, output, selector string) string {
	h := xxh3.New()
	_, _ = h.Write([]byte(pkg + "\x1f" + source + "\x1f" + output + "\x1f" + selector))

	return hex.EncodeToString(h.Sum(nil))
}

// TypeName returns the qualified name used for T in binding keys.
func TypeName[T any]() string {
	t := reflect.TypeFor[T]()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t.PkgPath() == "" {
		return t.Name()
	}

	return t.PkgPath() + "." + t.Name()
}

// Select returns the compiled projection of Src for an anonymous output shape.
func Select[Src any](selector string, captures ...CaptureArg) (*Projection, error) {
	return lookup(Key(callerPackage(1), TypeName[Src](), "", selector), captures)
}

// SelectAs returns the compiled projection of Src into Dst, which is either
// generated from the selector or declared by the caller.
func SelectAs[Src, Dst any](selector string, captures ...CaptureArg) (*Projection, error) {
	t := reflect.TypeFor[Dst]()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	return lookup(Key(callerPackage(1), TypeName[Src](), t.Name(), selector), captures)
}

// MustSelect is like Select but panics on error.
func MustSelect[Src any](selector string, captures ...CaptureArg) *Projection {
	p, err := lookup(Key(callerPackage(1), TypeName[Src](), "", selector), captures)
	if err != nil {
		panic(err)
	}

	return p
}

// callerPackage returns the import path of the function skip frames above
// its caller.
func callerPackage(skip int) string {
	pcs := make([]uintptr, skip+8)
	frames := runtime.CallersFrames(pcs[:runtime.Callers(2, pcs)])

	for i := 0; ; i++ {
		f, more := frames.Next()
		if i == skip {
			return funcPackage(f.Function)
		}

		if !more {
			return ""
		}
	}
}

// funcPackage extracts the import path from a fully qualified function name
// as reported by the runtime, e.g. "example.com/a.(*T).M.func1".
func funcPackage(name string) string {
	dir := ""
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		dir, name = name[:i+1], name[i+1:]
	}

	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}

	return strings.ReplaceAll(dir+name, "%2e", ".")
}

func lookup(key string, captures []CaptureArg) (*Projection, error) {
	b, ok := Lookup(key)
	if !ok {
		return nil, fmt.Errorf("binding %s: %w", key, ErrNotGenerated)
	}

	p := &Projection{
		Lambda:   b.Build(),
		Output:   b.Output,
		Captures: make(map[string]any, len(captures)),
		newFn:    b.New,
	}

	for _, c := range captures {
		p.Captures[c.Name] = c.Value
	}

	return p, nil
}
