package expr

import (
	"fmt"
	"strings"
)

// TypeKind classifies a Type.
type TypeKind int

const (
	TypeInvalid TypeKind = iota
	TypeBasic            // string, int, bool, float64, ...
	TypeNamed            // named non-struct type (store.OrderStatus, time.Time)
	TypeStruct           // named source struct
	TypeSlice            // []Elem
	TypeMap              // map[Key]Elem
	TypeShape            // projected output type
)

var typeKindNames = map[TypeKind]string{
	TypeInvalid: "invalid",
	TypeBasic:   "basic",
	TypeNamed:   "named",
	TypeStruct:  "struct",
	TypeSlice:   "slice",
	TypeMap:     "map",
	TypeShape:   "shape",
}

// String returns a human-readable representation of the TypeKind.
func (k TypeKind) String() string {
	if s, ok := typeKindNames[k]; ok {
		return s
	}

	return fmt.Sprintf("TypeKind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k TypeKind) MarshalText() ([]byte, error) {
	if _, ok := typeKindNames[k]; !ok {
		return nil, fmt.Errorf("unknown type kind %d", int(k))
	}

	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *TypeKind) UnmarshalText(text []byte) error {
	for kind, name := range typeKindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}

	return fmt.Errorf("unknown type kind %q", text)
}

// Type describes the static type of a node.
//
// Shape types start out unnamed and carry a Ref that is unique within one call
// site; the emitter replaces them with named copies once names are assigned.
type Type struct {
	Kind     TypeKind `json:"kind"`
	Pkg      string   `json:"pkg,omitempty"`
	Name     string   `json:"name,omitempty"`
	Key      *Type    `json:"key,omitempty"`
	Elem     *Type    `json:"elem,omitempty"`
	Nullable bool     `json:"nullable,omitempty"`
	Ref      string   `json:"ref,omitempty"`
}

// Basic returns a predeclared type such as "string" or "int64".
func Basic(name string) *Type {
	return &Type{Kind: TypeBasic, Name: name}
}

// Named returns a named non-struct type.
func Named(pkg, name string) *Type {
	return &Type{Kind: TypeNamed, Pkg: pkg, Name: name}
}

// Struct returns a named struct type.
func Struct(pkg, name string) *Type {
	return &Type{Kind: TypeStruct, Pkg: pkg, Name: name}
}

// Shape returns a named projected output type.
func Shape(pkg, name string) *Type {
	return &Type{Kind: TypeShape, Pkg: pkg, Name: name}
}

// SliceOf returns []elem.
func SliceOf(elem *Type) *Type {
	return &Type{Kind: TypeSlice, Elem: elem}
}

// MapOf returns map[key]elem.
func MapOf(key, elem *Type) *Type {
	return &Type{Kind: TypeMap, Key: key, Elem: elem}
}

// Nullable returns a nullable copy of t. Collections are never nullable.
func Nullable(t *Type) *Type {
	if t == nil || t.Nullable || t.IsCollection() {
		return t
	}

	c := *t
	c.Nullable = true

	return &c
}

// NonNull returns a non-nullable copy of t.
func NonNull(t *Type) *Type {
	if t == nil || !t.Nullable {
		return t
	}

	c := *t
	c.Nullable = false

	return &c
}

// IsCollection reports whether t is a slice or map.
func (t *Type) IsCollection() bool {
	return t != nil && (t.Kind == TypeSlice || t.Kind == TypeMap)
}

// IsBool reports whether t is the basic bool type.
func (t *Type) IsBool() bool {
	return t != nil && t.Kind == TypeBasic && t.Name == "bool"
}

// IsNumeric reports whether t is a basic integer or floating point type.
func (t *Type) IsNumeric() bool {
	if t == nil || t.Kind != TypeBasic {
		return false
	}

	switch t.Name {
	case "int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64",
		"float32", "float64", "byte", "rune":
		return true
	}

	return false
}

// IsString reports whether t is the basic string type.
func (t *Type) IsString() bool {
	return t != nil && t.Kind == TypeBasic && t.Name == "string"
}

// Equal reports whether a and b describe the same type, including nullability.
func Equal(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}

	if a.Kind != b.Kind || a.Pkg != b.Pkg || a.Name != b.Name ||
		a.Nullable != b.Nullable || a.Ref != b.Ref {
		return false
	}

	return Equal(a.Key, b.Key) && Equal(a.Elem, b.Elem)
}

// String renders t in Go-like notation. Nullable scalars are shown as pointers.
func (t *Type) String() string {
	if t == nil {
		return "<untyped>"
	}

	var sb strings.Builder
	if t.Nullable {
		sb.WriteByte('*')
	}

	switch t.Kind {
	case TypeBasic:
		sb.WriteString(t.Name)
	case TypeNamed, TypeStruct, TypeShape:
		switch {
		case t.Name == "" && t.Ref != "":
			sb.WriteString("shape#" + t.Ref)
		case t.Pkg != "":
			sb.WriteString(shortPkg(t.Pkg) + "." + t.Name)
		default:
			sb.WriteString(t.Name)
		}
	case TypeSlice:
		sb.WriteString("[]" + t.Elem.String())
	case TypeMap:
		sb.WriteString("map[" + t.Key.String() + "]" + t.Elem.String())
	default:
		sb.WriteString("invalid")
	}

	return sb.String()
}

// ShapeRoot returns the shape type t carries directly or as a collection
// element, or nil.
func (t *Type) ShapeRoot() *Type {
	for t != nil {
		switch t.Kind {
		case TypeShape:
			return t
		case TypeSlice, TypeMap:
			t = t.Elem
		default:
			return nil
		}
	}

	return nil
}

// MapType rebuilds t bottom-up, replacing every component for which f returns
// a non-nil value.
func MapType(t *Type, f func(*Type) *Type) *Type {
	if t == nil {
		return nil
	}

	if r := f(t); r != nil {
		return r
	}

	c := *t
	c.Key = MapType(t.Key, f)
	c.Elem = MapType(t.Elem, f)

	return &c
}

func shortPkg(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}

	return path
}
