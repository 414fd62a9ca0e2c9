package analyze

import (
	"go/types"
	"reflect"

	"projection-generator/internal/common"
	"projection-generator/internal/diagnostic"
)

// TypeID uniquely identifies a type by its package path and name.
type TypeID struct {
	PkgPath string // e.g., "projection-generator/store"
	Name    string // e.g., "Order"
}

// String returns a human-readable representation of the TypeID.
func (t TypeID) String() string {
	if t.PkgPath == "" {
		return t.Name
	}

	return t.PkgPath + "." + t.Name
}

// TypeKind represents the kind of a type.
type TypeKind int

const (
	TypeKindUnknown  TypeKind = iota
	TypeKindBasic             // int, string, bool, etc.
	TypeKindStruct            // struct type
	TypeKindPointer           // pointer to another type
	TypeKindSlice             // slice of another type
	TypeKindArray             // array of another type
	TypeKindMap               // map type
	TypeKindAlias             // named type wrapping a basic type
	TypeKindExternal          // external/opaque type (e.g., time.Time)
)

// String returns a human-readable representation of the TypeKind.
func (k TypeKind) String() string {
	switch k {
	case TypeKindBasic:
		return "basic"
	case TypeKindStruct:
		return "struct"
	case TypeKindPointer:
		return "pointer"
	case TypeKindSlice:
		return "slice"
	case TypeKindArray:
		return "array"
	case TypeKindMap:
		return "map"
	case TypeKindAlias:
		return "alias"
	case TypeKindExternal:
		return "external"
	default:
		return common.UnknownStr
	}
}

// TypeInfo describes a Go type in the type graph.
type TypeInfo struct {
	ID          TypeID      // Unique identifier (empty for unnamed types like *T or []T)
	Kind        TypeKind    // Kind of type
	Underlying  *TypeInfo   // For named types, the underlying type
	ElemType    *TypeInfo   // For pointers, slices, arrays and maps, the element type
	KeyType     *TypeInfo   // For maps, the key type
	Fields      []FieldInfo // For structs, the list of fields
	GoType      types.Type  // The original go/types.Type (for compatibility checks)
	IsGenerated bool        // True if the type is synthesized or declared in generated code
	Pos         diagnostic.Location
}

// IsNamed returns true if this type has a name (TypeID is set).
func (t *TypeInfo) IsNamed() bool {
	return t.ID.Name != ""
}

// Deref strips pointer indirections.
func (t *TypeInfo) Deref() *TypeInfo {
	for t != nil && t.Kind == TypeKindPointer {
		t = t.ElemType
	}

	return t
}

// IsCollection reports whether t is a slice, array or map (after deref).
func (t *TypeInfo) IsCollection() bool {
	d := t.Deref()
	return d != nil && (d.Kind == TypeKindSlice || d.Kind == TypeKindArray || d.Kind == TypeKindMap)
}

// Elem returns the element type of a collection (after deref), or nil.
func (t *TypeInfo) Elem() *TypeInfo {
	if !t.IsCollection() {
		return nil
	}

	return t.Deref().ElemType
}

// FieldByName finds an exported field, descending into embedded structs the
// way Go's selector rules promote them (shallowest depth wins).
func (t *TypeInfo) FieldByName(name string) (*FieldInfo, bool) {
	st := t.Deref()
	if st == nil || st.Kind != TypeKindStruct {
		return nil, false
	}

	for i := range st.Fields {
		if st.Fields[i].Name == name {
			return &st.Fields[i], true
		}
	}

	for i := range st.Fields {
		if !st.Fields[i].Embedded {
			continue
		}

		if f, ok := st.Fields[i].Type.FieldByName(name); ok {
			return f, true
		}
	}

	return nil, false
}

// FieldNames returns the names of all exported fields, promoted ones included.
func (t *TypeInfo) FieldNames() []string {
	st := t.Deref()
	if st == nil || st.Kind != TypeKindStruct {
		return nil
	}

	var names []string
	for _, f := range st.Fields {
		if f.Embedded {
			names = append(names, f.Type.FieldNames()...)
			continue
		}

		names = append(names, f.Name)
	}

	return names
}

// FieldInfo describes a struct field.
type FieldInfo struct {
	Name     string            // Go field name
	Exported bool              // Whether the field is exported
	Type     *TypeInfo         // Field type
	Tag      reflect.StructTag // Raw struct tag
	Embedded bool              // Whether the field is embedded (anonymous)
	Index    int               // Field index in the struct
	Pos      diagnostic.Location
}

// JSONName returns the JSON tag name if present, otherwise the field name.
func (f *FieldInfo) JSONName() string {
	if tag := f.Tag.Get("json"); tag != "" && tag != "-" {
		// Parse first part before comma
		for i := range len(tag) {
			if tag[i] == ',' {
				return tag[:i]
			}
		}

		return tag
	}

	return f.Name
}

// TypeGraph holds all analyzed types from loaded packages.
type TypeGraph struct {
	// Types maps TypeID to TypeInfo for all named types.
	Types map[TypeID]*TypeInfo
	// Packages maps package paths to their package info.
	Packages map[string]*PackageInfo
}

// NewTypeGraph creates a new empty TypeGraph.
func NewTypeGraph() *TypeGraph {
	return &TypeGraph{
		Types:    make(map[TypeID]*TypeInfo),
		Packages: make(map[string]*PackageInfo),
	}
}

// GetType returns the TypeInfo for a given TypeID, or nil if not found.
func (g *TypeGraph) GetType(id TypeID) *TypeInfo {
	return g.Types[id]
}

// PackageInfo holds information about a loaded package.
type PackageInfo struct {
	Path  string   // Import path
	Name  string   // Package name
	Dir   string   // Directory of the package's Go files
	Types []TypeID // Named types defined in this package
}
