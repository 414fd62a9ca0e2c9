package analyze

import "strings"

// TypeString returns a Go-like representation of a TypeInfo using package
// aliases: "*store.Customer", "[]store.OrderItem", "map[string]int".
func TypeString(t *TypeInfo) string {
	if t == nil {
		return "<nil>"
	}

	switch t.Kind {
	case TypeKindBasic:
		if t.GoType == nil {
			return t.ID.Name
		}

		return t.GoType.String()

	case TypeKindPointer:
		return "*" + TypeString(t.ElemType)

	case TypeKindSlice, TypeKindArray:
		if t.IsNamed() {
			return qualified(t.ID)
		}
		return "[]" + TypeString(t.ElemType)

	case TypeKindMap:
		if t.IsNamed() {
			return qualified(t.ID)
		}
		return "map[" + TypeString(t.KeyType) + "]" + TypeString(t.ElemType)

	case TypeKindStruct:
		if t.IsNamed() {
			return qualified(t.ID)
		}
		return "struct{...}"

	default:
		if t.IsNamed() {
			return qualified(t.ID)
		}
		if t.GoType != nil {
			return t.GoType.String()
		}
		return "<unknown>"
	}
}

func qualified(id TypeID) string {
	if id.PkgPath == "" {
		return id.Name
	}

	return id.PkgPath[strings.LastIndexByte(id.PkgPath, '/')+1:] + "." + id.Name
}
