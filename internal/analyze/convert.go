package analyze

import (
	"go/types"
	"strings"

	"projection-generator/expr"
)

// ExprType converts a TypeInfo into the descriptor used in expression trees.
// Pointers become nullable types; arrays become slices.
func ExprType(t *TypeInfo) *expr.Type {
	if t == nil {
		return nil
	}

	switch t.Kind {
	case TypeKindBasic:
		return expr.Basic(basicName(t))
	case TypeKindPointer:
		return expr.Nullable(ExprType(t.ElemType))
	case TypeKindSlice, TypeKindArray:
		return expr.SliceOf(ExprType(t.ElemType))
	case TypeKindMap:
		return expr.MapOf(ExprType(t.KeyType), ExprType(t.ElemType))
	case TypeKindStruct:
		if !t.IsNamed() {
			return expr.Struct("", "struct")
		}

		return expr.Struct(t.ID.PkgPath, t.ID.Name)
	case TypeKindAlias, TypeKindExternal:
		return expr.Named(t.ID.PkgPath, t.ID.Name)
	}

	if t.IsNamed() {
		return expr.Named(t.ID.PkgPath, t.ID.Name)
	}

	return nil
}

func basicName(t *TypeInfo) string {
	b, ok := t.GoType.(*types.Basic)
	if !ok {
		return t.ID.Name
	}

	switch b.Kind() {
	case types.UntypedBool:
		return "bool"
	case types.UntypedInt:
		return "int"
	case types.UntypedRune:
		return "rune"
	case types.UntypedFloat:
		return "float64"
	case types.UntypedString:
		return "string"
	}

	return strings.TrimPrefix(b.Name(), "untyped ")
}
