package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projection-generator/expr"
)

const storePkg = "projection-generator/store"

func loadStore(t *testing.T) *TypeGraph {
	t.Helper()

	analyzer := NewAnalyzer()
	graph, err := analyzer.LoadPackages(storePkg)
	require.NoError(t, err)
	require.NotNil(t, graph)

	return graph
}

func TestAnalyzer_LoadPackages(t *testing.T) {
	graph := loadStore(t)

	// Check that packages were loaded
	require.Contains(t, graph.Packages, storePkg)
	assert.Equal(t, "store", graph.Packages[storePkg].Name)
	assert.NotEmpty(t, graph.Packages[storePkg].Dir)

	// Check that types were extracted
	assert.Contains(t, graph.Types, TypeID{PkgPath: storePkg, Name: "Order"})
	assert.Contains(t, graph.Types, TypeID{PkgPath: storePkg, Name: "OrderItem"})
}

func TestAnalyzer_StoreOrderFields(t *testing.T) {
	graph := loadStore(t)

	order := graph.GetType(TypeID{PkgPath: storePkg, Name: "Order"})
	require.NotNil(t, order)
	assert.Equal(t, TypeKindStruct, order.Kind)
	assert.False(t, order.IsGenerated)
	assert.Positive(t, order.Pos.Line)

	// Check expected fields exist, promoted ones included
	names := order.FieldNames()
	for _, want := range []string{"ID", "Number", "Status", "Customer", "Items", "Notes", "CreatedAt", "CreatedBy"} {
		assert.Contains(t, names, want)
	}
}

func TestAnalyzer_FieldByNamePromotesEmbedded(t *testing.T) {
	graph := loadStore(t)

	order := graph.GetType(TypeID{PkgPath: storePkg, Name: "Order"})
	require.NotNil(t, order)

	f, ok := order.FieldByName("CreatedBy")
	require.True(t, ok)
	assert.Equal(t, TypeKindBasic, f.Type.Kind)
	assert.Equal(t, "created_by", f.JSONName())

	_, ok = order.FieldByName("Audit")
	assert.True(t, ok, "the embedded field itself is addressable")

	_, ok = order.FieldByName("Missing")
	assert.False(t, ok)
}

func TestAnalyzer_FieldKinds(t *testing.T) {
	graph := loadStore(t)
	order := graph.GetType(TypeID{PkgPath: storePkg, Name: "Order"})
	require.NotNil(t, order)

	tests := []struct {
		field string
		kind  TypeKind
		expr  string
	}{
		{"Items", TypeKindSlice, "[]store.OrderItem"},
		{"Customer", TypeKindPointer, "*store.Customer"},
		{"Notes", TypeKindPointer, "*string"},
		{"Status", TypeKindAlias, "store.OrderStatus"},
		{"Attributes", TypeKindMap, "map[string]string"},
		{"PlacedAt", TypeKindExternal, "time.Time"},
		{"ShippedAt", TypeKindPointer, "*time.Time"},
		{"TotalCents", TypeKindBasic, "int64"},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			f, ok := order.FieldByName(tt.field)
			require.True(t, ok)
			assert.Equal(t, tt.kind, f.Type.Kind)
			assert.Equal(t, tt.expr, ExprType(f.Type).String())
		})
	}
}

func TestAnalyzer_RecursiveType(t *testing.T) {
	graph := loadStore(t)

	category := graph.GetType(TypeID{PkgPath: storePkg, Name: "Category"})
	require.NotNil(t, category)

	parent, ok := category.FieldByName("Parent")
	require.True(t, ok)
	assert.Same(t, category, parent.Type.Deref())
}

func TestAnalyzer_Resolve(t *testing.T) {
	analyzer := NewAnalyzer()
	_, err := analyzer.LoadPackages(storePkg)
	require.NoError(t, err)

	order, err := analyzer.Resolve("store.Order")
	require.NoError(t, err)
	assert.Equal(t, "Order", order.ID.Name)

	order2, err := analyzer.Resolve(storePkg + ".Order")
	require.NoError(t, err)
	assert.Same(t, order, order2)

	i64, err := analyzer.Resolve("int64")
	require.NoError(t, err)
	assert.Equal(t, expr.Basic("int64"), ExprType(i64))

	_, err = analyzer.Resolve("store.Nope")
	require.Error(t, err)

	_, err = analyzer.Resolve("Order")
	require.Error(t, err)
}

func TestExprType_Collections(t *testing.T) {
	elem := &TypeInfo{Kind: TypeKindStruct, ID: TypeID{PkgPath: storePkg, Name: "OrderItem"}}
	ptrSlice := &TypeInfo{Kind: TypeKindPointer, ElemType: &TypeInfo{Kind: TypeKindSlice, ElemType: elem}}

	// Collections are never nullable, even behind a pointer.
	got := ExprType(ptrSlice)
	assert.Equal(t, expr.TypeSlice, got.Kind)
	assert.False(t, got.Nullable)
	assert.Nil(t, ExprType(nil))
}

func TestTypeID_String(t *testing.T) {
	id := TypeID{PkgPath: storePkg, Name: "Order"}
	assert.Equal(t, "projection-generator/store.Order", id.String())

	// Empty package path
	idNoPkg := TypeID{Name: "int"}
	assert.Equal(t, "int", idNoPkg.String())
}

func TestTypeKind_String(t *testing.T) {
	assert.Equal(t, "basic", TypeKindBasic.String())
	assert.Equal(t, "struct", TypeKindStruct.String())
	assert.Equal(t, "pointer", TypeKindPointer.String())
	assert.Equal(t, "slice", TypeKindSlice.String())
	assert.Equal(t, "map", TypeKindMap.String())
	assert.Equal(t, "alias", TypeKindAlias.String())
	assert.Equal(t, "external", TypeKindExternal.String())
	assert.Equal(t, "unknown", TypeKindUnknown.String())
}

func TestFieldInfo_JSONName(t *testing.T) {
	// Test with simple tag
	f1 := FieldInfo{Name: "MyField", Tag: `json:"my_field"`}
	assert.Equal(t, "my_field", f1.JSONName())

	// Test with options
	f2 := FieldInfo{Name: "MyField", Tag: `json:"my_field,omitempty"`}
	assert.Equal(t, "my_field", f2.JSONName())

	// Test with no tag
	f3 := FieldInfo{Name: "MyField", Tag: ""}
	assert.Equal(t, "MyField", f3.JSONName())

	// Test with "-" (ignored in JSON)
	f4 := FieldInfo{Name: "MyField", Tag: `json:"-"`}
	assert.Equal(t, "MyField", f4.JSONName())
}
