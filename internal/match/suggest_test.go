package match

import (
	"go/types"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projection-generator/expr"
	"projection-generator/internal/analyze"
)

func TestSuggest(t *testing.T) {
	customerFields := []string{"ID", "Email", "FullName", "Address", "IsActive"}
	assert.Equal(t, []string{"FullName"}, Suggest("FulName", customerFields, 3))

	itemFields := []string{"ProductID", "Name", "Quantity", "UnitPrice", "Product"}
	assert.Equal(t, []string{"Quantity"}, Suggest("Quantty", itemFields, 2))

	assert.Nil(t, Suggest("Zzz", itemFields, 3))
	assert.Nil(t, Suggest("Name", nil, 3))
}

func TestSuggest_Deterministic(t *testing.T) {
	candidates := []string{"Total", "Totals", "Totl"}
	first := Suggest("Tota", candidates, 3)
	for range 5 {
		assert.Equal(t, first, Suggest("Tota", candidates, 3))
	}
}

func TestRankFields(t *testing.T) {
	i64 := &analyze.TypeInfo{Kind: analyze.TypeKindBasic, GoType: types.Typ[types.Int64]}
	str := &analyze.TypeInfo{Kind: analyze.TypeKindBasic, GoType: types.Typ[types.String]}

	fields := []analyze.FieldInfo{
		{Name: "Title", Exported: true, Type: str},
		{Name: "TotalCents", Exported: true, Type: i64},
		{Name: "Tax", Exported: true, Type: i64},
		{Name: "total", Exported: false, Type: i64},
	}

	ranked := RankFields("Total", expr.Basic("int64"), fields)
	require.Len(t, ranked, 3)
	assert.Equal(t, []string{"TotalCents", "Tax", "Title"}, ranked.Names())
	assert.Equal(t, TypeIdentical, ranked[0].TypeCompat.Compatibility)
	assert.Equal(t, TypeIncompatible, ranked[2].TypeCompat.Compatibility)
}

func TestCandidateList_TopAndThreshold(t *testing.T) {
	list := CandidateList{
		{Name: "a", CombinedScore: 0.9},
		{Name: "b", CombinedScore: 0.6},
		{Name: "c", CombinedScore: 0.2},
	}

	assert.Equal(t, []string{"a", "b"}, list.Top(2).Names())
	assert.Equal(t, []string{"a", "b", "c"}, list.Top(10).Names())
	assert.Equal(t, []string{"a", "b"}, list.AboveThreshold(DefaultMinScore).Names())
}
