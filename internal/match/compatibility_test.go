package match

import (
	"go/types"
	"testing"

	"github.com/stretchr/testify/assert"

	"projection-generator/expr"
)

func TestTypeCompatibility_String(t *testing.T) {
	assert.Equal(t, "identical", TypeIdentical.String())
	assert.Equal(t, "assignable", TypeAssignable.String())
	assert.Equal(t, "convertible", TypeConvertible.String())
	assert.Equal(t, "incompatible", TypeIncompatible.String())

	assert.Less(t, TypeIncompatible.Score(), TypeConvertible.Score())
	assert.Less(t, TypeConvertible.Score(), TypeAssignable.Score())
	assert.Less(t, TypeAssignable.Score(), TypeIdentical.Score())
}

func TestCompatible(t *testing.T) {
	const pkg = "projection-generator/warehouse"

	i64 := expr.Basic("int64")
	str := expr.Basic("string")
	status := expr.Named("projection-generator/store", "OrderStatus")

	tests := []struct {
		name     string
		value    *expr.Type
		declared *expr.Type
		expected TypeCompatibility
	}{
		{"identical basic", i64, expr.Basic("int64"), TypeIdentical},
		{"lift into nullable", i64, expr.Nullable(i64), TypeAssignable},
		{"nullable into non-null", expr.Nullable(str), str, TypeIncompatible},
		{"numeric widening", expr.Basic("int"), i64, TypeConvertible},
		{"named to basic", status, str, TypeConvertible},
		{"bool to string", expr.Basic("bool"), str, TypeIncompatible},
		{"shape matches declared struct", expr.SliceOf(expr.Shape(pkg, "ItemRow")), expr.SliceOf(expr.Struct(pkg, "ItemRow")), TypeIdentical},
		{"shape name differs", expr.Shape(pkg, "projection1a2b3c4d"), expr.Struct(pkg, "ItemRow"), TypeIncompatible},
		{"slice element must be exact", expr.SliceOf(i64), expr.SliceOf(expr.Nullable(i64)), TypeIncompatible},
		{"map", expr.MapOf(str, i64), expr.MapOf(str, i64), TypeIdentical},
		{"null into nullable", nil, expr.Nullable(str), TypeAssignable},
		{"null into non-null", nil, str, TypeIncompatible},
		{"collection into scalar", expr.SliceOf(str), str, TypeIncompatible},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Compatible(tt.value, tt.declared)
			assert.Equal(t, tt.expected, result.Compatibility, result.Reason)
			assert.Equal(t, tt.expected >= TypeAssignable, result.Compatibility.OK())
		})
	}
}

func TestScoreTypeCompatibility(t *testing.T) {
	intType := types.Typ[types.Int]
	int64Type := types.Typ[types.Int64]
	stringType := types.Typ[types.String]

	assert.Equal(t, TypeIdentical, ScoreTypeCompatibility(intType, intType).Compatibility)
	assert.Equal(t, TypeConvertible, ScoreTypeCompatibility(intType, int64Type).Compatibility)
	assert.Equal(t, TypeIncompatible, ScoreTypeCompatibility(stringType, intType).Compatibility)

	// Untyped constants are assignable to any compatible basic type.
	assert.Equal(t, TypeAssignable, ScoreTypeCompatibility(types.Typ[types.UntypedInt], int64Type).Compatibility)
}
