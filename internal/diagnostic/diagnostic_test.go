package diagnostic

import (
	"fmt"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocation_String(t *testing.T) {
	assert.Equal(t, "-", Location{}.String())
	assert.Equal(t, "a.go", Location{File: "a.go"}.String())
	assert.Equal(t, "a.go:3:7", Location{File: "a.go", Line: 3, Column: 7}.String())
}

func TestDiagnostics_AllOrdersErrorsFirst(t *testing.T) {
	var d Diagnostics

	d.AddWarning(CodeLoadProblem, "w", Location{File: "a.go", Line: 1}, "", "")
	d.AddError(CodeUnresolvedMember, "second", Location{File: "b.go", Line: 2}, "s2", "")
	d.AddError(CodeUnresolvedMember, "first", Location{File: "a.go", Line: 9}, "s1", "")
	d.AddInfo(CodeNamingCollision, "i", Location{}, "", "")

	all := d.All()
	require.Len(t, all, 4)
	assert.Equal(t, "first", all[0].Message)
	assert.Equal(t, "second", all[1].Message)
	assert.Equal(t, "w", all[2].Message)
	assert.Equal(t, "i", all[3].Message)

	assert.Equal(t, 4, d.Len())
	assert.True(t, d.HasErrors())
	assert.Len(t, d.ByCode(CodeUnresolvedMember), 2)
}

func TestDiagnostics_Merge(t *testing.T) {
	var a, b Diagnostics

	a.AddWarning(CodeLoadProblem, "w", Location{}, "", "")
	b.AddError(CodeInvalidConfig, "e", Location{}, "", "version")

	a.Merge(b)
	assert.Len(t, a.Errors, 1)
	assert.Len(t, a.Warnings, 1)
	assert.False(t, a.IsValid())
}

func TestDiagnostics_Error(t *testing.T) {
	var d Diagnostics
	require.NoError(t, d.Error())

	d.AddError(CodeUnresolvedMember, "no member Nope", Location{File: "a.go", Line: 1, Column: 2}, "", "Buyer")
	d.AddError(CodeInvalidConfig, "bad", Location{}, "", "")

	assert.EqualError(t, d.Error(), "a.go:1:2 Buyer: [unresolved_member] no member Nope; [invalid_config] bad")
}

func TestDiagnostic_StringWithSuggestions(t *testing.T) {
	d := Diagnostic{
		Code:        CodeMissingTargetMember,
		Message:     "Row has no member Nmae",
		Suggestions: []string{"Name"},
	}

	assert.Equal(t, "[missing_target_member] Row has no member Nmae (did you mean Name?)", d.String())
}

func TestError_Chain(t *testing.T) {
	err := Errorf(CodeUnresolvedMember, "%s has no member %s", "Order", "Nope").
		In("Name").
		Under("Product").
		Under("Items").
		WithSuggestions("Notes")

	assert.Equal(t, "Items.Product.Name: [unresolved_member] Order has no member Nope", err.Error())

	de, ok := As(fmt.Errorf("wrapped: %w", err))
	require.True(t, ok)
	assert.Same(t, err, de)

	_, ok = As(fmt.Errorf("plain"))
	assert.False(t, ok)
}

func TestError_Diagnostic(t *testing.T) {
	fallback := Location{File: "orders.go", Line: 12, Column: 9}

	d := Errorf(CodeNamingCollision, "x").Diagnostic("site", fallback)
	assert.Equal(t, fallback, d.Location)
	assert.Equal(t, DiagnosticError, d.Severity)
	assert.Equal(t, "site", d.CallSite)

	field := Location{File: "types.go", Line: 4}
	d = Errorf(CodeNamingCollision, "x").At(field).Diagnostic("site", fallback)
	assert.Equal(t, field, d.Location)
}

func TestSeverity_JSON(t *testing.T) {
	in := Diagnostic{Severity: DiagnosticWarning, Code: CodeLoadProblem, Message: "m"}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"severity":"warning"`)

	var out Diagnostic
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)

	var s DiagnosticSeverity
	assert.Error(t, s.UnmarshalText([]byte("fatal")))
}
