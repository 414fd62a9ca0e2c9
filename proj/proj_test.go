package proj

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projection-generator/expr"
)

type account struct {
	ID   int64
	Name string
}

type accountRow struct {
	ID int64
}

const (
	thisPkg  = "projection-generator/proj"
	orderSrc = "projection-generator/store.Order"
)

func TestKey_Stable(t *testing.T) {
	const warehouse = "projection-generator/warehouse"

	a := Key(warehouse, orderSrc, "", "o => new { o.ID }")
	b := Key(warehouse, orderSrc, "", "o => new { o.ID }")
	assert.Equal(t, a, b)
	assert.NotEmpty(t, a)

	assert.NotEqual(t, a, Key(warehouse, orderSrc, "OrderRow", "o => new { o.ID }"))
	assert.NotEqual(t, a, Key(warehouse, orderSrc, "", "o => new { o.ID, }"))
	assert.NotEqual(t, a, Key("projection-generator/reports", orderSrc, "", "o => new { o.ID }"))
	// The separator keeps field boundaries unambiguous.
	assert.NotEqual(t, Key("p", "ab", "c", "d"), Key("p", "a", "bc", "d"))
	assert.NotEqual(t, Key("pa", "b", "c", "d"), Key("p", "ab", "c", "d"))
}

func TestFuncPackage(t *testing.T) {
	tests := map[string]string{
		"projection-generator/warehouse.PickList": "projection-generator/warehouse",
		"gopkg.in/yaml%2ev3.Marshal":              "gopkg.in/yaml.v3",
		"main.main":                               "main",
		"example.com/a.(*T).M.func1":              "example.com/a",
		"example.com/a.F[...]":                    "example.com/a",
		"example.com/a/b.init.0":                  "example.com/a/b",
	}

	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, funcPackage(in))
		})
	}
}

func TestCallerPackage(t *testing.T) {
	assert.Equal(t, thisPkg, callerPackage(0))

	func() {
		assert.Equal(t, thisPkg, callerPackage(1))
	}()
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "projection-generator/proj.account", TypeName[account]())
	assert.Equal(t, "projection-generator/proj.account", TypeName[*account]())
	assert.Equal(t, "string", TypeName[string]())
}

func TestSelect_Registered(t *testing.T) {
	const selector = "a => new { a.ID }"

	src := expr.Struct("projection-generator/proj", "account")
	build := func() *expr.Lambda {
		a := expr.Param("a", src)
		return expr.NewLambda("a", src, expr.New(expr.Shape("projection-generator/proj", "accountRow"),
			expr.F("ID", expr.Member(a, "ID", expr.Basic("int64")))))
	}

	Register(Binding{
		Key:    Key(thisPkg, TypeName[account](), "accountRow", selector),
		Source: TypeName[account](),
		Output: "accountRow",
		Build:  build,
		New:    func() any { return &accountRow{} },
	})

	p, err := SelectAs[account, accountRow](selector, Capture("min", 3))
	require.NoError(t, err)
	assert.Equal(t, "accountRow", p.Output)
	assert.Equal(t, map[string]any{"min": 3}, p.Captures)
	assert.IsType(t, &accountRow{}, p.NewOutput())

	v, err := p.Lambda.Apply(map[string]any{"ID": 4, "Name": "x"}, p.Captures)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ID": int64(4)}, v)

	assert.Contains(t, Keys(), Key(thisPkg, TypeName[account](), "accountRow", selector))
}

func TestSelect_ScopedToCallerPackage(t *testing.T) {
	const selector = "a => new { a.ID, a.Name }"

	build := func() *expr.Lambda { return expr.NewLambda("a", nil, expr.Const("other", expr.Basic("string"))) }
	Register(Binding{
		Key:    Key("projection-generator/reports", TypeName[account](), "", selector),
		Source: TypeName[account](),
		Build:  build,
	})

	_, err := Select[account](selector)
	require.ErrorIs(t, err, ErrNotGenerated, "a binding registered for another package is not visible here")

	Register(Binding{
		Key:    Key(thisPkg, TypeName[account](), "", selector),
		Source: TypeName[account](),
		Build:  func() *expr.Lambda { return expr.NewLambda("a", nil, expr.Const("own", expr.Basic("string"))) },
	})

	p, err := Select[account](selector)
	require.NoError(t, err)
	assert.Equal(t, "own", p.Lambda.Body.Value)

	assert.Equal(t, "own", MustSelect[account](selector).Lambda.Body.Value)
}

func TestSelect_NotGenerated(t *testing.T) {
	_, err := Select[account]("a => new { a.Name }")
	require.ErrorIs(t, err, ErrNotGenerated)

	assert.Panics(t, func() { MustSelect[account]("a => new { a.Name }") })
}

func TestRegister_KeepsFirst(t *testing.T) {
	key := Key(thisPkg, "dup", "", "x")
	first := func() *expr.Lambda { return expr.NewLambda("x", nil, expr.Const(1, expr.Basic("int"))) }
	second := func() *expr.Lambda { return expr.NewLambda("x", nil, expr.Const(2, expr.Basic("int"))) }

	Register(Binding{Key: key, Source: "dup", Build: first})
	Register(Binding{Key: key, Source: "dup", Build: second})

	b, ok := Lookup(key)
	require.True(t, ok)
	assert.Equal(t, 1, b.Build().Body.Value)

	assert.Panics(t, func() { Register(Binding{Source: "x"}) })
}
