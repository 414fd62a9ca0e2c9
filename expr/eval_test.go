package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	orderT    = Struct("projection-generator/store", "Order")
	customerT = Nullable(Struct("projection-generator/store", "Customer"))
	itemT     = Struct("projection-generator/store", "OrderItem")
	strT      = Basic("string")
	intT      = Basic("int")
	boolT     = Basic("bool")
)

func order(customer any, items ...any) map[string]any {
	o := map[string]any{"ID": 7, "Customer": customer}
	if items != nil {
		o["Items"] = items
	}

	return o
}

func TestEval_SafeChainShortCircuits(t *testing.T) {
	o := Param("o", orderT)
	chain := SafeMember(SafeMember(Member(o, "Customer", customerT), "Address", Nullable(Struct("s", "Address"))), "City", strT)

	v, err := Eval(chain, map[string]any{"o": order(nil)}, nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = Eval(chain, map[string]any{"o": order(map[string]any{"Address": nil})}, nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = Eval(chain, map[string]any{"o": order(map[string]any{"Address": map[string]any{"City": "Oslo"}})}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Oslo", v)
}

func TestEval_NonSafeLinkOnNullFails(t *testing.T) {
	o := Param("o", orderT)
	chain := Member(Member(o, "Customer", customerT), "Name", strT)

	_, err := Eval(chain, map[string]any{"o": order(nil)}, nil)
	require.ErrorIs(t, err, ErrNilDereference)
}

func TestEval_Coalesce(t *testing.T) {
	o := Param("o", orderT)
	n := Coalesce(SafeMember(Member(o, "Customer", customerT), "Name", Nullable(strT)), Const("n/a", strT), strT)

	v, err := Eval(n, map[string]any{"o": order(nil)}, nil)
	require.NoError(t, err)
	assert.Equal(t, "n/a", v)

	v, err = Eval(n, map[string]any{"o": order(map[string]any{"Name": "Ada"})}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Ada", v)
}

func TestEval_SequenceMethods(t *testing.T) {
	o := Param("o", orderT)
	i := Param("i", itemT)
	items := Member(o, "Items", SliceOf(itemT))
	qty := Member(i, "Qty", intT)

	src := order(nil,
		map[string]any{"Name": "b", "Qty": 3},
		map[string]any{"Name": "a", "Qty": 1},
		map[string]any{"Name": "c", "Qty": 2},
	)
	params := map[string]any{"o": src}

	tests := []struct {
		name string
		node *Node
		want any
	}{
		{"count", Call(items, "Count", intT), int64(3)},
		{"sum", Call(items, "Sum", intT, Fn([]string{"i"}, qty)), int64(6)},
		{"max", Call(items, "Max", intT, Fn([]string{"i"}, qty)), int64(3)},
		{"any with predicate", Call(items, "Any", boolT, Fn([]string{"i"}, Binary(OpGt, qty, Const(2, intT), boolT))), true},
		{"all with predicate", Call(items, "All", boolT, Fn([]string{"i"}, Binary(OpGt, qty, Const(2, intT), boolT))), false},
		{
			"order by then select",
			Call(Call(items, "OrderBy", SliceOf(itemT), Fn([]string{"i"}, qty)), "Select", SliceOf(strT), Fn([]string{"i"}, Member(i, "Name", strT))),
			[]any{"a", "c", "b"},
		},
		{
			"where then take",
			Call(Call(items, "Where", SliceOf(itemT), Fn([]string{"i"}, Binary(OpLt, qty, Const(3, intT), boolT))), "Take", SliceOf(itemT), Const(1, intT)),
			[]any{map[string]any{"Name": "a", "Qty": 1}},
		},
		{"first or default on no match", Call(items, "FirstOrDefault", Nullable(itemT), Fn([]string{"i"}, Binary(OpGt, qty, Const(9, intT), boolT))), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Eval(tt.node, params, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestEval_NilSequenceActsAsEmpty(t *testing.T) {
	o := Param("o", orderT)
	n := Call(Member(o, "Items", SliceOf(itemT)), "Count", intT)

	v, err := Eval(n, map[string]any{"o": order(nil)}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)
}

func TestEval_LiftedOperators(t *testing.T) {
	tests := []struct {
		name string
		node *Node
		want any
	}{
		{"null plus int", Binary(OpAdd, Null(intT), Const(1, intT), Nullable(intT)), nil},
		{"null less than int", Binary(OpLt, Null(intT), Const(1, intT), boolT), false},
		{"null equals null", Binary(OpEq, Null(intT), Null(intT), boolT), true},
		{"mixed numeric compare", Binary(OpEq, Const(int32(2), intT), Const(2.0, Basic("float64")), boolT), true},
		{"string concat", Binary(OpAdd, Const("#", strT), Const(7, intT), strT), "#7"},
		{"negate", Unary(OpNeg, Const(4, intT), intT), int64(-4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Eval(tt.node, nil, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestEval_CapturesAndOpaqueCalls(t *testing.T) {
	o := Param("o", orderT)
	n := Binary(OpGe, Member(o, "ID", intT), Capture("min", intT), boolT)

	v, err := Eval(n, map[string]any{"o": order(nil)}, map[string]any{"min": 5})
	require.NoError(t, err)
	assert.Equal(t, true, v)

	_, err = Eval(n, map[string]any{"o": order(nil)}, nil)
	require.ErrorIs(t, err, ErrUnbound)

	_, err = Eval(OpaqueCall(Capture("clock", Named("time", "Time")), "Year", intT), nil, map[string]any{"clock": 1})
	require.ErrorIs(t, err, ErrOpaqueCall)
}

func TestLambda_ApplyBuildsRecord(t *testing.T) {
	o := Param("o", orderT)
	shape := Shape("projection-generator/warehouse", "OrderRow")
	l := NewLambda("o", orderT, New(shape,
		F("ID", Member(o, "ID", intT)),
		F("Name", SafeMember(Member(o, "Customer", customerT), "Name", Nullable(strT))),
	))

	v, err := l.Apply(order(map[string]any{"Name": "Ada"}), nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ID": int64(7), "Name": "Ada"}, v)
	assert.Equal(t, shape, l.Result())
}
