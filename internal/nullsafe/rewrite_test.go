package nullsafe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projection-generator/expr"
	"projection-generator/internal/diagnostic"
)

var (
	strT      = expr.Basic("string")
	intT      = expr.Basic("int64")
	orderT    = expr.Struct("projection-generator/store", "Order")
	customerT = expr.Nullable(expr.Struct("projection-generator/store", "Customer"))
	addressT  = expr.Nullable(expr.Struct("projection-generator/store", "Address"))
	itemT     = expr.Struct("projection-generator/store", "OrderItem")
	clockT    = expr.Named("projection-generator/store", "Clock")
)

func order() *expr.Node { return expr.Param("o", orderT) }

// customerName is o.Customer?.FullName.
func customerName() *expr.Node {
	return expr.SafeMember(expr.Member(order(), "Customer", customerT), "FullName", strT)
}

// city is o.Customer?.Address?.City.
func city() *expr.Node {
	addr := expr.SafeMember(expr.Member(order(), "Customer", customerT), "Address", addressT)
	return expr.SafeMember(addr, "City", strT)
}

func eval(t *testing.T, n *expr.Node, o any) any {
	t.Helper()

	v, err := expr.Eval(n, map[string]any{"o": o}, nil)
	require.NoError(t, err)

	return v
}

// sameValue treats nil and an empty sequence as equal: a skipped
// collection-valued chain yields null natively and the empty sequence
// once rewritten.
func sameValue(t *testing.T, want, got any) {
	t.Helper()

	if s, ok := want.([]any); ok && len(s) == 0 {
		want = nil
	}

	if s, ok := got.([]any); ok && len(s) == 0 {
		got = nil
	}

	assert.Equal(t, want, got)
}

func inputs() []map[string]any {
	return []map[string]any{
		{"Customer": nil, "Items": []any{}},
		{"Customer": map[string]any{"FullName": "Ada", "Address": nil}},
		{"Customer": map[string]any{"FullName": "Ada", "Address": map[string]any{"City": "Oslo"}}},
	}
}

func TestRewrite_SingleLink(t *testing.T) {
	res, err := Rewrite(customerName())
	require.NoError(t, err)

	assert.Equal(t, "(o.Customer != null) ? o.Customer.FullName : null", res.Node.String())
	assert.True(t, res.Nullable)
	assert.False(t, res.EmptyFallback)
	assert.Equal(t, "*string", res.Type.String())
	require.NoError(t, Check(res.Node))
}

func TestRewrite_ChainSharesOneConditional(t *testing.T) {
	res, err := Rewrite(city())
	require.NoError(t, err)

	assert.Equal(t,
		"((o.Customer != null) && (o.Customer.Address != null)) ? o.Customer.Address.City : null",
		res.Node.String())
	assert.Equal(t, expr.KindCond, res.Node.Kind)
	assert.NotEqual(t, expr.KindCond, res.Node.Then.Kind, "one conditional for the whole chain")
}

func TestRewrite_CollectionFallsBackToEmpty(t *testing.T) {
	items := expr.SafeMember(expr.Member(order(), "Customer", customerT), "Orders", expr.SliceOf(itemT))

	res, err := Rewrite(items)
	require.NoError(t, err)

	assert.Equal(t, "(o.Customer != null) ? o.Customer.Orders : []", res.Node.String())
	assert.False(t, res.Nullable)
	assert.True(t, res.EmptyFallback)
	assert.Equal(t, expr.KindEmpty, res.Node.Else.Kind)
	assert.Equal(t, "[]store.OrderItem", res.Node.Else.Type.String())
}

func TestRewrite_Coalesce(t *testing.T) {
	n := expr.Coalesce(customerName(), expr.Const("guest", strT), strT)

	res, err := Rewrite(n)
	require.NoError(t, err)

	assert.Equal(t, `(o.Customer != null) ? o.Customer.FullName : "guest"`, res.Node.String())
	assert.False(t, res.Nullable)

	for _, in := range inputs() {
		sameValue(t, eval(t, n, in), eval(t, res.Node, in))
	}
}

func TestRewrite_CoalesceNullableMember(t *testing.T) {
	notes := expr.Member(order(), "Notes", expr.Nullable(strT))
	n := expr.Coalesce(notes, expr.Const("", strT), strT)

	res, err := Rewrite(n)
	require.NoError(t, err)
	assert.Equal(t, `(o.Notes != null) ? o.Notes : ""`, res.Node.String())
}

func TestRewrite_PreservesSemantics(t *testing.T) {
	i := expr.Param("i", itemT)
	product := expr.Nullable(expr.Struct("projection-generator/store", "Product"))
	itemName := expr.SafeMember(expr.Member(i, "Product", product), "Name", strT)

	tree := expr.New(&expr.Type{Kind: expr.TypeShape, Ref: "s1"},
		expr.F("Name", customerName()),
		expr.F("City", city()),
		expr.F("Items", expr.Call(expr.Member(order(), "Items", expr.SliceOf(itemT)), "Select", expr.SliceOf(strT),
			expr.Fn([]string{"i"}, expr.Coalesce(itemName, expr.Const("?", strT), strT)))),
	)

	res, err := Rewrite(tree)
	require.NoError(t, err)
	require.NoError(t, Check(res.Node))

	for _, in := range inputs() {
		if in["Items"] == nil {
			in["Items"] = []any{
				map[string]any{"Product": nil},
				map[string]any{"Product": map[string]any{"Name": "Pen"}},
			}
		}

		want := eval(t, tree, in).(map[string]any)
		got := eval(t, res.Node, in).(map[string]any)
		for k := range want {
			sameValue(t, want[k], got[k])
		}
	}
}

func TestRewrite_CollectionConditionalUsesEmpty(t *testing.T) {
	items := expr.Member(order(), "Items", expr.SliceOf(itemT))
	n := expr.Cond(
		expr.Binary(expr.OpGt, expr.Member(order(), "TotalCents", intT), expr.Const(0, intT), expr.Basic("bool")),
		items,
		&expr.Node{Kind: expr.KindNull},
		expr.SliceOf(itemT),
	)

	res, err := Rewrite(n)
	require.NoError(t, err)

	assert.Equal(t, expr.KindEmpty, res.Node.Else.Kind)
	assert.Equal(t, "[]store.OrderItem", res.Node.Else.Type.String())
	assert.True(t, res.EmptyFallback)
}

func TestRewrite_OpaqueReceiverFails(t *testing.T) {
	now := expr.OpaqueCall(expr.Capture("clock", clockT), "Location", expr.Nullable(expr.Named("time", "Location")))
	n := expr.SafeMember(now, "Name", strT)

	_, err := Rewrite(n)
	require.Error(t, err)

	de, ok := diagnostic.As(err)
	require.True(t, ok)
	assert.Equal(t, diagnostic.CodeNullSafetyRewriteFailure, de.Code)
	assert.Contains(t, de.Message, "clock.Location()")
}

func TestRewrite_OpaqueCoalesceFails(t *testing.T) {
	zone := expr.OpaqueCall(expr.Capture("clock", clockT), "Zone", expr.Nullable(strT))
	_, err := Rewrite(expr.Coalesce(zone, expr.Const("UTC", strT), strT))

	de, ok := diagnostic.As(err)
	require.True(t, ok)
	assert.Equal(t, diagnostic.CodeNullSafetyRewriteFailure, de.Code)
}

func TestRewrite_LeavesInputUntouched(t *testing.T) {
	n := city()
	before := n.String()

	_, err := Rewrite(n)
	require.NoError(t, err)
	assert.Equal(t, before, n.String())
}

func TestRewrite_PlainTreeUnchanged(t *testing.T) {
	n := expr.Binary(expr.OpAdd, expr.Member(order(), "TotalCents", intT), expr.Const(1, intT), intT)

	res, err := Rewrite(n)
	require.NoError(t, err)
	assert.Equal(t, n.String(), res.Node.String())
	assert.False(t, res.Nullable)
}

func TestCheck(t *testing.T) {
	require.ErrorIs(t, Check(customerName()), ErrNotRewritten)
	require.ErrorIs(t, Check(expr.Coalesce(order(), order(), orderT)), ErrNotRewritten)
	require.NoError(t, Check(order()))
}
