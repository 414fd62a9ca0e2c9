package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeString(t *testing.T) {
	analyzer := NewAnalyzer()
	graph, err := analyzer.LoadPackages("projection-generator/store")
	require.NoError(t, err)

	order := graph.GetType(TypeID{PkgPath: "projection-generator/store", Name: "Order"})
	require.NotNil(t, order)
	assert.Equal(t, "store.Order", TypeString(order))

	customer, ok := order.FieldByName("Customer")
	require.True(t, ok)
	assert.Equal(t, "*store.Customer", TypeString(customer.Type))

	items, ok := order.FieldByName("Items")
	require.True(t, ok)
	assert.Equal(t, "[]store.OrderItem", TypeString(items.Type))

	notes, ok := order.FieldByName("Notes")
	require.True(t, ok)
	assert.Equal(t, "*string", TypeString(notes.Type))

	placed, ok := order.FieldByName("PlacedAt")
	require.True(t, ok)
	assert.Equal(t, "time.Time", TypeString(placed.Type))

	assert.Equal(t, "<nil>", TypeString(nil))
}
