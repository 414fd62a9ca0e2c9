package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "Items", 5},
		{"Items", "Items", 0},
		{"Custmer", "Customer", 1},
		{"Quantty", "Quantity", 1},
		{"FullName", "FulName", 1},
		{"Number", "Numbre", 2},
		{"kitten", "sitting", 3},
		{"Straße", "Strasse", 2},
		{"Größe", "Grösse", 2},
	}

	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, Levenshtein(tt.a, tt.b))
			assert.Equal(t, tt.want, Levenshtein(tt.b, tt.a), "symmetric")
		})
	}
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity("", ""), 1e-9)
	assert.InDelta(t, 1.0, Similarity("status", "status"), 1e-9)
	assert.InDelta(t, 0.0, Similarity("abc", "xyz"), 1e-9)
	assert.InDelta(t, 1.0-1.0/8.0, Similarity("custmer", "customer"), 1e-9)
}

func TestNormalizeIdent(t *testing.T) {
	tests := map[string]string{
		"OrderID":      "orderid",
		"order_id":     "orderid",
		"order-id":     "orderid",
		"orderId":      "orderid",
		"PRICE_CENTS":  "pricecents",
		"Full Name":    "fullname",
		"":             "",
		"Café":   "café",
		"ShippedAt":    "shippedat",
		"unitPriceUTC": "unitpriceutc",
	}

	for in, want := range tests {
		assert.Equal(t, want, NormalizeIdent(in), in)
	}
}

func TestStripSuffix(t *testing.T) {
	assert.Equal(t, "customer", StripSuffix("customerid"))
	assert.Equal(t, "product", StripSuffix("productids"))
	assert.Equal(t, "placed", StripSuffix("placedat"))
	assert.Equal(t, "id", StripSuffix("id"))
	assert.Equal(t, "fullname", StripSuffix("fullname"))
}

func TestNameScore(t *testing.T) {
	assert.InDelta(t, 1.0, NameScore("OrderID", "order_id"), 1e-9)
	assert.InDelta(t, 1.0, NameScore("Customer", "CustomerID"), 1e-9, "suffix is ignored")
	assert.Greater(t, NameScore("Custmer", "Customer"), NameScore("Custmer", "Category"))
	assert.Less(t, NameScore("Email", "PlacedAt"), DefaultMinScore)
}

func BenchmarkLevenshtein(b *testing.B) {
	for b.Loop() {
		Levenshtein("OrderItemQuantity", "OrderItemQuantty")
	}
}
