// Package warehouse holds the fulfilment views over store records. Every view
// is a projection compiled by projection-generator.
package warehouse

import (
	"projection-generator/proj"
	"projection-generator/store"
)

// PickLine is one line of a pick list.
type PickLine struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// PickListRow is the row type of the pick list screen.
type PickListRow struct {
	Number string     `json:"number"`
	Buyer  *string    `json:"buyer,omitempty"`
	Lines  []PickLine `json:"lines"`
}

// ShippingLabel is printed on every parcel.
type ShippingLabel struct {
	Number  string  `json:"number"`
	Street  *string `json:"street,omitempty"`
	City    *string `json:"city,omitempty"`
	Country *string `json:"country,omitempty"`
}

// PickList projects orders into pick list rows.
func PickList() (*proj.Projection, error) {
	return proj.SelectAs[store.Order, PickListRow](`o => new {
		o.Number,
		Buyer = o.Customer?.FullName,
		Lines = o.Items.Select(i => new { i.Name, i.Quantity }),
	}`)
}

// ShippingLabels projects orders into labels.
func ShippingLabels() (*proj.Projection, error) {
	return proj.SelectAs[store.Order, ShippingLabel](`o => new {
		o.Number,
		o.Customer?.Address?.Street,
		o.Customer?.Address?.City,
		o.Customer?.Address?.Country,
	}`)
}

// OrderSummaries projects orders for the overview screen.
func OrderSummaries() (*proj.Projection, error) {
	return proj.Select[store.Order](`o => new {
		o.ID,
		o.Number,
		o.Status,
		Buyer = o.Customer?.FullName,
		LineCount = o.Items.Count(),
	}`)
}

// Restock lists products and flags those at or above a price limit.
func Restock(limitCents int64) (*proj.Projection, error) {
	return proj.Select[store.Product](`p => new { p.SKU, p.Name, Expensive = p.PriceCents >= limit }`,
		proj.Capture("limit", limitCents))
}
