package store

import (
	"time"
)

// Audit is embedded into records that track who created them.
type Audit struct {
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by"`
}

// Category is a product category. Categories form a tree through Parent.
type Category struct {
	ID     int64     `json:"id"`
	Name   string    `json:"name"`
	Parent *Category `json:"parent,omitempty"`
}

// Product represents an individual item available for sale.
// Prices are in cents to avoid floating-point errors.
type Product struct {
	ID         int64     `json:"id"`
	SKU        string    `json:"sku"`
	Name       string    `json:"name"`
	PriceCents int64     `json:"price_cents"`
	Category   *Category `json:"category,omitempty"`
	Tags       []string  `json:"tags"`
}

// Address is a postal address.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	Country string `json:"country"`
}

// Customer represents the user placing orders.
type Customer struct {
	ID       int64    `json:"id"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	Address  *Address `json:"address,omitempty"`
	IsActive bool     `json:"is_active"`
}

// Order represents a transaction made by a customer.
type Order struct {
	Audit

	ID         int64             `json:"id"`
	Number     string            `json:"number"`
	Status     OrderStatus       `json:"status"`
	Customer   *Customer         `json:"customer,omitempty"`
	Items      []OrderItem       `json:"items"`
	Notes      *string           `json:"notes,omitempty"`
	Tags       []string          `json:"tags"`
	Attributes map[string]string `json:"attributes"`
	TotalCents int64             `json:"total_cents"`
	PlacedAt   time.Time         `json:"placed_at"`
	ShippedAt  *time.Time        `json:"shipped_at,omitempty"`
}

// OrderItem represents a specific product line within an order.
// It snapshots the price at the time of purchase.
type OrderItem struct {
	ProductID int64    `json:"product_id"`
	Name      string   `json:"name"`
	Quantity  int      `json:"quantity"`
	UnitPrice int64    `json:"unit_price"`
	Product   *Product `json:"product,omitempty"`
}

// OrderStatus is a custom type for type-safe status handling.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusPaid      OrderStatus = "PAID"
	StatusShipped   OrderStatus = "SHIPPED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// Clock supplies the current time. Selectors may call it through a capture.
type Clock interface {
	Now() time.Time
	DaysAgo(days int) time.Time
}
