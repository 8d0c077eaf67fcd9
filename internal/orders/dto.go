// Package orders turns carts into per-vendor delivery orders and tracks their status.
package orders

import (
	"time"

	"github.com/angelmondragon/aquadrop/pkg/enums"
)

// Item is a cart line frozen into an order.
type Item struct {
	ProductID string  `json:"product_id" firestore:"productId"`
	Name      string  `json:"name" firestore:"name"`
	Price     float64 `json:"price" firestore:"price"`
	Quantity  int     `json:"quantity" firestore:"quantity"`
	LineTotal float64 `json:"line_total" firestore:"lineTotal"`
}

// Order is one vendor's share of a checkout.
type Order struct {
	ID              string            `json:"id" firestore:"-"`
	CheckoutID      string            `json:"checkout_id" firestore:"checkoutId"`
	CustomerID      string            `json:"customer_id" firestore:"userId"`
	CustomerEmail   string            `json:"customer_email,omitempty" firestore:"userEmail,omitempty"`
	VendorID        string            `json:"vendor_id" firestore:"vendorId"`
	Items           []Item            `json:"items" firestore:"items"`
	TotalAmount     float64           `json:"total_amount" firestore:"totalAmount"`
	Status          enums.OrderStatus `json:"status" firestore:"status"`
	DeliveryAddress string            `json:"delivery_address" firestore:"deliveryAddress"`
	CreatedAt       time.Time         `json:"created_at" firestore:"createdAt"`
	UpdatedAt       time.Time         `json:"updated_at" firestore:"updatedAt"`
}

// PlaceOrderInput carries checkout details supplied by the shopper.
type PlaceOrderInput struct {
	DeliveryAddress string `json:"delivery_address" validate:"required,max=500"`
}

// StatusInput is a vendor's status change request.
type StatusInput struct {
	Status string `json:"status" validate:"required"`
}

// OrderPlacedEvent is published for every order created by a checkout.
type OrderPlacedEvent struct {
	OrderID     string    `json:"order_id"`
	CheckoutID  string    `json:"checkout_id"`
	VendorID    string    `json:"vendor_id"`
	CustomerID  string    `json:"customer_id"`
	TotalAmount float64   `json:"total_amount"`
	ItemCount   int       `json:"item_count"`
	PlacedAt    time.Time `json:"placed_at"`
}

// StatusChangedEvent is published when a vendor moves an order forward.
type StatusChangedEvent struct {
	OrderID  string            `json:"order_id"`
	VendorID string            `json:"vendor_id"`
	From     enums.OrderStatus `json:"from"`
	To       enums.OrderStatus `json:"to"`
}

// Suggestion is a dashboard hint for a vendor.
type Suggestion struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Action  string `json:"action"`
}

// Dashboard aggregates what a vendor sees on login.
type Dashboard struct {
	OrderCount  int          `json:"order_count"`
	Revenue     float64      `json:"revenue"`
	Orders      []Order      `json:"orders"`
	Suggestions []Suggestion `json:"suggestions"`
	LowStock    int          `json:"low_stock_count"`
	Products    int          `json:"product_count"`
}
