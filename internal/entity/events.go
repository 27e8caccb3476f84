package entity

import "time"

// Event represents a domain event emitted by the storefront.
type Event interface {
	EventType() string
}

// ItemAddedToCart is emitted when a user drops an item into their cart.
// Consumers use it to surface the cart panel after an add.
type ItemAddedToCart struct {
	ProductID     string `json:"product_id"`
	VariantWeight string `json:"variant_weight"`
	Quantity      int    `json:"quantity"`
	Price         int64  `json:"price"`
}

func (e ItemAddedToCart) EventType() string { return "ItemAddedToCart" }

// ItemRemovedFromCart is emitted when a line is removed from the cart.
type ItemRemovedFromCart struct {
	ProductID     string `json:"product_id"`
	VariantWeight string `json:"variant_weight"`
}

func (e ItemRemovedFromCart) EventType() string { return "ItemRemovedFromCart" }

// CartCleared is emitted when the cart is emptied, either explicitly or
// after a successful order.
type CartCleared struct {
	Reason string `json:"reason"` // "user", "logout", "order"
}

func (e CartCleared) EventType() string { return "CartCleared" }

// CouponApplied is emitted when a coupon passes validation and becomes
// the active discount.
type CouponApplied struct {
	Code string `json:"code"`
}

func (e CouponApplied) EventType() string { return "CouponApplied" }

// OrderPlaced is emitted after an order has been persisted.
type OrderPlaced struct {
	OrderID  string     `json:"order_id"`
	Items    []CartItem `json:"items"`
	Total    int64      `json:"total"`
	PlacedAt time.Time  `json:"placed_at"`
}

func (e OrderPlaced) EventType() string { return "OrderPlaced" }
