// Package cart implements the in-memory shopping cart and coupon engine.
//
// The engine is a plain state machine over an ordered item list: callers
// are expected to serialize access (the shop coordinator does). Totals
// are derived on every call and never cached.
package cart

import (
	"fmt"

	"github.com/MOHD-MOMIN-TRADER/bodyrevivalBR/internal/entity"
)

// CouponSource resolves coupon codes against the catalog.
type CouponSource interface {
	CouponByCode(code string) (entity.Coupon, bool)
}

// ApplyResult is the structured outcome of a coupon application. Invalid
// codes are a validation outcome, not an error.
type ApplyResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Engine holds the mutable cart state for one session.
type Engine struct {
	coupons CouponSource
	items   []entity.CartItem
	applied *entity.Coupon
}

// New creates an empty cart engine resolving coupons from src.
func New(src CouponSource) *Engine {
	return &Engine{coupons: src}
}

// AddItem merges a product variant into the cart. An existing
// (productID, variantWeight) line has its quantity incremented; otherwise
// a new line is appended with a denormalized name/price/image snapshot.
func (e *Engine) AddItem(product entity.Product, variant entity.Variant, qty int) error {
	if qty < 1 {
		return fmt.Errorf("quantity must be a positive integer, got %d", qty)
	}

	for i := range e.items {
		if e.items[i].ProductID == product.ID && e.items[i].VariantWeight == variant.Weight {
			e.items[i].Quantity += qty
			return nil
		}
	}

	e.items = append(e.items, entity.CartItem{
		ProductID:     product.ID,
		VariantWeight: variant.Weight,
		Quantity:      qty,
		Name:          product.Name,
		Price:         variant.Price,
		Image:         product.Image,
	})
	return nil
}

// RemoveItem deletes the matching line. Absence is a no-op.
func (e *Engine) RemoveItem(productID, variantWeight string) {
	for i := range e.items {
		if e.items[i].ProductID == productID && e.items[i].VariantWeight == variantWeight {
			e.items = append(e.items[:i], e.items[i+1:]...)
			return
		}
	}
}

// UpdateQuantity adjusts a line's quantity by delta, which may be
// negative. A result below 1 leaves the line unchanged; the floor is a
// silent clamp, removal is a separate explicit operation.
func (e *Engine) UpdateQuantity(productID, variantWeight string, delta int) {
	for i := range e.items {
		if e.items[i].ProductID == productID && e.items[i].VariantWeight == variantWeight {
			if newQty := e.items[i].Quantity + delta; newQty >= 1 {
				e.items[i].Quantity = newQty
			}
			return
		}
	}
}

// Clear empties the cart and drops any applied coupon.
func (e *Engine) Clear() {
	e.items = nil
	e.applied = nil
}

// ApplyCoupon validates a code against the catalog. On success the coupon
// replaces any previously applied one; on failure the prior selection is
// left untouched.
func (e *Engine) ApplyCoupon(code string) ApplyResult {
	coupon, ok := e.coupons.CouponByCode(code)
	if !ok {
		return ApplyResult{OK: false, Message: "Invalid coupon code"}
	}
	if coupon.MinOrderValue > 0 && e.Subtotal() < coupon.MinOrderValue {
		return ApplyResult{OK: false, Message: fmt.Sprintf("Minimum order value ₹%d required", coupon.MinOrderValue)}
	}
	e.applied = &coupon
	return ApplyResult{OK: true, Message: "Coupon applied successfully!"}
}

// RemoveCoupon clears the applied coupon unconditionally.
func (e *Engine) RemoveCoupon() {
	e.applied = nil
}

// Items returns a copy of the cart lines in insertion order.
func (e *Engine) Items() []entity.CartItem {
	out := make([]entity.CartItem, len(e.items))
	copy(out, e.items)
	return out
}

// Len returns the number of distinct lines in the cart.
func (e *Engine) Len() int { return len(e.items) }

// IsEmpty reports whether the cart has no lines.
func (e *Engine) IsEmpty() bool { return len(e.items) == 0 }

// AppliedCoupon returns the active coupon, or nil.
func (e *Engine) AppliedCoupon() *entity.Coupon {
	if e.applied == nil {
		return nil
	}
	c := *e.applied
	return &c
}

// Subtotal is the sum of price*quantity over all lines.
func (e *Engine) Subtotal() int64 {
	var total int64
	for _, item := range e.items {
		total += item.Price * int64(item.Quantity)
	}
	return total
}

// Discount is the amount the applied coupon takes off the subtotal.
// Percentage coupons derive from the subtotal; fixed coupons are taken at
// face value even when they exceed it (the final total clamps at zero).
func (e *Engine) Discount() int64 {
	if e.applied == nil {
		return 0
	}
	switch e.applied.DiscountType {
	case entity.CouponPercentage:
		return e.Subtotal() * e.applied.Value / 100
	default:
		return e.applied.Value
	}
}

// FinalTotal is the subtotal less the discount, floored at zero.
func (e *Engine) FinalTotal() int64 {
	if total := e.Subtotal() - e.Discount(); total > 0 {
		return total
	}
	return 0
}
