// Package orders writes order documents to the backing store. The store
// generates the internal document ref; this package generates the
// customer-facing order id used everywhere in the UI and local history.
package orders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MOHD-MOMIN-TRADER/bodyrevivalBR/internal/entity"
	"github.com/MOHD-MOMIN-TRADER/bodyrevivalBR/internal/store"
)

// Collection is where order documents live.
const Collection = "orders"

// CustomerSnapshot is the identity and shipping contact captured on the
// order at placement time.
type CustomerSnapshot struct {
	UID       string `json:"uid"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	Pincode   string `json:"pincode"`
}

// Placement is the full order-write payload.
type Placement struct {
	Customer      CustomerSnapshot  `json:"user"`
	Items         []entity.CartItem `json:"items"`
	Subtotal      int64             `json:"subtotal"`
	Shipping      int64             `json:"shipping"`
	Coupon        string            `json:"coupon,omitempty"`
	Total         int64             `json:"total"`
	PaymentMethod string            `json:"payment_method"`
	Note          string            `json:"note,omitempty"`
}

// Repository persists placements.
type Repository struct {
	store store.Store

	// overridable in tests
	now       func() time.Time
	newSuffix func() string
}

// NewRepository creates a repository over the given store.
func NewRepository(s store.Store) *Repository {
	return &Repository{
		store:     s,
		now:       time.Now,
		newSuffix: func() string { return uuid.NewString()[:8] },
	}
}

// Save validates and writes one order document. It returns the
// customer-facing order id and the store-generated doc ref.
func (r *Repository) Save(ctx context.Context, p Placement) (orderID, docRef string, err error) {
	if p.Customer.UID == "" {
		return "", "", fmt.Errorf("placement has no customer identity")
	}
	if len(p.Items) == 0 {
		return "", "", fmt.Errorf("placement has no items")
	}

	now := r.now()
	orderID = fmt.Sprintf("BR%d-%s", now.UnixMilli(), r.newSuffix())

	fields, err := store.Encode(p)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode order: %w", err)
	}
	fields["id"] = orderID
	fields["status"] = string(entity.OrderPending)
	fields["created_at"] = now.UTC().Format(time.RFC3339)

	docRef, err = r.store.Add(ctx, Collection, fields)
	if err != nil {
		return "", "", fmt.Errorf("failed to save order: %w", err)
	}

	slog.Info("Order saved", "order_id", orderID, "doc_ref", docRef, "total", p.Total)
	return orderID, docRef, nil
}
