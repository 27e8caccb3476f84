package shop

import (
	"context"
	"log/slog"
	"time"

	"github.com/MOHD-MOMIN-TRADER/bodyrevivalBR/internal/entity"
	"github.com/MOHD-MOMIN-TRADER/bodyrevivalBR/internal/orders"
)

// PlacementState tracks the steps of one order placement attempt.
type PlacementState string

const (
	StateIdle       PlacementState = "IDLE"
	StatePayment    PlacementState = "PAYMENT_PENDING"
	StatePersisting PlacementState = "PERSISTING"
	StateNotifying  PlacementState = "NOTIFYING_CUSTOMER"
	StateCompleted  PlacementState = "COMPLETED"
	StateFailed     PlacementState = "FAILED"
)

// CustomerDetails is the shipping and contact form captured at checkout.
type CustomerDetails struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	Pincode   string `json:"pincode"`
}

// PlaceOrder runs one placement attempt: charge, persist, notify, then
// fold the order into local state. Payment and persistence failures are
// fatal and leave the cart untouched so the user can retry; notification
// failure is swallowed because the order already exists. On success the
// order is prepended to the local history, the cart is cleared and the
// customer-facing order id is returned.
func (s *Shop) PlaceOrder(ctx context.Context, details CustomerDetails, paymentMethod string) (string, error) {
	// Snapshot everything under the lock; later cart mutations must not
	// leak into this order.
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return "", notAuthenticated()
	}
	if s.cart.IsEmpty() {
		s.mu.Unlock()
		return "", validationError("cart is empty")
	}
	user := *s.user
	items := s.cart.Items()
	subtotal := s.cart.Subtotal()
	finalTotal := s.cart.FinalTotal()
	var couponCode string
	if c := s.cart.AppliedCoupon(); c != nil {
		couponCode = c.Code
	}
	s.mu.Unlock()

	state := StateIdle
	transition := func(next PlacementState) {
		slog.Info("Order placement", "from", state, "to", next)
		state = next
	}
	fail := func(code ErrorCode, msg string, err error) (string, error) {
		failed := state
		transition(StateFailed)
		return "", &Error{Code: code, Stage: failed, Message: msg, Err: err}
	}

	// Step 1: payment. A simulated gateway today, but the outcome
	// contract is kept so a real processor slots in.
	transition(StatePayment)
	outcome, err := s.payments.Charge(ctx, finalTotal, paymentMethod)
	if err != nil {
		return fail(ErrCodePaymentDeclined, "payment failed", err)
	}
	if !outcome.Approved {
		return fail(ErrCodePaymentDeclined, "payment was not approved", nil)
	}

	// Step 2: persist. Fatal on failure, no retry; the collaborator's
	// diagnostic is surfaced as-is.
	transition(StatePersisting)
	orderID, docRef, err := s.orderRepo.Save(ctx, orders.Placement{
		Customer: orders.CustomerSnapshot{
			UID:       user.ID,
			FirstName: details.FirstName,
			LastName:  details.LastName,
			Email:     details.Email,
			Phone:     details.Phone,
			Address:   details.Address,
			City:      details.City,
			Pincode:   details.Pincode,
		},
		Items:         items,
		Subtotal:      subtotal,
		Shipping:      0,
		Coupon:        couponCode,
		Total:         finalTotal,
		PaymentMethod: paymentMethod,
	})
	if err != nil {
		return fail(ErrCodeOrderPersistFailed, "failed to save order", err)
	}

	order := entity.Order{
		ID:           orderID,
		CustomerName: details.FirstName + " " + details.LastName,
		Total:        finalTotal,
		Status:       entity.OrderProcessing,
		Date:         time.Now().Format("2006-01-02"),
		Items:        items,
	}

	// Step 3: notify, best-effort. The order is already persisted, so a
	// failed email must not roll anything back.
	transition(StateNotifying)
	email := details.Email
	if email == "" {
		email = user.Email
	}
	if err := s.notifier.SendOrderConfirmation(ctx, email, order); err != nil {
		slog.Error("Failed to send order confirmation", "order_id", orderID, "err", err)
	}

	// Step 4: fold into local state.
	s.mu.Lock()
	s.orders = append([]entity.Order{order}, s.orders...)
	s.cart.Clear()
	s.mu.Unlock()

	// The local history file is a cache; a failed write only costs the
	// offline fallback, the order itself is safe in the store.
	if err := s.history.Append(ctx, order); err != nil {
		slog.Error("Failed to persist order history", "order_id", orderID, "err", err)
	}

	s.publish(ctx, TopicOrdersPlaced, orderID, entity.OrderPlaced{
		OrderID:  orderID,
		Items:    items,
		Total:    finalTotal,
		PlacedAt: time.Now(),
	})
	s.publish(ctx, TopicCartEvents, "cart", entity.CartCleared{Reason: "order"})

	transition(StateCompleted)
	slog.Info("Order placed", "order_id", orderID, "doc_ref", docRef, "total", finalTotal)
	return orderID, nil
}
