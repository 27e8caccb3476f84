// Package payment defines the payment gateway collaborator. The current
// gateway is a timed simulation, but the contract carries the failure
// path so a real processor can be substituted.
package payment

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Outcome is the result of a charge attempt.
type Outcome struct {
	Approved  bool
	Reference string
}

// Gateway charges an amount via a payment method.
type Gateway interface {
	Charge(ctx context.Context, amount int64, method string) (Outcome, error)
}

// Simulated approves every charge after a fixed delay.
type Simulated struct {
	Delay time.Duration
}

// NewSimulated returns a gateway with the default round-trip delay.
func NewSimulated() *Simulated {
	return &Simulated{Delay: 1500 * time.Millisecond}
}

func (g *Simulated) Charge(ctx context.Context, amount int64, method string) (Outcome, error) {
	slog.Info("Processing payment", "amount", amount, "method", method)

	if g.Delay > 0 {
		select {
		case <-time.After(g.Delay):
		case <-ctx.Done():
			return Outcome{}, ctx.Err()
		}
	}

	return Outcome{Approved: true, Reference: "PAY-" + uuid.NewString()}, nil
}
