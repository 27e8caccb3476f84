// Package notify sends transactional customer notifications. Delivery
// is best-effort by contract: callers must not treat a failed
// notification as fatal.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"text/template"
	"time"

	"github.com/MOHD-MOMIN-TRADER/bodyrevivalBR/internal/entity"
)

// Notifier delivers order confirmations.
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, email string, order entity.Order) error
}

const confirmationTemplate = `Subject: Order Confirmation #{{.Order.ID}} - Body Revival BR
To: {{.Email}}

Hi {{.Order.CustomerName}},

Thank you for choosing Body Revival BR! We are getting your fuel ready.

ORDER SUMMARY
Order ID: {{.Order.ID}}
Date: {{.Order.Date}}
Status: {{.Order.Status}}
--------------------------------------------------
{{range .Order.Items}}{{.Name}} ({{.VariantWeight}}) x{{.Quantity}} @ ₹{{.Price}}
{{end}}--------------------------------------------------
TOTAL AMOUNT: ₹{{.Order.Total}}
--------------------------------------------------
You will receive another email when your order ships.

Stay Strong,
Team Body Revival
`

var confirmation = template.Must(template.New("confirmation").Parse(confirmationTemplate))

// RenderConfirmation produces the plaintext body of a confirmation email.
func RenderConfirmation(email string, order entity.Order) (string, error) {
	var buf bytes.Buffer
	err := confirmation.Execute(&buf, struct {
		Email string
		Order entity.Order
	}{Email: email, Order: order})
	if err != nil {
		return "", fmt.Errorf("failed to render confirmation email: %w", err)
	}
	return buf.String(), nil
}

// Log renders confirmations and writes them to the log instead of a
// real mail service.
type Log struct {
	Delay time.Duration
}

// NewLog returns a log-backed notifier with the default delivery delay.
func NewLog() *Log {
	return &Log{Delay: 800 * time.Millisecond}
}

func (n *Log) SendOrderConfirmation(ctx context.Context, email string, order entity.Order) error {
	body, err := RenderConfirmation(email, order)
	if err != nil {
		return err
	}

	if n.Delay > 0 {
		select {
		case <-time.After(n.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	slog.Info("Sending order confirmation email", "to", email, "order_id", order.ID)
	slog.Debug("Email body", "body", body)
	return nil
}
