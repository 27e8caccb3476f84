// Package contact persists contact-form submissions.
package contact

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MOHD-MOMIN-TRADER/bodyrevivalBR/internal/store"
)

// Collection is where contact messages live.
const Collection = "contactMessages"

// Message is one contact-form submission.
type Message struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Save validates and stores a message, returning the generated doc ref.
func Save(ctx context.Context, s store.Store, msg Message) (string, error) {
	if strings.TrimSpace(msg.Name) == "" {
		return "", fmt.Errorf("contact message requires a name")
	}
	if strings.TrimSpace(msg.Email) == "" {
		return "", fmt.Errorf("contact message requires an email")
	}
	if strings.TrimSpace(msg.Message) == "" {
		return "", fmt.Errorf("contact message requires a message body")
	}

	fields, err := store.Encode(msg)
	if err != nil {
		return "", fmt.Errorf("failed to encode contact message: %w", err)
	}
	fields["status"] = "new"
	fields["created_at"] = time.Now().UTC().Format(time.RFC3339)

	ref, err := s.Add(ctx, Collection, fields)
	if err != nil {
		return "", fmt.Errorf("failed to save contact message: %w", err)
	}

	slog.Info("Contact message saved", "doc_ref", ref, "subject", msg.Subject)
	return ref, nil
}
