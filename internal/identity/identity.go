// Package identity defines the authentication collaborator contract.
// The storefront never implements the auth protocol itself; it consumes
// sessions from a provider and subscribes to session changes.
package identity

import "context"

// Session is the basic claim set of a signed-in user.
type Session struct {
	UID         string
	DisplayName string
	Email       string
	PhotoURL    string
}

// Handler receives session change notifications. A nil session means
// signed out. The handler is invoked once immediately on subscribe with
// the current state, then on every change.
type Handler func(s *Session)

// Provider is the identity collaborator contract.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context) error
	SendPasswordReset(ctx context.Context, email string) error
	UpdateDisplayName(ctx context.Context, name string) error

	// Subscribe registers a session-change handler and returns an
	// unsubscribe function.
	Subscribe(h Handler) (unsubscribe func())
}
