package shop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/MOHD-MOMIN-TRADER/bodyrevivalBR/internal/contact"
	"github.com/MOHD-MOMIN-TRADER/bodyrevivalBR/internal/entity"
	"github.com/MOHD-MOMIN-TRADER/bodyrevivalBR/internal/store"
)

// Login authenticates against the identity provider. Local state is
// updated through the session subscription, not here.
func (s *Shop) Login(ctx context.Context, email, password string) error {
	_, err := s.identity.SignIn(ctx, email, password)
	return err
}

// Signup registers a new account, sets the display name and creates the
// profile document. The session subscription fires during SignUp with
// the bare claims, so the local user is patched immediately afterwards
// rather than waiting for the next notification.
func (s *Shop) Signup(ctx context.Context, email, password, name string) error {
	sess, err := s.identity.SignUp(ctx, email, password)
	if err != nil {
		return err
	}
	if err := s.identity.UpdateDisplayName(ctx, name); err != nil {
		slog.Error("Failed to set display name", "uid", sess.UID, "err", err)
	}

	fields, err := store.Encode(profileDoc{
		Name:           name,
		Email:          email,
		Avatar:         fallbackAvatar(email),
		Role:           "user",
		SavedAddresses: []entity.Address{},
	})
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	rev, err := s.store.Set(ctx, UsersCollection, sess.UID, fields, store.SetOptions{})
	if err != nil {
		slog.Error("Failed to create profile document", "uid", sess.UID, "err", err)
	}

	s.mu.Lock()
	if s.user != nil && s.user.ID == sess.UID {
		s.user.Name = name
		if rev != 0 {
			s.profileRev = rev
		}
	}
	s.mu.Unlock()
	return nil
}

// Logout signs out and empties the cart. A returning user starts with a
// fresh cart rather than the previous visitor's.
func (s *Shop) Logout(ctx context.Context) error {
	if err := s.identity.SignOut(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.cart.Clear()
	s.mu.Unlock()

	s.publish(ctx, TopicCartEvents, "cart", entity.CartCleared{Reason: "logout"})
	return nil
}

// ResetPassword asks the identity provider to send a reset email.
func (s *Shop) ResetPassword(ctx context.Context, email string) error {
	return s.identity.SendPasswordReset(ctx, email)
}

// SaveAddress inserts or replaces a saved address on the signed-in
// user's profile. An address with an ID replaces the matching entry; a
// blank ID gets a generated one and is appended. The local copy is
// updated optimistically, then the full list is written back as a
// versioned merge so a concurrent writer is detected instead of
// clobbered.
func (s *Shop) SaveAddress(ctx context.Context, addr entity.Address) (entity.Address, error) {
	if strings.TrimSpace(addr.FirstName) == "" || strings.TrimSpace(addr.Address) == "" {
		return entity.Address{}, validationError("address needs a name and a street address")
	}

	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return entity.Address{}, notAuthenticated()
	}
	if addr.ID == "" {
		addr.ID = "addr-" + uuid.NewString()
		s.user.SavedAddresses = append(s.user.SavedAddresses, addr)
	} else {
		replaced := false
		for i := range s.user.SavedAddresses {
			if s.user.SavedAddresses[i].ID == addr.ID {
				s.user.SavedAddresses[i] = addr
				replaced = true
				break
			}
		}
		if !replaced {
			s.mu.Unlock()
			return entity.Address{}, validationError("unknown address id %s", addr.ID)
		}
	}
	uid := s.user.ID
	rev := s.profileRev
	list := make([]entity.Address, len(s.user.SavedAddresses))
	copy(list, s.user.SavedAddresses)
	s.mu.Unlock()

	if err := s.writeAddresses(ctx, uid, rev, list); err != nil {
		return entity.Address{}, err
	}
	return addr, nil
}

// RemoveAddress deletes a saved address by id. Removing an unknown id is
// a no-op that still succeeds.
func (s *Shop) RemoveAddress(ctx context.Context, id string) error {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return notAuthenticated()
	}
	kept := s.user.SavedAddresses[:0]
	for _, a := range s.user.SavedAddresses {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	s.user.SavedAddresses = kept
	uid := s.user.ID
	rev := s.profileRev
	list := make([]entity.Address, len(kept))
	copy(list, kept)
	s.mu.Unlock()

	return s.writeAddresses(ctx, uid, rev, list)
}

// writeAddresses merge-writes the full address list against the
// expected profile revision and records the new revision on success.
func (s *Shop) writeAddresses(ctx context.Context, uid string, rev int64, list []entity.Address) error {
	fields := store.Fields{"saved_addresses": list}
	newRev, err := s.store.Set(ctx, UsersCollection, uid, fields, store.SetOptions{
		Merge:       true,
		ExpectedRev: rev,
	})
	if err != nil {
		if errors.Is(err, store.ErrRevisionConflict) {
			return &Error{Code: ErrCodeRevisionConflict, Message: "profile was changed elsewhere, reload and retry", Err: err}
		}
		return &Error{Code: ErrCodeProfileSyncFailed, Message: "failed to save addresses", Err: err}
	}

	s.mu.Lock()
	if s.user != nil && s.user.ID == uid {
		s.profileRev = newRev
	}
	s.mu.Unlock()
	return nil
}

// UpdateProfile changes the signed-in user's display name on both the
// identity provider and the profile document.
func (s *Shop) UpdateProfile(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return validationError("name must not be empty")
	}

	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return notAuthenticated()
	}
	uid := s.user.ID
	rev := s.profileRev
	s.mu.Unlock()

	if err := s.identity.UpdateDisplayName(ctx, name); err != nil {
		return err
	}

	newRev, err := s.store.Set(ctx, UsersCollection, uid, store.Fields{"name": name}, store.SetOptions{
		Merge:       true,
		ExpectedRev: rev,
	})
	if err != nil {
		if errors.Is(err, store.ErrRevisionConflict) {
			return &Error{Code: ErrCodeRevisionConflict, Message: "profile was changed elsewhere, reload and retry", Err: err}
		}
		return &Error{Code: ErrCodeProfileSyncFailed, Message: "failed to update profile", Err: err}
	}

	s.mu.Lock()
	if s.user != nil && s.user.ID == uid {
		s.user.Name = name
		s.profileRev = newRev
	}
	s.mu.Unlock()
	return nil
}

// SendContactMessage stores a contact-form submission.
func (s *Shop) SendContactMessage(ctx context.Context, msg contact.Message) error {
	if strings.TrimSpace(msg.Name) == "" || strings.TrimSpace(msg.Email) == "" || strings.TrimSpace(msg.Message) == "" {
		return validationError("contact message needs a name, an email and a message body")
	}
	if _, err := contact.Save(ctx, s.store, msg); err != nil {
		return err
	}
	return nil
}
