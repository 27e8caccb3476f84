// Package shop is the storefront state coordinator. It owns the cart
// engine, the signed-in user and the local order list, and sequences all
// interaction with the external collaborators (identity, document
// store, payment gateway, notifier).
//
// All state lives on one Shop value that pages receive by injection;
// every mutation goes through its exported operations, which are
// serialized by an internal mutex. Collaborator calls are made outside
// the lock so a slow network call never blocks unrelated reads.
package shop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/MOHD-MOMIN-TRADER/bodyrevivalBR/internal/cart"
	"github.com/MOHD-MOMIN-TRADER/bodyrevivalBR/internal/catalog"
	"github.com/MOHD-MOMIN-TRADER/bodyrevivalBR/internal/entity"
	"github.com/MOHD-MOMIN-TRADER/bodyrevivalBR/internal/identity"
	"github.com/MOHD-MOMIN-TRADER/bodyrevivalBR/internal/messaging"
	"github.com/MOHD-MOMIN-TRADER/bodyrevivalBR/internal/notify"
	"github.com/MOHD-MOMIN-TRADER/bodyrevivalBR/internal/orders"
	"github.com/MOHD-MOMIN-TRADER/bodyrevivalBR/internal/payment"
	"github.com/MOHD-MOMIN-TRADER/bodyrevivalBR/internal/store"
)

// UsersCollection is where profile documents live.
const UsersCollection = "users"

// Event topics.
const (
	TopicCartEvents   = "cart.events"
	TopicOrdersPlaced = "orders.placed"
)

// History is the local order list persistence consumed by the shop.
type History interface {
	Load(ctx context.Context) ([]entity.Order, error)
	Append(ctx context.Context, order entity.Order) error
}

// Config wires a Shop's collaborators.
type Config struct {
	Catalog   *catalog.Catalog
	Store     store.Store
	Identity  identity.Provider
	Payments  payment.Gateway
	Notifier  notify.Notifier
	History   History
	Publisher messaging.Publisher
}

// Shop is the storefront application state.
type Shop struct {
	catalog   *catalog.Catalog
	store     store.Store
	identity  identity.Provider
	payments  payment.Gateway
	notifier  notify.Notifier
	history   History
	publisher messaging.Publisher
	orderRepo *orders.Repository

	mu         sync.Mutex
	cart       *cart.Engine
	user       *entity.User
	profileRev int64
	orders     []entity.Order
	cartOpen   bool

	ready       chan struct{}
	readyOnce   sync.Once
	unsubscribe func()
}

// New builds a Shop, loads the local order history, and subscribes to
// the identity provider's session stream.
func New(ctx context.Context, cfg Config) (*Shop, error) {
	switch {
	case cfg.Catalog == nil:
		return nil, fmt.Errorf("shop requires a catalog")
	case cfg.Store == nil:
		return nil, fmt.Errorf("shop requires a document store")
	case cfg.Identity == nil:
		return nil, fmt.Errorf("shop requires an identity provider")
	case cfg.Payments == nil:
		return nil, fmt.Errorf("shop requires a payment gateway")
	case cfg.Notifier == nil:
		return nil, fmt.Errorf("shop requires a notifier")
	case cfg.History == nil:
		return nil, fmt.Errorf("shop requires an order history")
	}
	if cfg.Publisher == nil {
		cfg.Publisher = messaging.NopPublisher{}
	}

	s := &Shop{
		catalog:   cfg.Catalog,
		store:     cfg.Store,
		identity:  cfg.Identity,
		payments:  cfg.Payments,
		notifier:  cfg.Notifier,
		history:   cfg.History,
		publisher: cfg.Publisher,
		orderRepo: orders.NewRepository(cfg.Store),
		cart:      cart.New(cfg.Catalog),
		ready:     make(chan struct{}),
	}

	loaded, err := cfg.History.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load order history: %w", err)
	}
	s.orders = loaded

	s.unsubscribe = cfg.Identity.Subscribe(s.handleSession)
	return s, nil
}

// Close detaches the shop from the identity stream.
func (s *Shop) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// Ready is closed once the first session notification has been
// processed. Consumers should not render session-dependent state before
// then, or a signed-in user flashes as logged out.
func (s *Shop) Ready() <-chan struct{} { return s.ready }

// handleSession is the single source of truth for session presence.
func (s *Shop) handleSession(sess *identity.Session) {
	defer s.readyOnce.Do(func() { close(s.ready) })

	if sess == nil {
		s.mu.Lock()
		s.user = nil
		s.profileRev = 0
		s.mu.Unlock()
		slog.Info("Session ended")
		return
	}

	user := userFromSession(sess)
	rev := s.syncProfile(context.Background(), sess, user)

	s.mu.Lock()
	s.user = user
	s.profileRev = rev
	s.mu.Unlock()
	slog.Info("Session established", "uid", user.ID, "email", user.Email)
}

// profileDoc is the stored shape of a profile document.
type profileDoc struct {
	Name           string           `json:"name"`
	Email          string           `json:"email"`
	Avatar         string           `json:"avatar"`
	Role           string           `json:"role"`
	SavedAddresses []entity.Address `json:"saved_addresses"`
}

// syncProfile merges the remote profile document over the session-derived
// user, creating the document when it does not exist yet. The profile
// document wins for every field except identity. Returns the document
// revision, or zero when the store could not be reached.
func (s *Shop) syncProfile(ctx context.Context, sess *identity.Session, user *entity.User) int64 {
	doc, err := s.store.Get(ctx, UsersCollection, sess.UID)
	if err == nil {
		var p profileDoc
		if derr := store.Decode(doc.Fields, &p); derr != nil {
			slog.Error("Malformed profile document", "uid", sess.UID, "err", derr)
			return doc.Rev
		}
		if p.Name != "" {
			user.Name = p.Name
		}
		if p.Email != "" {
			user.Email = p.Email
		}
		if p.Avatar != "" {
			user.Avatar = p.Avatar
		}
		if p.Role != "" {
			user.Role = p.Role
		}
		user.SavedAddresses = p.SavedAddresses
		user.ID = sess.UID // identity always comes from the session
		return doc.Rev
	}

	if errors.Is(err, store.ErrNotFound) {
		// First sign-in on this backend: create the profile document.
		fields, eerr := store.Encode(profileDoc{
			Name:           user.Name,
			Email:          user.Email,
			Avatar:         user.Avatar,
			Role:           user.Role,
			SavedAddresses: []entity.Address{},
		})
		if eerr != nil {
			slog.Error("Failed to encode profile document", "uid", sess.UID, "err", eerr)
			return 0
		}
		rev, serr := s.store.Set(ctx, UsersCollection, sess.UID, fields, store.SetOptions{})
		if serr != nil {
			slog.Error("Failed to create profile document", "uid", sess.UID, "err", serr)
			return 0
		}
		return rev
	}

	slog.Error("Failed to fetch profile document", "uid", sess.UID, "err", err)
	return 0
}

func userFromSession(sess *identity.Session) *entity.User {
	name := sess.DisplayName
	if name == "" {
		if at := strings.IndexByte(sess.Email, '@'); at > 0 {
			name = sess.Email[:at]
		} else {
			name = "User"
		}
	}
	avatar := sess.PhotoURL
	if avatar == "" {
		avatar = fallbackAvatar(sess.Email)
	}
	return &entity.User{
		ID:             sess.UID,
		Name:           name,
		Email:          sess.Email,
		Role:           "user",
		Avatar:         avatar,
		SavedAddresses: []entity.Address{},
	}
}

// fallbackAvatar derives a deterministic avatar URL from the email.
func fallbackAvatar(email string) string {
	return "https://api.dicebear.com/7.x/avataaars/svg?seed=" + email
}

// --- Cart operations ---

// Totals are the derived cart amounts.
type Totals struct {
	Subtotal   int64 `json:"subtotal"`
	Discount   int64 `json:"discount"`
	FinalTotal int64 `json:"final_total"`
}

// AddToCart resolves the variant against the catalog and merges it into
// the cart, then signals the cart panel to open.
func (s *Shop) AddToCart(ctx context.Context, productID, variantWeight string, qty int) error {
	product, variant, ok := s.catalog.VariantOf(productID, variantWeight)
	if !ok {
		return validationError("unknown product variant %s/%s", productID, variantWeight)
	}

	s.mu.Lock()
	if err := s.cart.AddItem(product, variant, qty); err != nil {
		s.mu.Unlock()
		return validationError("%v", err)
	}
	s.cartOpen = true
	s.mu.Unlock()

	s.publish(ctx, TopicCartEvents, productID, entity.ItemAddedToCart{
		ProductID:     productID,
		VariantWeight: variantWeight,
		Quantity:      qty,
		Price:         variant.Price,
	})
	return nil
}

// RemoveFromCart deletes a cart line; absence is a no-op.
func (s *Shop) RemoveFromCart(ctx context.Context, productID, variantWeight string) {
	s.mu.Lock()
	s.cart.RemoveItem(productID, variantWeight)
	s.mu.Unlock()

	s.publish(ctx, TopicCartEvents, productID, entity.ItemRemovedFromCart{
		ProductID:     productID,
		VariantWeight: variantWeight,
	})
}

// UpdateQuantity adjusts a line by delta with a silent floor of 1.
func (s *Shop) UpdateQuantity(productID, variantWeight string, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.UpdateQuantity(productID, variantWeight, delta)
}

// ClearCart empties the cart and drops the applied coupon.
func (s *Shop) ClearCart(ctx context.Context) {
	s.mu.Lock()
	s.cart.Clear()
	s.mu.Unlock()

	s.publish(ctx, TopicCartEvents, "cart", entity.CartCleared{Reason: "user"})
}

// ApplyCoupon validates and applies a coupon code.
func (s *Shop) ApplyCoupon(ctx context.Context, code string) cart.ApplyResult {
	s.mu.Lock()
	res := s.cart.ApplyCoupon(code)
	s.mu.Unlock()

	if res.OK {
		s.publish(ctx, TopicCartEvents, code, entity.CouponApplied{Code: code})
	}
	return res
}

// RemoveCoupon clears the applied coupon.
func (s *Shop) RemoveCoupon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.RemoveCoupon()
}

// CartItems returns the cart lines in insertion order.
func (s *Shop) CartItems() []entity.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Items()
}

// AppliedCoupon returns the active coupon, or nil.
func (s *Shop) AppliedCoupon() *entity.Coupon {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.AppliedCoupon()
}

// CartTotals returns the derived amounts for the current cart.
func (s *Shop) CartTotals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Totals{
		Subtotal:   s.cart.Subtotal(),
		Discount:   s.cart.Discount(),
		FinalTotal: s.cart.FinalTotal(),
	}
}

// CartOpen reports whether the cart panel should be showing.
func (s *Shop) CartOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cartOpen
}

// SetCartOpen overrides the cart panel state.
func (s *Shop) SetCartOpen(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cartOpen = open
}

// --- Read accessors ---

// User returns a copy of the signed-in user, or nil.
func (s *Shop) User() *entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyUser(s.user)
}

// Orders returns the local order history, newest first.
func (s *Shop) Orders() []entity.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.Order, len(s.orders))
	copy(out, s.orders)
	return out
}

// Products returns the product catalog.
func (s *Shop) Products() []entity.Product { return s.catalog.Products() }

// Coupons returns the coupon catalog.
func (s *Shop) Coupons() []entity.Coupon { return s.catalog.Coupons() }

// publish emits a domain event. Event delivery is advisory; failures are
// logged and never fail the triggering operation.
func (s *Shop) publish(ctx context.Context, topic, key string, event entity.Event) {
	if err := s.publisher.PublishEvent(ctx, topic, key, event); err != nil {
		slog.Error("Failed to publish event", "topic", topic, "type", event.EventType(), "err", err)
	}
}

func copyUser(u *entity.User) *entity.User {
	if u == nil {
		return nil
	}
	out := *u
	out.SavedAddresses = make([]entity.Address, len(u.SavedAddresses))
	copy(out.SavedAddresses, u.SavedAddresses)
	return &out
}
