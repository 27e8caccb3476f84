package shop

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MOHD-MOMIN-TRADER/bodyrevivalBR/internal/catalog"
	"github.com/MOHD-MOMIN-TRADER/bodyrevivalBR/internal/contact"
	"github.com/MOHD-MOMIN-TRADER/bodyrevivalBR/internal/entity"
	"github.com/MOHD-MOMIN-TRADER/bodyrevivalBR/internal/identity"
	"github.com/MOHD-MOMIN-TRADER/bodyrevivalBR/internal/identity/local"
	"github.com/MOHD-MOMIN-TRADER/bodyrevivalBR/internal/orders"
	"github.com/MOHD-MOMIN-TRADER/bodyrevivalBR/internal/payment"
	"github.com/MOHD-MOMIN-TRADER/bodyrevivalBR/internal/store"
)

// fakeGateway approves or declines without any delay.
type fakeGateway struct {
	decline bool
	fail    error
	charged []int64
}

func (g *fakeGateway) Charge(ctx context.Context, amount int64, method string) (payment.Outcome, error) {
	if g.fail != nil {
		return payment.Outcome{}, g.fail
	}
	g.charged = append(g.charged, amount)
	return payment.Outcome{Approved: !g.decline, Reference: "PAY-test"}, nil
}

// recordingNotifier captures confirmations instead of sending them.
type recordingNotifier struct {
	mu     sync.Mutex
	fail   error
	emails []string
	orders []entity.Order
}

func (n *recordingNotifier) SendOrderConfirmation(ctx context.Context, email string, order entity.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail != nil {
		return n.fail
	}
	n.emails = append(n.emails, email)
	n.orders = append(n.orders, order)
	return nil
}

// memHistory is an in-memory History.
type memHistory struct {
	mu       sync.Mutex
	appended []entity.Order
	seed     []entity.Order
}

func (h *memHistory) Load(ctx context.Context) ([]entity.Order, error) {
	return append([]entity.Order{}, h.seed...), nil
}

func (h *memHistory) Append(ctx context.Context, order entity.Order) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.appended = append(h.appended, order)
	return nil
}

// failingStore wraps a store and fails Add, to simulate an unreachable
// backend at order-write time.
type failingStore struct {
	store.Store
}

func (f failingStore) Add(ctx context.Context, collection string, fields store.Fields) (string, error) {
	return "", errors.New("backend unavailable")
}

type fixture struct {
	shop     *Shop
	store    *store.Memory
	identity *local.Provider
	gateway  *fakeGateway
	notifier *recordingNotifier
	history  *memHistory
}

func newFixture(t *testing.T, mutate func(cfg *Config)) *fixture {
	t.Helper()

	cat, err := catalog.Load()
	require.NoError(t, err)

	f := &fixture{
		store:    store.NewMemory(),
		identity: local.New([]byte("test-secret")),
		gateway:  &fakeGateway{},
		notifier: &recordingNotifier{},
		history:  &memHistory{},
	}
	cfg := Config{
		Catalog:  cat,
		Store:    f.store,
		Identity: f.identity,
		Payments: f.gateway,
		Notifier: f.notifier,
		History:  f.history,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	s, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	<-s.Ready()
	f.shop = s
	return f
}

func signIn(t *testing.T, f *fixture) {
	t.Helper()
	require.NoError(t, f.shop.Signup(context.Background(), "arjun@example.com", "secret123", "Arjun Verma"))
	u := f.shop.User()
	require.NotNil(t, u)
	require.Equal(t, "Arjun Verma", u.Name)
}

func TestAddToCartAndTotals(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.shop.AddToCart(ctx, "p1", "500g", 2))
	require.NoError(t, f.shop.AddToCart(ctx, "p1", "500g", 1))
	require.NoError(t, f.shop.AddToCart(ctx, "p2", "500g", 1))

	items := f.shop.CartItems()
	require.Len(t, items, 2)
	assert.Equal(t, 3, items[0].Quantity)

	totals := f.shop.CartTotals()
	assert.Equal(t, int64(3*262+349), totals.Subtotal)
	assert.True(t, f.shop.CartOpen())

	err := f.shop.AddToCart(ctx, "p1", "10kg", 1)
	assert.Equal(t, ErrCodeValidation, CodeOf(err))
}

func TestApplyCouponThroughShop(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.shop.AddToCart(ctx, "p2", "1kg", 1)) // 599

	res := f.shop.ApplyCoupon(ctx, "WELCOME20")
	assert.True(t, res.OK)

	totals := f.shop.CartTotals()
	assert.Equal(t, int64(599), totals.Subtotal)
	assert.Equal(t, int64(119), totals.Discount) // 599*20/100 truncated
	assert.Equal(t, int64(480), totals.FinalTotal)
}

func TestPlaceOrderRequiresSession(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.shop.AddToCart(ctx, "p1", "500g", 1))

	_, err := f.shop.PlaceOrder(ctx, CustomerDetails{FirstName: "A"}, "UPI/QR")
	assert.Equal(t, ErrCodeNotAuthenticated, CodeOf(err))
	// Nothing left the process.
	assert.Empty(t, f.gateway.charged)
	assert.Equal(t, 0, f.store.Len(orders.Collection))
}

func TestPlaceOrderSuccess(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	signIn(t, f)

	require.NoError(t, f.shop.AddToCart(ctx, "p1", "500g", 2)) // 524
	require.NoError(t, f.shop.AddToCart(ctx, "p3", "500g", 1)) // 299
	res := f.shop.ApplyCoupon(ctx, "SAVE50")
	require.True(t, res.OK)

	details := CustomerDetails{
		FirstName: "Arjun", LastName: "Verma",
		Email: "arjun@example.com", Phone: "9999999999",
		Address: "12 MG Road", City: "Pune", Pincode: "411001",
	}
	orderID, err := f.shop.PlaceOrder(ctx, details, "UPI/QR")
	require.NoError(t, err)
	assert.Regexp(t, `^BR\d+-[0-9a-f]{8}$`, orderID)

	// Charged the discounted total.
	require.Len(t, f.gateway.charged, 1)
	assert.Equal(t, int64(773), f.gateway.charged[0])

	// Persisted exactly one order document.
	assert.Equal(t, 1, f.store.Len(orders.Collection))

	// Confirmation went to the checkout email.
	assert.Equal(t, []string{"arjun@example.com"}, f.notifier.emails)

	// Cart is empty, coupon gone, order prepended to local history.
	assert.Empty(t, f.shop.CartItems())
	assert.Nil(t, f.shop.AppliedCoupon())
	list := f.shop.Orders()
	require.Len(t, list, 1)
	assert.Equal(t, orderID, list[0].ID)
	assert.Equal(t, "Arjun Verma", list[0].CustomerName)
	assert.Equal(t, int64(773), list[0].Total)
	assert.Equal(t, entity.OrderProcessing, list[0].Status)
	require.Len(t, f.history.appended, 1)
	assert.Equal(t, orderID, f.history.appended[0].ID)
}

func TestPlaceOrderSnapshotIsolation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	signIn(t, f)

	require.NoError(t, f.shop.AddToCart(ctx, "p1", "500g", 1))
	orderID, err := f.shop.PlaceOrder(ctx, CustomerDetails{FirstName: "A", LastName: "B"}, "COD")
	require.NoError(t, err)

	// Refill the cart; the recorded order must not change.
	require.NoError(t, f.shop.AddToCart(ctx, "p2", "1kg", 5))
	list := f.shop.Orders()
	require.Len(t, list, 1)
	assert.Equal(t, orderID, list[0].ID)
	require.Len(t, list[0].Items, 1)
	assert.Equal(t, 1, list[0].Items[0].Quantity)
}

func TestPlaceOrderDistinctIDs(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	signIn(t, f)

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		require.NoError(t, f.shop.AddToCart(ctx, "p1", "500g", 1))
		id, err := f.shop.PlaceOrder(ctx, CustomerDetails{FirstName: "A", LastName: "B"}, "COD")
		require.NoError(t, err)
		assert.False(t, seen[id])
		seen[id] = true
	}
	assert.Len(t, f.shop.Orders(), 3)
}

func TestPlaceOrderPaymentDeclined(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	signIn(t, f)
	f.gateway.decline = true

	require.NoError(t, f.shop.AddToCart(ctx, "p1", "500g", 1))
	_, err := f.shop.PlaceOrder(ctx, CustomerDetails{FirstName: "A"}, "CARD")
	assert.Equal(t, ErrCodePaymentDeclined, CodeOf(err))

	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, StatePayment, serr.Stage)

	// Cart untouched so the user can retry.
	assert.Len(t, f.shop.CartItems(), 1)
	assert.Equal(t, 0, f.store.Len(orders.Collection))
	assert.Empty(t, f.history.appended)
}

func TestPlaceOrderPersistFailureLeavesCart(t *testing.T) {
	f := newFixture(t, func(cfg *Config) {
		cfg.Store = failingStore{Store: cfg.Store}
	})
	ctx := context.Background()
	signIn(t, f)

	require.NoError(t, f.shop.AddToCart(ctx, "p1", "500g", 1))
	_, err := f.shop.PlaceOrder(ctx, CustomerDetails{FirstName: "A"}, "COD")
	assert.Equal(t, ErrCodeOrderPersistFailed, CodeOf(err))

	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, StatePersisting, serr.Stage)

	assert.Len(t, f.shop.CartItems(), 1)
	assert.Empty(t, f.shop.Orders())
	assert.Empty(t, f.history.appended)
	assert.Empty(t, f.notifier.emails)
}

func TestPlaceOrderNotifyFailureStillCompletes(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	signIn(t, f)
	f.notifier.fail = errors.New("smtp down")

	require.NoError(t, f.shop.AddToCart(ctx, "p1", "500g", 1))
	id, err := f.shop.PlaceOrder(ctx, CustomerDetails{FirstName: "A", LastName: "B"}, "COD")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Empty(t, f.shop.CartItems())
	assert.Len(t, f.shop.Orders(), 1)
}

func TestPlaceOrderFallsBackToAccountEmail(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	signIn(t, f)

	require.NoError(t, f.shop.AddToCart(ctx, "p1", "500g", 1))
	_, err := f.shop.PlaceOrder(ctx, CustomerDetails{FirstName: "A", LastName: "B"}, "COD")
	require.NoError(t, err)
	assert.Equal(t, []string{"arjun@example.com"}, f.notifier.emails)
}

func TestSignupCreatesProfileDocument(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.shop.Signup(ctx, "zara@example.com", "secret123", "Zara Khan"))

	u := f.shop.User()
	require.NotNil(t, u)
	assert.Equal(t, "Zara Khan", u.Name)

	doc, err := f.store.Get(ctx, UsersCollection, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Zara Khan", doc.Fields["name"])
	assert.Equal(t, "zara@example.com", doc.Fields["email"])
}

func TestLogoutClearsCart(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	signIn(t, f)

	require.NoError(t, f.shop.AddToCart(ctx, "p1", "500g", 1))
	require.NoError(t, f.shop.Logout(ctx))

	assert.Nil(t, f.shop.User())
	assert.Empty(t, f.shop.CartItems())
}

func TestSessionReplayMergesProfileDocument(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	sess, err := f.identity.SignUp(ctx, "admin@example.com", "secret123")
	require.NoError(t, err)

	// A pre-existing profile document overrides session-derived fields.
	_, err = f.store.Set(ctx, UsersCollection, sess.UID, store.Fields{
		"name": "Store Admin",
		"role": "admin",
	}, store.SetOptions{Merge: true})
	require.NoError(t, err)

	require.NoError(t, f.identity.SignOut(ctx))
	_, err = f.identity.SignIn(ctx, "admin@example.com", "secret123")
	require.NoError(t, err)

	u := f.shop.User()
	require.NotNil(t, u)
	assert.Equal(t, "Store Admin", u.Name)
	assert.Equal(t, "admin", u.Role)
	assert.Equal(t, sess.UID, u.ID)
}

func TestSaveAddressAppendsAndReplaces(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	signIn(t, f)

	saved, err := f.shop.SaveAddress(ctx, entity.Address{
		FirstName: "Arjun", LastName: "Verma",
		Address: "12 MG Road", City: "Pune", Pincode: "411001",
	})
	require.NoError(t, err)
	assert.True(t, len(saved.ID) > len("addr-"))

	second, err := f.shop.SaveAddress(ctx, entity.Address{
		FirstName: "Arjun", Address: "Office, Baner", City: "Pune",
	})
	require.NoError(t, err)
	assert.NotEqual(t, saved.ID, second.ID)

	// Replace the first in place; ordering is preserved.
	saved.City = "Mumbai"
	_, err = f.shop.SaveAddress(ctx, saved)
	require.NoError(t, err)

	u := f.shop.User()
	require.Len(t, u.SavedAddresses, 2)
	assert.Equal(t, saved.ID, u.SavedAddresses[0].ID)
	assert.Equal(t, "Mumbai", u.SavedAddresses[0].City)
	assert.Equal(t, second.ID, u.SavedAddresses[1].ID)

	// The document store carries the same list.
	doc, err := f.store.Get(ctx, UsersCollection, u.ID)
	require.NoError(t, err)
	var p profileDoc
	require.NoError(t, store.Decode(doc.Fields, &p))
	require.Len(t, p.SavedAddresses, 2)
	assert.Equal(t, "Mumbai", p.SavedAddresses[0].City)
}

func TestSaveAddressUnknownID(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	signIn(t, f)

	_, err := f.shop.SaveAddress(ctx, entity.Address{
		ID: "addr-missing", FirstName: "A", Address: "somewhere",
	})
	assert.Equal(t, ErrCodeValidation, CodeOf(err))
}

func TestRemoveAddress(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	signIn(t, f)

	a, err := f.shop.SaveAddress(ctx, entity.Address{FirstName: "A", Address: "one"})
	require.NoError(t, err)
	b, err := f.shop.SaveAddress(ctx, entity.Address{FirstName: "A", Address: "two"})
	require.NoError(t, err)

	require.NoError(t, f.shop.RemoveAddress(ctx, a.ID))
	u := f.shop.User()
	require.Len(t, u.SavedAddresses, 1)
	assert.Equal(t, b.ID, u.SavedAddresses[0].ID)

	// Unknown id is a no-op.
	require.NoError(t, f.shop.RemoveAddress(ctx, "addr-missing"))
	assert.Len(t, f.shop.User().SavedAddresses, 1)
}

func TestAddressOpsRequireSession(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.shop.SaveAddress(ctx, entity.Address{FirstName: "A", Address: "x"})
	assert.Equal(t, ErrCodeNotAuthenticated, CodeOf(err))
	assert.Equal(t, ErrCodeNotAuthenticated, CodeOf(f.shop.RemoveAddress(ctx, "addr-1")))
	assert.Equal(t, ErrCodeNotAuthenticated, CodeOf(f.shop.UpdateProfile(ctx, "New Name")))
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	signIn(t, f)

	require.NoError(t, f.shop.UpdateProfile(ctx, "Arjun V."))
	u := f.shop.User()
	assert.Equal(t, "Arjun V.", u.Name)

	doc, err := f.store.Get(ctx, UsersCollection, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Arjun V.", doc.Fields["name"])

	assert.Equal(t, ErrCodeValidation, CodeOf(f.shop.UpdateProfile(ctx, "  ")))
}

func TestUpdateProfileRevisionConflict(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	signIn(t, f)
	uid := f.shop.User().ID

	// Another writer bumps the document revision behind the shop's back.
	_, err := f.store.Set(ctx, UsersCollection, uid, store.Fields{"name": "Elsewhere"}, store.SetOptions{Merge: true})
	require.NoError(t, err)

	err = f.shop.UpdateProfile(ctx, "Arjun V.")
	assert.Equal(t, ErrCodeRevisionConflict, CodeOf(err))
	// Local state keeps the previous name.
	assert.Equal(t, "Arjun Verma", f.shop.User().Name)
}

func TestSendContactMessage(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.shop.SendContactMessage(ctx, contact.Message{
		Name:    "Ravi",
		Email:   "ravi@example.com",
		Message: "Is the 1kg jar back in stock?",
	}))
	assert.Equal(t, 1, f.store.Len(contact.Collection))

	err := f.shop.SendContactMessage(ctx, contact.Message{Name: "Ravi"})
	assert.Error(t, err)
}

func TestLoginFriendlyErrors(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	err := f.shop.Login(ctx, "nobody@example.com", "whatever")
	require.Error(t, err)

	var pe *identity.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, identity.CodeInvalidCredential, pe.Code)
	assert.Contains(t, identity.FriendlyMessage(err), "Incorrect Email or Password")
}
