// Package http exposes the storefront coordinator as a JSON API. The
// surface mirrors the pages of the web frontend: catalog, cart panel,
// checkout, account and contact.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MOHD-MOMIN-TRADER/bodyrevivalBR/internal/contact"
	"github.com/MOHD-MOMIN-TRADER/bodyrevivalBR/internal/entity"
	"github.com/MOHD-MOMIN-TRADER/bodyrevivalBR/internal/identity"
	"github.com/MOHD-MOMIN-TRADER/bodyrevivalBR/internal/shop"
)

// API holds the HTTP handlers and their single dependency, the shop.
type API struct {
	shop *shop.Shop
}

// NewAPI builds the handler set over a shop.
func NewAPI(s *shop.Shop) *API {
	return &API{shop: s}
}

// EnableCORS is middleware to allow the web frontend to connect.
func EnableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", a.handleGetProducts)
	mux.HandleFunc("GET /api/coupons", a.handleGetCoupons)

	mux.HandleFunc("GET /api/cart", a.handleGetCart)
	mux.HandleFunc("POST /api/cart/items", a.handleAddToCart)
	mux.HandleFunc("PATCH /api/cart/items/{product}/{weight}", a.handleUpdateQuantity)
	mux.HandleFunc("DELETE /api/cart/items/{product}/{weight}", a.handleRemoveFromCart)
	mux.HandleFunc("DELETE /api/cart", a.handleClearCart)
	mux.HandleFunc("POST /api/cart/coupon", a.handleApplyCoupon)
	mux.HandleFunc("DELETE /api/cart/coupon", a.handleRemoveCoupon)

	mux.HandleFunc("POST /api/checkout", a.handleCheckout)
	mux.HandleFunc("GET /api/orders", a.handleGetOrders)

	mux.HandleFunc("POST /api/auth/login", a.handleLogin)
	mux.HandleFunc("POST /api/auth/signup", a.handleSignup)
	mux.HandleFunc("POST /api/auth/logout", a.handleLogout)
	mux.HandleFunc("POST /api/auth/reset", a.handleResetPassword)

	mux.HandleFunc("GET /api/me", a.handleGetMe)
	mux.HandleFunc("PATCH /api/me", a.handleUpdateProfile)
	mux.HandleFunc("POST /api/me/addresses", a.handleSaveAddress)
	mux.HandleFunc("DELETE /api/me/addresses/{id}", a.handleRemoveAddress)

	mux.HandleFunc("POST /api/contact", a.handleContact)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps coordinator and identity failures onto HTTP statuses.
// Identity failures get the user-facing message rather than the raw
// provider diagnostic.
func writeError(w http.ResponseWriter, err error) {
	var pe *identity.ProviderError
	if errors.As(err, &pe) {
		status := http.StatusUnauthorized
		switch pe.Code {
		case identity.CodeEmailInUse:
			status = http.StatusConflict
		case identity.CodeTooManyRequests:
			status = http.StatusTooManyRequests
		case identity.CodeNetworkFailed:
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, map[string]string{"error": identity.FriendlyMessage(err)})
		return
	}

	status := http.StatusInternalServerError
	switch shop.CodeOf(err) {
	case shop.ErrCodeNotAuthenticated:
		status = http.StatusUnauthorized
	case shop.ErrCodeValidation:
		status = http.StatusBadRequest
	case shop.ErrCodePaymentDeclined:
		status = http.StatusPaymentRequired
	case shop.ErrCodeRevisionConflict:
		status = http.StatusConflict
	case shop.ErrCodeOrderPersistFailed, shop.ErrCodeProfileSyncFailed:
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		slog.Error("Unhandled API error", "err", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func (a *API) handleGetProducts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.shop.Products())
}

func (a *API) handleGetCoupons(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.shop.Coupons())
}

// cartView is the cart panel payload.
type cartView struct {
	Items  []entity.CartItem `json:"items"`
	Coupon *entity.Coupon    `json:"coupon,omitempty"`
	Totals shop.Totals       `json:"totals"`
	Open   bool              `json:"open"`
}

func (a *API) cartViewNow() cartView {
	return cartView{
		Items:  a.shop.CartItems(),
		Coupon: a.shop.AppliedCoupon(),
		Totals: a.shop.CartTotals(),
		Open:   a.shop.CartOpen(),
	}
}

func (a *API) handleGetCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.cartViewNow())
}

type addToCartRequest struct {
	ProductID     string `json:"product_id"`
	VariantWeight string `json:"variant_weight"`
	Quantity      int    `json:"quantity"`
}

func (a *API) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if err := a.shop.AddToCart(r.Context(), req.ProductID, req.VariantWeight, req.Quantity); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.cartViewNow())
}

func (a *API) handleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Delta int `json:"delta"`
	}
	if !decode(w, r, &req) {
		return
	}
	a.shop.UpdateQuantity(r.PathValue("product"), r.PathValue("weight"), req.Delta)
	writeJSON(w, http.StatusOK, a.cartViewNow())
}

func (a *API) handleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	a.shop.RemoveFromCart(r.Context(), r.PathValue("product"), r.PathValue("weight"))
	writeJSON(w, http.StatusOK, a.cartViewNow())
}

func (a *API) handleClearCart(w http.ResponseWriter, r *http.Request) {
	a.shop.ClearCart(r.Context())
	writeJSON(w, http.StatusOK, a.cartViewNow())
}

func (a *API) handleApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if !decode(w, r, &req) {
		return
	}
	res := a.shop.ApplyCoupon(r.Context(), req.Code)
	status := http.StatusOK
	if !res.OK {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, map[string]any{
		"ok":      res.OK,
		"message": res.Message,
		"cart":    a.cartViewNow(),
	})
}

func (a *API) handleRemoveCoupon(w http.ResponseWriter, r *http.Request) {
	a.shop.RemoveCoupon()
	writeJSON(w, http.StatusOK, a.cartViewNow())
}

type checkoutRequest struct {
	shop.CustomerDetails
	PaymentMethod string `json:"payment_method"`
}

func (a *API) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if !decode(w, r, &req) {
		return
	}
	orderID, err := a.shop.PlaceOrder(r.Context(), req.CustomerDetails, req.PaymentMethod)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"order_id": orderID,
		"status":   "placed",
	})
}

func (a *API) handleGetOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.shop.Orders())
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decode(w, r, &req) {
		return
	}
	if err := a.shop.Login(r.Context(), req.Email, req.Password); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.shop.User())
}

func (a *API) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decode(w, r, &req) {
		return
	}
	if err := a.shop.Signup(r.Context(), req.Email, req.Password, req.Name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a.shop.User())
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := a.shop.Logout(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

func (a *API) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := a.shop.ResetPassword(r.Context(), req.Email); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset_sent"})
}

func (a *API) handleGetMe(w http.ResponseWriter, r *http.Request) {
	u := a.shop.User()
	if u == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not signed in"})
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (a *API) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := a.shop.UpdateProfile(r.Context(), req.Name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.shop.User())
}

func (a *API) handleSaveAddress(w http.ResponseWriter, r *http.Request) {
	var addr entity.Address
	if !decode(w, r, &addr) {
		return
	}
	saved, err := a.shop.SaveAddress(r.Context(), addr)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (a *API) handleRemoveAddress(w http.ResponseWriter, r *http.Request) {
	if err := a.shop.RemoveAddress(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.shop.User().SavedAddresses)
}

func (a *API) handleContact(w http.ResponseWriter, r *http.Request) {
	var msg contact.Message
	if !decode(w, r, &msg) {
		return
	}
	if err := a.shop.SendContactMessage(r.Context(), msg); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "received"})
}
