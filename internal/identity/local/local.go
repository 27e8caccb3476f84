// Package local is an in-process identity provider used for development
// and tests. It keeps accounts in memory, hashes passwords with bcrypt,
// and issues signed JWT session tokens, while exposing the same contract
// a hosted provider would.
package local

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/MOHD-MOMIN-TRADER/bodyrevivalBR/internal/identity"
)

// maxFailedAttempts is the sign-in failure threshold before an email is
// throttled.
const maxFailedAttempts = 5

const tokenTTL = 24 * time.Hour

type account struct {
	uid          string
	email        string
	passwordHash []byte
	displayName  string
	photoURL     string
}

// Provider is the in-process identity provider.
type Provider struct {
	mu       sync.Mutex
	secret   []byte
	accounts map[string]*account
	current  *account
	subs     map[int]identity.Handler
	nextSub  int
	failures map[string]int
	now      func() time.Time
}

// New creates an empty provider signing session tokens with secret.
func New(secret []byte) *Provider {
	return &Provider{
		secret:   secret,
		accounts: make(map[string]*account),
		subs:     make(map[int]identity.Handler),
		failures: make(map[string]int),
		now:      time.Now,
	}
}

func (p *Provider) SignUp(ctx context.Context, email, password string) (*identity.Session, error) {
	p.mu.Lock()
	if _, exists := p.accounts[email]; exists {
		p.mu.Unlock()
		return nil, identity.NewError(identity.CodeEmailInUse, fmt.Errorf("account %s already registered", email))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		p.mu.Unlock()
		return nil, identity.NewError(identity.CodeUnknown, fmt.Errorf("failed to hash password: %w", err))
	}

	acct := &account{uid: uuid.NewString(), email: email, passwordHash: hash}
	p.accounts[email] = acct
	p.current = acct
	session := sessionOf(acct)
	p.mu.Unlock()

	p.notify()
	return session, nil
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (*identity.Session, error) {
	p.mu.Lock()
	if p.failures[email] >= maxFailedAttempts {
		p.mu.Unlock()
		return nil, identity.NewError(identity.CodeTooManyRequests, fmt.Errorf("account %s is throttled", email))
	}

	acct, ok := p.accounts[email]
	if !ok || bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(password)) != nil {
		p.failures[email]++
		p.mu.Unlock()
		return nil, identity.NewError(identity.CodeInvalidCredential, fmt.Errorf("invalid credentials for %s", email))
	}

	delete(p.failures, email)
	p.current = acct
	session := sessionOf(acct)
	p.mu.Unlock()

	p.notify()
	return session, nil
}

func (p *Provider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	p.current = nil
	p.mu.Unlock()

	p.notify()
	return nil
}

func (p *Provider) SendPasswordReset(ctx context.Context, email string) error {
	p.mu.Lock()
	_, known := p.accounts[email]
	p.mu.Unlock()

	// Unknown addresses are not revealed to the caller.
	slog.Info("Password reset email requested", "email", email, "known", known)
	return nil
}

func (p *Provider) UpdateDisplayName(ctx context.Context, name string) error {
	p.mu.Lock()
	if p.current == nil {
		p.mu.Unlock()
		return identity.NewError(identity.CodeNoSession, fmt.Errorf("no signed-in session"))
	}
	p.current.displayName = name
	p.mu.Unlock()

	p.notify()
	return nil
}

// SetPhotoURL updates the avatar claim of the current session.
func (p *Provider) SetPhotoURL(ctx context.Context, url string) error {
	p.mu.Lock()
	if p.current == nil {
		p.mu.Unlock()
		return identity.NewError(identity.CodeNoSession, fmt.Errorf("no signed-in session"))
	}
	p.current.photoURL = url
	p.mu.Unlock()

	p.notify()
	return nil
}

func (p *Provider) Subscribe(h identity.Handler) func() {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = h
	current := sessionOf(p.current)
	p.mu.Unlock()

	// Replay the current state so subscribers never wait for the next
	// change to learn whether a session exists.
	h(current)

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

// Token signs a JWT for the current session.
func (p *Provider) Token() (string, error) {
	p.mu.Lock()
	acct := p.current
	p.mu.Unlock()
	if acct == nil {
		return "", identity.NewError(identity.CodeNoSession, fmt.Errorf("no signed-in session"))
	}

	now := p.now()
	claims := jwt.MapClaims{
		"sub":     acct.uid,
		"email":   acct.email,
		"name":    acct.displayName,
		"picture": acct.photoURL,
		"iat":     now.Unix(),
		"exp":     now.Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// VerifyToken validates a session token and returns its claims.
func (p *Provider) VerifyToken(raw string) (*identity.Session, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, identity.NewError(identity.CodeInvalidCredential, fmt.Errorf("invalid session token: %w", err))
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, identity.NewError(identity.CodeInvalidCredential, fmt.Errorf("malformed session claims"))
	}

	s := &identity.Session{}
	s.UID, _ = claims["sub"].(string)
	s.Email, _ = claims["email"].(string)
	s.DisplayName, _ = claims["name"].(string)
	s.PhotoURL, _ = claims["picture"].(string)
	return s, nil
}

// notify delivers the current session to every subscriber. Handlers run
// outside the lock, one at a time, in subscription order.
func (p *Provider) notify() {
	p.mu.Lock()
	session := sessionOf(p.current)
	handlers := make([]identity.Handler, 0, len(p.subs))
	for i := 0; i < p.nextSub; i++ {
		if h, ok := p.subs[i]; ok {
			handlers = append(handlers, h)
		}
	}
	p.mu.Unlock()

	for _, h := range handlers {
		h(session)
	}
}

func sessionOf(a *account) *identity.Session {
	if a == nil {
		return nil
	}
	return &identity.Session{
		UID:         a.uid,
		DisplayName: a.displayName,
		Email:       a.email,
		PhotoURL:    a.photoURL,
	}
}
