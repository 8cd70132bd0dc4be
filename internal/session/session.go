// Package session holds the authenticated identity and its bearer credential.
//
// A Session is created once at startup, handed explicitly to whatever needs
// the gateway, and torn down by Logout. There is no package-level state.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"taskboard/internal/service"
)

// TokenStore persists the bearer credential.
type TokenStore interface {
	LoadToken(ctx context.Context) (string, error)
	SaveToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}

// GatewayFactory builds a gateway bound to token. An empty token yields an
// anonymous gateway that can only log in, register, or check health.
type GatewayFactory func(token string) (service.Service, error)

// AuthError is a login or registration failure carrying a message fit for
// the user.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string { return e.Message }

func (e *AuthError) Unwrap() error { return e.Err }

// Session is the current user plus the gateway that carries its credential.
type Session struct {
	store   TokenStore
	factory GatewayFactory
	log     *slog.Logger
	now     func() time.Time

	mu    sync.RWMutex
	token string
	user  *service.User
	gw    service.Service
}

// Option customizes a Session.
type Option func(*Session)

// WithClock overrides the clock used for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New creates a logged-out session.
func New(store TokenStore, factory GatewayFactory, log *slog.Logger, opts ...Option) (*Session, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Session{
		store:   store,
		factory: factory,
		log:     log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	gw, err := factory("")
	if err != nil {
		return nil, fmt.Errorf("create gateway: %w", err)
	}
	s.gw = gw
	return s, nil
}

// Service returns the gateway for the current credential.
func (s *Session) Service() service.Service {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gw
}

// CurrentUser returns the logged-in user.
func (s *Session) CurrentUser() (service.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return service.User{}, false
	}
	return *s.user, true
}

// Token returns the active bearer credential, or "".
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// TokenExpiry returns the expiry encoded in a JWT credential. ok is false
// for opaque tokens or tokens without an exp claim.
func (s *Session) TokenExpiry() (exp time.Time, ok bool) {
	return tokenExpiry(s.Token())
}

// HasCredential reports whether a credential is stored, without checking it.
func (s *Session) HasCredential(ctx context.Context) (bool, error) {
	token, err := s.store.LoadToken(ctx)
	if err != nil {
		return false, fmt.Errorf("load credential: %w", err)
	}
	return token != "", nil
}

// Restore resumes the session from the stored credential. A missing,
// expired, or rejected credential is cleared and Restore reports no user;
// only store I/O failures are returned as errors.
func (s *Session) Restore(ctx context.Context) (*service.User, error) {
	token, err := s.store.LoadToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}
	if token == "" {
		return nil, nil
	}

	if exp, ok := tokenExpiry(token); ok && !s.now().Before(exp) {
		s.log.Info("stored credential expired", "expired_at", exp)
		return nil, s.Logout(ctx)
	}

	gw, err := s.factory(token)
	if err != nil {
		return nil, fmt.Errorf("create gateway: %w", err)
	}
	user, err := gw.CurrentUser(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		s.log.Warn("stored credential rejected", "error", err)
		return nil, s.Logout(ctx)
	}

	s.mu.Lock()
	s.token, s.user, s.gw = token, &user, gw
	s.mu.Unlock()
	return &user, nil
}

// Login authenticates with email and password.
func (s *Session) Login(ctx context.Context, email, password string) (service.User, error) {
	res, err := s.Service().Login(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return service.User{}, authFailure(err, "login failed")
	}
	return s.establish(ctx, res, "login failed")
}

// Register creates an account and logs into it.
func (s *Session) Register(ctx context.Context, name, email, password string) (service.User, error) {
	res, err := s.Service().Register(ctx, strings.TrimSpace(name), strings.TrimSpace(email), password)
	if err != nil {
		return service.User{}, authFailure(err, "registration failed")
	}
	return s.establish(ctx, res, "registration failed")
}

// establish persists the credential, rebinds the gateway and loads the
// profile. Any failure leaves the session logged out.
func (s *Session) establish(ctx context.Context, res service.AuthResult, generic string) (service.User, error) {
	if res.AccessToken == "" {
		return service.User{}, &AuthError{Message: generic, Err: service.ErrUnauthorized}
	}
	gw, err := s.factory(res.AccessToken)
	if err != nil {
		return service.User{}, fmt.Errorf("create gateway: %w", err)
	}
	if err := s.store.SaveToken(ctx, res.AccessToken); err != nil {
		return service.User{}, fmt.Errorf("save credential: %w", err)
	}

	user, err := gw.CurrentUser(ctx)
	if err != nil {
		_ = s.Logout(ctx)
		return service.User{}, authFailure(err, generic)
	}

	s.mu.Lock()
	s.token, s.user, s.gw = res.AccessToken, &user, gw
	s.mu.Unlock()
	s.log.Debug("session established", "user_id", user.ID)
	return user, nil
}

// Logout forgets the user and removes the stored credential.
func (s *Session) Logout(ctx context.Context) error {
	anon, err := s.factory("")
	if err != nil {
		return fmt.Errorf("create gateway: %w", err)
	}
	s.mu.Lock()
	s.token, s.user, s.gw = "", nil, anon
	s.mu.Unlock()

	if err := s.store.ClearToken(ctx); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}

// authFailure maps a gateway error to an AuthError. Backend messages are
// passed through; transport failures get the generic message.
func authFailure(err error, generic string) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	msg := generic
	if !errors.Is(err, service.ErrUnavailable) {
		if detail := service.Detail(err); detail != "" {
			msg = detail
		}
	}
	return &AuthError{Message: msg, Err: err}
}

func tokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
