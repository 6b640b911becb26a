package apiclient

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// TokenStore persists the bearer token between runs.
type TokenStore interface {
	LoadToken(ctx context.Context) (string, error)
	SaveToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}

const (
	RouteLogin  = "/login"
	RouteSignup = "/signup"
)

var publicRoutes = []string{RouteLogin, RouteSignup}

// IsPublicRoute reports whether route is reachable without a session.
func IsPublicRoute(route string) bool {
	for _, p := range publicRoutes {
		if strings.HasPrefix(route, p) {
			return true
		}
	}
	return false
}

// Session owns the bearer token and the reaction to an invalid session.
type Session struct {
	mu             sync.Mutex
	store          TokenStore
	token          string
	route          string
	onUnauthorized func()
}

func NewSession(store TokenStore) *Session {
	return &Session{store: store, route: RouteLogin}
}

// Restore loads a previously saved token.
func (s *Session) Restore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	token, err := s.store.LoadToken(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.token = strings.TrimSpace(token)
	s.mu.Unlock()
	return nil
}

func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// SetToken stores a freshly issued token.
func (s *Session) SetToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	if s.store == nil {
		return nil
	}
	return s.store.SaveToken(ctx, token)
}

// Invalidate forgets the token in memory and on disk.
func (s *Session) Invalidate(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	if s.store == nil {
		return nil
	}
	return s.store.ClearToken(ctx)
}

func (s *Session) SetRoute(route string) {
	s.mu.Lock()
	s.route = route
	s.mu.Unlock()
}

func (s *Session) Route() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.route
}

// OnUnauthorized registers the callback run after a 401/403 outside the
// public routes.
func (s *Session) OnUnauthorized(fn func()) {
	s.mu.Lock()
	s.onUnauthorized = fn
	s.mu.Unlock()
}

// handleUnauthorized logs the user out unless they are already on a public
// route, which would otherwise loop.
func (s *Session) handleUnauthorized(ctx context.Context) {
	s.mu.Lock()
	route := s.route
	fn := s.onUnauthorized
	s.mu.Unlock()
	if IsPublicRoute(route) {
		return
	}
	if err := s.Invalidate(context.WithoutCancel(ctx)); err != nil {
		log.Warn().Err(err).Msg("clear stored token")
	}
	s.SetRoute(RouteLogin)
	if fn != nil {
		fn()
	}
}

// ExpiresAt reads the exp claim without verifying the signature.
func (s *Session) ExpiresAt() (time.Time, bool) {
	token := s.Token()
	if token == "" {
		return time.Time{}, false
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Expired is true when there is no token or its exp claim has passed.
func (s *Session) Expired(now time.Time) bool {
	if !s.Authenticated() {
		return true
	}
	exp, ok := s.ExpiresAt()
	if !ok {
		return false
	}
	return !now.Before(exp)
}

// Subject returns the sub claim, which the Listo API sets to the email.
func (s *Session) Subject() string {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token(), claims); err != nil {
		return ""
	}
	return claims.Subject
}
