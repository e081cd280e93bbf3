package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"

	"vidash/internal/api"
	"vidash/internal/apierr"
)

var (
	// ErrNoSession is returned when no credentials have been stored yet.
	ErrNoSession = errors.New("no stored session")
	// ErrExpired is returned when the stored access token has expired.
	ErrExpired = errors.New("session expired")
	// ErrCapability is returned when a session lacks the capability a component requires.
	ErrCapability = errors.New("insufficient capability")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Authenticator exchanges credentials for tokens.
type Authenticator interface {
	Login(ctx context.Context, credentials api.LoginRequest) (api.AuthenticationResponse, error)
}

// Session is the identity of the signed-in user.
type Session struct {
	mu           sync.RWMutex
	userID       api.UserID
	username     string
	roles        []string
	accessToken  string
	refreshToken string
	expiresAt    time.Time
	capability   Capability
}

// New builds a session from an authentication response.
func New(auth api.AuthenticationResponse) *Session {
	s := &Session{
		userID:       auth.UserID,
		username:     strings.TrimSpace(auth.Username),
		roles:        slices.Clone(auth.Roles),
		accessToken:  strings.TrimSpace(auth.AccessToken),
		refreshToken: strings.TrimSpace(auth.RefreshToken),
	}
	claims := decodeClaims(s.accessToken)
	s.expiresAt = claims.expiresAt
	if len(s.roles) == 0 {
		s.roles = claims.roles
	}
	if s.userID == 0 {
		s.userID = claims.userID
	}
	s.capability = CapabilityFromRoles(s.roles)
	return s
}

// Login validates credentials locally, authenticates, and persists the result
// when store is non-nil.
func Login(ctx context.Context, auth Authenticator, store Store, username, password string) (*Session, error) {
	credentials := api.LoginRequest{Username: strings.TrimSpace(username), Password: password}
	if err := validate.Struct(credentials); err != nil {
		return nil, apierr.Validation("session", "login", "username and password are required")
	}
	if auth == nil {
		return nil, apierr.Validation("session", "login", "authenticator not configured")
	}
	resp, err := auth.Login(ctx, credentials)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(resp.AccessToken) == "" {
		return nil, apierr.Wrap(apierr.ErrUnauthorized, "session", "login", "server returned no access token", nil)
	}
	if resp.Username == "" {
		resp.Username = credentials.Username
	}
	s := New(resp)
	if store != nil {
		if err := store.Save(s.state(time.Now())); err != nil {
			return nil, fmt.Errorf("persist session: %w", err)
		}
	}
	return s, nil
}

// Restore loads the persisted session. Expired sessions return ErrExpired so
// callers can prompt for a new login.
func Restore(store Store) (*Session, error) {
	return restoreAt(store, time.Now())
}

func restoreAt(store Store, now time.Time) (*Session, error) {
	if store == nil {
		return nil, ErrNoSession
	}
	state, err := store.Load()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(state.AccessToken) == "" {
		return nil, ErrNoSession
	}
	s := New(api.AuthenticationResponse{
		UserID:       state.UserID,
		Username:     state.Username,
		AccessToken:  state.AccessToken,
		RefreshToken: state.RefreshToken,
		Roles:        state.Roles,
	})
	if s.ExpiredAt(now) {
		return nil, ErrExpired
	}
	return s, nil
}

// Logout clears persisted credentials.
func Logout(store Store) error {
	if store == nil {
		return nil
	}
	return store.Clear()
}

func (s *Session) state(now time.Time) State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		UserID:       s.userID,
		Username:     s.username,
		Roles:        slices.Clone(s.roles),
		AccessToken:  s.accessToken,
		RefreshToken: s.refreshToken,
		SavedAt:      now.UTC(),
	}
}

// UserID returns the signed-in user's id.
func (s *Session) UserID() api.UserID {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// Username returns the signed-in user's name.
func (s *Session) Username() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

// Roles returns a copy of the backend role names.
func (s *Session) Roles() []string {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.roles)
}

// Capability returns the capability resolved at construction.
func (s *Session) Capability() Capability {
	if s == nil {
		return CapabilityNone
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.capability
}

// IsAuthenticated reports whether the session carries an access token.
func (s *Session) IsAuthenticated() bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken != ""
}

// AccessToken implements remote.TokenSource.
func (s *Session) AccessToken() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// ExpiresAt returns the access token expiry, or the zero time when unknown.
func (s *Session) ExpiresAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// ExpiredAt reports whether the access token had expired by now. Tokens
// without an exp claim never expire client-side.
func (s *Session) ExpiredAt(now time.Time) bool {
	expires := s.ExpiresAt()
	return !expires.IsZero() && !now.Before(expires)
}

// Invalidate drops the access token after the server rejected it.
func (s *Session) Invalidate() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = ""
}

// Require returns ErrCapability unless the session holds want.
func (s *Session) Require(want Capability) error {
	if !s.IsAuthenticated() {
		return apierr.Wrap(apierr.ErrUnauthorized, "session", "require", "not signed in", ErrNoSession)
	}
	if got := s.Capability(); got != want {
		return fmt.Errorf("%w: have %s, need %s", ErrCapability, got, want)
	}
	return nil
}

type tokenClaims struct {
	expiresAt time.Time
	roles     []string
	userID    api.UserID
}

type accessClaims struct {
	UserID api.UserID `json:"userId"`
	Roles  []string   `json:"roles"`
	Role   string     `json:"role"`
	jwt.RegisteredClaims
}

// decodeClaims reads access-token claims without verifying the signature.
// Non-JWT tokens yield zero claims.
func decodeClaims(token string) tokenClaims {
	if token == "" {
		return tokenClaims{}
	}
	var claims accessClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return tokenClaims{}
	}
	out := tokenClaims{userID: claims.UserID, roles: claims.Roles}
	if len(out.roles) == 0 && claims.Role != "" {
		out.roles = []string{claims.Role}
	}
	if claims.ExpiresAt != nil {
		out.expiresAt = claims.ExpiresAt.Time
	}
	return out
}
