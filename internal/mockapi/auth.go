package mockapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"vidash/internal/api"
	"vidash/internal/session"
)

type tokenClaims struct {
	UserID api.UserID `json:"userId"`
	Roles  []string   `json:"roles"`
	jwt.RegisteredClaims
}

type ctxKey string

const claimsKey ctxKey = "claims"

func claimsFrom(ctx context.Context) *tokenClaims {
	claims, _ := ctx.Value(claimsKey).(*tokenClaims)
	return claims
}

// IssueToken signs an access token for account.
func (s *Server) IssueToken(account Account) (string, error) {
	now := s.now()
	claims := tokenClaims{
		UserID: account.ID,
		Roles:  account.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) parseToken(raw string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			writeError(w, http.StatusUnauthorized, "missing token")
			return
		}
		claims, err := s.parseToken(strings.TrimSpace(parts[1]))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r.Context())
		if claims == nil || session.CapabilityFromRoles(claims.Roles) != session.CapabilityAdmin {
			writeError(w, http.StatusForbidden, "Access denied")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	account, ok := s.accountByNameLocked(strings.TrimSpace(req.Username))
	s.mu.Unlock()
	if !ok || account.Password != req.Password {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	token, err := s.IssueToken(account)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sign token")
		return
	}
	writeData(w, http.StatusOK, api.AuthenticationResponse{
		UserID:       account.ID,
		Username:     account.Username,
		AccessToken:  token,
		RefreshToken: s.newID("refresh"),
		Roles:        account.Roles,
	})
}
