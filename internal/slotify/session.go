package slotify

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claim names the API has used for the user id, in lookup order.
var userIDClaims = []string{
	"sub",
	"nameid",
	"http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier",
}

// Session is the signed-in owner's bearer token plus what can be read from
// it. It is passed explicitly to every call that needs authorization.
//
// Claims are read without verifying the signature; the API verifies tokens.
// They are only used to pick the owner id and to fail fast on expired tokens.
type Session struct {
	Token     string
	UserID    string
	Email     string
	ExpiresAt time.Time
}

// NewSession builds a session from a bearer token. Opaque (non-JWT) tokens
// are accepted and simply carry no claims.
func NewSession(token string) (*Session, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return nil, ErrEmptyToken
	}
	s := &Session{Token: token}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return s, nil
	}
	for _, name := range userIDClaims {
		if v, ok := claims[name].(string); ok && v != "" {
			s.UserID = v
			break
		}
	}
	if v, ok := claims["email"].(string); ok {
		s.Email = v
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		s.ExpiresAt = exp.Time
	}
	return s, nil
}

// Expired reports whether the token's exp claim is at or before now.
// Tokens without exp never expire client-side.
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

func (s *Session) authorization() string {
	return "Bearer " + s.Token
}
