// Package session carries the visitor identity explicitly through store
// operations instead of each store reading ambient state.
package session

import (
	"context"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Identity describes who is making a request. A visitor always has a
// SessionID; Token is set once the visitor has signed in with the backend.
type Identity struct {
	SessionID string
	Token     string
	UserID    string
	Name      string
	Email     string
	Phone     string
}

// Authenticated reports token presence. Validity is the backend's concern.
func (i Identity) Authenticated() bool {
	return i.Token != ""
}

type ctxKey struct{}

// WithIdentity stores id on ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored on ctx, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// Claims are the fields the storefront reads from a backend token.
type Claims struct {
	UserID string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	jwt.RegisteredClaims
}

// ParseClaims reads the claims of a backend-issued token. With a secret the
// HMAC signature is verified; without one the claims are read unverified,
// which is enough for prefilling forms since the backend checks the token
// on every call.
func ParseClaims(raw, secret string) (*Claims, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))
	claims := &Claims{}
	if secret == "" {
		if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
			return nil, err
		}
	} else {
		_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil {
			return nil, err
		}
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	return claims, nil
}
