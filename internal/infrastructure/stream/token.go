// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package stream

import (
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// TokenIssuer signs platform tokens with the API secret.
type TokenIssuer struct {
	secret []byte
	now    func() time.Time
}

// NewTokenIssuer creates a token issuer for the API secret.
func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), now: time.Now}
}

// ServerToken returns the token that authenticates server-side API calls.
func (t *TokenIssuer) ServerToken() (string, error) {
	tok, err := jwt.NewBuilder().
		Claim("server", true).
		IssuedAt(t.now()).
		Build()
	if err != nil {
		return "", fmt.Errorf("building server token: %w", err)
	}
	return t.sign(tok)
}

// UserToken returns a client token for userID. A zero ttl issues a token without expiry.
func (t *TokenIssuer) UserToken(userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user id is required")
	}
	now := t.now()
	builder := jwt.NewBuilder().
		Claim("user_id", userID).
		IssuedAt(now.Add(-time.Minute))
	if ttl > 0 {
		builder = builder.Expiration(now.Add(ttl))
	}
	tok, err := builder.Build()
	if err != nil {
		return "", fmt.Errorf("building user token: %w", err)
	}
	return t.sign(tok)
}

func (t *TokenIssuer) sign(tok jwt.Token) (string, error) {
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, t.secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return string(signed), nil
}
