package domain

import "time"

// TokenClaims are the identity claims carried by an API bearer token.
// The agent gateway issues these; the core only validates and reads them.
type TokenClaims struct {
	UserID    string
	Email     string
	IssuedAt  int64
	ExpiresAt int64
}

// IsExpired checks whether the claims have passed their expiry.
func (c *TokenClaims) IsExpired() bool {
	return time.Now().Unix() >= c.ExpiresAt
}

// AuthContext is the per-request authentication context derived from
// validated token claims.
type AuthContext struct {
	UserID string
	Email  string
}
