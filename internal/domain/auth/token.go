// Package auth defines the principal resolution boundary: an access token
// presented by a client maps to exactly one user.
package auth

import "context"

// Principal is the authenticated identity under whose name a cart is scoped.
type Principal struct {
	UserID   string
	Username string
}

// TokenInfo holds the stored data for an issued access token. Only the
// HMAC-SHA256 hash of the token is kept at rest.
type TokenInfo struct {
	ID       string
	KeyHash  string
	UserID   string
	Username string
}

// Repository provides lookup of access tokens by their HMAC hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*TokenInfo, error)
}
