package domain

import "time"

// IssuedToken is the persisted session record backing a bearer token. Its
// ExpiresAt is the only authority on whether the session is still valid.
type IssuedToken struct {
	ID         int64
	Token      string
	IdentityID int64
	// OwnerEmail is populated by reads that join the owning identity.
	OwnerEmail string
	ExpiresAt  time.Time
	RememberMe bool
	CreatedAt  time.Time
}

// IsExpired reports whether the row's expiration lies strictly before at.
func (t IssuedToken) IsExpired(at time.Time) bool {
	return t.ExpiresAt.Before(at)
}

// AuthResult summarises the outcome of request authentication exposed to handlers.
type AuthResult struct {
	OK         bool
	Message    string
	StatusCode int
}

// AuthSucceeded is the result attached to every request that passed authentication.
func AuthSucceeded() AuthResult {
	return AuthResult{OK: true, Message: "Success", StatusCode: 200}
}
