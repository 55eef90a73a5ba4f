package domain

import "time"

// TokenIssuedEvent represents the payload for cms.session.token.issued messages.
type TokenIssuedEvent struct {
	EventID    string
	IdentityID int64
	TokenID    int64
	RememberMe bool
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

// TokenRevokedEvent represents the payload for cms.session.token.revoked messages.
type TokenRevokedEvent struct {
	EventID   string
	RevokedAt time.Time
	// Found is false when the revoked token had no row left.
	Found bool
}

// TokensRevokedAllEvent represents the payload for cms.session.token.revoked_all messages.
type TokensRevokedAllEvent struct {
	EventID    string
	IdentityID int64
	Revoked    int64
	RevokedAt  time.Time
}

// TokensPurgedEvent represents the payload for cms.session.token.purged messages.
type TokensPurgedEvent struct {
	EventID  string
	Purged   int64
	PurgedAt time.Time
}

// IdentityChangedEvent is published by user management whenever an account or
// its role assignments change.
type IdentityChangedEvent struct {
	EventID   string    `json:"event_id"`
	Email     string    `json:"email"`
	ChangedAt time.Time `json:"changed_at"`
}

// RoleGrantsChangedEvent is published by role management when role to function
// grants change. All signals that every role should be reloaded.
type RoleGrantsChangedEvent struct {
	EventID   string    `json:"event_id"`
	RoleID    int64     `json:"role_id"`
	All       bool      `json:"all"`
	ChangedAt time.Time `json:"changed_at"`
}
