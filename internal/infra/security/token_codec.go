package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/core/domain"
)

const defaultStructuralTTL = 30 * 24 * time.Hour

// TokenClaims is the payload embedded into issued bearer tokens. The role
// names are a snapshot taken at issuance and are never used for authorization.
type TokenClaims struct {
	Roles    []string `json:"roles"`
	UserID   int64    `json:"userId"`
	IsActive bool     `json:"isActive"`
	jwt.RegisteredClaims
}

// TokenCodec signs and parses HS256 bearer tokens. Its expiry is structural
// only; the usertoken row decides whether a session is still valid.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec constructs a codec. A non-positive ttl falls back to 30 days.
func NewTokenCodec(secret []byte, ttl time.Duration) (*TokenCodec, error) {
	if len(secret) < 32 {
		return nil, errors.New("token codec: secret must be at least 32 bytes")
	}
	if ttl <= 0 {
		ttl = defaultStructuralTTL
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &TokenCodec{
		secret: key,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// WithClock overrides the time source, primarily for tests.
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	if now != nil {
		c.now = now
	}
	return c
}

// Generate issues a signed token for identity.
func (c *TokenCodec) Generate(identity *domain.Identity) (string, error) {
	if identity == nil {
		return "", errors.New("token codec: identity is required")
	}

	now := c.now().UTC()
	claims := &TokenClaims{
		Roles:    identity.RoleNames(),
		UserID:   identity.ID,
		IsActive: identity.Active,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
			// Two logins within the same second must still yield distinct tokens.
			ID: uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("token codec: sign: %w", err)
	}
	return signed, nil
}

// ParseClaims verifies the signature and structural expiry and returns the claims.
func (c *TokenCodec) ParseClaims(token string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedToken, err)
	}
	if !parsed.Valid {
		return nil, domain.ErrMalformedToken
	}
	return claims, nil
}

// ValidateStructure reports whether the token parses. It is diagnostic only and
// must never be used to admit a request.
func (c *TokenCodec) ValidateStructure(token string) bool {
	_, err := c.ParseClaims(token)
	return err == nil
}
