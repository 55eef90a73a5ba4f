package security

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/core/domain"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func testIdentity() *domain.Identity {
	return &domain.Identity{
		ID:     42,
		Email:  "editor@example.com",
		Active: true,
		Roles:  []domain.Role{{ID: 1, Name: "EDITOR"}, {ID: 2, Name: "REVIEWER"}},
	}
}

func TestTokenCodecGenerateAndParse(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	codec, err := NewTokenCodec(testSecret, 0)
	if err != nil {
		t.Fatalf("NewTokenCodec returned error: %v", err)
	}
	codec.WithClock(func() time.Time { return now })

	token, err := codec.Generate(testIdentity())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	claims, err := codec.ParseClaims(token)
	if err != nil {
		t.Fatalf("ParseClaims returned error: %v", err)
	}

	if claims.RegisteredClaims.Subject != "editor@example.com" || claims.UserID != 42 || !claims.IsActive {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if strings.Join(claims.Roles, ",") != "EDITOR,REVIEWER" {
		t.Fatalf("unexpected roles: %v", claims.Roles)
	}
	if got := claims.ExpiresAt.Time; !got.Equal(now.Add(30 * 24 * time.Hour)) {
		t.Fatalf("expected 30 day structural expiry, got %v", got)
	}
	if claims.ID == "" {
		t.Fatal("expected jti to be set")
	}
}

func TestTokenCodecGeneratesDistinctTokensWithinOneSecond(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	codec, _ := NewTokenCodec(testSecret, time.Hour)
	codec.WithClock(func() time.Time { return now })

	first, _ := codec.Generate(testIdentity())
	second, _ := codec.Generate(testIdentity())
	if first == second {
		t.Fatal("expected distinct tokens for identical claims")
	}
}

func TestTokenCodecRejectsTamperedAndForeignTokens(t *testing.T) {
	codec, _ := NewTokenCodec(testSecret, time.Hour)

	token, _ := codec.Generate(testIdentity())
	suffix := "xx"
	if strings.HasSuffix(token, suffix) {
		suffix = "yy"
	}
	tampered := token[:len(token)-2] + suffix
	if _, err := codec.ParseClaims(tampered); !errors.Is(err, domain.ErrMalformedToken) {
		t.Fatalf("expected ErrMalformedToken for tampered token, got %v", err)
	}

	other, _ := NewTokenCodec([]byte("ffffffffffffffffffffffffffffffff"), time.Hour)
	foreign, _ := other.Generate(testIdentity())
	if codec.ValidateStructure(foreign) {
		t.Fatal("expected token signed with another secret to be rejected")
	}

	if codec.ValidateStructure("not-a-jwt") {
		t.Fatal("expected garbage to be rejected")
	}
}

func TestTokenCodecRejectsOtherAlgorithms(t *testing.T) {
	codec, _ := NewTokenCodec(testSecret, time.Hour)

	claims := &TokenClaims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "x@example.com",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := codec.ParseClaims(token); !errors.Is(err, domain.ErrMalformedToken) {
		t.Fatalf("expected HS512 token to be rejected, got %v", err)
	}
}

func TestTokenCodecStructuralExpiry(t *testing.T) {
	issued := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	current := issued
	codec, _ := NewTokenCodec(testSecret, time.Hour)
	codec.WithClock(func() time.Time { return current })

	token, _ := codec.Generate(testIdentity())
	if !codec.ValidateStructure(token) {
		t.Fatal("expected fresh token to be structurally valid")
	}

	current = issued.Add(2 * time.Hour)
	if codec.ValidateStructure(token) {
		t.Fatal("expected token past structural expiry to be rejected")
	}
}

func TestNewTokenCodecRejectsShortSecret(t *testing.T) {
	if _, err := NewTokenCodec([]byte("short"), time.Hour); err == nil {
		t.Fatal("expected short secret to be rejected")
	}
}
