package security

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func testHasher(t *testing.T) *PasswordHasher {
	t.Helper()
	hasher, err := NewPasswordHasher(Argon2Config{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewPasswordHasher returned error: %v", err)
	}
	return hasher
}

func TestPasswordHasherArgon2RoundTrip(t *testing.T) {
	hasher := testHasher(t)

	encoded, err := hasher.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}

	parts := strings.Split(encoded, "$")
	if len(parts) != 5 || parts[0] != argon2Variant || parts[1] != argon2Version {
		t.Fatalf("unexpected hash format: %q", encoded)
	}

	ok, err := hasher.Verify("correct horse battery staple", encoded)
	if err != nil || !ok {
		t.Fatalf("Verify(correct) = %v, %v", ok, err)
	}

	ok, err = hasher.Verify("Tr0ub4dor&3", encoded)
	if err != nil || ok {
		t.Fatalf("Verify(wrong) = %v, %v", ok, err)
	}
}

func TestPasswordHasherVerifiesLegacyBcrypt(t *testing.T) {
	hasher := testHasher(t)

	legacy, err := bcrypt.GenerateFromPassword([]byte("spring-secret-1"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	ok, err := hasher.Verify("spring-secret-1", string(legacy))
	if err != nil || !ok {
		t.Fatalf("Verify(bcrypt correct) = %v, %v", ok, err)
	}

	ok, err = hasher.Verify("other", string(legacy))
	if err != nil || ok {
		t.Fatalf("Verify(bcrypt wrong) = %v, %v", ok, err)
	}
}

func TestPasswordHasherRejectsUnknownFormat(t *testing.T) {
	hasher := testHasher(t)

	if _, err := hasher.Verify("pw", "plain-text"); !errors.Is(err, errInvalidHashFormat) {
		t.Fatalf("expected errInvalidHashFormat, got %v", err)
	}
	if ok, err := hasher.Verify("", "anything"); ok || err != nil {
		t.Fatalf("expected empty password to be rejected quietly, got %v, %v", ok, err)
	}
}

func TestNewPasswordHasherValidatesConfig(t *testing.T) {
	if _, err := NewPasswordHasher(Argon2Config{}); !errors.Is(err, errInvalidConfig) {
		t.Fatalf("expected errInvalidConfig, got %v", err)
	}
	if _, err := NewPasswordHasher(DefaultArgon2Config()); err != nil {
		t.Fatalf("default config rejected: %v", err)
	}
}
