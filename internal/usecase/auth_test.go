package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/core/domain"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/repository"
)

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (plainHasher) Verify(password, encoded string) (bool, error) {
	return encoded == "hashed:"+password, nil
}

type lengthPolicy struct{ min int }

func (p lengthPolicy) Validate(password string, _ ...string) error {
	if len(password) < p.min {
		return errors.New("too short")
	}
	return nil
}

type evictRecorder struct{ evicted []string }

func (e *evictRecorder) Evict(email string) { e.evicted = append(e.evicted, email) }

type authFixture struct {
	service    *AuthService
	identities *stubIdentityRepo
	tokens     *memTokenRepo
	evicted    *evictRecorder
}

func newAuthFixture(t *testing.T, identities ...domain.Identity) authFixture {
	t.Helper()
	repo := newStubIdentityRepo(identities...)
	tokens := newMemTokenRepo()
	sessions := NewTokenStore(tokens, &sequenceGenerator{}, nil, TokenStoreConfig{}, zaptest.NewLogger(t))
	evicted := &evictRecorder{}
	service := NewAuthService(repo, sessions, plainHasher{}, lengthPolicy{min: 8}, evicted, zaptest.NewLogger(t))
	return authFixture{service: service, identities: repo, tokens: tokens, evicted: evicted}
}

func account(email string, active, verified bool) domain.Identity {
	return domain.Identity{
		ID:           int64(len(email)),
		Email:        email,
		PasswordHash: "hashed:correct-horse",
		FullName:     "Test Account",
		Active:       active,
		Verified:     verified,
		Roles:        []domain.Role{{ID: 1, Name: "EDITOR"}},
	}
}

func TestAuthService_Login(t *testing.T) {
	fx := newAuthFixture(t,
		account("ok@example.com", true, true),
		account("off@example.com", false, true),
		account("new@example.com", true, false),
	)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "unknown email", email: "ghost@example.com", password: "correct-horse", wantErr: ErrInvalidCredentials},
		{name: "inactive before password check", email: "off@example.com", password: "wrong", wantErr: ErrAccountInactive},
		{name: "wrong password", email: "ok@example.com", password: "wrong", wantErr: ErrInvalidCredentials},
		{name: "unverified after password check", email: "new@example.com", password: "correct-horse", wantErr: ErrAccountUnverified},
		{name: "unverified with wrong password", email: "new@example.com", password: "wrong", wantErr: ErrInvalidCredentials},
		{name: "missing password", email: "ok@example.com", password: "", wantErr: ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := fx.service.Login(ctx, tt.email, tt.password, false); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
	if fx.tokens.count() != 0 {
		t.Fatalf("expected no sessions for failed logins, got %d", fx.tokens.count())
	}
}

func TestAuthService_LoginIssuesSession(t *testing.T) {
	fx := newAuthFixture(t, account("ok@example.com", true, true))
	ctx := context.Background()

	result, err := fx.service.Login(ctx, " ok@example.com ", "correct-horse", true)
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if result.Token == "" || result.Identity.PasswordHash != "" {
		t.Fatalf("unexpected login result: %+v", result)
	}
	if time.Until(result.ExpiresAt) < 6*24*time.Hour {
		t.Fatalf("expected remember-me expiry, got %v", result.ExpiresAt)
	}

	email, err := fx.service.sessions.Validate(ctx, result.Token)
	if err != nil || email != "ok@example.com" {
		t.Fatalf("expected issued token to validate, got %q, %v", email, err)
	}
}

func TestAuthService_Register(t *testing.T) {
	fx := newAuthFixture(t, account("taken@example.com", true, true))
	ctx := context.Background()

	result, err := fx.service.Register(ctx, RegisterInput{
		Email:    "fresh@example.com",
		Password: "long-enough-1",
		FullName: "Fresh Writer",
		RoleIDs:  []int64{3},
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	stored, err := fx.identities.GetByEmail(ctx, "fresh@example.com")
	if err != nil {
		t.Fatalf("expected identity to be stored: %v", err)
	}
	if !stored.Active || stored.Verified {
		t.Fatalf("expected active unverified account, got %+v", stored)
	}
	if !strings.HasPrefix(stored.PasswordHash, "hashed:") {
		t.Fatalf("expected hashed password, got %q", stored.PasswordHash)
	}
	if len(stored.Roles) != 1 || stored.Roles[0].ID != 3 {
		t.Fatalf("expected requested role assigned, got %+v", stored.Roles)
	}
	if time.Until(result.ExpiresAt) > 25*time.Hour {
		t.Fatalf("expected standard session on register, got %v", result.ExpiresAt)
	}
}

func TestAuthService_RegisterRejections(t *testing.T) {
	fx := newAuthFixture(t, account("taken@example.com", true, true))
	ctx := context.Background()

	if _, err := fx.service.Register(ctx, RegisterInput{Email: "taken@example.com", Password: "long-enough-1", FullName: "X"}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if _, err := fx.service.Register(ctx, RegisterInput{Email: "a@example.com", Password: "short", FullName: "X"}); !errors.Is(err, ErrPasswordTooWeak) {
		t.Fatalf("expected ErrPasswordTooWeak, got %v", err)
	}
	if _, err := fx.service.Register(ctx, RegisterInput{Email: "a@example.com", Password: "long-enough-1"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	fx.identities.createErr = repository.ErrConflict
	if _, err := fx.service.Register(ctx, RegisterInput{Email: "race@example.com", Password: "long-enough-1", FullName: "X"}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected insert conflict to map to ErrEmailTaken, got %v", err)
	}
}

func TestAuthService_LogoutFlows(t *testing.T) {
	identity := account("ok@example.com", true, true)
	fx := newAuthFixture(t, identity)
	ctx := context.Background()

	first, _ := fx.service.Login(ctx, identity.Email, "correct-horse", false)
	_, _ = fx.service.Login(ctx, identity.Email, "correct-horse", false)

	if err := fx.service.Logout(ctx, first.Token); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	if err := fx.service.Logout(ctx, first.Token); err != nil {
		t.Fatalf("repeat Logout returned error: %v", err)
	}
	if fx.tokens.count() != 1 {
		t.Fatalf("expected one session left, got %d", fx.tokens.count())
	}

	revoked, err := fx.service.LogoutAll(ctx, &identity)
	if err != nil {
		t.Fatalf("LogoutAll returned error: %v", err)
	}
	if revoked != 1 || fx.tokens.count() != 0 {
		t.Fatalf("expected remaining session revoked, got %d revoked, %d rows", revoked, fx.tokens.count())
	}
	if len(fx.evicted.evicted) != 1 || fx.evicted.evicted[0] != identity.Email {
		t.Fatalf("expected identity cache eviction, got %v", fx.evicted.evicted)
	}
}
