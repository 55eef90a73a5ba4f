package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/core/domain"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/core/port"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/infra/logger"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/repository"
)

var (
	// ErrInvalidCredentials indicates the email or password is wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountInactive indicates the account was deactivated.
	ErrAccountInactive = errors.New("account is deactivated")
	// ErrAccountUnverified indicates the account has not verified its email yet.
	ErrAccountUnverified = errors.New("account is not verified")
	// ErrEmailTaken indicates registration with an email that already exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrPasswordTooWeak indicates the password failed the password policy.
	ErrPasswordTooWeak = errors.New("password does not meet policy")
	// ErrInvalidInput indicates a required field is missing.
	ErrInvalidInput = errors.New("invalid input")
)

// PasswordHasher hashes and verifies account passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

// PasswordPolicy validates new passwords.
type PasswordPolicy interface {
	Validate(password string, userInputs ...string) error
}

// IdentityEvicter drops cached identities.
type IdentityEvicter interface {
	Evict(email string)
}

// LoginResult is returned by Login and Register.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Identity  *domain.Identity
}

// RegisterInput carries the fields accepted on self registration.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
	RoleIDs  []int64
}

// AuthService coordinates login, registration and logout flows on top of the TokenStore.
type AuthService struct {
	identities port.IdentityRepository
	sessions   *TokenStore
	passwords  PasswordHasher
	policy     PasswordPolicy
	cache      IdentityEvicter
	logger     *zap.Logger
}

// NewAuthService constructs an AuthService. policy and cache may be nil.
func NewAuthService(identities port.IdentityRepository, sessions *TokenStore, passwords PasswordHasher, policy PasswordPolicy, cache IdentityEvicter, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		identities: identities,
		sessions:   sessions,
		passwords:  passwords,
		policy:     policy,
		cache:      cache,
		logger:     logger,
	}
}

// Login checks credentials and account state and issues a new session.
func (s *AuthService) Login(ctx context.Context, email, password string, rememberMe bool) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	identity, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup identity: %w", err)
	}

	if !identity.Active {
		return nil, ErrAccountInactive
	}

	ok, err := s.passwords.Verify(password, identity.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		logger.WithContext(ctx).Info("login rejected", zap.String("email", logger.MaskEmail(email)))
		return nil, ErrInvalidCredentials
	}

	if !identity.Verified {
		return nil, ErrAccountUnverified
	}

	issued, err := s.sessions.Issue(ctx, identity, rememberMe)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Token: issued.Token, ExpiresAt: issued.ExpiresAt, Identity: sanitize(identity)}, nil
}

// Register creates an active, unverified account and logs it in with a
// standard (non remember-me) session.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*LoginResult, error) {
	email := strings.TrimSpace(input.Email)
	fullName := strings.TrimSpace(input.FullName)
	if email == "" || input.Password == "" || fullName == "" {
		return nil, fmt.Errorf("%w: email, password and full name are required", ErrInvalidInput)
	}

	exists, err := s.identities.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, ErrEmailTaken
	}

	if s.policy != nil {
		if err := s.policy.Validate(input.Password, email, fullName); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPasswordTooWeak, err)
		}
	}

	hash, err := s.passwords.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	identity := &domain.Identity{
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		Active:       true,
		Verified:     false,
	}
	if err := s.identities.Create(ctx, identity, input.RoleIDs); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create identity: %w", err)
	}

	issued, err := s.sessions.Issue(ctx, identity, false)
	if err != nil {
		return nil, err
	}

	s.logger.Info("identity registered",
		zap.Int64("identity_id", identity.ID),
		zap.String("email", logger.MaskEmail(email)),
	)

	return &LoginResult{Token: issued.Token, ExpiresAt: issued.ExpiresAt, Identity: sanitize(identity)}, nil
}

// Logout revokes the presented token. It is idempotent.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Revoke(ctx, token)
}

// LogoutAll revokes every session of identity and drops it from the identity cache.
func (s *AuthService) LogoutAll(ctx context.Context, identity *domain.Identity) (int64, error) {
	if identity == nil {
		return 0, fmt.Errorf("%w: identity is required", ErrInvalidInput)
	}

	revoked, err := s.sessions.RevokeAll(ctx, identity.ID)
	if err != nil {
		return 0, err
	}
	if s.cache != nil {
		s.cache.Evict(identity.Email)
	}
	return revoked, nil
}

// PurgeExpired removes every expired session row.
func (s *AuthService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.sessions.PurgeExpired(ctx)
}

func sanitize(identity *domain.Identity) *domain.Identity {
	copied := *identity
	copied.PasswordHash = ""
	copied.Roles = append([]domain.Role(nil), identity.Roles...)
	return &copied
}
