package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/core/domain"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/core/port"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/infra/logger"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/repository"
)

const (
	defaultSessionTTL    = 24 * time.Hour
	defaultRememberMeTTL = 7 * 24 * time.Hour
)

// TokenGenerator produces the opaque token string stored with each session.
type TokenGenerator interface {
	Generate(identity *domain.Identity) (string, error)
}

// TokenStoreConfig controls how long issued sessions stay valid.
type TokenStoreConfig struct {
	SessionTTL    time.Duration
	RememberMeTTL time.Duration
}

// TokenStore is the authority on session validity. A bearer token is valid
// exactly as long as its usertoken row exists and has not expired.
type TokenStore struct {
	tokens    port.TokenRepository
	generator TokenGenerator
	events    port.EventPublisher
	logger    *zap.Logger
	cfg       TokenStoreConfig
	now       func() time.Time
}

// NewTokenStore constructs a TokenStore. Events may be nil.
func NewTokenStore(tokens port.TokenRepository, generator TokenGenerator, events port.EventPublisher, cfg TokenStoreConfig, logger *zap.Logger) *TokenStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	if cfg.RememberMeTTL <= 0 {
		cfg.RememberMeTTL = defaultRememberMeTTL
	}
	return &TokenStore{
		tokens:    tokens,
		generator: generator,
		events:    events,
		logger:    logger,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the internal clock for deterministic tests.
func (s *TokenStore) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Issue generates a token for identity and persists its session row.
func (s *TokenStore) Issue(ctx context.Context, identity *domain.Identity, rememberMe bool) (*domain.IssuedToken, error) {
	if identity == nil || identity.ID == 0 {
		return nil, fmt.Errorf("identity is required")
	}

	value, err := s.generator.Generate(identity)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	ttl := s.cfg.SessionTTL
	if rememberMe {
		ttl = s.cfg.RememberMeTTL
	}

	now := s.now()
	issued := &domain.IssuedToken{
		Token:      value,
		IdentityID: identity.ID,
		OwnerEmail: identity.Email,
		ExpiresAt:  now.Add(ttl),
		RememberMe: rememberMe,
		CreatedAt:  now,
	}
	if err := s.tokens.Create(ctx, issued); err != nil {
		return nil, fmt.Errorf("persist token: %w", err)
	}

	s.publish(ctx, "token issued", func(events port.EventPublisher) error {
		return events.PublishTokenIssued(ctx, domain.TokenIssuedEvent{
			EventID:    uuid.NewString(),
			IdentityID: identity.ID,
			TokenID:    issued.ID,
			RememberMe: rememberMe,
			IssuedAt:   now,
			ExpiresAt:  issued.ExpiresAt,
		})
	})

	return issued, nil
}

// Validate returns the owning identity's email for a live session. A row found
// past its expiration is deleted before ErrTokenNotFoundOrExpired is returned.
func (s *TokenStore) Validate(ctx context.Context, token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", domain.ErrMissingToken
	}

	issued, err := s.tokens.GetWithOwner(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", domain.ErrTokenNotFoundOrExpired
		}
		return "", fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}

	if issued.IsExpired(s.now()) {
		if err := s.tokens.DeleteByID(ctx, issued.ID); err != nil {
			logger.WithContext(ctx).Warn("failed to delete expired token",
				zap.Int64("token_id", issued.ID),
				zap.Error(err),
			)
		}
		return "", domain.ErrTokenNotFoundOrExpired
	}

	return issued.OwnerEmail, nil
}

// Revoke deletes the session row for token. Revoking an unknown token is a no-op.
func (s *TokenStore) Revoke(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}

	deleted, err := s.tokens.DeleteByToken(ctx, token)
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}

	s.publish(ctx, "token revoked", func(events port.EventPublisher) error {
		return events.PublishTokenRevoked(ctx, domain.TokenRevokedEvent{
			EventID:   uuid.NewString(),
			RevokedAt: s.now(),
			Found:     deleted > 0,
		})
	})
	return nil
}

// RevokeAll deletes every session owned by identityID.
func (s *TokenStore) RevokeAll(ctx context.Context, identityID int64) (int64, error) {
	deleted, err := s.tokens.DeleteByIdentity(ctx, identityID)
	if err != nil {
		return 0, fmt.Errorf("revoke identity tokens: %w", err)
	}

	s.publish(ctx, "tokens revoked", func(events port.EventPublisher) error {
		return events.PublishTokensRevokedAll(ctx, domain.TokensRevokedAllEvent{
			EventID:    uuid.NewString(),
			IdentityID: identityID,
			Revoked:    deleted,
			RevokedAt:  s.now(),
		})
	})
	return deleted, nil
}

// PurgeExpired deletes every session whose expiration has passed.
func (s *TokenStore) PurgeExpired(ctx context.Context) (int64, error) {
	now := s.now()
	purged, err := s.tokens.DeleteExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("purge expired tokens: %w", err)
	}

	if purged > 0 {
		s.publish(ctx, "tokens purged", func(events port.EventPublisher) error {
			return events.PublishTokensPurged(ctx, domain.TokensPurgedEvent{
				EventID:  uuid.NewString(),
				Purged:   purged,
				PurgedAt: now,
			})
		})
	}
	return purged, nil
}

// publish is best-effort: a broker failure never fails the session operation.
func (s *TokenStore) publish(ctx context.Context, what string, fn func(port.EventPublisher) error) {
	if s.events == nil {
		return
	}
	if err := fn(s.events); err != nil {
		s.logger.Warn("failed to publish session event", zap.String("event", what), zap.Error(err))
	}
}
