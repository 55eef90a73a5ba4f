package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/core/domain"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. It is used when
// no brokers are configured.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a logging event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType string, at time.Time, fields ...zap.Field) {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	p.logger.Debug("Stub event published",
		append([]zap.Field{zap.String("event_type", eventType), zap.Time("timestamp", at.UTC())}, fields...)...,
	)
}

// PublishTokenIssued logs session.token.issued events.
func (p *StubPublisher) PublishTokenIssued(_ context.Context, event domain.TokenIssuedEvent) error {
	p.logEvent(EventTokenIssued, event.IssuedAt,
		zap.Int64("identity_id", event.IdentityID),
		zap.Int64("token_id", event.TokenID),
		zap.Bool("remember_me", event.RememberMe),
		zap.Time("expires_at", event.ExpiresAt),
	)
	return nil
}

// PublishTokenRevoked logs session.token.revoked events.
func (p *StubPublisher) PublishTokenRevoked(_ context.Context, event domain.TokenRevokedEvent) error {
	p.logEvent(EventTokenRevoked, event.RevokedAt, zap.Bool("found", event.Found))
	return nil
}

// PublishTokensRevokedAll logs session.token.revoked_all events.
func (p *StubPublisher) PublishTokensRevokedAll(_ context.Context, event domain.TokensRevokedAllEvent) error {
	p.logEvent(EventTokensRevokedAll, event.RevokedAt,
		zap.Int64("identity_id", event.IdentityID),
		zap.Int64("revoked", event.Revoked),
	)
	return nil
}

// PublishTokensPurged logs session.token.purged events.
func (p *StubPublisher) PublishTokensPurged(_ context.Context, event domain.TokensPurgedEvent) error {
	p.logEvent(EventTokensPurged, event.PurgedAt, zap.Int64("purged", event.Purged))
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
