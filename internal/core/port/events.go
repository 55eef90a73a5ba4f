package port

import (
	"context"

	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/core/domain"
)

// EventPublisher publishes session lifecycle events to the message bus.
type EventPublisher interface {
	PublishTokenIssued(ctx context.Context, event domain.TokenIssuedEvent) error
	PublishTokenRevoked(ctx context.Context, event domain.TokenRevokedEvent) error
	PublishTokensRevokedAll(ctx context.Context, event domain.TokensRevokedAllEvent) error
	PublishTokensPurged(ctx context.Context, event domain.TokensPurgedEvent) error
}
