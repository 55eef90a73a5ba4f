package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/core/domain"
)

// Invalidation event types consumed from the user and role management services.
const (
	EventIdentityChanged   = "identity.changed"
	EventRoleGrantsChanged = "role.grants.changed"
)

// IdentityEvicter drops a cached identity.
type IdentityEvicter interface {
	Evict(email string)
}

// GrantEvicter drops cached role grants.
type GrantEvicter interface {
	Evict(roleID int64)
	Clear()
}

// CacheInvalidationConsumer evicts cached identities and role grants when the
// owning services announce a change.
type CacheInvalidationConsumer struct {
	identities IdentityEvicter
	grants     GrantEvicter
	prefix     string
	logger     *zap.Logger
}

// NewCacheInvalidationConsumer constructs a consumer. topicPrefix must match
// the prefix the publishers use.
func NewCacheInvalidationConsumer(identities IdentityEvicter, grants GrantEvicter, topicPrefix string, logger *zap.Logger) *CacheInvalidationConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheInvalidationConsumer{identities: identities, grants: grants, prefix: topicPrefix, logger: logger}
}

// Topics lists the topics the consumer subscribes to.
func (c *CacheInvalidationConsumer) Topics() []string {
	return []string{topicName(c.prefix, EventIdentityChanged), topicName(c.prefix, EventRoleGrantsChanged)}
}

// HandleMessage decodes a Kafka message by topic prior to processing.
func (c *CacheInvalidationConsumer) HandleMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	if msg == nil {
		return errors.New("message is nil")
	}

	switch msg.Topic {
	case topicName(c.prefix, EventIdentityChanged):
		var event domain.IdentityChangedEvent
		if err := decodePayload(msg.Value, &event); err != nil {
			return fmt.Errorf("decode identity changed event: %w", err)
		}
		return c.HandleIdentityChanged(ctx, event)
	case topicName(c.prefix, EventRoleGrantsChanged):
		var event domain.RoleGrantsChangedEvent
		if err := decodePayload(msg.Value, &event); err != nil {
			return fmt.Errorf("decode role grants changed event: %w", err)
		}
		return c.HandleRoleGrantsChanged(ctx, event)
	default:
		return fmt.Errorf("unexpected topic %q", msg.Topic)
	}
}

// HandleIdentityChanged evicts the changed identity.
func (c *CacheInvalidationConsumer) HandleIdentityChanged(_ context.Context, event domain.IdentityChangedEvent) error {
	if event.Email == "" {
		return errors.New("identity changed event without email")
	}
	if c.identities != nil {
		c.identities.Evict(event.Email)
	}
	c.logger.Debug("identity evicted", zap.String("event_id", event.EventID))
	return nil
}

// HandleRoleGrantsChanged evicts one role's grants, or all of them.
func (c *CacheInvalidationConsumer) HandleRoleGrantsChanged(_ context.Context, event domain.RoleGrantsChangedEvent) error {
	if c.grants == nil {
		return nil
	}
	switch {
	case event.All:
		c.grants.Clear()
	case event.RoleID != 0:
		c.grants.Evict(event.RoleID)
	default:
		return errors.New("role grants changed event without role")
	}
	c.logger.Debug("role grants evicted",
		zap.String("event_id", event.EventID),
		zap.Int64("role_id", event.RoleID),
		zap.Bool("all", event.All),
	)
	return nil
}

// decodePayload accepts either a bare event or one wrapped in the envelope
// this service publishes with.
func decodePayload(raw []byte, target any) error {
	var envelope struct {
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return err
	}
	if len(envelope.Payload) > 0 && string(envelope.Payload) != "null" {
		raw = envelope.Payload
	}
	return json.Unmarshal(raw, target)
}
