package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/core/domain"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/core/port"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/infra/config"
)

const schemaVersion = "1.0"

// Session event types. The topic is the type behind the configured prefix.
const (
	EventTokenIssued      = "session.token.issued"
	EventTokenRevoked     = "session.token.revoked"
	EventTokensRevokedAll = "session.token.revoked_all"
	EventTokensPurged     = "session.token.purged"
)

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type eventEnvelope struct {
	EventID    string            `json:"event_id"`
	EventType  string            `json:"event_type"`
	IdentityID string            `json:"identity_id,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
	Version    string            `json:"version"`
	Payload    any               `json:"payload"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType string, identityID int64, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	if eventID == "" {
		eventID = uuid.NewString()
	}

	metadata := map[string]string{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		metadata["trace_id"] = sc.TraceID().String()
	}

	envelope := eventEnvelope{
		EventID:   eventID,
		EventType: eventType,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	}
	if identityID != 0 {
		envelope.IdentityID = strconv.FormatInt(identityID, 10)
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}
	if envelope.IdentityID != "" {
		message.Key = sarama.StringEncoder(envelope.IdentityID)
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishTokenIssued publishes session.token.issued events.
func (p *EventPublisher) PublishTokenIssued(ctx context.Context, event domain.TokenIssuedEvent) error {
	payload := struct {
		IdentityID int64     `json:"identity_id"`
		TokenID    int64     `json:"token_id"`
		RememberMe bool      `json:"remember_me"`
		IssuedAt   time.Time `json:"issued_at"`
		ExpiresAt  time.Time `json:"expires_at"`
	}{
		IdentityID: event.IdentityID,
		TokenID:    event.TokenID,
		RememberMe: event.RememberMe,
		IssuedAt:   event.IssuedAt.UTC(),
		ExpiresAt:  event.ExpiresAt.UTC(),
	}
	return p.publish(ctx, event.EventID, EventTokenIssued, event.IdentityID, event.IssuedAt, payload)
}

// PublishTokenRevoked publishes session.token.revoked events.
func (p *EventPublisher) PublishTokenRevoked(ctx context.Context, event domain.TokenRevokedEvent) error {
	payload := struct {
		RevokedAt time.Time `json:"revoked_at"`
		Found     bool      `json:"found"`
	}{
		RevokedAt: event.RevokedAt.UTC(),
		Found:     event.Found,
	}
	return p.publish(ctx, event.EventID, EventTokenRevoked, 0, event.RevokedAt, payload)
}

// PublishTokensRevokedAll publishes session.token.revoked_all events.
func (p *EventPublisher) PublishTokensRevokedAll(ctx context.Context, event domain.TokensRevokedAllEvent) error {
	payload := struct {
		IdentityID int64     `json:"identity_id"`
		Revoked    int64     `json:"revoked"`
		RevokedAt  time.Time `json:"revoked_at"`
	}{
		IdentityID: event.IdentityID,
		Revoked:    event.Revoked,
		RevokedAt:  event.RevokedAt.UTC(),
	}
	return p.publish(ctx, event.EventID, EventTokensRevokedAll, event.IdentityID, event.RevokedAt, payload)
}

// PublishTokensPurged publishes session.token.purged events.
func (p *EventPublisher) PublishTokensPurged(ctx context.Context, event domain.TokensPurgedEvent) error {
	payload := struct {
		Purged   int64     `json:"purged"`
		PurgedAt time.Time `json:"purged_at"`
	}{
		Purged:   event.Purged,
		PurgedAt: event.PurgedAt.UTC(),
	}
	return p.publish(ctx, event.EventID, EventTokensPurged, 0, event.PurgedAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
