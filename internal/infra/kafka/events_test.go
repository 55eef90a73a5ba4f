package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap/zaptest"

	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/core/domain"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/infra/config"
)

type fakeAsyncProducer struct {
	input  chan *sarama.ProducerMessage
	errors chan *sarama.ProducerError
}

func newFakeAsyncProducer() *fakeAsyncProducer {
	return &fakeAsyncProducer{
		input:  make(chan *sarama.ProducerMessage, 1),
		errors: make(chan *sarama.ProducerError, 1),
	}
}

func (f *fakeAsyncProducer) AsyncClose() {}

func (f *fakeAsyncProducer) Close() error { return nil }

func (f *fakeAsyncProducer) Input() chan<- *sarama.ProducerMessage { return f.input }

func (f *fakeAsyncProducer) Successes() <-chan *sarama.ProducerMessage { return nil }

func (f *fakeAsyncProducer) Errors() <-chan *sarama.ProducerError { return f.errors }

func (f *fakeAsyncProducer) IsTransactional() bool { return false }

func (f *fakeAsyncProducer) BeginTxn() error { return nil }

func (f *fakeAsyncProducer) CommitTxn() error { return nil }

func (f *fakeAsyncProducer) AbortTxn() error { return nil }

func (f *fakeAsyncProducer) AddOffsetsToTxn(offsets map[string][]*sarama.PartitionOffsetMetadata, groupID string) error {
	return nil
}

func (f *fakeAsyncProducer) AddMessageToTxn(msg *sarama.ConsumerMessage, groupID string, metadata *string) error {
	return nil
}

func (f *fakeAsyncProducer) TxnStatus() sarama.ProducerTxnStatusFlag {
	return 0
}

func newTestPublisher(t *testing.T, asyncProducer *fakeAsyncProducer) *EventPublisher {
	t.Helper()
	producer := newProducer(asyncProducer, config.KafkaSettings{TopicPrefix: "cms"}, zaptest.NewLogger(t))
	return NewEventPublisher(producer, config.AppSettings{Name: "cms-api", Env: "test"}, zaptest.NewLogger(t))
}

func receiveEnvelope(t *testing.T, asyncProducer *fakeAsyncProducer) (*sarama.ProducerMessage, map[string]any) {
	t.Helper()
	select {
	case msg := <-asyncProducer.input:
		bytes, err := msg.Value.Encode()
		if err != nil {
			t.Fatalf("Value.Encode returned error: %v", err)
		}
		var envelope map[string]any
		if err := json.Unmarshal(bytes, &envelope); err != nil {
			t.Fatalf("failed to unmarshal envelope: %v", err)
		}
		return msg, envelope
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message on async producer input channel")
	}
	return nil, nil
}

func TestPublishTokenIssued(t *testing.T) {
	asyncProducer := newFakeAsyncProducer()
	publisher := newTestPublisher(t, asyncProducer)

	issuedAt := time.Date(2025, 10, 31, 12, 0, 0, 0, time.UTC)
	event := domain.TokenIssuedEvent{
		EventID:    "event-123",
		IdentityID: 42,
		TokenID:    7,
		RememberMe: true,
		IssuedAt:   issuedAt,
		ExpiresAt:  issuedAt.Add(7 * 24 * time.Hour),
	}

	if err := publisher.PublishTokenIssued(context.Background(), event); err != nil {
		t.Fatalf("PublishTokenIssued returned error: %v", err)
	}

	msg, envelope := receiveEnvelope(t, asyncProducer)
	if msg.Topic != "cms.session.token.issued" {
		t.Fatalf("unexpected topic: %s", msg.Topic)
	}
	if key, _ := msg.Key.Encode(); string(key) != "42" {
		t.Fatalf("unexpected message key: %s", key)
	}
	if got := envelope["event_id"]; got != event.EventID {
		t.Fatalf("unexpected event_id: %v", got)
	}
	if got := envelope["event_type"]; got != EventTokenIssued {
		t.Fatalf("unexpected event_type: %v", got)
	}
	if got := envelope["identity_id"]; got != "42" {
		t.Fatalf("unexpected identity_id: %v", got)
	}
	if got := envelope["timestamp"]; got != issuedAt.Format(time.RFC3339Nano) {
		t.Fatalf("unexpected timestamp: %v", got)
	}

	payload, ok := envelope["payload"].(map[string]any)
	if !ok {
		t.Fatalf("payload not a map: %T", envelope["payload"])
	}
	if got, _ := payload["token_id"].(float64); int64(got) != event.TokenID {
		t.Fatalf("unexpected token_id: %v", payload["token_id"])
	}
	if got := payload["remember_me"]; got != true {
		t.Fatalf("unexpected remember_me: %v", got)
	}

	metadata, ok := envelope["metadata"].(map[string]any)
	if !ok {
		t.Fatalf("envelope metadata not a map: %T", envelope["metadata"])
	}
	if metadata["service"] != "cms-api" || metadata["environment"] != "test" {
		t.Fatalf("unexpected metadata: %v", metadata)
	}
}

func TestPublishTokenRevokedHasNoIdentity(t *testing.T) {
	asyncProducer := newFakeAsyncProducer()
	publisher := newTestPublisher(t, asyncProducer)

	event := domain.TokenRevokedEvent{EventID: "evt-2", RevokedAt: time.Now().UTC(), Found: false}
	if err := publisher.PublishTokenRevoked(context.Background(), event); err != nil {
		t.Fatalf("PublishTokenRevoked returned error: %v", err)
	}

	msg, envelope := receiveEnvelope(t, asyncProducer)
	if msg.Topic != "cms.session.token.revoked" {
		t.Fatalf("unexpected topic: %s", msg.Topic)
	}
	if msg.Key != nil {
		t.Fatalf("expected no message key, got %v", msg.Key)
	}
	if _, present := envelope["identity_id"]; present {
		t.Fatalf("expected identity_id to be omitted: %v", envelope)
	}
	payload := envelope["payload"].(map[string]any)
	if payload["found"] != false {
		t.Fatalf("unexpected found flag: %v", payload["found"])
	}
}

func TestPublishRespectsCancelledContext(t *testing.T) {
	asyncProducer := &fakeAsyncProducer{input: make(chan *sarama.ProducerMessage)}
	publisher := newTestPublisher(t, asyncProducer)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := publisher.PublishTokensPurged(ctx, domain.TokensPurgedEvent{Purged: 3})
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestTopicName(t *testing.T) {
	tests := []struct {
		prefix, eventType, want string
	}{
		{"", "session.token.issued", "session.token.issued"},
		{"cms", "session.token.issued", "cms.session.token.issued"},
		{"cms", "cms.identity.changed", "cms.identity.changed"},
	}
	for _, tt := range tests {
		if got := topicName(tt.prefix, tt.eventType); got != tt.want {
			t.Fatalf("topicName(%q, %q) = %q, want %q", tt.prefix, tt.eventType, got, tt.want)
		}
	}
}
