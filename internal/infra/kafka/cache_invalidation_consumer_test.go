package kafka

import (
	"context"
	"sync"
	"testing"

	"github.com/IBM/sarama"
	"go.uber.org/zap/zaptest"
)

type recordingEvicter struct {
	mu     sync.Mutex
	emails []string
}

func (r *recordingEvicter) Evict(email string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emails = append(r.emails, email)
}

type recordingGrantEvicter struct {
	mu      sync.Mutex
	roleIDs []int64
	clears  int
}

func (r *recordingGrantEvicter) Evict(roleID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roleIDs = append(r.roleIDs, roleID)
}

func (r *recordingGrantEvicter) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clears++
}

func newTestInvalidationConsumer(t *testing.T) (*CacheInvalidationConsumer, *recordingEvicter, *recordingGrantEvicter) {
	t.Helper()
	identities := &recordingEvicter{}
	grants := &recordingGrantEvicter{}
	return NewCacheInvalidationConsumer(identities, grants, "cms", zaptest.NewLogger(t)), identities, grants
}

func TestCacheInvalidationConsumer_HandleMessage(t *testing.T) {
	consumer, identities, grants := newTestInvalidationConsumer(t)
	ctx := context.Background()

	messages := []*sarama.ConsumerMessage{
		{Topic: "cms.identity.changed", Value: []byte(`{"event_id":"e1","email":"writer@example.com"}`)},
		{Topic: "cms.role.grants.changed", Value: []byte(`{"event_id":"e2","role_id":4}`)},
		{Topic: "cms.role.grants.changed", Value: []byte(`{"event_type":"role.grants.changed","payload":{"all":true}}`)},
	}
	for _, msg := range messages {
		if err := consumer.HandleMessage(ctx, msg); err != nil {
			t.Fatalf("HandleMessage(%s) returned error: %v", msg.Topic, err)
		}
	}

	if len(identities.emails) != 1 || identities.emails[0] != "writer@example.com" {
		t.Fatalf("unexpected identity evictions: %v", identities.emails)
	}
	if len(grants.roleIDs) != 1 || grants.roleIDs[0] != 4 {
		t.Fatalf("unexpected role evictions: %v", grants.roleIDs)
	}
	if grants.clears != 1 {
		t.Fatalf("expected one clear, got %d", grants.clears)
	}
}

func TestCacheInvalidationConsumer_RejectsBadMessages(t *testing.T) {
	consumer, identities, grants := newTestInvalidationConsumer(t)
	ctx := context.Background()

	bad := []*sarama.ConsumerMessage{
		nil,
		{Topic: "cms.identity.changed", Value: []byte(`not-json`)},
		{Topic: "cms.identity.changed", Value: []byte(`{"event_id":"e1"}`)},
		{Topic: "cms.role.grants.changed", Value: []byte(`{"event_id":"e2"}`)},
		{Topic: "cms.unknown", Value: []byte(`{}`)},
	}
	for i, msg := range bad {
		if err := consumer.HandleMessage(ctx, msg); err == nil {
			t.Fatalf("message %d: expected error", i)
		}
	}
	if len(identities.emails) != 0 || len(grants.roleIDs) != 0 || grants.clears != 0 {
		t.Fatal("expected no evictions for rejected messages")
	}
}

func TestCacheInvalidationConsumer_Topics(t *testing.T) {
	consumer, _, _ := newTestInvalidationConsumer(t)
	topics := consumer.Topics()
	if len(topics) != 2 || topics[0] != "cms.identity.changed" || topics[1] != "cms.role.grants.changed" {
		t.Fatalf("unexpected topics: %v", topics)
	}
}

type fakeSession struct {
	ctx    context.Context
	mu     sync.Mutex
	marked []int64
}

func (s *fakeSession) Claims() map[string][]int32 { return nil }

func (s *fakeSession) MemberID() string { return "member-1" }

func (s *fakeSession) GenerationID() int32 { return 1 }

func (s *fakeSession) MarkOffset(string, int32, int64, string) {}

func (s *fakeSession) Commit() {}

func (s *fakeSession) ResetOffset(string, int32, int64, string) {}

func (s *fakeSession) Context() context.Context { return s.ctx }

func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, msg.Offset)
}

type fakeClaim struct {
	messages chan *sarama.ConsumerMessage
}

func (c *fakeClaim) Topic() string { return "cms.identity.changed" }

func (c *fakeClaim) Partition() int32 { return 0 }

func (c *fakeClaim) InitialOffset() int64 { return 0 }

func (c *fakeClaim) HighWaterMarkOffset() int64 { return 0 }

func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.messages }

func TestConsumerGroup_ConsumeClaimMarksEveryMessage(t *testing.T) {
	consumer, identities, _ := newTestInvalidationConsumer(t)
	group := newConsumerGroup(nil, consumer, zaptest.NewLogger(t))

	claim := &fakeClaim{messages: make(chan *sarama.ConsumerMessage, 2)}
	claim.messages <- &sarama.ConsumerMessage{Topic: "cms.identity.changed", Offset: 10, Value: []byte(`{"email":"a@example.com"}`)}
	claim.messages <- &sarama.ConsumerMessage{Topic: "cms.identity.changed", Offset: 11, Value: []byte(`garbage`)}
	close(claim.messages)

	session := &fakeSession{ctx: context.Background()}
	if err := group.ConsumeClaim(session, claim); err != nil {
		t.Fatalf("ConsumeClaim returned error: %v", err)
	}

	if len(session.marked) != 2 {
		t.Fatalf("expected both offsets marked, got %v", session.marked)
	}
	if len(identities.emails) != 1 || identities.emails[0] != "a@example.com" {
		t.Fatalf("unexpected identity evictions: %v", identities.emails)
	}
}
