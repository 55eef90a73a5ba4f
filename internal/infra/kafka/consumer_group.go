package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/infra/config"
)

// MessageHandler processes one consumed message.
type MessageHandler interface {
	Topics() []string
	HandleMessage(ctx context.Context, msg *sarama.ConsumerMessage) error
}

// ConsumerGroup runs a MessageHandler inside a Sarama consumer group.
type ConsumerGroup struct {
	group   sarama.ConsumerGroup
	handler MessageHandler
	logger  *zap.Logger
}

// NewConsumerGroup joins cfg.ConsumerGroup on the configured brokers.
func NewConsumerGroup(cfg config.KafkaSettings, clientID string, handler MessageHandler, logger *zap.Logger) (*ConsumerGroup, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are not configured")
	}
	if cfg.ConsumerGroup == "" {
		return nil, errors.New("kafka consumer group is not configured")
	}

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.ConsumerGroup, saramaConfig(clientID))
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer group: %w", err)
	}
	return newConsumerGroup(group, handler, logger), nil
}

func newConsumerGroup(group sarama.ConsumerGroup, handler MessageHandler, logger *zap.Logger) *ConsumerGroup {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsumerGroup{group: group, handler: handler, logger: logger}
}

// Run consumes until ctx is cancelled. Consume returns on every rebalance, so
// it is called in a loop.
func (g *ConsumerGroup) Run(ctx context.Context) error {
	topics := g.handler.Topics()
	g.logger.Info("Kafka consumer started", zap.Strings("topics", topics))

	go func() {
		for err := range g.group.Errors() {
			g.logger.Warn("Kafka consumer error", zap.Error(err))
		}
	}()

	for {
		if err := g.group.Consume(ctx, topics, g); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			g.logger.Error("Kafka consume failed", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// Close leaves the consumer group.
func (g *ConsumerGroup) Close() error {
	if err := g.group.Close(); err != nil {
		return fmt.Errorf("close kafka consumer group: %w", err)
	}
	return nil
}

// Setup implements sarama.ConsumerGroupHandler.
func (g *ConsumerGroup) Setup(sarama.ConsumerGroupSession) error { return nil }

// Cleanup implements sarama.ConsumerGroupHandler.
func (g *ConsumerGroup) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim implements sarama.ConsumerGroupHandler. Messages that fail are
// logged and still marked.
func (g *ConsumerGroup) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := g.handler.HandleMessage(session.Context(), msg); err != nil {
				g.logger.Warn("Kafka message rejected",
					zap.String("topic", msg.Topic),
					zap.Int32("partition", msg.Partition),
					zap.Int64("offset", msg.Offset),
					zap.Error(err),
				)
			}
			session.MarkMessage(msg, "")
		case <-session.Context().Done():
			return nil
		}
	}
}
