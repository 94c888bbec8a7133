package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"
)

// Handler processes one consumed message. Returning an error leaves the
// offset unmarked so the message is redelivered.
type Handler func(ctx context.Context, topic string, key, payload []byte) error

// ConsumerGroup drains the given topics with at-least-once semantics.
type ConsumerGroup struct {
	group   sarama.ConsumerGroup
	topics  []string
	handler Handler
	log     *slog.Logger
}

func NewConsumerGroup(brokers []string, groupID string, topics []string, handler Handler, log *slog.Logger) (*ConsumerGroup, error) {
	cfg := sarama.NewConfig()
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	cfg.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka: new consumer group: %w", err)
	}
	return &ConsumerGroup{group: group, topics: topics, handler: handler, log: log}, nil
}

// Run consumes until the context is cancelled.
func (c *ConsumerGroup) Run(ctx context.Context) error {
	for {
		if err := c.group.Consume(ctx, c.topics, &groupHandler{handler: c.handler, log: c.log}); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Error("consume error", "err", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (c *ConsumerGroup) Close() error {
	return c.group.Close()
}

type groupHandler struct {
	handler Handler
	log     *slog.Logger
}

func (groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		if err := h.handler(sess.Context(), msg.Topic, msg.Key, msg.Value); err != nil {
			h.log.Error("message handling failed", "topic", msg.Topic, "offset", msg.Offset, "err", err)
			continue
		}
		sess.MarkMessage(msg, "")
	}
	return nil
}
