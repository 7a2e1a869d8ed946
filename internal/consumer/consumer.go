package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"soukly/internal/domain"
)

// Repricer is the slice of the engine the consumer drives.
type Repricer interface {
	RecalculateOne(ctx context.Context, productID string) (*domain.Product, error)
}

// Consumer listens on the order topic and refreshes derived prices for
// the affected products without waiting for the next batch cycle.
type Consumer struct {
	Engine Repricer
	Reader *kafka.Reader
	Log    zerolog.Logger
}

func NewReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
}

// Run blocks reading order events until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) {
	c.Log.Info().Str("topic", c.Reader.Config().Topic).Msg("order event consumer started")
	for {
		msg, err := c.Reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				c.Log.Info().Msg("order event consumer stopped")
				return
			}
			c.Log.Error().Err(err).Msg("reading order event failed")
			continue
		}
		c.process(ctx, msg)
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message) {
	var event domain.OrderEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.Log.Error().Err(err).Str("key", string(msg.Key)).Msg("unmarshalling order event failed")
		return
	}

	// key -> "order.created.<id>" / "order.confirmed.<id>" / ...
	parts := strings.Split(string(msg.Key), ".")
	if len(parts) < 2 {
		c.Log.Error().Str("key", string(msg.Key)).Msg("unexpected order event key")
		return
	}

	// Every status transition the order flow publishes moves products in
	// or out of the sales window, so each one triggers a refresh.
	switch parts[1] {
	case "created", "confirmed", "shipped", "delivered", "cancelled":
		for _, productID := range event.ProductIDs {
			if _, err := c.Engine.RecalculateOne(ctx, productID); err != nil {
				c.Log.Error().Err(err).Str("product_id", productID).
					Str("order_id", event.OrderID).Msg("on-demand recalculation failed")
			}
		}
	default:
		c.Log.Warn().Str("key", string(msg.Key)).Msg("ignoring order event type")
	}
}
