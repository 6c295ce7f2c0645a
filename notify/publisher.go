package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderCancelled     = "order.cancelled"
)

// OrderEvent is the payload published for every order change.
type OrderEvent struct {
	Type         string          `json:"type"`
	OrderID      uint            `json:"order_id"`
	OrderNumber  string          `json:"order_number"`
	UserID       uint            `json:"user_id"`
	RestaurantID uint            `json:"restaurant_id"`
	FromStatus   string          `json:"from_status,omitempty"`
	Status       string          `json:"status"`
	Total        decimal.Decimal `json:"total"`
	OccurredAt   time.Time       `json:"occurred_at"`
}

// Publisher emits order events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
	Close() error
}

// KafkaConfig names the brokers and topic order events go to.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// KafkaPublisher writes one message per event, keyed by order id so events of
// an order stay in one partition.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(cfg KafkaConfig) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event OrderEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Type, err)
	}
	msg := kafka.Message{
		Key:     []byte(strconv.FormatUint(uint64(event.OrderID), 10)),
		Value:   value,
		Headers: []kafka.Header{{Key: "event_type", Value: []byte(event.Type)}},
		Time:    event.OccurredAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s event: %w", event.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error { return p.writer.Close() }

// NopPublisher drops events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, OrderEvent) error { return nil }
func (NopPublisher) Close() error                              { return nil }
