package kafka

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// ActivityEvent is the envelope published to the shop activity topic.
// Downstream consumers (analytics, stock alerting) key on Type.
type ActivityEvent struct {
	Type      string    `json:"type"`
	UserID    string    `json:"user_id,omitempty"`
	ProductID string    `json:"product_id,omitempty"`
	OrderID   string    `json:"order_id,omitempty"`
	Quantity  int       `json:"quantity,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	EventUserSignedUp    = "user.signed_up"
	EventCartItemAdded   = "cart.item_added"
	EventCartItemRemoved = "cart.item_removed"
	EventStockChanged    = "catalog.stock_changed"
	EventOrderPlaced     = "order.placed"
)

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Producer{writer: writer}
}

// Publish sends an activity event keyed by the given key. A nil Producer is
// a no-op so the services can run without Kafka configured.
func (p *Producer) Publish(ctx context.Context, key string, event ActivityEvent) {
	if p == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[Kafka] Error marshaling event %s: %v", event.Type, err)
		return
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}); err != nil {
		// Activity events are best effort; the request must not fail on them.
		log.Printf("[Kafka] Error publishing %s: %v", event.Type, err)
	}
}

func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
