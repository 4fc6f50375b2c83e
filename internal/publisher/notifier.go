package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/segmentio/kafka-go"
)

// messageWriter is satisfied by *kafka.Writer; tests swap in a fake.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Notifier publishes order confirmations after commit. Delivery is best
// effort: the checkout workflow logs and swallows any error from here.
type Notifier struct {
	writer  messageWriter
	timeout time.Duration
}

func NewNotifier(brokers ...string) *Notifier {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  "order-confirmations",
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &Notifier{writer: w, timeout: 5 * time.Second}
}

type orderConfirmedPayload struct {
	OrderID     string            `json:"order_id"`
	UserID      string            `json:"user_id"`
	Items       []itemPayload     `json:"items"`
	TotalAmount string            `json:"total_amount"`
	Currency    string            `json:"currency"`
	ConfirmedAt time.Time         `json:"confirmed_at"`
}

type itemPayload struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

func (n *Notifier) OrderConfirmed(ctx context.Context, order *domain.Order) error {
	items := make([]itemPayload, len(order.Items))
	for i, item := range order.Items {
		items[i] = itemPayload{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.StringFixed(2),
		}
	}

	payload, err := json.Marshal(orderConfirmedPayload{
		OrderID:     order.ID.String(),
		UserID:      order.UserID,
		Items:       items,
		TotalAmount: order.Total.StringFixed(2),
		Currency:    order.Currency,
		ConfirmedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal order confirmation: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(order.ID.String()), // order id for partition ordering
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("order.confirmed")},
		},
	}

	writeCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	return n.writer.WriteMessages(writeCtx, msg)
}
