package subscriber

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nabilaes48/knockbites-kitchen-board/internal/dal/interfaces/iorderstore"
	"github.com/nabilaes48/knockbites-kitchen-board/internal/rabbitmq"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"golang.org/x/sync/errgroup"
)

// Subscriber delivers order-change signals from RabbitMQ. The order service
// publishes a message to the updates exchange whenever anything about a
// store's orders changes; the payload carries no information, a delivery only
// means "something changed" and the board re-fetches.
type Subscriber struct {
	client *rabbitmq.Client
}

// NewSubscriber creates a new Subscriber.
func NewSubscriber(client *rabbitmq.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe binds an exclusive queue to the store's routing key on the
// updates exchange and invokes onSignal once per delivery.
func (s *Subscriber) Subscribe(ctx context.Context, storeID string, onSignal func()) (iorderstore.Subscription, error) {
	exchange := viper.GetString("rabbitmq.orders_exchange")
	if exchange == "" {
		exchange = "orders.updates"
	}

	if err := s.client.DeclareExchange(rabbitmq.DeclareExchangeConfig{
		Name:    exchange,
		Kind:    amqp.ExchangeDirect,
		Durable: true,
	}); err != nil {
		return nil, fmt.Errorf("declare updates exchange: %w", err)
	}

	queue, err := s.client.DeclareQueue(rabbitmq.DeclareQueueConfig{
		Name:       "",
		AutoDelete: true,
		Exclusive:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("declare signal queue: %w", err)
	}

	if err := s.client.BindQueue(queue.Name, storeID, exchange); err != nil {
		return nil, fmt.Errorf("bind signal queue: %w", err)
	}

	consumerTag := "kitchen-board-" + storeID
	msgs, err := s.client.Consume(rabbitmq.ConsumeConfig{
		Queue:    queue.Name,
		Consumer: consumerTag,
		AutoAck:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("consume signal queue: %w", err)
	}

	sub := &subscription{client: s.client, tag: consumerTag}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Order update subscription started", "queue", queue.Name, "store_id", storeID)

		for {
			select {
			case <-gctx.Done():
				return nil
			case msg, ok := <-msgs:
				if !ok {
					// The push feed died. The board stays usable: the
					// auto-refresh timer provides liveness on its own.
					slog.Error("Order update subscription channel closed", "store_id", storeID)
					return nil
				}
				slog.Debug("Order change signal received",
					"store_id", storeID,
					"delivery_tag", msg.DeliveryTag,
				)
				onSignal()
			}
		}
	})

	go func() {
		if err := g.Wait(); err != nil {
			slog.Error("Order update subscription error", "store_id", storeID, "error", err)
		}
	}()

	return sub, nil
}

// subscription is a cancel handle for one open subscription.
type subscription struct {
	client *rabbitmq.Client
	tag    string
	once   sync.Once
}

// Cancel stops the consumer. Safe to call more than once.
func (s *subscription) Cancel() {
	s.once.Do(func() {
		if err := s.client.CancelConsumer(s.tag); err != nil {
			slog.Error("Failed to cancel order update subscription", "consumer_tag", s.tag, "error", err)
		}
	})
}
