package alerts

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nabilaes48/knockbites-kitchen-board/internal/rabbitmq"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
)

// Publisher emits chime events for the front-of-house notification devices
// (speakers, pagers, the narration service). Alerts are fire-and-forget:
// publish failures are logged and dropped, never propagated back into the
// sync pipeline.
type Publisher struct {
	client   *rabbitmq.Client
	exchange string
}

// event is the wire form of one chime.
type event struct {
	Kind        string    `json:"kind"`
	OrderNumber string    `json:"orderNumber"`
	At          time.Time `json:"at"`
}

// MustNewPublisher creates a new Publisher and declares its exchange.
func MustNewPublisher(client *rabbitmq.Client) *Publisher {
	exchange := viper.GetString("rabbitmq.alerts_exchange")
	if exchange == "" {
		exchange = "kitchen.alerts"
	}

	if err := client.DeclareExchange(rabbitmq.DeclareExchangeConfig{
		Name: exchange,
		Kind: amqp.ExchangeFanout,
	}); err != nil {
		panic("Failed to declare alerts exchange: " + err.Error())
	}

	return &Publisher{
		client:   client,
		exchange: exchange,
	}
}

// NewOrder raises the new-order chime.
func (p *Publisher) NewOrder(orderNumber string) {
	p.publish("new_order", orderNumber)
}

// Urgent raises the urgent chime.
func (p *Publisher) Urgent(orderNumber string) {
	p.publish("urgent", orderNumber)
}

// Ready raises the order-ready chime.
func (p *Publisher) Ready(orderNumber string) {
	p.publish("ready", orderNumber)
}

func (p *Publisher) publish(kind, orderNumber string) {
	body, err := json.Marshal(event{
		Kind:        kind,
		OrderNumber: orderNumber,
		At:          time.Now().UTC(),
	})
	if err != nil {
		slog.Error("Failed to marshal alert", "kind", kind, "error", err)
		return
	}

	if err := p.client.Publish(rabbitmq.PublishConfig{Exchange: p.exchange}, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	}); err != nil {
		slog.Error("Failed to publish alert", "kind", kind, "order_number", orderNumber, "error", err)
		return
	}

	slog.Info("Alert published", "kind", kind, "order_number", orderNumber)
}
