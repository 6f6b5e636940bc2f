package order

import (
	"errors"
	"time"
)

// OrderType classifies how the customer receives the order.
type OrderType string

const (
	OrderTypePickup   OrderType = "pickup"
	OrderTypeDelivery OrderType = "delivery"
	OrderTypeDineIn   OrderType = "dineIn"
)

var ErrInvalidOrderType = errors.New("invalid order type")

func (t OrderType) String() string {
	return string(t)
}

func ParseOrderType(s string) (OrderType, error) {
	switch s {
	case OrderTypePickup.String():
		return OrderTypePickup, nil
	case OrderTypeDelivery.String():
		return OrderTypeDelivery, nil
	case OrderTypeDineIn.String():
		return OrderTypeDineIn, nil
	default:
		return "", ErrInvalidOrderType
	}
}

// OrderItem represents one line of an order.
type OrderItem struct {
	Name           string   `json:"name"`
	Quantity       int      `json:"quantity"`
	Customizations []string `json:"customizations,omitempty"`
	Notes          string   `json:"notes,omitempty"`
}

// Order represents one customer order visible to the kitchen. ID is stable
// for the order's lifetime; everything else reflects the latest fetch.
type Order struct {
	ID                  string      `json:"id"`
	OrderNumber         string      `json:"orderNumber"`
	CustomerName        string      `json:"customerName"`
	Type                OrderType   `json:"type"`
	Items               []OrderItem `json:"items"`
	Status              Status      `json:"status"`
	PlacedAt            time.Time   `json:"placedAt"`
	SpecialInstructions string      `json:"specialInstructions,omitempty"`
	EstimatedPrepTime   int         `json:"estimatedPrepTime"`
}

// Waiting reports how long the order has been on the board at now.
func (o Order) Waiting(now time.Time) time.Duration {
	return now.Sub(o.PlacedAt)
}

// MinutesWaiting is Waiting truncated to whole minutes, for display.
func (o Order) MinutesWaiting(now time.Time) int {
	return int(o.Waiting(now).Minutes())
}

// EstimatedReadyTime is the placement time plus the estimated prep time.
func (o Order) EstimatedReadyTime() time.Time {
	return o.PlacedAt.Add(time.Duration(o.EstimatedPrepTime) * time.Minute)
}
