package seed

import (
	"time"

	"github.com/nabilaes48/knockbites-kitchen-board/internal/service/models/order"
)

// Orders returns the built-in sample order set. It is substituted only when
// the very first fetch fails before any snapshot exists, so the kitchen sees
// a populated board instead of an empty screen while the store is unreachable.
func Orders(now time.Time) []order.Order {
	return []order.Order{
		{
			ID:           "seed-1",
			OrderNumber:  "S-001",
			CustomerName: "Walk-in",
			Type:         order.OrderTypeDineIn,
			Status:       order.StatusReceived,
			PlacedAt:     now.Add(-2 * time.Minute),
			Items: []order.OrderItem{
				{Name: "Smash Burger", Quantity: 1, Customizations: []string{"extra pickles"}},
				{Name: "Fries", Quantity: 1},
			},
			EstimatedPrepTime: 12,
		},
		{
			ID:           "seed-2",
			OrderNumber:  "S-002",
			CustomerName: "App order",
			Type:         order.OrderTypePickup,
			Status:       order.StatusPreparing,
			PlacedAt:     now.Add(-9 * time.Minute),
			Items: []order.OrderItem{
				{Name: "Chicken Wrap", Quantity: 2, Notes: "cut in half"},
			},
			EstimatedPrepTime: 15,
		},
		{
			ID:                  "seed-3",
			OrderNumber:         "S-003",
			CustomerName:        "Courier pickup",
			Type:                order.OrderTypeDelivery,
			Status:              order.StatusReady,
			PlacedAt:            now.Add(-18 * time.Minute),
			SpecialInstructions: "leave at reception",
			Items: []order.OrderItem{
				{Name: "Family Box", Quantity: 1},
			},
			EstimatedPrepTime: 20,
		},
	}
}
