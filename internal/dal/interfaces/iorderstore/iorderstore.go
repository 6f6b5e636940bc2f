package iorderstore

import (
	"context"

	"github.com/nabilaes48/knockbites-kitchen-board/internal/service/models/order"
)

// Subscription is a handle to an open push-signal subscription.
type Subscription interface {
	// Cancel stops delivery of further signals. Safe to call more than once.
	Cancel()
}

// IOrderStore is the remote authority for order records.
type IOrderStore interface {
	// FetchOrders returns the full current active-order set for a store,
	// never a delta.
	FetchOrders(ctx context.Context, storeID string) ([]order.Order, error)

	// UpdateOrderStatus writes a status change to the remote store.
	UpdateOrderStatus(ctx context.Context, orderID string, status order.Status) error
}

// ISubscriber delivers no-payload "something changed" signals for a store.
// The caller must re-fetch to learn what changed.
type ISubscriber interface {
	Subscribe(ctx context.Context, storeID string, onSignal func()) (Subscription, error)
}
