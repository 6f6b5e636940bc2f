package alertsvc

import (
	"log/slog"
	"sync"
	"time"

	"github.com/nabilaes48/knockbites-kitchen-board/internal/service/models/order"
)

const defaultUrgentThreshold = 20 * time.Minute

// notifier is the one-way interface to the external notification subsystem
// (sound, haptics, speech). Calls are fire-and-forget.
type notifier interface {
	NewOrder(orderNumber string)
	Urgent(orderNumber string)
	Ready(orderNumber string)
}

// Dispatcher decides which chimes to raise for one merge result.
//
// Every newly observed order raises the new-order chime; one that has already
// waited past the urgent threshold additionally raises the urgent chime. An
// order whose status just became ready raises the ready chime. The very first
// dispatch after construction only primes the dispatcher: the cold-start
// snapshot is historical backlog and never chimes.
type Dispatcher struct {
	notifier        notifier
	urgentThreshold time.Duration

	mu     sync.Mutex
	primed bool
}

// option is a function that configures the Dispatcher.
type option func(*Dispatcher)

// MustNewDispatcher creates a new Dispatcher.
func MustNewDispatcher(opts ...option) *Dispatcher {
	d := &Dispatcher{urgentThreshold: defaultUrgentThreshold}
	for _, opt := range opts {
		opt(d)
	}

	if d.notifier == nil {
		panic("alertsvc: notifier is not set")
	}

	return d
}

// WithNotifier sets the notification subsystem for the Dispatcher.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithNotifier(n notifier) option {
	return func(d *Dispatcher) {
		d.notifier = n
	}
}

// WithUrgentThreshold overrides the default urgent wait-time threshold.
// Non-positive values keep the default.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUrgentThreshold(threshold time.Duration) option {
	return func(d *Dispatcher) {
		if threshold > 0 {
			d.urgentThreshold = threshold
		}
	}
}

// Dispatch evaluates one merge result at observation time now.
func (d *Dispatcher) Dispatch(now time.Time, newOrders, becameReady []order.Order) {
	d.mu.Lock()
	primed := d.primed
	d.primed = true
	d.mu.Unlock()

	if !primed {
		if len(newOrders) > 0 {
			slog.Debug("Cold-start snapshot, alerts suppressed", "orders", len(newOrders))
		}

		return
	}

	for _, o := range newOrders {
		d.notifier.NewOrder(o.OrderNumber)
		if o.Waiting(now) > d.urgentThreshold {
			slog.Info("Order past urgent threshold",
				"order_number", o.OrderNumber,
				"waiting", o.Waiting(now).String(),
			)
			d.notifier.Urgent(o.OrderNumber)
		}
	}

	for _, o := range becameReady {
		d.notifier.Ready(o.OrderNumber)
	}
}
