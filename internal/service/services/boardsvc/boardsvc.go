package boardsvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nabilaes48/knockbites-kitchen-board/internal/dal/interfaces/iorderstore"
	"github.com/nabilaes48/knockbites-kitchen-board/internal/service/models/order"
	"github.com/nabilaes48/knockbites-kitchen-board/internal/worker/refresh"
	"go.opentelemetry.io/otel"
)

var (
	// ErrUnknownOrder means the order is not on the local board.
	ErrUnknownOrder = errors.New("order not on the board")
	// ErrTerminalStatus means the order has no next lifecycle status.
	ErrTerminalStatus = errors.New("order already completed")
)

// alerter receives merge results for chime dispatch.
type alerter interface {
	Dispatch(now time.Time, newOrders, becameReady []order.Order)
}

// fallbackSource supplies substitute orders when the very first load fails
// before any snapshot exists.
type fallbackSource func(now time.Time) []order.Order

// BoardService reconciles the remote order store into the local board view.
//
// Two producers feed it: the auto-refresh ticker and the push subscription.
// Both funnel through Refresh, whose capacity-1 channel coalesces triggers:
// a trigger arriving while a load is in flight occupies the single pending
// slot and any further triggers are dropped. Merges are serialized by loadMu,
// so the delta computation always runs against a settled known-ID set.
type BoardService struct {
	store      iorderstore.IOrderStore
	subscriber iorderstore.ISubscriber
	alerts     alerter
	fallback   fallbackSource
	storeID    string
	now        func() time.Time

	loadMu sync.Mutex // serializes fetch-and-merge cycles

	mu             sync.RWMutex // guards the board state below
	orders         []order.Order
	known          map[string]struct{}
	loaded         bool // at least one successful real fetch
	firstAttempted bool // at least one load attempt finished

	refreshCh chan struct{}
	stopCh    chan struct{}
	doneCh    chan struct{}
	stopOnce  sync.Once
	started   atomic.Bool

	lifeMu        sync.Mutex // guards the subscription and ticker lifecycle
	sub           iorderstore.Subscription
	refreshWorker *refresh.Worker
}

// option is a function that configures the BoardService.
type option func(*BoardService)

// MustNewBoardService creates a new BoardService.
func MustNewBoardService(opts ...option) *BoardService {
	s := &BoardService{
		known:     make(map[string]struct{}),
		now:       time.Now,
		refreshCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		panic("boardsvc: order store is not set")
	}

	return s
}

// WithOrderStore sets the remote order store for the BoardService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithOrderStore(store iorderstore.IOrderStore) option {
	return func(s *BoardService) {
		s.store = store
	}
}

// WithSubscriber sets the push-signal source for the BoardService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithSubscriber(sub iorderstore.ISubscriber) option {
	return func(s *BoardService) {
		s.subscriber = sub
	}
}

// WithAlertDispatcher sets the alert dispatcher for the BoardService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithAlertDispatcher(a alerter) option {
	return func(s *BoardService) {
		s.alerts = a
	}
}

// WithStoreID sets the store whose orders the board shows.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithStoreID(storeID string) option {
	return func(s *BoardService) {
		s.storeID = storeID
	}
}

// WithFallback sets the first-load fallback data source. A nil source
// disables substitution.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithFallback(f fallbackSource) option {
	return func(s *BoardService) {
		if f != nil {
			s.fallback = f
		}
	}
}

// WithClock overrides the time source. Used in tests.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(now func() time.Time) option {
	return func(s *BoardService) {
		s.now = now
	}
}

// Start launches the run loop that services coalesced refresh triggers.
func (s *BoardService) Start(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	go s.run(ctx)
}

func (s *BoardService) run(ctx context.Context) {
	defer close(s.doneCh)

	slog.Info("Board service run loop started", "store_id", s.storeID)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Board service run loop shutting down")
			return
		case <-s.stopCh:
			slog.Info("Board service run loop stopped")
			return
		case <-s.refreshCh:
			if _, _, err := s.Load(ctx); err != nil {
				slog.Error("Background reload failed", "error", err)
			}
		}
	}
}

// Stop stops the run loop along with the realtime subscription and the
// auto-refresh ticker. An in-flight load completes and applies its result;
// stopping only prevents future triggers.
func (s *BoardService) Stop() {
	s.StopAutoRefresh()
	s.StopRealtime()
	s.stopOnce.Do(func() { close(s.stopCh) })
	if s.started.Load() {
		<-s.doneCh
	}
}

// Refresh schedules a reload. Non-blocking: triggers arriving while a load is
// in flight collapse into at most one pending re-run.
func (s *BoardService) Refresh() {
	select {
	case s.refreshCh <- struct{}{}:
	default:
	}
}

// Load performs one fetch-and-merge cycle. It returns the resulting board
// snapshot and the newly observed orders. On fetch failure the previous
// snapshot is kept and returned alongside the error; the one exception is a
// failed very first load, where the fallback source (if configured) is
// substituted so the board does not start empty.
func (s *BoardService) Load(ctx context.Context) ([]order.Order, []order.Order, error) {
	ctx, span := otel.Tracer("boardsvc").Start(ctx, "BoardService.Load")
	defer span.End()

	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	fetched, err := s.store.FetchOrders(ctx, s.storeID)
	if err != nil {
		s.mu.Lock()
		substitute := !s.loaded && !s.firstAttempted && s.fallback != nil
		s.firstAttempted = true
		s.mu.Unlock()

		if substitute {
			slog.Warn("First load failed, substituting fallback data", "store_id", s.storeID, "error", err)
			delta := s.merge(s.fallback(s.now()), false)

			return s.Snapshot(), delta, nil
		}

		slog.Error("Fetch failed, keeping previous snapshot", "store_id", s.storeID, "error", err)

		return s.Snapshot(), nil, fmt.Errorf("fetch orders: %w", err)
	}

	delta := s.merge(fetched, true)

	return s.Snapshot(), delta, nil
}

// merge replaces the local collection with fetched, computes the new-order
// delta against the known-ID set, and dispatches alerts. The delta is taken
// strictly before the known set is updated, and the whole mutation is a
// single critical section: readers never observe a partial merge.
func (s *BoardService) merge(fetched []order.Order, realFetch bool) []order.Order {
	sort.SliceStable(fetched, func(i, j int) bool {
		return fetched[i].PlacedAt.Before(fetched[j].PlacedAt)
	})

	s.mu.Lock()

	prev := make(map[string]order.Status, len(s.orders))
	for _, o := range s.orders {
		prev[o.ID] = o.Status
	}

	var delta, becameReady []order.Order
	for _, o := range fetched {
		if _, ok := s.known[o.ID]; !ok {
			delta = append(delta, o)
		}
		if st, ok := prev[o.ID]; ok && st != order.StatusReady && o.Status == order.StatusReady {
			becameReady = append(becameReady, o)
		}
	}

	for _, o := range delta {
		s.known[o.ID] = struct{}{}
	}

	// The remote store is the authority on existence: full replacement, so
	// orders missing from the fetch drop off the board.
	s.orders = fetched
	if realFetch {
		s.loaded = true
	}
	s.firstAttempted = true
	s.mu.Unlock()

	if len(delta) > 0 {
		slog.Info("New orders observed", "count", len(delta), "store_id", s.storeID)
	}

	if s.alerts != nil {
		s.alerts.Dispatch(s.now(), delta, becameReady)
	}

	return delta
}

// UpdateStatus writes a status change to the remote store and, only after
// the remote confirms, mutates the matching local order. A failed update
// leaves local state untouched; there is no optimistic write to roll back.
func (s *BoardService) UpdateStatus(ctx context.Context, orderID string, status order.Status) error {
	ctx, span := otel.Tracer("boardsvc").Start(ctx, "BoardService.UpdateStatus")
	defer span.End()

	if err := s.store.UpdateOrderStatus(ctx, orderID, status); err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	s.mu.Lock()
	for i := range s.orders {
		if s.orders[i].ID == orderID {
			s.orders[i].Status = status
			break
		}
	}
	s.mu.Unlock()

	slog.Info("Order status updated", "order_id", orderID, "status", status.String())

	return nil
}

// AdvanceStatus moves an order to its canonical next lifecycle status.
func (s *BoardService) AdvanceStatus(ctx context.Context, orderID string) (order.Status, error) {
	current, ok := s.find(orderID)
	if !ok {
		return "", fmt.Errorf("advance order %s: %w", orderID, ErrUnknownOrder)
	}

	next, ok := current.Status.Next()
	if !ok {
		return "", fmt.Errorf("advance order %s: %w", orderID, ErrTerminalStatus)
	}

	if err := s.UpdateStatus(ctx, orderID, next); err != nil {
		return "", err
	}

	return next, nil
}

// OverrideStatus jumps an order directly to the given status, bypassing the
// canonical sequence. This is the staff correction path.
func (s *BoardService) OverrideStatus(ctx context.Context, orderID string, status order.Status) error {
	return s.UpdateStatus(ctx, orderID, status)
}

// StartRealtime opens the push subscription for the board's store. Each
// signal schedules one coalesced reload. Calling it while already started is
// a no-op.
func (s *BoardService) StartRealtime(ctx context.Context) error {
	if s.subscriber == nil {
		return errors.New("no subscriber configured")
	}

	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	if s.sub != nil {
		return nil
	}

	sub, err := s.subscriber.Subscribe(ctx, s.storeID, s.Refresh)
	if err != nil {
		return fmt.Errorf("subscribe to orders: %w", err)
	}
	s.sub = sub

	slog.Info("Realtime updates started", "store_id", s.storeID)

	return nil
}

// StopRealtime cancels the subscription. Safe to call when not started.
func (s *BoardService) StopRealtime() {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	if s.sub == nil {
		return
	}

	s.sub.Cancel()
	s.sub = nil

	slog.Info("Realtime updates stopped", "store_id", s.storeID)
}

// StartAutoRefresh starts the periodic reload ticker. It is independent of
// the realtime path and keeps the board live if the push channel dies.
func (s *BoardService) StartAutoRefresh(ctx context.Context, interval time.Duration) {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	if s.refreshWorker != nil {
		return
	}

	w := refresh.NewWorker(s, interval)
	s.refreshWorker = w
	go w.Start(ctx)
}

// StopAutoRefresh stops the ticker. Safe to call when not started.
func (s *BoardService) StopAutoRefresh() {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	if s.refreshWorker == nil {
		return
	}

	s.refreshWorker.Stop()
	s.refreshWorker = nil
}

// Snapshot returns a copy of the current board, sorted by placement time
// ascending.
func (s *BoardService) Snapshot() []order.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]order.Order, len(s.orders))
	copy(out, s.orders)

	return out
}

// Filtered returns the snapshot narrowed by status and/or order type. Empty
// values match everything. Order within the result follows placement time
// ascending.
func (s *BoardService) Filtered(status order.Status, orderType order.OrderType) []order.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]order.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if status != "" && o.Status != status {
			continue
		}
		if orderType != "" && o.Type != orderType {
			continue
		}
		out = append(out, o)
	}

	return out
}

func (s *BoardService) find(orderID string) (order.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, o := range s.orders {
		if o.ID == orderID {
			return o, true
		}
	}

	return order.Order{}, false
}
