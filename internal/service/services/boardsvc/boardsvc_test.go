package boardsvc

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nabilaes48/knockbites-kitchen-board/internal/dal/interfaces/iorderstore"
	"github.com/nabilaes48/knockbites-kitchen-board/internal/service/models/order"
	"github.com/nabilaes48/knockbites-kitchen-board/internal/service/services/alertsvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu          sync.Mutex
	orders      []order.Order
	fetchErr    error
	updateErr   error
	fetchCalls  int
	updateCalls []string

	// optional gates for in-flight fetch control
	fetchStarted chan struct{}
	fetchRelease chan struct{}
}

func (f *fakeStore) FetchOrders(_ context.Context, _ string) ([]order.Order, error) {
	f.mu.Lock()
	f.fetchCalls++
	err := f.fetchErr
	orders := append([]order.Order(nil), f.orders...)
	started, release := f.fetchStarted, f.fetchRelease
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
		<-release
	}
	if err != nil {
		return nil, err
	}

	return orders, nil
}

func (f *fakeStore) UpdateOrderStatus(_ context.Context, orderID string, status order.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls = append(f.updateCalls, orderID+":"+status.String())

	return f.updateErr
}

func (f *fakeStore) setOrders(orders []order.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = orders
}

func (f *fakeStore) setFetchErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchErr = err
}

func (f *fakeStore) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.fetchCalls
}

type fakeSubscription struct {
	mu      sync.Mutex
	cancels int
}

func (s *fakeSubscription) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancels++
}

type fakeSubscriber struct {
	sub      *fakeSubscription
	onSignal func()
}

func (s *fakeSubscriber) Subscribe(_ context.Context, _ string, onSignal func()) (iorderstore.Subscription, error) {
	s.onSignal = onSignal

	return s.sub, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	news   []string
	urgent []string
	ready  []string
}

func (n *recordingNotifier) NewOrder(orderNumber string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.news = append(n.news, orderNumber)
}

func (n *recordingNotifier) Urgent(orderNumber string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.urgent = append(n.urgent, orderNumber)
}

func (n *recordingNotifier) Ready(orderNumber string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ready = append(n.ready, orderNumber)
}

func ord(id string, status order.Status, placedAt time.Time) order.Order {
	return order.Order{
		ID:          id,
		OrderNumber: "N-" + id,
		Type:        order.OrderTypePickup,
		Status:      status,
		PlacedAt:    placedAt,
	}
}

func newBoard(store *fakeStore, opts ...option) *BoardService {
	base := []option{WithOrderStore(store), WithStoreID("store-001")}

	return MustNewBoardService(append(base, opts...)...)
}

func TestLoad_DeltaAgainstKnownSetRegardlessOfFetchOrder(t *testing.T) {
	now := time.Now()
	store := &fakeStore{orders: []order.Order{
		ord("A", order.StatusReceived, now.Add(-2*time.Minute)),
		ord("B", order.StatusReceived, now.Add(-1*time.Minute)),
	}}
	svc := newBoard(store)

	_, delta, err := svc.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, delta, 2, "first load observes everything as new")

	// C and D arrive, delivered in arbitrary order
	store.setOrders([]order.Order{
		ord("D", order.StatusReceived, now),
		ord("B", order.StatusReceived, now.Add(-1*time.Minute)),
		ord("C", order.StatusReceived, now.Add(-30*time.Second)),
		ord("A", order.StatusReceived, now.Add(-2*time.Minute)),
	})

	_, delta, err = svc.Load(context.Background())
	require.NoError(t, err)

	ids := make([]string, 0, len(delta))
	for _, o := range delta {
		ids = append(ids, o.ID)
	}
	assert.ElementsMatch(t, []string{"C", "D"}, ids)
}

func TestLoad_IdempotentMerge(t *testing.T) {
	now := time.Now()
	store := &fakeStore{orders: []order.Order{
		ord("A", order.StatusReceived, now.Add(-2*time.Minute)),
		ord("B", order.StatusPreparing, now.Add(-1*time.Minute)),
	}}
	notifier := &recordingNotifier{}
	svc := newBoard(store, WithAlertDispatcher(alertsvc.MustNewDispatcher(alertsvc.WithNotifier(notifier))))

	first, delta1, err := svc.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, delta1, 2)

	second, delta2, err := svc.Load(context.Background())
	require.NoError(t, err)

	assert.Empty(t, delta2, "unchanged remote result must produce an empty delta")
	assert.Equal(t, first, second)
	assert.Empty(t, notifier.news, "no alerts: first load is cold start, second has no delta")
}

func TestLoad_ColdStartSuppressionThenAlerts(t *testing.T) {
	now := time.Now()
	store := &fakeStore{orders: []order.Order{
		ord("A", order.StatusReceived, now),
		ord("B", order.StatusReceived, now),
		ord("C", order.StatusReceived, now),
	}}
	notifier := &recordingNotifier{}
	svc := newBoard(store, WithAlertDispatcher(alertsvc.MustNewDispatcher(alertsvc.WithNotifier(notifier))))

	_, _, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, notifier.news, "cold-start backlog never chimes")

	store.setOrders(append(store.orders, ord("D", order.StatusReceived, now)))
	_, _, err = svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"N-D"}, notifier.news)
}

func TestLoad_FetchFailureKeepsPreviousSnapshot(t *testing.T) {
	now := time.Now()
	store := &fakeStore{orders: []order.Order{ord("A", order.StatusReceived, now)}}
	svc := newBoard(store)

	_, _, err := svc.Load(context.Background())
	require.NoError(t, err)

	store.setFetchErr(errors.New("connection refused"))
	snapshot, delta, err := svc.Load(context.Background())

	require.Error(t, err)
	assert.Empty(t, delta)
	require.Len(t, snapshot, 1, "previous snapshot retained, never cleared")
	assert.Equal(t, "A", snapshot[0].ID)
}

func TestLoad_FallbackOnlyOnVeryFirstLoad(t *testing.T) {
	store := &fakeStore{fetchErr: errors.New("store unreachable")}
	fallback := func(now time.Time) []order.Order {
		return []order.Order{ord("seed", order.StatusReceived, now)}
	}
	svc := newBoard(store, WithFallback(fallback))

	snapshot, delta, err := svc.Load(context.Background())
	require.NoError(t, err, "substituted first load is not an error")
	require.Len(t, snapshot, 1)
	assert.Equal(t, "seed", snapshot[0].ID)
	assert.Len(t, delta, 1)

	// second failing load must not re-substitute
	snapshot, _, err = svc.Load(context.Background())
	require.Error(t, err)
	require.Len(t, snapshot, 1)
	assert.Equal(t, "seed", snapshot[0].ID)

	// a real fetch replaces the fallback data
	store.setFetchErr(nil)
	store.setOrders([]order.Order{ord("A", order.StatusReceived, time.Now())})
	snapshot, _, err = svc.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	assert.Equal(t, "A", snapshot[0].ID)
}

func TestLoad_FallbackNotUsedAfterSuccessfulLoad(t *testing.T) {
	now := time.Now()
	store := &fakeStore{orders: []order.Order{ord("A", order.StatusReceived, now)}}
	fallback := func(now time.Time) []order.Order {
		return []order.Order{ord("seed", order.StatusReceived, now)}
	}
	svc := newBoard(store, WithFallback(fallback))

	_, _, err := svc.Load(context.Background())
	require.NoError(t, err)

	store.setFetchErr(errors.New("store unreachable"))
	snapshot, _, err := svc.Load(context.Background())
	require.Error(t, err, "fallback must not mask failures after a real fetch")
	assert.Equal(t, "A", snapshot[0].ID)
}

func TestLoad_RemovedOrdersDropWithoutForgettingThem(t *testing.T) {
	now := time.Now()
	store := &fakeStore{orders: []order.Order{
		ord("A", order.StatusReceived, now.Add(-2*time.Minute)),
		ord("B", order.StatusReceived, now.Add(-1*time.Minute)),
	}}
	svc := newBoard(store)

	_, _, err := svc.Load(context.Background())
	require.NoError(t, err)

	store.setOrders([]order.Order{ord("A", order.StatusReceived, now.Add(-2 * time.Minute))})
	snapshot, _, err := svc.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snapshot, 1)

	// B comes back: still known, so no new-order delta
	store.setOrders([]order.Order{
		ord("A", order.StatusReceived, now.Add(-2*time.Minute)),
		ord("B", order.StatusReceived, now.Add(-1*time.Minute)),
	})
	_, delta, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, delta)
}

func TestLoad_ReadyTransitionRaisesReadyChime(t *testing.T) {
	now := time.Now()
	store := &fakeStore{orders: []order.Order{ord("A", order.StatusPreparing, now)}}
	notifier := &recordingNotifier{}
	svc := newBoard(store, WithAlertDispatcher(alertsvc.MustNewDispatcher(alertsvc.WithNotifier(notifier))))

	_, _, err := svc.Load(context.Background())
	require.NoError(t, err)

	store.setOrders([]order.Order{ord("A", order.StatusReady, now)})
	_, _, err = svc.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"N-A"}, notifier.ready)
	assert.Empty(t, notifier.news)
}

func TestUpdateStatus_FailureLeavesLocalStateUntouched(t *testing.T) {
	now := time.Now()
	store := &fakeStore{orders: []order.Order{ord("A", order.StatusPreparing, now)}}
	svc := newBoard(store)

	_, _, err := svc.Load(context.Background())
	require.NoError(t, err)

	store.updateErr = errors.New("remote rejected")
	err = svc.UpdateStatus(context.Background(), "A", order.StatusReady)
	require.Error(t, err)

	snapshot := svc.Snapshot()
	assert.Equal(t, order.StatusPreparing, snapshot[0].Status)
}

func TestUpdateStatus_MutatesOnlyAfterConfirmation(t *testing.T) {
	now := time.Now()
	store := &fakeStore{orders: []order.Order{ord("A", order.StatusPreparing, now)}}
	svc := newBoard(store)

	_, _, err := svc.Load(context.Background())
	require.NoError(t, err)

	require.NoError(t, svc.UpdateStatus(context.Background(), "A", order.StatusReady))

	snapshot := svc.Snapshot()
	assert.Equal(t, order.StatusReady, snapshot[0].Status)
	assert.Equal(t, []string{"A:ready"}, store.updateCalls)
}

func TestAdvanceStatus(t *testing.T) {
	now := time.Now()
	store := &fakeStore{orders: []order.Order{
		ord("A", order.StatusPreparing, now),
		ord("B", order.StatusCompleted, now),
	}}
	svc := newBoard(store)

	_, _, err := svc.Load(context.Background())
	require.NoError(t, err)

	next, err := svc.AdvanceStatus(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, order.StatusReady, next)

	_, err = svc.AdvanceStatus(context.Background(), "B")
	assert.ErrorIs(t, err, ErrTerminalStatus)

	_, err = svc.AdvanceStatus(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUnknownOrder)
}

func TestSnapshot_SortedByPlacedAt(t *testing.T) {
	now := time.Now()
	store := &fakeStore{orders: []order.Order{
		ord("late", order.StatusReceived, now),
		ord("early", order.StatusReceived, now.Add(-10*time.Minute)),
		ord("mid", order.StatusReceived, now.Add(-5*time.Minute)),
	}}
	svc := newBoard(store)

	_, _, err := svc.Load(context.Background())
	require.NoError(t, err)

	snapshot := svc.Snapshot()
	for i := 1; i < len(snapshot); i++ {
		assert.False(t, snapshot[i].PlacedAt.Before(snapshot[i-1].PlacedAt),
			"snapshot must be non-decreasing in placedAt")
	}
	assert.Equal(t, "early", snapshot[0].ID)
}

func TestFiltered(t *testing.T) {
	now := time.Now()
	store := &fakeStore{orders: []order.Order{
		{ID: "1", OrderNumber: "N-1", Type: order.OrderTypePickup, Status: order.StatusReceived, PlacedAt: now},
		{ID: "2", OrderNumber: "N-2", Type: order.OrderTypeDelivery, Status: order.StatusReady, PlacedAt: now.Add(-30 * time.Minute)},
	}}
	svc := newBoard(store)

	_, _, err := svc.Load(context.Background())
	require.NoError(t, err)

	ready := svc.Filtered(order.StatusReady, "")
	require.Len(t, ready, 1)
	assert.Equal(t, "2", ready[0].ID)

	delivery := svc.Filtered("", order.OrderTypeDelivery)
	require.Len(t, delivery, 1)
	assert.Equal(t, "2", delivery[0].ID)

	all := svc.Filtered("", "")
	assert.Len(t, all, 2)
}

// The scenario from the board's alerting rules: one fresh order and one that
// has waited past the urgent threshold, arriving on a non-cold-start load.
func TestScenario_UrgentThresholdOnNewOrders(t *testing.T) {
	now := time.Now()
	store := &fakeStore{}
	notifier := &recordingNotifier{}
	dispatcher := alertsvc.MustNewDispatcher(
		alertsvc.WithNotifier(notifier),
		alertsvc.WithUrgentThreshold(20*time.Minute),
	)
	svc := newBoard(store,
		WithAlertDispatcher(dispatcher),
		WithClock(func() time.Time { return now }),
	)

	// prime with an empty board so the next load is not cold start
	_, _, err := svc.Load(context.Background())
	require.NoError(t, err)

	store.setOrders([]order.Order{
		{ID: "1", OrderNumber: "N-1", Type: order.OrderTypePickup, Status: order.StatusReceived, PlacedAt: now},
		{ID: "2", OrderNumber: "N-2", Type: order.OrderTypeDelivery, Status: order.StatusReady, PlacedAt: now.Add(-30 * time.Minute)},
	})
	_, _, err = svc.Load(context.Background())
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"N-1", "N-2"}, notifier.news)
	assert.Equal(t, []string{"N-2"}, notifier.urgent)

	ready := svc.Filtered(order.StatusReady, "")
	require.Len(t, ready, 1)
	assert.Equal(t, "2", ready[0].ID)
}

func TestRefresh_CoalescesConcurrentTriggers(t *testing.T) {
	store := &fakeStore{
		fetchStarted: make(chan struct{}),
		fetchRelease: make(chan struct{}),
	}
	svc := newBoard(store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)
	defer svc.Stop()

	svc.Refresh()
	<-store.fetchStarted // first load in flight

	// a timer tick and a push signal land together while loading
	svc.Refresh()
	svc.Refresh()
	svc.Refresh()

	store.fetchRelease <- struct{}{} // finish first load
	<-store.fetchStarted            // exactly one pending re-run starts
	store.fetchRelease <- struct{}{}

	select {
	case <-store.fetchStarted:
		t.Fatal("coalescing must collapse concurrent triggers into one re-run")
	case <-time.After(200 * time.Millisecond):
	}

	assert.Equal(t, 2, store.calls())
}

func TestStopRealtime_Idempotent(t *testing.T) {
	store := &fakeStore{}
	sub := &fakeSubscription{}
	svc := newBoard(store, WithSubscriber(&fakeSubscriber{sub: sub}))

	// stop before start is safe
	svc.StopRealtime()

	require.NoError(t, svc.StartRealtime(context.Background()))
	svc.StopRealtime()
	svc.StopRealtime()

	assert.Equal(t, 1, sub.cancels)
}

func TestStartRealtime_SignalSchedulesLoad(t *testing.T) {
	store := &fakeStore{}
	inner := &fakeSubscriber{sub: &fakeSubscription{}}
	svc := newBoard(store, WithSubscriber(inner))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)
	defer svc.Stop()

	require.NoError(t, svc.StartRealtime(ctx))
	require.NotNil(t, inner.onSignal)

	inner.onSignal()

	require.Eventually(t, func() bool {
		return store.calls() >= 1
	}, time.Second, 10*time.Millisecond, "push signal must trigger a load")
}
