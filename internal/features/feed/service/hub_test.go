package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cargo-pipeline/internal/features/feed/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockBroker is a mock implementation of ports.Broker
type MockBroker struct {
	mock.Mock
}

func (m *MockBroker) Publish(ctx context.Context, ch domain.Change) error {
	return m.Called(ctx, ch).Error(0)
}

func (m *MockBroker) Listen(ctx context.Context, fn func(domain.Change)) error {
	return m.Called(ctx, fn).Error(0)
}

func (m *MockBroker) Close() error {
	return m.Called().Error(0)
}

func TestHub_LocalDispatch(t *testing.T) {
	hub := NewHub(nil)

	var orders, boxes atomic.Int32
	h1 := hub.Subscribe(domain.TableOrders, func() { orders.Add(1) })
	hub.Subscribe(domain.TableBoxes, func() { boxes.Add(1) })

	require.NoError(t, hub.Publish(context.Background(), domain.TableOrders, domain.TableOrders, domain.TableBoxes))
	assert.Equal(t, int32(1), orders.Load())
	assert.Equal(t, int32(1), boxes.Load())

	assert.True(t, hub.Unsubscribe(h1))
	assert.False(t, hub.Unsubscribe(h1))
	assert.Equal(t, 1, hub.Subscribers())

	require.NoError(t, hub.Publish(context.Background(), domain.TableOrders))
	assert.Equal(t, int32(1), orders.Load())
}

func TestHub_PublishThroughBroker(t *testing.T) {
	broker := new(MockBroker)
	hub := NewHub(broker)

	var calls atomic.Int32
	hub.Subscribe(domain.TableContainers, func() { calls.Add(1) })

	broker.On("Publish", mock.Anything, mock.MatchedBy(func(ch domain.Change) bool {
		return ch.Table == domain.TableContainers && ch.Origin != ""
	})).Return(nil).Once()

	require.NoError(t, hub.Publish(context.Background(), domain.TableContainers))
	// Delivery happens when the change comes back through Run.
	assert.Zero(t, calls.Load())
	broker.AssertExpectations(t)
}

func TestHub_BrokerFailureFallsBackToLocal(t *testing.T) {
	broker := new(MockBroker)
	hub := NewHub(broker)

	var calls atomic.Int32
	hub.Subscribe(domain.TableOrders, func() { calls.Add(1) })

	broker.On("Publish", mock.Anything, mock.Anything).Return(errors.New("connection refused")).Once()

	err := hub.Publish(context.Background(), domain.TableOrders)
	assert.ErrorContains(t, err, "connection refused")
	assert.Equal(t, int32(1), calls.Load())
}

func TestHub_RunRelaysBrokerChanges(t *testing.T) {
	broker := new(MockBroker)
	hub := NewHub(broker)

	var calls atomic.Int32
	hub.Subscribe(domain.TableBoxes, func() { calls.Add(1) })

	broker.On("Listen", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		fn := args.Get(1).(func(domain.Change))
		fn(domain.Change{Table: domain.TableBoxes})
		fn(domain.Change{Table: domain.TableOrders})
	}).Return(nil).Once()

	require.NoError(t, hub.Run(context.Background()))
	assert.Equal(t, int32(1), calls.Load())
}

func TestHub_RunWithoutBrokerWaits(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- hub.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestDebouncer_CoalescesBurst(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)
	d := NewDebouncer(30*time.Millisecond, func() {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	for range 10 {
		d.Trigger()
	}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 1
	}, time.Second, 5*time.Millisecond)

	// A later burst gets its own call.
	d.Trigger()
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 2
	}, time.Second, 5*time.Millisecond)
}

func TestDebouncer_Stop(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(20*time.Millisecond, func() { calls.Add(1) })

	d.Trigger()
	d.Stop()
	d.Trigger()

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, calls.Load())
}
