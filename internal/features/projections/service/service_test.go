package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"cargo-pipeline/internal/core/apperr"
	"cargo-pipeline/internal/core/cache"
	feed "cargo-pipeline/internal/features/feed/domain"
	feedservice "cargo-pipeline/internal/features/feed/service"
	pipeline "cargo-pipeline/internal/features/pipeline/domain"
	"cargo-pipeline/internal/features/projections/adapters"
	"cargo-pipeline/internal/features/projections/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockReader is a mock implementation of ports.Reader
type MockReader struct {
	mock.Mock
}

func (m *MockReader) ListBoxes(ctx context.Context, f pipeline.BoxFilter) ([]pipeline.Box, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]pipeline.Box), args.Error(1)
}

func (m *MockReader) ListOrders(ctx context.Context, f pipeline.OrderFilter) ([]pipeline.Order, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]pipeline.Order), args.Error(1)
}

// MockSummaryRepository is a mock implementation of ports.SummaryRepository
type MockSummaryRepository struct {
	mock.Mock
}

func (m *MockSummaryRepository) Save(ctx context.Context, summaries []domain.BoxSummary) error {
	args := m.Called(ctx, summaries)
	return args.Error(0)
}

func (m *MockSummaryRepository) Get(ctx context.Context) ([]domain.BoxSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BoxSummary), args.Error(1)
}

func (m *MockSummaryRepository) Delete(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func fixture() ([]pipeline.Box, []pipeline.Order) {
	box := int64(7)
	boxes := []pipeline.Box{{ID: box, State: pipeline.BoxPacked}}
	orders := []pipeline.Order{{ID: 1, BoxID: &box, ShippingType: pipeline.ShippingAir}}
	return boxes, orders
}

func TestProjectionService_BoxSummaries(t *testing.T) {
	ctx := context.Background()
	boxes, orders := fixture()
	want := domain.Summarize(boxes, orders)

	t.Run("CacheHit", func(t *testing.T) {
		reader := new(MockReader)
		repo := new(MockSummaryRepository)
		repo.On("Get", ctx).Return(want, nil).Once()

		got, err := NewProjectionService(reader, repo).BoxSummaries(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		reader.AssertNotCalled(t, "ListBoxes", mock.Anything, mock.Anything)
		repo.AssertExpectations(t)
	})

	t.Run("CacheMissComputesAndSaves", func(t *testing.T) {
		reader := new(MockReader)
		repo := new(MockSummaryRepository)
		repo.On("Get", ctx).Return(nil, nil).Once()
		reader.On("ListBoxes", ctx, pipeline.BoxFilter{}).Return(boxes, nil).Once()
		reader.On("ListOrders", ctx, pipeline.OrderFilter{BoxIDs: []int64{7}}).Return(orders, nil).Once()
		repo.On("Save", ctx, want).Return(nil).Once()

		got, err := NewProjectionService(reader, repo).BoxSummaries(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.True(t, got[0].AirOnly)
		reader.AssertExpectations(t)
		repo.AssertExpectations(t)
	})

	t.Run("CacheErrorsAreNotFatal", func(t *testing.T) {
		reader := new(MockReader)
		repo := new(MockSummaryRepository)
		repo.On("Get", ctx).Return(nil, errors.New("redis down")).Once()
		reader.On("ListBoxes", ctx, pipeline.BoxFilter{}).Return(boxes, nil).Once()
		reader.On("ListOrders", ctx, mock.Anything).Return(orders, nil).Once()
		repo.On("Save", ctx, want).Return(errors.New("redis down")).Once()

		got, err := NewProjectionService(reader, repo).BoxSummaries(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("NoRepository", func(t *testing.T) {
		reader := new(MockReader)
		reader.On("ListBoxes", ctx, pipeline.BoxFilter{}).Return([]pipeline.Box{}, nil).Once()

		got, err := NewProjectionService(reader, nil).BoxSummaries(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)
		reader.AssertNotCalled(t, "ListOrders", mock.Anything, mock.Anything)
	})

	t.Run("ReaderError", func(t *testing.T) {
		reader := new(MockReader)
		reader.On("ListBoxes", ctx, pipeline.BoxFilter{}).Return(nil, errors.New("db error")).Once()

		got, err := NewProjectionService(reader, nil).BoxSummaries(ctx)
		assert.Error(t, err)
		assert.Nil(t, got)
	})
}

func TestProjectionService_InvalidateDuringCompute(t *testing.T) {
	ctx := context.Background()

	mr := miniredis.RunT(t)
	client, err := cache.NewRedisClient("redis://" + mr.Addr())
	require.NoError(t, err)
	redisCache := cache.NewRedisAdapter(client, "")
	t.Cleanup(func() { redisCache.Close() })
	repo := adapters.NewCacheSummaryRepository(redisCache, time.Minute)

	box := int64(1)
	boxes := []pipeline.Box{{ID: box, State: pipeline.BoxNew}}
	packed := []pipeline.Order{{ID: 9, BoxID: &box, ShippingType: pipeline.ShippingMaritime}}

	reader := new(MockReader)
	svc := NewProjectionService(reader, repo)

	reader.On("ListBoxes", mock.Anything, pipeline.BoxFilter{}).Return(boxes, nil)
	// The order lands in box 1 after the first computation has listed orders.
	reader.On("ListOrders", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		assert.NoError(t, svc.Invalidate(ctx))
	}).Return([]pipeline.Order{}, nil).Once()
	reader.On("ListOrders", mock.Anything, mock.Anything).Return(packed, nil)

	first, err := svc.BoxSummary(ctx, box)
	require.NoError(t, err)
	assert.Zero(t, first.OrderCount)

	cached, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, cached)

	second, err := svc.BoxSummary(ctx, box)
	require.NoError(t, err)
	assert.Equal(t, 1, second.OrderCount)

	cached, err = repo.Get(ctx)
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, 1, cached[0].OrderCount)
}

func TestProjectionService_InvalidateDuringSave(t *testing.T) {
	ctx := context.Background()
	boxes, orders := fixture()
	want := domain.Summarize(boxes, orders)

	reader := new(MockReader)
	repo := new(MockSummaryRepository)
	svc := NewProjectionService(reader, repo)

	repo.On("Get", ctx).Return(nil, nil).Once()
	reader.On("ListBoxes", ctx, pipeline.BoxFilter{}).Return(boxes, nil).Once()
	reader.On("ListOrders", ctx, mock.Anything).Return(orders, nil).Once()
	repo.On("Save", ctx, want).Run(func(mock.Arguments) {
		assert.NoError(t, svc.Invalidate(ctx))
	}).Return(nil).Once()
	// One delete from the invalidation, one dropping the entry it raced.
	repo.On("Delete", ctx).Return(nil).Twice()

	got, err := svc.BoxSummaries(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	repo.AssertExpectations(t)
}

func TestProjectionService_BoxSummary(t *testing.T) {
	ctx := context.Background()
	boxes, orders := fixture()
	reader := new(MockReader)
	reader.On("ListBoxes", ctx, pipeline.BoxFilter{}).Return(boxes, nil)
	reader.On("ListOrders", ctx, mock.Anything).Return(orders, nil)
	svc := NewProjectionService(reader, nil)

	got, err := svc.BoxSummary(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, got.OrderCount)

	_, err = svc.BoxSummary(ctx, 99)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestProjectionService_Badge(t *testing.T) {
	svc := NewProjectionService(new(MockReader), nil)

	badge, err := svc.Badge("order", int(pipeline.OrderDelivered))
	require.NoError(t, err)
	assert.Equal(t, "Delivered", badge.Label)

	badge, err = svc.Badge("container", 9)
	require.NoError(t, err)
	assert.Equal(t, pipeline.CategoryUnknown, badge.Category)

	_, err = svc.Badge("pallet", 1)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestProjectionService_WatchInvalidates(t *testing.T) {
	var deletes atomic.Int32
	repo := new(MockSummaryRepository)
	repo.On("Delete", mock.Anything).Return(nil).Run(func(mock.Arguments) { deletes.Add(1) })

	hub := feedservice.NewHub(nil)
	svc := NewProjectionService(new(MockReader), repo)
	stop := svc.Watch(hub, 10*time.Millisecond)

	ctx := context.Background()
	require.NoError(t, hub.Publish(ctx, feed.TableOrders, feed.TableBoxes))

	assert.Eventually(t, func() bool {
		return deletes.Load() == 1
	}, time.Second, 5*time.Millisecond)

	stop()
	assert.Zero(t, hub.Subscribers())

	// Stopped watchers ignore later changes.
	require.NoError(t, hub.Publish(ctx, feed.TableContainers, feed.TableOrders))
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), deletes.Load())
}
