package adapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"cargo-pipeline/internal/core/apperr"
	"cargo-pipeline/internal/features/pipeline/domain"
	"cargo-pipeline/internal/features/pipeline/ports"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestGormStore(t *testing.T) *GormStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	// Every pooled connection to ":memory:" would see its own database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	s := NewGormStore(db)
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestGormStore_OrderLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestGormStore(t)

	o := &domain.Order{Quantity: 3, ProductName: "Chair", ShippingType: domain.ShippingAir, State: domain.OrderPending}
	require.NoError(t, s.CreateOrder(ctx, o))
	assert.NotZero(t, o.ID)

	q := domain.Quote{
		UnitQuote:     decimal.RequireFromString("10.50"),
		ShippingPrice: decimal.RequireFromString("4.00"),
		TotalQuote:    decimal.RequireFromString("35.50"),
		Height:        decimal.NewFromInt(1),
		Width:         decimal.NewFromInt(2),
		Long:          decimal.NewFromInt(3),
		Weight:        decimal.NewFromInt(4),
	}
	require.NoError(t, s.SaveQuote(ctx, o.ID, q, domain.QuoteSources...))

	got, err := s.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderQuoted, got.State)
	require.NotNil(t, got.TotalQuote)
	assert.True(t, got.TotalQuote.Equal(q.TotalQuote))
	assert.Equal(t, domain.ShippingAir, got.ShippingType)
	assert.Nil(t, got.BoxID)

	t.Run("GuardMiss", func(t *testing.T) {
		err := s.SetOrderState(ctx, o.ID, domain.OrderPacked, domain.OrderReadyToPack)
		assert.ErrorIs(t, err, apperr.ErrConflict)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := s.GetOrder(ctx, 4242)
		assert.ErrorIs(t, err, apperr.ErrNotFound)

		err = s.SetOrderState(ctx, 4242, domain.OrderPacked)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("Label", func(t *testing.T) {
		route := "https://labels.example.com/1.pdf"
		require.NoError(t, s.SetOrderLabel(ctx, o.ID, &route))
		got, err := s.GetOrder(ctx, o.ID)
		require.NoError(t, err)
		require.NotNil(t, got.PDFRoutes)
		assert.Equal(t, route, *got.PDFRoutes)

		require.NoError(t, s.SetOrderLabel(ctx, o.ID, nil))
		got, err = s.GetOrder(ctx, o.ID)
		require.NoError(t, err)
		assert.Nil(t, got.PDFRoutes)
	})
}

func TestGormStore_PackAndCascade(t *testing.T) {
	ctx := context.Background()
	s := newTestGormStore(t)

	c := &domain.Container{State: domain.ContainerNew}
	require.NoError(t, s.CreateContainer(ctx, c))
	b := &domain.Box{State: domain.BoxNew}
	require.NoError(t, s.CreateBox(ctx, b))

	for range 2 {
		o := &domain.Order{Quantity: 1, ProductName: "Mug", State: domain.OrderReadyToPack}
		require.NoError(t, s.CreateOrder(ctx, o))
		require.NoError(t, s.SetOrderBox(ctx, o.ID, &b.ID, domain.OrderPacked, nil, domain.PackSources...))
	}

	require.NoError(t, s.SetContainerState(ctx, c.ID, domain.ContainerLoading, domain.ContainerNew, domain.ContainerLoading))
	require.NoError(t, s.SetBoxContainer(ctx, b.ID, &c.ID, domain.BoxPacked, domain.BoxNew, domain.BoxPacked))

	other := &domain.Container{State: domain.ContainerLoading}
	require.NoError(t, s.CreateContainer(ctx, other))
	err := s.SetBoxContainer(ctx, b.ID, &other.ID, domain.BoxPacked, domain.BoxNew, domain.BoxPacked)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	n, err := s.CascadeOrders(ctx, domain.OrderCascade{
		BoxIDs: []int64{b.ID},
		To:     domain.OrderInContainer,
		From:   []domain.OrderState{domain.OrderPacked, domain.OrderInContainer},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	boxes, err := s.ListBoxes(ctx, domain.BoxFilter{ContainerID: &c.ID})
	require.NoError(t, err)
	require.Len(t, boxes, 1)
	assert.Equal(t, domain.BoxPacked, boxes[0].State)

	n, err = s.CascadeBoxes(ctx, c.ID, domain.BoxShipped, domain.BoxNew, domain.BoxPacked, domain.BoxInContainer)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	count, err := s.CountOrders(ctx, domain.OrderFilter{
		BoxIDs: []int64{b.ID},
		States: []domain.OrderState{domain.OrderInContainer},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestGormStore_SetOrderBoxChecksBox(t *testing.T) {
	ctx := context.Background()
	s := newTestGormStore(t)

	c := &domain.Container{State: domain.ContainerLoading}
	require.NoError(t, s.CreateContainer(ctx, c))
	b := &domain.Box{State: domain.BoxPacked, ContainerID: &c.ID}
	require.NoError(t, s.CreateBox(ctx, b))
	o := &domain.Order{Quantity: 1, ProductName: "Mug", State: domain.OrderReadyToPack}
	require.NoError(t, s.CreateOrder(ctx, o))

	held := &domain.BoxGuard{BoxID: b.ID, States: domain.OpenBoxStates, PinContainer: true, ContainerID: &c.ID}

	t.Run("BoxShipped", func(t *testing.T) {
		_, err := s.CascadeBoxes(ctx, c.ID, domain.BoxShipped)
		require.NoError(t, err)

		err = s.SetOrderBox(ctx, o.ID, &b.ID, domain.OrderInContainer, held, domain.PackSources...)
		assert.ErrorIs(t, err, apperr.ErrConflict)

		got, err := s.GetOrder(ctx, o.ID)
		require.NoError(t, err)
		assert.Nil(t, got.BoxID)
		assert.Equal(t, domain.OrderReadyToPack, got.State)
	})

	t.Run("BoxMoved", func(t *testing.T) {
		require.NoError(t, s.SetBoxContainer(ctx, b.ID, nil, domain.BoxPacked))
		err := s.SetOrderBox(ctx, o.ID, &b.ID, domain.OrderInContainer, held, domain.PackSources...)
		assert.ErrorIs(t, err, apperr.ErrConflict)
	})

	t.Run("BoxHeld", func(t *testing.T) {
		require.NoError(t, s.SetBoxContainer(ctx, b.ID, &c.ID, domain.BoxPacked))
		require.NoError(t, s.SetOrderBox(ctx, o.ID, &b.ID, domain.OrderInContainer, held, domain.PackSources...))

		got, err := s.GetOrder(ctx, o.ID)
		require.NoError(t, err)
		require.NotNil(t, got.BoxID)
		assert.Equal(t, b.ID, *got.BoxID)
	})

	t.Run("LooseBox", func(t *testing.T) {
		loose := &domain.Box{State: domain.BoxNew}
		require.NoError(t, s.CreateBox(ctx, loose))
		guard := &domain.BoxGuard{BoxID: loose.ID, States: domain.OpenBoxStates, PinContainer: true}
		require.NoError(t, s.SetOrderBox(ctx, o.ID, &loose.ID, domain.OrderPacked, guard, domain.PackSources...))
	})
}

func TestGormStore_Shipment(t *testing.T) {
	ctx := context.Background()
	s := newTestGormStore(t)

	c := &domain.Container{State: domain.ContainerShipped}
	require.NoError(t, s.CreateContainer(ctx, c))

	got, err := s.GetContainer(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Shipment)

	eta := time.Date(2026, 11, 20, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.SetContainerShipment(ctx, c.ID, domain.Shipment{
		TrackingNumber: "MSKU123",
		TrackingLink:   "https://track.example.com/MSKU123",
		Courier:        "Maersk",
		ETA:            eta,
	}))

	got, err = s.GetContainer(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Shipment)
	assert.Equal(t, "MSKU123", got.Shipment.TrackingNumber)
	assert.True(t, got.Shipment.ETA.Equal(eta))
}

func TestGormStore_AtomicRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestGormStore(t)

	b := &domain.Box{State: domain.BoxNew}
	require.NoError(t, s.CreateBox(ctx, b))

	boom := errors.New("boom")
	err := s.Atomic(ctx, func(tx ports.Store) error {
		if err := tx.SetBoxState(ctx, b.ID, domain.BoxPacked); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.GetBox(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BoxNew, got.State)
}

func TestGormStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := newTestGormStore(t)

	b := &domain.Box{State: domain.BoxShipped}
	require.NoError(t, s.CreateBox(ctx, b))
	assert.ErrorIs(t, s.DeleteBox(ctx, b.ID, domain.BoxNew, domain.BoxPacked), apperr.ErrConflict)
	assert.ErrorIs(t, s.DeleteBox(ctx, 777), apperr.ErrNotFound)

	c := &domain.Container{State: domain.ContainerNew}
	require.NoError(t, s.CreateContainer(ctx, c))
	require.NoError(t, s.DeleteContainer(ctx, c.ID, domain.ContainerNew, domain.ContainerLoading))

	containers, err := s.ListContainers(ctx)
	require.NoError(t, err)
	assert.Empty(t, containers)
}
