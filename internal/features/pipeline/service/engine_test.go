package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"cargo-pipeline/internal/core/apperr"
	"cargo-pipeline/internal/core/auth"
	feed "cargo-pipeline/internal/features/feed/domain"
	"cargo-pipeline/internal/features/pipeline/adapters"
	"cargo-pipeline/internal/features/pipeline/domain"
	"cargo-pipeline/internal/features/pipeline/ports"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var staff = auth.Actor{ID: "u-17", Role: auth.RoleChinaStaff}

type recordingPublisher struct {
	mu     sync.Mutex
	tables []feed.Table
}

func (p *recordingPublisher) Publish(ctx context.Context, tables ...feed.Table) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tables = append(p.tables, tables...)
	return nil
}

func (p *recordingPublisher) reset() []feed.Table {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.tables
	p.tables = nil
	return out
}

// refusingShipmentStore accepts every write except the tracking columns.
type refusingShipmentStore struct {
	*adapters.MemoryStore
}

func (s refusingShipmentStore) SetContainerShipment(ctx context.Context, id int64, sh domain.Shipment) error {
	return errors.New("permission denied for column tracking_link")
}

func newTestEngine(t *testing.T) (*Engine, *adapters.MemoryStore, *recordingPublisher) {
	t.Helper()
	store := adapters.NewMemoryStore()
	pub := &recordingPublisher{}
	return NewEngine(store, pub), store, pub
}

// seedOrder registers an order and forces it to state.
func seedOrder(t *testing.T, e *Engine, store ports.Store, state domain.OrderState, shipping domain.ShippingType) *domain.Order {
	t.Helper()
	ctx := context.Background()
	o, err := e.RegisterOrder(ctx, staff, domain.Order{Quantity: 1, ProductName: "Blender", ShippingType: shipping})
	require.NoError(t, err)
	if state != domain.OrderPending {
		require.NoError(t, store.SetOrderState(ctx, o.ID, state))
	}
	o.State = state
	return o
}

func quoteInput(unit, shipping string) domain.QuoteInput {
	return domain.QuoteInput{
		UnitPrice:     decimal.RequireFromString(unit),
		ShippingPrice: decimal.RequireFromString(shipping),
		Height:        decimal.NewFromInt(20),
		Width:         decimal.NewFromInt(30),
		Long:          decimal.NewFromInt(40),
		Weight:        decimal.RequireFromString("2.5"),
	}
}

func TestEngine_Quote(t *testing.T) {
	ctx := context.Background()
	e, store, _ := newTestEngine(t)

	o, err := e.RegisterOrder(ctx, staff, domain.Order{Quantity: 3, ProductName: "Kettle"})
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		got, err := e.Quote(ctx, staff, o.ID, quoteInput("10", "5"))
		require.NoError(t, err)
		assert.Equal(t, domain.OrderQuoted, got.State)
		assert.True(t, got.TotalQuote.Equal(decimal.NewFromInt(35)))
	})

	t.Run("Idempotent", func(t *testing.T) {
		got, err := e.Quote(ctx, staff, o.ID, quoteInput("10", "5"))
		require.NoError(t, err)
		assert.True(t, got.TotalQuote.Equal(decimal.NewFromInt(35)))
	})

	t.Run("ValidationDoesNotMutate", func(t *testing.T) {
		_, err := e.Quote(ctx, staff, o.ID, quoteInput("0", "5"))
		assert.ErrorIs(t, err, apperr.ErrValidation)

		got, err := store.GetOrder(ctx, o.ID)
		require.NoError(t, err)
		assert.True(t, got.UnitQuote.Equal(decimal.NewFromInt(10)))
	})

	t.Run("ConflictAfterProcessing", func(t *testing.T) {
		require.NoError(t, store.SetOrderState(ctx, o.ID, domain.OrderReadyToPack))
		_, err := e.Quote(ctx, staff, o.ID, quoteInput("10", "5"))
		assert.ErrorIs(t, err, apperr.ErrConflict)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := e.Quote(ctx, staff, 999, quoteInput("10", "5"))
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestEngine_RegisterOrder_Rejects(t *testing.T) {
	e, _, _ := newTestEngine(t)
	_, err := e.RegisterOrder(context.Background(), staff, domain.Order{Quantity: 0, ProductName: " "})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestEngine_AdvanceOrder(t *testing.T) {
	ctx := context.Background()
	e, store, _ := newTestEngine(t)
	quoted := seedOrder(t, e, store, domain.OrderQuoted, domain.ShippingAir)

	got, err := e.AdvanceOrder(ctx, staff, quoted.ID, domain.OrderProcessing)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderProcessing, got.State)

	got, err = e.AdvanceOrder(ctx, staff, quoted.ID, domain.OrderProcessing)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderProcessing, got.State)

	_, err = e.AdvanceOrder(ctx, staff, quoted.ID, domain.OrderPacked)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = e.AdvanceOrder(ctx, staff, quoted.ID, domain.OrderState(40))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestEngine_ScenarioA_PackOrderThenBox(t *testing.T) {
	ctx := context.Background()
	e, store, _ := newTestEngine(t)

	o := seedOrder(t, e, store, domain.OrderReadyToPack, domain.ShippingMaritime)
	b, err := e.CreateBox(ctx, staff, "B-1")
	require.NoError(t, err)

	packed, err := e.PackOrder(ctx, staff, o.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPacked, packed.State)
	require.NotNil(t, packed.BoxID)
	assert.Equal(t, b.ID, *packed.BoxID)

	box, err := e.GetBox(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BoxNew, box.State)

	c, err := e.CreateContainer(ctx, staff, "C-1")
	require.NoError(t, err)

	box, err = e.PackBox(ctx, staff, b.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BoxPacked, box.State)
	require.NotNil(t, box.ContainerID)
	assert.Equal(t, c.ID, *box.ContainerID)

	got, err := e.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderInContainer, got.State)

	container, err := e.GetContainer(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ContainerLoading, container.State)

	t.Run("PackIntoBoxInsideContainer", func(t *testing.T) {
		late := seedOrder(t, e, store, domain.OrderReadyToPack, domain.ShippingMaritime)
		got, err := e.PackOrder(ctx, staff, late.ID, b.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderInContainer, got.State)
	})

	t.Run("RepackIsIdempotent", func(t *testing.T) {
		_, err := e.PackBox(ctx, staff, b.ID, c.ID)
		assert.NoError(t, err)
	})
}

func TestEngine_PackThenUnpackOrderRestores(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		intoContainer bool
	}{
		{name: "LooseBox", intoContainer: false},
		{name: "BoxInLoadingContainer", intoContainer: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, store, _ := newTestEngine(t)
			b, err := e.CreateBox(ctx, staff, "")
			require.NoError(t, err)

			if tt.intoContainer {
				anchor := seedOrder(t, e, store, domain.OrderReadyToPack, domain.ShippingAir)
				_, err := e.PackOrder(ctx, staff, anchor.ID, b.ID)
				require.NoError(t, err)
				c, err := e.CreateContainer(ctx, staff, "")
				require.NoError(t, err)
				_, err = e.PackBox(ctx, staff, b.ID, c.ID)
				require.NoError(t, err)
			}

			o := seedOrder(t, e, store, domain.OrderReadyToPack, domain.ShippingAir)
			_, err = e.PackOrder(ctx, staff, o.ID, b.ID)
			require.NoError(t, err)

			got, err := e.UnpackOrder(ctx, staff, o.ID)
			require.NoError(t, err)
			assert.Nil(t, got.BoxID)
			assert.Equal(t, domain.OrderReadyToPack, got.State)
		})
	}
}

func TestEngine_UnpackOrder_Rejects(t *testing.T) {
	ctx := context.Background()
	e, store, _ := newTestEngine(t)

	loose := seedOrder(t, e, store, domain.OrderReadyToPack, domain.ShippingAir)
	_, err := e.UnpackOrder(ctx, staff, loose.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	b, err := e.CreateBox(ctx, staff, "")
	require.NoError(t, err)
	_, err = e.PackOrder(ctx, staff, loose.ID, b.ID)
	require.NoError(t, err)
	_, err = e.SendBox(ctx, staff, b.ID)
	require.NoError(t, err)

	_, err = e.UnpackOrder(ctx, staff, loose.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestEngine_PackEmptyBoxFails(t *testing.T) {
	ctx := context.Background()
	e, store, _ := newTestEngine(t)

	b, err := e.CreateBox(ctx, staff, "")
	require.NoError(t, err)
	c, err := e.CreateContainer(ctx, staff, "")
	require.NoError(t, err)

	_, err = e.PackBox(ctx, staff, b.ID, c.ID)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	box, err := store.GetBox(ctx, b.ID)
	require.NoError(t, err)
	assert.Nil(t, box.ContainerID)
	assert.Equal(t, domain.BoxNew, box.State)

	container, err := store.GetContainer(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ContainerNew, container.State)
}

func TestEngine_PackBoxIntoOtherContainerConflicts(t *testing.T) {
	ctx := context.Background()
	e, store, _ := newTestEngine(t)

	o := seedOrder(t, e, store, domain.OrderReadyToPack, domain.ShippingAir)
	b, err := e.CreateBox(ctx, staff, "")
	require.NoError(t, err)
	_, err = e.PackOrder(ctx, staff, o.ID, b.ID)
	require.NoError(t, err)

	first, err := e.CreateContainer(ctx, staff, "")
	require.NoError(t, err)
	second, err := e.CreateContainer(ctx, staff, "")
	require.NoError(t, err)

	_, err = e.PackBox(ctx, staff, b.ID, first.ID)
	require.NoError(t, err)
	_, err = e.PackBox(ctx, staff, b.ID, second.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	untouched, err := store.GetContainer(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ContainerNew, untouched.State)
}

func TestEngine_UnpackBox(t *testing.T) {
	ctx := context.Background()
	e, store, pub := newTestEngine(t)

	b, err := e.CreateBox(ctx, staff, "")
	require.NoError(t, err)
	var ids []int64
	for range 2 {
		o := seedOrder(t, e, store, domain.OrderReadyToPack, domain.ShippingMaritime)
		_, err := e.PackOrder(ctx, staff, o.ID, b.ID)
		require.NoError(t, err)
		ids = append(ids, o.ID)
	}
	c, err := e.CreateContainer(ctx, staff, "")
	require.NoError(t, err)
	_, err = e.PackBox(ctx, staff, b.ID, c.ID)
	require.NoError(t, err)

	t.Run("StaleExpectedContainer", func(t *testing.T) {
		other, err := e.CreateContainer(ctx, staff, "")
		require.NoError(t, err)
		_, err = e.UnpackBox(ctx, staff, b.ID, &other.ID)
		assert.ErrorIs(t, err, apperr.ErrConflict)
	})

	pub.reset()
	box, err := e.UnpackBox(ctx, staff, b.ID, &c.ID)
	require.NoError(t, err)
	assert.Nil(t, box.ContainerID)
	assert.Equal(t, domain.BoxNew, box.State)
	assert.ElementsMatch(t, []feed.Table{feed.TableBoxes, feed.TableOrders}, pub.reset())

	for _, id := range ids {
		o, err := e.GetOrder(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, o.BoxID)
		assert.Equal(t, domain.OrderReadyToPack, o.State)
	}
}

// sentBoxWithOrders packs one order per shipping type into a new box and sends it directly.
func sentBoxWithOrders(t *testing.T, e *Engine, store ports.Store, shipping ...domain.ShippingType) (*domain.Box, []int64) {
	t.Helper()
	ctx := context.Background()

	b, err := e.CreateBox(ctx, staff, "")
	require.NoError(t, err)
	var ids []int64
	for _, st := range shipping {
		o := seedOrder(t, e, store, domain.OrderReadyToPack, st)
		_, err := e.PackOrder(ctx, staff, o.ID, b.ID)
		require.NoError(t, err)
		ids = append(ids, o.ID)
	}
	b, err = e.SendBox(ctx, staff, b.ID)
	require.NoError(t, err)
	require.Equal(t, domain.BoxShipped, b.State)
	return b, ids
}

func TestEngine_ScenarioB_AirShortcut(t *testing.T) {
	ctx := context.Background()

	t.Run("AllAir", func(t *testing.T) {
		e, store, _ := newTestEngine(t)
		b, ids := sentBoxWithOrders(t, e, store, domain.ShippingAir, domain.ShippingAir, domain.ShippingAir)

		got, err := e.AdvanceBox(ctx, staff, b.ID, domain.BoxCompleted)
		require.NoError(t, err)
		assert.Equal(t, domain.BoxCompleted, got.State)

		for _, id := range ids {
			o, err := e.GetOrder(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, domain.OrderReceived, o.State)
		}
	})

	t.Run("OneMaritime", func(t *testing.T) {
		e, store, _ := newTestEngine(t)
		b, ids := sentBoxWithOrders(t, e, store, domain.ShippingAir, domain.ShippingMaritime, domain.ShippingAir)

		_, err := e.AdvanceBox(ctx, staff, b.ID, domain.BoxCompleted)
		assert.ErrorIs(t, err, apperr.ErrConflict)

		got, err := store.GetBox(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.BoxShipped, got.State)
		for _, id := range ids {
			o, err := e.GetOrder(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, domain.OrderArrived, o.State)
		}
	})

	t.Run("StepByStep", func(t *testing.T) {
		e, store, _ := newTestEngine(t)
		b, ids := sentBoxWithOrders(t, e, store, domain.ShippingMaritime)

		_, err := e.AdvanceBox(ctx, staff, b.ID, domain.BoxReceived)
		require.NoError(t, err)
		o, err := e.GetOrder(ctx, ids[0])
		require.NoError(t, err)
		assert.Equal(t, domain.OrderInCustoms, o.State)

		_, err = e.AdvanceBox(ctx, staff, b.ID, domain.BoxCompleted)
		require.NoError(t, err)
		o, err = e.GetOrder(ctx, ids[0])
		require.NoError(t, err)
		assert.Equal(t, domain.OrderReceived, o.State)

		_, err = e.AdvanceBox(ctx, staff, b.ID, domain.BoxReceived)
		assert.ErrorIs(t, err, apperr.ErrConflict)
	})
}

func TestEngine_SendBox_Rejects(t *testing.T) {
	ctx := context.Background()
	e, store, _ := newTestEngine(t)

	empty, err := e.CreateBox(ctx, staff, "")
	require.NoError(t, err)
	_, err = e.SendBox(ctx, staff, empty.ID)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	b, _ := sentBoxWithOrders(t, e, store, domain.ShippingAir)
	_, err = e.SendBox(ctx, staff, b.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

// loadedContainer builds a loading container with one order per box.
func loadedContainer(t *testing.T, e *Engine, store ports.Store, boxes int) (*domain.Container, []int64, []int64) {
	t.Helper()
	ctx := context.Background()

	c, err := e.CreateContainer(ctx, staff, "")
	require.NoError(t, err)
	var boxIDs, orderIDs []int64
	for range boxes {
		b, err := e.CreateBox(ctx, staff, "")
		require.NoError(t, err)
		o := seedOrder(t, e, store, domain.OrderReadyToPack, domain.ShippingMaritime)
		_, err = e.PackOrder(ctx, staff, o.ID, b.ID)
		require.NoError(t, err)
		_, err = e.PackBox(ctx, staff, b.ID, c.ID)
		require.NoError(t, err)
		boxIDs = append(boxIDs, b.ID)
		orderIDs = append(orderIDs, o.ID)
	}
	return c, boxIDs, orderIDs
}

func validShipment() domain.ShipmentDetails {
	return domain.ShipmentDetails{
		TrackingNumber: "MSKU7788",
		TrackingLink:   "https://track.example.com/MSKU7788",
		Courier:        "Maersk",
		ETA:            "2026-12-01",
	}
}

func TestEngine_ScenarioC_SendContainer(t *testing.T) {
	ctx := context.Background()
	e, store, pub := newTestEngine(t)
	c, boxIDs, orderIDs := loadedContainer(t, e, store, 2)
	pub.reset()

	got, err := e.SendContainer(ctx, staff, c.ID, validShipment())
	require.NoError(t, err)
	assert.Equal(t, domain.ContainerShipped, got.State)
	require.NotNil(t, got.Shipment)
	assert.Equal(t, "MSKU7788", got.Shipment.TrackingNumber)

	for _, id := range boxIDs {
		b, err := e.GetBox(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.BoxShipped, b.State)
	}
	for _, id := range orderIDs {
		o, err := e.GetOrder(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderArrived, o.State)
	}
	assert.Subset(t, pub.reset(), []feed.Table{feed.TableContainers, feed.TableBoxes, feed.TableOrders})

	t.Run("SecondSendConflicts", func(t *testing.T) {
		_, err := e.SendContainer(ctx, staff, c.ID, validShipment())
		assert.ErrorIs(t, err, apperr.ErrConflict)
	})
}

func TestEngine_SendContainer_MissingURL(t *testing.T) {
	ctx := context.Background()
	e, store, _ := newTestEngine(t)
	c, boxIDs, _ := loadedContainer(t, e, store, 1)

	details := validShipment()
	details.TrackingLink = ""
	_, err := e.SendContainer(ctx, staff, c.ID, details)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	got, err := store.GetContainer(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ContainerLoading, got.State)
	b, err := store.GetBox(ctx, boxIDs[0])
	require.NoError(t, err)
	assert.Equal(t, domain.BoxPacked, b.State)
}

func TestEngine_SendContainer_Empty(t *testing.T) {
	ctx := context.Background()
	e, store, _ := newTestEngine(t)

	c, err := e.CreateContainer(ctx, staff, "")
	require.NoError(t, err)
	require.NoError(t, store.SetContainerState(ctx, c.ID, domain.ContainerLoading))

	_, err = e.SendContainer(ctx, staff, c.ID, validShipment())
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestEngine_SendContainer_ResumesInterruptedCascade(t *testing.T) {
	ctx := context.Background()
	e, store, _ := newTestEngine(t)
	c, boxIDs, orderIDs := loadedContainer(t, e, store, 2)

	// Only the parent row made it before the interruption.
	require.NoError(t, store.SetContainerState(ctx, c.ID, domain.ContainerShipped))

	_, err := e.SendContainer(ctx, staff, c.ID, validShipment())
	require.NoError(t, err)

	for _, id := range boxIDs {
		b, err := e.GetBox(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.BoxShipped, b.State)
	}
	for _, id := range orderIDs {
		o, err := e.GetOrder(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderArrived, o.State)
	}
}

func TestEngine_SendContainer_PartialPersistence(t *testing.T) {
	ctx := context.Background()
	mem := adapters.NewMemoryStore()
	e := NewEngine(refusingShipmentStore{mem}, nil)
	c, boxIDs, _ := loadedContainer(t, e, mem, 1)

	got, err := e.SendContainer(ctx, staff, c.ID, validShipment())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrPartialPersistence)
	require.NotNil(t, got)
	assert.Equal(t, domain.ContainerShipped, got.State)
	assert.Nil(t, got.Shipment)

	b, err := mem.GetBox(ctx, boxIDs[0])
	require.NoError(t, err)
	assert.Equal(t, domain.BoxShipped, b.State)
}

func TestEngine_DeleteGuards(t *testing.T) {
	ctx := context.Background()

	t.Run("BoxInContainerState", func(t *testing.T) {
		e, store, _ := newTestEngine(t)
		b, err := e.CreateBox(ctx, staff, "")
		require.NoError(t, err)
		require.NoError(t, store.SetBoxState(ctx, b.ID, domain.BoxInContainer))

		err = e.DeleteBox(ctx, staff, b.ID)
		assert.ErrorIs(t, err, apperr.ErrConflict)
		_, err = store.GetBox(ctx, b.ID)
		assert.NoError(t, err)
	})

	t.Run("ContainerShipped", func(t *testing.T) {
		e, store, _ := newTestEngine(t)
		c, err := e.CreateContainer(ctx, staff, "")
		require.NoError(t, err)
		b, err := e.CreateBox(ctx, staff, "")
		require.NoError(t, err)
		require.NoError(t, store.SetBoxContainer(ctx, b.ID, &c.ID, domain.BoxPacked))
		require.NoError(t, store.SetContainerState(ctx, c.ID, domain.ContainerShipped))

		err = e.DeleteBox(ctx, staff, b.ID)
		assert.ErrorIs(t, err, apperr.ErrConflict)
		err = e.DeleteContainer(ctx, staff, c.ID)
		assert.ErrorIs(t, err, apperr.ErrConflict)
	})

	t.Run("BoxWithOrders", func(t *testing.T) {
		e, store, _ := newTestEngine(t)
		b, err := e.CreateBox(ctx, staff, "")
		require.NoError(t, err)
		o := seedOrder(t, e, store, domain.OrderReadyToPack, domain.ShippingAir)
		_, err = e.PackOrder(ctx, staff, o.ID, b.ID)
		require.NoError(t, err)

		err = e.DeleteBox(ctx, staff, b.ID)
		assert.ErrorIs(t, err, apperr.ErrConflict)
	})

	t.Run("ContainerWithBoxes", func(t *testing.T) {
		e, store, _ := newTestEngine(t)
		c, _, _ := loadedContainer(t, e, store, 1)
		err := e.DeleteContainer(ctx, staff, c.ID)
		assert.ErrorIs(t, err, apperr.ErrConflict)
	})

	t.Run("EmptyEntities", func(t *testing.T) {
		e, _, pub := newTestEngine(t)
		b, err := e.CreateBox(ctx, staff, "")
		require.NoError(t, err)
		c, err := e.CreateContainer(ctx, staff, "")
		require.NoError(t, err)
		pub.reset()

		require.NoError(t, e.DeleteBox(ctx, staff, b.ID))
		require.NoError(t, e.DeleteContainer(ctx, staff, c.ID))
		assert.Equal(t, []feed.Table{feed.TableBoxes, feed.TableContainers}, pub.reset())

		_, err = e.GetBox(ctx, b.ID)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestEngine_Labels(t *testing.T) {
	ctx := context.Background()
	e, store, _ := newTestEngine(t)
	url := "https://labels.example.com/orders/1.pdf"

	pending := seedOrder(t, e, store, domain.OrderPending, domain.ShippingAir)
	_, err := e.AttachLabel(ctx, staff, pending.ID, url)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	quoted := seedOrder(t, e, store, domain.OrderQuoted, domain.ShippingAir)
	_, err = e.AttachLabel(ctx, staff, quoted.ID, "not a url")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	got, err := e.AttachLabel(ctx, staff, quoted.ID, url)
	require.NoError(t, err)
	require.NotNil(t, got.PDFRoutes)
	assert.Equal(t, url, *got.PDFRoutes)

	got, err = e.ClearLabel(ctx, staff, quoted.ID)
	require.NoError(t, err)
	assert.Nil(t, got.PDFRoutes)
}
