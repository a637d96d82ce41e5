package service

import (
	"context"
	"fmt"

	"cargo-pipeline/internal/core/auth"
	"cargo-pipeline/internal/core/logger"
	feed "cargo-pipeline/internal/features/feed/domain"
	"cargo-pipeline/internal/features/pipeline/domain"
	"cargo-pipeline/internal/features/pipeline/ports"

	"go.uber.org/zap"
)

// Engine validates and applies every pipeline state change. It holds no entity
// state of its own; preconditions are re-read inside each unit of work and the
// writes are guarded by the states they were planned from.
type Engine struct {
	store  ports.Store
	feed   ports.ChangePublisher
	logger *zap.Logger
}

var _ ports.Engine = (*Engine)(nil)

// NewEngine creates an Engine over store. feed may be nil.
func NewEngine(store ports.Store, feed ports.ChangePublisher) *Engine {
	return &Engine{
		store:  store,
		feed:   feed,
		logger: logger.Named("pipeline"),
	}
}

// publish tells observers which tables changed. A failed publish never fails the
// operation; the rows are already committed.
func (e *Engine) publish(ctx context.Context, tables ...feed.Table) {
	if e.feed == nil {
		return
	}
	if err := e.feed.Publish(context.WithoutCancel(ctx), tables...); err != nil {
		e.logger.Warn("Failed to publish change",
			zap.Any("tables", tables),
			zap.Error(err),
		)
	}
}

func (e *Engine) done(op string, actor auth.Actor, fields ...zap.Field) {
	fields = append(fields,
		zap.String("operation", op),
		zap.String("actor_id", actor.ID),
		zap.String("actor_role", string(actor.Role)),
	)
	e.logger.Info("Transition applied", fields...)
}

// RegisterOrder stores a new order at the pending state.
func (e *Engine) RegisterOrder(ctx context.Context, actor auth.Actor, o domain.Order) (*domain.Order, error) {
	if err := domain.CheckRegister(o); err != nil {
		return nil, err
	}

	o.ID = 0
	o.State = domain.OrderPending
	o.BoxID = nil
	o.UnitQuote, o.ShippingPrice, o.TotalQuote = nil, nil, nil
	o.PDFRoutes = nil
	if o.ShippingType == "" {
		o.ShippingType = domain.ShippingMaritime
	}

	if err := e.store.CreateOrder(ctx, &o); err != nil {
		return nil, fmt.Errorf("service: failed to register order: %w", err)
	}

	e.publish(ctx, feed.TableOrders)
	e.done("register_order", actor, zap.Int64("order_id", o.ID))
	return &o, nil
}

// CreateBox stores a new empty box.
func (e *Engine) CreateBox(ctx context.Context, actor auth.Actor, name string) (*domain.Box, error) {
	b := domain.Box{Name: name, State: domain.BoxNew}
	if err := e.store.CreateBox(ctx, &b); err != nil {
		return nil, fmt.Errorf("service: failed to create box: %w", err)
	}

	e.publish(ctx, feed.TableBoxes)
	e.done("create_box", actor, zap.Int64("box_id", b.ID))
	return &b, nil
}

// CreateContainer stores a new empty container.
func (e *Engine) CreateContainer(ctx context.Context, actor auth.Actor, name string) (*domain.Container, error) {
	c := domain.Container{Name: name, State: domain.ContainerNew}
	if err := e.store.CreateContainer(ctx, &c); err != nil {
		return nil, fmt.Errorf("service: failed to create container: %w", err)
	}

	e.publish(ctx, feed.TableContainers)
	e.done("create_container", actor, zap.Int64("container_id", c.ID))
	return &c, nil
}

// Reads

func (e *Engine) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	o, err := e.store.GetOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get order: %w", err)
	}
	return o, nil
}

func (e *Engine) ListOrders(ctx context.Context, f domain.OrderFilter) ([]domain.Order, error) {
	orders, err := e.store.ListOrders(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list orders: %w", err)
	}
	return orders, nil
}

func (e *Engine) GetBox(ctx context.Context, id int64) (*domain.Box, error) {
	b, err := e.store.GetBox(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get box: %w", err)
	}
	return b, nil
}

func (e *Engine) ListBoxes(ctx context.Context, f domain.BoxFilter) ([]domain.Box, error) {
	boxes, err := e.store.ListBoxes(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list boxes: %w", err)
	}
	return boxes, nil
}

func (e *Engine) GetContainer(ctx context.Context, id int64) (*domain.Container, error) {
	c, err := e.store.GetContainer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get container: %w", err)
	}
	return c, nil
}

func (e *Engine) ListContainers(ctx context.Context) ([]domain.Container, error) {
	containers, err := e.store.ListContainers(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list containers: %w", err)
	}
	return containers, nil
}

// containerOf loads b's container, or nil when b is loose.
func containerOf(ctx context.Context, tx ports.Store, b *domain.Box) (*domain.Container, error) {
	if b.ContainerID == nil {
		return nil, nil
	}
	return tx.GetContainer(ctx, *b.ContainerID)
}
