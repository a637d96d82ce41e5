package ports

import (
	"context"

	feed "cargo-pipeline/internal/features/feed/domain"
	"cargo-pipeline/internal/features/pipeline/domain"
)

// Guarded writes below take a from list: the write applies only while the row is
// in one of those states. An empty list applies unconditionally. A guard miss is
// an apperr conflict; a missing row is an apperr not-found. Writes that set the
// row's current values again succeed, so re-running a cascade converges.

// OrderRepository persists orders.
type OrderRepository interface {
	CreateOrder(ctx context.Context, o *domain.Order) error
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	ListOrders(ctx context.Context, f domain.OrderFilter) ([]domain.Order, error)
	CountOrders(ctx context.Context, f domain.OrderFilter) (int, error)

	SaveQuote(ctx context.Context, id int64, q domain.Quote, from ...domain.OrderState) error
	SetOrderState(ctx context.Context, id int64, to domain.OrderState, from ...domain.OrderState) error
	// SetOrderBox sets or clears box_id together with the state. A non-nil held
	// additionally requires the box it names to still satisfy it; a miss is a conflict.
	SetOrderBox(ctx context.Context, id int64, boxID *int64, to domain.OrderState, held *domain.BoxGuard, from ...domain.OrderState) error
	SetOrderLabel(ctx context.Context, id int64, route *string) error
	// CascadeOrders updates every order matching c in one statement and returns
	// how many rows changed.
	CascadeOrders(ctx context.Context, c domain.OrderCascade) (int, error)
}

// BoxRepository persists boxes.
type BoxRepository interface {
	CreateBox(ctx context.Context, b *domain.Box) error
	GetBox(ctx context.Context, id int64) (*domain.Box, error)
	ListBoxes(ctx context.Context, f domain.BoxFilter) ([]domain.Box, error)
	CountBoxes(ctx context.Context, f domain.BoxFilter) (int, error)

	SetBoxState(ctx context.Context, id int64, to domain.BoxState, from ...domain.BoxState) error
	// SetBoxContainer assigns or clears container_id together with the state.
	// Assigning additionally requires the box to be loose or already in that container.
	SetBoxContainer(ctx context.Context, id int64, containerID *int64, to domain.BoxState, from ...domain.BoxState) error
	// CascadeBoxes moves every box of a container whose state is in from.
	CascadeBoxes(ctx context.Context, containerID int64, to domain.BoxState, from ...domain.BoxState) (int, error)
	DeleteBox(ctx context.Context, id int64, from ...domain.BoxState) error
}

// ContainerRepository persists containers.
type ContainerRepository interface {
	CreateContainer(ctx context.Context, c *domain.Container) error
	GetContainer(ctx context.Context, id int64) (*domain.Container, error)
	ListContainers(ctx context.Context) ([]domain.Container, error)

	SetContainerState(ctx context.Context, id int64, to domain.ContainerState, from ...domain.ContainerState) error
	// SetContainerShipment stores tracking metadata. It is written separately from
	// the state so a store that refuses the metadata columns still ships the container.
	SetContainerShipment(ctx context.Context, id int64, s domain.Shipment) error
	DeleteContainer(ctx context.Context, id int64, from ...domain.ContainerState) error
}

// Store is the entity store. The transition engine is its only writer.
type Store interface {
	OrderRepository
	BoxRepository
	ContainerRepository

	// Atomic runs fn as one unit. Stores that can batch roll back every write
	// made through tx when fn returns an error.
	Atomic(ctx context.Context, fn func(tx Store) error) error
}

// ChangePublisher notifies observers that rows in the given tables changed.
type ChangePublisher interface {
	Publish(ctx context.Context, tables ...feed.Table) error
}
