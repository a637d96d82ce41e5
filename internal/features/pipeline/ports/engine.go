package ports

import (
	"context"

	"cargo-pipeline/internal/core/auth"
	"cargo-pipeline/internal/features/pipeline/domain"
)

// Engine is the transition engine as seen by the HTTP surface and the other
// features. Every mutating call names the acting user explicitly.
type Engine interface {
	RegisterOrder(ctx context.Context, actor auth.Actor, o domain.Order) (*domain.Order, error)
	Quote(ctx context.Context, actor auth.Actor, orderID int64, in domain.QuoteInput) (*domain.Order, error)
	AdvanceOrder(ctx context.Context, actor auth.Actor, orderID int64, next domain.OrderState) (*domain.Order, error)
	PackOrder(ctx context.Context, actor auth.Actor, orderID, boxID int64) (*domain.Order, error)
	UnpackOrder(ctx context.Context, actor auth.Actor, orderID int64) (*domain.Order, error)
	AttachLabel(ctx context.Context, actor auth.Actor, orderID int64, url string) (*domain.Order, error)
	ClearLabel(ctx context.Context, actor auth.Actor, orderID int64) (*domain.Order, error)

	CreateBox(ctx context.Context, actor auth.Actor, name string) (*domain.Box, error)
	PackBox(ctx context.Context, actor auth.Actor, boxID, containerID int64) (*domain.Box, error)
	UnpackBox(ctx context.Context, actor auth.Actor, boxID int64, expectedContainerID *int64) (*domain.Box, error)
	AdvanceBox(ctx context.Context, actor auth.Actor, boxID int64, next domain.BoxState) (*domain.Box, error)
	SendBox(ctx context.Context, actor auth.Actor, boxID int64) (*domain.Box, error)
	DeleteBox(ctx context.Context, actor auth.Actor, boxID int64) error

	CreateContainer(ctx context.Context, actor auth.Actor, name string) (*domain.Container, error)
	SendContainer(ctx context.Context, actor auth.Actor, containerID int64, details domain.ShipmentDetails) (*domain.Container, error)
	DeleteContainer(ctx context.Context, actor auth.Actor, containerID int64) error

	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	ListOrders(ctx context.Context, f domain.OrderFilter) ([]domain.Order, error)
	GetBox(ctx context.Context, id int64) (*domain.Box, error)
	ListBoxes(ctx context.Context, f domain.BoxFilter) ([]domain.Box, error)
	GetContainer(ctx context.Context, id int64) (*domain.Container, error)
	ListContainers(ctx context.Context) ([]domain.Container, error)
}
