package ports

import (
	"context"

	"cargo-pipeline/internal/core/auth"
	"cargo-pipeline/internal/features/labels/domain"
	pipeline "cargo-pipeline/internal/features/pipeline/domain"
)

// Renderer turns a document into a stored label and returns its URL.
type Renderer interface {
	Render(ctx context.Context, doc domain.Document) (string, error)
}

// Orders is the part of the transition engine labels need.
type Orders interface {
	GetOrder(ctx context.Context, id int64) (*pipeline.Order, error)
	AttachLabel(ctx context.Context, actor auth.Actor, orderID int64, url string) (*pipeline.Order, error)
	ClearLabel(ctx context.Context, actor auth.Actor, orderID int64) (*pipeline.Order, error)
}

// LabelService attaches labels to orders.
type LabelService interface {
	// Generate renders a label for the order and attaches it.
	Generate(ctx context.Context, actor auth.Actor, orderID int64) (*pipeline.Order, error)
	// Attach stores a label rendered elsewhere.
	Attach(ctx context.Context, actor auth.Actor, orderID int64, url string) (*pipeline.Order, error)
	Clear(ctx context.Context, actor auth.Actor, orderID int64) (*pipeline.Order, error)
}
