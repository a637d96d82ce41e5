package ports

import (
	"context"

	pipeline "cargo-pipeline/internal/features/pipeline/domain"
	"cargo-pipeline/internal/features/projections/domain"
)

// Reader is the read side of the entity store that projections derive from.
type Reader interface {
	ListBoxes(ctx context.Context, f pipeline.BoxFilter) ([]pipeline.Box, error)
	ListOrders(ctx context.Context, f pipeline.OrderFilter) ([]pipeline.Order, error)
}

// SummaryRepository keeps computed box summaries between changes.
type SummaryRepository interface {
	Save(ctx context.Context, summaries []domain.BoxSummary) error
	// Get returns nil, nil when nothing is stored.
	Get(ctx context.Context) ([]domain.BoxSummary, error)
	Delete(ctx context.Context) error
}

// ProjectionService serves the read models.
type ProjectionService interface {
	BoxSummaries(ctx context.Context) ([]domain.BoxSummary, error)
	BoxSummary(ctx context.Context, boxID int64) (*domain.BoxSummary, error)
	Badge(entity string, state int) (pipeline.Badge, error)
}
