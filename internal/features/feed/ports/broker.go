package ports

import (
	"context"

	"cargo-pipeline/internal/features/feed/domain"
)

// Broker carries changes between service instances.
type Broker interface {
	// Publish sends one change to every listening instance, including this one.
	Publish(ctx context.Context, ch domain.Change) error
	// Listen calls fn for every change until ctx is done.
	Listen(ctx context.Context, fn func(domain.Change)) error
	Close() error
}
