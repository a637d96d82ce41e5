package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cargo-pipeline/internal/core/cache"
	"cargo-pipeline/internal/features/projections/domain"
)

const summaryCacheKey = "projections:boxes"

// CacheSummaryRepository implements ports.SummaryRepository on the cache port.
type CacheSummaryRepository struct {
	cache cache.Cache
	ttl   time.Duration
}

// NewCacheSummaryRepository creates a CacheSummaryRepository. Entries expire
// after ttl even if no change invalidates them.
func NewCacheSummaryRepository(c cache.Cache, ttl time.Duration) *CacheSummaryRepository {
	return &CacheSummaryRepository{
		cache: c,
		ttl:   ttl,
	}
}

// Save stores the summaries in the cache.
func (r *CacheSummaryRepository) Save(ctx context.Context, summaries []domain.BoxSummary) error {
	data, err := json.Marshal(summaries)
	if err != nil {
		return fmt.Errorf("failed to marshal box summaries: %w", err)
	}

	if err := r.cache.Set(ctx, summaryCacheKey, data, r.ttl); err != nil {
		return fmt.Errorf("failed to save box summaries to cache: %w", err)
	}

	return nil
}

// Get retrieves the summaries from the cache.
func (r *CacheSummaryRepository) Get(ctx context.Context) ([]domain.BoxSummary, error) {
	data, err := r.cache.Get(ctx, summaryCacheKey)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get box summaries from cache: %w", err)
	}

	var summaries []domain.BoxSummary
	if err := json.Unmarshal(data, &summaries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal box summaries: %w", err)
	}

	return summaries, nil
}

// Delete removes the summaries from the cache.
func (r *CacheSummaryRepository) Delete(ctx context.Context) error {
	if err := r.cache.Delete(ctx, summaryCacheKey); err != nil {
		return fmt.Errorf("failed to delete box summaries from cache: %w", err)
	}
	return nil
}
