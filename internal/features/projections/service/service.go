package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"cargo-pipeline/internal/core/apperr"
	"cargo-pipeline/internal/core/logger"
	feed "cargo-pipeline/internal/features/feed/domain"
	feedservice "cargo-pipeline/internal/features/feed/service"
	pipeline "cargo-pipeline/internal/features/pipeline/domain"
	"cargo-pipeline/internal/features/projections/domain"
	"cargo-pipeline/internal/features/projections/ports"

	"go.uber.org/zap"
)

// ProjectionService serves derived read models. Box summaries are cached in repo
// until a change to orders or boxes invalidates them.
type ProjectionService struct {
	reader ports.Reader
	repo   ports.SummaryRepository
	logger *zap.Logger
	// gen counts invalidations. A computation only fills the cache when no
	// invalidation happened while it ran.
	gen atomic.Uint64
}

var _ ports.ProjectionService = (*ProjectionService)(nil)

// NewProjectionService creates a ProjectionService. repo may be nil, in which
// case summaries are recomputed on every read.
func NewProjectionService(reader ports.Reader, repo ports.SummaryRepository) *ProjectionService {
	return &ProjectionService{
		reader: reader,
		repo:   repo,
		logger: logger.Named("projections"),
	}
}

// BoxSummaries returns a summary for every box.
func (s *ProjectionService) BoxSummaries(ctx context.Context) ([]domain.BoxSummary, error) {
	if s.repo != nil {
		cached, err := s.repo.Get(ctx)
		if err != nil {
			s.logger.Warn("Failed to read cached box summaries", zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	gen := s.gen.Load()
	summaries, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}

	if s.repo != nil {
		s.fill(ctx, gen, summaries)
	}
	return summaries, nil
}

// fill caches summaries computed at generation gen unless an invalidation has
// since happened. An invalidation racing the save deletes the entry again.
func (s *ProjectionService) fill(ctx context.Context, gen uint64, summaries []domain.BoxSummary) {
	if s.gen.Load() != gen {
		s.logger.Debug("Skipping cache fill after invalidation")
		return
	}
	if err := s.repo.Save(ctx, summaries); err != nil {
		s.logger.Warn("Failed to cache box summaries", zap.Error(err))
		return
	}
	if s.gen.Load() != gen {
		if err := s.repo.Delete(ctx); err != nil {
			s.logger.Warn("Failed to drop stale box summaries", zap.Error(err))
		}
	}
}

// BoxSummary returns the summary of one box.
func (s *ProjectionService) BoxSummary(ctx context.Context, boxID int64) (*domain.BoxSummary, error) {
	summaries, err := s.BoxSummaries(ctx)
	if err != nil {
		return nil, err
	}
	for i := range summaries {
		if summaries[i].BoxID == boxID {
			return &summaries[i], nil
		}
	}
	return nil, apperr.NotFound("box", boxID)
}

// Badge renders the badge of a state. Unknown states still render; an unknown
// entity is a validation error.
func (s *ProjectionService) Badge(entity string, state int) (pipeline.Badge, error) {
	e, ok := pipeline.ParseEntity(entity)
	if !ok {
		return pipeline.Badge{}, apperr.Validation("unknown entity %q", entity)
	}
	return pipeline.BadgeFor(e, state), nil
}

// Invalidate drops cached summaries.
func (s *ProjectionService) Invalidate(ctx context.Context) error {
	s.gen.Add(1)
	if s.repo == nil {
		return nil
	}
	if err := s.repo.Delete(ctx); err != nil {
		return fmt.Errorf("service: failed to invalidate box summaries: %w", err)
	}
	return nil
}

// Watch invalidates the cache whenever orders or boxes change, coalescing bursts
// within debounce. The returned func stops watching.
func (s *ProjectionService) Watch(hub *feedservice.Hub, debounce time.Duration) func() {
	d := feedservice.NewDebouncer(debounce, func() {
		if err := s.Invalidate(context.Background()); err != nil {
			s.logger.Warn("Failed to invalidate projections", zap.Error(err))
		}
	})

	handles := []feedservice.Handle{
		hub.Subscribe(feed.TableOrders, d.Trigger),
		hub.Subscribe(feed.TableBoxes, d.Trigger),
	}

	return func() {
		for _, h := range handles {
			hub.Unsubscribe(h)
		}
		d.Stop()
	}
}

func (s *ProjectionService) compute(ctx context.Context) ([]domain.BoxSummary, error) {
	boxes, err := s.reader.ListBoxes(ctx, pipeline.BoxFilter{})
	if err != nil {
		return nil, fmt.Errorf("service: failed to list boxes: %w", err)
	}
	if len(boxes) == 0 {
		return []domain.BoxSummary{}, nil
	}

	ids := make([]int64, 0, len(boxes))
	for _, b := range boxes {
		ids = append(ids, b.ID)
	}
	orders, err := s.reader.ListOrders(ctx, pipeline.OrderFilter{BoxIDs: ids})
	if err != nil {
		return nil, fmt.Errorf("service: failed to list orders: %w", err)
	}

	return domain.Summarize(boxes, orders), nil
}
