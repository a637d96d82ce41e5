package service

import (
	"context"
	"fmt"

	"cargo-pipeline/internal/core/apperr"
	"cargo-pipeline/internal/core/auth"
	"cargo-pipeline/internal/core/logger"
	"cargo-pipeline/internal/features/labels/domain"
	"cargo-pipeline/internal/features/labels/ports"
	pipeline "cargo-pipeline/internal/features/pipeline/domain"

	"go.uber.org/zap"
)

// LabelServiceImpl implements ports.LabelService.
type LabelServiceImpl struct {
	orders   ports.Orders
	renderer ports.Renderer
	logger   *zap.Logger
}

var _ ports.LabelService = (*LabelServiceImpl)(nil)

// NewLabelService creates a new LabelServiceImpl. renderer may be nil when no
// label service is configured; Generate then fails and only Attach works.
func NewLabelService(orders ports.Orders, renderer ports.Renderer) *LabelServiceImpl {
	return &LabelServiceImpl{
		orders:   orders,
		renderer: renderer,
		logger:   logger.Named("labels"),
	}
}

// Generate renders the order's label and stores the returned URL on it.
func (s *LabelServiceImpl) Generate(ctx context.Context, actor auth.Actor, orderID int64) (*pipeline.Order, error) {
	if s.renderer == nil {
		return nil, apperr.Validation("label rendering is not configured; provide a url")
	}

	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	doc, err := domain.NewDocument(*order)
	if err != nil {
		return nil, err
	}

	url, err := s.renderer.Render(ctx, doc)
	if err != nil {
		s.logger.Error("Failed to render label",
			zap.Int64("order_id", orderID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("service: failed to render label: %w", err)
	}

	return s.orders.AttachLabel(ctx, actor, orderID, url)
}

// Attach stores url as the order's label.
func (s *LabelServiceImpl) Attach(ctx context.Context, actor auth.Actor, orderID int64, url string) (*pipeline.Order, error) {
	return s.orders.AttachLabel(ctx, actor, orderID, url)
}

// Clear removes the order's label reference.
func (s *LabelServiceImpl) Clear(ctx context.Context, actor auth.Actor, orderID int64) (*pipeline.Order, error) {
	return s.orders.ClearLabel(ctx, actor, orderID)
}
