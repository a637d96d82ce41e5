package service

import (
	"context"
	"fmt"

	"cargo-pipeline/internal/core/apperr"
	"cargo-pipeline/internal/core/auth"
	feed "cargo-pipeline/internal/features/feed/domain"
	"cargo-pipeline/internal/features/pipeline/domain"
	"cargo-pipeline/internal/features/pipeline/ports"

	"go.uber.org/zap"
)

// Quote prices an order and moves it to quoted.
func (e *Engine) Quote(ctx context.Context, actor auth.Actor, orderID int64, in domain.QuoteInput) (*domain.Order, error) {
	var total string
	err := e.store.Atomic(ctx, func(tx ports.Store) error {
		o, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		q, err := domain.PlanQuote(*o, in)
		if err != nil {
			return err
		}
		total = q.TotalQuote.StringFixed(2)
		return tx.SaveQuote(ctx, o.ID, q, domain.QuoteSources...)
	})
	if err != nil {
		return nil, fmt.Errorf("service: failed to quote order %d: %w", orderID, err)
	}

	e.publish(ctx, feed.TableOrders)
	e.done("quote", actor, zap.Int64("order_id", orderID), zap.String("total_quote", total))
	return e.GetOrder(ctx, orderID)
}

// AdvanceOrder applies a manual forward move on an order.
func (e *Engine) AdvanceOrder(ctx context.Context, actor auth.Actor, orderID int64, next domain.OrderState) (*domain.Order, error) {
	err := e.store.Atomic(ctx, func(tx ports.Store) error {
		o, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		noop, err := domain.PlanAdvanceOrder(*o, next)
		if err != nil || noop {
			return err
		}
		return tx.SetOrderState(ctx, o.ID, next, o.State)
	})
	if err != nil {
		return nil, fmt.Errorf("service: failed to advance order %d: %w", orderID, err)
	}

	e.publish(ctx, feed.TableOrders)
	e.done("advance_order", actor, zap.Int64("order_id", orderID), zap.Int("state", int(next)))
	return e.GetOrder(ctx, orderID)
}

// PackOrder puts an order into a box.
func (e *Engine) PackOrder(ctx context.Context, actor auth.Actor, orderID, boxID int64) (*domain.Order, error) {
	var state domain.OrderState
	err := e.store.Atomic(ctx, func(tx ports.Store) error {
		o, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		b, err := tx.GetBox(ctx, boxID)
		if err != nil {
			return err
		}
		c, err := containerOf(ctx, tx, b)
		if err != nil {
			return err
		}
		if state, err = domain.PlanPackOrder(*o, *b, c); err != nil {
			return err
		}
		held := &domain.BoxGuard{
			BoxID:        b.ID,
			States:       domain.OpenBoxStates,
			PinContainer: true,
			ContainerID:  b.ContainerID,
		}
		return tx.SetOrderBox(ctx, o.ID, &b.ID, state, held, domain.PackSources...)
	})
	if err != nil {
		return nil, fmt.Errorf("service: failed to pack order %d into box %d: %w", orderID, boxID, err)
	}

	e.publish(ctx, feed.TableOrders)
	e.done("pack_order", actor,
		zap.Int64("order_id", orderID),
		zap.Int64("box_id", boxID),
		zap.Int("state", int(state)),
	)
	return e.GetOrder(ctx, orderID)
}

// UnpackOrder takes an order out of its box and returns it to ready to pack.
func (e *Engine) UnpackOrder(ctx context.Context, actor auth.Actor, orderID int64) (*domain.Order, error) {
	err := e.store.Atomic(ctx, func(tx ports.Store) error {
		o, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if o.BoxID == nil {
			return apperr.Conflict("order %d is not packed", o.ID)
		}
		b, err := tx.GetBox(ctx, *o.BoxID)
		if err != nil {
			return err
		}
		c, err := containerOf(ctx, tx, b)
		if err != nil {
			return err
		}
		if err := domain.PlanUnpackOrder(*o, *b, c); err != nil {
			return err
		}
		held := &domain.BoxGuard{BoxID: b.ID, States: domain.OpenBoxStates}
		return tx.SetOrderBox(ctx, o.ID, nil, domain.OrderReadyToPack, held, domain.PackSources...)
	})
	if err != nil {
		return nil, fmt.Errorf("service: failed to unpack order %d: %w", orderID, err)
	}

	e.publish(ctx, feed.TableOrders)
	e.done("unpack_order", actor, zap.Int64("order_id", orderID))
	return e.GetOrder(ctx, orderID)
}

// AttachLabel stores the rendered label reference on an order.
func (e *Engine) AttachLabel(ctx context.Context, actor auth.Actor, orderID int64, url string) (*domain.Order, error) {
	err := e.store.Atomic(ctx, func(tx ports.Store) error {
		o, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if err := domain.CheckAttachLabel(*o, url); err != nil {
			return err
		}
		return tx.SetOrderLabel(ctx, o.ID, &url)
	})
	if err != nil {
		return nil, fmt.Errorf("service: failed to attach label to order %d: %w", orderID, err)
	}

	e.publish(ctx, feed.TableOrders)
	e.done("attach_label", actor, zap.Int64("order_id", orderID))
	return e.GetOrder(ctx, orderID)
}

// ClearLabel removes the label reference from an order.
func (e *Engine) ClearLabel(ctx context.Context, actor auth.Actor, orderID int64) (*domain.Order, error) {
	if err := e.store.SetOrderLabel(ctx, orderID, nil); err != nil {
		return nil, fmt.Errorf("service: failed to clear label of order %d: %w", orderID, err)
	}

	e.publish(ctx, feed.TableOrders)
	e.done("clear_label", actor, zap.Int64("order_id", orderID))
	return e.GetOrder(ctx, orderID)
}
