package service

import (
	"context"
	"fmt"

	"cargo-pipeline/internal/core/auth"
	feed "cargo-pipeline/internal/features/feed/domain"
	"cargo-pipeline/internal/features/pipeline/domain"
	"cargo-pipeline/internal/features/pipeline/ports"

	"go.uber.org/zap"
)

// PackBox assigns a box to a container and moves its orders into the container.
// Packing a box that already sits in the same container re-applies the order cascade.
func (e *Engine) PackBox(ctx context.Context, actor auth.Actor, boxID, containerID int64) (*domain.Box, error) {
	var (
		resume bool
		moved  int
	)
	err := e.store.Atomic(ctx, func(tx ports.Store) error {
		b, err := tx.GetBox(ctx, boxID)
		if err != nil {
			return err
		}
		c, err := tx.GetContainer(ctx, containerID)
		if err != nil {
			return err
		}
		count, err := tx.CountOrders(ctx, domain.OrderFilter{BoxIDs: []int64{b.ID}})
		if err != nil {
			return err
		}
		if resume, err = domain.PlanPackBox(*b, *c, count); err != nil {
			return err
		}

		// Parent first: the container opens before any child points at it.
		if err := tx.SetContainerState(ctx, c.ID, domain.ContainerLoading, domain.ContainerNew, domain.ContainerLoading); err != nil {
			return err
		}
		if err := tx.SetBoxContainer(ctx, b.ID, &c.ID, domain.BoxPacked, domain.BoxNew, domain.BoxPacked); err != nil {
			return err
		}
		moved, err = tx.CascadeOrders(ctx, domain.OrderCascade{
			BoxIDs: []int64{b.ID},
			To:     domain.OrderInContainer,
			From:   domain.CascadeSources(domain.OrderInContainer),
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("service: failed to pack box %d into container %d: %w", boxID, containerID, err)
	}

	e.publish(ctx, feed.TableContainers, feed.TableBoxes, feed.TableOrders)
	e.done("pack_box", actor,
		zap.Int64("box_id", boxID),
		zap.Int64("container_id", containerID),
		zap.Int("orders", moved),
		zap.Bool("resumed", resume),
	)
	return e.GetBox(ctx, boxID)
}

// UnpackBox takes a box out of its container. Every order in the box is unpacked
// too. expectedContainerID, when set, is the container the caller believes the box
// is in; the call is rejected if that container has shipped or no longer holds it.
func (e *Engine) UnpackBox(ctx context.Context, actor auth.Actor, boxID int64, expectedContainerID *int64) (*domain.Box, error) {
	var reset int
	err := e.store.Atomic(ctx, func(tx ports.Store) error {
		b, err := tx.GetBox(ctx, boxID)
		if err != nil {
			return err
		}
		var expected *domain.Container
		if expectedContainerID != nil {
			if expected, err = tx.GetContainer(ctx, *expectedContainerID); err != nil {
				return err
			}
		}
		current, err := containerOf(ctx, tx, b)
		if err != nil {
			return err
		}
		if err := domain.PlanUnpackBox(*b, expected, current); err != nil {
			return err
		}

		// Children first: no order is left pointing at a box that dropped it.
		reset, err = tx.CascadeOrders(ctx, domain.OrderCascade{
			BoxIDs: []int64{b.ID},
			To:     domain.OrderReadyToPack,
			From:   domain.PackSources,
			Detach: true,
		})
		if err != nil {
			return err
		}
		return tx.SetBoxContainer(ctx, b.ID, nil, domain.BoxNew, domain.BoxNew, domain.BoxPacked)
	})
	if err != nil {
		return nil, fmt.Errorf("service: failed to unpack box %d: %w", boxID, err)
	}

	e.publish(ctx, feed.TableBoxes, feed.TableOrders)
	e.done("unpack_box", actor, zap.Int64("box_id", boxID), zap.Int("orders", reset))
	return e.GetBox(ctx, boxID)
}

// AdvanceBox moves a box past shipping and cascades the matching state to its orders.
func (e *Engine) AdvanceBox(ctx context.Context, actor auth.Actor, boxID int64, next domain.BoxState) (*domain.Box, error) {
	var moved int
	err := e.store.Atomic(ctx, func(tx ports.Store) error {
		b, err := tx.GetBox(ctx, boxID)
		if err != nil {
			return err
		}
		orders, err := tx.ListOrders(ctx, domain.OrderFilter{BoxIDs: []int64{b.ID}})
		if err != nil {
			return err
		}
		target, err := domain.PlanAdvanceBox(*b, next, orders)
		if err != nil {
			return err
		}

		if err := tx.SetBoxState(ctx, b.ID, next, b.State, next); err != nil {
			return err
		}
		moved, err = tx.CascadeOrders(ctx, domain.OrderCascade{
			BoxIDs: []int64{b.ID},
			To:     target,
			From:   domain.CascadeSources(target),
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("service: failed to advance box %d: %w", boxID, err)
	}

	e.publish(ctx, feed.TableBoxes, feed.TableOrders)
	e.done("advance_box", actor,
		zap.Int64("box_id", boxID),
		zap.Int("state", int(next)),
		zap.Int("orders", moved),
	)
	return e.GetBox(ctx, boxID)
}

// SendBox ships a loose box directly, without a container.
func (e *Engine) SendBox(ctx context.Context, actor auth.Actor, boxID int64) (*domain.Box, error) {
	var (
		resume bool
		moved  int
	)
	target := domain.OrderStateForBox(domain.BoxShipped)
	err := e.store.Atomic(ctx, func(tx ports.Store) error {
		b, err := tx.GetBox(ctx, boxID)
		if err != nil {
			return err
		}
		count, err := tx.CountOrders(ctx, domain.OrderFilter{BoxIDs: []int64{b.ID}})
		if err != nil {
			return err
		}
		pending, err := tx.CountOrders(ctx, domain.OrderFilter{
			BoxIDs: []int64{b.ID},
			States: domain.CascadeSources(target),
		})
		if err != nil {
			return err
		}
		if resume, err = domain.PlanSendBox(*b, count, pending == 0); err != nil {
			return err
		}

		if err := tx.SetBoxState(ctx, b.ID, domain.BoxShipped, domain.BoxNew, domain.BoxPacked, domain.BoxShipped); err != nil {
			return err
		}
		moved, err = tx.CascadeOrders(ctx, domain.OrderCascade{
			BoxIDs: []int64{b.ID},
			To:     target,
			From:   domain.CascadeSources(target),
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("service: failed to send box %d: %w", boxID, err)
	}

	e.publish(ctx, feed.TableBoxes, feed.TableOrders)
	e.done("send_box", actor,
		zap.Int64("box_id", boxID),
		zap.Int("orders", moved),
		zap.Bool("resumed", resume),
	)
	return e.GetBox(ctx, boxID)
}

// DeleteBox removes an empty, unshipped box.
func (e *Engine) DeleteBox(ctx context.Context, actor auth.Actor, boxID int64) error {
	err := e.store.Atomic(ctx, func(tx ports.Store) error {
		b, err := tx.GetBox(ctx, boxID)
		if err != nil {
			return err
		}
		c, err := containerOf(ctx, tx, b)
		if err != nil {
			return err
		}
		count, err := tx.CountOrders(ctx, domain.OrderFilter{BoxIDs: []int64{b.ID}})
		if err != nil {
			return err
		}
		if err := domain.CheckDeleteBox(*b, c, count); err != nil {
			return err
		}
		return tx.DeleteBox(ctx, b.ID, domain.BoxNew, domain.BoxPacked)
	})
	if err != nil {
		return fmt.Errorf("service: failed to delete box %d: %w", boxID, err)
	}

	e.publish(ctx, feed.TableBoxes)
	e.done("delete_box", actor, zap.Int64("box_id", boxID))
	return nil
}
