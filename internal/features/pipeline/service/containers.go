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

var unsentBoxStates = []domain.BoxState{domain.BoxNew, domain.BoxPacked, domain.BoxInContainer}

// SendContainer ships a loading container with its boxes and their orders.
//
// The tracking details are stored after the state change commits. If that write
// fails the container is still returned, together with an apperr partial
// persistence error the caller should surface as a warning.
func (e *Engine) SendContainer(ctx context.Context, actor auth.Actor, containerID int64, details domain.ShipmentDetails) (*domain.Container, error) {
	var (
		shipment domain.Shipment
		resume   bool
		boxes    int
		orders   int
	)
	target := domain.OrderStateForBox(domain.BoxShipped)
	err := e.store.Atomic(ctx, func(tx ports.Store) error {
		c, err := tx.GetContainer(ctx, containerID)
		if err != nil {
			return err
		}
		inside, err := tx.ListBoxes(ctx, domain.BoxFilter{ContainerID: &c.ID})
		if err != nil {
			return err
		}
		boxIDs := make([]int64, 0, len(inside))
		unsent := 0
		for _, b := range inside {
			boxIDs = append(boxIDs, b.ID)
			if b.State < domain.BoxShipped {
				unsent++
			}
		}
		pending := 0
		if len(boxIDs) > 0 {
			pending, err = tx.CountOrders(ctx, domain.OrderFilter{BoxIDs: boxIDs, States: domain.CascadeSources(target)})
			if err != nil {
				return err
			}
		}

		shipment, resume, err = domain.PlanSendContainer(*c, details, len(inside), unsent == 0 && pending == 0)
		if err != nil {
			return err
		}

		if err := tx.SetContainerState(ctx, c.ID, domain.ContainerShipped, domain.ContainerLoading, domain.ContainerShipped); err != nil {
			return err
		}
		if boxes, err = tx.CascadeBoxes(ctx, c.ID, domain.BoxShipped, unsentBoxStates...); err != nil {
			return err
		}
		orders, err = tx.CascadeOrders(ctx, domain.OrderCascade{
			BoxIDs: boxIDs,
			To:     target,
			From:   domain.CascadeSources(target),
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("service: failed to send container %d: %w", containerID, err)
	}
	e.publish(ctx, feed.TableContainers, feed.TableBoxes, feed.TableOrders)

	fields := []zap.Field{
		zap.Int64("container_id", containerID),
		zap.Int("boxes", boxes),
		zap.Int("orders", orders),
		zap.Bool("resumed", resume),
	}

	var warning error
	if err := e.store.SetContainerShipment(ctx, containerID, shipment); err != nil {
		e.logger.Warn("Container shipped without tracking details", append(fields, zap.Error(err))...)
		warning = apperr.PartialPersistence(err, "container %d shipped but its tracking details were not stored", containerID)
	} else {
		e.publish(ctx, feed.TableContainers)
	}

	e.done("send_container", actor, fields...)
	c, err := e.GetContainer(ctx, containerID)
	if err != nil {
		return nil, err
	}
	return c, warning
}

// DeleteContainer removes an empty, unshipped container.
func (e *Engine) DeleteContainer(ctx context.Context, actor auth.Actor, containerID int64) error {
	err := e.store.Atomic(ctx, func(tx ports.Store) error {
		c, err := tx.GetContainer(ctx, containerID)
		if err != nil {
			return err
		}
		count, err := tx.CountBoxes(ctx, domain.BoxFilter{ContainerID: &c.ID})
		if err != nil {
			return err
		}
		if err := domain.CheckDeleteContainer(*c, count); err != nil {
			return err
		}
		return tx.DeleteContainer(ctx, c.ID, domain.ContainerNew, domain.ContainerLoading)
	})
	if err != nil {
		return fmt.Errorf("service: failed to delete container %d: %w", containerID, err)
	}

	e.publish(ctx, feed.TableContainers)
	e.done("delete_container", actor, zap.Int64("container_id", containerID))
	return nil
}
