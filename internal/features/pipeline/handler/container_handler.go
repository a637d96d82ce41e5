package handler

import (
	"errors"

	"cargo-pipeline/internal/core/apperr"
	"cargo-pipeline/internal/core/logger"
	"cargo-pipeline/internal/core/server"
	"cargo-pipeline/internal/features/pipeline/domain"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// SendContainerResponse carries the shipped container. Warning is set when the
// container shipped but its tracking details must be entered again.
type SendContainerResponse struct {
	Container *domain.Container `json:"container"`
	Warning   string            `json:"warning,omitempty"`
}

// CreateContainer handles POST /containers.
// @Summary Create a container
// @Tags Containers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body NameRequest false "Name"
// @Success 201 {object} domain.Container
// @Router /containers [post]
func (h *PipelineHandler) CreateContainer(c *fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return unauthorized(c)
	}
	var req NameRequest
	if err := h.bind(c, &req, true); err != nil {
		return server.BadRequest(c, err.Error())
	}

	ct, err := h.engine.CreateContainer(c.Context(), actor, req.Name)
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ct)
}

// ListContainers handles GET /containers.
// @Summary List containers
// @Tags Containers
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Container
// @Router /containers [get]
func (h *PipelineHandler) ListContainers(c *fiber.Ctx) error {
	containers, err := h.engine.ListContainers(c.Context())
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.JSON(containers)
}

// GetContainer handles GET /containers/:id.
// @Summary Get a container
// @Tags Containers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Container ID"
// @Success 200 {object} domain.Container
// @Failure 404 {object} server.ErrorResponse
// @Router /containers/{id} [get]
func (h *PipelineHandler) GetContainer(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return server.BadRequest(c, err.Error())
	}
	ct, err := h.engine.GetContainer(c.Context(), id)
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.JSON(ct)
}

// DeleteContainer handles DELETE /containers/:id.
// @Summary Delete an empty container
// @Tags Containers
// @Security BearerAuth
// @Param id path int true "Container ID"
// @Success 204
// @Failure 409 {object} server.ErrorResponse
// @Router /containers/{id} [delete]
func (h *PipelineHandler) DeleteContainer(c *fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := idParam(c)
	if err != nil {
		return server.BadRequest(c, err.Error())
	}
	if err := h.engine.DeleteContainer(c.Context(), actor, id); err != nil {
		return server.WriteError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SendContainer handles POST /containers/:id/send.
// @Summary Ship a container
// @Description All four shipment fields are mandatory. A 200 with a warning means
// @Description the container shipped but its tracking details were not stored.
// @Tags Containers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Container ID"
// @Param body body domain.ShipmentDetails true "Shipment"
// @Success 200 {object} SendContainerResponse
// @Failure 400 {object} server.ErrorResponse
// @Failure 409 {object} server.ErrorResponse
// @Router /containers/{id}/send [post]
func (h *PipelineHandler) SendContainer(c *fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := idParam(c)
	if err != nil {
		return server.BadRequest(c, err.Error())
	}
	var details domain.ShipmentDetails
	if err := c.BodyParser(&details); err != nil {
		return server.BadRequest(c, "invalid request body")
	}

	ct, err := h.engine.SendContainer(c.Context(), actor, id, details)
	switch {
	case err == nil:
		return c.JSON(SendContainerResponse{Container: ct})
	case errors.Is(err, apperr.ErrPartialPersistence) && ct != nil:
		logger.Get().Warn("Container shipped with partial persistence",
			zap.Int64("container_id", id),
			zap.String("ray_id", server.RayID(c)),
			zap.Error(err),
		)
		return c.JSON(SendContainerResponse{Container: ct, Warning: apperr.MessageOf(err)})
	}
	return server.WriteError(c, err)
}
