package handler

import (
	"strconv"

	"cargo-pipeline/internal/core/server"
	"cargo-pipeline/internal/features/pipeline/domain"

	"github.com/gofiber/fiber/v2"
)

// NameRequest optionally names a new box or container.
type NameRequest struct {
	Name string `json:"name" validate:"max=120"`
}

// PackBoxRequest names the container a box goes into.
type PackBoxRequest struct {
	ContainerID int64 `json:"container_id" validate:"required,gt=0"`
}

// UnpackBoxRequest optionally names the container the caller expects the box in.
type UnpackBoxRequest struct {
	ExpectedContainerID *int64 `json:"expected_container_id" validate:"omitempty,gt=0"`
}

// CreateBox handles POST /boxes.
// @Summary Create a box
// @Tags Boxes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body NameRequest false "Name"
// @Success 201 {object} domain.Box
// @Router /boxes [post]
func (h *PipelineHandler) CreateBox(c *fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return unauthorized(c)
	}
	var req NameRequest
	if err := h.bind(c, &req, true); err != nil {
		return server.BadRequest(c, err.Error())
	}

	b, err := h.engine.CreateBox(c.Context(), actor, req.Name)
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(b)
}

// ListBoxes handles GET /boxes.
// @Summary List boxes
// @Tags Boxes
// @Produce json
// @Security BearerAuth
// @Param container_id query int false "Container ID"
// @Success 200 {array} domain.Box
// @Router /boxes [get]
func (h *PipelineHandler) ListBoxes(c *fiber.Ctx) error {
	var f domain.BoxFilter
	if raw := c.Query("container_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return server.BadRequest(c, "invalid container_id filter")
		}
		f.ContainerID = &id
	}

	boxes, err := h.engine.ListBoxes(c.Context(), f)
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.JSON(boxes)
}

// GetBox handles GET /boxes/:id.
// @Summary Get a box
// @Tags Boxes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Box ID"
// @Success 200 {object} domain.Box
// @Failure 404 {object} server.ErrorResponse
// @Router /boxes/{id} [get]
func (h *PipelineHandler) GetBox(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return server.BadRequest(c, err.Error())
	}
	b, err := h.engine.GetBox(c.Context(), id)
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.JSON(b)
}

// DeleteBox handles DELETE /boxes/:id.
// @Summary Delete an empty box
// @Tags Boxes
// @Security BearerAuth
// @Param id path int true "Box ID"
// @Success 204
// @Failure 409 {object} server.ErrorResponse
// @Router /boxes/{id} [delete]
func (h *PipelineHandler) DeleteBox(c *fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := idParam(c)
	if err != nil {
		return server.BadRequest(c, err.Error())
	}
	if err := h.engine.DeleteBox(c.Context(), actor, id); err != nil {
		return server.WriteError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// PackBox handles POST /boxes/:id/pack.
// @Summary Pack a box into a container
// @Tags Boxes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Box ID"
// @Param body body PackBoxRequest true "Container"
// @Success 200 {object} domain.Box
// @Failure 400 {object} server.ErrorResponse
// @Failure 409 {object} server.ErrorResponse
// @Router /boxes/{id}/pack [post]
func (h *PipelineHandler) PackBox(c *fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := idParam(c)
	if err != nil {
		return server.BadRequest(c, err.Error())
	}
	var req PackBoxRequest
	if err := h.bind(c, &req, false); err != nil {
		return server.BadRequest(c, err.Error())
	}

	b, err := h.engine.PackBox(c.Context(), actor, id, req.ContainerID)
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.JSON(b)
}

// UnpackBox handles POST /boxes/:id/unpack.
// @Summary Take a box out of its container
// @Description Every order in the box returns to ready to pack.
// @Tags Boxes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Box ID"
// @Param body body UnpackBoxRequest false "Expected container"
// @Success 200 {object} domain.Box
// @Failure 409 {object} server.ErrorResponse
// @Router /boxes/{id}/unpack [post]
func (h *PipelineHandler) UnpackBox(c *fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := idParam(c)
	if err != nil {
		return server.BadRequest(c, err.Error())
	}
	var req UnpackBoxRequest
	if err := h.bind(c, &req, true); err != nil {
		return server.BadRequest(c, err.Error())
	}

	b, err := h.engine.UnpackBox(c.Context(), actor, id, req.ExpectedContainerID)
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.JSON(b)
}

// AdvanceBox handles POST /boxes/:id/advance.
// @Summary Move a box past shipping
// @Description 4->5, 5->6, or 4->6 when every order ships by air.
// @Tags Boxes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Box ID"
// @Param body body AdvanceRequest true "Target state"
// @Success 200 {object} domain.Box
// @Failure 409 {object} server.ErrorResponse
// @Router /boxes/{id}/advance [post]
func (h *PipelineHandler) AdvanceBox(c *fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := idParam(c)
	if err != nil {
		return server.BadRequest(c, err.Error())
	}
	var req AdvanceRequest
	if err := h.bind(c, &req, false); err != nil {
		return server.BadRequest(c, err.Error())
	}

	b, err := h.engine.AdvanceBox(c.Context(), actor, id, domain.BoxState(req.State))
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.JSON(b)
}

// SendBox handles POST /boxes/:id/send.
// @Summary Ship a loose box directly
// @Tags Boxes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Box ID"
// @Success 200 {object} domain.Box
// @Failure 400 {object} server.ErrorResponse
// @Failure 409 {object} server.ErrorResponse
// @Router /boxes/{id}/send [post]
func (h *PipelineHandler) SendBox(c *fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := idParam(c)
	if err != nil {
		return server.BadRequest(c, err.Error())
	}

	b, err := h.engine.SendBox(c.Context(), actor, id)
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.JSON(b)
}
