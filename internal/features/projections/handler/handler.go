package handler

import (
	"strconv"

	"cargo-pipeline/internal/core/server"
	"cargo-pipeline/internal/features/projections/ports"

	"github.com/gofiber/fiber/v2"
)

// ProjectionHandler serves read models over HTTP.
type ProjectionHandler struct {
	service ports.ProjectionService
}

// NewProjectionHandler creates a new ProjectionHandler.
func NewProjectionHandler(service ports.ProjectionService) *ProjectionHandler {
	return &ProjectionHandler{
		service: service,
	}
}

// Register mounts the projection routes on api.
func (h *ProjectionHandler) Register(api *server.Protected) {
	projections := api.Group("/projections")
	projections.Get("/boxes", h.ListBoxSummaries)
	projections.Get("/boxes/:id", h.GetBoxSummary)

	api.Group("/badges").Get("/:entity/:state", h.GetBadge)
}

// ListBoxSummaries godoc
// @Summary      List box summaries
// @Description  Every box with its badge, order count and air-only flag
// @Tags         projections
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.BoxSummary
// @Failure      500  {object}  server.ErrorResponse
// @Router       /projections/boxes [get]
func (h *ProjectionHandler) ListBoxSummaries(c *fiber.Ctx) error {
	summaries, err := h.service.BoxSummaries(c.Context())
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.JSON(summaries)
}

// GetBoxSummary godoc
// @Summary      Get a box summary
// @Tags         projections
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Box ID"
// @Success      200  {object}  domain.BoxSummary
// @Failure      400  {object}  server.ErrorResponse
// @Failure      404  {object}  server.ErrorResponse
// @Router       /projections/boxes/{id} [get]
func (h *ProjectionHandler) GetBoxSummary(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return server.BadRequest(c, "invalid id")
	}

	summary, err := h.service.BoxSummary(c.Context(), id)
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.JSON(summary)
}

// GetBadge godoc
// @Summary      Render a state badge
// @Description  Label and category for a numeric state. Unknown states render as "unknown state N".
// @Tags         projections
// @Produce      json
// @Security     BearerAuth
// @Param        entity  path      string  true  "order, box or container"
// @Param        state   path      int     true  "Numeric state"
// @Success      200     {object}  domain.Badge
// @Failure      400     {object}  server.ErrorResponse
// @Router       /badges/{entity}/{state} [get]
func (h *ProjectionHandler) GetBadge(c *fiber.Ctx) error {
	state, err := strconv.Atoi(c.Params("state"))
	if err != nil {
		return server.BadRequest(c, "invalid state")
	}

	badge, err := h.service.Badge(c.Params("entity"), state)
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.JSON(badge)
}
