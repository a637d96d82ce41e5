package handler

import (
	"net/http"
	"strconv"

	"cargo-pipeline/internal/core/auth"
	"cargo-pipeline/internal/core/httpclient"
	"cargo-pipeline/internal/core/server"
	"cargo-pipeline/internal/features/labels/ports"

	"github.com/gofiber/fiber/v2"
)

// LabelHandler handles label HTTP requests.
type LabelHandler struct {
	service ports.LabelService
}

// NewLabelHandler creates a new LabelHandler.
func NewLabelHandler(service ports.LabelService) *LabelHandler {
	return &LabelHandler{
		service: service,
	}
}

// Register mounts the label routes on api.
func (h *LabelHandler) Register(api *server.Protected) {
	orders := api.Group("/orders")
	orders.Post("/:id/label", h.AttachLabel)
	orders.Delete("/:id/label", h.ClearLabel)
}

// AttachLabelRequest carries a label rendered elsewhere. Without it the label
// service renders one.
type AttachLabelRequest struct {
	URL string `json:"url"`
}

// AttachLabel godoc
// @Summary      Attach a label to an order
// @Description  Stores the given url, or renders a label through the label service when no url is sent. The order must be quoted.
// @Tags         labels
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                 true   "Order ID"
// @Param        request  body      AttachLabelRequest  false  "Pre-rendered label"
// @Success      200      {object}  domain.Order
// @Failure      400      {object}  server.ErrorResponse
// @Failure      404      {object}  server.ErrorResponse
// @Failure      409      {object}  server.ErrorResponse
// @Router       /orders/{id}/label [post]
func (h *LabelHandler) AttachLabel(c *fiber.Ctx) error {
	actor, ok := auth.FromCtx(c)
	if !ok {
		return c.Status(http.StatusUnauthorized).JSON(server.ErrorResponse{
			Message: "request carries no actor",
			RayID:   server.RayID(c),
		})
	}

	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return server.BadRequest(c, "invalid id")
	}

	var req AttachLabelRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return server.BadRequest(c, "invalid request body")
		}
	}

	ctx := httpclient.WithRequestID(c.Context(), server.RayID(c))

	if req.URL != "" {
		order, err := h.service.Attach(ctx, actor, id, req.URL)
		if err != nil {
			return server.WriteError(c, err)
		}
		return c.JSON(order)
	}

	order, err := h.service.Generate(ctx, actor, id)
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.JSON(order)
}

// ClearLabel godoc
// @Summary      Clear an order's label
// @Tags         labels
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Order ID"
// @Success      200  {object}  domain.Order
// @Failure      404  {object}  server.ErrorResponse
// @Router       /orders/{id}/label [delete]
func (h *LabelHandler) ClearLabel(c *fiber.Ctx) error {
	actor, ok := auth.FromCtx(c)
	if !ok {
		return c.Status(http.StatusUnauthorized).JSON(server.ErrorResponse{
			Message: "request carries no actor",
			RayID:   server.RayID(c),
		})
	}

	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return server.BadRequest(c, "invalid id")
	}

	order, err := h.service.Clear(c.Context(), actor, id)
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.JSON(order)
}
