package handler

import (
	"strconv"
	"strings"

	"cargo-pipeline/internal/core/server"
	"cargo-pipeline/internal/features/pipeline/domain"

	"github.com/gofiber/fiber/v2"
)

// RegisterOrderRequest is the intake form for a new order.
type RegisterOrderRequest struct {
	Quantity     int                 `json:"quantity" validate:"required,gt=0"`
	ProductName  string              `json:"product_name" validate:"required"`
	ClientName   string              `json:"client_name"`
	ClientID     string              `json:"client_id"`
	DeliveryType string              `json:"delivery_type"`
	ShippingType domain.ShippingType `json:"shipping_type" validate:"omitempty,oneof=air maritime"`
}

// PackOrderRequest names the box an order goes into.
type PackOrderRequest struct {
	BoxID int64 `json:"box_id" validate:"required,gt=0"`
}

// RegisterOrder handles POST /orders.
// @Summary Register an order
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param order body RegisterOrderRequest true "Order"
// @Success 201 {object} domain.Order
// @Failure 400 {object} server.ErrorResponse
// @Router /orders [post]
func (h *PipelineHandler) RegisterOrder(c *fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return unauthorized(c)
	}
	var req RegisterOrderRequest
	if err := h.bind(c, &req, false); err != nil {
		return server.BadRequest(c, err.Error())
	}

	o, err := h.engine.RegisterOrder(c.Context(), actor, domain.Order{
		Quantity:     req.Quantity,
		ProductName:  req.ProductName,
		ClientName:   req.ClientName,
		ClientID:     req.ClientID,
		DeliveryType: req.DeliveryType,
		ShippingType: req.ShippingType,
	})
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(o)
}

// ListOrders handles GET /orders.
// @Summary List orders
// @Description Optional filters: states (comma separated) and box_id.
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param states query string false "e.g. 1,2"
// @Param box_id query int false "Box ID"
// @Success 200 {array} domain.Order
// @Router /orders [get]
func (h *PipelineHandler) ListOrders(c *fiber.Ctx) error {
	var f domain.OrderFilter
	if raw := c.Query("states"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return server.BadRequest(c, "invalid states filter")
			}
			f.States = append(f.States, domain.OrderState(n))
		}
	}
	if raw := c.Query("box_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return server.BadRequest(c, "invalid box_id filter")
		}
		f.BoxIDs = []int64{id}
	}

	orders, err := h.engine.ListOrders(c.Context(), f)
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.JSON(orders)
}

// GetOrder handles GET /orders/:id.
// @Summary Get an order
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 404 {object} server.ErrorResponse
// @Router /orders/{id} [get]
func (h *PipelineHandler) GetOrder(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return server.BadRequest(c, err.Error())
	}
	o, err := h.engine.GetOrder(c.Context(), id)
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.JSON(o)
}

// QuoteOrder handles POST /orders/:id/quote.
// @Summary Quote an order
// @Description total_quote = unit_price * quantity + shipping_price
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param quote body domain.QuoteInput true "Prices and measurements"
// @Success 200 {object} domain.Order
// @Failure 400 {object} server.ErrorResponse
// @Failure 409 {object} server.ErrorResponse
// @Router /orders/{id}/quote [post]
func (h *PipelineHandler) QuoteOrder(c *fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := idParam(c)
	if err != nil {
		return server.BadRequest(c, err.Error())
	}
	var in domain.QuoteInput
	if err := c.BodyParser(&in); err != nil {
		return server.BadRequest(c, "invalid request body")
	}

	o, err := h.engine.Quote(c.Context(), actor, id, in)
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.JSON(o)
}

// AdvanceOrder handles POST /orders/:id/advance.
// @Summary Move an order forward
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param body body AdvanceRequest true "Target state"
// @Success 200 {object} domain.Order
// @Failure 409 {object} server.ErrorResponse
// @Router /orders/{id}/advance [post]
func (h *PipelineHandler) AdvanceOrder(c *fiber.Ctx) error {
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

	o, err := h.engine.AdvanceOrder(c.Context(), actor, id, domain.OrderState(req.State))
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.JSON(o)
}

// PackOrder handles POST /orders/:id/pack.
// @Summary Pack an order into a box
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param body body PackOrderRequest true "Box"
// @Success 200 {object} domain.Order
// @Failure 409 {object} server.ErrorResponse
// @Router /orders/{id}/pack [post]
func (h *PipelineHandler) PackOrder(c *fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := idParam(c)
	if err != nil {
		return server.BadRequest(c, err.Error())
	}
	var req PackOrderRequest
	if err := h.bind(c, &req, false); err != nil {
		return server.BadRequest(c, err.Error())
	}

	o, err := h.engine.PackOrder(c.Context(), actor, id, req.BoxID)
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.JSON(o)
}

// UnpackOrder handles POST /orders/:id/unpack.
// @Summary Take an order out of its box
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 409 {object} server.ErrorResponse
// @Router /orders/{id}/unpack [post]
func (h *PipelineHandler) UnpackOrder(c *fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := idParam(c)
	if err != nil {
		return server.BadRequest(c, err.Error())
	}

	o, err := h.engine.UnpackOrder(c.Context(), actor, id)
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.JSON(o)
}
