package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"cargo-pipeline/internal/core/auth"
	"cargo-pipeline/internal/core/server"
	"cargo-pipeline/internal/features/pipeline/ports"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// PipelineHandler exposes the transition engine over HTTP.
type PipelineHandler struct {
	engine   ports.Engine
	validate *validator.Validate
}

// NewPipelineHandler creates a new PipelineHandler.
func NewPipelineHandler(engine ports.Engine) *PipelineHandler {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	return &PipelineHandler{
		engine:   engine,
		validate: v,
	}
}

// Register mounts the pipeline routes on api.
func (h *PipelineHandler) Register(api *server.Protected) {
	orders := api.Group("/orders")
	orders.Post("/", h.RegisterOrder)
	orders.Get("/", h.ListOrders)
	orders.Get("/:id", h.GetOrder)
	orders.Post("/:id/quote", h.QuoteOrder)
	orders.Post("/:id/advance", h.AdvanceOrder)
	orders.Post("/:id/pack", h.PackOrder)
	orders.Post("/:id/unpack", h.UnpackOrder)

	boxes := api.Group("/boxes")
	boxes.Post("/", h.CreateBox)
	boxes.Get("/", h.ListBoxes)
	boxes.Get("/:id", h.GetBox)
	boxes.Delete("/:id", h.DeleteBox)
	boxes.Post("/:id/pack", h.PackBox)
	boxes.Post("/:id/unpack", h.UnpackBox)
	boxes.Post("/:id/advance", h.AdvanceBox)
	boxes.Post("/:id/send", h.SendBox)

	containers := api.Group("/containers")
	containers.Post("/", h.CreateContainer)
	containers.Get("/", h.ListContainers)
	containers.Get("/:id", h.GetContainer)
	containers.Delete("/:id", h.DeleteContainer)
	containers.Post("/:id/send", h.SendContainer)
}

// AdvanceRequest asks for a manual state move.
type AdvanceRequest struct {
	State int `json:"state" validate:"required,gt=0"`
}

// errUnauthenticated should not happen behind the auth middleware.
var errUnauthenticated = errors.New("request carries no actor")

func actorOf(c *fiber.Ctx) (auth.Actor, error) {
	actor, ok := auth.FromCtx(c)
	if !ok {
		return auth.Actor{}, errUnauthenticated
	}
	return actor, nil
}

func idParam(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", c.Params("id"))
	}
	return id, nil
}

// bind parses the body into req and validates it. An empty body is accepted when
// optional is true.
func (h *PipelineHandler) bind(c *fiber.Ctx, req any, optional bool) error {
	if optional && len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(req); err != nil {
		return fmt.Errorf("invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid %s: %s", verrs[0].Field(), verrs[0].Tag())
		}
		return err
	}
	return nil
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(http.StatusUnauthorized).JSON(server.ErrorResponse{
		Message: errUnauthenticated.Error(),
		RayID:   server.RayID(c),
	})
}
