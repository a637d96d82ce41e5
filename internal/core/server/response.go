package server

import (
	"net/http"

	"cargo-pipeline/internal/core/apperr"
	"cargo-pipeline/internal/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorResponse represents a standard error response.
type ErrorResponse struct {
	// Message is the error description.
	Message string `json:"message"`
	// Code classifies the failure so callers can pick a retry strategy.
	Code apperr.Code `json:"code,omitempty"`
	// RayID is the unique request identifier for tracing.
	RayID string `json:"ray_id"`
}

// RayID returns the request id set by the requestid middleware.
func RayID(c *fiber.Ctx) string {
	rayID, ok := c.Locals("requestid").(string)
	if !ok {
		return "unknown"
	}
	return rayID
}

// StatusOf maps an application error onto an HTTP status.
func StatusOf(err error) int {
	switch apperr.CodeOf(err) {
	case apperr.CodeValidation:
		return http.StatusBadRequest
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeConflict:
		return http.StatusConflict
	case apperr.CodePartialPersistence:
		return http.StatusOK
	}
	return http.StatusInternalServerError
}

// WriteError logs err and writes it as an ErrorResponse.
func WriteError(c *fiber.Ctx, err error) error {
	status := StatusOf(err)
	code := apperr.CodeOf(err)
	rayID := RayID(c)

	msg := apperr.MessageOf(err)
	if status == http.StatusInternalServerError {
		logger.Get().Error("Request failed",
			zap.String("path", c.Path()),
			zap.String("ray_id", rayID),
			zap.Error(err),
		)
		msg = "Internal Server Error"
	} else {
		logger.Get().Warn("Request rejected",
			zap.String("path", c.Path()),
			zap.String("ray_id", rayID),
			zap.String("code", string(code)),
			zap.String("reason", msg),
		)
	}

	return c.Status(status).JSON(ErrorResponse{
		Message: msg,
		Code:    code,
		RayID:   rayID,
	})
}

// BadRequest writes a validation ErrorResponse for malformed requests that never
// reached the application.
func BadRequest(c *fiber.Ctx, msg string) error {
	return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
		Message: msg,
		Code:    apperr.CodeValidation,
		RayID:   RayID(c),
	})
}
