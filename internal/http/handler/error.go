package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"itemapi/internal/http/middleware"
	"itemapi/internal/model"
	"itemapi/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// writeServiceError translates a service error into a response. Validation and filter
// messages describe the caller's own input and are returned as-is; backend details
// never are.
func writeServiceError(c *fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrUnauthenticated) {
		return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
	}

	switch model.ErrorKind(err) {
	case model.KindValidation:
		return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case model.KindInvalidFilter:
		return writeError(c, fiber.StatusBadRequest, "INVALID_FILTER", err.Error())
	case model.KindNotFound:
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "item not found")
	case model.KindDuplicate:
		return writeError(c, fiber.StatusConflict, "CONFLICT", "item already exists")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusUnauthorized:
			return writeError(c, status, "UNAUTHORIZED", "authentication required")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusConflict:
			return writeError(c, status, "CONFLICT", "conflict")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
