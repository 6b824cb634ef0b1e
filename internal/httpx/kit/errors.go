package kit

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"cardvault-api/internal/bulk"
	"cardvault-api/internal/catalog"
	"cardvault-api/internal/collection"
	"cardvault-api/internal/customfield"
	"cardvault-api/internal/logx"
	"cardvault-api/internal/store"
)

var kitLogger = logx.GetScope("httpx.kit")

// APIError is a structured application error with code and message.
type APIError struct {
	HTTPStatus int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

func (e *APIError) Error() string { return e.Message }

func NewAPIError(httpStatus int, code, msg string, details any) *APIError {
	return &APIError{HTTPStatus: httpStatus, Code: code, Message: msg, Details: details}
}

func BadRequest(msg string, details any) error {
	return NewAPIError(http.StatusBadRequest, "E_INVALID_PARAM", msg, details)
}

func NotFound(msg string) error { return NewAPIError(http.StatusNotFound, "E_NOT_FOUND", msg, nil) }

func Conflict(msg string, details any) error {
	return NewAPIError(http.StatusConflict, "E_CONFLICT", msg, details)
}

// Unprocessable reports a request the engine refused by rule, not by shape.
func Unprocessable(msg string, details any) error {
	return NewAPIError(http.StatusUnprocessableEntity, "E_GUARD_REJECTED", msg, details)
}

func InternalError(msg string, details any) error {
	return NewAPIError(http.StatusInternalServerError, "E_INTERNAL", msg, details)
}

// FromDomain maps engine and store errors onto API errors. Unknown errors
// become E_INTERNAL without leaking their text.
func FromDomain(err error) error {
	if err == nil {
		return nil
	}
	var ae *APIError
	var fe *fiber.Error
	switch {
	case errors.As(err, &ae), errors.As(err, &fe):
		return err
	case errors.Is(err, store.ErrNotFound):
		return NotFound("not found")
	case errors.Is(err, store.ErrConflict):
		return Conflict("already exists", nil)
	case errors.Is(err, customfield.ErrValidationRejected):
		return Conflict(err.Error(), nil)
	case errors.Is(err, customfield.ErrGuardRejected):
		return Unprocessable(err.Error(), nil)
	case errors.Is(err, customfield.ErrUnknownKind),
		errors.Is(err, customfield.ErrUnknownSlot),
		errors.Is(err, customfield.ErrInvalidValue),
		errors.Is(err, catalog.ErrUnknownField),
		errors.Is(err, catalog.ErrInvalidField),
		errors.Is(err, bulk.ErrTriStateValue),
		errors.Is(err, collection.ErrEmptySelection):
		return BadRequest(err.Error(), nil)
	}
	kitLogger.Sugar().Errorf("unhandled error: %v", err)
	return InternalError("internal error", nil)
}

// ErrorHandler returns a Fiber error handler that emits unified error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{
				"code":       httpStatusToCode(fe.Code),
				"message":    fe.Message,
				"request_id": RequestID(c),
			})
		}

		var ae *APIError
		if !errors.As(err, &ae) {
			errors.As(FromDomain(err), &ae)
		}
		return c.Status(ae.HTTPStatus).JSON(fiber.Map{
			"code":       ae.Code,
			"message":    ae.Message,
			"details":    ae.Details,
			"request_id": RequestID(c),
		})
	}
}

func httpStatusToCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "E_INVALID_PARAM"
	case http.StatusNotFound:
		return "E_NOT_FOUND"
	case http.StatusUnauthorized:
		return "E_UNAUTHORIZED"
	case http.StatusForbidden:
		return "E_FORBIDDEN"
	case http.StatusConflict:
		return "E_CONFLICT"
	case http.StatusTooManyRequests:
		return "E_RATE_LIMITED"
	default:
		if status >= 500 {
			return "E_INTERNAL"
		}
		return "E_UNKNOWN"
	}
}
