package errors

import (
	"errors"
	"log"
	"net/http"

	"github.com/jobscout/jobscout/pkg/domain"
	"github.com/jobscout/jobscout/pkg/models"
	"github.com/labstack/echo/v4"
)

// FromDomain writes the response for err. DomainErrors map to their status
// code; anything else is a generic 500.
func FromDomain(c echo.Context, err error) error {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		if errors.Is(err, domain.ErrNotFound) {
			return NotFoundError(c, "resource")
		}
		return InternalError(c, err)
	}

	switch de.Code {
	case domain.ErrCodeUnauthorized:
		return UnauthorizedError(c, de.Message)
	case domain.ErrCodeInvalidRequest:
		return InvalidRequestError(c, de.Fields)
	case domain.ErrCodeUsageLimitExceeded:
		return UsageLimitError(c, de)
	case domain.ErrCodeProfileCreationFailed, domain.ErrCodePersistence:
		return PersistenceError(c, de)
	case domain.ErrCodeGenerationFailed:
		return GenerationError(c, de)
	case domain.ErrCodeInvalidSignature:
		log.Printf("[SIGNATURE ERROR] Path: %s, Error: %v", c.Request().URL.Path, err)
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_signature",
			Message: de.Message,
		})
	case domain.ErrCodeNotFound:
		return NotFoundError(c, de.Message)
	case domain.ErrCodeConflict:
		return ConflictError(c, de.Message)
	default:
		return InternalError(c, err)
	}
}

// ValidationError returns a generic validation error without exposing internal details
func ValidationError(c echo.Context, err error) error {
	log.Printf("[VALIDATION ERROR] Path: %s, Error: %v", c.Request().URL.Path, err)

	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "validation_error",
		Message: "Invalid request data. Please check your input and try again.",
	})
}

// InvalidRequestError returns the per-field validation failures
func InvalidRequestError(c echo.Context, fields []domain.FieldError) error {
	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "invalid_request",
		Message: "Invalid request data",
		Details: fields,
	})
}

// UsageLimitError returns the quota payload the client uses to offer an upgrade
func UsageLimitError(c echo.Context, de *domain.DomainError) error {
	resp := models.UsageLimitResponse{
		Error:        "usage_limit_exceeded",
		Message:      de.Message,
		NeedsUpgrade: true,
	}
	if de.Usage != nil {
		resp.Usage = models.UsageCheck{
			CanCreate: de.Usage.CanCreate,
			Used:      de.Usage.Used,
			Limit:     de.Usage.Limit,
		}
	}
	return c.JSON(http.StatusForbidden, resp)
}

// PersistenceError returns the operation that failed without the storage detail
func PersistenceError(c echo.Context, de *domain.DomainError) error {
	log.Printf("[DATABASE ERROR] Path: %s, Error: %v", c.Request().URL.Path, de)

	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:   "database_error",
		Message: de.Message,
	})
}

// GenerationError returns a generic completion failure
func GenerationError(c echo.Context, de *domain.DomainError) error {
	log.Printf("[GENERATION ERROR] Path: %s, Error: %v", c.Request().URL.Path, de)

	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:   "generation_failed",
		Message: de.Message,
	})
}

// DatabaseError returns a generic database error without exposing internal details
func DatabaseError(c echo.Context, err error) error {
	log.Printf("[DATABASE ERROR] Path: %s, Error: %v", c.Request().URL.Path, err)

	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:   "database_error",
		Message: "A database error occurred. Please try again later.",
	})
}

// InternalError returns a generic internal server error
func InternalError(c echo.Context, err error) error {
	log.Printf("[INTERNAL ERROR] Path: %s, Error: %v", c.Request().URL.Path, err)

	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred. Please try again later.",
	})
}

// UnauthorizedError returns a generic unauthorized error
func UnauthorizedError(c echo.Context, reason string) error {
	return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
		Error:   "unauthorized",
		Message: "You are not authorized to access this resource.",
	})
}

// NotFoundError returns a not found error naming the resource
func NotFoundError(c echo.Context, message string) error {
	return c.JSON(http.StatusNotFound, models.ErrorResponse{
		Error:   "not_found",
		Message: message,
	})
}

// ConflictError returns a generic conflict error
func ConflictError(c echo.Context, message string) error {
	return c.JSON(http.StatusConflict, models.ErrorResponse{
		Error:   "conflict",
		Message: message,
	})
}
