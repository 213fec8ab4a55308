package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/centsible/centsible-backend/internal/domain"
)

// ProblemDetails follows RFC 7807 for HTTP API error responses.
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

const (
	errTypeValidation = "https://centsible.app/errors/validation"
	errTypeNotFound   = "https://centsible.app/errors/not-found"
	errTypeForbidden  = "https://centsible.app/errors/forbidden"
	errTypeConflict   = "https://centsible.app/errors/conflict"
	errTypeInternal   = "https://centsible.app/errors/internal"
)

func NewValidationError(detail string) *ProblemDetails {
	return &ProblemDetails{
		Type:   errTypeValidation,
		Title:  "Validation Failed",
		Status: http.StatusBadRequest,
		Detail: detail,
	}
}

func NewNotFoundError(detail string) *ProblemDetails {
	return &ProblemDetails{
		Type:   errTypeNotFound,
		Title:  "Resource Not Found",
		Status: http.StatusNotFound,
		Detail: detail,
	}
}

func NewForbiddenError(detail string) *ProblemDetails {
	return &ProblemDetails{
		Type:   errTypeForbidden,
		Title:  "Forbidden",
		Status: http.StatusForbidden,
		Detail: detail,
	}
}

func NewConflictError(detail string) *ProblemDetails {
	return &ProblemDetails{
		Type:   errTypeConflict,
		Title:  "Conflict",
		Status: http.StatusConflict,
		Detail: detail,
	}
}

func NewInternalError() *ProblemDetails {
	return &ProblemDetails{
		Type:   errTypeInternal,
		Title:  "Internal Server Error",
		Status: http.StatusInternalServerError,
		Detail: "an unexpected error occurred",
	}
}

// respondError maps domain errors to RFC 7807 responses. Unclassified
// errors are logged and returned as a 500 without leaking details.
func respondError(c echo.Context, err error) error {
	var problem *ProblemDetails

	switch {
	case domain.IsValidation(err):
		problem = NewValidationError(err.Error())
	case domain.IsNotFound(err):
		problem = NewNotFoundError(err.Error())
	case errors.Is(err, domain.ErrForbidden):
		problem = NewForbiddenError(err.Error())
	case domain.IsConflict(err):
		problem = NewConflictError(err.Error())
	default:
		log.Error().Err(err).
			Str("path", c.Request().URL.Path).
			Str("method", c.Request().Method).
			Msg("unhandled error")
		problem = NewInternalError()
	}

	problem.Instance = c.Request().URL.Path
	return c.JSON(problem.Status, problem)
}
