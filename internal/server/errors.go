package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/saadk408/victry/internal/db"
	"github.com/saadk408/victry/internal/fetch"
	"github.com/saadk408/victry/internal/llm"
	"github.com/saadk408/victry/internal/types"
)

var (
	// ErrUnauthenticated means the request carries no valid session.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden means the session may not perform the operation.
	ErrForbidden = errors.New("forbidden")
)

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	status, _ := classify(err)
	return status
}

// ErrorCode returns the machine readable code sent with an error response.
func ErrorCode(err error) string {
	_, code := classify(err)
	return code
}

func classify(err error) (int, string) {
	if err == nil {
		return http.StatusInternalServerError, "internal"
	}

	var validation *types.ValidationError
	var fetchErr *fetch.Error
	var llmErr *llm.Error
	var maxBytes *http.MaxBytesError

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, "validation_failed"
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge, "body_too_large"
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, db.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, db.ErrConstraint):
		return http.StatusUnprocessableEntity, "constraint_violation"
	case errors.As(err, &fetchErr):
		return http.StatusUnprocessableEntity, "import_failed"
	case errors.As(err, &llmErr):
		switch llmErr.Kind {
		case llm.KindRateLimited:
			return http.StatusTooManyRequests, "llm_rate_limited"
		case llm.KindTimeout:
			return http.StatusGatewayTimeout, "llm_timeout"
		}
		return http.StatusBadGateway, "llm_" + string(llmErr.Kind)
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	}
	return http.StatusInternalServerError, "internal"
}

// errorMessage returns the message shown to clients. Server errors are not
// described.
func errorMessage(status int, err error) string {
	if status >= http.StatusInternalServerError {
		if status == http.StatusInternalServerError {
			return "internal server error"
		}
		return http.StatusText(status)
	}

	var validation *types.ValidationError
	if errors.As(err, &validation) {
		return validation.Error()
	}
	var constraint *db.ConstraintError
	if errors.As(err, &constraint) {
		if constraint.Constraint != "" {
			return "constraint violated: " + constraint.Constraint
		}
		return constraint.Kind.Error()
	}
	var fetchErr *fetch.Error
	if errors.As(err, &fetchErr) {
		return "could not import job posting: " + fetchErr.Message
	}
	var llmErr *llm.Error
	if errors.As(err, &llmErr) && llmErr.Kind == llm.KindRateLimited {
		return "model provider is rate limiting requests, try again later"
	}
	if errors.Is(err, db.ErrNotFound) {
		return "not found"
	}
	return err.Error()
}
