package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/skill-matcher/internal/tools"
)

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		inputErr    *tools.InputError
		notFoundErr *tools.NotFoundError
		guardErr    *tools.GuardViolation
		capErr      *tools.CapExceeded
		upstreamErr *tools.UpstreamError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &inputErr):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &guardErr):
		return http.StatusForbidden
	case errors.As(err, &capErr):
		return http.StatusTooManyRequests
	case errors.As(err, &upstreamErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorCode is the machine-readable error kind in error bodies.
func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_input"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusForbidden:
		return "recipient_not_confirmed"
	case http.StatusTooManyRequests:
		return "tool_limit_exceeded"
	case http.StatusBadGateway:
		return "upstream_failure"
	default:
		return "internal_error"
	}
}
