package errs

import (
	"errors"
	"net/http"
)

// HTTPStatus maps a domain error to the HTTP status code handlers should return.
func HTTPStatus(err error) int {
	var (
		validation *ValidationError
		notFound   *NotFoundError
		permission *PermissionDeniedError
		state      *InvalidStateError
		conf       *ConfigurationError
		gateway    *GatewayError
		conflict   *ConcurrencyConflictError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &permission):
		return http.StatusForbidden
	case errors.As(err, &state):
		return http.StatusConflict
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &conf):
		return http.StatusUnprocessableEntity
	case errors.As(err, &gateway):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
