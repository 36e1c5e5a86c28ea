package failures

import (
	"errors"
	"net/http"
)

// Domain errors for permanent failure operations.
var (
	ErrNotFound      = errors.New("permanent failure not found")
	ErrDuplicate     = errors.New("permanent failure already recorded")
	ErrInvalidID     = errors.New("invalid document id")
	ErrInvalidSource = errors.New("invalid failure source")
)

// MapHTTPStatus maps failure domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidID) || errors.Is(err, ErrInvalidSource) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
