package queue

import (
	"errors"
	"net/http"
)

// Domain errors for queue operations.
var (
	ErrNotFound          = errors.New("queue entry not found")
	ErrDuplicate         = errors.New("document already queued")
	ErrProcessing        = errors.New("queue entry is currently processing")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNoText            = errors.New("no ocr text stored for document")
	ErrInvalidID         = errors.New("invalid document id")
)

// MapHTTPStatus maps queue domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNoText) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) || errors.Is(err, ErrProcessing) || errors.Is(err, ErrInvalidTransition) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidID) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
