package pipeline

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/courier/internal/queue"
)

// Domain errors for pipeline operations.
var (
	ErrAlreadyProcessing = errors.New("document is already being processed")
	ErrNoOCRText         = errors.New("no ocr text available for analysis")
	ErrAnalysisDisabled  = errors.New("ai analysis is not configured")
	ErrInvalidID         = errors.New("invalid document id")
)

// MapHTTPStatus maps pipeline errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrAlreadyProcessing) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrNoOCRText) || errors.Is(err, queue.ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrInvalidID) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrAnalysisDisabled) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
