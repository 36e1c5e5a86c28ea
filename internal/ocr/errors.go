package ocr

import "errors"

// Domain errors for OCR extraction.
var (
	ErrNoPages       = errors.New("ocr provider returned no pages")
	ErrEmptyDocument = errors.New("document is empty")
)
