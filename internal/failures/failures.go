// Package failures tracks documents excluded from further automatic
// processing. A permanent failure and a queue entry are mutually exclusive:
// escalating removes the queue row in the same transaction.
package failures

import "time"

// Source identifies the pipeline stage that produced the failure.
type Source string

const (
	SourceOCR Source = "ocr"
	SourceAI  Source = "ai"
)

// Valid reports whether s is a recognized source.
func (s Source) Valid() bool {
	return s == SourceOCR || s == SourceAI
}

// PermanentFailure is one document excluded from automatic processing.
type PermanentFailure struct {
	DocumentID   int       `json:"document_id"`
	FailedReason string    `json:"failed_reason"`
	Source       Source    `json:"source"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Stats summarizes permanent failure counts per source.
type Stats struct {
	OCR   int `json:"ocr"`
	AI    int `json:"ai"`
	Total int `json:"total"`
}
