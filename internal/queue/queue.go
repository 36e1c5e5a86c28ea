// Package queue implements the OCR fallback queue: documents the backend
// could not extract usable text from, tracked through a small processing
// state machine.
package queue

import "time"

// Status is the processing state of a queue entry.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
)

// Valid reports whether s is a recognized status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusDone, StatusFailed:
		return true
	}
	return false
}

// ReasonManual marks entries queued by an operator rather than the scan path.
const ReasonManual = "manual"

// ValidTransition reports whether a status change is allowed. Entries enter
// as pending, must pass through processing before reaching done or failed,
// and may re-enter processing from failed (retry) or done (re-run).
func ValidTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusProcessing
	case StatusProcessing:
		return to == StatusDone || to == StatusFailed
	case StatusFailed, StatusDone:
		return to == StatusProcessing
	}
	return false
}

// QueueEntry is one document awaiting or holding OCR results.
type QueueEntry struct {
	DocumentID int       `json:"document_id"`
	Status     Status    `json:"status"`
	Reason     string    `json:"reason"`
	OCRText    *string   `json:"ocr_text,omitempty"`
	AddedAt    time.Time `json:"added_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// HasText reports whether the entry holds non-empty stored OCR text.
func (e *QueueEntry) HasText() bool {
	return e.OCRText != nil && *e.OCRText != ""
}

// Stats summarizes queue entry counts per status.
type Stats struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Done       int `json:"done"`
	Failed     int `json:"failed"`
	Total      int `json:"total"`
}

// AddCommand enqueues a document manually. An empty Reason defaults to
// ReasonManual.
type AddCommand struct {
	DocumentID int    `json:"document_id"`
	Reason     string `json:"reason"`
}
