package queue

import (
	"net/url"

	"github.com/JaimeStill/courier/pkg/query"
	"github.com/JaimeStill/courier/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "ocr_queue", "q").
	Project("document_id", "DocumentID").
	Project("status", "Status").
	Project("reason", "Reason").
	Project("ocr_text", "OCRText").
	Project("added_at", "AddedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "AddedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for queue queries.
// Nil fields are ignored. Status uses exact matching; Reason uses
// case-insensitive contains matching.
type Filters struct {
	Status *string `json:"status,omitempty"`
	Reason *string `json:"reason,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Status", f.Status).
		WhereContains("Reason", f.Reason)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("status"); s != "" {
		f.Status = &s
	}

	if rs := values.Get("reason"); rs != "" {
		f.Reason = &rs
	}

	return f
}

func scanEntry(s repository.Scanner) (QueueEntry, error) {
	var e QueueEntry
	err := s.Scan(
		&e.DocumentID,
		&e.Status,
		&e.Reason,
		&e.OCRText,
		&e.AddedAt,
		&e.UpdatedAt,
	)
	return e, err
}
