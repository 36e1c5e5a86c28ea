package failures

import (
	"net/url"

	"github.com/JaimeStill/courier/pkg/query"
	"github.com/JaimeStill/courier/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "permanent_failures", "f").
	Project("document_id", "DocumentID").
	Project("failed_reason", "FailedReason").
	Project("source", "Source").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "UpdatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for failure queries.
// Nil fields are ignored. Source uses exact matching; FailedReason uses
// case-insensitive contains matching.
type Filters struct {
	Source       *string `json:"source,omitempty"`
	FailedReason *string `json:"failed_reason,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Source", f.Source).
		WhereContains("FailedReason", f.FailedReason)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("source"); s != "" {
		f.Source = &s
	}

	if fr := values.Get("failed_reason"); fr != "" {
		f.FailedReason = &fr
	}

	return f
}

func scanFailure(s repository.Scanner) (PermanentFailure, error) {
	var pf PermanentFailure
	err := s.Scan(
		&pf.DocumentID,
		&pf.FailedReason,
		&pf.Source,
		&pf.UpdatedAt,
	)
	return pf, err
}
