package failures

import (
	"context"

	"github.com/JaimeStill/courier/pkg/pagination"
)

// System defines the public contract for permanent failure operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[PermanentFailure], error)

	Find(ctx context.Context, documentID int) (*PermanentFailure, error)
	Stats(ctx context.Context) (*Stats, error)

	// Add upserts a permanent failure and removes any queue entry for the
	// document in the same transaction.
	Add(ctx context.Context, documentID int, reason string, source Source) (*PermanentFailure, error)
	// Reset deletes the failure record, making the document eligible for
	// re-scan. It does not resurrect the queue entry.
	Reset(ctx context.Context, documentID int) error
}
