package queue

import (
	"context"

	"github.com/JaimeStill/courier/pkg/pagination"
)

// System defines the public contract for queue domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[QueueEntry], error)

	Find(ctx context.Context, documentID int) (*QueueEntry, error)
	Stats(ctx context.Context) (*Stats, error)

	// Add enqueues a document manually, rejecting duplicates.
	Add(ctx context.Context, cmd AddCommand) (*QueueEntry, error)
	// Enqueue records a scan-path fallback entry. Idempotent: an existing
	// entry for the document is returned unchanged.
	Enqueue(ctx context.Context, documentID int, reason string) (*QueueEntry, error)
	// Remove deletes an entry. Entries in processing cannot be removed.
	Remove(ctx context.Context, documentID int) error
	// Text returns the stored OCR text for a done entry.
	Text(ctx context.Context, documentID int) (string, error)
	// SetStatus transitions an entry, enforcing the state machine. A non-nil
	// ocrText is stored alongside the transition.
	SetStatus(ctx context.Context, documentID int, status Status, ocrText *string) error
	// ListProcessable snapshots the pending and failed entries in queue order.
	ListProcessable(ctx context.Context) ([]QueueEntry, error)
	// Delete removes an entry regardless of status. Used when escalating to
	// a permanent failure.
	Delete(ctx context.Context, documentID int) error
}
