package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/courier/pkg/pagination"
	"github.com/JaimeStill/courier/pkg/query"
	"github.com/JaimeStill/courier/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a queue repository implementing the System interface.
func New(
	db *sql.DB,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "queue"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[QueueEntry], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Reason")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count queue entries: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	entries, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("query queue entries: %w", err)
	}

	result := pagination.NewPageResult(entries, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, documentID int) (*QueueEntry, error) {
	q, args := query.NewBuilder(projection).BuildSingle("DocumentID", documentID)

	e, err := repository.QueryOne(ctx, r.db, q, args, scanEntry)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &e, nil
}

func (r *repo) Stats(ctx context.Context) (*Stats, error) {
	rows, err := r.db.QueryContext(
		ctx,
		"SELECT status, COUNT(*) FROM ocr_queue GROUP BY status",
	)
	if err != nil {
		return nil, fmt.Errorf("query queue stats: %w", err)
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan queue stats: %w", err)
		}

		switch status {
		case StatusPending:
			stats.Pending = count
		case StatusProcessing:
			stats.Processing = count
		case StatusDone:
			stats.Done = count
		case StatusFailed:
			stats.Failed = count
		}
		stats.Total += count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read queue stats: %w", err)
	}

	return &stats, nil
}

const insertEntry = `
	INSERT INTO ocr_queue(document_id, status, reason)
	VALUES ($1, $2, $3)
	RETURNING document_id, status, reason, ocr_text, added_at, updated_at`

func (r *repo) Add(ctx context.Context, cmd AddCommand) (*QueueEntry, error) {
	if cmd.DocumentID < 1 {
		return nil, ErrInvalidID
	}
	if cmd.Reason == "" {
		cmd.Reason = ReasonManual
	}

	args := []any{cmd.DocumentID, StatusPending, cmd.Reason}

	e, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (QueueEntry, error) {
		return repository.QueryOne(ctx, tx, insertEntry, args, scanEntry)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("document queued", "document_id", e.DocumentID, "reason", e.Reason)
	return &e, nil
}

func (r *repo) Enqueue(ctx context.Context, documentID int, reason string) (*QueueEntry, error) {
	if documentID < 1 {
		return nil, ErrInvalidID
	}

	e, err := r.Add(ctx, AddCommand{DocumentID: documentID, Reason: reason})
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, ErrDuplicate) {
		return nil, err
	}

	return r.Find(ctx, documentID)
}

func (r *repo) Remove(ctx context.Context, documentID int) error {
	entry, err := r.Find(ctx, documentID)
	if err != nil {
		return err
	}
	if entry.Status == StatusProcessing {
		return ErrProcessing
	}

	return r.Delete(ctx, documentID)
}

func (r *repo) Delete(ctx context.Context, documentID int) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM ocr_queue WHERE document_id = $1",
			documentID,
		)
		return struct{}{}, err
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("queue entry removed", "document_id", documentID)
	return nil
}

func (r *repo) Text(ctx context.Context, documentID int) (string, error) {
	entry, err := r.Find(ctx, documentID)
	if err != nil {
		return "", err
	}
	if !entry.HasText() {
		return "", ErrNoText
	}
	return *entry.OCRText, nil
}

func (r *repo) SetStatus(ctx context.Context, documentID int, status Status, ocrText *string) error {
	if !status.Valid() {
		return ErrInvalidTransition
	}

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		var current Status
		err := tx.QueryRowContext(
			ctx,
			"SELECT status FROM ocr_queue WHERE document_id = $1 FOR UPDATE",
			documentID,
		).Scan(&current)
		if err != nil {
			return struct{}{}, err
		}

		if !ValidTransition(current, status) {
			return struct{}{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current, status)
		}

		if ocrText != nil {
			err = repository.ExecExpectOne(
				ctx, tx,
				"UPDATE ocr_queue SET status = $1, ocr_text = $2, updated_at = now() WHERE document_id = $3",
				status, *ocrText, documentID,
			)
		} else {
			err = repository.ExecExpectOne(
				ctx, tx,
				"UPDATE ocr_queue SET status = $1, updated_at = now() WHERE document_id = $2",
				status, documentID,
			)
		}
		return struct{}{}, err
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("queue status updated", "document_id", documentID, "status", status)
	return nil
}

func (r *repo) ListProcessable(ctx context.Context) ([]QueueEntry, error) {
	qb := query.NewBuilder(projection, query.SortField{Field: "AddedAt"})
	qb.WhereIn("Status", []any{StatusPending, StatusFailed})

	sqlText, args := qb.Build()
	entries, err := repository.QueryMany(ctx, r.db, sqlText, args, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("query processable entries: %w", err)
	}
	return entries, nil
}
