package failures

import (
	"context"
	"database/sql"
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

// New creates a permanent failure repository implementing the System interface.
func New(
	db *sql.DB,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "failures"),
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
) (*pagination.PageResult[PermanentFailure], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "FailedReason")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count permanent failures: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanFailure)
	if err != nil {
		return nil, fmt.Errorf("query permanent failures: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, documentID int) (*PermanentFailure, error) {
	q, args := query.NewBuilder(projection).BuildSingle("DocumentID", documentID)

	pf, err := repository.QueryOne(ctx, r.db, q, args, scanFailure)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &pf, nil
}

func (r *repo) Stats(ctx context.Context) (*Stats, error) {
	rows, err := r.db.QueryContext(
		ctx,
		"SELECT source, COUNT(*) FROM permanent_failures GROUP BY source",
	)
	if err != nil {
		return nil, fmt.Errorf("query failure stats: %w", err)
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var source Source
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return nil, fmt.Errorf("scan failure stats: %w", err)
		}

		switch source {
		case SourceOCR:
			stats.OCR = count
		case SourceAI:
			stats.AI = count
		}
		stats.Total += count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read failure stats: %w", err)
	}

	return &stats, nil
}

const upsertFailure = `
	INSERT INTO permanent_failures(document_id, failed_reason, source)
	VALUES ($1, $2, $3)
	ON CONFLICT (document_id) DO UPDATE
	SET failed_reason = EXCLUDED.failed_reason,
	    source = EXCLUDED.source,
	    updated_at = now()
	RETURNING document_id, failed_reason, source, updated_at`

func (r *repo) Add(ctx context.Context, documentID int, reason string, source Source) (*PermanentFailure, error) {
	if documentID < 1 {
		return nil, ErrInvalidID
	}
	if !source.Valid() {
		return nil, ErrInvalidSource
	}

	args := []any{documentID, reason, source}

	pf, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (PermanentFailure, error) {
		pf, err := repository.QueryOne(ctx, tx, upsertFailure, args, scanFailure)
		if err != nil {
			return PermanentFailure{}, err
		}

		// Exclusivity with the queue: a permanently failed document has no
		// queue row.
		if _, err := tx.ExecContext(
			ctx,
			"DELETE FROM ocr_queue WHERE document_id = $1",
			documentID,
		); err != nil {
			return PermanentFailure{}, fmt.Errorf("remove queue entry: %w", err)
		}

		return pf, nil
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("permanent failure recorded",
		"document_id", pf.DocumentID,
		"source", pf.Source,
		"reason", pf.FailedReason,
	)
	return &pf, nil
}

func (r *repo) Reset(ctx context.Context, documentID int) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM permanent_failures WHERE document_id = $1",
			documentID,
		)
		return struct{}{}, err
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("permanent failure reset", "document_id", documentID)
	return nil
}
