package analysis

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Store persists analysis telemetry: token metrics and processing history.
type Store interface {
	RecordMetrics(ctx context.Context, documentID int, m Metrics) error
	RecordHistory(ctx context.Context, entry HistoryEntry) error
}

// HistoryEntry is one processing history row.
type HistoryEntry struct {
	DocumentID    int      `json:"document_id"`
	Title         string   `json:"title"`
	Tags          []string `json:"tags"`
	Correspondent *string  `json:"correspondent,omitempty"`
	DocumentType  *string  `json:"document_type,omitempty"`
	Language      *string  `json:"language,omitempty"`
}

type store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore creates an analysis telemetry store.
func NewStore(db *sql.DB, logger *slog.Logger) Store {
	return &store{
		db:     db,
		logger: logger.With("system", "analysis-store"),
	}
}

func (s *store) RecordMetrics(ctx context.Context, documentID int, m Metrics) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO ai_metrics(document_id, prompt_tokens, completion_tokens, total_tokens)
		 VALUES ($1, $2, $3, $4)`,
		documentID, m.PromptTokens, m.CompletionTokens, m.TotalTokens,
	)
	if err != nil {
		return fmt.Errorf("insert metrics: %w", err)
	}
	return nil
}

func (s *store) RecordHistory(ctx context.Context, entry HistoryEntry) error {
	tags, err := json.Marshal(entry.Tags)
	if err != nil {
		return fmt.Errorf("encode history tags: %w", err)
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO processing_history(document_id, title, tags, correspondent, document_type, language)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.DocumentID, entry.Title, tags, entry.Correspondent, entry.DocumentType, entry.Language,
	)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}
