package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/upl/internal/models"
	"github.com/desertthunder/upl/internal/shared"
)

// IngestItemRepository persists per-text outcomes of an ingest run.
//
// Items are append-only and removed with their run.
type IngestItemRepository struct {
	db *sql.DB
}

// NewIngestItemRepository creates a new IngestItemRepository with the given database connection
func NewIngestItemRepository(db *sql.DB) *IngestItemRepository {
	return &IngestItemRepository{db: db}
}

// Create inserts an item with a generated ID
func (r *IngestItemRepository) Create(item *models.IngestItem) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	item.ID = shared.GenerateID()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO ingest_items (id, run_id, position, text, outcome, track_uri, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		item.ID,
		item.RunID,
		item.Position,
		item.Text,
		string(item.Outcome),
		nullString(item.TrackURI),
		nullString(item.Error),
		item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ingest item: %w", err)
	}

	return nil
}

// ListByRun returns the items of a run in input order
func (r *IngestItemRepository) ListByRun(runID string) ([]*models.IngestItem, error) {
	query := `
		SELECT id, run_id, position, text, outcome, track_uri, error_message, created_at
		FROM ingest_items
		WHERE run_id = ?
		ORDER BY position ASC
	`

	rows, err := r.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ingest items: %w", err)
	}
	defer rows.Close()

	var items []*models.IngestItem
	for rows.Next() {
		var (
			item     models.IngestItem
			outcome  string
			trackURI sql.NullString
			errMsg   sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.RunID, &item.Position, &item.Text, &outcome, &trackURI, &errMsg, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ingest item: %w", err)
		}
		item.Outcome = models.Outcome(outcome)
		item.TrackURI = trackURI.String
		item.Error = errMsg.String
		items = append(items, &item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return items, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
