package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/upl/internal/models"
	"github.com/desertthunder/upl/internal/shared"
)

const ingestRunColumns = `id, sequence, playlist_name, status, items_total, items_added, items_skipped, items_unmatched, items_failed, started_at, completed_at, created_at, updated_at, deleted_at`

var _ models.Repository[*models.IngestRun] = (*IngestRunRepository)(nil)

// ErrRunNotFound is returned when no live ingest run matches the lookup.
var ErrRunNotFound = errors.New("ingest run not found")

// IngestRunRepository implements models.Repository[*models.IngestRun].
//
// Runs are soft deleted and ordered by sequence.
type IngestRunRepository struct {
	db *sql.DB
}

// NewIngestRunRepository creates a new IngestRunRepository with the given database connection
func NewIngestRunRepository(db *sql.DB) *IngestRunRepository {
	return &IngestRunRepository{db: db}
}

// Create inserts a new run with generated ID and sequence
func (r *IngestRunRepository) Create(run *models.IngestRun) error {
	sequence, err := NextSequence(r.db, "ingest_runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	run.SetID(id)
	run.SetSequence(sequence)

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO ingest_runs (id, sequence, playlist_name, status, items_total, items_added, items_skipped, items_unmatched, items_failed, started_at, completed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		run.PlaylistName(),
		string(run.Status()),
		run.ItemsTotal(),
		run.ItemsAdded(),
		run.ItemsSkipped(),
		run.ItemsUnmatched(),
		run.ItemsFailed(),
		nullTime(run.StartedAt()),
		nullTime(run.CompletedAt()),
		run.CreatedAt(),
		run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert ingest run: %w", err)
	}

	return nil
}

// Get retrieves a run by ID, excluding soft-deleted runs
func (r *IngestRunRepository) Get(id string) (*models.IngestRun, error) {
	query := `SELECT ` + ingestRunColumns + ` FROM ingest_runs WHERE id = ? AND deleted_at IS NULL`
	return scanRun(r.db.QueryRow(query, id))
}

// GetBySequence retrieves a run by its sequence number
func (r *IngestRunRepository) GetBySequence(sequence int) (*models.IngestRun, error) {
	query := `SELECT ` + ingestRunColumns + ` FROM ingest_runs WHERE sequence = ? AND deleted_at IS NULL`
	return scanRun(r.db.QueryRow(query, sequence))
}

// Update persists status, counters and timestamps of an existing run
func (r *IngestRunRepository) Update(run *models.IngestRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	run.SetUpdatedAt(now)

	query := `
		UPDATE ingest_runs
		SET status = ?, items_total = ?, items_added = ?, items_skipped = ?, items_unmatched = ?, items_failed = ?,
			started_at = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		string(run.Status()),
		run.ItemsTotal(),
		run.ItemsAdded(),
		run.ItemsSkipped(),
		run.ItemsUnmatched(),
		run.ItemsFailed(),
		nullTime(run.StartedAt()),
		nullTime(run.CompletedAt()),
		now,
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update ingest run: %w", err)
	}

	return expectOne(result, run.ID())
}

// Delete soft-deletes a run by ID
func (r *IngestRunRepository) Delete(id string) error {
	query := `UPDATE ingest_runs SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete ingest run: %w", err)
	}

	return expectOne(result, id)
}

// List retrieves runs matching the given criteria, newest first.
//
// Supported criteria: "status" (string) and "limit" (int).
func (r *IngestRunRepository) List(criteria map[string]any) ([]*models.IngestRun, error) {
	query := `SELECT ` + ingestRunColumns + ` FROM ingest_runs WHERE deleted_at IS NULL`
	args := []any{}

	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ingest runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.IngestRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*models.IngestRun, error) {
	var (
		id           string
		sequence     int
		playlistName string
		status       string
		total        int
		added        int
		skipped      int
		unmatched    int
		failed       int
		startedAt    sql.NullTime
		completedAt  sql.NullTime
		createdAt    time.Time
		updatedAt    time.Time
		deletedAt    sql.NullTime
	)

	err := row.Scan(&id, &sequence, &playlistName, &status, &total, &added, &skipped, &unmatched, &failed,
		&startedAt, &completedAt, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan ingest run: %w", err)
	}

	run := models.NewIngestRun(sequence, playlistName, total)
	run.SetID(id)
	run.SetStatus(models.RunStatus(status))
	run.SetCounts(added, skipped, unmatched, failed)
	run.SetCreatedAt(createdAt)
	run.SetUpdatedAt(updatedAt)
	if startedAt.Valid {
		run.SetStartedAt(&startedAt.Time)
	}
	if completedAt.Valid {
		run.SetCompletedAt(&completedAt.Time)
	}
	if deletedAt.Valid {
		run.SetDeletedAt(&deletedAt.Time)
	}

	return run, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func expectOne(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}
