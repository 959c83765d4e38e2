package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/upl/internal/models"
)

// History records ingest runs and their items in sqlite.
type History struct {
	Runs  *IngestRunRepository
	Items *IngestItemRepository
}

// NewHistory creates a History over db. Migrations must already be applied.
func NewHistory(db *sql.DB) *History {
	return &History{
		Runs:  NewIngestRunRepository(db),
		Items: NewIngestItemRepository(db),
	}
}

// BeginRun creates and starts a run for total items.
func (h *History) BeginRun(playlistName string, total int) (*models.IngestRun, error) {
	run := models.NewIngestRun(0, playlistName, total)
	run.Start()
	if err := h.Runs.Create(run); err != nil {
		return nil, fmt.Errorf("failed to begin run: %w", err)
	}
	return run, nil
}

// RecordItem stores one item outcome and the run's updated counters.
func (h *History) RecordItem(run *models.IngestRun, item *models.IngestItem) error {
	item.RunID = run.ID()
	if err := h.Items.Create(item); err != nil {
		return err
	}
	return h.Runs.Update(run)
}

// FinishRun stores the run's final status.
func (h *History) FinishRun(run *models.IngestRun) error {
	return h.Runs.Update(run)
}

// Show returns a run and its items, looked up by sequence number.
func (h *History) Show(sequence int) (*models.IngestRun, []*models.IngestItem, error) {
	run, err := h.Runs.GetBySequence(sequence)
	if err != nil {
		return nil, nil, err
	}

	items, err := h.Items.ListByRun(run.ID())
	if err != nil {
		return nil, nil, err
	}
	return run, items, nil
}
