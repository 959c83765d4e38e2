package models

import (
	"fmt"
	"time"
)

// RunStatus is the lifecycle status of an [IngestRun].
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Outcome is the result of processing one recognized text.
type Outcome string

const (
	OutcomeAdded   Outcome = "added"    // search matched and the track was appended
	OutcomeSkipped Outcome = "skipped"  // text was empty, no search issued
	OutcomeNoMatch Outcome = "no_match" // search returned nothing
	OutcomeFailed  Outcome = "failed"   // append (or auth) failed
)

// IngestRun tracks one batch of recognized texts pushed through search and append.
type IngestRun struct {
	id             string
	sequence       int
	playlistName   string
	status         RunStatus
	itemsTotal     int
	itemsAdded     int
	itemsSkipped   int
	itemsUnmatched int
	itemsFailed    int
	startedAt      *time.Time
	completedAt    *time.Time
	createdAt      time.Time
	updatedAt      time.Time
	deletedAt      *time.Time
}

// NewIngestRun creates a pending run targeting playlistName.
func NewIngestRun(sequence int, playlistName string, total int) *IngestRun {
	now := time.Now()
	return &IngestRun{
		sequence:     sequence,
		playlistName: playlistName,
		status:       RunPending,
		itemsTotal:   total,
		createdAt:    now,
		updatedAt:    now,
	}
}

func (r *IngestRun) ID() string              { return r.id }
func (r *IngestRun) Sequence() int           { return r.sequence }
func (r *IngestRun) PlaylistName() string    { return r.playlistName }
func (r *IngestRun) Status() RunStatus       { return r.status }
func (r *IngestRun) ItemsTotal() int         { return r.itemsTotal }
func (r *IngestRun) ItemsAdded() int         { return r.itemsAdded }
func (r *IngestRun) ItemsSkipped() int       { return r.itemsSkipped }
func (r *IngestRun) ItemsUnmatched() int     { return r.itemsUnmatched }
func (r *IngestRun) ItemsFailed() int        { return r.itemsFailed }
func (r *IngestRun) StartedAt() *time.Time   { return r.startedAt }
func (r *IngestRun) CompletedAt() *time.Time { return r.completedAt }
func (r *IngestRun) CreatedAt() time.Time    { return r.createdAt }
func (r *IngestRun) UpdatedAt() time.Time    { return r.updatedAt }
func (r *IngestRun) DeletedAt() *time.Time   { return r.deletedAt }

func (r *IngestRun) SetID(id string)               { r.id = id }
func (r *IngestRun) SetSequence(seq int)           { r.sequence = seq }
func (r *IngestRun) SetStatus(status RunStatus)    { r.status = status }
func (r *IngestRun) SetCreatedAt(t time.Time)      { r.createdAt = t }
func (r *IngestRun) SetUpdatedAt(t time.Time)      { r.updatedAt = t }
func (r *IngestRun) SetDeletedAt(t *time.Time)     { r.deletedAt = t }
func (r *IngestRun) SetStartedAt(t *time.Time)     { r.startedAt = t }
func (r *IngestRun) SetCompletedAt(t *time.Time)   { r.completedAt = t }
func (r *IngestRun) SetItemsTotal(total int)       { r.itemsTotal = total }

// SetCounts overwrites all outcome counters at once, used when loading from storage.
func (r *IngestRun) SetCounts(added, skipped, unmatched, failed int) {
	r.itemsAdded = added
	r.itemsSkipped = skipped
	r.itemsUnmatched = unmatched
	r.itemsFailed = failed
}

// Start marks the run as running.
func (r *IngestRun) Start() {
	now := time.Now()
	r.status = RunRunning
	r.startedAt = &now
}

// Record bumps the counter for outcome.
func (r *IngestRun) Record(outcome Outcome) {
	switch outcome {
	case OutcomeAdded:
		r.itemsAdded++
	case OutcomeSkipped:
		r.itemsSkipped++
	case OutcomeNoMatch:
		r.itemsUnmatched++
	case OutcomeFailed:
		r.itemsFailed++
	}
}

// Complete marks the run finished. A run is failed only when every non-skipped item failed.
func (r *IngestRun) Complete() {
	now := time.Now()
	r.completedAt = &now
	attempted := r.itemsTotal - r.itemsSkipped
	if attempted > 0 && r.itemsFailed == attempted {
		r.status = RunFailed
		return
	}
	r.status = RunCompleted
}

// Validate checks required fields and counter consistency.
func (r *IngestRun) Validate() error {
	if r.playlistName == "" {
		return fmt.Errorf("playlist name is required")
	}
	switch r.status {
	case RunPending, RunRunning, RunCompleted, RunFailed:
	default:
		return fmt.Errorf("invalid status: %s", r.status)
	}
	if r.itemsTotal < 0 {
		return fmt.Errorf("items total cannot be negative")
	}
	if sum := r.itemsAdded + r.itemsSkipped + r.itemsUnmatched + r.itemsFailed; sum > r.itemsTotal {
		return fmt.Errorf("recorded %d outcomes for %d items", sum, r.itemsTotal)
	}
	return nil
}

// IngestItem is the outcome for one recognized text in a run.
type IngestItem struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	Position  int       `json:"position"`
	Text      string    `json:"text"`
	Outcome   Outcome   `json:"outcome"`
	TrackURI  string    `json:"track_uri,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks required fields.
func (i *IngestItem) Validate() error {
	if i.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	switch i.Outcome {
	case OutcomeAdded:
		if i.TrackURI == "" {
			return fmt.Errorf("added item requires a track uri")
		}
	case OutcomeSkipped, OutcomeNoMatch, OutcomeFailed:
	default:
		return fmt.Errorf("invalid outcome: %s", i.Outcome)
	}
	return nil
}
