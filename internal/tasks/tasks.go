// package tasks turns recognized text into playlist entries.
//
// The core abstraction is Ingestor, which searches the catalog for each text and appends matches to the managed playlist.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/upl/internal/models"
	"github.com/desertthunder/upl/internal/services"
	"github.com/desertthunder/upl/internal/shared"
)

// ItemResult is the outcome for one input text.
type ItemResult struct {
	Position int            // Zero-based index in the input batch
	Text     string         // Normalized text used as the search query
	Outcome  models.Outcome // What happened to the item
	TrackURI string         // Matched track, empty unless a match was found
	Err      error          // Failure cause for OutcomeFailed
}

// RunResult summarizes a batch.
type RunResult struct {
	RunID    string // History run ID, empty when no recorder is set
	Sequence int    // History run number, zero when no recorder is set
	Playlist string
	Items    []ItemResult
	Total    int
	Added    int
	NoMatch  int
	Failed   int
	Skipped  int
}

func (r *RunResult) record(res ItemResult) {
	r.Items = append(r.Items, res)
	switch res.Outcome {
	case models.OutcomeAdded:
		r.Added++
	case models.OutcomeNoMatch:
		r.NoMatch++
	case models.OutcomeSkipped:
		r.Skipped++
	default:
		r.Failed++
	}
}

// Recorder persists ingestion history. Implemented by repositories.History.
type Recorder interface {
	BeginRun(playlistName string, total int) (*models.IngestRun, error)
	RecordItem(run *models.IngestRun, item *models.IngestItem) error
	FinishRun(run *models.IngestRun) error
}

// Ingestor searches for each recognized text and appends matches to the managed playlist.
//
// Items are processed sequentially in input order. A failed item never aborts the batch.
type Ingestor struct {
	searcher services.TrackSearcher
	appender services.TrackAppender
	playlist string
	recorder Recorder
	logger   *log.Logger
}

// NewIngestor creates a new Ingestor. playlistName labels history and progress output only.
func NewIngestor(searcher services.TrackSearcher, appender services.TrackAppender, playlistName string, logger *log.Logger) *Ingestor {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Ingestor{
		searcher: searcher,
		appender: appender,
		playlist: playlistName,
		logger:   shared.WithLogger(logger, "component", "ingest"),
	}
}

// SetRecorder enables history recording. Recording failures are logged and never fail a run.
func (i *Ingestor) SetRecorder(r Recorder) {
	i.recorder = r
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run processes texts in order.
//
// Empty texts (after whitespace normalization) are skipped without a search. Texts with no match
// are reported as such. Search and append failures mark the item failed and processing continues.
// The returned error is non-nil only when ctx is cancelled; the partial result is still returned
// and an item interrupted by the cancellation is left out of it.
func (i *Ingestor) Run(ctx context.Context, progress chan<- ProgressUpdate, texts []string) (*RunResult, error) {
	if i.searcher == nil || i.appender == nil {
		return nil, fmt.Errorf("%w: ingestor is missing a catalog or playlist client", shared.ErrServiceUnavailable)
	}

	total := len(texts)
	result := &RunResult{Playlist: i.playlist, Total: total, Items: make([]ItemResult, 0, total)}

	run := i.beginRun(total)
	if run != nil {
		result.RunID = run.ID()
		result.Sequence = run.Sequence()
	}

	sendProgress(progress, startRunUpdate(total, i.playlist))

	var runErr error
	for pos, raw := range texts {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		res := i.processItem(ctx, progress, pos, total, raw)
		if res.Err != nil && ctx.Err() != nil {
			// interrupted, not failed; the item was never decided
			runErr = ctx.Err()
			break
		}
		result.record(res)
		i.recordItem(run, res)

		sendProgress(progress, itemDoneUpdate(pos+1, total, res))
	}

	i.finishRun(run)
	sendProgress(progress, finishRunUpdate(result))

	i.logger.Info("ingest complete",
		"total", total, "added", result.Added, "no_match", result.NoMatch,
		"failed", result.Failed, "skipped", result.Skipped)

	return result, runErr
}

func (i *Ingestor) processItem(ctx context.Context, progress chan<- ProgressUpdate, pos, total int, raw string) ItemResult {
	text := shared.NormalizeText(raw)
	res := ItemResult{Position: pos, Text: text}

	if text == "" {
		res.Outcome = models.OutcomeSkipped
		return res
	}

	sendProgress(progress, searchUpdate(pos+1, total, text))

	uri, found, err := i.searcher.SearchTrack(ctx, text)
	if err != nil {
		i.logger.Warn("search failed", "text", text, "error", err)
		res.Outcome = models.OutcomeFailed
		res.Err = err
		return res
	}

	if !found {
		i.logger.Debug("no match", "text", text)
		res.Outcome = models.OutcomeNoMatch
		return res
	}

	res.TrackURI = uri
	sendProgress(progress, appendUpdate(pos+1, total, uri))

	if err := i.appender.AddTrackToManagedPlaylist(ctx, uri); err != nil {
		i.logger.Warn("append failed", "text", text, "uri", uri, "error", err)
		res.Outcome = models.OutcomeFailed
		res.Err = err
		return res
	}

	res.Outcome = models.OutcomeAdded
	return res
}

func (i *Ingestor) beginRun(total int) *models.IngestRun {
	if i.recorder == nil {
		return nil
	}
	run, err := i.recorder.BeginRun(i.playlist, total)
	if err != nil {
		i.logger.Warn("history disabled for this run", "error", err)
		return nil
	}
	return run
}

func (i *Ingestor) recordItem(run *models.IngestRun, res ItemResult) {
	if run == nil {
		return
	}

	run.Record(res.Outcome)
	item := &models.IngestItem{
		Position: res.Position,
		Text:     res.Text,
		Outcome:  res.Outcome,
		TrackURI: res.TrackURI,
	}
	if res.Err != nil {
		item.Error = res.Err.Error()
	}

	if err := i.recorder.RecordItem(run, item); err != nil {
		i.logger.Warn("failed to record item", "position", res.Position, "error", err)
	}
}

func (i *Ingestor) finishRun(run *models.IngestRun) {
	if run == nil {
		return
	}
	run.Complete()
	if err := i.recorder.FinishRun(run); err != nil {
		i.logger.Warn("failed to finish run", "run", run.ID(), "error", err)
	}
}
