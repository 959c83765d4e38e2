package tasks

import (
	"fmt"

	"github.com/desertthunder/upl/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	StartRun Phase = iota
	SearchTrack
	AppendTrack
	ItemDone
	FinishRun
	WatchFile
)

func (p Phase) String() string {
	switch p {
	case StartRun:
		return "start_run"
	case SearchTrack:
		return "search_track"
	case AppendTrack:
		return "append_track"
	case ItemDone:
		return "item_done"
	case FinishRun:
		return "finish_run"
	case WatchFile:
		return "watch_file"
	default:
		return ""
	}
}

func startRunUpdate(total int, playlist string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   StartRun,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Adding %d item(s) to %s...", total, playlist),
	}
}

func searchUpdate(step, total int, text string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTrack,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Searching: %s", step, total, text),
	}
}

func appendUpdate(step, total int, uri string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AppendTrack,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Adding %s", step, total, uri),
	}
}

func itemDoneUpdate(step, total int, res ItemResult) ProgressUpdate {
	var msg string
	switch res.Outcome {
	case models.OutcomeAdded:
		msg = fmt.Sprintf("[%d/%d] ✓ %s", step, total, res.Text)
	case models.OutcomeSkipped:
		msg = fmt.Sprintf("[%d/%d] - skipped empty item", step, total)
	case models.OutcomeNoMatch:
		msg = fmt.Sprintf("[%d/%d] ? no match: %s", step, total, res.Text)
	default:
		msg = fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Text, res.Err)
	}
	return ProgressUpdate{
		Phase:   ItemDone,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    res,
	}
}

func finishRunUpdate(res *RunResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FinishRun,
		Step:    res.Total,
		Total:   res.Total,
		Message: fmt.Sprintf("Done: %d added, %d no match, %d failed, %d skipped", res.Added, res.NoMatch, res.Failed, res.Skipped),
		Data:    res,
	}
}

func watchFileUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WatchFile,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Picked up %s", path),
	}
}
