package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/desertthunder/upl/internal/models"
	"github.com/desertthunder/upl/internal/shared"
	"github.com/desertthunder/upl/internal/tasks"
	"github.com/urfave/cli/v3"
)

const defaultSettle = 250 * time.Millisecond

// Ingest searches each text and appends matches to the managed playlist.
//
// Texts come from positional arguments, or one per line from --file (- reads stdin).
func (r *Runner) Ingest(ctx context.Context, cmd *cli.Command) error {
	texts, err := r.readTexts(cmd)
	if err != nil {
		return err
	}
	if len(texts) == 0 {
		return fmt.Errorf("%w: give texts as arguments or with --file", shared.ErrMissingArgument)
	}

	if cmd.Bool("tui") {
		if err := r.useFileLogger(); err != nil {
			return err
		}
	}

	ing, err := r.ingestor(!cmd.Bool("no-history"))
	if err != nil {
		return err
	}

	var res *tasks.RunResult
	if cmd.Bool("tui") {
		res, err = r.runTUI(ctx, ing, texts)
	} else {
		res, err = r.runPlain(ctx, ing, texts)
	}
	if res == nil {
		return err
	}

	if cmd.Bool("json") {
		if werr := r.writeJSON(resultJSON(res), true); werr != nil {
			return werr
		}
		return err
	}

	r.writeSummary(res)
	return err
}

func (r *Runner) readTexts(cmd *cli.Command) ([]string, error) {
	switch path := cmd.String("file"); path {
	case "":
		return cmd.Args().Slice(), nil
	case "-":
		return tasks.ReadTexts(r.input)
	default:
		return tasks.ReadTextsFile(path)
	}
}

// runPlain runs the batch while printing progress lines.
func (r *Runner) runPlain(ctx context.Context, ing *tasks.Ingestor, texts []string) (*tasks.RunResult, error) {
	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range progress {
			if u.Phase == tasks.ItemDone || u.Phase == tasks.StartRun {
				r.writePlain("%s\n", u.Message)
			}
		}
	}()

	res, err := ing.Run(ctx, progress, texts)
	close(progress)
	<-done
	return res, err
}

func (r *Runner) writeSummary(res *tasks.RunResult) {
	r.writePlainln("Added %d, no match %d, failed %d, skipped %d (of %d)",
		res.Added, res.NoMatch, res.Failed, res.Skipped, res.Total)
	if res.Sequence > 0 {
		r.writePlain("Recorded as run #%d (upl history show %d)\n", res.Sequence, res.Sequence)
	}
}

// IngestWatch ingests every matching file written into a directory until interrupted.
func (r *Runner) IngestWatch(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.StringArg("dir")
	if dir == "" {
		return fmt.Errorf("%w: directory to watch", shared.ErrMissingArgument)
	}

	ing, err := r.ingestor(!cmd.Bool("no-history"))
	if err != nil {
		return err
	}

	r.writePlain("→ Watching %s for %s files (Ctrl+C to stop)\n", dir, cmd.String("ext"))

	return ing.Watch(ctx, dir, nil, tasks.WatchOpts{
		Ext:    cmd.String("ext"),
		Settle: cmd.Duration("settle"),
		OnResult: func(path string, res *tasks.RunResult) {
			r.writePlain("%s: added %d, no match %d, failed %d, skipped %d\n",
				filepath.Base(path), res.Added, res.NoMatch, res.Failed, res.Skipped)
		},
	})
}

type itemJSON struct {
	Position int            `json:"position"`
	Text     string         `json:"text"`
	Outcome  models.Outcome `json:"outcome"`
	TrackURI string         `json:"track_uri,omitempty"`
	Error    string         `json:"error,omitempty"`
}

type runJSON struct {
	Sequence int        `json:"sequence,omitempty"`
	Playlist string     `json:"playlist"`
	Total    int        `json:"total"`
	Added    int        `json:"added"`
	NoMatch  int        `json:"no_match"`
	Failed   int        `json:"failed"`
	Skipped  int        `json:"skipped"`
	Items    []itemJSON `json:"items"`
}

func resultJSON(res *tasks.RunResult) runJSON {
	out := runJSON{
		Sequence: res.Sequence,
		Playlist: res.Playlist,
		Total:    res.Total,
		Added:    res.Added,
		NoMatch:  res.NoMatch,
		Failed:   res.Failed,
		Skipped:  res.Skipped,
		Items:    make([]itemJSON, 0, len(res.Items)),
	}
	for _, it := range res.Items {
		item := itemJSON{Position: it.Position, Text: it.Text, Outcome: it.Outcome, TrackURI: it.TrackURI}
		if it.Err != nil {
			item.Error = it.Err.Error()
		}
		out.Items = append(out.Items, item)
	}
	return out
}
