package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/desertthunder/upl/internal/formatter"
	"github.com/desertthunder/upl/internal/shared"
	"github.com/urfave/cli/v3"
)

// HistoryList prints recorded runs, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	history, err := r.openHistory()
	if err != nil {
		return err
	}

	runs, err := history.Runs.List(map[string]any{
		"status": cmd.String("status"),
		"limit":  cmd.Int("limit"),
	})
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		return r.writePlain("No runs recorded yet.\n")
	}

	r.writePlain("%-5s %-10s %-20s %5s %5s %5s %5s %5s\n", "RUN", "STATUS", "STARTED", "TOTAL", "ADDED", "MISS", "FAIL", "SKIP")
	for _, run := range runs {
		started := "-"
		if s := run.StartedAt(); s != nil {
			started = s.Local().Format(time.DateTime)
		}
		r.writePlain("%-5d %-10s %-20s %5d %5d %5d %5d %5d\n",
			run.Sequence(), run.Status(), started,
			run.ItemsTotal(), run.ItemsAdded(), run.ItemsUnmatched(), run.ItemsFailed(), run.ItemsSkipped())
	}
	return nil
}

// HistoryShow renders one run as a report, to stdout or to --output.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	sequence, err := runSequence(cmd)
	if err != nil {
		return err
	}

	history, err := r.openHistory()
	if err != nil {
		return err
	}

	run, items, err := history.Show(sequence)
	if err != nil {
		return err
	}

	format := cmd.String("format")
	if path := cmd.String("output"); path != "" {
		written, err := formatter.WriteRunExport(format, run, items, path)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Report written to %s\n", written)
	}

	data, err := formatter.Render(format, run, items)
	if err != nil {
		return err
	}
	_, err = r.output.Write(data)
	return err
}

// HistoryDelete soft-deletes a run.
func (r *Runner) HistoryDelete(ctx context.Context, cmd *cli.Command) error {
	sequence, err := runSequence(cmd)
	if err != nil {
		return err
	}

	history, err := r.openHistory()
	if err != nil {
		return err
	}

	run, err := history.Runs.GetBySequence(sequence)
	if err != nil {
		return err
	}
	if err := history.Runs.Delete(run.ID()); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted run #%d\n", sequence)
}

func runSequence(cmd *cli.Command) (int, error) {
	arg := cmd.StringArg("id")
	if arg == "" {
		return 0, fmt.Errorf("%w: run number", shared.ErrMissingArgument)
	}
	sequence, err := strconv.Atoi(arg)
	if err != nil || sequence < 1 {
		return 0, fmt.Errorf("%w: run number %q", shared.ErrInvalidArgument, arg)
	}
	return sequence, nil
}
