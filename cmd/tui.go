package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/upl/internal/shared"
	"github.com/desertthunder/upl/internal/tasks"
	"github.com/desertthunder/upl/internal/ui"
)

const tuiLogPath = "./tmp/upl-tui.log"

// useFileLogger redirects logs to a file to avoid interfering with TUI rendering.
//
// Must run before services are built so they pick up the file logger.
func (r *Runner) useFileLogger() error {
	fileLogger, err := shared.NewFileLogger(tuiLogPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)
	return nil
}

// runTUI runs the batch behind the interactive progress view.
func (r *Runner) runTUI(ctx context.Context, ing *tasks.Ingestor, texts []string) (*tasks.RunResult, error) {
	return ui.RunIngest(ctx, ing, texts)
}
