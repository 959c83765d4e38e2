package tasks

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ProcessedSuffix is appended to a watched file once its text was ingested.
const ProcessedSuffix = ".done"

// ReadTexts reads one item per line. Lines that are blank are not items and are dropped.
//
// Lines may be of any length.
func ReadTexts(r io.Reader) ([]string, error) {
	var texts []string
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if strings.TrimSpace(line) != "" {
			texts = append(texts, strings.TrimRight(line, "\r\n"))
		}
		if errors.Is(err, io.EOF) {
			return texts, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read items: %w", err)
		}
	}
}

// ReadTextsFile reads items from the file at path, one per line.
func ReadTextsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return ReadTexts(f)
}

// ReadText reads the whole file at path as a single recognized-text item.
//
// Line breaks inside the file are part of the text and collapse to spaces when the item is normalized.
func ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// WatchOpts configures [Ingestor.Watch].
type WatchOpts struct {
	Ext      string                            // File extension to pick up (default: .txt)
	Settle   time.Duration                     // Quiet period after the last write before a file is read (default: 250ms)
	OnResult func(path string, res *RunResult) // Called after each file is ingested
}

// Watch ingests every file with a matching extension written into dir until ctx is cancelled.
//
// Each file holds the text recognized from one image and is one item. Files already present when
// the watch starts are processed first. A processed file is renamed with [ProcessedSuffix] so it is
// not picked up again; a file whose ingest was interrupted keeps its name and is retried on the next start.
func (i *Ingestor) Watch(ctx context.Context, dir string, progress chan<- ProgressUpdate, opts WatchOpts) error {
	if opts.Ext == "" {
		opts.Ext = ".txt"
	}
	if opts.Settle <= 0 {
		opts.Settle = 250 * time.Millisecond
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	existing, err := filepath.Glob(filepath.Join(dir, "*"+opts.Ext))
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", dir, err)
	}
	for _, path := range existing {
		i.ingestFile(ctx, path, progress, opts)
	}

	ready := make(chan string)
	timers := map[string]*time.Timer{}
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	i.logger.Info("watching directory", "dir", dir, "ext", opts.Ext)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if filepath.Ext(event.Name) != opts.Ext {
				continue
			}

			path := event.Name
			if t, ok := timers[path]; ok {
				t.Reset(opts.Settle)
				continue
			}
			timers[path] = time.AfterFunc(opts.Settle, func() {
				select {
				case ready <- path:
				case <-ctx.Done():
				}
			})
		case path := <-ready:
			delete(timers, path)
			i.ingestFile(ctx, path, progress, opts)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			i.logger.Error("watch error", "error", err)
		}
	}
}

func (i *Ingestor) ingestFile(ctx context.Context, path string, progress chan<- ProgressUpdate, opts WatchOpts) {
	text, err := ReadText(path)
	if err != nil {
		i.logger.Error("skipping file", "path", path, "error", err)
		return
	}

	sendProgress(progress, watchFileUpdate(path))

	res, err := i.Run(ctx, progress, []string{text})
	if err != nil {
		i.logger.Warn("ingest interrupted, leaving file for retry", "path", path, "error", err)
		return
	}

	if err := os.Rename(path, path+ProcessedSuffix); err != nil {
		i.logger.Error("failed to mark file processed", "path", path, "error", err)
	}

	if opts.OnResult != nil && res != nil {
		opts.OnResult(path, res)
	}
}
