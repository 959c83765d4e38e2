// Package ui implements an interactive progress view for ingest runs using bubbletea's Elm architecture.
//
// The TUI has two views:
//  1. [RunView] : Spinner, progress bar and the most recent item outcomes while a batch runs
//  2. [ResultView] : Filterable list of every item with its outcome once the batch finishes
//
// The [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the [tasks.Ingestor], which never blocks on a slow renderer.
//
// Keyboard navigation uses vim-style bindings (j/k, f, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
