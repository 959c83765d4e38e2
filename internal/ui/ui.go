package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/upl/internal/models"
	"github.com/desertthunder/upl/internal/tasks"
)

// maxLog is how many recent progress lines the run view keeps.
const maxLog = 6

// ViewState represents the current view in the TUI.
type ViewState int

const (
	RunView ViewState = iota
	ResultView
)

// Runner executes a batch and reports progress. Implemented by [tasks.Ingestor].
type Runner interface {
	Run(ctx context.Context, progress chan<- tasks.ProgressUpdate, texts []string) (*tasks.RunResult, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	cancel       context.CancelFunc
	view         ViewState
	runner       Runner
	texts        []string
	width        int
	height       int
	spinner      spinner.Model
	bar          progress.Model
	progressChan chan tasks.ProgressUpdate
	done         chan runOutcome
	progress     tasks.ProgressUpdate
	completed    int
	log          []string
	results      list.Model
	onlyMisses   bool
	result       *tasks.RunResult
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model that runs texts through runner once started.
func NewModel(ctx context.Context, runner Runner, texts []string) *Model {
	ctx, cancel := context.WithCancel(ctx)
	return &Model{
		ctx:     ctx,
		cancel:  cancel,
		view:    RunView,
		runner:  runner,
		texts:   texts,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.title.UnsetMarginBottom())),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Result returns the finished run and its error, if any.
func (m *Model) Result() (*tasks.RunResult, error) {
	return m.result, m.err
}

// Init starts the run and the spinner.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startRun())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if w := msg.Width - 8; w > 10 && w < 80 {
			m.bar.Width = w
		}
		if m.view == ResultView {
			m.results.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case spinner.TickMsg:
		if m.view != RunView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		switch msg.kind {
		case MsgProgressUpdate:
			m.applyProgress(msg.data.(tasks.ProgressUpdate))
			return m, m.waitForProgress()
		case MsgRunComplete:
			out := msg.data.(runOutcome)
			m.result = out.result
			m.err = out.err
			m.showResults()
			return m, nil
		}
	}

	return m.updateList(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case RunView:
		return m.renderRun()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) {
		if m.results.FilterState() == list.Filtering {
			return m.updateList(msg)
		}
		m.cancel()
		if m.view == RunView {
			return m, nil
		}
		return m, tea.Quit
	}

	if m.view == ResultView && key.Matches(msg, m.keys.failed) && m.results.FilterState() != list.Filtering {
		m.onlyMisses = !m.onlyMisses
		m.results.SetItems(resultItems(m.visibleResults()))
		return m, nil
	}

	return m.updateList(msg)
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.view != ResultView {
		return m, nil
	}
	var cmd tea.Cmd
	m.results, cmd = m.results.Update(msg)
	return m, cmd
}

func (m *Model) applyProgress(u tasks.ProgressUpdate) {
	m.progress = u
	if u.Phase == tasks.ItemDone {
		m.completed = u.Step
	}
	if u.Phase == tasks.ItemDone || u.Phase == tasks.StartRun {
		m.log = append(m.log, u.Message)
		if len(m.log) > maxLog {
			m.log = m.log[len(m.log)-maxLog:]
		}
	}
}

func (m *Model) showResults() {
	m.view = ResultView
	var items []list.Item
	if m.result != nil {
		items = resultItems(m.visibleResults())
	}
	width, height := m.width-4, m.height-8
	if width <= 0 {
		width, height = 80, 20
	}
	m.results = list.New(items, list.NewDefaultDelegate(), width, height)
	m.results.Title = "Items"
}

func (m *Model) visibleResults() []tasks.ItemResult {
	if m.result == nil {
		return nil
	}
	if !m.onlyMisses {
		return m.result.Items
	}
	var misses []tasks.ItemResult
	for _, r := range m.result.Items {
		if r.Outcome == models.OutcomeNoMatch || r.Outcome == models.OutcomeFailed {
			misses = append(misses, r)
		}
	}
	return misses
}

func (m *Model) startRun() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 64)
	m.done = make(chan runOutcome, 1)

	go func() {
		result, err := m.runner.Run(m.ctx, m.progressChan, m.texts)
		m.done <- runOutcome{result, err}
		close(m.progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		update, ok := <-m.progressChan
		if !ok {
			out := <-m.done
			return runCompleteMsg(out.result, out.err)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) percent() float64 {
	total := len(m.texts)
	if total == 0 {
		return 1
	}
	return float64(m.completed) / float64(total)
}

func (m *Model) renderRun() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Adding to playlist"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s\n\n", m.spinner.View(), m.progress.Message)
	fmt.Fprintf(&b, "%s %d/%d\n\n", m.bar.ViewAs(m.percent()), m.completed, len(m.texts))
	for _, line := range m.log {
		b.WriteString(styles.help.Render(line))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.quit}))
	return b.String()
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.up, m.keys.down, m.keys.failed, m.keys.quit})

	if m.result == nil {
		return styles.err.Render(fmt.Sprintf("Run failed: %v\n\n", m.err)) + helpView
	}

	var title string
	switch {
	case errors.Is(m.err, context.Canceled):
		title = styles.warn.Render("Run cancelled")
	case m.result.Failed > 0:
		title = styles.warn.Render("Run finished with failures")
	default:
		title = styles.ok.Render("✓ Run complete")
	}

	info := fmt.Sprintf("Playlist: %s\nAdded: %d  No match: %d  Failed: %d  Skipped: %d",
		m.result.Playlist, m.result.Added, m.result.NoMatch, m.result.Failed, m.result.Skipped)
	if m.result.Sequence > 0 {
		info += fmt.Sprintf("\nHistory: run #%d", m.result.Sequence)
	}

	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", title, info, m.results.View(), helpView)
}

// RunIngest runs texts through runner behind an interactive progress view and returns the result
// once the user quits.
func RunIngest(ctx context.Context, runner Runner, texts []string, opts ...tea.ProgramOption) (*tasks.RunResult, error) {
	m := NewModel(ctx, runner, texts)
	if _, err := tea.NewProgram(m, opts...).Run(); err != nil {
		return nil, fmt.Errorf("tui error: %w", err)
	}
	return m.Result()
}
