package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/pixgrab/internal/backend"
	"github.com/five82/pixgrab/internal/logger"
	"github.com/five82/pixgrab/internal/prefs"
	"github.com/five82/pixgrab/internal/render"
	"github.com/five82/pixgrab/internal/state"
	"github.com/five82/pixgrab/internal/submit"
)

// Focus is the pane receiving keys.
type Focus int

const (
	FocusInput Focus = iota
	FocusResults
)

// Downloader saves a collaborator resource to disk. *backend.Client implements it.
type Downloader interface {
	Download(ctx context.Context, resourceURL, dir string, onProgress backend.ProgressFunc) (backend.Saved, error)
}

// Options configures the UI. Controller is required.
type Options struct {
	Context     context.Context
	Controller  *submit.Controller
	Downloader  Downloader
	APIBaseURL  string
	DownloadDir string
	Locale      string
	PollTick    time.Duration
	Prefs       prefs.Prefs
	PrefsPath   string // empty uses ~/.config/pixgrab/prefs.toml
	Logger      *logger.Logger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx         context.Context
	controller  *submit.Controller
	store       *state.Store
	downloader  Downloader
	apiBaseURL  string
	downloadDir string
	locale      string
	prefs       prefs.Prefs
	prefsPath   string
	pollTick    time.Duration
	log         *logger.Logger

	// UI state
	theme    Theme
	keys     keyMap
	help     help.Model
	input    textinput.Model
	spinner  spinner.Model
	progress progress.Model
	width    int
	height   int
	ready    bool
	focus    Focus
	showHelp bool

	// Data state
	snapshot state.Snapshot
	results  render.View
	selected int
	offset   int

	// History recall; -1 means editing a fresh URL.
	historyIdx int

	download downloadState
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick == 0 {
		pollTick = DefaultUIInterval
	}

	themeName := opts.Prefs.Theme
	if themeName == "" {
		themeName = prefs.DefaultTheme()
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	input := textinput.New()
	input.Prompt = "URL ❯ "
	input.Placeholder = "https://shop.example.com/product/123"
	input.CharLimit = 2048
	input.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	m := Model{
		ctx:         ctx,
		controller:  opts.Controller,
		store:       opts.Controller.Store(),
		downloader:  opts.Downloader,
		apiBaseURL:  opts.APIBaseURL,
		downloadDir: opts.DownloadDir,
		locale:      opts.Locale,
		prefs:       opts.Prefs,
		prefsPath:   prefsPath,
		pollTick:    pollTick,
		log:         log,
		theme:       GetTheme(themeName),
		keys:        DefaultKeyMap(),
		help:        help.New(),
		input:       input,
		spinner:     sp,
		progress:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		historyIdx:  -1,
	}
	m.applyTheme()
	m.snapshot = m.store.Snapshot()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		tickCmd(m.pollTick),
		fetchSnapshotCmd(m.store),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.input.Width = max(20, msg.Width-len(m.input.Prompt)-6)
		m.progress.Width = max(10, min(60, msg.Width-30))
		m.help.Width = msg.Width
		m.clampSelection()
		return m, nil

	case tickMsg:
		return m, tea.Batch(fetchSnapshotCmd(m.store), tickCmd(m.pollTick))

	case snapshotMsg:
		m.setSnapshot(state.Snapshot(msg))
		return m, nil

	case resolvedMsg:
		m.setSnapshot(m.store.Snapshot())
		if m.snapshot.Submission.Status == state.Success && m.results.Len() > 0 {
			m.focusResults()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.snapshot.Submission.IsLoading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case downloadProgressMsg:
		m.download.progress = backend.Progress(msg)
		return m, waitForDownload(m.download.events)

	case downloadDoneMsg:
		m.finishDownload(msg)
		return m, nil
	}

	if m.focus == FocusInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.controller.Cancel()
		m.download.cancelPending()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Escape):
		if m.controller.Cancel() {
			m.setSnapshot(m.store.Snapshot())
			return m, nil
		}
		if m.focus == FocusResults {
			return m, m.focusInput()
		}
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		if m.focus == FocusInput {
			m.focusResults()
			return m, nil
		}
		return m, m.focusInput()
	}

	if m.focus == FocusInput {
		return m.handleInputKey(msg)
	}
	return m.handleResultsKey(msg)
}

// handleInputKey processes keyboard input while the URL field is focused.
func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.startSubmission()

	case key.Matches(msg, m.keys.HistoryPrev):
		m.recallHistory(1)
		return m, nil

	case key.Matches(msg, m.keys.HistoryNext):
		m.recallHistory(-1)
		return m, nil

	case key.Matches(msg, m.keys.Help) && strings.TrimSpace(m.input.Value()) == "":
		m.showHelp = true
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.historyIdx = -1
	return m, cmd
}

// handleResultsKey processes keyboard input for the results list.
func (m Model) handleResultsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := m.results.Len()

	switch {
	case key.Matches(msg, m.keys.Close):
		m.controller.Cancel()
		m.download.cancelPending()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.applyTheme()
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.selected < count-1 {
			m.selected++
		}
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, m.keys.Top):
		m.selected = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selected = max(0, count-1)

	case key.Matches(msg, m.keys.DownloadImage):
		if count == 0 {
			return m, nil
		}
		tile := m.results.Tiles[m.selected]
		return m.startDownload(tile.URL, tile.Name)

	case key.Matches(msg, m.keys.DownloadArchive):
		if !m.results.ArchiveEnabled {
			return m, nil
		}
		return m.startDownload(m.results.Archive, m.results.ArchiveName)
	}

	m.clampSelection()
	return m, nil
}

// startSubmission enters Loading synchronously and runs the outbound call as
// a command.
func (m Model) startSubmission() (tea.Model, tea.Cmd) {
	pageURL := strings.TrimSpace(m.input.Value())
	pending := m.controller.Begin(m.ctx, pageURL, m.locale)
	m.prefs = m.prefs.Remember(pageURL)
	m.savePrefs()
	m.historyIdx = -1
	m.setSnapshot(m.store.Snapshot())

	return m, tea.Batch(runSubmissionCmd(m.controller, pending), m.spinner.Tick)
}

func (m *Model) recallHistory(step int) {
	if len(m.prefs.Recent) == 0 {
		return
	}
	idx := m.historyIdx + step
	if idx < 0 {
		m.historyIdx = -1
		m.input.SetValue("")
		return
	}
	if idx >= len(m.prefs.Recent) {
		idx = len(m.prefs.Recent) - 1
	}
	m.historyIdx = idx
	m.input.SetValue(m.prefs.Recent[idx])
	m.input.CursorEnd()
}

func (m *Model) setSnapshot(snap state.Snapshot) {
	m.snapshot = snap
	sub := snap.Submission
	if sub.Status == state.Success {
		m.results = render.Render(sub.Images, sub.ArchiveURL)
	} else {
		m.results = render.View{}
	}
	m.clampSelection()
}

func (m *Model) focusResults() {
	m.focus = FocusResults
	m.input.Blur()
}

func (m *Model) focusInput() tea.Cmd {
	m.focus = FocusInput
	return m.input.Focus()
}

func (m *Model) clampSelection() {
	count := m.results.Len()
	if m.selected >= count {
		m.selected = max(0, count-1)
	}
	if m.selected < 0 {
		m.selected = 0
	}
	rows := m.visibleRows()
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if m.selected >= m.offset+rows {
		m.offset = m.selected - rows + 1
	}
	if m.offset > max(0, count-rows) {
		m.offset = max(0, count-rows)
	}
}

func (m Model) visibleRows() int {
	return max(1, m.height-chromeHeight)
}

func (m *Model) applyTheme() {
	styles := m.theme.Styles()
	m.input.PromptStyle = styles.AccentText
	m.input.TextStyle = styles.Text
	m.input.PlaceholderStyle = styles.FaintText
	m.spinner.Style = styles.AccentText
	m.help.Styles.ShortKey = styles.WarningText
	m.help.Styles.ShortDesc = styles.MutedText
	m.help.Styles.FullKey = styles.WarningText
	m.help.Styles.FullDesc = styles.MutedText
}

func (m Model) savePrefs() {
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.log.Warn().Err(err).Msg("save prefs failed")
	}
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type resolvedMsg state.Submission

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func runSubmissionCmd(c *submit.Controller, p submit.Pending) tea.Cmd {
	return func() tea.Msg {
		return resolvedMsg(c.Run(p))
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	return err
}
