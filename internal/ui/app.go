package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/spotter/internal/kv"
	"github.com/five82/spotter/internal/logtail"
	"github.com/five82/spotter/internal/optimistic"
	"github.com/five82/spotter/internal/prefs"
	"github.com/five82/spotter/internal/state"
	"github.com/five82/spotter/internal/timer"
	"github.com/five82/spotter/internal/workout"
)

// View represents the current active view.
type View int

const (
	ViewExercise View = iota
	ViewOverview
)

// Controller is the set mutation surface. *optimistic.Controller
// implements it.
type Controller interface {
	Add() int64
	Delete(id int64)
	ToggleComplete(id int64)
	Edit(id int64, facts workout.Facts)
	Pending(id int64) bool
}

var _ Controller = (*optimistic.Controller)(nil)

// RestTimer is the countdown surface. *timer.Service implements it.
type RestTimer interface {
	Start(seconds int)
	Pause()
	Reset()
	State() timer.State
	Subscribe(fn func(timer.Completion)) (cancel func())
}

var _ RestTimer = (*timer.Service)(nil)

// Options configures the UI.
type Options struct {
	Context    context.Context
	Store      *state.Store
	Controller Controller
	Timer      RestTimer
	// KV persists presentation details such as the indicator position.
	KV kv.Store
	// Navigate moves the session to the next or previous exercise and
	// reloads it.
	Navigate  func(ctx context.Context, next bool) error
	Logger    *slog.Logger
	LogPath   string
	Tick      time.Duration
	ThemeName string
	Bell      bool
	PrefsPath string
	// BellOutput receives the terminal bell; nil uses stderr.
	BellOutput io.Writer
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	store     *state.Store
	ctrl      Controller
	timer     RestTimer
	kv        kv.Store
	navigate  func(ctx context.Context, next bool) error
	logger    *slog.Logger
	logPath   string
	prefsPath string
	tick      time.Duration
	bellOut   io.Writer

	// Completion signals from the timer service.
	completions chan timer.Completion
	unsubscribe func()

	// UI state
	theme       Theme
	keys        keyMap
	help        help.Model
	bell        bool
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool
	showLogs    bool
	logEntries  []logtail.Entry
	logErr      error

	// Data state
	now        time.Time
	snapshot   state.Snapshot
	rest       timer.State
	selected   int
	edit       *editForm
	position   Position
	flashUntil time.Time
	navigating bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	tick := opts.Tick
	if tick <= 0 {
		tick = 250 * time.Millisecond
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	bellOut := opts.BellOutput
	if bellOut == nil {
		bellOut = os.Stderr
	}

	m := Model{
		ctx:         ctx,
		store:       opts.Store,
		ctrl:        opts.Controller,
		timer:       opts.Timer,
		kv:          opts.KV,
		navigate:    opts.Navigate,
		logger:      logger,
		logPath:     opts.LogPath,
		prefsPath:   prefsPath,
		tick:        tick,
		bellOut:     bellOut,
		completions: make(chan timer.Completion, 1),
		unsubscribe: func() {},
		theme:       GetTheme(opts.ThemeName),
		keys:        DefaultKeyMap(),
		help:        help.New(),
		bell:        opts.Bell,
		currentView: ViewExercise,
		position:    loadPosition(opts.KV),
		now:         time.Now(),
	}
	if m.timer != nil {
		ch := m.completions
		m.unsubscribe = m.timer.Subscribe(func(c timer.Completion) {
			select {
			case ch <- c:
			default:
			}
		})
	}
	m.refresh()
	return m
}

// Close releases the completion subscription.
func (m Model) Close() {
	m.unsubscribe()
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(m.tick),
		waitForCompletion(m.completions),
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
		m.help.Width = msg.Width
		m.ready = true
		return m, nil

	case tickMsg:
		m.now = time.Time(msg)
		m.refresh()
		return m, tickCmd(m.tick)

	case completionMsg:
		m.now = time.Now()
		m.flashUntil = m.now.Add(flashDuration)
		m.refresh()
		cmds := []tea.Cmd{waitForCompletion(m.completions)}
		if m.bell {
			cmds = append(cmds, bellCmd(m.bellOut))
		}
		return m, tea.Batch(cmds...)

	case navigatedMsg:
		m.navigating = false
		if msg.err != nil {
			m.logger.Warn("exercise navigation failed", "error", msg.err)
			if m.store != nil {
				m.store.Notify("Could not switch exercise")
			}
		} else {
			m.selected = 0
		}
		m.refresh()
		return m, nil

	case logsMsg:
		m.logEntries = msg.entries
		m.logErr = msg.err
		return m, nil
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
	if m.edit != nil {
		return m.handleEditKey(msg)
	}
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}
	if m.showLogs {
		if key.Matches(msg, m.keys.Escape, m.keys.Logs) {
			m.showLogs = false
		} else if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.ToggleBell):
		m.bell = !m.bell
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.SwitchView):
		if m.currentView == ViewExercise {
			m.currentView = ViewOverview
		} else {
			m.currentView = ViewExercise
		}
		return m, nil

	case key.Matches(msg, m.keys.Logs):
		m.showLogs = true
		return m, loadLogsCmd(m.logPath)

	case key.Matches(msg, m.keys.StartRest):
		if m.timer != nil {
			m.timer.Start(m.snapshot.Exercise.RestInSeconds)
		}
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.PauseRest):
		m.togglePause()
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.ResetRest):
		if m.timer != nil {
			m.timer.Reset()
		}
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.NextExercise, m.keys.PrevExercise):
		if m.navigate == nil || m.navigating {
			return m, nil
		}
		m.navigating = true
		return m, navigateCmd(m.ctx, m.navigate, key.Matches(msg, m.keys.NextExercise))
	}

	switch m.currentView {
	case ViewExercise:
		return m.handleExerciseKey(msg)
	case ViewOverview:
		return m.handleOverviewKey(msg)
	}
	return m, nil
}

// handleExerciseKey processes set actions on the exercise view.
func (m Model) handleExerciseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sets := m.snapshot.Exercise.Sets

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, m.keys.Down):
		if m.selected < len(sets)-1 {
			m.selected++
		}
	case key.Matches(msg, m.keys.Add):
		if m.ctrl != nil && m.ctrl.Add() != 0 {
			m.refresh()
			m.selected = len(m.snapshot.Exercise.Sets) - 1
		}
	case key.Matches(msg, m.keys.Delete):
		if set, ok := m.selectedSet(); ok && m.ctrl != nil {
			m.ctrl.Delete(set.ID)
		}
	case key.Matches(msg, m.keys.Complete):
		if set, ok := m.selectedSet(); ok && m.ctrl != nil {
			m.ctrl.ToggleComplete(set.ID)
		}
	case key.Matches(msg, m.keys.Edit, m.keys.Confirm):
		if set, ok := m.selectedSet(); ok && set.ID > 0 {
			form := newEditForm(set, m.theme)
			m.edit = &form
			return m, nil
		}
	}
	m.refresh()
	return m, nil
}

// handleOverviewKey moves the floating indicator.
func (m Model) handleOverviewKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	dx, dy := 0, 0
	switch {
	case key.Matches(msg, m.keys.MoveLeft):
		dx = -1
	case key.Matches(msg, m.keys.MoveRight):
		dx = 1
	case key.Matches(msg, m.keys.MoveUp):
		dy = -1
	case key.Matches(msg, m.keys.MoveDown):
		dy = 1
	default:
		return m, nil
	}

	areaW, areaH := m.contentSize()
	w, h := m.indicatorSize()
	cur := m.position.resolve(areaW, areaH, w, h)
	next := Position{X: max(cur.X+dx, 0), Y: max(cur.Y+dy, 0)}.resolve(areaW, areaH, w, h)
	if next == m.position {
		return m, nil
	}
	m.position = next
	if err := savePosition(m.kv, next); err != nil {
		m.logger.Warn("indicator position not saved", "error", err)
	}
	return m, nil
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.edit = nil
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		facts, err := parseFacts(m.edit.input.Value())
		if err != nil {
			form := *m.edit
			form.err = err.Error()
			m.edit = &form
			return m, nil
		}
		if m.ctrl != nil {
			m.ctrl.Edit(m.edit.setID, facts)
		}
		m.edit = nil
		m.refresh()
		return m, nil
	}

	form, cmd := m.edit.update(msg)
	m.edit = &form
	return m, cmd
}

func (m *Model) togglePause() {
	if m.timer == nil {
		return
	}
	st := m.timer.State()
	switch st.Phase {
	case timer.PhaseRunning:
		m.timer.Pause()
	case timer.PhasePaused:
		m.timer.Start(st.RemainingSeconds)
	}
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name, Bell: m.bell}); err != nil {
		m.logger.Warn("preferences not saved", "error", err)
	}
}

// refresh pulls the latest cache snapshot and countdown state.
func (m *Model) refresh() {
	if m.store != nil {
		m.snapshot = m.store.Snapshot()
	}
	if m.timer != nil {
		m.rest = m.timer.State()
	}
	if n := len(m.snapshot.Exercise.Sets); m.selected >= n {
		m.selected = max(n-1, 0)
	}
}

func (m Model) selectedSet() (workout.Set, bool) {
	sets := m.snapshot.Exercise.Sets
	if m.selected < 0 || m.selected >= len(sets) {
		return workout.Set{}, false
	}
	return sets[m.selected], true
}

func (m Model) flashing() bool {
	return m.now.Before(m.flashUntil)
}

// Messages

type tickMsg time.Time

type completionMsg timer.Completion

type navigatedMsg struct {
	err error
}

type logsMsg struct {
	entries []logtail.Entry
	err     error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForCompletion(ch <-chan timer.Completion) tea.Cmd {
	return func() tea.Msg {
		return completionMsg(<-ch)
	}
}

func bellCmd(w io.Writer) tea.Cmd {
	return func() tea.Msg {
		_, _ = fmt.Fprint(w, "\a")
		return nil
	}
}

func navigateCmd(ctx context.Context, navigate func(context.Context, bool) error, next bool) tea.Cmd {
	return func() tea.Msg {
		return navigatedMsg{err: navigate(ctx, next)}
	}
}

func loadLogsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		if path == "" {
			return logsMsg{}
		}
		entries, err := logtail.Read(path, logLines, slog.LevelInfo)
		return logsMsg{entries: entries, err: err}
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	defer m.Close()
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
