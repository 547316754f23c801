package ui

import (
	"context"
	"errors"
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wwtest625/scoop-ui/internal/prefs"
	"github.com/wwtest625/scoop-ui/internal/scoop"
	"github.com/wwtest625/scoop-ui/internal/state"
)

// Synchronizer starts a synchronization cycle. *syncer.Syncer implements it.
type Synchronizer interface {
	Initialize(ctx context.Context) error
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Syncer    Synchronizer
	State     state.Reader
	ThemeName string
	Sort      string
	PrefsPath string // empty uses ~/.config/scoopsync/prefs.toml
	Logger    *slog.Logger
	// SkipInitialSync leaves the first cycle to the caller.
	SkipInitialSync bool
}

type (
	snapshotMsg state.Snapshot
	syncDoneMsg struct{ err error }
	// subscriptionClosedMsg is delivered when the state subscription ends.
	subscriptionClosedMsg struct{}
)

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx       context.Context
	syncer    Synchronizer
	updates   <-chan state.Snapshot
	cancelSub func()
	prefsPath string
	log       *slog.Logger
	initSync  bool

	keys    keyMap
	spinner spinner.Model
	theme   Theme
	styles  Styles
	sort    string
	width   int
	height  int
	ready   bool

	snapshot state.Snapshot
	apps     []scoop.InstalledApp // sorted view of snapshot.Apps
	selected int
	offset   int
	syncing  bool
}

// New creates a new Bubble Tea model subscribed to opts.State.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	sortOrder := opts.Sort
	if sortOrder == "" {
		sortOrder = prefs.SortName
	}

	theme := GetTheme(opts.ThemeName)
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Accent))

	m := Model{
		ctx:       ctx,
		syncer:    opts.Syncer,
		prefsPath: prefsPath,
		log:       logger.With("component", "ui"),
		initSync:  !opts.SkipInitialSync,
		keys:      DefaultKeyMap(),
		spinner:   sp,
		theme:     theme,
		styles:    theme.Styles(),
		sort:      sortOrder,
		cancelSub: func() {},
	}
	// The first cycle counts as a running refresh until its syncDoneMsg lands.
	m.syncing = m.initSync && m.syncer != nil
	if opts.State != nil {
		m.updates, m.cancelSub = opts.State.Subscribe()
		m.setSnapshot(opts.State.Snapshot())
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, waitForSnapshotCmd(m.updates)}
	if m.initSync {
		cmds = append(cmds, syncCmd(m.ctx, m.syncer))
	}
	return tea.Batch(cmds...)
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
		m.clampSelection()
		return m, nil

	case snapshotMsg:
		m.setSnapshot(state.Snapshot(msg))
		return m, waitForSnapshotCmd(m.updates)

	case subscriptionClosedMsg:
		m.updates = nil
		return m, nil

	case syncDoneMsg:
		m.syncing = false
		if msg.err != nil {
			m.log.Debug("refresh finished with error", "error", msg.err)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancelSub()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Refresh):
		if m.syncing || m.syncer == nil {
			return m, nil
		}
		m.syncing = true
		return m, syncCmd(m.ctx, m.syncer)

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.styles = m.theme.Styles()
		m.spinner.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Accent))
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.CycleSort):
		m.sort = prefs.NextSort(m.sort)
		m.apps = sortApps(m.snapshot.Apps, m.sort)
		m.selected, m.offset = 0, 0
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.selected--
	case key.Matches(msg, m.keys.Down):
		m.selected++
	case key.Matches(msg, m.keys.Top):
		m.selected = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selected = len(m.apps) - 1
	}
	m.clampSelection()
	return m, nil
}

func (m *Model) setSnapshot(snap state.Snapshot) {
	m.snapshot = snap
	m.apps = sortApps(snap.Apps, m.sort)
	m.clampSelection()
}

func (m *Model) clampSelection() {
	if m.selected >= len(m.apps) {
		m.selected = len(m.apps) - 1
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
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m Model) savePrefs() {
	if err := prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name, Sort: m.sort}); err != nil {
		m.log.Warn("failed to save preferences", "error", err)
	}
}

func waitForSnapshotCmd(updates <-chan state.Snapshot) tea.Cmd {
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return subscriptionClosedMsg{}
		}
		return snapshotMsg(snap)
	}
}

func syncCmd(ctx context.Context, s Synchronizer) tea.Cmd {
	if s == nil {
		return nil
	}
	return func() tea.Msg {
		return syncDoneMsg{err: s.Initialize(ctx)}
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or ctx ends.
func Run(opts Options) error {
	m := New(opts)
	defer m.cancelSub()

	programOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if opts.Context != nil {
		programOpts = append(programOpts, tea.WithContext(opts.Context))
	}
	_, err := tea.NewProgram(m, programOpts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && opts.Context != nil && opts.Context.Err() != nil {
		return nil
	}
	return err
}
