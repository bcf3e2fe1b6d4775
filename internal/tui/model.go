// Package tui is the interactive schedule board.
package tui

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/shopline/internal/api"
	"github.com/julianstephens/shopline/internal/board"
	"github.com/julianstephens/shopline/internal/cache"
	"github.com/julianstephens/shopline/internal/constants"
	"github.com/julianstephens/shopline/internal/drag"
	"github.com/julianstephens/shopline/internal/gantt"
	"github.com/julianstephens/shopline/internal/locale"
	"github.com/julianstephens/shopline/internal/logger"
	"github.com/julianstephens/shopline/internal/models"
	"github.com/julianstephens/shopline/internal/tui/components/groups"
	"github.com/julianstephens/shopline/internal/tui/components/timeline"
)

type SessionState int

const (
	StateBoard SessionState = iota
	StateFilter
)

// Config wires the board to a backend
type Config struct {
	Backend  api.Backend
	Cache    *cache.Cache
	Locale   locale.Locale
	Location *time.Location
	Board    board.Options
}

// viewLoadedMsg carries the response of one board fetch
type viewLoadedMsg struct {
	seq  uint64
	view *board.View
	err  error
}

// committedMsg reports the end of a gesture commit
type committedMsg struct {
	id  string
	ok  bool
	err error
}

// statusLine collects drag notifications, which arrive from the commit
// goroutine
type statusLine struct {
	mu    sync.Mutex
	text  string
	isErr bool
}

func (s *statusLine) Success(msg string) { s.set(msg, false) }
func (s *statusLine) Error(msg string)   { s.set(msg, true) }

func (s *statusLine) set(msg string, isErr bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text, s.isErr = msg, isErr
}

func (s *statusLine) get() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text, s.isErr
}

type Model struct {
	session  *board.Session
	drag     *drag.Controller
	status   *statusLine
	loc      *time.Location
	state    SessionState
	keys     KeyMap
	help     help.Model
	spinner  spinner.Model
	timeline timeline.Model
	groups   groups.Model

	view       *board.View
	tasks      []gantt.Task
	loading    bool
	loadErr    error
	gesture    *drag.Gesture
	// saving counts commits still waiting for the backend
	saving int
	quitting   bool
	width      int
	height     int
}

func NewModel(cfg Config) Model {
	status := &statusLine{}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = titleStyle

	return Model{
		session:  board.NewSession(cfg.Backend, cfg.Cache, cfg.Locale, cfg.Board),
		drag:     drag.NewController(cfg.Backend, cfg.Cache, status),
		status:   status,
		loc:      loc,
		state:    StateBoard,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		spinner:  sp,
		timeline: timeline.New(0, 0),
		groups:   groups.New(nil, 0, 0),
		loading:  true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch(m.session.Request()))
}

// fetch loads req off the update loop
func (m Model) fetch(req board.Request) tea.Cmd {
	s := m.session
	return func() tea.Msg {
		v, err := s.Load(context.Background(), req)
		return viewLoadedMsg{seq: req.Seq, view: v, err: err}
	}
}

// reload starts a fetch for req and shows the spinner
func (m *Model) reload(req board.Request) tea.Cmd {
	cmds := []tea.Cmd{m.fetch(req)}
	if !m.loading {
		m.loading = true
		cmds = append(cmds, m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

// rebuild re-derives the rows from the loaded records after a display
// setting changed. No fetch is needed.
func (m *Model) rebuild() {
	if m.view == nil {
		m.tasks = nil
		m.timeline.SetTasks(nil, m.session.Request().Window, m.loc)
		return
	}
	m.tasks = m.session.Tasks(m.view.Records)
	m.timeline.SetTasks(m.tasks, m.view.Window, m.loc)
}

// step is how far one gesture key moves a bar at the current granularity
func (m Model) step() time.Duration {
	switch m.session.Granularity() {
	case constants.GranularityWeek:
		return constants.WeekMoveStep
	case constants.GranularityMonth:
		return constants.MonthMoveStep
	default:
		return constants.DayMoveStep
	}
}

// selectedLeaf returns the highlighted row as a leaf when it is one
func (m Model) selectedLeaf() *gantt.Leaf {
	l, _ := m.timeline.Selected().(*gantt.Leaf)
	return l
}

// equipmentGroups is the last fetched group list
func (m Model) equipmentGroups() []models.EquipmentGroup {
	if m.view == nil {
		return nil
	}
	return m.view.Groups
}

func (m *Model) cancelGesture() {
	if m.gesture == nil {
		return
	}
	m.gesture.Cancel()
	m.gesture = nil
	m.timeline.ClearPreview()
	logger.Debug("Gesture cancelled")
}
