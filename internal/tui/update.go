package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/shopline/internal/constants"
	"github.com/julianstephens/shopline/internal/gantt"
	"github.com/julianstephens/shopline/internal/logger"
	"github.com/julianstephens/shopline/internal/tui/components/groups"
)

const chromeHeight = 6

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.timeline.SetSize(msg.Width, max(1, msg.Height-chromeHeight))
		m.groups.SetSize(msg.Width, max(1, msg.Height-chromeHeight))
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case viewLoadedMsg:
		if !m.session.Current(msg.seq) {
			logger.Debug("Dropping stale view", "seq", msg.seq)
			return m, nil
		}
		m.loading = false
		m.loadErr = msg.err
		if msg.err != nil {
			return m, nil
		}
		m.view = msg.view
		m.rebuild()
		return m, nil

	case committedMsg:
		m.saving--
		if m.gesture == nil && m.timeline.PreviewID() == msg.id {
			m.timeline.ClearPreview()
		}
		if !msg.ok {
			// the bar snaps back to the cached record
			return m, nil
		}
		return m, m.reload(m.session.Refresh())

	case groups.SelectedMsg:
		m.state = StateBoard
		return m, m.reload(m.session.SetEquipmentGroup(msg.ID))

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) && !(m.state == StateFilter && m.groups.Filtering()) {
			m.quitting = true
			return m, tea.Quit
		}
		if m.state == StateFilter {
			return m.updateFilter(msg)
		}
		return m.updateBoard(msg)
	}

	var cmd tea.Cmd
	m.timeline, cmd = m.timeline.Update(msg)
	return m, cmd
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Cancel) && !m.groups.Filtering() {
		m.state = StateBoard
		return m, nil
	}
	var cmd tea.Cmd
	m.groups, cmd = m.groups.Update(msg)
	return m, cmd
}

func (m Model) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Earlier):
		return m.nudge(-m.step(), -m.step())
	case key.Matches(msg, m.keys.Later):
		return m.nudge(m.step(), m.step())
	case key.Matches(msg, m.keys.Shorter):
		return m.nudge(0, -m.step())
	case key.Matches(msg, m.keys.Longer):
		return m.nudge(0, m.step())
	case key.Matches(msg, m.keys.Commit):
		return m.commit()
	case key.Matches(msg, m.keys.Cancel):
		m.cancelGesture()
	}

	// Everything below changes the view, so a pending gesture is dropped
	switch {
	case key.Matches(msg, m.keys.Prev):
		m.cancelGesture()
		return m, m.reload(m.session.Prev())
	case key.Matches(msg, m.keys.Next):
		m.cancelGesture()
		return m, m.reload(m.session.Next())
	case key.Matches(msg, m.keys.Today):
		m.cancelGesture()
		return m, m.reload(m.session.Today())
	case key.Matches(msg, m.keys.Day):
		return m.granularity(constants.GranularityDay)
	case key.Matches(msg, m.keys.Week):
		return m.granularity(constants.GranularityWeek)
	case key.Matches(msg, m.keys.Month):
		return m.granularity(constants.GranularityMonth)

	case key.Matches(msg, m.keys.Group):
		m.cancelGesture()
		m.session.CycleGroup()
		m.rebuild()
	case key.Matches(msg, m.keys.Color):
		m.session.ToggleColor()
		m.rebuild()
	case key.Matches(msg, m.keys.Edit):
		m.cancelGesture()
		m.session.ToggleEditable()
		m.rebuild()
	case key.Matches(msg, m.keys.Collapse):
		m.cancelGesture()
		m.toggleCollapsed()
	case key.Matches(msg, m.keys.Filter):
		m.cancelGesture()
		m.groups.SetGroups(m.equipmentGroups(), m.session.EquipmentGroup())
		m.state = StateFilter

	case key.Matches(msg, m.keys.Up):
		if m.gesture == nil {
			m.timeline.SelectPrev()
		}
	case key.Matches(msg, m.keys.Down):
		if m.gesture == nil {
			m.timeline.SelectNext()
		}
	}
	return m, nil
}

func (m Model) granularity(g constants.Granularity) (tea.Model, tea.Cmd) {
	if m.session.Granularity() == g {
		return m, nil
	}
	m.cancelGesture()
	return m, m.reload(m.session.SetGranularity(g))
}

// toggleCollapsed folds the selected container, or the container of the
// selected leaf
func (m *Model) toggleCollapsed() {
	switch t := m.timeline.Selected().(type) {
	case *gantt.Container:
		m.session.ToggleCollapsed(t.ID())
	case *gantt.Leaf:
		if t.Parent() == "" {
			return
		}
		m.session.ToggleCollapsed(t.Parent())
	default:
		return
	}
	m.rebuild()
}

// nudge shifts the provisional span of the selected leaf, starting a
// gesture on the first key press
func (m Model) nudge(dStart, dEnd time.Duration) (tea.Model, tea.Cmd) {
	if m.gesture == nil {
		task := m.timeline.Selected()
		g, err := m.drag.Begin(task)
		if err != nil {
			m.status.Error(fmt.Sprintf("Cannot move task: %v", err))
			return m, nil
		}
		m.gesture = g
	}
	start, end := m.gesture.Span()
	start, end = start.Add(dStart), end.Add(dEnd)
	m.gesture.Move(start, end)
	m.timeline.SetPreview(m.gesture.Task().ID(), start, end)
	return m, nil
}

// commit releases the gesture at its provisional span. The request runs
// as a command; the bar stays provisional until the response arrives, and
// a new gesture may start meanwhile. The last reload to land wins.
func (m Model) commit() (tea.Model, tea.Cmd) {
	if m.gesture == nil {
		return m, nil
	}
	g := m.gesture
	m.gesture = nil
	m.saving++
	id := g.Task().ID()
	start, end := g.Span()
	return m, func() tea.Msg {
		ok, err := g.Release(context.Background(), start, end)
		return committedMsg{id: id, ok: ok, err: err}
	}
}
