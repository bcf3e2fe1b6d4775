// Package timeline draws schedule tasks as horizontal bars across the
// visible window.
package timeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/shopline/internal/constants"
	"github.com/julianstephens/shopline/internal/gantt"
	"github.com/julianstephens/shopline/internal/timerange"
)

const (
	labelWidth = 28
	timesWidth = 25
	minTrack   = 10
)

var (
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Width(labelWidth).
			MaxWidth(labelWidth)

	containerLabelStyle = labelStyle.
				Bold(true).
				Foreground(lipgloss.Color("111"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	previewStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Italic(true)

	axisStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

type preview struct {
	id    string
	start time.Time
	end   time.Time
}

type Model struct {
	viewport viewport.Model
	tasks    []gantt.Task
	window   timerange.Window
	loc      *time.Location
	selected int
	preview  *preview
	width    int
	height   int
}

func New(width, height int) Model {
	return Model{
		viewport: viewport.New(width, height),
		loc:      time.Local,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.tasks) == 0 {
		return "No scheduled work in this window."
	}
	return m.viewport.View()
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	m.Render()
}

// SetTasks replaces the rows, keeping the selection on the same task id
// when it is still visible
func (m *Model) SetTasks(tasks []gantt.Task, w timerange.Window, loc *time.Location) {
	var keep string
	if t := m.Selected(); t != nil {
		keep = t.ID()
	}
	m.tasks = gantt.Visible(tasks)
	m.window = w
	if loc != nil {
		m.loc = loc
	}
	m.selected = 0
	for i, t := range m.tasks {
		if t.ID() == keep {
			m.selected = i
			break
		}
	}
	m.Render()
}

// Selected returns the highlighted row, or nil when there are none
func (m Model) Selected() gantt.Task {
	if m.selected < 0 || m.selected >= len(m.tasks) {
		return nil
	}
	return m.tasks[m.selected]
}

func (m *Model) SelectNext() {
	if m.selected < len(m.tasks)-1 {
		m.selected++
		m.Render()
	}
}

func (m *Model) SelectPrev() {
	if m.selected > 0 {
		m.selected--
		m.Render()
	}
}

// SetPreview draws task id at a provisional span until ClearPreview
func (m *Model) SetPreview(id string, start, end time.Time) {
	m.preview = &preview{id: id, start: start, end: end}
	m.Render()
}

// PreviewID is the id of the provisionally drawn task, or ""
func (m *Model) PreviewID() string {
	if m.preview == nil {
		return ""
	}
	return m.preview.id
}

func (m *Model) ClearPreview() {
	m.preview = nil
	m.Render()
}

// Span maps start..end onto a track of width columns over w. ok is false
// when the span lies entirely outside the window.
func Span(w timerange.Window, start, end time.Time, width int) (from, to int, ok bool) {
	total := w.End.Sub(w.Start)
	if width <= 0 || total <= 0 || !end.After(w.Start) || start.After(w.End) {
		return 0, 0, false
	}
	col := func(t time.Time) int {
		c := int(float64(t.Sub(w.Start)) / float64(total) * float64(width))
		return max(0, min(width, c))
	}
	from, to = col(start), col(end)
	if to <= from {
		to = min(width, from+1)
		from = to - 1
	}
	return from, to, true
}

func (m Model) track() int {
	return max(minTrack, m.width-labelWidth-timesWidth-4)
}

func (m *Model) Render() {
	if len(m.tasks) == 0 {
		m.viewport.SetContent("")
		return
	}
	width := m.track()

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", labelWidth+2))
	b.WriteString(m.axis(width))
	b.WriteString("\n")

	for i, t := range m.tasks {
		start, end := t.Start(), t.End()
		provisional := m.preview != nil && m.preview.id == t.ID()
		if provisional {
			start, end = m.preview.start, m.preview.end
		}

		marker := "  "
		if i == m.selected {
			marker = selectedStyle.Render("▸ ")
		}
		b.WriteString(marker)
		b.WriteString(m.label(t))
		b.WriteString(m.bar(t, start, end, width, provisional))

		times := start.In(m.loc).Format(constants.DateTimeFormat) + " → " + end.In(m.loc).Format(constants.TimeFormat)
		if provisional {
			b.WriteString(" " + previewStyle.Render(times))
		} else {
			b.WriteString(" " + timeStyle.Render(times))
		}
		b.WriteString("\n")
	}
	m.viewport.SetContent(b.String())

	// keep the selected row on screen; line 0 is the axis
	line := m.selected + 1
	if line < m.viewport.YOffset {
		m.viewport.SetYOffset(line)
	} else if h := m.viewport.Height; h > 0 && line >= m.viewport.YOffset+h {
		m.viewport.SetYOffset(line - h + 1)
	}
}

func (m Model) label(t gantt.Task) string {
	switch t := t.(type) {
	case *gantt.Container:
		text := t.Label()
		if t.ChildrenHidden {
			text = fmt.Sprintf("▸ %s (%d)", text, t.Len())
		} else {
			text = "▾ " + text
		}
		return containerLabelStyle.Render(text)
	case *gantt.Leaf:
		text := gantt.DisplayLabel(t)
		if t.Parent() != "" {
			text = "  " + text
		}
		return labelStyle.Render(text)
	}
	return labelStyle.Render(t.Label())
}

func (m Model) bar(t gantt.Task, start, end time.Time, width int, provisional bool) string {
	from, to, ok := Span(m.window, start, end, width)
	if !ok {
		return axisStyle.Render(strings.Repeat("·", width))
	}
	fill := "█"
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(t.Color().Hex))
	switch {
	case provisional:
		fill, style = "▒", previewStyle
	case t.Kind() == gantt.KindContainer:
		fill = "▬"
	}
	return axisStyle.Render(strings.Repeat("·", from)) +
		style.Render(strings.Repeat(fill, to-from)) +
		axisStyle.Render(strings.Repeat("·", width-to))
}

// axis labels the window start and end above the track
func (m Model) axis(width int) string {
	layout := constants.TimeFormat
	if m.window.End.Sub(m.window.Start) > 24*time.Hour {
		layout = "01/02"
	}
	left := m.window.Start.In(m.loc).Format(layout)
	right := m.window.End.In(m.loc).Format(layout)
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return axisStyle.Render(left)
	}
	return axisStyle.Render(left + strings.Repeat(" ", gap) + right)
}
