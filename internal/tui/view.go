package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/shopline/internal/constants"
	"github.com/julianstephens/shopline/internal/gantt"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case StateFilter:
		content = m.groups.View()
	default:
		content = m.timeline.View()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewHeader(),
		content,
		m.viewDetail(),
		m.viewStatus(),
		m.help.View(m.keys),
	)
}

func (m Model) viewHeader() string {
	title := titleStyle.Render(m.session.Request().Window.Label)
	if m.loading {
		title += " " + m.spinner.View()
	}

	badge := func(text string, active bool) string {
		if active {
			return activeBadgeStyle.Render(text)
		}
		return badgeStyle.Render(text)
	}
	badges := []string{
		badge(string(m.session.Granularity()), false),
		badge("group: "+string(m.session.Group()), false),
		badge("color: "+string(m.session.Color()), false),
		badge("edit", m.session.Editable()),
	}
	if id := m.session.EquipmentGroup(); id != nil {
		name := fmt.Sprintf("#%d", *id)
		for _, g := range m.equipmentGroups() {
			if g.ID == *id {
				name = g.Name
			}
		}
		badges = append(badges, badge("filter: "+name, true))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, title, " ", strings.Join(badges, " "))
}

// viewDetail is the tooltip of the selected row
func (m Model) viewDetail() string {
	switch t := m.timeline.Selected().(type) {
	case *gantt.Leaf:
		meta := t.Meta()
		parts := []string{gantt.DisplayLabel(t)}
		for _, p := range []string{meta.Product, meta.Customer, meta.Equipment} {
			if p != "" {
				parts = append(parts, p)
			}
		}
		parts = append(parts, t.Start().In(m.loc).Format(constants.DateTimeFormat)+" → "+t.End().In(m.loc).Format(constants.DateTimeFormat))
		return mutedStyle.Render(strings.Join(parts, " · "))
	case *gantt.Container:
		return mutedStyle.Render(fmt.Sprintf("%s · %d task(s)", t.Label(), t.Len()))
	}
	return ""
}

func (m Model) viewStatus() string {
	if m.loadErr != nil {
		return dangerStyle.Render("❌ " + m.loadErr.Error())
	}
	if m.gesture != nil {
		return mutedStyle.Render("enter to commit, esc to cancel")
	}
	if m.saving > 0 {
		return mutedStyle.Render("Saving...")
	}
	text, isErr := m.status.get()
	switch {
	case text == "":
		return ""
	case isErr:
		return dangerStyle.Render("❌ " + text)
	default:
		return successStyle.Render("✓ " + text)
	}
}
