// Package groups is the equipment-group filter picker of the board.
package groups

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/shopline/internal/models"
)

// SelectedMsg is sent when a filter is chosen; a nil ID shows every group
type SelectedMsg struct {
	ID *int64
}

type Item struct {
	Group *models.EquipmentGroup
}

func (i Item) Title() string {
	if i.Group == nil {
		return "All equipment groups"
	}
	return i.Group.Name
}

func (i Item) Description() string {
	if i.Group == nil {
		return "Show every machine"
	}
	return models.StringValue(i.Group.Description, "")
}

func (i Item) FilterValue() string { return i.Title() }

type KeyMap struct {
	Choose key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Choose: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "apply filter"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
}

func New(groups []models.EquipmentGroup, width, height int) Model {
	l := list.New(items(groups), list.NewDefaultDelegate(), width, height)
	l.Title = "Equipment groups"
	l.SetShowHelp(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Choose}
	}
	return Model{list: l, keys: keys}
}

func items(groups []models.EquipmentGroup) []list.Item {
	out := make([]list.Item, 0, len(groups)+1)
	out = append(out, Item{})
	for i := range groups {
		out = append(out, Item{Group: &groups[i]})
	}
	return out
}

// SetGroups replaces the choices and selects the one matching current
func (m *Model) SetGroups(groups []models.EquipmentGroup, current *int64) {
	m.list.SetItems(items(groups))
	m.list.Select(0)
	if current == nil {
		return
	}
	for i, g := range groups {
		if g.ID == *current {
			m.list.Select(i + 1)
		}
	}
}

// Filtering reports whether the user is typing a list filter, in which
// case keys belong to the list
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && !m.Filtering() && key.Matches(msg, m.keys.Choose) {
		if i, ok := m.list.SelectedItem().(Item); ok {
			var id *int64
			if i.Group != nil {
				gid := i.Group.ID
				id = &gid
			}
			return m, func() tea.Msg { return SelectedMsg{ID: id} }
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
