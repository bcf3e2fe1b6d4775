// Package gantt turns schedule records into the task rows drawn on the
// timeline: leaves backed by one record each, and synthetic containers that
// aggregate a group of leaves.
package gantt

import (
	"time"

	"github.com/julianstephens/shopline/internal/models"
)

// Kind tags a Task as a leaf or a container
type Kind string

const (
	KindLeaf      Kind = "leaf"
	KindContainer Kind = "container"
)

// Task is one row on the timeline. It is implemented only by *Leaf and
// *Container.
type Task interface {
	ID() string
	Kind() Kind
	Label() string
	Start() time.Time
	End() time.Time
	ColorKey() string
	Color() Color
	Editable() bool

	sealed()
}

// Meta is the tooltip data of a leaf, carried alongside the label
type Meta struct {
	Process        string `json:"process" yaml:"process"`
	Order          string `json:"order" yaml:"order"`
	Customer       string `json:"customer" yaml:"customer"`
	Product        string `json:"product" yaml:"product"`
	Equipment      string `json:"equipment" yaml:"equipment"`
	EquipmentGroup string `json:"equipment_group" yaml:"equipment_group"`
}

// Leaf is a task backed by exactly one schedule record
type Leaf struct {
	id       string
	record   models.ScheduleRecord
	parent   string
	label    string
	color    Color
	editable bool
	meta     Meta
}

func (l *Leaf) ID() string       { return l.id }
func (l *Leaf) Kind() Kind       { return KindLeaf }
func (l *Leaf) Label() string    { return l.label }
func (l *Leaf) Start() time.Time { return l.record.StartDateTime }
func (l *Leaf) End() time.Time   { return l.record.EndDateTime }
func (l *Leaf) ColorKey() string { return l.color.CSS }
func (l *Leaf) Color() Color     { return l.color }
func (l *Leaf) Editable() bool   { return l.editable }
func (l *Leaf) sealed()          {}

// RecordID is the id of the backing schedule record
func (l *Leaf) RecordID() int64 { return l.record.ID }

// Record returns a copy of the backing schedule record
func (l *Leaf) Record() models.ScheduleRecord { return l.record }

// Parent is the id of the enclosing container, or "" in flat mode
func (l *Leaf) Parent() string { return l.parent }

// Meta returns the tooltip fields of the leaf
func (l *Leaf) Meta() Meta { return l.meta }

// WithSpan returns a copy of the leaf moved to a provisional span. The copy
// is for display only; the cached record is not touched.
func (l *Leaf) WithSpan(start, end time.Time) *Leaf {
	cp := *l
	cp.record.StartDateTime = start
	cp.record.EndDateTime = end
	return &cp
}

// Container is a synthetic row aggregating the leaves of one group. It has
// no backing record and is never editable.
type Container struct {
	id             string
	group          GroupType
	key            string
	label          string
	start          time.Time
	end            time.Time
	children       int
	ChildrenHidden bool
}

func (c *Container) ID() string       { return c.id }
func (c *Container) Kind() Kind       { return KindContainer }
func (c *Container) Label() string    { return c.label }
func (c *Container) Start() time.Time { return c.start }
func (c *Container) End() time.Time   { return c.end }
func (c *Container) ColorKey() string { return containerColor.CSS }
func (c *Container) Color() Color     { return containerColor }
func (c *Container) Editable() bool   { return false }
func (c *Container) sealed()          {}

// GroupKey is the order number or equipment group name shared by the children
func (c *Container) GroupKey() string { return c.key }

// Group is the kind of partition this container represents
func (c *Container) Group() GroupType { return c.group }

// Len is the number of leaves in the container
func (c *Container) Len() int { return c.children }

// Leaves returns the leaf tasks in tasks, dropping containers
func Leaves(tasks []Task) []*Leaf {
	out := make([]*Leaf, 0, len(tasks))
	for _, t := range tasks {
		if l, ok := t.(*Leaf); ok {
			out = append(out, l)
		}
	}
	return out
}

// Containers returns the container tasks in tasks
func Containers(tasks []Task) []*Container {
	var out []*Container
	for _, t := range tasks {
		if c, ok := t.(*Container); ok {
			out = append(out, c)
		}
	}
	return out
}

// Visible drops leaves whose container has ChildrenHidden set
func Visible(tasks []Task) []Task {
	hidden := make(map[string]bool)
	for _, c := range Containers(tasks) {
		if c.ChildrenHidden {
			hidden[c.id] = true
		}
	}
	if len(hidden) == 0 {
		return tasks
	}

	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if l, ok := t.(*Leaf); ok && hidden[l.parent] {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Find returns the task with the given id
func Find(tasks []Task, id string) (Task, bool) {
	for _, t := range tasks {
		if t.ID() == id {
			return t, true
		}
	}
	return nil, false
}
