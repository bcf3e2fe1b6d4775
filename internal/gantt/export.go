package gantt

import "time"

// Row is the serialized form of one task. Label keeps the embedded customer
// separator; Meta carries the same data typed, for leaves only.
type Row struct {
	ID             string    `json:"id" yaml:"id"`
	Kind           Kind      `json:"kind" yaml:"kind"`
	Parent         string    `json:"parent,omitempty" yaml:"parent,omitempty"`
	Label          string    `json:"label" yaml:"label"`
	Start          time.Time `json:"start" yaml:"start"`
	End            time.Time `json:"end" yaml:"end"`
	Color          string    `json:"color" yaml:"color"`
	Editable       bool      `json:"editable" yaml:"editable"`
	Children       int       `json:"children,omitempty" yaml:"children,omitempty"`
	ChildrenHidden bool      `json:"children_hidden,omitempty" yaml:"children_hidden,omitempty"`
	Meta           *Meta     `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// Export flattens tasks into rows, keeping their order
func Export(tasks []Task) []Row {
	rows := make([]Row, 0, len(tasks))
	for _, t := range tasks {
		row := Row{
			ID:       t.ID(),
			Kind:     t.Kind(),
			Label:    t.Label(),
			Start:    t.Start(),
			End:      t.End(),
			Color:    t.ColorKey(),
			Editable: t.Editable(),
		}
		switch v := t.(type) {
		case *Leaf:
			meta := v.Meta()
			row.Parent = v.Parent()
			row.Meta = &meta
		case *Container:
			row.Children = v.Len()
			row.ChildrenHidden = v.ChildrenHidden
		}
		rows = append(rows, row)
	}
	return rows
}
