package schedules

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/shopline/internal/board"
	"github.com/julianstephens/shopline/internal/cli"
	"github.com/julianstephens/shopline/internal/config"
	"github.com/julianstephens/shopline/internal/constants"
	"github.com/julianstephens/shopline/internal/drag"
	"github.com/julianstephens/shopline/internal/gantt"
	"github.com/julianstephens/shopline/internal/models"
	"github.com/julianstephens/shopline/internal/storage"
	"github.com/julianstephens/shopline/internal/timerange"
)

type ShowCmd struct {
	Date           string   `arg:"" optional:"" default:"today" help:"Any day inside the window (YYYY-MM-DD or 'today')."`
	View           string   `short:"v" help:"Window size: Day, Week or Month (default from config)."`
	Group          string   `short:"g" help:"Group rows by none, order or equipment_group."`
	Color          string   `short:"c" help:"Color bars by product or process."`
	EquipmentGroup int64    `name:"equipment-group" help:"Only show records of this equipment group id."`
	Collapse       []string `help:"Container ids whose records are hidden."`
}

type showOutput struct {
	Window string      `json:"window" yaml:"window"`
	Start  string      `json:"start_date" yaml:"start_date"`
	End    string      `json:"end_date" yaml:"end_date"`
	Tasks  []gantt.Row `json:"tasks" yaml:"tasks"`
}

func (c *ShowCmd) options(ctx *cli.Context) (board.Options, error) {
	start, err := ctx.ParseDate(c.Date)
	if err != nil {
		return board.Options{}, err
	}
	opts := board.Options{
		Start:       start,
		Granularity: ctx.Config.Granularity(),
		Group:       ctx.Config.Group(),
		Color:       ctx.Config.Color(),
		Now:         ctx.Now,
	}
	if c.View != "" {
		if opts.Granularity, err = timerange.ParseGranularity(c.View); err != nil {
			return opts, err
		}
	}
	if c.Group != "" {
		if opts.Group, err = config.ParseGroupMode(c.Group); err != nil {
			return opts, err
		}
	}
	if c.Color != "" {
		if opts.Color, err = config.ParseColorMode(c.Color); err != nil {
			return opts, err
		}
	}
	if c.EquipmentGroup > 0 {
		id := c.EquipmentGroup
		opts.EquipmentGroupID = &id
	}
	return opts, nil
}

func (c *ShowCmd) Run(ctx *cli.Context) error {
	opts, err := c.options(ctx)
	if err != nil {
		return err
	}
	backend, err := ctx.Backend()
	if err != nil {
		return err
	}

	sess := board.NewSession(backend, ctx.Cache, ctx.Locale, opts)
	for _, id := range c.Collapse {
		sess.ToggleCollapsed(id)
	}
	view, err := sess.Load(context.Background(), sess.Request())
	if err != nil {
		return fmt.Errorf("failed to load schedules: %w", err)
	}
	tasks := sess.Tasks(view.Records)

	out := showOutput{
		Window: view.Window.Label,
		Start:  view.Window.StartDate(),
		End:    view.Window.EndDate(),
		Tasks:  gantt.Export(tasks),
	}
	return ctx.Emit(out, func(w io.Writer) error {
		fmt.Fprintln(w, cli.TitleStyle.Render(view.Window.Label))
		visible := gantt.Visible(tasks)
		if len(visible) == 0 {
			fmt.Fprintln(w, cli.MutedStyle.Render("No scheduled work in this window."))
			return nil
		}
		fmt.Fprintln(w, renderTasks(visible, ctx))
		return nil
	})
}

func renderTasks(tasks []gantt.Task, ctx *cli.Context) string {
	t := cli.NewTable("", "ID", "Task", "Start", "End", "Equipment", "Customer")
	for _, task := range tasks {
		start := task.Start().In(ctx.Loc).Format(constants.DateTimeFormat)
		end := task.End().In(ctx.Loc).Format(constants.DateTimeFormat)
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(task.Color().Hex)).Render("█")

		switch v := task.(type) {
		case *gantt.Container:
			label := cli.TitleStyle.Render(v.Label())
			if v.ChildrenHidden {
				label += cli.MutedStyle.Render(fmt.Sprintf(" (%d hidden)", v.Len()))
			}
			t.Row(swatch, v.ID(), label, start, end, "", "")
		case *gantt.Leaf:
			meta := v.Meta()
			label := gantt.DisplayLabel(v)
			if v.Parent() != "" {
				label = "  " + label
			}
			t.Row(swatch, strconv.FormatInt(v.RecordID(), 10), label, start, end, meta.Equipment, meta.Customer)
		}
	}
	return t.Render()
}

type MoveCmd struct {
	ID        int64  `arg:"" help:"Schedule record id."`
	Start     string `required:"" help:"New start (YYYY-MM-DD HH:MM)."`
	End       string `required:"" help:"New end (YYYY-MM-DD HH:MM)."`
	Equipment int64  `help:"Reassign the record to this equipment id."`
}

func (c *MoveCmd) Run(ctx *cli.Context) error {
	start, err := cli.ParseDateTime(c.Start, ctx.Loc)
	if err != nil {
		return err
	}
	end, err := cli.ParseDateTime(c.End, ctx.Loc)
	if err != nil {
		return err
	}
	backend, err := ctx.Backend()
	if err != nil {
		return err
	}

	// The commit needs only the record id, so a bare leaf stands in for the
	// row the board would have drawn.
	tasks := gantt.Transform([]models.ScheduleRecord{{ID: c.ID, StartDateTime: start, EndDateTime: end}},
		gantt.Options{Editable: true})

	ctrl := drag.NewController(backend, ctx.Cache, ctx.Notifier())
	gesture, err := ctrl.Begin(tasks[0])
	if err != nil {
		return err
	}
	if c.Equipment > 0 {
		gesture.Reassign(c.Equipment)
	}
	ok, err := gesture.Release(context.Background(), start, end)
	if !ok {
		return fmt.Errorf("schedule %d was not moved: %w", c.ID, err)
	}
	return nil
}

type GroupsCmd struct{}

func (c *GroupsCmd) Run(ctx *cli.Context) error {
	backend, err := ctx.Backend()
	if err != nil {
		return err
	}
	groups, err := backend.ListEquipmentGroups(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list equipment groups: %w", err)
	}
	return ctx.Emit(groups, func(w io.Writer) error {
		if len(groups) == 0 {
			fmt.Fprintln(w, "No equipment groups.")
			return nil
		}
		t := cli.NewTable("ID", "Name", "Description")
		for _, g := range groups {
			t.Row(strconv.FormatInt(g.ID, 10), g.Name, models.StringValue(g.Description, constants.PlaceholderText))
		}
		fmt.Fprintln(w, t.Render())
		return nil
	})
}

// CheckCmd looks for double-booked machines in the local database
type CheckCmd struct{}

func (c *CheckCmd) Run(ctx *cli.Context) error {
	s, err := ctx.Store()
	if err != nil {
		return err
	}
	report, err := s.Integrity(context.Background())
	if err != nil {
		return err
	}
	if err := ctx.Emit(report, func(w io.Writer) error {
		renderReport(w, report, ctx)
		return nil
	}); err != nil {
		return err
	}
	if !report.OK() {
		return fmt.Errorf("schedule check found %d conflict(s), %d invalid span(s) and %d unscheduled order(s)",
			len(report.Conflicts), report.InvalidSpans, len(report.Unscheduled))
	}
	return nil
}

func renderReport(w io.Writer, report storage.IntegrityReport, ctx *cli.Context) {
	if report.OK() {
		fmt.Fprintln(w, cli.SuccessStyle.Render("✓ No conflicts found"))
		return
	}
	if len(report.Conflicts) > 0 {
		t := cli.NewTable("Equipment", "Schedules", "Overlap")
		for _, c := range report.Conflicts {
			t.Row(c.Equipment,
				fmt.Sprintf("%d / %d", c.First, c.Second),
				c.Start.In(ctx.Loc).Format(constants.DateTimeFormat)+" - "+c.End.In(ctx.Loc).Format(constants.TimeFormat))
		}
		fmt.Fprintln(w, cli.ErrorStyle.Render(fmt.Sprintf("%d conflict(s):", len(report.Conflicts))))
		fmt.Fprintln(w, t.Render())
	}
	if report.InvalidSpans > 0 {
		fmt.Fprintln(w, cli.WarningStyle.Render(fmt.Sprintf("%d schedule(s) end before they start", report.InvalidSpans)))
	}
	for _, no := range report.Unscheduled {
		fmt.Fprintln(w, cli.WarningStyle.Render("Confirmed order without schedule: "+no))
	}
}
