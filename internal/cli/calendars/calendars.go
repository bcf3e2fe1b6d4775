package calendars

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/julianstephens/shopline/internal/calendar"
	"github.com/julianstephens/shopline/internal/cli"
	"github.com/julianstephens/shopline/internal/constants"
	"github.com/julianstephens/shopline/internal/models"
)

func editor(ctx *cli.Context) (*calendar.Editor, error) {
	backend, err := ctx.Backend()
	if err != nil {
		return nil, err
	}
	return calendar.NewEditor(backend, ctx.Cache), nil
}

type ShowCmd struct {
	Month string `arg:"" optional:"" help:"Month to show (YYYY-MM, default current month)."`
}

func (c *ShowCmd) Run(ctx *cli.Context) error {
	year, month, err := ctx.ParseMonth(c.Month)
	if err != nil {
		return err
	}
	ed, err := editor(ctx)
	if err != nil {
		return err
	}
	overrides, err := ed.List(context.Background(), year, month)
	if err != nil {
		return fmt.Errorf("failed to load calendar: %w", err)
	}

	return ctx.Emit(overrides, func(w io.Writer) error {
		title := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
		if ctx.Locale.IsJapanese() {
			title = fmt.Sprintf("%d年%d月", year, int(month))
		}
		fmt.Fprintln(w, cli.TitleStyle.Render(title))
		if len(overrides) == 0 {
			fmt.Fprintln(w, cli.MutedStyle.Render("No overrides; the default working week applies."))
			return nil
		}
		t := cli.NewTable("Date", "Day", "Type", "Note")
		for _, o := range overrides {
			day := ""
			if d, err := time.Parse(constants.DateFormat, o.Date); err == nil {
				day = ctx.Locale.Weekday(d.Weekday())
			}
			kind := cli.SuccessStyle.Render("workday")
			if o.IsHoliday {
				kind = cli.WarningStyle.Render("holiday")
			}
			t.Row(o.Date, day, kind, models.StringValue(o.Note, ""))
		}
		fmt.Fprintln(w, t.Render())
		return nil
	})
}

type SetCmd struct {
	Date    string `arg:"" help:"Day to override (YYYY-MM-DD)."`
	Workday bool   `short:"w" help:"Mark the day as a working day instead of a holiday."`
	Note    string `help:"Note shown next to the day."`
}

func (c *SetCmd) Run(ctx *cli.Context) error {
	ed, err := editor(ctx)
	if err != nil {
		return err
	}
	saved, err := ed.Upsert(context.Background(), c.Date, !c.Workday, c.Note)
	if err != nil {
		return fmt.Errorf("failed to update calendar: %w", err)
	}
	kind := "holiday"
	if !saved.IsHoliday {
		kind = "workday"
	}
	ctx.Notifier().Success(fmt.Sprintf("%s marked as %s", saved.Date, kind))
	return ctx.Emit(saved, func(io.Writer) error { return nil })
}

// BatchCmd writes one override to every day of a range that matches a
// weekday pattern or preset
type BatchCmd struct {
	Preset   string `short:"p" xor:"pattern" help:"Named rule: weekends-holiday or saturdays-workday."`
	Weekdays string `xor:"pattern" help:"Comma-separated weekdays (mon,tue or 0-6, 'weekends', 'weekdays')."`
	Workday  bool   `short:"w" help:"Mark matching days as working days (ignored with --preset)."`
	Note     string `help:"Note for every matching day (ignored with --preset)."`
	Month    string `short:"m" help:"Month to apply to (YYYY-MM, default current month)."`
	From     string `help:"First day of the range (YYYY-MM-DD); overrides --month."`
	To       string `help:"Last day of the range (YYYY-MM-DD)."`
	DryRun   bool   `name:"dry-run" help:"List the matching days without writing them."`
}

func (c *BatchCmd) dateRange(ctx *cli.Context) (time.Time, time.Time, error) {
	if c.From != "" || c.To != "" {
		if c.From == "" || c.To == "" {
			return time.Time{}, time.Time{}, fmt.Errorf("--from and --to must be given together")
		}
		from, err := time.Parse(constants.DateFormat, c.From)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from %q (expected YYYY-MM-DD)", c.From)
		}
		to, err := time.Parse(constants.DateFormat, c.To)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to %q (expected YYYY-MM-DD)", c.To)
		}
		if to.Before(from) {
			return time.Time{}, time.Time{}, fmt.Errorf("--to is before --from")
		}
		return from, to, nil
	}
	year, month, err := ctx.ParseMonth(c.Month)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	from, to := calendar.Month(year, month)
	return from, to, nil
}

func (c *BatchCmd) rule() (calendar.Preset, error) {
	if c.Preset != "" {
		return calendar.LookupPreset(c.Preset)
	}
	if c.Weekdays == "" {
		return calendar.Preset{}, fmt.Errorf("either --preset or --weekdays is required")
	}
	weekdays, err := cli.ParseWeekdays(c.Weekdays)
	if err != nil {
		return calendar.Preset{}, err
	}
	return calendar.Preset{Name: "weekdays", Weekdays: weekdays, IsHoliday: !c.Workday, Note: c.Note}, nil
}

func (c *BatchCmd) Run(ctx *cli.Context) error {
	from, to, err := c.dateRange(ctx)
	if err != nil {
		return err
	}
	rule, err := c.rule()
	if err != nil {
		return err
	}

	if c.DryRun {
		dates := rule.Dates(from, to)
		return ctx.Emit(dates, func(w io.Writer) error {
			if len(dates) == 0 {
				fmt.Fprintln(w, "No matching days.")
				return nil
			}
			for _, d := range dates {
				fmt.Fprintln(w, d)
			}
			fmt.Fprintln(w, cli.MutedStyle.Render(fmt.Sprintf("%d day(s) would be updated", len(dates))))
			return nil
		})
	}

	ed, err := editor(ctx)
	if err != nil {
		return err
	}
	var res models.BatchUpdateResult
	if c.Preset != "" {
		res, err = ed.ApplyPreset(context.Background(), rule, from, to)
	} else {
		res, err = ed.BatchSet(context.Background(), rule.Dates(from, to), rule.IsHoliday, rule.Note)
	}
	if errors.Is(err, calendar.ErrNoMatchingDates) {
		ctx.Notifier().Info("No matching dates.")
		return ctx.Emit(res, func(io.Writer) error { return nil })
	}
	if err != nil {
		return fmt.Errorf("batch update failed: %w", err)
	}
	ctx.Notifier().Success(fmt.Sprintf("Updated %d of %d day(s)", res.UpdatedCount, res.TotalCount))
	return ctx.Emit(res, func(io.Writer) error { return nil })
}

type PresetsCmd struct{}

func (c *PresetsCmd) Run(ctx *cli.Context) error {
	type presetOutput struct {
		Name     string   `json:"name" yaml:"name"`
		Weekdays []string `json:"weekdays" yaml:"weekdays"`
		Holiday  bool     `json:"is_holiday" yaml:"is_holiday"`
		Note     string   `json:"note" yaml:"note"`
	}
	out := make([]presetOutput, 0, len(calendar.Presets))
	for _, p := range calendar.Presets {
		po := presetOutput{Name: p.Name, Holiday: p.IsHoliday, Note: p.Note}
		for _, wd := range p.Weekdays {
			po.Weekdays = append(po.Weekdays, ctx.Locale.Weekday(wd))
		}
		out = append(out, po)
	}
	return ctx.Emit(out, func(w io.Writer) error {
		t := cli.NewTable("Preset", "Days", "Type", "Note")
		for _, p := range out {
			kind := "workday"
			if p.Holiday {
				kind = "holiday"
			}
			t.Row(p.Name, fmt.Sprint(p.Weekdays), kind, p.Note)
		}
		fmt.Fprintln(w, t.Render())
		return nil
	})
}
