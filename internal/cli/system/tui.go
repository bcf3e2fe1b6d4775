package system

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/shopline/internal/board"
	"github.com/julianstephens/shopline/internal/cli"
	"github.com/julianstephens/shopline/internal/tui"
)

type TuiCmd struct {
	Date string `arg:"" optional:"" default:"today" help:"Day to open the board on (YYYY-MM-DD or 'today')."`
}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	start, err := ctx.ParseDate(c.Date)
	if err != nil {
		return err
	}

	// Snapshot before the board opens the database
	ctx.PerformAutomaticBackup()

	backend, err := ctx.Backend()
	if err != nil {
		return err
	}
	model := tui.NewModel(tui.Config{
		Backend:  backend,
		Cache:    ctx.Cache,
		Locale:   ctx.Locale,
		Location: ctx.Loc,
		Board: board.Options{
			Start:       start,
			Granularity: ctx.Config.Granularity(),
			Group:       ctx.Config.Group(),
			Color:       ctx.Config.Color(),
			Now:         ctx.Now,
		},
	})
	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}
