package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/shopline/internal/cli"
	"github.com/julianstephens/shopline/internal/cli/backups"
	"github.com/julianstephens/shopline/internal/cli/calendars"
	"github.com/julianstephens/shopline/internal/cli/orders"
	"github.com/julianstephens/shopline/internal/cli/schedules"
	"github.com/julianstephens/shopline/internal/cli/system"
	"github.com/julianstephens/shopline/internal/config"
	"github.com/julianstephens/shopline/internal/constants"
	apperrors "github.com/julianstephens/shopline/internal/errors"
	"github.com/julianstephens/shopline/internal/logger"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path (default: ~/.config/shopline/config.yaml)." type:"path"`
	Backend string `help:"Override the configured backend: service URL, SQLite path, PostgreSQL connection string without password, or 'keyring'."`
	Output  string `short:"o" help:"Output format." enum:"table,json,yaml" default:"table"`
	Debug   bool   `help:"Log debug output to the log file."`

	Tui      system.TuiCmd `cmd:"" help:"Open the interactive schedule board." default:"1"`
	Schedule struct {
		Show   schedules.ShowCmd   `cmd:"" help:"Show the production schedule of a day, week or month." default:"1"`
		Move   schedules.MoveCmd   `cmd:"" help:"Move or resize one schedule record."`
		Groups schedules.GroupsCmd `cmd:"" help:"List equipment groups."`
		Check  schedules.CheckCmd  `cmd:"" help:"Check the local schedule for overlaps and gaps."`
	} `cmd:"" help:"View and edit production schedules."`
	Order struct {
		Simulate orders.SimulateCmd `cmd:"" help:"Preview the schedule of an order without registering it."`
		New      orders.NewCmd      `cmd:"" help:"Register an order and generate its schedule."`
		Confirm  orders.ConfirmCmd  `cmd:"" help:"Generate the schedule of a registered order."`
		List     orders.ListCmd     `cmd:"" help:"List orders." default:"1"`
	} `cmd:"" help:"Simulate and register orders."`
	Calendar struct {
		Show    calendars.ShowCmd    `cmd:"" help:"Show the overrides of a month." default:"1"`
		Set     calendars.SetCmd     `cmd:"" help:"Mark one date as workday or holiday."`
		Batch   calendars.BatchCmd   `cmd:"" help:"Mark many dates at once."`
		Presets calendars.PresetsCmd `cmd:"" help:"List batch presets."`
	} `cmd:"" help:"Manage the working calendar."`
	Backup struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage local database backups."`
	Local struct {
		Init system.InitCmd `cmd:"" help:"Create the config file and local database."`
		Seed system.SeedCmd `cmd:"" help:"Import master data from a YAML file."`
	} `cmd:"" help:"Manage the local backend."`
	Doctor  system.DoctorCmd `cmd:"" help:"Run health checks and diagnostics."`
	Keyring struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store the PostgreSQL connection string in the OS keyring."`
		Get    system.KeyringGetCmd    `cmd:"" help:"Show the stored connection string (password masked)."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Remove the stored connection string."`
		Status system.KeyringStatusCmd `cmd:"" help:"Check OS keyring availability."`
	} `cmd:"" help:"Manage credentials in the OS keyring."`
	DebugTools system.DebugCmd `cmd:"" name:"debug" help:"Debug commands for troubleshooting."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Production schedule board and order planner"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		apperrors.Fatal(err)
	}
	if CLI.Backend != "" {
		cfg.Backend = config.ExpandHome(CLI.Backend)
	}

	if err := logger.Init(logger.Config{Debug: CLI.Debug || cfg.Debug, Dir: config.Dir()}); err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  Warning: logging disabled: %v\n", err)
	}

	ctx, err := cli.NewContext(cfg, cli.Format(CLI.Output))
	if err != nil {
		apperrors.Fatal(err)
	}
	ctx.ConfigFile = CLI.Config
	if ctx.ConfigFile == "" {
		ctx.ConfigFile = filepath.Join(config.Dir(), constants.DefaultConfigFile)
	}

	err = kctx.Run(ctx)
	if cerr := ctx.Close(); err == nil && cerr != nil {
		err = cerr
	}
	apperrors.Fatal(err)
}
