package system

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/julianstephens/shopline/internal/cli"
	"github.com/julianstephens/shopline/internal/config"
	"github.com/julianstephens/shopline/internal/keyring"
)

// errSkipped marks a check that does not apply to the configured backend
var errSkipped = errors.New("skipped")

type check struct {
	name string
	run  func(*cli.Context) error
	// needsBackend checks are skipped when the backend is unreachable
	needsBackend bool
	// warnOnly failures do not fail the run
	warnOnly bool
}

var checks = []check{
	{name: "Configuration", run: checkConfig},
	{name: "Keyring", run: checkKeyring},
	{name: "Backend reachable", run: checkBackend},
	{name: "Schema version", run: checkSchemaVersion, needsBackend: true},
	{name: "Backups present", run: checkBackupsPresent, warnOnly: true},
	{name: "Schedule integrity", run: checkIntegrity, needsBackend: true},
	{name: "Clock/timezone", run: checkClockTimezone},
}

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	out := ctx.Stdout()
	fmt.Fprintln(out, "Running diagnostics...")
	fmt.Fprintln(out)

	hasError := false
	reachable := true
	for _, c := range checks {
		if c.needsBackend && !reachable {
			fmt.Fprintf(out, "⊘ %s: SKIPPED (backend not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			fmt.Fprintf(out, "✓ %s: OK\n", c.name)
		case errors.Is(err, errSkipped):
			fmt.Fprintf(out, "⊘ %s: SKIPPED (%v)\n", c.name, err)
		case c.warnOnly:
			fmt.Fprintf(out, "⚠ %s: WARNING\n", c.name)
			fmt.Fprintf(out, "   %v\n", err)
		default:
			fmt.Fprintf(out, "❌ %s: FAIL\n", c.name)
			fmt.Fprintf(out, "   Error: %v\n", err)
			hasError = true
			if c.name == "Backend reachable" {
				reachable = false
			}
		}
	}

	fmt.Fprintln(out)
	if hasError {
		fmt.Fprintln(out, "Diagnostics completed with errors.")
		return errors.New("one or more health checks failed")
	}
	fmt.Fprintln(out, "All diagnostics passed!")
	return nil
}

func checkConfig(ctx *cli.Context) error {
	if ctx.Config == nil {
		return errors.New("no configuration loaded")
	}
	return ctx.Config.Validate()
}

func checkKeyring(ctx *cli.Context) error {
	if ctx.Config == nil || ctx.Config.BackendKind() != config.BackendKeyring {
		return fmt.Errorf("%w: backend does not use the keyring", errSkipped)
	}
	if !keyring.Available() {
		return keyring.ErrUnavailable
	}
	_, err := keyring.ConnectionString()
	return err
}

func checkBackend(ctx *cli.Context) error {
	b, err := ctx.Backend()
	if err != nil {
		return err
	}
	_, err = b.ListEquipmentGroups(context.Background())
	return err
}

func checkSchemaVersion(ctx *cli.Context) error {
	s, err := ctx.Store()
	if errors.Is(err, cli.ErrNotLocal) {
		return fmt.Errorf("%w: schedule service manages its own schema", errSkipped)
	}
	if err != nil {
		return err
	}
	current, latest, err := s.SchemaVersion()
	if err != nil {
		return err
	}
	if current != latest {
		return fmt.Errorf("schema version %d, expected %d", current, latest)
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	mgr, err := ctx.BackupManager()
	if err != nil {
		return fmt.Errorf("%w: %v", errSkipped, err)
	}
	backups, err := mgr.List()
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found in %s (run 'shopline backup create')", mgr.Dir())
	}
	if age := time.Since(backups[0].Timestamp); age > 7*24*time.Hour {
		return fmt.Errorf("latest backup is %d days old", int(age.Hours()/24))
	}
	return nil
}

func checkIntegrity(ctx *cli.Context) error {
	s, err := ctx.Store()
	if errors.Is(err, cli.ErrNotLocal) {
		return fmt.Errorf("%w: schedule service owns its data", errSkipped)
	}
	if err != nil {
		return err
	}
	report, err := s.Integrity(context.Background())
	if err != nil {
		return err
	}
	if !report.OK() {
		return fmt.Errorf("%d conflict(s), %d invalid span(s), %d unscheduled order(s); run 'shopline schedule check'",
			len(report.Conflicts), report.InvalidSpans, len(report.Unscheduled))
	}
	return nil
}

func checkClockTimezone(ctx *cli.Context) error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	if ctx.Loc == nil {
		return errors.New("time zone not loaded")
	}
	if tz := os.Getenv("TZ"); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("TZ=%q is not a valid time zone", tz)
		}
	}
	return nil
}
