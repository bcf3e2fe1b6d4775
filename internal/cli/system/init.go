package system

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/julianstephens/shopline/internal/cli"
	"github.com/julianstephens/shopline/internal/config"
	"github.com/julianstephens/shopline/internal/constants"
	"github.com/julianstephens/shopline/internal/storage"
)

type InitCmd struct {
	Force bool `help:"Delete an existing local database and start over."`
	Seed  bool `help:"Load the sample factory after creating the database."`
}

func removeDatabase(path string) error {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
	}
	return nil
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if ctx.ConfigFile != "" {
		created, err := config.WriteDefault(ctx.ConfigFile)
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintf(ctx.Stdout(), "✓ Wrote default config to %s\n", config.ExpandHome(ctx.ConfigFile))
		}
	}

	kind := ctx.Config.BackendKind()
	if kind == config.BackendHTTP {
		fmt.Fprintf(ctx.Stdout(), "Backend is the schedule service at %s; nothing to initialize locally.\n", ctx.Config.Backend)
		return nil
	}
	if c.Force {
		if kind != config.BackendSQLite {
			return errors.New("--force only resets a SQLite database")
		}
		if err := ctx.Close(); err != nil {
			return err
		}
		if err := removeDatabase(ctx.Config.Backend); err != nil {
			return err
		}
	}

	s, err := ctx.Store()
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	current, _, err := s.SchemaVersion()
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Stdout(), "✓ Database ready (%s, schema version %d)\n", s.Driver(), current)

	if c.Seed {
		seed, err := storage.SampleSeed()
		if err != nil {
			return err
		}
		res, err := s.Import(context.Background(), seed)
		if err != nil {
			return fmt.Errorf("failed to load sample data: %w", err)
		}
		fmt.Fprintf(ctx.Stdout(), "✓ Loaded sample factory: %d products, %d orders confirmed\n", res.Products, res.OrdersConfirmed)
	}
	return nil
}

// SeedCmd imports master data into the local database
type SeedCmd struct {
	File string `arg:"" optional:"" type:"existingfile" help:"YAML seed file (default: the bundled sample factory)."`
}

func (c *SeedCmd) Run(ctx *cli.Context) error {
	var seed *storage.Seed
	if c.File == "" {
		sample, err := storage.SampleSeed()
		if err != nil {
			return err
		}
		seed = sample
	} else {
		f, err := os.Open(c.File)
		if err != nil {
			return err
		}
		defer f.Close()
		if seed, err = storage.ParseSeed(f); err != nil {
			return err
		}
	}

	s, err := ctx.Store()
	if err != nil {
		return err
	}
	res, err := s.Import(context.Background(), seed)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	for _, op := range []string{constants.QuerySchedules, constants.QueryEquipmentGroups, constants.QueryOrders, constants.QueryCalendars} {
		ctx.Cache.Invalidate(op)
	}
	return ctx.Emit(res, func(w io.Writer) error {
		t := cli.NewTable("Imported", "Count")
		for _, row := range []struct {
			name string
			n    int
		}{
			{"Equipment groups", res.EquipmentGroups},
			{"Equipment", res.Equipment},
			{"Customers", res.Customers},
			{"Products", res.Products},
			{"Routings", res.Routings},
			{"Calendar days", res.CalendarDays},
			{"Orders created", res.OrdersCreated},
			{"Orders confirmed", res.OrdersConfirmed},
		} {
			t.Row(row.name, strconv.Itoa(row.n))
		}
		fmt.Fprintln(w, t.Render())
		return nil
	})
}
