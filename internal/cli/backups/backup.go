package backups

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/julianstephens/shopline/internal/cli"
	"github.com/julianstephens/shopline/internal/constants"
)

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *cli.Context) error {
	mgr, err := ctx.BackupManager()
	if err != nil {
		return err
	}
	// Release the database so the snapshot sees every committed page
	if err := ctx.Close(); err != nil {
		fmt.Fprintf(ctx.Stderr(), "Warning: failed to close database connection: %v\n", err)
	}
	backupPath, err := mgr.Create()
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	ctx.Notifier().Success("Backup created: " + filepath.Base(backupPath))
	return ctx.Emit(map[string]string{"path": backupPath}, func(io.Writer) error { return nil })
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *cli.Context) error {
	mgr, err := ctx.BackupManager()
	if err != nil {
		return err
	}
	backups, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	return ctx.Emit(backups, func(w io.Writer) error {
		if len(backups) == 0 {
			fmt.Fprintln(w, "No backups found.")
			fmt.Fprintf(w, "Backups are stored in: %s\n", mgr.Dir())
			return nil
		}
		fmt.Fprintf(w, "Available backups (%d total, keeping most recent %d):\n", len(backups), constants.MaxBackups)
		t := cli.NewTable("Created", "File", "Size")
		for _, b := range backups {
			t.Row(b.Timestamp.Format("2006-01-02 15:04:05"), filepath.Base(b.Path), fmt.Sprintf("%.1f KB", float64(b.Size)/1024.0))
		}
		fmt.Fprintln(w, t.Render())
		fmt.Fprintf(w, "Backup directory: %s\n", mgr.Dir())
		return nil
	})
}

type BackupRestoreCmd struct {
	BackupFile string `arg:"" help:"Path or filename of the backup to restore."`
	Yes        bool   `short:"y" help:"Restore without asking."`
}

// resolve finds the backup as given, relative to the working directory, or
// inside the backup directory
func resolve(name, backupDir string) (string, error) {
	if filepath.IsAbs(name) {
		if _, err := os.Stat(name); os.IsNotExist(err) {
			return "", fmt.Errorf("backup file not found: %s", name)
		}
		return name, nil
	}
	if _, err := os.Stat(name); err == nil {
		abs, err := filepath.Abs(name)
		if err != nil {
			return "", fmt.Errorf("failed to resolve backup path: %w", err)
		}
		return abs, nil
	}
	candidate := filepath.Join(backupDir, name)
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}
	return "", fmt.Errorf("backup file not found: tried current directory and %s", backupDir)
}

func (c *BackupRestoreCmd) Run(ctx *cli.Context) error {
	mgr, err := ctx.BackupManager()
	if err != nil {
		return err
	}
	backupPath, err := resolve(c.BackupFile, mgr.Dir())
	if err != nil {
		return err
	}

	out := ctx.Stderr()
	if !c.Yes {
		fmt.Fprintln(out, cli.WarningStyle.Render("⚠️  WARNING: This will replace your current database with the backup."))
		fmt.Fprintln(out, cli.WarningStyle.Render("⚠️  IMPORTANT: All shopline processes (including the TUI) must be stopped before restore."))
		fmt.Fprintln(out, "A backup of your current database will be created before restoring.")
		fmt.Fprintf(out, "\nRestore from: %s\n", backupPath)
		fmt.Fprint(out, "Continue? [y/N]: ")

		response, err := bufio.NewReader(ctx.Stdin()).ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Fprintln(out, "Restore cancelled.")
			return nil
		}
	}

	if err := ctx.Close(); err != nil {
		fmt.Fprintf(out, "Warning: failed to close database connection: %v\n", err)
	}

	previous, err := mgr.Restore(backupPath)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	ctx.Notifier().Success("Database restored successfully!")
	if previous != "" {
		fmt.Fprintf(out, "The previous database was saved as %s\n", filepath.Base(previous))
	}
	return nil
}
