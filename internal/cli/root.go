package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/julianstephens/shopline/internal/api"
	"github.com/julianstephens/shopline/internal/backup"
	"github.com/julianstephens/shopline/internal/cache"
	"github.com/julianstephens/shopline/internal/config"
	"github.com/julianstephens/shopline/internal/keyring"
	"github.com/julianstephens/shopline/internal/locale"
	"github.com/julianstephens/shopline/internal/logger"
	"github.com/julianstephens/shopline/internal/storage"
	"github.com/julianstephens/shopline/internal/utils"
)

// ErrNotLocal is returned by commands that need the embedded database
var ErrNotLocal = errors.New("this command needs a local backend (SQLite file or PostgreSQL), not a service URL")

// Context is shared by every command. The backend is opened on first use
// so commands that never touch it (keyring, init) work without one.
type Context struct {
	Config *config.Config
	Cache  *cache.Cache
	Locale locale.Locale
	Loc    *time.Location
	Output Format
	// ConfigFile is where init writes the default config
	ConfigFile string

	Out io.Writer
	Err io.Writer
	In  io.Reader

	// Now is the clock used for "today"; nil means time.Now
	Now func() time.Time

	backend api.Backend
}

// NewContext prepares a context for cfg
func NewContext(cfg *config.Config, output Format) (*Context, error) {
	loc, err := utils.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	return &Context{
		Config: cfg,
		Cache:  cache.New(),
		Locale: cfg.ResolvedLocale(),
		Loc:    loc,
		Output: output,
		Out:    os.Stdout,
		Err:    os.Stderr,
		In:     os.Stdin,
	}, nil
}

// WithBackend installs an already open backend
func (c *Context) WithBackend(b api.Backend) *Context {
	c.backend = b
	return c
}

func (c *Context) Stdout() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *Context) Stderr() io.Writer {
	if c.Err == nil {
		return os.Stderr
	}
	return c.Err
}

func (c *Context) Stdin() io.Reader {
	if c.In == nil {
		return os.Stdin
	}
	return c.In
}

// Today is the current moment in the configured time zone
func (c *Context) Today() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	loc := c.Loc
	if loc == nil {
		loc = time.Local
	}
	return now().In(loc)
}

// Backend opens the configured backend once
func (c *Context) Backend() (api.Backend, error) {
	if c.backend != nil {
		return c.backend, nil
	}
	if c.Config == nil {
		return nil, errors.New("no configuration loaded")
	}
	b, err := OpenBackend(c.Config, storage.Options{Location: c.Loc, Now: c.Now})
	if err != nil {
		return nil, err
	}
	c.backend = b
	return b, nil
}

// Store returns the backend as a local database
func (c *Context) Store() (*storage.Store, error) {
	b, err := c.Backend()
	if err != nil {
		return nil, err
	}
	s, ok := b.(*storage.Store)
	if !ok {
		return nil, ErrNotLocal
	}
	return s, nil
}

// Close releases the backend, if one was opened
func (c *Context) Close() error {
	if c.backend == nil {
		return nil
	}
	err := c.backend.Close()
	c.backend = nil
	return err
}

// OpenBackend connects to the backend named by cfg
func OpenBackend(cfg *config.Config, opts storage.Options) (api.Backend, error) {
	switch cfg.BackendKind() {
	case config.BackendHTTP:
		logger.Debug("Using schedule service", "url", cfg.Backend)
		return api.NewClient(cfg.Backend, cfg.RequestTimeout), nil
	case config.BackendPostgres:
		if storage.HasEmbeddedCredentials(cfg.Backend) {
			return nil, errors.New("PostgreSQL connection strings with embedded passwords are not allowed; use .pgpass, PGPASSWORD or 'shopline keyring set'")
		}
		return openPostgres(cfg.Backend, opts)
	case config.BackendKeyring:
		connStr, err := keyring.ConnectionString()
		if err != nil {
			if errors.Is(err, keyring.ErrNotFound) {
				return nil, errors.New("no connection string found in keyring; use 'shopline keyring set' to store one")
			}
			return nil, err
		}
		return openPostgres(connStr, opts)
	default:
		s, err := storage.OpenSQLite(cfg.Backend, opts)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

func openPostgres(connStr string, opts storage.Options) (api.Backend, error) {
	s, err := storage.OpenPostgres(connStr, opts)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// BackupManager returns the backup manager of the SQLite backend
func (c *Context) BackupManager() (*backup.Manager, error) {
	if c.Config == nil || c.Config.BackendKind() != config.BackendSQLite {
		return nil, errors.New("backups are only available for the SQLite backend")
	}
	return backup.NewManager(c.Config.Backend), nil
}

// PerformAutomaticBackup creates a backup and only logs failures
func (c *Context) PerformAutomaticBackup() {
	mgr, err := c.BackupManager()
	if err != nil {
		return
	}
	if _, err := os.Stat(c.Config.Backend); err != nil {
		return
	}
	if _, err := mgr.Create(); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// ParseWeekdays parses a comma-separated list of weekday names or numbers
// (0=Sunday). "weekends" and "weekdays" expand to their days.
func ParseWeekdays(s string) ([]time.Weekday, error) {
	var weekdays []time.Weekday
	for _, part := range strings.Split(s, ",") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "weekends":
			weekdays = append(weekdays, time.Saturday, time.Sunday)
		case "weekdays":
			for wd := time.Monday; wd <= time.Friday; wd++ {
				weekdays = append(weekdays, wd)
			}
		default:
			wd, err := locale.ParseWeekday(part)
			if err != nil {
				return nil, err
			}
			weekdays = append(weekdays, wd)
		}
	}
	return weekdays, nil
}

var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ParseDateTime parses a timestamp typed on the command line in loc
func ParseDateTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date and time %q (expected YYYY-MM-DD HH:MM)", s)
}

// ParseDate parses YYYY-MM-DD in loc; "today" and "" mean now
func (c *Context) ParseDate(s string) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return c.Today(), nil
	}
	loc := c.Loc
	if loc == nil {
		loc = time.Local
	}
	t, err := utils.ParseDateInLocation(s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD or 'today')", s)
	}
	return t, nil
}

// ParseMonth parses YYYY-MM; an empty string means the current month
func (c *Context) ParseMonth(s string) (int, time.Month, error) {
	if strings.TrimSpace(s) == "" {
		now := c.Today()
		return now.Year(), now.Month(), nil
	}
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q (expected YYYY-MM)", s)
	}
	return t.Year(), t.Month(), nil
}
