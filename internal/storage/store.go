// Package storage implements the schedule service contract against a local
// SQLite file or PostgreSQL database, so shopline can run without the
// remote planner.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	pq "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/julianstephens/shopline/internal/api"
	"github.com/julianstephens/shopline/internal/constants"
	apperrors "github.com/julianstephens/shopline/internal/errors"
	"github.com/julianstephens/shopline/internal/logger"
	"github.com/julianstephens/shopline/internal/migration"
	"github.com/julianstephens/shopline/migrations"
)

// timestampLayout is how datetimes are stored: UTC, second precision, so
// text comparison orders them chronologically.
const timestampLayout = "2006-01-02T15:04:05Z"

var (
	ErrNotFound                = errors.New("not found")
	ErrInvalidConnectionString = errors.New("invalid PostgreSQL connection string")
	ErrEmbeddedCredentials     = errors.New("connection string must not contain a password")
)

var _ api.Backend = (*Store)(nil)

// Options tune a Store. The zero value plans in local time against the wall clock.
type Options struct {
	// Location is the factory time zone for working hours and calendar dates
	Location *time.Location
	// Now is the planning clock
	Now func() time.Time
	// Log receives migration progress
	Log func(string)
}

type Store struct {
	db     *sql.DB
	driver migration.Driver
	path   string
	loc    *time.Location
	now    func() time.Time
}

// OpenSQLite opens or creates the database file at path and migrates it
func OpenSQLite(path string, opts Options) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: SQLite has a single writer and queries never nest.
	db.SetMaxOpenConns(1)

	s := newStore(db, migration.DriverSQLite, opts)
	s.path = path
	if err := s.migrate(opts.Log); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenPostgres connects with connStr, which must not embed a password,
// and migrates the shopline schema.
func OpenPostgres(connStr string, opts Options) (*Store, error) {
	if _, err := ValidateConnString(connStr); err != nil {
		return nil, err
	}
	connStr = withSearchPath(connStr)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		if strings.Contains(err.Error(), "SSL is not enabled on the server") && !hasSSLMode(connStr) {
			return nil, fmt.Errorf("failed to connect to database: %w (hint: try adding ?sslmode=disable to your connection string)", err)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec("CREATE SCHEMA IF NOT EXISTS " + constants.AppName); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	s := newStore(db, migration.DriverPostgres, opts)
	if err := s.migrate(opts.Log); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func newStore(db *sql.DB, driver migration.Driver, opts Options) *Store {
	s := &Store{db: db, driver: driver, loc: opts.Location, now: opts.Now}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *Store) runner() (*migration.Runner, error) {
	subFS, err := fs.Sub(migrations.FS, string(s.driver))
	if err != nil {
		return nil, fmt.Errorf("failed to access %s migrations: %w", s.driver, err)
	}
	return migration.NewRunner(s.db, subFS, s.driver)
}

func (s *Store) migrate(logFn func(string)) error {
	runner, err := s.runner()
	if err != nil {
		return err
	}
	if logFn == nil {
		logFn = func(msg string) { logger.Debug(msg, "driver", s.driver) }
	}
	if _, err := runner.ApplyMigrations(logFn); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// SchemaVersion reports the applied and the latest embedded migration
func (s *Store) SchemaVersion() (current, latest int, err error) {
	runner, err := s.runner()
	if err != nil {
		return 0, 0, err
	}
	if current, err = runner.GetCurrentVersion(); err != nil {
		return 0, 0, err
	}
	if latest, err = runner.GetLatestVersion(); err != nil {
		return 0, 0, err
	}
	return current, latest, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB exposes the connection for backups and diagnostics
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Driver() migration.Driver { return s.driver }

// Path is the SQLite file, empty for PostgreSQL
func (s *Store) Path() string { return s.path }

// Location is the factory time zone
func (s *Store) Location() *time.Location { return s.loc }

func (s *Store) rebind(query string) string { return s.driver.Rebind(query) }

// queryer is satisfied by *sql.DB and *sql.Tx
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// inTx runs fn in a transaction, rolling back on error
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// remote tags a failure the way the HTTP client does, so callers handle
// both backends alike.
func remote(op string, err error) error {
	if err == nil {
		return nil
	}
	logger.Warn("local backend operation failed", "op", op, "error", err)
	return apperrors.Remote(op, err)
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, apperrors.Malformed("stored timestamp", err)
	}
	return t, nil
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

// ValidateConnString checks that connStr is a PostgreSQL URI or DSN without
// an embedded password.
func ValidateConnString(connStr string) (bool, error) {
	if strings.TrimSpace(connStr) == "" {
		return false, fmt.Errorf("%w: connection string cannot be empty", ErrInvalidConnectionString)
	}

	if _, err := pq.NewConnector(connStr); err != nil {
		return false, fmt.Errorf("%w: invalid connection string format: %v", ErrInvalidConnectionString, err)
	}

	if isURL(connStr) {
		u, err := url.Parse(connStr)
		if err != nil {
			return false, fmt.Errorf("%w: failed to parse connection URL: %v", ErrInvalidConnectionString, err)
		}
		if _, isSet := u.User.Password(); isSet {
			return false, ErrEmbeddedCredentials
		}
		if u.Host == "" && u.User == nil && (u.Path == "" || u.Path == "/") {
			return false, fmt.Errorf("%w: connection URL is incomplete", ErrInvalidConnectionString)
		}
		return true, nil
	}

	for _, pair := range strings.Fields(connStr) {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) == 2 && strings.EqualFold(strings.TrimSpace(parts[0]), "password") {
			return false, ErrEmbeddedCredentials
		}
	}
	return true, nil
}

// HasEmbeddedCredentials reports whether connStr carries a password
func HasEmbeddedCredentials(connStr string) bool {
	_, err := ValidateConnString(connStr)
	return errors.Is(err, ErrEmbeddedCredentials)
}

func isURL(connStr string) bool {
	return strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://")
}

// withSearchPath points the connection at the shopline schema unless the
// caller chose one.
func withSearchPath(connStr string) string {
	if isURL(connStr) {
		u, err := url.Parse(connStr)
		if err != nil {
			return connStr
		}
		q := u.Query()
		if q.Get("search_path") == "" {
			q.Set("search_path", constants.AppName)
			u.RawQuery = q.Encode()
		}
		return u.String()
	}
	if dsnHasKey(connStr, "search_path") {
		return connStr
	}
	return strings.TrimSpace(connStr) + " search_path=" + constants.AppName
}

func hasSSLMode(connStr string) bool {
	if u, err := url.Parse(connStr); err == nil && u.Scheme != "" {
		for key := range u.Query() {
			if strings.EqualFold(key, "sslmode") {
				return true
			}
		}
	}
	return dsnHasKey(connStr, "sslmode")
}

func dsnHasKey(connStr, key string) bool {
	for _, part := range strings.Fields(connStr) {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) == 2 && strings.EqualFold(kv[0], key) {
			return true
		}
	}
	return false
}
