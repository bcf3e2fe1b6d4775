package migration

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func setupTestMigrations(t *testing.T, migrations map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for filename, content := range migrations {
		if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
			t.Fatalf("failed to write test migration %s: %v", filename, err)
		}
	}
	return dir
}

func newRunner(t *testing.T, db *sql.DB, dir string) *Runner {
	t.Helper()
	runner, err := NewRunner(db, os.DirFS(dir), DriverSQLite)
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	return runner
}

func TestNewRunnerRejectsUnknownDriver(t *testing.T) {
	db := setupTestDB(t)
	if _, err := NewRunner(db, fstest.MapFS{}, Driver("mysql")); err == nil {
		t.Error("expected error for unsupported driver")
	}
	if _, err := NewRunner(nil, fstest.MapFS{}, DriverSQLite); err == nil {
		t.Error("expected error for nil database")
	}
}

func TestRebind(t *testing.T) {
	tests := []struct {
		driver Driver
		query  string
		want   string
	}{
		{DriverSQLite, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = ? AND b = ?"},
		{DriverPostgres, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = $1 AND b = $2"},
		{DriverPostgres, "SELECT '?' FROM t WHERE a = ?", "SELECT '?' FROM t WHERE a = $1"},
		{DriverPostgres, "SELECT 1", "SELECT 1"},
	}
	for _, tt := range tests {
		if got := tt.driver.Rebind(tt.query); got != tt.want {
			t.Errorf("%s Rebind(%q) = %q, want %q", tt.driver, tt.query, got, tt.want)
		}
	}
}

func TestGetCurrentVersion(t *testing.T) {
	db := setupTestDB(t)
	runner := newRunner(t, db, setupTestMigrations(t, map[string]string{
		"001_test.sql": "CREATE TABLE test (id INTEGER);",
	}))

	version, err := runner.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion failed: %v", err)
	}
	if version != 0 {
		t.Errorf("expected version 0, got %d", version)
	}

	if err := runner.SetVersion(5); err != nil {
		t.Fatalf("SetVersion failed: %v", err)
	}

	version, err = runner.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion failed: %v", err)
	}
	if version != 5 {
		t.Errorf("expected version 5, got %d", version)
	}
}

func TestReadMigrationFiles(t *testing.T) {
	runner := newRunner(t, setupTestDB(t), setupTestMigrations(t, map[string]string{
		"003_another.sql": "CREATE TABLE test2 (id INTEGER);",
		"001_init.sql":    "CREATE TABLE test1 (id INTEGER);",
		"002_update.sql":  "ALTER TABLE test1 ADD COLUMN name TEXT;",
		"README.md":       "ignored",
	}))

	migrations, err := runner.ReadMigrationFiles()
	if err != nil {
		t.Fatalf("ReadMigrationFiles failed: %v", err)
	}
	if len(migrations) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migrations))
	}

	want := []struct {
		version int
		name    string
	}{{1, "init"}, {2, "update"}, {3, "another"}}
	for i, w := range want {
		if migrations[i].Version != w.version || migrations[i].Name != w.name {
			t.Errorf("migration %d: expected %d %q, got %d %q", i, w.version, w.name, migrations[i].Version, migrations[i].Name)
		}
	}
}

func TestReadMigrationFilesInvalid(t *testing.T) {
	tests := map[string]fstest.MapFS{
		"no underscore": {"001.sql": {Data: []byte("SELECT 1;")}},
		"not a number":  {"abc_init.sql": {Data: []byte("SELECT 1;")}},
		"zero version":  {"000_init.sql": {Data: []byte("SELECT 1;")}},
		"duplicate": {
			"001_init.sql":  {Data: []byte("SELECT 1;")},
			"0001_copy.sql": {Data: []byte("SELECT 1;")},
		},
	}
	for name, fsys := range tests {
		t.Run(name, func(t *testing.T) {
			runner, err := NewRunner(setupTestDB(t), fsys, DriverSQLite)
			if err != nil {
				t.Fatalf("NewRunner failed: %v", err)
			}
			if _, err := runner.ReadMigrationFiles(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestApplyMigrationsFromScratch(t *testing.T) {
	db := setupTestDB(t)
	runner := newRunner(t, db, setupTestMigrations(t, map[string]string{
		"001_init.sql":  `CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT);`,
		"002_posts.sql": `CREATE TABLE posts (id INTEGER PRIMARY KEY, user_id INTEGER, content TEXT);`,
	}))

	var logs []string
	count, err := runner.ApplyMigrations(func(msg string) { logs = append(logs, msg) })
	if err != nil {
		t.Fatalf("ApplyMigrations failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 migrations applied, got %d", count)
	}
	if len(logs) == 0 {
		t.Error("expected progress messages")
	}

	version, err := runner.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion failed: %v", err)
	}
	if version != 2 {
		t.Errorf("expected version 2, got %d", version)
	}

	for _, table := range []string{"users", "posts"} {
		var n int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&n)
		if err != nil || n != 1 {
			t.Errorf("%s table was not created", table)
		}
	}
}

func TestApplyMigrationsIncremental(t *testing.T) {
	db := setupTestDB(t)
	dir := setupTestMigrations(t, map[string]string{
		"001_init.sql": `CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT);`,
	})
	runner := newRunner(t, db, dir)

	count, err := runner.ApplyMigrations(nil)
	if err != nil {
		t.Fatalf("ApplyMigrations (1st) failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 migration applied, got %d", count)
	}

	if err := os.WriteFile(filepath.Join(dir, "002_posts.sql"), []byte(`CREATE TABLE posts (id INTEGER PRIMARY KEY);`), 0644); err != nil {
		t.Fatalf("failed to write new migration: %v", err)
	}

	count, err = runner.ApplyMigrations(nil)
	if err != nil {
		t.Fatalf("ApplyMigrations (2nd) failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 more migration applied, got %d", count)
	}

	count, err = runner.ApplyMigrations(nil)
	if err != nil {
		t.Fatalf("ApplyMigrations (3rd) failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no-op, got %d applied", count)
	}
}

func TestApplyMigrationsRollsBackFailure(t *testing.T) {
	db := setupTestDB(t)
	runner := newRunner(t, db, setupTestMigrations(t, map[string]string{
		"001_init.sql":   `CREATE TABLE users (id INTEGER PRIMARY KEY);`,
		"002_broken.sql": `CREATE TABLE posts (id INTEGER PRIMARY KEY); CREATE TABLEE nope;`,
	}))

	count, err := runner.ApplyMigrations(nil)
	if err == nil {
		t.Fatal("expected error from broken migration")
	}
	if !strings.Contains(err.Error(), "broken") {
		t.Errorf("error should name the migration: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 migration applied before failure, got %d", count)
	}

	version, err := runner.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion failed: %v", err)
	}
	if version != 1 {
		t.Errorf("expected version 1 after rollback, got %d", version)
	}
}

func TestNewerDatabaseIsRejected(t *testing.T) {
	db := setupTestDB(t)
	runner := newRunner(t, db, setupTestMigrations(t, map[string]string{
		"001_init.sql": `CREATE TABLE users (id INTEGER PRIMARY KEY);`,
	}))

	if err := runner.SetVersion(9); err != nil {
		t.Fatalf("SetVersion failed: %v", err)
	}
	if _, err := runner.ApplyMigrations(nil); err == nil || !strings.Contains(err.Error(), "newer") {
		t.Errorf("ApplyMigrations error = %v, want newer-schema error", err)
	}
	if err := runner.ValidateVersion(); err == nil {
		t.Error("ValidateVersion should fail for a newer database")
	}
}
