package backup

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/shopline/internal/constants"
)

// setupTestDB creates a database carrying the table Verify looks for
func setupTestDB(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "shopline.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	defer db.Close()

	for _, stmt := range []string{
		`CREATE TABLE production_schedules (id INTEGER PRIMARY KEY, start_datetime TEXT, end_datetime TEXT)`,
		`INSERT INTO production_schedules VALUES (1, '2025-01-06T09:00:00Z', '2025-01-06T10:00:00Z')`,
		`INSERT INTO production_schedules VALUES (2, '2025-01-06T10:00:00Z', '2025-01-06T12:00:00Z')`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("failed to prepare test database: %v", err)
		}
	}
	return dbPath
}

func countRows(t *testing.T, path string) int {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to open %s: %v", path, err)
	}
	defer db.Close()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM production_schedules").Scan(&n); err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	return n
}

// tickingClock advances one minute per call
func tickingClock(start time.Time) func() time.Time {
	now := start
	return func() time.Time {
		now = now.Add(time.Minute)
		return now
	}
}

func TestCreateBackup(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)

	backupPath, err := mgr.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if filepath.Dir(backupPath) != filepath.Join(filepath.Dir(dbPath), constants.BackupDirName) {
		t.Errorf("backup written outside %s: %s", mgr.Dir(), backupPath)
	}
	if got := countRows(t, backupPath); got != 2 {
		t.Errorf("backup has %d rows, want 2", got)
	}
	if err := Verify(backupPath); err != nil {
		t.Errorf("Verify(backup) = %v", err)
	}
}

func TestCreateBackupWithoutDatabase(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "missing.db"))
	if _, err := mgr.Create(); err == nil {
		t.Error("expected error when database does not exist")
	}
	if _, err := os.Stat(mgr.Dir()); !os.IsNotExist(err) {
		t.Error("backup directory should not be created for a missing database")
	}
}

func TestBackupRotation(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath).WithClock(tickingClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local)))

	var last string
	for i := 0; i < constants.MaxBackups+3; i++ {
		p, err := mgr.Create()
		if err != nil {
			t.Fatalf("Create #%d failed: %v", i, err)
		}
		last = p
	}

	backups, err := mgr.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(backups) != constants.MaxBackups {
		t.Fatalf("expected %d backups after rotation, got %d", constants.MaxBackups, len(backups))
	}
	if backups[0].Path != last {
		t.Errorf("newest backup = %s, want %s", backups[0].Path, last)
	}
	for i := 1; i < len(backups); i++ {
		if !backups[i-1].Timestamp.After(backups[i].Timestamp) {
			t.Errorf("backups not sorted newest first at %d", i)
		}
	}
}

func TestUniqueBackupFilenamesWithinOneSecond(t *testing.T) {
	dbPath := setupTestDB(t)
	fixed := time.Date(2025, 1, 6, 9, 30, 15, 0, time.Local)
	mgr := NewManager(dbPath).WithClock(func() time.Time { return fixed })

	seen := map[string]bool{}
	var paths []string
	for i := 0; i < 3; i++ {
		p, err := mgr.Create()
		if err != nil {
			t.Fatalf("Create #%d failed: %v", i, err)
		}
		if seen[p] {
			t.Fatalf("duplicate backup path %s", p)
		}
		seen[p] = true
		paths = append(paths, p)
	}

	want := filepath.Join(mgr.Dir(), "shopline-20250106-093015-2.db")
	if paths[2] != want {
		t.Errorf("third backup = %s, want %s", paths[2], want)
	}

	backups, err := mgr.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(backups) != 3 || backups[0].Path != paths[2] || backups[2].Path != paths[0] {
		t.Errorf("same-second backups should list newest first, got %+v", backups)
	}
}

func TestParseName(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
		seq  int
	}{
		{"shopline-20250106-093015.db", true, 0},
		{"shopline-20250106-093015-4.db", true, 4},
		{"shopline-20250106-093015-x.db", false, 0},
		{"shopline-20250106-093015x1.db", false, 0},
		{"shopline-2025.db", false, 0},
		{"other-20250106-093015.db", false, 0},
		{"shopline-20250106-093015.sqlite", false, 0},
	}
	for _, tt := range tests {
		ts, seq, ok := parseName(tt.name)
		if ok != tt.ok || seq != tt.seq {
			t.Errorf("parseName(%q) = (%v, %d, %v), want ok=%v seq=%d", tt.name, ts, seq, ok, tt.ok, tt.seq)
		}
	}
}

func TestListIgnoresForeignFiles(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)

	backups, err := mgr.List()
	if err != nil {
		t.Fatalf("List without directory failed: %v", err)
	}
	if len(backups) != 0 {
		t.Errorf("expected no backups, got %d", len(backups))
	}

	if _, err := mgr.Create(); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	for _, name := range []string{"notes.txt", "shopline-latest.db"} {
		if err := os.WriteFile(filepath.Join(mgr.Dir(), name), []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(mgr.Dir(), "shopline-20250101-000000.db"), 0700); err != nil {
		t.Fatal(err)
	}

	backups, err = mgr.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(backups) != 1 {
		t.Errorf("expected 1 backup, got %d", len(backups))
	}
}

func TestRestoreBackup(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath).WithClock(tickingClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local)))

	backupPath, err := mgr.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("DELETE FROM production_schedules"); err != nil {
		t.Fatal(err)
	}
	db.Close()
	if got := countRows(t, dbPath); got != 0 {
		t.Fatalf("expected rows deleted, got %d", got)
	}

	previous, err := mgr.Restore(backupPath)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if got := countRows(t, dbPath); got != 2 {
		t.Errorf("restored database has %d rows, want 2", got)
	}
	if previous == "" {
		t.Fatal("expected a pre-restore snapshot")
	}
	if got := countRows(t, previous); got != 0 {
		t.Errorf("pre-restore snapshot has %d rows, want 0", got)
	}
	if _, err := os.Stat(dbPath + ".restore.tmp"); !os.IsNotExist(err) {
		t.Error("temporary restore file left behind")
	}
}

func TestRestoreRejectsInvalidBackups(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)
	dir := t.TempDir()

	if _, err := mgr.Restore(filepath.Join(dir, "missing.db")); err == nil {
		t.Error("expected error for missing backup")
	}

	garbage := filepath.Join(dir, "garbage.db")
	if err := os.WriteFile(garbage, []byte("this is not a database"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.Restore(garbage); err == nil {
		t.Error("expected error for corrupted backup")
	}

	foreign := filepath.Join(dir, "foreign.db")
	db, err := sql.Open("sqlite", foreign)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("CREATE TABLE tasks (id TEXT)"); err != nil {
		t.Fatal(err)
	}
	db.Close()
	if err := Verify(foreign); !errors.Is(err, ErrNotShopline) {
		t.Errorf("Verify(foreign) = %v, want ErrNotShopline", err)
	}
	if _, err := mgr.Restore(foreign); err == nil {
		t.Error("expected error restoring a non-shopline database")
	}

	if got := countRows(t, dbPath); got != 2 {
		t.Errorf("failed restores must leave the database alone, got %d rows", got)
	}
}
