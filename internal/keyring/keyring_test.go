package keyring

import (
	"errors"
	"testing"

	gokeyring "github.com/zalando/go-keyring"
)

func TestStoreAndLookup(t *testing.T) {
	gokeyring.MockInit()

	if err := Store("api", "s3cret"); err != nil {
		t.Fatalf("Store() failed: %v", err)
	}
	got, err := Lookup("api")
	if err != nil {
		t.Fatalf("Lookup() failed: %v", err)
	}
	if got != "s3cret" {
		t.Errorf("Lookup() = %q, want %q", got, "s3cret")
	}
}

func TestStoreEmpty(t *testing.T) {
	gokeyring.MockInit()

	if err := Store("api", ""); err == nil {
		t.Error("Store() with empty secret should fail")
	}
}

func TestLookupNotFound(t *testing.T) {
	gokeyring.MockInit()

	if _, err := Lookup("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup() error = %v, want %v", err, ErrNotFound)
	}
	if err := Remove("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Remove() error = %v, want %v", err, ErrNotFound)
	}
}

func TestConnectionStringRoundTrip(t *testing.T) {
	gokeyring.MockInit()

	connStr := "postgres://planner@localhost:5432/shopline?sslmode=disable"
	if err := SetConnectionString(connStr); err != nil {
		t.Fatalf("SetConnectionString() failed: %v", err)
	}
	got, err := ConnectionString()
	if err != nil {
		t.Fatalf("ConnectionString() failed: %v", err)
	}
	if got != connStr {
		t.Errorf("ConnectionString() = %q, want %q", got, connStr)
	}

	if err := Remove("database-connection"); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}
	if _, err := ConnectionString(); !errors.Is(err, ErrNotFound) {
		t.Errorf("after Remove(), ConnectionString() error = %v", err)
	}
}

func TestAvailableWithMock(t *testing.T) {
	gokeyring.MockInit()

	if !Available() {
		t.Error("Available() = false with mock keyring")
	}
}
