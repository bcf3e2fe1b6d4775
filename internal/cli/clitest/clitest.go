// Package clitest builds command contexts over a seeded SQLite database.
package clitest

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/shopline/internal/cli"
	"github.com/julianstephens/shopline/internal/config"
	"github.com/julianstephens/shopline/internal/models"
	"github.com/julianstephens/shopline/internal/storage"
)

// SeedYAML is a two-machine factory. Product P1 turns on L-1 for
// 1800s + 600s per unit, then paints on P-1 for 300s per unit.
const SeedYAML = `
equipment_groups:
  - name: Lathe
    equipment: [L-1]
  - name: Paint
    description: Spray booths
    equipment: [P-1]
customers:
  - name: Acme
products:
  - code: P1
    name: Bracket
    routings:
      - {process: Turning, equipment_group: Lathe, setup_seconds: 1800, unit_seconds: 600}
      - {process: Painting, equipment_group: Paint, unit_seconds: 300}
`

// Now is Monday 2025-01-06 08:00 UTC
var Now = time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)

// Env is a context whose output is captured
type Env struct {
	Ctx   *cli.Context
	Store *storage.Store
	Out   *bytes.Buffer
	Err   *bytes.Buffer
}

// New opens a seeded database in a temp dir and wires a context to it
func New(t testing.TB, output cli.Format) *Env {
	t.Helper()
	cfg := &config.Config{
		Backend:     filepath.Join(t.TempDir(), "shopline.db"),
		Timezone:    "UTC",
		Locale:      "en",
		DefaultView: "Day",
		GroupBy:     "none",
		ColorMode:   "product",
	}
	ctx, err := cli.NewContext(cfg, output)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	ctx.Now = func() time.Time { return Now }

	s, err := storage.OpenSQLite(cfg.Backend, storage.Options{Location: time.UTC, Now: ctx.Now})
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	seed, err := storage.ParseSeed(strings.NewReader(SeedYAML))
	if err != nil {
		t.Fatalf("ParseSeed: %v", err)
	}
	if _, err := s.Import(context.Background(), seed); err != nil {
		t.Fatalf("Import: %v", err)
	}

	env := &Env{Ctx: ctx.WithBackend(s), Store: s, Out: &bytes.Buffer{}, Err: &bytes.Buffer{}}
	ctx.Out, ctx.Err = env.Out, env.Err
	ctx.In = strings.NewReader("")
	t.Cleanup(func() { ctx.Close() })
	return env
}

// ProductID looks up a seeded product by code
func (e *Env) ProductID(t testing.TB, code string) int64 {
	t.Helper()
	var id int64
	if err := e.Store.DB().QueryRow("SELECT id FROM products WHERE code = ?", code).Scan(&id); err != nil {
		t.Fatalf("product %s: %v", code, err)
	}
	return id
}

// ConfirmedOrder registers and confirms an order of quantity units of P1
func (e *Env) ConfirmedOrder(t testing.TB, orderNo string, quantity int) *models.Order {
	t.Helper()
	ctx := context.Background()
	o, err := e.Store.CreateOrder(ctx, models.OrderCreate{OrderNo: orderNo, ProductID: e.ProductID(t, "P1"), Quantity: quantity})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if err := e.Store.ConfirmOrder(ctx, o.ID); err != nil {
		t.Fatalf("ConfirmOrder: %v", err)
	}
	return o
}

// Schedules lists the records of the seeded week
func (e *Env) Schedules(t testing.TB) []models.ScheduleRecord {
	t.Helper()
	records, err := e.Store.ListSchedules(context.Background(), models.ScheduleQuery{StartDate: "2025-01-05", EndDate: "2025-01-11"})
	if err != nil {
		t.Fatalf("ListSchedules: %v", err)
	}
	return records
}
