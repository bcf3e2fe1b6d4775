package system

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/shopline/internal/cli"
	"github.com/julianstephens/shopline/internal/cli/clitest"
	"github.com/julianstephens/shopline/internal/config"
	"github.com/julianstephens/shopline/internal/storage"
)

func TestInitCmd(t *testing.T) {
	env := clitest.New(t, cli.FormatTable)
	env.Ctx.ConfigFile = filepath.Join(t.TempDir(), "config.yaml")

	require.NoError(t, (&InitCmd{}).Run(env.Ctx))
	out := env.Out.String()
	assert.Contains(t, out, "Wrote default config")
	assert.Contains(t, out, "schema version")
	_, err := os.Stat(env.Ctx.ConfigFile)
	require.NoError(t, err)

	// a second run keeps the existing config
	env.Out.Reset()
	require.NoError(t, (&InitCmd{}).Run(env.Ctx))
	assert.NotContains(t, env.Out.String(), "Wrote default config")
}

func TestInitCmdForceSeed(t *testing.T) {
	env := clitest.New(t, cli.FormatTable)
	env.ConfirmedOrder(t, "ORD-1", 10)

	require.NoError(t, (&InitCmd{Force: true, Seed: true}).Run(env.Ctx))
	assert.Contains(t, env.Out.String(), "Loaded sample factory")

	s, err := env.Ctx.Store()
	require.NoError(t, err)
	orders, err := s.ListOrders(t.Context())
	require.NoError(t, err)
	for _, o := range orders {
		assert.NotEqual(t, "ORD-1", o.OrderNo, "--force starts from an empty database")
	}
}

func TestInitCmdServiceBackend(t *testing.T) {
	env := clitest.New(t, cli.FormatTable)
	env.Ctx.Config.Backend = "https://factory.example.com"

	require.NoError(t, (&InitCmd{}).Run(env.Ctx))
	assert.Contains(t, env.Out.String(), "nothing to initialize")
	assert.Error(t, (&InitCmd{Force: true}).Run(env.Ctx))
}

func TestSeedCmdFile(t *testing.T) {
	env := clitest.New(t, cli.FormatJSON)
	path := filepath.Join(t.TempDir(), "seed.yaml")
	extra := clitest.SeedYAML + `
orders:
  - {order_no: ORD-7, product: P1, quantity: 3, customer: Acme, confirm: true}
`
	require.NoError(t, os.WriteFile(path, []byte(extra), 0o600))

	require.NoError(t, (&SeedCmd{File: path}).Run(env.Ctx))
	var res storage.SeedResult
	require.NoError(t, json.Unmarshal(env.Out.Bytes(), &res))
	assert.Equal(t, 1, res.OrdersCreated)
	assert.Equal(t, 1, res.OrdersConfirmed)
	assert.NotEmpty(t, env.Schedules(t))

	// importing again leaves existing orders alone
	env.Out.Reset()
	require.NoError(t, (&SeedCmd{File: path}).Run(env.Ctx))
	require.NoError(t, json.Unmarshal(env.Out.Bytes(), &res))
	assert.Zero(t, res.OrdersCreated)
}

func TestSeedCmdRejectsBadFile(t *testing.T) {
	env := clitest.New(t, cli.FormatTable)
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("products: [nope"), 0o600))
	assert.Error(t, (&SeedCmd{File: path}).Run(env.Ctx))
}

func TestDoctorCmd(t *testing.T) {
	env := clitest.New(t, cli.FormatTable)

	require.NoError(t, (&DoctorCmd{}).Run(env.Ctx))
	out := env.Out.String()
	assert.Contains(t, out, "✓ Backend reachable: OK")
	assert.Contains(t, out, "⊘ Keyring: SKIPPED")
	assert.Contains(t, out, "⚠ Backups present: WARNING")
	assert.Contains(t, out, "All diagnostics passed!")
}

func TestDoctorCmdUnreachableBackend(t *testing.T) {
	env := clitest.New(t, cli.FormatTable)
	require.NoError(t, env.Ctx.Close())
	env.Ctx.Config.Backend = "http://127.0.0.1:1"

	err := (&DoctorCmd{}).Run(env.Ctx)
	require.Error(t, err)
	out := env.Out.String()
	assert.Contains(t, out, "❌ Backend reachable: FAIL")
	assert.Contains(t, out, "⊘ Schema version: SKIPPED")
	assert.Contains(t, out, "⊘ Schedule integrity: SKIPPED")
}

func TestDebugConfigCmd(t *testing.T) {
	env := clitest.New(t, cli.FormatJSON)
	require.NoError(t, (&DebugConfigCmd{}).Run(env.Ctx))

	var out effectiveConfig
	require.NoError(t, json.Unmarshal(env.Out.Bytes(), &out))
	assert.Equal(t, "(defaults)", out.File)
	assert.Equal(t, string(config.BackendSQLite), out.BackendKind)
	assert.Equal(t, "UTC", out.Timezone)
	assert.Equal(t, "Day", out.DefaultView)
}

func TestDebugConfigCmdTableIsYAML(t *testing.T) {
	env := clitest.New(t, cli.FormatTable)
	require.NoError(t, (&DebugConfigCmd{}).Run(env.Ctx))
	assert.Contains(t, env.Out.String(), "backend_kind: sqlite")
}

func TestRedact(t *testing.T) {
	cfg := &config.Config{Backend: "postgres://planner:hunter2@db:5432/shopline"}
	assert.Equal(t, "postgres://planner:****@db:5432/shopline", redact(cfg))

	cfg.Backend = "/var/lib/shopline.db"
	assert.Equal(t, cfg.Backend, redact(cfg))
}

func TestDebugDBPathCmd(t *testing.T) {
	env := clitest.New(t, cli.FormatTable)
	require.NoError(t, (&DebugDBPathCmd{}).Run(env.Ctx))
	assert.Equal(t, env.Ctx.Config.Backend, strings.TrimSpace(env.Out.String()))

	env.Ctx.Config.Backend = "https://factory.example.com"
	assert.ErrorIs(t, (&DebugDBPathCmd{}).Run(env.Ctx), cli.ErrNotLocal)
}
