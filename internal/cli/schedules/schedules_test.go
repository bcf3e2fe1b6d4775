package schedules

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/shopline/internal/cli"
	"github.com/julianstephens/shopline/internal/cli/clitest"
	"github.com/julianstephens/shopline/internal/gantt"
	"github.com/julianstephens/shopline/internal/models"
)

func TestShowCmdJSON(t *testing.T) {
	env := clitest.New(t, cli.FormatJSON)
	env.ConfirmedOrder(t, "ORD-1", 10)

	cmd := &ShowCmd{Date: "2025-01-06", View: "day", Group: "order"}
	require.NoError(t, cmd.Run(env.Ctx))

	var out showOutput
	require.NoError(t, json.Unmarshal(env.Out.Bytes(), &out))
	assert.Equal(t, "2025-01-06", out.Start)
	assert.Equal(t, "2025-01-06", out.End)
	require.Len(t, out.Tasks, 3)

	assert.Equal(t, "order-group:ORD-1", out.Tasks[0].ID)
	assert.Equal(t, gantt.KindContainer, out.Tasks[0].Kind)
	assert.Equal(t, 2, out.Tasks[0].Children)
	for _, row := range out.Tasks[1:] {
		assert.Equal(t, gantt.KindLeaf, row.Kind)
		assert.Equal(t, "order-group:ORD-1", row.Parent)
		require.NotNil(t, row.Meta)
		assert.Equal(t, "ORD-1", row.Meta.Order)
	}
}

func TestShowCmdTable(t *testing.T) {
	env := clitest.New(t, cli.FormatTable)
	env.ConfirmedOrder(t, "ORD-1", 10)

	require.NoError(t, (&ShowCmd{Date: "2025-01-06"}).Run(env.Ctx))
	out := env.Out.String()
	assert.Contains(t, out, "Turning - ORD-1")
	assert.Contains(t, out, "Painting - ORD-1")
	assert.Contains(t, out, "L-1")
	assert.Contains(t, out, "01/06 09:00")
}

func TestShowCmdCollapse(t *testing.T) {
	env := clitest.New(t, cli.FormatTable)
	env.ConfirmedOrder(t, "ORD-1", 10)

	cmd := &ShowCmd{Date: "2025-01-06", Group: "order", Collapse: []string{"order-group:ORD-1"}}
	require.NoError(t, cmd.Run(env.Ctx))
	out := env.Out.String()
	assert.Contains(t, out, "(2 hidden)")
	assert.NotContains(t, out, "Turning - ORD-1")
}

func TestShowCmdEmptyWindow(t *testing.T) {
	env := clitest.New(t, cli.FormatTable)
	require.NoError(t, (&ShowCmd{Date: "2025-01-06"}).Run(env.Ctx))
	assert.Contains(t, env.Out.String(), "No scheduled work")
}

func TestShowCmdRejectsBadFlags(t *testing.T) {
	env := clitest.New(t, cli.FormatTable)
	assert.Error(t, (&ShowCmd{Date: "06/01/2025"}).Run(env.Ctx))
	assert.Error(t, (&ShowCmd{Date: "today", View: "year"}).Run(env.Ctx))
	assert.Error(t, (&ShowCmd{Date: "today", Group: "customer"}).Run(env.Ctx))
}

func turning(t *testing.T, records []models.ScheduleRecord) models.ScheduleRecord {
	t.Helper()
	for _, r := range records {
		if models.StringValue(r.ProcessName, "") == "Turning" {
			return r
		}
	}
	t.Fatal("no Turning record")
	return models.ScheduleRecord{}
}

func TestMoveCmd(t *testing.T) {
	env := clitest.New(t, cli.FormatTable)
	env.ConfirmedOrder(t, "ORD-1", 10)
	rec := turning(t, env.Schedules(t))

	cmd := &MoveCmd{ID: rec.ID, Start: "2025-01-07 13:00", End: "2025-01-07 15:10"}
	require.NoError(t, cmd.Run(env.Ctx))
	assert.Contains(t, env.Err.String(), "Schedule updated")

	moved := turning(t, env.Schedules(t))
	assert.True(t, moved.StartDateTime.Equal(time.Date(2025, 1, 7, 13, 0, 0, 0, time.UTC)))
	assert.True(t, moved.EndDateTime.Equal(time.Date(2025, 1, 7, 15, 10, 0, 0, time.UTC)))
}

func TestMoveCmdRejectsInvalidSpan(t *testing.T) {
	env := clitest.New(t, cli.FormatTable)
	env.ConfirmedOrder(t, "ORD-1", 10)
	rec := turning(t, env.Schedules(t))

	cmd := &MoveCmd{ID: rec.ID, Start: "2025-01-07 15:00", End: "2025-01-07 13:00"}
	require.Error(t, cmd.Run(env.Ctx))

	after := turning(t, env.Schedules(t))
	assert.True(t, after.StartDateTime.Equal(rec.StartDateTime), "rejected gestures leave the record alone")
}

func TestMoveCmdUnknownRecord(t *testing.T) {
	env := clitest.New(t, cli.FormatTable)
	cmd := &MoveCmd{ID: 999, Start: "2025-01-07 13:00", End: "2025-01-07 14:00"}
	require.Error(t, cmd.Run(env.Ctx))
	assert.Contains(t, env.Err.String(), "Failed to update schedule")
}

func TestGroupsCmd(t *testing.T) {
	env := clitest.New(t, cli.FormatJSON)
	require.NoError(t, (&GroupsCmd{}).Run(env.Ctx))

	var groups []models.EquipmentGroup
	require.NoError(t, json.Unmarshal(env.Out.Bytes(), &groups))
	require.Len(t, groups, 2)
	assert.Equal(t, "Lathe", groups[0].Name)
}

func TestCheckCmd(t *testing.T) {
	env := clitest.New(t, cli.FormatTable)
	env.ConfirmedOrder(t, "ORD-1", 10)
	env.ConfirmedOrder(t, "ORD-2", 10)

	require.NoError(t, (&CheckCmd{}).Run(env.Ctx))
	assert.Contains(t, env.Out.String(), "No conflicts found")

	records := env.Schedules(t)
	var second models.ScheduleRecord
	for _, r := range records {
		if models.StringValue(r.OrderNumber, "") == "ORD-2" && models.StringValue(r.ProcessName, "") == "Turning" {
			second = r
		}
	}
	require.NotZero(t, second.ID)
	move := &MoveCmd{ID: second.ID, Start: "2025-01-06 10:00", End: "2025-01-06 12:00"}
	require.NoError(t, move.Run(env.Ctx))

	env.Out.Reset()
	err := (&CheckCmd{}).Run(env.Ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 conflict(s)")
	assert.Contains(t, env.Out.String(), "L-1")
}
