package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/shopline/internal/constants"
	"github.com/julianstephens/shopline/internal/models"
)

func TestPreviewRendersLazily(t *testing.T) {
	want := "2026-02-01T10:00:00Z"
	p := &Preview{
		Result: models.SimulationResult{
			CalculatedDeadline: want,
			ProcessSchedules: []models.ProcessSchedule{
				{ProcessName: "切削", StartTime: "2026-01-30T09:00:00Z", EndTime: "not a time", EquipmentName: models.StringPtr("Lathe 1")},
				{ProcessName: "組立", StartTime: "", EndTime: "2026-01-31T12:00:00Z"},
			},
		},
	}

	assert.Equal(t, "2026-02-01 10:00", p.Deadline("2006-01-02 15:04"))

	rows := p.Rows(time.RFC3339)
	require.Len(t, rows, 2)
	assert.Equal(t, "2026-01-30T09:00:00Z", rows[0].Start)
	assert.Equal(t, constants.InvalidDatePlaceholder, rows[0].End)
	assert.Equal(t, "Lathe 1", rows[0].Equipment)
	assert.Equal(t, constants.InvalidDatePlaceholder, rows[1].Start)
	assert.Equal(t, "2026-01-31T12:00:00Z", rows[1].End)
	assert.Equal(t, constants.PlaceholderText, rows[1].Equipment)
}

func TestPreviewMalformedDeadline(t *testing.T) {
	p := &Preview{Result: models.SimulationResult{CalculatedDeadline: "2026-13-45"}}
	assert.Equal(t, constants.InvalidDatePlaceholder, p.Deadline(time.RFC3339))
}

func TestFeasibilityNeedsDesiredDeadline(t *testing.T) {
	p := &Preview{Result: models.SimulationResult{IsFeasible: false}}
	assert.False(t, p.ShowFeasibility())

	p.DesiredDeadline = models.StringPtr("2026-02-01T00:00:00")
	assert.True(t, p.ShowFeasibility())
	assert.False(t, p.Feasible())
}
