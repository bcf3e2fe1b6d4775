package orders

import (
	"github.com/julianstephens/shopline/internal/constants"
	"github.com/julianstephens/shopline/internal/models"
)

// Preview is a simulation result as shown to the user. Timestamps are parsed
// only when rendered, so one malformed value degrades its own cell instead
// of the whole preview.
type Preview struct {
	Result          models.SimulationResult
	DesiredDeadline *string
}

// ProcessRow is one rendered process window
type ProcessRow struct {
	Process   string
	Equipment string
	Start     string
	End       string
}

// Deadline renders the calculated deadline with layout
func (p *Preview) Deadline(layout string) string {
	t, err := p.Result.Deadline()
	if err != nil {
		return constants.InvalidDatePlaceholder
	}
	return t.Format(layout)
}

// ShowFeasibility reports whether the feasibility flag means anything: it is
// only computed against a desired deadline.
func (p *Preview) ShowFeasibility() bool {
	return p.DesiredDeadline != nil
}

// Feasible is the service's verdict against the desired deadline
func (p *Preview) Feasible() bool {
	return p.Result.IsFeasible
}

// Rows renders every process window with layout
func (p *Preview) Rows(layout string) []ProcessRow {
	rows := make([]ProcessRow, 0, len(p.Result.ProcessSchedules))
	for _, ps := range p.Result.ProcessSchedules {
		row := ProcessRow{
			Process:   ps.ProcessName,
			Equipment: models.StringValue(ps.EquipmentName, constants.PlaceholderText),
			Start:     constants.InvalidDatePlaceholder,
			End:       constants.InvalidDatePlaceholder,
		}
		if start, err := models.ParseTimestamp(ps.StartTime); err == nil {
			row.Start = start.Format(layout)
		}
		if end, err := models.ParseTimestamp(ps.EndTime); err == nil {
			row.End = end.Format(layout)
		}
		rows = append(rows, row)
	}
	return rows
}
