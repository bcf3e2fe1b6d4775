package storage

import (
	"context"
	"time"

	"github.com/julianstephens/shopline/internal/constants"
)

// Conflict is two schedule records booking the same machine at once
type Conflict struct {
	Equipment string    `json:"equipment" yaml:"equipment"`
	First     int64     `json:"first_schedule_id" yaml:"first_schedule_id"`
	Second    int64     `json:"second_schedule_id" yaml:"second_schedule_id"`
	Start     time.Time `json:"overlap_start" yaml:"overlap_start"`
	End       time.Time `json:"overlap_end" yaml:"overlap_end"`
}

// IntegrityReport lists what a planner would have to fix by hand
type IntegrityReport struct {
	Conflicts []Conflict `json:"conflicts" yaml:"conflicts"`
	// InvalidSpans counts records whose end is not after their start
	InvalidSpans int `json:"invalid_spans" yaml:"invalid_spans"`
	// Unscheduled lists confirmed orders without any schedule record
	Unscheduled []string `json:"unscheduled_confirmed_orders" yaml:"unscheduled_confirmed_orders"`
}

func (r IntegrityReport) OK() bool {
	return len(r.Conflicts) == 0 && r.InvalidSpans == 0 && len(r.Unscheduled) == 0
}

const conflictQuery = `
	SELECT a.id, b.id, COALESCE(e.name, ''),
		a.start_datetime, a.end_datetime, b.start_datetime, b.end_datetime
	FROM production_schedules a
	JOIN production_schedules b
		ON b.equipment_id = a.equipment_id AND a.id < b.id
		AND a.start_datetime < b.end_datetime AND b.start_datetime < a.end_datetime
	LEFT JOIN equipments e ON e.id = a.equipment_id
	ORDER BY a.start_datetime, a.id, b.id`

// Integrity checks the booked schedule for double-booked machines, broken
// spans and confirmed orders that lost their schedule.
func (s *Store) Integrity(ctx context.Context) (IntegrityReport, error) {
	report := IntegrityReport{Conflicts: []Conflict{}, Unscheduled: []string{}}

	rows, err := s.db.QueryContext(ctx, conflictQuery)
	if err != nil {
		return report, remote("check schedule", err)
	}
	for rows.Next() {
		var c Conflict
		var aStart, aEnd, bStart, bEnd string
		if err := rows.Scan(&c.First, &c.Second, &c.Equipment, &aStart, &aEnd, &bStart, &bEnd); err != nil {
			rows.Close()
			return report, remote("check schedule", err)
		}
		times := make([]time.Time, 4)
		for i, raw := range []string{aStart, aEnd, bStart, bEnd} {
			if times[i], err = parseTimestamp(raw); err != nil {
				rows.Close()
				return report, err
			}
		}
		c.Start, c.End = later(times[0], times[2]), earlier(times[1], times[3])
		report.Conflicts = append(report.Conflicts, c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return report, remote("check schedule", err)
	}
	rows.Close()

	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM production_schedules WHERE start_datetime >= end_datetime",
	).Scan(&report.InvalidSpans); err != nil {
		return report, remote("check schedule", err)
	}

	rows, err = s.db.QueryContext(ctx, s.rebind(`
		SELECT o.order_no FROM orders o
		WHERE o.status = ? AND NOT EXISTS (
			SELECT 1 FROM production_schedules ps WHERE ps.order_id = o.id)
		ORDER BY o.order_no`), string(constants.OrderStatusConfirmed))
	if err != nil {
		return report, remote("check schedule", err)
	}
	defer rows.Close()
	for rows.Next() {
		var orderNo string
		if err := rows.Scan(&orderNo); err != nil {
			return report, remote("check schedule", err)
		}
		report.Unscheduled = append(report.Unscheduled, orderNo)
	}
	if err := rows.Err(); err != nil {
		return report, remote("check schedule", err)
	}
	return report, nil
}

func later(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlier(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
