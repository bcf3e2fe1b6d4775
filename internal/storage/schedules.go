package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/shopline/internal/constants"
	apperrors "github.com/julianstephens/shopline/internal/errors"
	"github.com/julianstephens/shopline/internal/models"
)

const scheduleSelect = `
	SELECT ps.id, ps.order_id, ps.process_routing_id, ps.equipment_id,
		ps.start_datetime, ps.end_datetime,
		o.order_no, p.name, pr.process_name, e.name, eg.name, c.name
	FROM production_schedules ps
	LEFT JOIN orders o ON o.id = ps.order_id
	LEFT JOIN products p ON p.id = o.product_id
	LEFT JOIN process_routings pr ON pr.id = ps.process_routing_id
	LEFT JOIN equipments e ON e.id = ps.equipment_id
	LEFT JOIN equipment_groups eg ON eg.id = e.equipment_group_id
	LEFT JOIN customers c ON c.id = o.customer_id`

func (s *Store) selectSchedules(ctx context.Context, q queryer, where string, args ...any) ([]models.ScheduleRecord, error) {
	query := scheduleSelect
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY ps.start_datetime, ps.id"

	rows, err := q.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []models.ScheduleRecord{}
	for rows.Next() {
		var (
			r                                         models.ScheduleRecord
			start, end                                string
			order, product, process, equip, group, cu sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.OrderID, &r.ProcessRoutingID, &r.EquipmentID,
			&start, &end, &order, &product, &process, &equip, &group, &cu); err != nil {
			return nil, err
		}
		if r.StartDateTime, err = parseTimestamp(start); err != nil {
			return nil, err
		}
		if r.EndDateTime, err = parseTimestamp(end); err != nil {
			return nil, err
		}
		r.OrderNumber = stringPtr(order)
		r.ProductName = stringPtr(product)
		r.ProcessName = stringPtr(process)
		r.EquipmentName = stringPtr(equip)
		r.EquipmentGroupName = stringPtr(group)
		r.CustomerName = stringPtr(cu)
		records = append(records, r)
	}
	return records, rows.Err()
}

// queryWindow converts the inclusive date range of q into a half-open
// instant range in the factory time zone.
func (s *Store) queryWindow(q models.ScheduleQuery) (time.Time, time.Time, error) {
	from, err := time.ParseInLocation(constants.DateFormat, q.StartDate, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.Validationf("invalid start_date %q", q.StartDate)
	}
	to, err := time.ParseInLocation(constants.DateFormat, q.EndDate, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.Validationf("invalid end_date %q", q.EndDate)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, apperrors.Validation("end_date is before start_date")
	}
	return from, to.AddDate(0, 0, 1), nil
}

// ListSchedules returns the records overlapping the query's dates
func (s *Store) ListSchedules(ctx context.Context, q models.ScheduleQuery) ([]models.ScheduleRecord, error) {
	const op = "list schedules"
	from, to, err := s.queryWindow(q)
	if err != nil {
		return nil, remote(op, err)
	}

	where := []string{"ps.start_datetime < ?", "ps.end_datetime > ?"}
	args := []any{formatTimestamp(to), formatTimestamp(from)}
	if q.EquipmentGroupID != nil {
		where = append(where, "e.equipment_group_id = ?")
		args = append(args, *q.EquipmentGroupID)
	}

	records, err := s.selectSchedules(ctx, s.db, strings.Join(where, " AND "), args...)
	if err != nil {
		return nil, remote(op, err)
	}
	return records, nil
}

// UpdateSchedule applies the non-nil fields of u to schedule id
func (s *Store) UpdateSchedule(ctx context.Context, id int64, u models.ScheduleUpdate) (*models.ScheduleRecord, error) {
	const op = "update schedule"
	var updated *models.ScheduleRecord
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		current, err := s.selectSchedules(ctx, tx, "ps.id = ?", id)
		if err != nil {
			return err
		}
		if len(current) == 0 {
			return fmt.Errorf("schedule %d: %w", id, ErrNotFound)
		}
		rec := current[0]

		if u.StartDateTime != nil {
			rec.StartDateTime = *u.StartDateTime
		}
		if u.EndDateTime != nil {
			rec.EndDateTime = *u.EndDateTime
		}
		if !rec.StartDateTime.Before(rec.EndDateTime) {
			return apperrors.Validation("start_datetime must be before end_datetime")
		}
		if u.EquipmentID != nil && *u.EquipmentID != rec.EquipmentID {
			var exists int
			err := tx.QueryRowContext(ctx, s.rebind("SELECT COUNT(*) FROM equipments WHERE id = ?"), *u.EquipmentID).Scan(&exists)
			if err != nil {
				return err
			}
			if exists == 0 {
				return fmt.Errorf("equipment %d: %w", *u.EquipmentID, ErrNotFound)
			}
			rec.EquipmentID = *u.EquipmentID
		}

		if _, err := tx.ExecContext(ctx, s.rebind(`
			UPDATE production_schedules
			SET start_datetime = ?, end_datetime = ?, equipment_id = ?
			WHERE id = ?`),
			formatTimestamp(rec.StartDateTime), formatTimestamp(rec.EndDateTime), rec.EquipmentID, id); err != nil {
			return err
		}

		fresh, err := s.selectSchedules(ctx, tx, "ps.id = ?", id)
		if err != nil {
			return err
		}
		if len(fresh) == 0 {
			return fmt.Errorf("schedule %d: %w", id, ErrNotFound)
		}
		updated = &fresh[0]
		return nil
	})
	if err != nil {
		return nil, remote(op, err)
	}
	return updated, nil
}

// ListEquipmentGroups returns every group ordered by name
func (s *Store) ListEquipmentGroups(ctx context.Context) ([]models.EquipmentGroup, error) {
	const op = "list equipment groups"
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, description FROM equipment_groups ORDER BY name, id")
	if err != nil {
		return nil, remote(op, err)
	}
	defer rows.Close()

	groups := []models.EquipmentGroup{}
	for rows.Next() {
		var g models.EquipmentGroup
		var desc sql.NullString
		if err := rows.Scan(&g.ID, &g.Name, &desc); err != nil {
			return nil, remote(op, err)
		}
		g.Description = stringPtr(desc)
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, remote(op, err)
	}
	return groups, nil
}

// loadMachines returns the members of every equipment group with the end
// of their last booked work.
func (s *Store) loadMachines(ctx context.Context, q queryer) (map[int64][]machine, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT e.id, e.name, e.equipment_group_id, MAX(ps.end_datetime)
		FROM equipments e
		LEFT JOIN production_schedules ps ON ps.equipment_id = e.id
		GROUP BY e.id, e.name, e.equipment_group_id
		ORDER BY e.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := map[int64][]machine{}
	for rows.Next() {
		var (
			m       machine
			groupID int64
			free    sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.Name, &groupID, &free); err != nil {
			return nil, err
		}
		if free.Valid {
			if m.Free, err = parseTimestamp(free.String); err != nil {
				return nil, err
			}
		}
		groups[groupID] = append(groups[groupID], m)
	}
	return groups, rows.Err()
}
