package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/shopline/internal/constants"
	apperrors "github.com/julianstephens/shopline/internal/errors"
	"github.com/julianstephens/shopline/internal/logger"
	"github.com/julianstephens/shopline/internal/models"
)

const orderColumns = `id, order_no, product_id, quantity, desired_deadline, confirmed_deadline, status, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (models.Order, error) {
	var (
		o                  models.Order
		desired, confirmed sql.NullString
		status             string
	)
	if err := row.Scan(&o.ID, &o.OrderNo, &o.ProductID, &o.Quantity, &desired, &confirmed, &status, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return models.Order{}, err
	}
	o.DesiredDeadline = stringPtr(desired)
	o.ConfirmedDeadline = stringPtr(confirmed)
	o.Status = constants.OrderStatus(status)
	return o, nil
}

func (s *Store) getOrder(ctx context.Context, q queryer, id int64) (models.Order, error) {
	o, err := scanOrder(q.QueryRowContext(ctx, s.rebind("SELECT "+orderColumns+" FROM orders WHERE id = ?"), id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Order{}, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	return o, err
}

func (s *Store) checkProduct(ctx context.Context, q queryer, productID int64, quantity int) error {
	if quantity <= 0 {
		return apperrors.Validation("quantity must be positive")
	}
	var n int
	if err := q.QueryRowContext(ctx, s.rebind("SELECT COUNT(*) FROM products WHERE id = ?"), productID).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("product %d: %w", productID, ErrNotFound)
	}
	return nil
}

func (s *Store) loadRoutings(ctx context.Context, q queryer, productID int64) ([]routing, error) {
	rows, err := q.QueryContext(ctx, s.rebind(`
		SELECT id, sequence, process_name, equipment_group_id, setup_time_seconds, unit_time_seconds
		FROM process_routings
		WHERE product_id = ?
		ORDER BY sequence, id`), productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []routing
	for rows.Next() {
		var r routing
		if err := rows.Scan(&r.ID, &r.Sequence, &r.ProcessName, &r.EquipmentGroupID, &r.SetupSeconds, &r.UnitSeconds); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) loadWorkCalendar(ctx context.Context, q queryer) (workCalendar, error) {
	cal := workCalendar{loc: s.loc, overrides: map[string]bool{}}
	rows, err := q.QueryContext(ctx, "SELECT date, is_holiday FROM calendars")
	if err != nil {
		return cal, err
	}
	defer rows.Close()
	for rows.Next() {
		var date string
		var holiday bool
		if err := rows.Scan(&date, &holiday); err != nil {
			return cal, err
		}
		cal.overrides[date] = holiday
	}
	return cal, rows.Err()
}

// schedule plans productID×quantity against the current bookings
func (s *Store) schedule(ctx context.Context, q queryer, productID int64, quantity int) ([]placement, error) {
	if err := s.checkProduct(ctx, q, productID, quantity); err != nil {
		return nil, err
	}
	routings, err := s.loadRoutings(ctx, q, productID)
	if err != nil {
		return nil, err
	}
	machines, err := s.loadMachines(ctx, q)
	if err != nil {
		return nil, err
	}
	cal, err := s.loadWorkCalendar(ctx, q)
	if err != nil {
		return nil, err
	}
	return plan(cal, s.now().In(s.loc), routings, quantity, machines)
}

func (s *Store) localTimestamp(t time.Time) string {
	return t.In(s.loc).Format(time.RFC3339)
}

// SimulateOrder previews the schedule of an order without saving anything
func (s *Store) SimulateOrder(ctx context.Context, req models.SimulateRequest) (*models.SimulationResult, error) {
	const op = "simulate"
	placements, err := s.schedule(ctx, s.db, req.ProductID, req.Quantity)
	if err != nil {
		return nil, remote(op, err)
	}

	result := &models.SimulationResult{ProcessSchedules: make([]models.ProcessSchedule, 0, len(placements))}
	for _, p := range placements {
		result.ProcessSchedules = append(result.ProcessSchedules, models.ProcessSchedule{
			ProcessName:   p.ProcessName,
			StartTime:     s.localTimestamp(p.Start),
			EndTime:       s.localTimestamp(p.End),
			EquipmentName: models.StringPtr(p.EquipmentName),
		})
	}
	completion := placements[len(placements)-1].End
	result.CalculatedDeadline = s.localTimestamp(completion)
	result.IsFeasible = feasible(completion, req.DesiredDeadline, s.loc)

	logger.Debug("simulated order", "product_id", req.ProductID, "quantity", req.Quantity,
		"steps", len(placements), "deadline", result.CalculatedDeadline, "feasible", result.IsFeasible)
	return result, nil
}

// CreateOrder registers a pending order
func (s *Store) CreateOrder(ctx context.Context, req models.OrderCreate) (*models.Order, error) {
	const op = "create order"
	if strings.TrimSpace(req.OrderNo) == "" {
		return nil, remote(op, apperrors.Validation("order_no is required"))
	}

	var created models.Order
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.checkProduct(ctx, tx, req.ProductID, req.Quantity); err != nil {
			return err
		}
		var dup int
		if err := tx.QueryRowContext(ctx, s.rebind("SELECT COUNT(*) FROM orders WHERE order_no = ?"), req.OrderNo).Scan(&dup); err != nil {
			return err
		}
		if dup > 0 {
			return apperrors.Validationf("order %s already exists", req.OrderNo)
		}

		now := formatTimestamp(s.now())
		var id int64
		if err := tx.QueryRowContext(ctx, s.rebind(`
			INSERT INTO orders (order_no, product_id, quantity, desired_deadline, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			RETURNING id`),
			req.OrderNo, req.ProductID, req.Quantity, nullString(req.DesiredDeadline),
			string(constants.OrderStatusPending), now, now).Scan(&id); err != nil {
			return err
		}

		o, err := s.getOrder(ctx, tx, id)
		created = o
		return err
	})
	if err != nil {
		return nil, remote(op, err)
	}
	logger.Info("order created", "order_no", created.OrderNo, "id", created.ID)
	return &created, nil
}

// ConfirmOrder books the schedule of a pending order and marks it confirmed
func (s *Store) ConfirmOrder(ctx context.Context, orderID int64) error {
	const op = "confirm order"
	var deadline string
	var steps int
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		o, err := s.getOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if o.Status != constants.OrderStatusPending {
			return fmt.Errorf("order %s: %w", o.OrderNo, ErrAlreadyConfirmed)
		}

		placements, err := s.schedule(ctx, tx, o.ProductID, o.Quantity)
		if err != nil {
			return err
		}
		for _, p := range placements {
			if _, err := tx.ExecContext(ctx, s.rebind(`
				INSERT INTO production_schedules (order_id, process_routing_id, equipment_id, start_datetime, end_datetime)
				VALUES (?, ?, ?, ?, ?)`),
				o.ID, p.RoutingID, p.EquipmentID, formatTimestamp(p.Start), formatTimestamp(p.End)); err != nil {
				return err
			}
		}

		deadline = s.localTimestamp(placements[len(placements)-1].End)
		steps = len(placements)
		_, err = tx.ExecContext(ctx, s.rebind(`
			UPDATE orders SET status = ?, confirmed_deadline = ?, updated_at = ? WHERE id = ?`),
			string(constants.OrderStatusConfirmed), deadline, formatTimestamp(s.now()), o.ID)
		return err
	})
	if err != nil {
		return remote(op, err)
	}
	logger.Info("order confirmed", "id", orderID, "schedules", steps, "deadline", deadline)
	return nil
}

// ListOrders returns every order, newest first
func (s *Store) ListOrders(ctx context.Context) ([]models.Order, error) {
	const op = "list orders"
	rows, err := s.db.QueryContext(ctx, "SELECT "+orderColumns+" FROM orders ORDER BY id DESC")
	if err != nil {
		return nil, remote(op, err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, remote(op, err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, remote(op, err)
	}
	return orders, nil
}
