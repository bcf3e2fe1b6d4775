package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/julianstephens/shopline/internal/constants"
	apperrors "github.com/julianstephens/shopline/internal/errors"
	"github.com/julianstephens/shopline/internal/models"
	"github.com/julianstephens/shopline/internal/utils"
)

func validDate(date string) error {
	if _, err := time.Parse(constants.DateFormat, date); err != nil {
		return apperrors.Validationf("invalid date %q (expected YYYY-MM-DD)", date)
	}
	return nil
}

// ListCalendars returns the overrides within one month, ordered by date
func (s *Store) ListCalendars(ctx context.Context, year int, month time.Month) ([]models.CalendarOverride, error) {
	const op = "list calendars"
	if month < time.January || month > time.December {
		return nil, remote(op, apperrors.Validationf("invalid month %d", month))
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(year, month, utils.DaysInMonth(year, month), 0, 0, 0, 0, time.UTC)

	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, date, is_holiday, note FROM calendars
		WHERE date >= ? AND date <= ?
		ORDER BY date`),
		first.Format(constants.DateFormat), last.Format(constants.DateFormat))
	if err != nil {
		return nil, remote(op, err)
	}
	defer rows.Close()

	out := []models.CalendarOverride{}
	for rows.Next() {
		var o models.CalendarOverride
		var note sql.NullString
		if err := rows.Scan(&o.ID, &o.Date, &o.IsHoliday, &note); err != nil {
			return nil, remote(op, err)
		}
		o.Note = stringPtr(note)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, remote(op, err)
	}
	return out, nil
}

func (s *Store) upsertCalendar(ctx context.Context, q queryer, o models.CalendarOverride) (models.CalendarOverride, error) {
	id, err := s.upsertCalendarDay(ctx, q, o.Date, o.IsHoliday, o.Note)
	o.ID = id
	return o, err
}

// UpsertCalendar writes one override, replacing any previous one on that date
func (s *Store) UpsertCalendar(ctx context.Context, o models.CalendarOverride) (*models.CalendarOverride, error) {
	const op = "update calendar"
	saved, err := s.upsertCalendar(ctx, s.db, o)
	if err != nil {
		return nil, remote(op, err)
	}
	return &saved, nil
}

// BatchUpdateCalendars writes the same override to every date, atomically
func (s *Store) BatchUpdateCalendars(ctx context.Context, req models.BatchUpdateRequest) (*models.BatchUpdateResult, error) {
	const op = "batch update calendars"
	result := &models.BatchUpdateResult{TotalCount: len(req.Dates)}
	if len(req.Dates) == 0 {
		return result, nil
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		seen := make(map[string]bool, len(req.Dates))
		for _, date := range req.Dates {
			o := models.CalendarOverride{Date: date, IsHoliday: req.IsHoliday, Note: req.Note}
			if _, err := s.upsertCalendar(ctx, tx, o); err != nil {
				return fmt.Errorf("date %s: %w", date, err)
			}
			if !seen[date] {
				seen[date] = true
				result.UpdatedCount++
			}
		}
		return nil
	})
	if err != nil {
		return nil, remote(op, err)
	}
	return result, nil
}
