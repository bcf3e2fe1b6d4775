// Package calendar edits operating-calendar overrides: single days and
// batches of days computed from a weekday pattern.
package calendar

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/shopline/internal/cache"
	"github.com/julianstephens/shopline/internal/constants"
	apperrors "github.com/julianstephens/shopline/internal/errors"
	"github.com/julianstephens/shopline/internal/logger"
	"github.com/julianstephens/shopline/internal/models"
	"github.com/julianstephens/shopline/internal/utils"
)

// Backend is the part of the service that stores overrides
type Backend interface {
	ListCalendars(ctx context.Context, year int, month time.Month) ([]models.CalendarOverride, error)
	UpsertCalendar(ctx context.Context, o models.CalendarOverride) (*models.CalendarOverride, error)
	BatchUpdateCalendars(ctx context.Context, req models.BatchUpdateRequest) (*models.BatchUpdateResult, error)
}

// ErrNoMatchingDates is returned by BatchSet for an empty date set
var ErrNoMatchingDates = apperrors.Validation("no matching dates")

type Editor struct {
	backend Backend
	cache   *cache.Cache
}

func NewEditor(backend Backend, c *cache.Cache) *Editor {
	return &Editor{backend: backend, cache: c}
}

// List returns the overrides of one month
func (e *Editor) List(ctx context.Context, year int, month time.Month) ([]models.CalendarOverride, error) {
	key := cache.NewKey(constants.QueryCalendars, "year", strconv.Itoa(year), "month", strconv.Itoa(int(month)))
	return cache.Get(ctx, e.cache, key, func(ctx context.Context) ([]models.CalendarOverride, error) {
		return e.backend.ListCalendars(ctx, year, month)
	})
}

func notePtr(note string) *string {
	if n := strings.TrimSpace(note); n != "" {
		return &n
	}
	return nil
}

// Upsert writes the override of one day, replacing any existing one
func (e *Editor) Upsert(ctx context.Context, date string, isHoliday bool, note string) (*models.CalendarOverride, error) {
	if _, err := time.Parse(constants.DateFormat, date); err != nil {
		return nil, apperrors.Validationf("invalid date %q (expected YYYY-MM-DD)", date)
	}

	saved, err := e.backend.UpsertCalendar(ctx, models.CalendarOverride{
		Date:      date,
		IsHoliday: isHoliday,
		Note:      notePtr(note),
	})
	if err != nil {
		return nil, err
	}
	e.cache.Invalidate(constants.QueryCalendars)
	logger.Info("Calendar updated", "date", date, "holiday", isHoliday)
	return saved, nil
}

// BatchSet applies one override to every date. An empty set writes nothing
// and returns a zero result with ErrNoMatchingDates.
func (e *Editor) BatchSet(ctx context.Context, dates []string, isHoliday bool, note string) (models.BatchUpdateResult, error) {
	if len(dates) == 0 {
		return models.BatchUpdateResult{}, ErrNoMatchingDates
	}
	for _, d := range dates {
		if _, err := time.Parse(constants.DateFormat, d); err != nil {
			return models.BatchUpdateResult{}, apperrors.Validationf("invalid date %q (expected YYYY-MM-DD)", d)
		}
	}

	res, err := e.backend.BatchUpdateCalendars(ctx, models.BatchUpdateRequest{
		Dates:     dates,
		IsHoliday: isHoliday,
		Note:      notePtr(note),
	})
	if err != nil {
		return models.BatchUpdateResult{}, err
	}
	e.cache.Invalidate(constants.QueryCalendars)
	logger.Info("Calendar batch updated", "updated", res.UpdatedCount, "total", res.TotalCount)
	return *res, nil
}

// Month returns the first and last day of a month
func Month(year int, month time.Month) (time.Time, time.Time) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return first, time.Date(year, month, utils.DaysInMonth(year, month), 0, 0, 0, 0, time.UTC)
}

// MatchWeekdays lists, as YYYY-MM-DD, every day from from to to inclusive
// that falls on one of weekdays. It depends only on the calendar, never on
// existing overrides.
func MatchWeekdays(from, to time.Time, weekdays ...time.Weekday) []string {
	want := make(map[time.Weekday]bool, len(weekdays))
	for _, wd := range weekdays {
		want[wd] = true
	}

	var dates []string
	for d := utils.StartOfDay(from); !d.After(to); d = d.AddDate(0, 0, 1) {
		if want[d.Weekday()] {
			dates = append(dates, utils.FormatDate(d))
		}
	}
	return dates
}

// Preset is a named batch rule
type Preset struct {
	Name      string
	Weekdays  []time.Weekday
	IsHoliday bool
	Note      string
}

var Presets = []Preset{
	{Name: "weekends-holiday", Weekdays: []time.Weekday{time.Saturday, time.Sunday}, IsHoliday: true, Note: constants.NoteHoliday},
	{Name: "saturdays-workday", Weekdays: []time.Weekday{time.Saturday}, IsHoliday: false, Note: constants.NoteWorkday},
}

// LookupPreset finds a preset by name
func LookupPreset(name string) (Preset, error) {
	names := make([]string, 0, len(Presets))
	for _, p := range Presets {
		if p.Name == name {
			return p, nil
		}
		names = append(names, p.Name)
	}
	return Preset{}, apperrors.Validationf("unknown preset %q (expected one of %s)", name, strings.Join(names, ", "))
}

// Dates lists the days of the range matched by the preset
func (p Preset) Dates(from, to time.Time) []string {
	return MatchWeekdays(from, to, p.Weekdays...)
}

// ApplyPreset applies p to every matching day between from and to
func (e *Editor) ApplyPreset(ctx context.Context, p Preset, from, to time.Time) (models.BatchUpdateResult, error) {
	res, err := e.BatchSet(ctx, p.Dates(from, to), p.IsHoliday, p.Note)
	if err != nil {
		return res, fmt.Errorf("preset %s: %w", p.Name, err)
	}
	return res, nil
}
