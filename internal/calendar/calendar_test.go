package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/shopline/internal/cache"
	"github.com/julianstephens/shopline/internal/constants"
	apperrors "github.com/julianstephens/shopline/internal/errors"
	"github.com/julianstephens/shopline/internal/models"
)

type fakeBackend struct {
	listCalls int
	upserts   []models.CalendarOverride
	batches   []models.BatchUpdateRequest
	err       error
	overrides []models.CalendarOverride
}

func (f *fakeBackend) ListCalendars(context.Context, int, time.Month) ([]models.CalendarOverride, error) {
	f.listCalls++
	return f.overrides, f.err
}

func (f *fakeBackend) UpsertCalendar(_ context.Context, o models.CalendarOverride) (*models.CalendarOverride, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.upserts = append(f.upserts, o)
	return &o, nil
}

func (f *fakeBackend) BatchUpdateCalendars(_ context.Context, req models.BatchUpdateRequest) (*models.BatchUpdateResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.batches = append(f.batches, req)
	return &models.BatchUpdateResult{UpdatedCount: len(req.Dates), TotalCount: len(req.Dates)}, nil
}

func TestMatchWeekdays(t *testing.T) {
	from, to := Month(2026, time.February)
	assert.Equal(t, "2026-02-01", from.Format(constants.DateFormat))
	assert.Equal(t, "2026-02-28", to.Format(constants.DateFormat))

	saturdays := MatchWeekdays(from, to, time.Saturday)
	assert.Equal(t, []string{"2026-02-07", "2026-02-14", "2026-02-21", "2026-02-28"}, saturdays)

	weekends := MatchWeekdays(from, to, time.Saturday, time.Sunday)
	assert.Len(t, weekends, 8)
	assert.Equal(t, "2026-02-01", weekends[0])

	assert.Empty(t, MatchWeekdays(from, to))
	assert.Empty(t, MatchWeekdays(to, from, time.Saturday))
}

func TestMonthLengths(t *testing.T) {
	_, end := Month(2024, time.February)
	assert.Equal(t, 29, end.Day())
	_, end = Month(2026, time.December)
	assert.Equal(t, 31, end.Day())
}

func TestBatchSetEmptyIsNoop(t *testing.T) {
	be := &fakeBackend{}
	c := cache.New()
	e := NewEditor(be, c)

	// Mon 2026-01-26 .. Fri 2026-01-30 has no Saturday
	from := time.Date(2026, 1, 26, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 30, 0, 0, 0, 0, time.UTC)
	preset, err := LookupPreset("saturdays-workday")
	require.NoError(t, err)

	res, err := e.ApplyPreset(context.Background(), preset, from, to)
	assert.ErrorIs(t, err, ErrNoMatchingDates)
	assert.Contains(t, err.Error(), "no matching dates")
	assert.Equal(t, models.BatchUpdateResult{UpdatedCount: 0, TotalCount: 0}, res)
	assert.Empty(t, be.batches, "no write for an empty set")
	assert.Equal(t, 0, c.Invalidations(constants.QueryCalendars))

	res, err = e.BatchSet(context.Background(), nil, true, "")
	assert.ErrorIs(t, err, ErrNoMatchingDates)
	assert.Zero(t, res.TotalCount)
}

func TestApplyPresets(t *testing.T) {
	be := &fakeBackend{}
	c := cache.New()
	e := NewEditor(be, c)
	from, to := Month(2026, time.February)

	weekends, err := LookupPreset("weekends-holiday")
	require.NoError(t, err)
	res, err := e.ApplyPreset(context.Background(), weekends, from, to)
	require.NoError(t, err)
	assert.Equal(t, 8, res.UpdatedCount)

	require.Len(t, be.batches, 1)
	assert.True(t, be.batches[0].IsHoliday)
	require.NotNil(t, be.batches[0].Note)
	assert.Equal(t, "Holiday", *be.batches[0].Note)
	assert.Equal(t, 1, c.Invalidations(constants.QueryCalendars))

	saturdays, err := LookupPreset("saturdays-workday")
	require.NoError(t, err)
	_, err = e.ApplyPreset(context.Background(), saturdays, from, to)
	require.NoError(t, err)
	assert.False(t, be.batches[1].IsHoliday)
	assert.Equal(t, "Workday", *be.batches[1].Note)

	_, err = LookupPreset("mondays")
	assert.True(t, apperrors.IsValidation(err))
}

func TestUpsert(t *testing.T) {
	be := &fakeBackend{}
	c := cache.New()
	e := NewEditor(be, c)

	saved, err := e.Upsert(context.Background(), "2026-02-11", true, "  ")
	require.NoError(t, err)
	assert.Nil(t, saved.Note, "blank note is stored as null")
	assert.Equal(t, 1, c.Invalidations(constants.QueryCalendars))

	_, err = e.Upsert(context.Background(), "2026/02/11", true, "")
	assert.True(t, apperrors.IsValidation(err))
	assert.Len(t, be.upserts, 1)
}

func TestFailedWriteKeepsCache(t *testing.T) {
	be := &fakeBackend{err: apperrors.Remote("batch update calendars", errors.New("503"))}
	c := cache.New()
	e := NewEditor(be, c)

	_, err := e.BatchSet(context.Background(), []string{"2026-02-07"}, false, "Workday")
	assert.True(t, apperrors.IsRemote(err))
	assert.Equal(t, 0, c.Invalidations(constants.QueryCalendars))
}

func TestListIsCachedUntilWrite(t *testing.T) {
	be := &fakeBackend{overrides: []models.CalendarOverride{{Date: "2026-02-11", IsHoliday: true}}}
	c := cache.New()
	e := NewEditor(be, c)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		got, err := e.List(ctx, 2026, time.February)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	}
	assert.Equal(t, 1, be.listCalls)

	_, err := e.Upsert(ctx, "2026-02-12", false, "")
	require.NoError(t, err)
	_, err = e.List(ctx, 2026, time.February)
	require.NoError(t, err)
	assert.Equal(t, 2, be.listCalls)
}
