package board

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/shopline/internal/cache"
	"github.com/julianstephens/shopline/internal/constants"
	"github.com/julianstephens/shopline/internal/gantt"
	"github.com/julianstephens/shopline/internal/locale"
	"github.com/julianstephens/shopline/internal/models"
)

// stubBackend serves fixed schedules and counts list calls
type stubBackend struct {
	mu        sync.Mutex
	queries   []models.ScheduleQuery
	groupHits int
	records   []models.ScheduleRecord
	listErr   error
}

func (b *stubBackend) ListSchedules(_ context.Context, q models.ScheduleQuery) ([]models.ScheduleRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queries = append(b.queries, q)
	return b.records, b.listErr
}

func (b *stubBackend) ListEquipmentGroups(context.Context) ([]models.EquipmentGroup, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.groupHits++
	return []models.EquipmentGroup{{ID: 1, Name: "Lathe"}}, nil
}

func (b *stubBackend) UpdateSchedule(context.Context, int64, models.ScheduleUpdate) (*models.ScheduleRecord, error) {
	return nil, errors.New("not used")
}
func (b *stubBackend) SimulateOrder(context.Context, models.SimulateRequest) (*models.SimulationResult, error) {
	return nil, errors.New("not used")
}
func (b *stubBackend) CreateOrder(context.Context, models.OrderCreate) (*models.Order, error) {
	return nil, errors.New("not used")
}
func (b *stubBackend) ConfirmOrder(context.Context, int64) error { return errors.New("not used") }
func (b *stubBackend) ListOrders(context.Context) ([]models.Order, error) {
	return nil, errors.New("not used")
}
func (b *stubBackend) ListCalendars(context.Context, int, time.Month) ([]models.CalendarOverride, error) {
	return nil, errors.New("not used")
}
func (b *stubBackend) UpsertCalendar(context.Context, models.CalendarOverride) (*models.CalendarOverride, error) {
	return nil, errors.New("not used")
}
func (b *stubBackend) BatchUpdateCalendars(context.Context, models.BatchUpdateRequest) (*models.BatchUpdateResult, error) {
	return nil, errors.New("not used")
}
func (b *stubBackend) Close() error { return nil }

var start = time.Date(2026, 1, 28, 12, 0, 0, 0, time.UTC)

func newSession(be *stubBackend, c *cache.Cache) *Session {
	return NewSession(be, c, locale.Default(), Options{
		Start:       start,
		Granularity: constants.GranularityWeek,
		Now:         func() time.Time { return start },
	})
}

func TestLoadUsesWindowAndCache(t *testing.T) {
	ord := "ORD-001"
	be := &stubBackend{records: []models.ScheduleRecord{
		{ID: 1, OrderNumber: &ord, StartDateTime: start, EndDateTime: start.Add(time.Hour)},
	}}
	c := cache.New()
	s := newSession(be, c)
	ctx := context.Background()

	req := s.Request()
	assert.Equal(t, "2026-01-25", req.Query.StartDate)
	assert.Equal(t, "2026-01-31", req.Query.EndDate)

	v, err := s.Load(ctx, req)
	require.NoError(t, err)
	assert.Len(t, v.Records, 1)
	assert.Len(t, v.Groups, 1)
	assert.True(t, s.Current(v.Seq))

	_, err = s.Load(ctx, req)
	require.NoError(t, err)
	assert.Len(t, be.queries, 1, "second load is a cache hit")
	assert.Equal(t, 1, be.groupHits)

	c.Invalidate(constants.QuerySchedules)
	_, err = s.Load(ctx, req)
	require.NoError(t, err)
	assert.Len(t, be.queries, 2)
	assert.Equal(t, 1, be.groupHits, "equipment groups were not invalidated")
}

func TestCursorChangeSupersedesOlderResponses(t *testing.T) {
	be := &stubBackend{}
	s := newSession(be, cache.New())
	ctx := context.Background()

	old := s.Request()
	next := s.Next()
	assert.Equal(t, "2026-02-01", next.Query.StartDate)
	assert.NotEqual(t, old.Seq, next.Seq)

	stale, err := s.Load(ctx, old)
	require.NoError(t, err)
	assert.False(t, s.Current(stale.Seq), "response for the previous window must be ignored")

	fresh, err := s.Load(ctx, next)
	require.NoError(t, err)
	assert.True(t, s.Current(fresh.Seq))
	assert.Len(t, be.queries, 2, "every window change refetches")
}

func TestRefreshKeepsWindowAndSupersedesOlderLoads(t *testing.T) {
	s := newSession(&stubBackend{}, cache.New())

	before := s.Request()
	after := s.Refresh()
	assert.Equal(t, before.Query, after.Query)
	assert.NotEqual(t, before.Seq, after.Seq)
	assert.False(t, s.Current(before.Seq), "a load started before the refresh is dropped")
	assert.True(t, s.Current(after.Seq))
}

func TestNavigation(t *testing.T) {
	s := newSession(&stubBackend{}, cache.New())

	r := s.Prev()
	assert.Equal(t, "2026-01-18", r.Query.StartDate)

	r = s.SetGranularity(constants.GranularityMonth)
	assert.Equal(t, "2026-01-01", r.Query.StartDate)
	assert.Equal(t, "2025-12-31", s.Prev().Query.EndDate)

	r = s.Today()
	assert.Equal(t, "2026-01-01", r.Query.StartDate)
	assert.Equal(t, "January 2026", r.Window.Label)

	id := int64(3)
	r = s.SetEquipmentGroup(&id)
	require.NotNil(t, r.Query.EquipmentGroupID)
	assert.Equal(t, int64(3), *r.Query.EquipmentGroupID)
	assert.Equal(t, "schedules?end_date=2026-01-31&equipment_group_id=3&start_date=2026-01-01", ScheduleKey(r.Query).String())
}

func TestLoadError(t *testing.T) {
	be := &stubBackend{listErr: errors.New("service down")}
	s := newSession(be, cache.New())
	_, err := s.Load(context.Background(), s.Request())
	assert.Error(t, err)
}

func TestTasksFollowSettings(t *testing.T) {
	a, b := "ORD-001", "ORD-002"
	records := []models.ScheduleRecord{
		{ID: 1, OrderNumber: &a, StartDateTime: start, EndDateTime: start.Add(time.Hour)},
		{ID: 2, OrderNumber: &b, StartDateTime: start, EndDateTime: start.Add(time.Hour)},
	}
	s := newSession(&stubBackend{}, cache.New())

	assert.Len(t, s.Tasks(records), 2)
	assert.False(t, s.Tasks(records)[0].Editable())

	assert.Equal(t, constants.GroupOrder, s.CycleGroup())
	tasks := s.Tasks(records)
	assert.Len(t, tasks, 4)

	assert.True(t, s.ToggleCollapsed("order-group:ORD-001"))
	assert.Len(t, gantt.Visible(s.Tasks(records)), 3)

	assert.Equal(t, constants.GroupEquipmentGroup, s.CycleGroup())
	assert.Equal(t, constants.GroupNone, s.CycleGroup())

	assert.True(t, s.ToggleEditable())
	assert.True(t, s.Tasks(records)[0].Editable())

	assert.Equal(t, constants.ColorByProcess, s.ToggleColor())
	assert.Equal(t, constants.ColorByProduct, s.ToggleColor())
}
