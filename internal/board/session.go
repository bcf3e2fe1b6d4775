// Package board keeps the state of one schedule view: the visible window,
// grouping and color choices, and which fetched responses are still current.
package board

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/shopline/internal/api"
	"github.com/julianstephens/shopline/internal/cache"
	"github.com/julianstephens/shopline/internal/constants"
	"github.com/julianstephens/shopline/internal/gantt"
	"github.com/julianstephens/shopline/internal/locale"
	"github.com/julianstephens/shopline/internal/logger"
	"github.com/julianstephens/shopline/internal/models"
	"github.com/julianstephens/shopline/internal/timerange"
)

// Options are the initial view settings
type Options struct {
	Start            time.Time
	Granularity      constants.Granularity
	Group            constants.GroupMode
	Color            constants.ColorMode
	Editable         bool
	EquipmentGroupID *int64
	Now              func() time.Time
}

// Session is safe for concurrent use
type Session struct {
	backend api.Backend
	cache   *cache.Cache

	mu               sync.Mutex
	cursor           *timerange.Cursor
	group            constants.GroupMode
	color            constants.ColorMode
	editable         bool
	equipmentGroupID *int64
	collapsed        map[string]bool
	// seq identifies the current query; it moves whenever the window or
	// filter changes so older responses can be recognised and dropped
	seq uint64
}

func NewSession(backend api.Backend, c *cache.Cache, loc locale.Locale, opts Options) *Session {
	if opts.Start.IsZero() {
		now := time.Now
		if opts.Now != nil {
			now = opts.Now
		}
		opts.Start = now()
	}
	if opts.Granularity == "" {
		opts.Granularity = constants.GranularityDay
	}
	return &Session{
		backend:          backend,
		cache:            c,
		cursor:           timerange.NewCursor(opts.Start, opts.Granularity, loc, opts.Now),
		group:            opts.Group,
		color:            opts.Color,
		editable:         opts.Editable,
		equipmentGroupID: opts.EquipmentGroupID,
		collapsed:        make(map[string]bool),
	}
}

// Request is a snapshot of what the view needs to fetch
type Request struct {
	Seq    uint64
	Window timerange.Window
	Query  models.ScheduleQuery
}

// View is the fetched data of one Request
type View struct {
	Seq     uint64
	Window  timerange.Window
	Records []models.ScheduleRecord
	Groups  []models.EquipmentGroup
}

// Request returns the fetch needed for the current window and filter
func (s *Session) Request() Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.request()
}

func (s *Session) request() Request {
	w := s.cursor.Window()
	return Request{
		Seq:    s.seq,
		Window: w,
		Query: models.ScheduleQuery{
			StartDate:        w.StartDate(),
			EndDate:          w.EndDate(),
			EquipmentGroupID: s.equipmentGroupID,
		},
	}
}

// ScheduleKey is the cache key of a schedule query
func ScheduleKey(q models.ScheduleQuery) cache.Key {
	group := ""
	if q.EquipmentGroupID != nil {
		group = strconv.FormatInt(*q.EquipmentGroupID, 10)
	}
	return cache.NewKey(constants.QuerySchedules,
		"start_date", q.StartDate, "end_date", q.EndDate, "equipment_group_id", group)
}

// Load fetches the schedules and equipment groups of req in parallel,
// through the cache
func (s *Session) Load(ctx context.Context, req Request) (*View, error) {
	v := &View{Seq: req.Seq, Window: req.Window}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		records, err := cache.Get(gctx, s.cache, ScheduleKey(req.Query), func(ctx context.Context) ([]models.ScheduleRecord, error) {
			return s.backend.ListSchedules(ctx, req.Query)
		})
		v.Records = records
		return err
	})
	g.Go(func() error {
		groups, err := cache.Get(gctx, s.cache, cache.NewKey(constants.QueryEquipmentGroups), s.backend.ListEquipmentGroups)
		v.Groups = groups
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	logger.Debug("View loaded", "seq", req.Seq, "start", req.Query.StartDate, "end", req.Query.EndDate, "records", len(v.Records))
	return v, nil
}

// Current reports whether a response for seq still matches the view
func (s *Session) Current(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return seq == s.seq
}

// Tasks renders records with the current grouping, color and edit settings
func (s *Session) Tasks(records []models.ScheduleRecord) []gantt.Task {
	s.mu.Lock()
	opts := gantt.Options{
		Group:     s.group,
		Color:     s.color,
		Editable:  s.editable,
		Collapsed: make(map[string]bool, len(s.collapsed)),
	}
	for id, hidden := range s.collapsed {
		opts.Collapsed[id] = hidden
	}
	s.mu.Unlock()
	return gantt.Transform(records, opts)
}

// moved bumps the sequence after the window or filter changed. Caller holds mu.
func (s *Session) moved() Request {
	s.seq++
	return s.request()
}

// Refresh re-requests the current window under a new sequence, so loads
// started before a write are dropped when they arrive
func (s *Session) Refresh() Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moved()
}

func (s *Session) Next() Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor.Next()
	return s.moved()
}

func (s *Session) Prev() Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor.Prev()
	return s.moved()
}

func (s *Session) Today() Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor.Today()
	return s.moved()
}

func (s *Session) SetGranularity(g constants.Granularity) Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor.SetGranularity(g)
	return s.moved()
}

// SetEquipmentGroup filters the view to one equipment group; nil shows all
func (s *Session) SetEquipmentGroup(id *int64) Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.equipmentGroupID = id
	return s.moved()
}

// CycleGroup switches none → order → equipment group → none
func (s *Session) CycleGroup() constants.GroupMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.group {
	case constants.GroupOrder:
		s.group = constants.GroupEquipmentGroup
	case constants.GroupEquipmentGroup:
		s.group = constants.GroupNone
	default:
		s.group = constants.GroupOrder
	}
	return s.group
}

// ToggleColor switches between by-product and by-process colors
func (s *Session) ToggleColor() constants.ColorMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.color == constants.ColorByProcess {
		s.color = constants.ColorByProduct
	} else {
		s.color = constants.ColorByProcess
	}
	return s.color
}

func (s *Session) ToggleEditable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editable = !s.editable
	return s.editable
}

// ToggleCollapsed hides or shows the children of a container
func (s *Session) ToggleCollapsed(containerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collapsed[containerID] = !s.collapsed[containerID]
	return s.collapsed[containerID]
}

func (s *Session) Granularity() constants.Granularity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor.Granularity()
}

func (s *Session) Group() constants.GroupMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.group
}

func (s *Session) Color() constants.ColorMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.color
}

func (s *Session) Editable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editable
}

func (s *Session) EquipmentGroup() *int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.equipmentGroupID
}
