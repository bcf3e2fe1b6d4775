// Package drag commits interactive move and resize gestures on timeline
// tasks. A gesture runs Idle → Dragging → Committing and ends back in Idle,
// passing through Failed when the commit is rejected. The visual position
// is provisional until the service accepts it; on failure the caller is told
// to snap the bar back.
package drag

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/julianstephens/shopline/internal/cache"
	"github.com/julianstephens/shopline/internal/constants"
	apperrors "github.com/julianstephens/shopline/internal/errors"
	"github.com/julianstephens/shopline/internal/gantt"
	"github.com/julianstephens/shopline/internal/logger"
	"github.com/julianstephens/shopline/internal/models"
)

type State int

const (
	Idle State = iota
	Dragging
	Committing
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Committing:
		return "committing"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var (
	ErrNotEditable = apperrors.Validation("task is not editable")
	ErrInvalidSpan = apperrors.Validation("end must be after start")
	ErrNotDragging = apperrors.Validation("no gesture in progress")
)

// Updater is the part of the backend a gesture commits to
type Updater interface {
	UpdateSchedule(ctx context.Context, id int64, u models.ScheduleUpdate) (*models.ScheduleRecord, error)
}

// Notifier shows gesture outcomes to the user
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Controller starts gestures against one backend and cache
type Controller struct {
	backend Updater
	cache   *cache.Cache
	notify  Notifier

	// OnTransition, when set, observes every state change of every gesture
	OnTransition func(task string, from, to State)
}

func NewController(backend Updater, c *cache.Cache, n Notifier) *Controller {
	return &Controller{backend: backend, cache: c, notify: n}
}

// Gesture is one move or resize of a single leaf. Gestures are independent:
// two gestures on the same task may be in flight together and the last
// response to arrive wins.
type Gesture struct {
	ctrl  *Controller
	task  gantt.Task
	mu    sync.Mutex
	state State
	start time.Time
	end   time.Time
	// equipment, when set, reassigns the record on commit
	equipment *int64
}

// Begin starts a gesture on task. Containers and read-only leaves are refused.
func (c *Controller) Begin(task gantt.Task) (*Gesture, error) {
	if task == nil || task.Kind() != gantt.KindLeaf || !task.Editable() {
		return nil, ErrNotEditable
	}
	g := &Gesture{ctrl: c, task: task, state: Idle, start: task.Start(), end: task.End()}
	g.transition(Dragging)
	return g, nil
}

func (g *Gesture) transition(to State) {
	from := g.state
	g.state = to
	if g.ctrl.OnTransition != nil {
		g.ctrl.OnTransition(g.task.ID(), from, to)
	}
}

func (g *Gesture) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Task is the task being dragged
func (g *Gesture) Task() gantt.Task { return g.task }

// Move updates the provisional span while dragging
func (g *Gesture) Move(start, end time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == Dragging {
		g.start, g.end = start, end
	}
}

// Span is the provisional span of the gesture
func (g *Gesture) Span() (time.Time, time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.start, g.end
}

// Reassign moves the record to another machine on commit
func (g *Gesture) Reassign(equipmentID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.equipment = &equipmentID
}

// Cancel abandons the gesture without a network call
func (g *Gesture) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == Dragging {
		g.transition(Idle)
	}
}

// Release commits the gesture at start/end. It returns true when the
// service accepted the change and every cached schedule view was
// invalidated. It returns false when the caller must revert the bar; the
// cache is then untouched and err says why. There are no retries.
func (g *Gesture) Release(ctx context.Context, start, end time.Time) (bool, error) {
	g.mu.Lock()
	if g.state != Dragging {
		g.mu.Unlock()
		return false, ErrNotDragging
	}
	g.start, g.end = start, end
	equipment := g.equipment

	id, err := gantt.DecodeLeafID(g.task.ID())
	if err == nil && !end.After(start) {
		err = ErrInvalidSpan
	}
	if err != nil {
		g.transition(Idle)
		g.mu.Unlock()
		g.ctrl.notify.Error(fmt.Sprintf("Cannot move task: %v", err))
		return false, err
	}
	g.transition(Committing)
	g.mu.Unlock()

	s, e := start.UTC(), end.UTC()
	_, err = g.ctrl.backend.UpdateSchedule(ctx, id, models.ScheduleUpdate{
		StartDateTime: &s,
		EndDateTime:   &e,
		EquipmentID:   equipment,
	})

	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		g.transition(Failed)
		logger.Warn("Schedule update rejected", "schedule_id", id, "error", err)
		g.ctrl.notify.Error(fmt.Sprintf("Failed to update schedule: %v", err))
		g.transition(Idle)
		return false, err
	}

	g.ctrl.cache.Invalidate(constants.QuerySchedules)
	logger.Info("Schedule updated", "schedule_id", id, "start", s, "end", e)
	g.ctrl.notify.Success("Schedule updated")
	g.transition(Idle)
	return true, nil
}
