package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/shopline/internal/constants"
)

// maxSearchDays bounds the hunt for the next working day
const maxSearchDays = 3660

var (
	ErrNoRoutings       = errors.New("product has no process routings")
	ErrNoEquipment      = errors.New("equipment group has no equipment")
	ErrNoWorkingDay     = errors.New("no working day found")
	ErrInvalidDuration  = errors.New("work duration must be positive")
	ErrAlreadyConfirmed = errors.New("order is already confirmed")
)

// workCalendar decides which days are worked. Weekdays work unless
// overridden as holidays; weekends rest unless overridden as workdays.
type workCalendar struct {
	loc       *time.Location
	overrides map[string]bool // date -> is_holiday
}

func (c workCalendar) isWorkday(t time.Time) bool {
	t = t.In(c.loc)
	if holiday, ok := c.overrides[t.Format(constants.DateFormat)]; ok {
		return !holiday
	}
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

func (c workCalendar) at(t time.Time, hour int) time.Time {
	t = t.In(c.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), hour, 0, 0, 0, c.loc)
}

// nextWorkStart is the first opening time strictly after the working
// period containing t.
func (c workCalendar) nextWorkStart(t time.Time) (time.Time, error) {
	if c.isWorkday(t) && t.Before(c.at(t, constants.WorkStartHour)) {
		return c.at(t, constants.WorkStartHour), nil
	}
	day := c.at(t, constants.WorkStartHour)
	for i := 0; i < maxSearchDays; i++ {
		day = c.at(day.AddDate(0, 0, 1), constants.WorkStartHour)
		if c.isWorkday(day) {
			return day, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w after %s", ErrNoWorkingDay, t.Format(constants.DateFormat))
}

// align moves t into working hours
func (c workCalendar) align(t time.Time) (time.Time, error) {
	switch {
	case !c.isWorkday(t), !t.Before(c.at(t, constants.WorkEndHour)):
		return c.nextWorkStart(t)
	case t.Before(c.at(t, constants.WorkStartHour)):
		return c.at(t, constants.WorkStartHour), nil
	}
	return t.In(c.loc), nil
}

type segment struct {
	Start, End time.Time
}

// split lays d out from start, carrying whatever exceeds closing time to
// the next working day.
func (c workCalendar) split(start time.Time, d time.Duration) ([]segment, error) {
	if d <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDuration, d)
	}
	cur, err := c.align(start)
	if err != nil {
		return nil, err
	}

	var segs []segment
	for d > 0 {
		closing := c.at(cur, constants.WorkEndHour)
		today := closing.Sub(cur)
		if d <= today {
			segs = append(segs, segment{Start: cur, End: cur.Add(d)})
			break
		}
		segs = append(segs, segment{Start: cur, End: closing})
		d -= today
		if cur, err = c.nextWorkStart(closing); err != nil {
			return nil, err
		}
	}
	return segs, nil
}

type routing struct {
	ID               int64
	Sequence         int
	ProcessName      string
	EquipmentGroupID int64
	SetupSeconds     int64
	UnitSeconds      int64
}

func (r routing) duration(quantity int) time.Duration {
	return time.Duration(r.SetupSeconds+r.UnitSeconds*int64(quantity)) * time.Second
}

type machine struct {
	ID   int64
	Name string
	// Free is when its last booked work ends, zero when idle
	Free time.Time
}

type placement struct {
	RoutingID     int64
	ProcessName   string
	EquipmentID   int64
	EquipmentName string
	Start, End    time.Time
}

// plan places routings in sequence. Each step starts no earlier than the
// previous one ends and runs on the member of its equipment group that
// can start first; ties go to the lower equipment id. A step spanning
// several days yields one placement per day.
func plan(cal workCalendar, from time.Time, routings []routing, quantity int, groups map[int64][]machine) ([]placement, error) {
	if len(routings) == 0 {
		return nil, ErrNoRoutings
	}

	ready := from.Truncate(time.Second)
	var out []placement
	for _, r := range routings {
		members := groups[r.EquipmentGroupID]
		if len(members) == 0 {
			return nil, fmt.Errorf("%w: process %q (group %d)", ErrNoEquipment, r.ProcessName, r.EquipmentGroupID)
		}

		best := -1
		var bestStart time.Time
		for i, m := range members {
			start := ready
			if m.Free.After(start) {
				start = m.Free
			}
			aligned, err := cal.align(start)
			if err != nil {
				return nil, err
			}
			if best < 0 || aligned.Before(bestStart) || (aligned.Equal(bestStart) && m.ID < members[best].ID) {
				best, bestStart = i, aligned
			}
		}

		segs, err := cal.split(bestStart, r.duration(quantity))
		if err != nil {
			return nil, fmt.Errorf("process %q: %w", r.ProcessName, err)
		}
		m := &members[best]
		for _, seg := range segs {
			out = append(out, placement{
				RoutingID:     r.ID,
				ProcessName:   r.ProcessName,
				EquipmentID:   m.ID,
				EquipmentName: m.Name,
				Start:         seg.Start,
				End:           seg.End,
			})
		}
		ready = segs[len(segs)-1].End
		m.Free = ready
	}
	return out, nil
}

// feasible compares the planned completion against the desired deadline.
// No deadline, or one that cannot be read, is always met.
func feasible(completion time.Time, desired *string, loc *time.Location) bool {
	if desired == nil || *desired == "" {
		return true
	}
	deadline, err := parseLocal(*desired, loc)
	if err != nil {
		return true
	}
	return !completion.After(deadline)
}

// parseLocal reads RFC 3339 timestamps, zone-less timestamps and bare
// dates, the latter two in loc.
func parseLocal(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04", constants.DateFormat} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
