// Package timerange derives the visible schedule window from a cursor date and
// a granularity, and moves the cursor by one granularity unit.
package timerange

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/shopline/internal/constants"
	"github.com/julianstephens/shopline/internal/locale"
	"github.com/julianstephens/shopline/internal/utils"
)

// Window is an inclusive display range and its human label
type Window struct {
	Start time.Time
	End   time.Time
	Label string
}

// StartDate returns the window start as YYYY-MM-DD
func (w Window) StartDate() string {
	return utils.FormatDate(w.Start)
}

// EndDate returns the window end as YYYY-MM-DD
func (w Window) EndDate() string {
	return utils.FormatDate(w.End)
}

// Contains reports whether t falls inside the window
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// ParseGranularity accepts Day/Week/Month in any case
func ParseGranularity(s string) (constants.Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day", "d":
		return constants.GranularityDay, nil
	case "week", "w":
		return constants.GranularityWeek, nil
	case "month", "m":
		return constants.GranularityMonth, nil
	}
	return "", fmt.Errorf("invalid view %q (expected Day, Week or Month)", s)
}

// Compute returns the window containing cursor for the given granularity.
// Unknown granularities are treated as Day.
func Compute(cursor time.Time, g constants.Granularity, loc locale.Locale) Window {
	var w Window
	switch g {
	case constants.GranularityWeek:
		w.Start = utils.StartOfWeek(cursor, loc.WeekStart)
		w.End = utils.EndOfWeek(cursor, loc.WeekStart)
	case constants.GranularityMonth:
		w.Start = utils.StartOfMonth(cursor)
		w.End = utils.EndOfMonth(cursor)
	default:
		w.Start = utils.StartOfDay(cursor)
		w.End = utils.EndOfDay(cursor)
	}
	w.Label = Label(cursor, g, loc)
	return w
}

// Label renders the human label for the window containing cursor
func Label(cursor time.Time, g constants.Granularity, loc locale.Locale) string {
	switch g {
	case constants.GranularityWeek:
		start := utils.StartOfWeek(cursor, loc.WeekStart)
		end := utils.EndOfWeek(cursor, loc.WeekStart)
		if loc.IsJapanese() {
			return fmt.Sprintf("%d年%d月%d日 - %d月%d日",
				start.Year(), int(start.Month()), start.Day(), int(end.Month()), end.Day())
		}
		return fmt.Sprintf("%s - %s", start.Format("Jan 2 2006"), end.Format("Jan 2"))
	case constants.GranularityMonth:
		if loc.IsJapanese() {
			return fmt.Sprintf("%d年%d月", cursor.Year(), int(cursor.Month()))
		}
		return cursor.Format("January 2006")
	default:
		if loc.IsJapanese() {
			return fmt.Sprintf("%d年%d月%d日 (%s)",
				cursor.Year(), int(cursor.Month()), cursor.Day(), loc.Weekday(cursor.Weekday()))
		}
		return cursor.Format("Mon, Jan 2 2006")
	}
}

// Shift moves cursor by n units of granularity g. Months are clamped to the
// target month's length.
func Shift(cursor time.Time, g constants.Granularity, n int) time.Time {
	switch g {
	case constants.GranularityWeek:
		return cursor.AddDate(0, 0, 7*n)
	case constants.GranularityMonth:
		return utils.AddMonthsClamped(cursor, n)
	default:
		return cursor.AddDate(0, 0, n)
	}
}

// Advance moves cursor forward by one unit
func Advance(cursor time.Time, g constants.Granularity) time.Time {
	return Shift(cursor, g, 1)
}

// Retreat moves cursor back by one unit
func Retreat(cursor time.Time, g constants.Granularity) time.Time {
	return Shift(cursor, g, -1)
}

// Cursor is the navigable position of a schedule view. Each change bumps
// Revision so callers can tell that the visible window moved and the task
// list must be refetched.
type Cursor struct {
	at          time.Time
	granularity constants.Granularity
	loc         locale.Locale
	now         func() time.Time
	revision    uint64
}

// NewCursor creates a cursor at start. now supplies the moment used by Today; nil means time.Now.
func NewCursor(start time.Time, g constants.Granularity, loc locale.Locale, now func() time.Time) *Cursor {
	if now == nil {
		now = time.Now
	}
	return &Cursor{at: start, granularity: g, loc: loc, now: now}
}

func (c *Cursor) At() time.Time                      { return c.at }
func (c *Cursor) Granularity() constants.Granularity { return c.granularity }
func (c *Cursor) Revision() uint64                   { return c.revision }

// Window returns the window the cursor currently shows
func (c *Cursor) Window() Window {
	return Compute(c.at, c.granularity, c.loc)
}

func (c *Cursor) Next() Window {
	c.at = Advance(c.at, c.granularity)
	c.revision++
	return c.Window()
}

func (c *Cursor) Prev() Window {
	c.at = Retreat(c.at, c.granularity)
	c.revision++
	return c.Window()
}

// Today returns the cursor to the current moment
func (c *Cursor) Today() Window {
	c.at = c.now()
	c.revision++
	return c.Window()
}

// SetGranularity switches the view unit without moving the cursor
func (c *Cursor) SetGranularity(g constants.Granularity) Window {
	if g != c.granularity {
		c.granularity = g
		c.revision++
	}
	return c.Window()
}
