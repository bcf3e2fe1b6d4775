package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/julianstephens/shopline/internal/timerange"
)

func day() timerange.Window {
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	return timerange.Window{Start: start, End: start.Add(24 * time.Hour)}
}

func at(h, m int) time.Time {
	return time.Date(2025, 1, 6, h, m, 0, 0, time.UTC)
}

func TestSpan(t *testing.T) {
	w := day()

	from, to, ok := Span(w, at(6, 0), at(12, 0), 24)
	assert.True(t, ok)
	assert.Equal(t, 6, from)
	assert.Equal(t, 12, to)

	// a short task still gets one column
	from, to, ok = Span(w, at(9, 0), at(9, 5), 24)
	assert.True(t, ok)
	assert.Equal(t, 1, to-from)

	// spans crossing the edges are clipped
	from, to, ok = Span(w, at(0, 0).Add(-3*time.Hour), at(3, 0), 24)
	assert.True(t, ok)
	assert.Equal(t, 0, from)
	assert.Equal(t, 3, to)

	_, _, ok = Span(w, at(0, 0).Add(-5*time.Hour), at(0, 0).Add(-1*time.Hour), 24)
	assert.False(t, ok)
	_, _, ok = Span(w, at(9, 0), at(10, 0), 0)
	assert.False(t, ok)
}

func TestEmptyView(t *testing.T) {
	m := New(80, 10)
	m.SetTasks(nil, day(), time.UTC)
	assert.Nil(t, m.Selected())
	assert.Equal(t, "No scheduled work in this window.", m.View())
}
