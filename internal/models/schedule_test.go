package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleRecordTimestamps(t *testing.T) {
	var rec ScheduleRecord
	require.NoError(t, json.Unmarshal([]byte(`{"id": 4, "order_number": "ORD-1",
		"start_datetime": "2026-01-26T09:00:00+09:00", "end_datetime": "2026-01-26T11:30:00"}`), &rec))
	assert.Equal(t, int64(4), rec.ID)
	assert.Equal(t, "ORD-1", StringValue(rec.OrderNumber, ""))
	assert.True(t, rec.StartDateTime.Equal(time.Date(2026, 1, 26, 0, 0, 0, 0, time.UTC)))
	assert.True(t, rec.EndDateTime.Equal(time.Date(2026, 1, 26, 11, 30, 0, 0, time.Local)))

	var partial ScheduleRecord
	require.NoError(t, json.Unmarshal([]byte(`{"id": 5}`), &partial))
	assert.True(t, partial.StartDateTime.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"id": 6, "start_datetime": "soon"}`), &partial))
}
