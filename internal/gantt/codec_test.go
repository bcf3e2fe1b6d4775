package gantt

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/julianstephens/shopline/internal/errors"
)

func TestLeafIDRoundTrip(t *testing.T) {
	for _, id := range []int64{1, 9, 10, 12345, math.MaxInt64} {
		got, err := DecodeLeafID(EncodeLeafID(id))
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
}

func TestDecodeLeafIDRejects(t *testing.T) {
	tests := []string{
		"",
		"schedule-",
		"schedule-0",
		"schedule-007",
		"schedule--3",
		"schedule-+3",
		"schedule-3a",
		"schedule- 3",
		" schedule-3",
		"task-3",
		"3",
		"order-group:ORD-001",
		"schedule-" + strconv.FormatUint(math.MaxUint64, 10),
	}

	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			_, err := DecodeLeafID(in)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidTaskID)
			assert.True(t, apperrors.IsValidation(err))
		})
	}
}

func TestContainerIDs(t *testing.T) {
	assert.Equal(t, "order-group:ORD-001", EncodeContainerID(GroupOrder, "ORD-001"))
	assert.Equal(t, "equipment-group:Lathe", EncodeContainerID(GroupEquipmentGroup, "Lathe"))
	assert.NotEqual(t, EncodeContainerID(GroupOrder, "X"), EncodeContainerID(GroupEquipmentGroup, "X"))
	assert.True(t, IsContainerID("equipment-group:"))
	assert.False(t, IsContainerID(EncodeLeafID(5)))
}
