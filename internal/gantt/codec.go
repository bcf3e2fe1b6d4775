package gantt

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/julianstephens/shopline/internal/errors"
)

// GroupType is the partitioning a container stands for
type GroupType string

const (
	GroupOrder          GroupType = "order-group"
	GroupEquipmentGroup GroupType = "equipment-group"
)

// LeafIDPrefix precedes the decimal record id in every leaf id
const LeafIDPrefix = "schedule-"

// ErrInvalidTaskID is returned when a task id does not decode to a positive record id
var ErrInvalidTaskID = apperrors.Validation("invalid task id")

// EncodeLeafID returns the task id of the leaf for record id
func EncodeLeafID(id int64) string {
	return LeafIDPrefix + strconv.FormatInt(id, 10)
}

// DecodeLeafID recovers the record id from a leaf id. Only the exact form
// produced by EncodeLeafID is accepted: no sign, no leading zeros, no
// surrounding text, and the id must be positive.
func DecodeLeafID(taskID string) (int64, error) {
	digits, ok := strings.CutPrefix(taskID, LeafIDPrefix)
	if !ok || digits == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTaskID, taskID)
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTaskID, taskID)
		}
	}
	if digits[0] == '0' {
		return 0, fmt.Errorf("%w: %q is not positive or has leading zeros", ErrInvalidTaskID, taskID)
	}

	id, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidTaskID, taskID)
	}
	return id, nil
}

// EncodeContainerID returns the id of the container for group key. Container
// ids use a colon separator so they can never match the leaf form.
func EncodeContainerID(group GroupType, key string) string {
	return string(group) + ":" + key
}

// IsContainerID reports whether id names a container
func IsContainerID(id string) bool {
	return strings.HasPrefix(id, string(GroupOrder)+":") ||
		strings.HasPrefix(id, string(GroupEquipmentGroup)+":")
}
