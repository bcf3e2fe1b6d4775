package models

import (
	"time"

	"github.com/julianstephens/shopline/internal/constants"
)

// Order is a persisted customer order. Status starts pending and becomes
// confirmed once its schedule has been generated.
type Order struct {
	ID                int64                 `json:"id" yaml:"id"`
	OrderNo           string                `json:"order_no" yaml:"order_no"`
	ProductID         int64                 `json:"product_id" yaml:"product_id"`
	Quantity          int                   `json:"quantity" yaml:"quantity"`
	DesiredDeadline   *string               `json:"desired_deadline,omitempty" yaml:"desired_deadline,omitempty"`
	ConfirmedDeadline *string               `json:"confirmed_deadline,omitempty" yaml:"confirmed_deadline,omitempty"`
	Status            constants.OrderStatus `json:"status" yaml:"status"`
	CreatedAt         string                `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt         string                `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// OrderCreate is the request body for creating an order
type OrderCreate struct {
	OrderNo         string  `json:"order_no"`
	ProductID       int64   `json:"product_id"`
	Quantity        int     `json:"quantity"`
	DesiredDeadline *string `json:"desired_deadline,omitempty"`
}

// SimulateRequest is the request body for a deadline simulation
type SimulateRequest struct {
	ProductID       int64   `json:"product_id"`
	Quantity        int     `json:"quantity"`
	DesiredDeadline *string `json:"desired_deadline,omitempty"`
}

// ProcessSchedule is one process time window in a simulation preview.
// Times are kept as received so a malformed value degrades only its own row.
type ProcessSchedule struct {
	ProcessName   string  `json:"process_name" yaml:"process_name"`
	StartTime     string  `json:"start_time" yaml:"start_time"`
	EndTime       string  `json:"end_time" yaml:"end_time"`
	EquipmentName *string `json:"equipment_name,omitempty" yaml:"equipment_name,omitempty"`
}

// Window parses the start and end times of the process
func (p ProcessSchedule) Window() (time.Time, time.Time, error) {
	start, err := ParseTimestamp(p.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := ParseTimestamp(p.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// SimulationResult is a non-persistent deadline preview. It is never a
// guarantee of the schedule generated on confirmation.
type SimulationResult struct {
	CalculatedDeadline string            `json:"calculated_deadline" yaml:"calculated_deadline"`
	IsFeasible         bool              `json:"is_feasible" yaml:"is_feasible"`
	ProcessSchedules   []ProcessSchedule `json:"process_schedules" yaml:"process_schedules"`
}

// Deadline parses the calculated deadline
func (r SimulationResult) Deadline() (time.Time, error) {
	return ParseTimestamp(r.CalculatedDeadline)
}

// ParseTimestamp accepts RFC 3339 timestamps with or without a zone offset.
// Zone-less values are read as local time, matching how the service writes them.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05", s, time.Local)
}
