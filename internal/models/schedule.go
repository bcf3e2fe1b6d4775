package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ScheduleRecord is one equipment/time assignment for a single process step of an order.
// The display fields are denormalized by the server and may be absent.
type ScheduleRecord struct {
	ID                 int64     `json:"id" yaml:"id"`
	OrderID            int64     `json:"order_id" yaml:"order_id"`
	ProcessRoutingID   int64     `json:"process_routing_id" yaml:"process_routing_id"`
	EquipmentID        int64     `json:"equipment_id" yaml:"equipment_id"`
	StartDateTime      time.Time `json:"start_datetime" yaml:"start_datetime"`
	EndDateTime        time.Time `json:"end_datetime" yaml:"end_datetime"`
	OrderNumber        *string   `json:"order_number,omitempty" yaml:"order_number,omitempty"`
	ProductName        *string   `json:"product_name,omitempty" yaml:"product_name,omitempty"`
	ProcessName        *string   `json:"process_name,omitempty" yaml:"process_name,omitempty"`
	EquipmentName      *string   `json:"equipment_name,omitempty" yaml:"equipment_name,omitempty"`
	EquipmentGroupName *string   `json:"equipment_group_name,omitempty" yaml:"equipment_group_name,omitempty"`
	CustomerName       *string   `json:"customer_name,omitempty" yaml:"customer_name,omitempty"`
}

// UnmarshalJSON reads start and end through ParseTimestamp, so values
// without a zone offset decode as local time. Absent values stay zero.
func (r *ScheduleRecord) UnmarshalJSON(data []byte) error {
	type plain ScheduleRecord
	var aux struct {
		plain
		Start string `json:"start_datetime"`
		End   string `json:"end_datetime"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	start, err := optionalTimestamp(aux.Start)
	if err != nil {
		return fmt.Errorf("start_datetime: %w", err)
	}
	end, err := optionalTimestamp(aux.End)
	if err != nil {
		return fmt.Errorf("end_datetime: %w", err)
	}
	*r = ScheduleRecord(aux.plain)
	r.StartDateTime, r.EndDateTime = start, end
	return nil
}

func optionalTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return ParseTimestamp(s)
}

// ScheduleUpdate is a partial update proposed by the client. Nil fields are left unchanged.
type ScheduleUpdate struct {
	StartDateTime *time.Time `json:"start_datetime,omitempty"`
	EndDateTime   *time.Time `json:"end_datetime,omitempty"`
	EquipmentID   *int64     `json:"equipment_id,omitempty"`
}

// ScheduleQuery selects the schedule records shown in a window.
// StartDate and EndDate are YYYY-MM-DD.
type ScheduleQuery struct {
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
	EquipmentGroupID *int64 `json:"equipment_group_id,omitempty"`
}

// EquipmentGroup is a set of interchangeable machines
type EquipmentGroup struct {
	ID          int64   `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Description *string `json:"description,omitempty" yaml:"description,omitempty"`
}

// StringValue returns the pointed-to value or fallback when p is nil or empty
func StringValue(p *string, fallback string) string {
	if p == nil || *p == "" {
		return fallback
	}
	return *p
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}
