package models

// CalendarOverride marks one calendar day as a holiday or a working day.
// Writing a date that already has an override replaces it.
type CalendarOverride struct {
	ID        int64   `json:"id,omitempty" yaml:"id,omitempty"`
	Date      string  `json:"date" yaml:"date"` // YYYY-MM-DD
	IsHoliday bool    `json:"is_holiday" yaml:"is_holiday"`
	Note      *string `json:"note" yaml:"note"`
}

// BatchUpdateRequest applies one override to every listed date
type BatchUpdateRequest struct {
	Dates     []string `json:"dates"`
	IsHoliday bool     `json:"is_holiday"`
	Note      *string  `json:"note"`
}

// BatchUpdateResult reports how many of the requested dates were written
type BatchUpdateResult struct {
	UpdatedCount int `json:"updated_count" yaml:"updated_count"`
	TotalCount   int `json:"total_count" yaml:"total_count"`
}
