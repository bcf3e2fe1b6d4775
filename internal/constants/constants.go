package constants

import "time"

// Granularity is the calendar unit governing the visible window and navigation step
type Granularity string

// GroupMode selects how schedule records are partitioned into containers
type GroupMode string

// ColorMode selects how bar colors are assigned
type ColorMode string

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	AppName            = "shopline"
	DefaultKeyringUser = "database-connection"
	DefaultConfigDir   = "~/.config/shopline"
	DefaultConfigFile  = "config.yaml"
	DefaultLocalDB     = "~/.config/shopline/shopline.db"
	EnvPrefix          = "SHOPLINE"
	Version            = "v0.3.0"

	// DateFormat is the calendar date format used on the wire and in query keys (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the short clock format used in listings (HH:MM)
	TimeFormat = "15:04"

	// DateTimeFormat is the short month/day clock format used in tooltips and previews
	DateTimeFormat = "01/02 15:04"

	// Granularities
	GranularityDay   Granularity = "Day"
	GranularityWeek  Granularity = "Week"
	GranularityMonth Granularity = "Month"

	// Group modes
	GroupNone           GroupMode = "none"
	GroupOrder          GroupMode = "order"
	GroupEquipmentGroup GroupMode = "equipment_group"

	// Color modes
	ColorByProduct ColorMode = "product"
	ColorByProcess ColorMode = "process"

	// Order statuses
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusCompleted  OrderStatus = "completed"

	// Grouping sentinels for records missing their group key
	UnknownOrderKey        = "Unknown"
	UnclassifiedGroupKey   = "unclassified"
	PlaceholderProcessName = "Process"
	PlaceholderProductName = "default"
	PlaceholderText        = "-"
	InvalidDatePlaceholder = "invalid date"

	// Cache operation names; these prefix every cache key
	QuerySchedules       = "schedules"
	QueryEquipmentGroups = "equipment-groups"
	QueryOrders          = "orders"
	QueryCalendars       = "calendars"

	// Calendar preset notes
	NoteHoliday = "Holiday"
	NoteWorkday = "Workday"

	// Local backend working hours for the stand-in planner
	WorkStartHour = 9
	WorkEndHour   = 17

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "shopline-"
	BackupFileSuffix = ".db"

	// Move step sizes for keyboard gestures in the TUI
	DayMoveStep   = 15 * time.Minute
	WeekMoveStep  = time.Hour
	MonthMoveStep = 24 * time.Hour
)
