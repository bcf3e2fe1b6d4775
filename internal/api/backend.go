// Package api defines the schedule service contract and its HTTP client.
package api

import (
	"context"
	"time"

	"github.com/julianstephens/shopline/internal/models"
)

// Backend is the collaborator that owns schedules, orders and calendar
// overrides. The HTTP client talks to a remote service; the storage package
// implements the same contract against a local database.
type Backend interface {
	ListSchedules(ctx context.Context, q models.ScheduleQuery) ([]models.ScheduleRecord, error)
	UpdateSchedule(ctx context.Context, id int64, u models.ScheduleUpdate) (*models.ScheduleRecord, error)
	ListEquipmentGroups(ctx context.Context) ([]models.EquipmentGroup, error)

	SimulateOrder(ctx context.Context, req models.SimulateRequest) (*models.SimulationResult, error)
	CreateOrder(ctx context.Context, req models.OrderCreate) (*models.Order, error)
	// ConfirmOrder generates the schedule of an existing order
	ConfirmOrder(ctx context.Context, orderID int64) error
	ListOrders(ctx context.Context) ([]models.Order, error)

	ListCalendars(ctx context.Context, year int, month time.Month) ([]models.CalendarOverride, error)
	UpsertCalendar(ctx context.Context, o models.CalendarOverride) (*models.CalendarOverride, error)
	BatchUpdateCalendars(ctx context.Context, req models.BatchUpdateRequest) (*models.BatchUpdateResult, error)

	Close() error
}
