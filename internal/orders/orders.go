// Package orders runs the order workflow: preview a deadline, register the
// order, then generate its schedule. Registration and confirmation are two
// separate service calls with no transaction around them, so the combined
// action can stop halfway and says so.
package orders

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/julianstephens/shopline/internal/cache"
	"github.com/julianstephens/shopline/internal/constants"
	apperrors "github.com/julianstephens/shopline/internal/errors"
	"github.com/julianstephens/shopline/internal/logger"
	"github.com/julianstephens/shopline/internal/models"
)

// Backend is the part of the service the workflow calls
type Backend interface {
	SimulateOrder(ctx context.Context, req models.SimulateRequest) (*models.SimulationResult, error)
	CreateOrder(ctx context.Context, req models.OrderCreate) (*models.Order, error)
	ConfirmOrder(ctx context.Context, orderID int64) error
}

// Draft is the order form as typed by the user
type Draft struct {
	OrderNo         string
	ProductID       string
	Quantity        string
	DesiredDeadline string
}

var (
	ErrInvalidProduct  = apperrors.Validation("product id must be a positive integer")
	ErrInvalidQuantity = apperrors.Validation("quantity must be an integer of at least 1")
	ErrInvalidDeadline = apperrors.Validation("desired deadline must be a date or date and time")
	ErrMissingOrderNo  = apperrors.Validation("order number is required")
	ErrNotSimulated    = apperrors.Validation("run a simulation before confirming the order")
	ErrDraftChanged    = apperrors.Validation("order changed since the last simulation, simulate again")
)

var deadlineLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	constants.DateFormat,
}

type parsedDraft struct {
	productID int64
	quantity  int
	deadline  *string
}

func (d Draft) parse() (parsedDraft, error) {
	var p parsedDraft

	id, err := strconv.ParseInt(strings.TrimSpace(d.ProductID), 10, 64)
	if err != nil || id <= 0 {
		return p, ErrInvalidProduct
	}
	qty, err := strconv.Atoi(strings.TrimSpace(d.Quantity))
	if err != nil || qty < 1 {
		return p, ErrInvalidQuantity
	}
	p.productID, p.quantity = id, qty

	if raw := strings.TrimSpace(d.DesiredDeadline); raw != "" {
		for _, layout := range deadlineLayouts {
			if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
				s := t.Format("2006-01-02T15:04:05")
				p.deadline = &s
				break
			}
		}
		if p.deadline == nil {
			return p, ErrInvalidDeadline
		}
	}
	return p, nil
}

// Outcome classifies the result of the combined confirm action
type Outcome int

const (
	// OutcomeConfirmed means the order exists and its schedule was generated
	OutcomeConfirmed Outcome = iota
	// OutcomeNothingCreated means registration failed and nothing changed
	OutcomeNothingCreated
	// OutcomeCreatedUnconfirmed means the order exists without a schedule
	OutcomeCreatedUnconfirmed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeConfirmed:
		return "confirmed"
	case OutcomeNothingCreated:
		return "nothing created"
	case OutcomeCreatedUnconfirmed:
		return "created, unconfirmed"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Result reports what the combined confirm action achieved
type Result struct {
	Outcome Outcome
	// Order is set whenever registration succeeded
	Order *models.Order
	Err   error
}

// Message is the user-facing summary of the result
func (r Result) Message() string {
	switch r.Outcome {
	case OutcomeConfirmed:
		return fmt.Sprintf("Order %s confirmed and its schedule was generated", r.Order.OrderNo)
	case OutcomeCreatedUnconfirmed:
		return fmt.Sprintf("Order %s was registered but confirmation failed; retry confirmation against the existing order (id %d): %v",
			r.Order.OrderNo, r.Order.ID, r.Err)
	default:
		return fmt.Sprintf("Order was not registered: %v", r.Err)
	}
}

// Orchestrator holds the last successful simulation for one user session
type Orchestrator struct {
	backend Backend
	cache   *cache.Cache

	mu        sync.Mutex
	preview   *Preview
	simulated parsedDraft
	// pending is an order registered by ConfirmOrder whose confirmation failed
	pending *pendingOrder
}

type pendingOrder struct {
	order *models.Order
	draft parsedDraft
}

func New(backend Backend, c *cache.Cache) *Orchestrator {
	return &Orchestrator{backend: backend, cache: c}
}

// Preview returns the held simulation, or nil after a failed or missing one
func (o *Orchestrator) Preview() *Preview {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.preview
}

// Pending returns the order left registered but unconfirmed by the last
// ConfirmOrder, or nil
func (o *Orchestrator) Pending() *models.Order {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pending == nil {
		return nil
	}
	return o.pending.order
}

// Reset forgets the held simulation
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.preview = nil
}

// Simulate previews the deadline of draft. It may be repeated freely and
// never changes service state. Any failure clears the held preview.
func (o *Orchestrator) Simulate(ctx context.Context, d Draft) (*Preview, error) {
	p, err := d.parse()
	if err != nil {
		o.Reset()
		return nil, err
	}

	res, err := o.backend.SimulateOrder(ctx, models.SimulateRequest{
		ProductID:       p.productID,
		Quantity:        p.quantity,
		DesiredDeadline: p.deadline,
	})
	if err != nil {
		o.Reset()
		logger.Warn("Simulation failed", "product_id", p.productID, "quantity", p.quantity, "error", err)
		return nil, err
	}

	preview := &Preview{Result: *res, DesiredDeadline: p.deadline}
	o.mu.Lock()
	o.preview = preview
	o.simulated = p
	o.mu.Unlock()
	logger.Debug("Simulation completed", "product_id", p.productID, "deadline", res.CalculatedDeadline)
	return preview, nil
}

// Create registers the order. It is not idempotent: calling it twice
// registers two orders.
func (o *Orchestrator) Create(ctx context.Context, d Draft) (*models.Order, error) {
	if strings.TrimSpace(d.OrderNo) == "" {
		return nil, ErrMissingOrderNo
	}
	p, err := d.parse()
	if err != nil {
		return nil, err
	}
	return o.create(ctx, strings.TrimSpace(d.OrderNo), p)
}

func (o *Orchestrator) create(ctx context.Context, orderNo string, p parsedDraft) (*models.Order, error) {
	order, err := o.backend.CreateOrder(ctx, models.OrderCreate{
		OrderNo:         orderNo,
		ProductID:       p.productID,
		Quantity:        p.quantity,
		DesiredDeadline: p.deadline,
	})
	if err != nil {
		return nil, err
	}
	o.cache.Invalidate(constants.QueryOrders)
	logger.Info("Order registered", "order_no", order.OrderNo, "order_id", order.ID)
	return order, nil
}

// Confirm generates the schedule of an existing order
func (o *Orchestrator) Confirm(ctx context.Context, orderID int64) error {
	if orderID <= 0 {
		return apperrors.Validationf("invalid order id %d", orderID)
	}
	if err := o.backend.ConfirmOrder(ctx, orderID); err != nil {
		return err
	}
	o.cache.Invalidate(constants.QueryOrders)
	o.cache.Invalidate(constants.QuerySchedules)
	logger.Info("Order confirmed", "order_id", orderID)
	return nil
}

// ConfirmOrder registers draft and then confirms it, strictly in that
// order. It needs a successful Simulate of the same draft first. When
// registration succeeds but confirmation fails the order is left in place
// and the result says so. Calling ConfirmOrder again for that order number
// only retries confirmation; it never registers a second order.
func (o *Orchestrator) ConfirmOrder(ctx context.Context, d Draft) (Result, error) {
	orderNo := strings.TrimSpace(d.OrderNo)
	if orderNo == "" {
		return Result{Outcome: OutcomeNothingCreated, Err: ErrMissingOrderNo}, ErrMissingOrderNo
	}
	p, err := d.parse()
	if err != nil {
		return Result{Outcome: OutcomeNothingCreated, Err: err}, err
	}

	o.mu.Lock()
	preview, simulated, pending := o.preview, o.simulated, o.pending
	o.mu.Unlock()
	if pending != nil && pending.order.OrderNo == orderNo {
		if !sameDraft(pending.draft, p) {
			err := apperrors.Validationf("order %s is already registered (id %d) with different details; confirm it or use another order number",
				orderNo, pending.order.ID)
			return Result{Outcome: OutcomeCreatedUnconfirmed, Order: pending.order, Err: err}, err
		}
		logger.Info("Retrying confirmation of registered order", "order_no", orderNo, "order_id", pending.order.ID)
		return o.confirmCreated(ctx, pending.order)
	}
	if preview == nil {
		return Result{Outcome: OutcomeNothingCreated, Err: ErrNotSimulated}, ErrNotSimulated
	}
	if !sameDraft(simulated, p) {
		return Result{Outcome: OutcomeNothingCreated, Err: ErrDraftChanged}, ErrDraftChanged
	}

	order, err := o.create(ctx, orderNo, p)
	if err != nil {
		return Result{Outcome: OutcomeNothingCreated, Err: err}, err
	}
	res, err := o.confirmCreated(ctx, order)
	if res.Outcome == OutcomeCreatedUnconfirmed {
		o.mu.Lock()
		o.pending = &pendingOrder{order: order, draft: p}
		o.mu.Unlock()
	}
	return res, err
}

// RetryConfirm re-issues confirmation for an order that is already registered
func (o *Orchestrator) RetryConfirm(ctx context.Context, order *models.Order) (Result, error) {
	return o.confirmCreated(ctx, order)
}

func (o *Orchestrator) confirmCreated(ctx context.Context, order *models.Order) (Result, error) {
	if err := o.Confirm(ctx, order.ID); err != nil {
		logger.Warn("Order registered but not confirmed", "order_no", order.OrderNo, "order_id", order.ID, "error", err)
		return Result{Outcome: OutcomeCreatedUnconfirmed, Order: order, Err: err}, err
	}
	confirmed := *order
	confirmed.Status = constants.OrderStatusConfirmed
	o.mu.Lock()
	o.preview = nil
	if o.pending != nil && o.pending.order.ID == order.ID {
		o.pending = nil
	}
	o.mu.Unlock()
	return Result{Outcome: OutcomeConfirmed, Order: &confirmed}, nil
}

func sameDraft(a, b parsedDraft) bool {
	if a.productID != b.productID || a.quantity != b.quantity {
		return false
	}
	if (a.deadline == nil) != (b.deadline == nil) {
		return false
	}
	return a.deadline == nil || *a.deadline == *b.deadline
}
