package orders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/shopline/internal/cache"
	"github.com/julianstephens/shopline/internal/cli"
	"github.com/julianstephens/shopline/internal/constants"
	"github.com/julianstephens/shopline/internal/models"
	workflow "github.com/julianstephens/shopline/internal/orders"
)

type processOutput struct {
	Process   string `json:"process" yaml:"process"`
	Equipment string `json:"equipment" yaml:"equipment"`
	Start     string `json:"start" yaml:"start"`
	End       string `json:"end" yaml:"end"`
}

type previewOutput struct {
	CalculatedDeadline string `json:"calculated_deadline" yaml:"calculated_deadline"`
	// Feasible is only reported against a desired deadline
	Feasible  *bool           `json:"is_feasible,omitempty" yaml:"is_feasible,omitempty"`
	Processes []processOutput `json:"process_schedules" yaml:"process_schedules"`
}

func newPreviewOutput(p *workflow.Preview) previewOutput {
	out := previewOutput{CalculatedDeadline: p.Deadline("2006-01-02 15:04")}
	if p.ShowFeasibility() {
		feasible := p.Feasible()
		out.Feasible = &feasible
	}
	for _, r := range p.Rows(constants.DateTimeFormat) {
		out.Processes = append(out.Processes, processOutput(r))
	}
	return out
}

func renderPreview(w io.Writer, p *workflow.Preview) {
	fmt.Fprintf(w, "%s %s\n", cli.TitleStyle.Render("Calculated deadline:"), p.Deadline("2006-01-02 15:04"))
	if p.ShowFeasibility() {
		if p.Feasible() {
			fmt.Fprintln(w, cli.SuccessStyle.Render("✓ Meets the desired deadline"))
		} else {
			fmt.Fprintln(w, cli.WarningStyle.Render("⚠ Misses the desired deadline"))
		}
	}
	rows := p.Rows(constants.DateTimeFormat)
	if len(rows) == 0 {
		return
	}
	t := cli.NewTable("Process", "Equipment", "Start", "End")
	for _, r := range rows {
		t.Row(r.Process, r.Equipment, r.Start, r.End)
	}
	fmt.Fprintln(w, t.Render())
}

type SimulateCmd struct {
	Product  string `short:"p" required:"" help:"Product id."`
	Quantity string `short:"n" required:"" help:"Quantity to produce."`
	Deadline string `short:"d" help:"Desired deadline (YYYY-MM-DD or YYYY-MM-DD HH:MM)."`
}

func (c *SimulateCmd) Run(ctx *cli.Context) error {
	backend, err := ctx.Backend()
	if err != nil {
		return err
	}
	orch := workflow.New(backend, ctx.Cache)
	preview, err := orch.Simulate(context.Background(), workflow.Draft{
		ProductID:       c.Product,
		Quantity:        c.Quantity,
		DesiredDeadline: c.Deadline,
	})
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}
	return ctx.Emit(newPreviewOutput(preview), func(w io.Writer) error {
		renderPreview(w, preview)
		return nil
	})
}

type NewCmd struct {
	OrderNo     string `name:"order-no" short:"o" help:"Order number."`
	Product     string `short:"p" help:"Product id."`
	Quantity    string `short:"n" help:"Quantity to produce."`
	Deadline    string `short:"d" help:"Desired deadline (YYYY-MM-DD or YYYY-MM-DD HH:MM)."`
	Interactive bool   `short:"i" help:"Fill in the order with a form."`
	Yes         bool   `short:"y" help:"Do not ask before registering."`
	NoConfirm   bool   `name:"no-confirm" help:"Register the order without generating its schedule."`
}

func (c *NewCmd) draft() workflow.Draft {
	return workflow.Draft{
		OrderNo:         c.OrderNo,
		ProductID:       c.Product,
		Quantity:        c.Quantity,
		DesiredDeadline: c.Deadline,
	}
}

func (c *NewCmd) complete() bool {
	return strings.TrimSpace(c.OrderNo) != "" && strings.TrimSpace(c.Product) != "" && strings.TrimSpace(c.Quantity) != ""
}

func required(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", name)
		}
		return nil
	}
}

func positiveInt(name string) func(string) error {
	return func(s string) error {
		i, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || i < 1 {
			return fmt.Errorf("%s must be a positive number", name)
		}
		return nil
	}
}

func newOrderForm(c *NewCmd) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Order number").
				Value(&c.OrderNo).
				Validate(required("order number")),
			huh.NewInput().
				Title("Product id").
				Value(&c.Product).
				Validate(positiveInt("product id")),
			huh.NewInput().
				Title("Quantity").
				Value(&c.Quantity).
				Validate(positiveInt("quantity")),
			huh.NewInput().
				Title("Desired deadline").
				Description("Optional, YYYY-MM-DD or YYYY-MM-DD HH:MM").
				Value(&c.Deadline),
		),
	).WithTheme(huh.ThemeDracula())
}

func (c *NewCmd) Run(ctx *cli.Context) error {
	if c.Interactive || !c.complete() {
		if err := newOrderForm(c).Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				fmt.Fprintln(ctx.Stderr(), "Order cancelled.")
				return nil
			}
			return err
		}
	}

	backend, err := ctx.Backend()
	if err != nil {
		return err
	}
	orch := workflow.New(backend, ctx.Cache)
	bg := context.Background()

	preview, err := orch.Simulate(bg, c.draft())
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}
	if ctx.Output == cli.FormatTable {
		renderPreview(ctx.Stdout(), preview)
	}

	if !c.Yes {
		proceed := false
		title := "Register the order and generate its schedule?"
		if c.NoConfirm {
			title = "Register the order?"
		}
		if err := huh.NewConfirm().Title(title).Value(&proceed).Run(); err != nil && !errors.Is(err, huh.ErrUserAborted) {
			return err
		}
		if !proceed {
			fmt.Fprintln(ctx.Stderr(), "Order cancelled.")
			return nil
		}
	}

	if c.NoConfirm {
		order, err := orch.Create(bg, c.draft())
		if err != nil {
			return fmt.Errorf("order was not registered: %w", err)
		}
		ctx.Notifier().Success(fmt.Sprintf("Order %s registered (id %d)", order.OrderNo, order.ID))
		return emitOrder(ctx, order)
	}

	res, err := orch.ConfirmOrder(bg, c.draft())
	if err != nil {
		ctx.Notifier().Error(res.Message())
		if res.Order != nil {
			_ = emitOrder(ctx, res.Order)
		}
		return err
	}
	ctx.Notifier().Success(res.Message())
	return emitOrder(ctx, res.Order)
}

type ConfirmCmd struct {
	ID int64 `arg:"" help:"Id of a registered order."`
}

func (c *ConfirmCmd) Run(ctx *cli.Context) error {
	backend, err := ctx.Backend()
	if err != nil {
		return err
	}
	if err := workflow.New(backend, ctx.Cache).Confirm(context.Background(), c.ID); err != nil {
		return fmt.Errorf("confirmation failed: %w", err)
	}
	ctx.Notifier().Success(fmt.Sprintf("Order %d confirmed and its schedule was generated", c.ID))
	return nil
}

type ListCmd struct {
	Status string `short:"s" help:"Only list orders in this status (pending, confirmed, in_progress, completed)."`
}

var statuses = []constants.OrderStatus{
	constants.OrderStatusPending,
	constants.OrderStatusConfirmed,
	constants.OrderStatusInProgress,
	constants.OrderStatusCompleted,
}

func parseStatus(s string) (constants.OrderStatus, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, st := range statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid status %q (expected pending, confirmed, in_progress or completed)", s)
}

func (c *ListCmd) Run(ctx *cli.Context) error {
	var status constants.OrderStatus
	if c.Status != "" {
		st, err := parseStatus(c.Status)
		if err != nil {
			return err
		}
		status = st
	}
	backend, err := ctx.Backend()
	if err != nil {
		return err
	}
	all, err := cache.Get(context.Background(), ctx.Cache, cache.NewKey(constants.QueryOrders), backend.ListOrders)
	if err != nil {
		return fmt.Errorf("failed to list orders: %w", err)
	}

	orders := make([]models.Order, 0, len(all))
	for _, o := range all {
		if status == "" || o.Status == status {
			orders = append(orders, o)
		}
	}

	return ctx.Emit(orders, func(w io.Writer) error {
		if len(orders) == 0 {
			fmt.Fprintln(w, "No orders found.")
			return nil
		}
		fmt.Fprintln(w, renderOrders(ctx, orders))
		return nil
	})
}

func renderOrders(ctx *cli.Context, orders []models.Order) string {
	t := cli.NewTable("ID", "Order", "Product", "Qty", "Desired", "Confirmed", "Status")
	for _, o := range orders {
		status := ctx.Locale.StatusLabel(o.Status)
		if o.Status == constants.OrderStatusPending {
			status = cli.WarningStyle.Render(status)
		}
		t.Row(
			strconv.FormatInt(o.ID, 10),
			o.OrderNo,
			strconv.FormatInt(o.ProductID, 10),
			strconv.Itoa(o.Quantity),
			deadline(o.DesiredDeadline),
			deadline(o.ConfirmedDeadline),
			status,
		)
	}
	return t.Render()
}

func deadline(p *string) string {
	if p == nil || *p == "" {
		return constants.PlaceholderText
	}
	t, err := models.ParseTimestamp(*p)
	if err != nil {
		return constants.InvalidDatePlaceholder
	}
	return t.Format("2006-01-02 15:04")
}

func emitOrder(ctx *cli.Context, o *models.Order) error {
	return ctx.Emit(o, func(w io.Writer) error {
		fmt.Fprintln(w, renderOrders(ctx, []models.Order{*o}))
		return nil
	})
}
