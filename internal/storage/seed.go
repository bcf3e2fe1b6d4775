package storage

import (
	"bytes"
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/shopline/internal/constants"
	apperrors "github.com/julianstephens/shopline/internal/errors"
	"github.com/julianstephens/shopline/internal/logger"
)

//go:embed sample_seed.yaml
var sampleSeed []byte

// Seed is master data (and optionally orders) to load into a local backend.
// Rows are matched by name or code, so importing twice updates in place.
type Seed struct {
	EquipmentGroups []SeedEquipmentGroup `yaml:"equipment_groups"`
	Customers       []SeedCustomer       `yaml:"customers"`
	Products        []SeedProduct        `yaml:"products"`
	Calendar        []SeedCalendarDay    `yaml:"calendar"`
	Orders          []SeedOrder          `yaml:"orders"`
}

type SeedEquipmentGroup struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Equipment   []string `yaml:"equipment"`
}

type SeedCustomer struct {
	Name string `yaml:"name"`
}

type SeedProduct struct {
	Code     string        `yaml:"code"`
	Name     string        `yaml:"name"`
	Routings []SeedRouting `yaml:"routings"`
}

type SeedRouting struct {
	Process        string `yaml:"process"`
	EquipmentGroup string `yaml:"equipment_group"`
	SetupSeconds   int64  `yaml:"setup_seconds"`
	UnitSeconds    int64  `yaml:"unit_seconds"`
}

type SeedCalendarDay struct {
	Date      string `yaml:"date"`
	IsHoliday bool   `yaml:"is_holiday"`
	Note      string `yaml:"note,omitempty"`
}

type SeedOrder struct {
	OrderNo         string `yaml:"order_no"`
	Customer        string `yaml:"customer,omitempty"`
	Product         string `yaml:"product"` // product code
	Quantity        int    `yaml:"quantity"`
	DesiredDeadline string `yaml:"desired_deadline,omitempty"`
	Confirm         bool   `yaml:"confirm,omitempty"`
}

// SeedResult counts what an import touched
type SeedResult struct {
	EquipmentGroups int `json:"equipment_groups" yaml:"equipment_groups"`
	Equipment       int `json:"equipment" yaml:"equipment"`
	Customers       int `json:"customers" yaml:"customers"`
	Products        int `json:"products" yaml:"products"`
	Routings        int `json:"routings" yaml:"routings"`
	CalendarDays    int `json:"calendar_days" yaml:"calendar_days"`
	OrdersCreated   int `json:"orders_created" yaml:"orders_created"`
	OrdersConfirmed int `json:"orders_confirmed" yaml:"orders_confirmed"`
}

// ParseSeed decodes a YAML seed document, rejecting unknown fields
func ParseSeed(r io.Reader) (*Seed, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var seed Seed
	if err := dec.Decode(&seed); err != nil {
		if errors.Is(err, io.EOF) {
			return &seed, nil
		}
		return nil, apperrors.Malformed("seed file", err)
	}
	if err := seed.Validate(); err != nil {
		return nil, err
	}
	return &seed, nil
}

// SampleSeed is a small two-line factory for trying shopline out
func SampleSeed() (*Seed, error) {
	return ParseSeed(bytes.NewReader(sampleSeed))
}

// Validate checks references between seed sections
func (sd *Seed) Validate() error {
	groups := map[string]bool{}
	for _, g := range sd.EquipmentGroups {
		if strings.TrimSpace(g.Name) == "" {
			return apperrors.Validation("equipment group name is required")
		}
		groups[g.Name] = true
	}
	customers := map[string]bool{}
	for _, c := range sd.Customers {
		if strings.TrimSpace(c.Name) == "" {
			return apperrors.Validation("customer name is required")
		}
		customers[c.Name] = true
	}
	products := map[string]bool{}
	for _, p := range sd.Products {
		if strings.TrimSpace(p.Code) == "" || strings.TrimSpace(p.Name) == "" {
			return apperrors.Validation("product code and name are required")
		}
		for i, r := range p.Routings {
			if r.Process == "" {
				return apperrors.Validationf("product %s routing %d: process is required", p.Code, i+1)
			}
			if !groups[r.EquipmentGroup] {
				return apperrors.Validationf("product %s routing %d: unknown equipment group %q", p.Code, i+1, r.EquipmentGroup)
			}
			if r.SetupSeconds < 0 || r.UnitSeconds < 0 || r.SetupSeconds+r.UnitSeconds == 0 {
				return apperrors.Validationf("product %s routing %d: times must be non-negative and not both zero", p.Code, i+1)
			}
		}
		products[p.Code] = true
	}
	for _, d := range sd.Calendar {
		if err := validDate(d.Date); err != nil {
			return err
		}
	}
	for _, o := range sd.Orders {
		if o.OrderNo == "" {
			return apperrors.Validation("order_no is required")
		}
		if !products[o.Product] {
			return apperrors.Validationf("order %s: unknown product %q", o.OrderNo, o.Product)
		}
		if o.Customer != "" && !customers[o.Customer] {
			return apperrors.Validationf("order %s: unknown customer %q", o.OrderNo, o.Customer)
		}
		if o.Quantity <= 0 {
			return apperrors.Validationf("order %s: quantity must be positive", o.OrderNo)
		}
	}
	return nil
}

// Import loads seed into the store. Master data and orders are written in
// one transaction; orders marked confirm are then confirmed one by one.
func (s *Store) Import(ctx context.Context, seed *Seed) (SeedResult, error) {
	var res SeedResult
	if err := seed.Validate(); err != nil {
		return res, err
	}

	var toConfirm []int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		groupIDs := map[string]int64{}
		for _, g := range seed.EquipmentGroups {
			var desc *string
			if g.Description != "" {
				desc = &g.Description
			}
			id, err := s.returningID(ctx, tx, `
				INSERT INTO equipment_groups (name, description) VALUES (?, ?)
				ON CONFLICT (name) DO UPDATE SET description = excluded.description
				RETURNING id`, g.Name, nullString(desc))
			if err != nil {
				return fmt.Errorf("equipment group %s: %w", g.Name, err)
			}
			groupIDs[g.Name] = id
			res.EquipmentGroups++

			for _, name := range g.Equipment {
				if _, err := s.returningID(ctx, tx, `
					INSERT INTO equipments (name, equipment_group_id) VALUES (?, ?)
					ON CONFLICT (name) DO UPDATE SET equipment_group_id = excluded.equipment_group_id
					RETURNING id`, name, id); err != nil {
					return fmt.Errorf("equipment %s: %w", name, err)
				}
				res.Equipment++
			}
		}

		customerIDs := map[string]int64{}
		for _, c := range seed.Customers {
			id, err := s.returningID(ctx, tx, `
				INSERT INTO customers (name) VALUES (?)
				ON CONFLICT (name) DO UPDATE SET name = excluded.name
				RETURNING id`, c.Name)
			if err != nil {
				return fmt.Errorf("customer %s: %w", c.Name, err)
			}
			customerIDs[c.Name] = id
			res.Customers++
		}

		productIDs := map[string]int64{}
		for _, p := range seed.Products {
			id, err := s.returningID(ctx, tx, `
				INSERT INTO products (code, name) VALUES (?, ?)
				ON CONFLICT (code) DO UPDATE SET name = excluded.name
				RETURNING id`, p.Code, p.Name)
			if err != nil {
				return fmt.Errorf("product %s: %w", p.Code, err)
			}
			productIDs[p.Code] = id
			res.Products++

			for i, r := range p.Routings {
				if _, err := s.returningID(ctx, tx, `
					INSERT INTO process_routings (product_id, sequence, process_name, equipment_group_id, setup_time_seconds, unit_time_seconds)
					VALUES (?, ?, ?, ?, ?, ?)
					ON CONFLICT (product_id, sequence) DO UPDATE SET
						process_name = excluded.process_name,
						equipment_group_id = excluded.equipment_group_id,
						setup_time_seconds = excluded.setup_time_seconds,
						unit_time_seconds = excluded.unit_time_seconds
					RETURNING id`, id, i+1, r.Process, groupIDs[r.EquipmentGroup], r.SetupSeconds, r.UnitSeconds); err != nil {
					return fmt.Errorf("product %s routing %d: %w", p.Code, i+1, err)
				}
				res.Routings++
			}
		}

		for _, d := range seed.Calendar {
			var note *string
			if d.Note != "" {
				note = &d.Note
			}
			if _, err := s.upsertCalendarDay(ctx, tx, d.Date, d.IsHoliday, note); err != nil {
				return fmt.Errorf("calendar %s: %w", d.Date, err)
			}
			res.CalendarDays++
		}

		now := formatTimestamp(s.now())
		for _, o := range seed.Orders {
			var existing int64
			err := tx.QueryRowContext(ctx, s.rebind("SELECT id FROM orders WHERE order_no = ?"), o.OrderNo).Scan(&existing)
			switch {
			case err == nil:
				continue
			case !errors.Is(err, sql.ErrNoRows):
				return fmt.Errorf("order %s: %w", o.OrderNo, err)
			}

			var customer sql.NullInt64
			if o.Customer != "" {
				customer = sql.NullInt64{Int64: customerIDs[o.Customer], Valid: true}
			}
			var desired *string
			if o.DesiredDeadline != "" {
				desired = &o.DesiredDeadline
			}
			id, err := s.returningID(ctx, tx, `
				INSERT INTO orders (order_no, customer_id, product_id, quantity, desired_deadline, status, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
				RETURNING id`,
				o.OrderNo, customer, productIDs[o.Product], o.Quantity, nullString(desired),
				string(constants.OrderStatusPending), now, now)
			if err != nil {
				return fmt.Errorf("order %s: %w", o.OrderNo, err)
			}
			res.OrdersCreated++
			if o.Confirm {
				toConfirm = append(toConfirm, id)
			}
		}
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("seed import failed: %w", err)
	}

	for _, id := range toConfirm {
		if err := s.ConfirmOrder(ctx, id); err != nil {
			return res, err
		}
		res.OrdersConfirmed++
	}

	logger.Info("seed imported", "groups", res.EquipmentGroups, "products", res.Products,
		"orders", res.OrdersCreated, "confirmed", res.OrdersConfirmed)
	return res, nil
}

func (s *Store) returningID(ctx context.Context, q queryer, query string, args ...any) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, s.rebind(query), args...).Scan(&id)
	return id, err
}

func (s *Store) upsertCalendarDay(ctx context.Context, q queryer, date string, holiday bool, note *string) (int64, error) {
	if err := validDate(date); err != nil {
		return 0, err
	}
	return s.returningID(ctx, q, `
		INSERT INTO calendars (date, is_holiday, note) VALUES (?, ?, ?)
		ON CONFLICT (date) DO UPDATE SET is_holiday = excluded.is_holiday, note = excluded.note
		RETURNING id`, date, holiday, nullString(note))
}
