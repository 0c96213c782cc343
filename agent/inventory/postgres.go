package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type productRow struct {
	bun.BaseModel `bun:"table:inventory_products,alias:p"`

	ID             string  `bun:"id,pk"`
	Position       int     `bun:"position,notnull"`
	Name           string  `bun:"name,notnull"`
	Category       string  `bun:"category,notnull"`
	CurrentStock   int     `bun:"current_stock,notnull"`
	ReorderPoint   int     `bun:"reorder_point,notnull"`
	OptimalStock   int     `bun:"optimal_stock,notnull"`
	CostPerUnit    float64 `bun:"cost_per_unit,notnull"`
	LeadTimeDays   int     `bun:"lead_time_days,notnull"`
	ShelfLifeDays  int     `bun:"shelf_life_days,notnull"`
	DailySalesRate float64 `bun:"daily_sales_rate,notnull"`
	MonthlySales   []int64 `bun:"monthly_sales,array"`
	Supplier       string  `bun:"supplier,notnull"`
}

type warehouseRow struct {
	bun.BaseModel `bun:"table:inventory_warehouse,alias:w"`

	ID                      int     `bun:"id,pk"`
	MaxCapacityUnits        int     `bun:"max_capacity_units,notnull"`
	CurrentUtilizationUnits int     `bun:"current_utilization_units,notnull"`
	StorageCostPerUnit      float64 `bun:"storage_cost_per_unit,notnull"`
}

type constraintsRow struct {
	bun.BaseModel `bun:"table:inventory_constraints,alias:c"`

	ID                       int     `bun:"id,pk"`
	MonthlyProcurementBudget float64 `bun:"monthly_procurement_budget,notnull"`
	TargetServiceLevel       float64 `bun:"target_service_level,notnull"`
	MaxDaysInventoryHeld     int     `bun:"max_days_inventory_held,notnull"`
}

// singletonRowID keys the one-row warehouse and constraints tables.
const singletonRowID = 1

// PostgresSource reads (and seeds) the dataset from PostgreSQL.
type PostgresSource struct {
	db *bun.DB
}

func OpenPostgres(dsn string) (*PostgresSource, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres dsn is required")
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return NewPostgresSource(bun.NewDB(sqldb, pgdialect.New())), nil
}

func NewPostgresSource(db *bun.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) Close() error {
	return s.db.Close()
}

// Migrate creates the dataset tables when missing.
func (s *PostgresSource) Migrate(ctx context.Context) error {
	models := []any{
		(*productRow)(nil),
		(*warehouseRow)(nil),
		(*constraintsRow)(nil),
	}
	for _, m := range models {
		if _, err := s.db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

// Seed replaces the stored dataset with data inside one transaction.
func (s *PostgresSource) Seed(ctx context.Context, data *Dataset) error {
	if err := data.Validate(); err != nil {
		return err
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*productRow)(nil)).Where("TRUE").Exec(ctx); err != nil {
			return fmt.Errorf("clear products: %w", err)
		}
		rows := productRows(data)
		if len(rows) > 0 {
			if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
				return fmt.Errorf("insert products: %w", err)
			}
		}

		if _, err := upsertWarehouse(tx, data.Warehouse).Exec(ctx); err != nil {
			return fmt.Errorf("upsert warehouse: %w", err)
		}
		if _, err := upsertConstraints(tx, data.Constraints).Exec(ctx); err != nil {
			return fmt.Errorf("upsert constraints: %w", err)
		}
		return nil
	})
}

// Load reads a full snapshot. Products keep their seeded order so the
// first-match name lookup stays stable.
func (s *PostgresSource) Load(ctx context.Context) (*Dataset, error) {
	var rows []productRow
	if err := selectProducts(s.db, &rows).Scan(ctx); err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}

	wh := new(warehouseRow)
	if err := s.db.NewSelect().Model(wh).Where("id = ?", singletonRowID).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: warehouse row missing", ErrInvalidDataset)
		}
		return nil, fmt.Errorf("select warehouse: %w", err)
	}

	bc := new(constraintsRow)
	if err := s.db.NewSelect().Model(bc).Where("id = ?", singletonRowID).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: business constraints row missing", ErrInvalidDataset)
		}
		return nil, fmt.Errorf("select constraints: %w", err)
	}

	data := &Dataset{
		Products: make([]Product, len(rows)),
		Warehouse: WarehouseState{
			MaxCapacityUnits:        wh.MaxCapacityUnits,
			CurrentUtilizationUnits: wh.CurrentUtilizationUnits,
			StorageCostPerUnit:      wh.StorageCostPerUnit,
		},
		Constraints: BusinessConstraints{
			MonthlyProcurementBudget: bc.MonthlyProcurementBudget,
			TargetServiceLevel:       bc.TargetServiceLevel,
			MaxDaysInventoryHeld:     bc.MaxDaysInventoryHeld,
		},
	}
	for i, r := range rows {
		data.Products[i] = fromProductRow(r)
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}
	return data, nil
}

// selectProducts reads products in seeded order; Position is the dataset index.
func selectProducts(idb bun.IDB, rows *[]productRow) *bun.SelectQuery {
	return idb.NewSelect().Model(rows).Order("position ASC", "id ASC")
}

func productRows(data *Dataset) []productRow {
	rows := make([]productRow, len(data.Products))
	for i, p := range data.Products {
		rows[i] = toProductRow(p, i)
	}
	return rows
}

func upsertWarehouse(idb bun.IDB, w WarehouseState) *bun.InsertQuery {
	return idb.NewInsert().Model(&warehouseRow{
		ID:                      singletonRowID,
		MaxCapacityUnits:        w.MaxCapacityUnits,
		CurrentUtilizationUnits: w.CurrentUtilizationUnits,
		StorageCostPerUnit:      w.StorageCostPerUnit,
	}).
		On("CONFLICT (id) DO UPDATE").
		Set("max_capacity_units = EXCLUDED.max_capacity_units").
		Set("current_utilization_units = EXCLUDED.current_utilization_units").
		Set("storage_cost_per_unit = EXCLUDED.storage_cost_per_unit")
}

func upsertConstraints(idb bun.IDB, c BusinessConstraints) *bun.InsertQuery {
	return idb.NewInsert().Model(&constraintsRow{
		ID:                       singletonRowID,
		MonthlyProcurementBudget: c.MonthlyProcurementBudget,
		TargetServiceLevel:       c.TargetServiceLevel,
		MaxDaysInventoryHeld:     c.MaxDaysInventoryHeld,
	}).
		On("CONFLICT (id) DO UPDATE").
		Set("monthly_procurement_budget = EXCLUDED.monthly_procurement_budget").
		Set("target_service_level = EXCLUDED.target_service_level").
		Set("max_days_inventory_held = EXCLUDED.max_days_inventory_held")
}

func toProductRow(p Product, position int) productRow {
	sales := make([]int64, len(p.MonthlySales))
	for i, v := range p.MonthlySales {
		sales[i] = int64(v)
	}
	return productRow{
		ID:             p.ID,
		Position:       position,
		Name:           p.Name,
		Category:       p.Category,
		CurrentStock:   p.CurrentStock,
		ReorderPoint:   p.ReorderPoint,
		OptimalStock:   p.OptimalStock,
		CostPerUnit:    p.CostPerUnit,
		LeadTimeDays:   p.LeadTimeDays,
		ShelfLifeDays:  p.ShelfLifeDays,
		DailySalesRate: p.DailySalesRate,
		MonthlySales:   sales,
		Supplier:       p.Supplier,
	}
}

func fromProductRow(r productRow) Product {
	sales := make([]int, len(r.MonthlySales))
	for i, v := range r.MonthlySales {
		sales[i] = int(v)
	}
	return Product{
		ID:             r.ID,
		Name:           r.Name,
		Category:       r.Category,
		CurrentStock:   r.CurrentStock,
		ReorderPoint:   r.ReorderPoint,
		OptimalStock:   r.OptimalStock,
		CostPerUnit:    r.CostPerUnit,
		LeadTimeDays:   r.LeadTimeDays,
		ShelfLifeDays:  r.ShelfLifeDays,
		DailySalesRate: r.DailySalesRate,
		MonthlySales:   sales,
		Supplier:       r.Supplier,
	}
}
