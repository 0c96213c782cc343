package inventory

import (
	"errors"
	"fmt"
	"strings"
)

const SalesHistoryMonths = 6

var ErrInvalidDataset = errors.New("invalid inventory dataset")

type Product struct {
	ID             string  `json:"id" yaml:"id"`
	Name           string  `json:"name" yaml:"name"`
	Category       string  `json:"category" yaml:"category"`
	CurrentStock   int     `json:"current_stock" yaml:"current_stock"`
	ReorderPoint   int     `json:"reorder_point" yaml:"reorder_point"`
	OptimalStock   int     `json:"optimal_stock" yaml:"optimal_stock"`
	CostPerUnit    float64 `json:"cost_per_unit" yaml:"cost_per_unit"`
	LeadTimeDays   int     `json:"lead_time_days" yaml:"lead_time_days"`
	ShelfLifeDays  int     `json:"shelf_life_days" yaml:"shelf_life_days"`
	DailySalesRate float64 `json:"daily_sales_rate" yaml:"daily_sales_rate"`
	MonthlySales   []int   `json:"monthly_sales" yaml:"monthly_sales"` // oldest -> newest
	Supplier       string  `json:"supplier" yaml:"supplier"`
}

type WarehouseState struct {
	MaxCapacityUnits        int     `json:"max_capacity_units" yaml:"max_capacity_units"`
	CurrentUtilizationUnits int     `json:"current_utilization_units" yaml:"current_utilization_units"`
	StorageCostPerUnit      float64 `json:"storage_cost_per_unit" yaml:"storage_cost_per_unit"`
}

type BusinessConstraints struct {
	MonthlyProcurementBudget float64 `json:"monthly_procurement_budget" yaml:"monthly_procurement_budget"`
	TargetServiceLevel       float64 `json:"target_service_level" yaml:"target_service_level"`
	MaxDaysInventoryHeld     int     `json:"max_days_inventory_held" yaml:"max_days_inventory_held"`
}

// Dataset is the full snapshot the inventory tools read from.
type Dataset struct {
	Products    []Product           `json:"products" yaml:"products"`
	Warehouse   WarehouseState      `json:"warehouse" yaml:"warehouse"`
	Constraints BusinessConstraints `json:"business_constraints" yaml:"business_constraints"`
}

func (p Product) Clone() Product {
	p.MonthlySales = append([]int(nil), p.MonthlySales...)
	return p
}

// IsBelowReorderPoint reports the "reorder needed" condition (stock at or below the reorder point).
func (p Product) IsBelowReorderPoint() bool {
	return p.CurrentStock <= p.ReorderPoint
}

// DaysUntilStockout is stock / daily rate; ok=false means the product never
// stocks out because nothing sells.
func (p Product) DaysUntilStockout() (days float64, ok bool) {
	if p.DailySalesRate <= 0 {
		return 0, false
	}
	return float64(p.CurrentStock) / p.DailySalesRate, true
}

func (p Product) Validate() error {
	switch {
	case strings.TrimSpace(p.ID) == "":
		return fmt.Errorf("%w: product id is empty", ErrInvalidDataset)
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("%w: product %s has no name", ErrInvalidDataset, p.ID)
	case p.CurrentStock < 0:
		return fmt.Errorf("%w: product %s has negative stock", ErrInvalidDataset, p.ID)
	case p.ReorderPoint < 0 || p.OptimalStock < p.ReorderPoint:
		return fmt.Errorf("%w: product %s needs optimal_stock >= reorder_point >= 0", ErrInvalidDataset, p.ID)
	case p.CostPerUnit < 0:
		return fmt.Errorf("%w: product %s has negative cost", ErrInvalidDataset, p.ID)
	case p.LeadTimeDays <= 0:
		return fmt.Errorf("%w: product %s lead time must be > 0", ErrInvalidDataset, p.ID)
	case p.DailySalesRate < 0:
		return fmt.Errorf("%w: product %s has negative sales rate", ErrInvalidDataset, p.ID)
	case len(p.MonthlySales) != SalesHistoryMonths:
		return fmt.Errorf("%w: product %s needs %d months of sales, got %d", ErrInvalidDataset, p.ID, SalesHistoryMonths, len(p.MonthlySales))
	}
	return nil
}

func (d *Dataset) Validate() error {
	if d == nil {
		return fmt.Errorf("%w: dataset is nil", ErrInvalidDataset)
	}
	seen := make(map[string]struct{}, len(d.Products))
	for _, p := range d.Products {
		if err := p.Validate(); err != nil {
			return err
		}
		key := strings.ToLower(p.ID)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: duplicate product id %s", ErrInvalidDataset, p.ID)
		}
		seen[key] = struct{}{}
	}
	if d.Warehouse.MaxCapacityUnits <= 0 {
		return fmt.Errorf("%w: warehouse capacity must be > 0", ErrInvalidDataset)
	}
	if d.Warehouse.CurrentUtilizationUnits < 0 || d.Warehouse.CurrentUtilizationUnits > d.Warehouse.MaxCapacityUnits {
		return fmt.Errorf("%w: warehouse utilization out of range", ErrInvalidDataset)
	}
	if d.Constraints.TargetServiceLevel < 0 || d.Constraints.TargetServiceLevel > 1 {
		return fmt.Errorf("%w: target service level must be within [0,1]", ErrInvalidDataset)
	}
	if d.Constraints.MonthlyProcurementBudget < 0 {
		return fmt.Errorf("%w: procurement budget is negative", ErrInvalidDataset)
	}
	return nil
}

func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return nil
	}
	out := *d
	out.Products = make([]Product, len(d.Products))
	for i, p := range d.Products {
		out.Products[i] = p.Clone()
	}
	return &out
}
