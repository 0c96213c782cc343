package tool

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	contractx "github.com/tanpawarit/inventory-sms-agent/agent/contract"
	inventoryx "github.com/tanpawarit/inventory-sms-agent/agent/inventory"
)

const (
	ToolInventoryStatus        = "get_inventory_status"
	ToolProductDetails         = "get_product_details"
	ToolReorderRecommendations = "get_reorder_recommendations"

	dateLayout       = "2006-01-02"
	stockoutNever    = "Never"
	budgetSufficient = "Sufficient"
	budgetExceeded   = "Exceeded"
	trendIncreasing  = "Increasing"
	trendDecreasing  = "Decreasing"
	trendStable      = "Stable"
	hoursPerDay      = 24 * time.Hour
)

type StockStatus string

const (
	StockLow       StockStatus = "Low"
	StockOverstock StockStatus = "Overstock"
	StockAdequate  StockStatus = "Adequate"
)

type AlertKind string

const (
	AlertReorderNeeded  AlertKind = "reorder_needed"
	AlertUrgentStockout AlertKind = "urgent_stockout"
	AlertOverstock      AlertKind = "overstock"
)

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
)

type Alert struct {
	Kind      AlertKind `json:"kind"`
	ProductID string    `json:"product_id"`
	Message   string    `json:"message"`
}

type StatusOverview struct {
	TotalProducts        int     `json:"total_products"`
	TotalStockValue      float64 `json:"total_stock_value"`
	WarehouseUtilization string  `json:"warehouse_utilization"`
	AsOfDate             string  `json:"as_of_date"`
}

// ProductStatus.DaysUntilStockout is nil when the product does not sell.
type ProductStatus struct {
	ID                string      `json:"id"`
	Name              string      `json:"name"`
	CurrentStock      int         `json:"current_stock"`
	DaysUntilStockout *int        `json:"days_until_stockout"`
	StockStatus       StockStatus `json:"stock_status"`
}

type InventoryStatus struct {
	Overview      StatusOverview  `json:"overview"`
	Alerts        []Alert         `json:"alerts"`
	ProductStatus []ProductStatus `json:"product_status"`
}

type ProductDetails struct {
	inventoryx.Product
	DaysUntilStockout     *int    `json:"days_until_stockout"`
	ProjectedStockoutDate string  `json:"projected_stockout_date"`
	SalesTrend            string  `json:"sales_trend"`
	GrowthRate6Mo         string  `json:"growth_rate_6mo"`
	InventoryValue        float64 `json:"inventory_value"`
	ReorderRecommendation bool    `json:"reorder_recommendation"`
	OptimalOrderQuantity  int     `json:"optimal_order_quantity"`
}

type ReorderItem struct {
	ID                       string   `json:"id"`
	Name                     string   `json:"name"`
	CurrentStock             int      `json:"current_stock"`
	ReorderPoint             int      `json:"reorder_point"`
	RecommendedOrderQuantity int      `json:"recommended_order_quantity"`
	OrderCost                float64  `json:"order_cost"`
	Supplier                 string   `json:"supplier"`
	LeadTimeDays             int      `json:"lead_time_days"`
	Priority                 Priority `json:"priority"`
}

type ReorderPlan struct {
	AsOfDate         string        `json:"as_of_date"`
	AvailableBudget  float64       `json:"available_budget"`
	Recommendations  []ReorderItem `json:"reorder_recommendations"`
	TotalReorderCost float64       `json:"total_reorder_cost"`
	BudgetStatus     string        `json:"budget_status"`
	BudgetDeficit    *float64      `json:"budget_deficit,omitempty"`
}

// Inventory computes the three read-only inventory reports over a Store.
// Results depend only on the store snapshot and the injected clock.
type Inventory struct {
	store inventoryx.Store
	now   func() time.Time
}

type InventoryOption func(*Inventory)

func WithClock(now func() time.Time) InventoryOption {
	return func(i *Inventory) {
		if now != nil {
			i.now = now
		}
	}
}

func NewInventory(store inventoryx.Store, opts ...InventoryOption) *Inventory {
	inv := &Inventory{store: store, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(inv)
		}
	}
	return inv
}

func (i *Inventory) Status(ctx context.Context) (InventoryStatus, error) {
	products, err := i.store.AllProducts(ctx)
	if err != nil {
		return InventoryStatus{}, err
	}
	warehouse, err := i.store.Warehouse(ctx)
	if err != nil {
		return InventoryStatus{}, err
	}
	constraints, err := i.store.Constraints(ctx)
	if err != nil {
		return InventoryStatus{}, err
	}

	out := InventoryStatus{
		Overview: StatusOverview{
			TotalProducts:        len(products),
			WarehouseUtilization: formatPercent(utilization(warehouse)),
			AsOfDate:             i.now().Format(dateLayout),
		},
		Alerts:        []Alert{},
		ProductStatus: make([]ProductStatus, 0, len(products)),
	}

	maxDays := float64(constraints.MaxDaysInventoryHeld)
	for _, p := range products {
		out.Overview.TotalStockValue += stockValue(p)

		days, sells := p.DaysUntilStockout()
		low := p.IsBelowReorderPoint()
		// A product that never sells has infinite supply.
		overstock := !sells || days > maxDays

		if low {
			out.Alerts = append(out.Alerts, Alert{
				Kind:      AlertReorderNeeded,
				ProductID: p.ID,
				Message:   fmt.Sprintf("REORDER NEEDED: %s is below reorder point", p.Name),
			})
		}
		if sells && days <= float64(p.LeadTimeDays) {
			out.Alerts = append(out.Alerts, Alert{
				Kind:      AlertUrgentStockout,
				ProductID: p.ID,
				Message:   fmt.Sprintf("URGENT: %s will stockout in %d days", p.Name, int(days)),
			})
		}
		if overstock {
			out.Alerts = append(out.Alerts, Alert{
				Kind:      AlertOverstock,
				ProductID: p.ID,
				Message:   overstockMessage(p.Name, days, sells),
			})
		}

		status := StockAdequate
		switch {
		case low:
			status = StockLow
		case overstock:
			status = StockOverstock
		}
		out.ProductStatus = append(out.ProductStatus, ProductStatus{
			ID:                p.ID,
			Name:              p.Name,
			CurrentStock:      p.CurrentStock,
			DaysUntilStockout: wholeDays(days, sells),
			StockStatus:       status,
		})
	}
	out.Overview.TotalStockValue = roundCents(out.Overview.TotalStockValue)
	return out, nil
}

// ProductDetails resolves by id first and falls back to name when the id
// does not match anything.
func (i *Inventory) ProductDetails(ctx context.Context, args ProductDetailsArgs) (ProductDetails, error) {
	id := strings.TrimSpace(args.ProductID)
	name := strings.TrimSpace(args.ProductName)
	if id == "" && name == "" {
		return ProductDetails{}, fmt.Errorf("%w: must provide either product_id or product_name", contractx.ErrValidation)
	}

	var (
		p   inventoryx.Product
		err error
	)
	if id != "" {
		p, err = i.store.ProductByID(ctx, id)
	}
	if id == "" || (errors.Is(err, contractx.ErrNotFound) && name != "") {
		p, err = i.store.ProductByName(ctx, name)
	}
	if err != nil {
		return ProductDetails{}, err
	}

	days, sells := p.DaysUntilStockout()
	stockoutDate := stockoutNever
	if sells {
		stockoutDate = i.now().Add(time.Duration(days * float64(hoursPerDay))).Format(dateLayout)
	}

	trend, growth := salesTrend(p.MonthlySales)
	return ProductDetails{
		Product:               p,
		DaysUntilStockout:     wholeDays(days, sells),
		ProjectedStockoutDate: stockoutDate,
		SalesTrend:            trend,
		GrowthRate6Mo:         formatPercent(growth),
		InventoryValue:        roundCents(stockValue(p)),
		ReorderRecommendation: p.IsBelowReorderPoint(),
		OptimalOrderQuantity:  max(0, p.OptimalStock-p.CurrentStock),
	}, nil
}

func (i *Inventory) ReorderRecommendations(ctx context.Context) (ReorderPlan, error) {
	products, err := i.store.AllProducts(ctx)
	if err != nil {
		return ReorderPlan{}, err
	}
	constraints, err := i.store.Constraints(ctx)
	if err != nil {
		return ReorderPlan{}, err
	}

	plan := ReorderPlan{
		AsOfDate:        i.now().Format(dateLayout),
		AvailableBudget: constraints.MonthlyProcurementBudget,
		Recommendations: []ReorderItem{},
	}
	for _, p := range products {
		if !p.IsBelowReorderPoint() {
			continue
		}
		qty := max(0, p.OptimalStock-p.CurrentStock)
		cost := roundCents(float64(qty) * p.CostPerUnit)
		priority := PriorityMedium
		if days, sells := p.DaysUntilStockout(); sells && days <= float64(p.LeadTimeDays) {
			priority = PriorityHigh
		}
		plan.Recommendations = append(plan.Recommendations, ReorderItem{
			ID:                       p.ID,
			Name:                     p.Name,
			CurrentStock:             p.CurrentStock,
			ReorderPoint:             p.ReorderPoint,
			RecommendedOrderQuantity: qty,
			OrderCost:                cost,
			Supplier:                 p.Supplier,
			LeadTimeDays:             p.LeadTimeDays,
			Priority:                 priority,
		})
	}

	sort.SliceStable(plan.Recommendations, func(a, b int) bool {
		return plan.Recommendations[a].Priority == PriorityHigh && plan.Recommendations[b].Priority != PriorityHigh
	})

	// Summed in output order so the total matches the listed costs exactly.
	for _, item := range plan.Recommendations {
		plan.TotalReorderCost += item.OrderCost
	}
	plan.BudgetStatus = budgetSufficient
	if plan.TotalReorderCost > constraints.MonthlyProcurementBudget {
		plan.BudgetStatus = budgetExceeded
		deficit := plan.TotalReorderCost - constraints.MonthlyProcurementBudget
		plan.BudgetDeficit = &deficit
	}
	return plan, nil
}

func stockValue(p inventoryx.Product) float64 {
	return float64(p.CurrentStock) * p.CostPerUnit
}

func utilization(w inventoryx.WarehouseState) float64 {
	if w.MaxCapacityUnits <= 0 {
		return 0
	}
	return float64(w.CurrentUtilizationUnits) / float64(w.MaxCapacityUnits) * 100
}

// salesTrend compares the oldest and newest month of the series.
func salesTrend(monthly []int) (string, float64) {
	if len(monthly) == 0 {
		return trendStable, 0
	}
	first, last := monthly[0], monthly[len(monthly)-1]
	trend := trendStable
	switch {
	case last > first:
		trend = trendIncreasing
	case last < first:
		trend = trendDecreasing
	}
	if first <= 0 {
		return trend, 0
	}
	return trend, (float64(last)/float64(first) - 1) * 100
}

func overstockMessage(name string, days float64, sells bool) string {
	if !sells {
		return fmt.Sprintf("OVERSTOCK: %s has no recorded sales", name)
	}
	return fmt.Sprintf("OVERSTOCK: %s has %d days of supply", name, int(days))
}

func wholeDays(days float64, sells bool) *int {
	if !sells {
		return nil
	}
	n := int(days)
	return &n
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
