// Package hpp computes batch production cost (HPP, harga pokok
// penjualan), suggested pricing and advertising targets.
package hpp

import (
	"errors"
	"fmt"
	"math"

	"bisnisflow/internal/domain"
)

var ErrInvalidInput = errors.New("invalid hpp input")

type Component struct {
	Name string  `json:"name"`
	Cost float64 `json:"cost"`
}

// Section groups cost components, typically materials, labor and
// overhead.
type Section struct {
	Title string      `json:"title"`
	Items []Component `json:"items"`
}

type Input struct {
	ProductName          string    `json:"product_name"`
	Category             string    `json:"category"`
	BatchSize            int       `json:"batch_size"`
	Sections             []Section `json:"sections"`
	DesiredMarginPercent float64   `json:"desired_margin_percent"`
	MarketplaceFeePct    float64   `json:"marketplace_fee_percent"`
	TargetRevenue        float64   `json:"target_revenue"`
	TargetROAS           float64   `json:"target_roas"`
}

type Result struct {
	TotalProductionCost float64 `json:"total_production_cost"`
	HPPPerUnit          float64 `json:"hpp_per_unit"`
	SuggestedPrice      float64 `json:"suggested_price"`
	AdminFee            float64 `json:"admin_fee"`
	NetProfitPerUnit    float64 `json:"net_profit_per_unit"`
	// Real margin after the marketplace cut, as a fraction of price.
	GrossMarginReal float64 `json:"gross_margin_real"`
	BreakEvenROAS   float64 `json:"break_even_roas"`
	TargetSalesQty  int     `json:"target_sales_qty"`
	MaxAdSpend      float64 `json:"max_ad_spend"`
	// Projected profit at the revenue target after the ad budget.
	ProjectedMonthlyNetProfit float64 `json:"projected_monthly_net_profit"`
	TargetFeasible            bool    `json:"target_feasible"`
}

// Calculate folds the cost sections into per-unit economics. Division
// guards mirror the form behavior: zero denominators yield zero, never
// a panic.
func Calculate(in Input) Result {
	var total float64
	for _, s := range in.Sections {
		for _, item := range s.Items {
			total += item.Cost
		}
	}

	var res Result
	res.TotalProductionCost = total
	if in.BatchSize > 0 {
		res.HPPPerUnit = total / float64(in.BatchSize)
	}
	res.SuggestedPrice = res.HPPPerUnit * (1 + in.DesiredMarginPercent/100)
	res.AdminFee = res.SuggestedPrice * (in.MarketplaceFeePct / 100)
	res.NetProfitPerUnit = res.SuggestedPrice - res.HPPPerUnit - res.AdminFee
	if res.SuggestedPrice > 0 {
		res.GrossMarginReal = res.NetProfitPerUnit / res.SuggestedPrice
	}
	if res.GrossMarginReal > 0 {
		res.BreakEvenROAS = 1 / res.GrossMarginReal
	}
	if res.SuggestedPrice > 0 {
		res.TargetSalesQty = int(math.Ceil(in.TargetRevenue / res.SuggestedPrice))
	}
	if in.TargetROAS > 0 {
		res.MaxAdSpend = in.TargetRevenue / in.TargetROAS
	}
	res.ProjectedMonthlyNetProfit = float64(res.TargetSalesQty)*res.NetProfitPerUnit - res.MaxAdSpend
	res.TargetFeasible = in.TargetROAS >= res.BreakEvenROAS
	return res
}

// ToProduct turns a finished calculation into a catalog entry. New
// products start with no stock and a default restock threshold.
func ToProduct(in Input, res Result) (domain.Product, error) {
	if in.ProductName == "" {
		return domain.Product{}, fmt.Errorf("%w: product name is required", ErrInvalidInput)
	}
	if res.SuggestedPrice <= 0 {
		return domain.Product{}, fmt.Errorf("%w: suggested price must be positive", ErrInvalidInput)
	}
	category := in.Category
	if category == "" {
		category = "General"
	}
	return domain.Product{
		Name:     in.ProductName,
		Category: category,
		HPP:      res.HPPPerUnit,
		Price:    res.SuggestedPrice,
		Stock:    0,
		MinStock: 10,
	}, nil
}
