// Package ledger holds the read-side folds over the transaction and
// expense histories. Everything here is pure; empty inputs fold to zero
// aggregates, never errors.
package ledger

import (
	"slices"
	"strconv"
	"time"

	"bisnisflow/internal/domain"
)

// Range is an inclusive reporting window snapped to day boundaries.
type Range struct {
	Start time.Time
	End   time.Time
}

// NewRange widens [start, end] to cover the full start and end days.
func NewRange(start, end time.Time) Range {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	e := time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), end.Location())
	return Range{Start: s, End: e}
}

func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

func filterTransactions(txs []domain.Transaction, r Range) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if r.Contains(tx.Date) {
			out = append(out, tx)
		}
	}
	return out
}

func filterExpenses(exps []domain.Expense, r Range) []domain.Expense {
	out := make([]domain.Expense, 0, len(exps))
	for _, e := range exps {
		if r.Contains(e.Date) {
			out = append(out, e)
		}
	}
	return out
}

type DashboardSummary struct {
	Mode             domain.BusinessMode `json:"mode"`
	GrossRevenue     float64             `json:"gross_revenue"`
	ValidCount       int                 `json:"valid_count"`
	NetProfit        float64             `json:"net_profit"`
	PotentialRevenue float64             `json:"potential_revenue"`
	PendingOrders    int                 `json:"pending_orders"`
	SentOrders       int                 `json:"sent_orders"`
	CompletedOrders  int                 `json:"completed_orders"`
	CancelledOrders  int                 `json:"cancelled_orders"`
	PlatformFees     float64             `json:"platform_fees"`
	PackingCosts     float64             `json:"packing_costs"`
	CashTotal        float64             `json:"cash_total"`
	QRISTotal        float64             `json:"qris_total"`
}

// Dashboard summarizes one business mode over the range. Gross revenue
// counts every non-cancelled transaction; net profit counts only settled
// money (all valid transactions for Retail, Completed only for Online,
// so in-flight marketplace orders never read as profit).
func Dashboard(txs []domain.Transaction, mode domain.BusinessMode, r Range) DashboardSummary {
	sum := DashboardSummary{Mode: mode}
	for _, tx := range filterTransactions(txs, r) {
		if tx.Mode != mode {
			continue
		}
		switch tx.Status {
		case domain.StatusPending, domain.StatusPacking:
			sum.PendingOrders++
		case domain.StatusSent:
			sum.SentOrders++
		case domain.StatusCompleted:
			sum.CompletedOrders++
		case domain.StatusCancelled:
			sum.CancelledOrders++
		}
		switch tx.PaymentMethod {
		case "Cash":
			sum.CashTotal += tx.TotalRevenue
		case "QRIS":
			sum.QRISTotal += tx.TotalRevenue
		}
		if tx.Status == domain.StatusCancelled {
			continue
		}
		sum.ValidCount++
		sum.GrossRevenue += tx.TotalRevenue
		sum.PlatformFees += tx.PlatformFee
		sum.PackingCosts += tx.PackingCost
		if mode == domain.ModeRetail || tx.Status == domain.StatusCompleted {
			sum.NetProfit += tx.NetProfit
		}
		switch tx.Status {
		case domain.StatusPending, domain.StatusPacking, domain.StatusSent:
			sum.PotentialRevenue += tx.TotalRevenue
		}
	}
	return sum
}

type RecapSummary struct {
	Revenue       float64 `json:"revenue"`
	HPP           float64 `json:"hpp"`
	GrossProfit   float64 `json:"gross_profit"`
	AdSpend       float64 `json:"ad_spend"`
	OtherExpenses float64 `json:"other_expenses"`
	PlatformFees  float64 `json:"platform_fees"`
	NetProfit     float64 `json:"net_profit"`
	ROAS          float64 `json:"roas"`
	MarginPercent float64 `json:"margin_percent"`
}

// Recap is the profitability statement over both business modes.
// PlatformFees bundles every channel deduction: admin fee, COD fee,
// shipping and packing.
func Recap(txs []domain.Transaction, exps []domain.Expense, r Range) RecapSummary {
	var sum RecapSummary
	for _, tx := range filterTransactions(txs, r) {
		sum.Revenue += tx.TotalRevenue
		sum.HPP += tx.TotalCost
		sum.PlatformFees += tx.PlatformFee + tx.CODFee + tx.ShippingCost + tx.PackingCost
	}
	for _, e := range filterExpenses(exps, r) {
		if e.Category == domain.ExpenseMarketing {
			sum.AdSpend += e.Amount
		} else {
			sum.OtherExpenses += e.Amount
		}
	}
	sum.GrossProfit = sum.Revenue - sum.HPP
	sum.NetProfit = sum.GrossProfit - sum.AdSpend - sum.OtherExpenses - sum.PlatformFees
	if sum.AdSpend > 0 {
		sum.ROAS = sum.Revenue / sum.AdSpend
	}
	if sum.Revenue > 0 {
		sum.MarginPercent = sum.NetProfit / sum.Revenue * 100
	}
	return sum
}

type ProductStat struct {
	ProductID        string  `json:"product_id"`
	Name             string  `json:"name"`
	Quantity         int     `json:"quantity"`
	Revenue          float64 `json:"revenue"`
	GrossProfit      float64 `json:"gross_profit"`
	TransactionCount int     `json:"transaction_count"`
}

// ProductPerformance aggregates item snapshots per product id, best
// seller first.
func ProductPerformance(txs []domain.Transaction, r Range) []ProductStat {
	stats := make(map[string]*ProductStat)
	var order []string
	for _, tx := range filterTransactions(txs, r) {
		for _, item := range tx.Items {
			st, ok := stats[item.ProductID]
			if !ok {
				st = &ProductStat{ProductID: item.ProductID, Name: item.ProductName}
				stats[item.ProductID] = st
				order = append(order, item.ProductID)
			}
			st.Quantity += item.Quantity
			st.Revenue += float64(item.Quantity) * item.PriceAtSale
			st.GrossProfit += float64(item.Quantity) * (item.PriceAtSale - item.HPPAtSale)
			st.TransactionCount++
		}
	}
	out := make([]ProductStat, 0, len(order))
	for _, id := range order {
		out = append(out, *stats[id])
	}
	slices.SortFunc(out, func(a, b ProductStat) int {
		switch {
		case a.Revenue > b.Revenue:
			return -1
		case a.Revenue < b.Revenue:
			return 1
		default:
			return 0
		}
	})
	return out
}

type CashflowEntry struct {
	ID       string    `json:"id"`
	Date     time.Time `json:"date"`
	Type     string    `json:"type"`
	Amount   float64   `json:"amount"`
	Title    string    `json:"title"`
	Subtitle string    `json:"subtitle"`
}

type CashflowReport struct {
	Entries      []CashflowEntry `json:"entries"`
	TotalIncome  float64         `json:"total_income"`
	TotalExpense float64         `json:"total_expense"`
	NetCashflow  float64         `json:"net_cashflow"`
}

const (
	CashflowIncome  = "income"
	CashflowExpense = "expense"
)

// Cashflow merges sales (as income) and expenses (as outflow) into one
// timeline, newest first.
func Cashflow(txs []domain.Transaction, exps []domain.Expense, r Range) CashflowReport {
	var report CashflowReport
	for _, tx := range filterTransactions(txs, r) {
		report.Entries = append(report.Entries, CashflowEntry{
			ID:       tx.ID,
			Date:     tx.Date,
			Type:     CashflowIncome,
			Amount:   tx.TotalRevenue,
			Title:    "Penjualan " + tx.Source,
			Subtitle: itemCountLabel(len(tx.Items)),
		})
		report.TotalIncome += tx.TotalRevenue
	}
	for _, e := range filterExpenses(exps, r) {
		report.Entries = append(report.Entries, CashflowEntry{
			ID:       e.ID,
			Date:     e.Date,
			Type:     CashflowExpense,
			Amount:   e.Amount,
			Title:    e.Description,
			Subtitle: string(e.Category),
		})
		report.TotalExpense += e.Amount
	}
	slices.SortFunc(report.Entries, func(a, b CashflowEntry) int {
		return b.Date.Compare(a.Date)
	})
	report.NetCashflow = report.TotalIncome - report.TotalExpense
	return report
}

func itemCountLabel(n int) string {
	if n == 1 {
		return "1 Item"
	}
	return strconv.Itoa(n) + " Items"
}
