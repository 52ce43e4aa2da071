package ledger

import (
	"math"
	"testing"
	"time"

	"bisnisflow/internal/domain"
)

var day = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func onlineTx(id string, status domain.OrderStatus, revenue, net float64) domain.Transaction {
	return domain.Transaction{
		ID:           id,
		Date:         day,
		Mode:         domain.ModeOnline,
		TotalRevenue: revenue,
		NetProfit:    net,
		Status:       status,
	}
}

func TestDashboardOnlineProfitCountsOnlyCompleted(t *testing.T) {
	txs := []domain.Transaction{
		onlineTx("A", domain.StatusCompleted, 100000, 20000),
		onlineTx("B", domain.StatusSent, 50000, 10000),
		onlineTx("C", domain.StatusPending, 30000, 5000),
		onlineTx("D", domain.StatusCancelled, 0, 0),
	}
	sum := Dashboard(txs, domain.ModeOnline, NewRange(day, day))

	if !almostEqual(sum.GrossRevenue, 180000) {
		t.Errorf("gross revenue: expected 180000, got %v", sum.GrossRevenue)
	}
	if !almostEqual(sum.NetProfit, 20000) {
		t.Errorf("net profit must count Completed only, got %v", sum.NetProfit)
	}
	if !almostEqual(sum.PotentialRevenue, 80000) {
		t.Errorf("potential revenue: expected 80000, got %v", sum.PotentialRevenue)
	}
	if sum.CompletedOrders != 1 || sum.SentOrders != 1 || sum.PendingOrders != 1 || sum.CancelledOrders != 1 {
		t.Errorf("status counts: %+v", sum)
	}
	if sum.ValidCount != 3 {
		t.Errorf("valid count: expected 3, got %d", sum.ValidCount)
	}
}

func TestDashboardRetailCountsEveryValidTransaction(t *testing.T) {
	txs := []domain.Transaction{
		{ID: "R1", Date: day, Mode: domain.ModeRetail, TotalRevenue: 40000, NetProfit: 15000, PaymentMethod: "Cash"},
		{ID: "R2", Date: day, Mode: domain.ModeRetail, TotalRevenue: 25000, NetProfit: 9000, PaymentMethod: "QRIS"},
		// Online transactions never leak into a Retail dashboard.
		onlineTx("O1", domain.StatusCompleted, 99999, 99999),
	}
	sum := Dashboard(txs, domain.ModeRetail, NewRange(day, day))

	if !almostEqual(sum.NetProfit, 24000) {
		t.Errorf("net profit: expected 24000, got %v", sum.NetProfit)
	}
	if !almostEqual(sum.CashTotal, 40000) || !almostEqual(sum.QRISTotal, 25000) {
		t.Errorf("payment totals: cash %v qris %v", sum.CashTotal, sum.QRISTotal)
	}
}

func TestRangeIsInclusiveOfDayBoundaries(t *testing.T) {
	r := NewRange(day, day)
	early := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	late := time.Date(2025, 3, 10, 23, 59, 59, 0, time.UTC)
	before := time.Date(2025, 3, 9, 23, 59, 59, 0, time.UTC)
	after := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)

	if !r.Contains(early) || !r.Contains(late) {
		t.Fatal("range must include both day boundaries")
	}
	if r.Contains(before) || r.Contains(after) {
		t.Fatal("range must exclude neighboring days")
	}
}

func TestRecap(t *testing.T) {
	txs := []domain.Transaction{
		{ID: "A", Date: day, TotalRevenue: 200000, TotalCost: 120000, PlatformFee: 16000, PackingCost: 2000},
		{ID: "B", Date: day, TotalRevenue: 100000, TotalCost: 60000, CODFee: 4000, ShippingCost: 10000},
	}
	exps := []domain.Expense{
		{ID: "E1", Date: day, Category: domain.ExpenseMarketing, Amount: 50000},
		{ID: "E2", Date: day, Category: domain.ExpenseRent, Amount: 30000},
	}
	sum := Recap(txs, exps, NewRange(day, day))

	if !almostEqual(sum.Revenue, 300000) || !almostEqual(sum.HPP, 180000) {
		t.Fatalf("revenue/hpp: %v / %v", sum.Revenue, sum.HPP)
	}
	if !almostEqual(sum.GrossProfit, 120000) {
		t.Errorf("gross profit: got %v", sum.GrossProfit)
	}
	if !almostEqual(sum.AdSpend, 50000) || !almostEqual(sum.OtherExpenses, 30000) {
		t.Errorf("expenses split: ad %v other %v", sum.AdSpend, sum.OtherExpenses)
	}
	if !almostEqual(sum.PlatformFees, 32000) {
		t.Errorf("platform fees: expected 32000, got %v", sum.PlatformFees)
	}
	wantNet := 120000.0 - 50000 - 30000 - 32000
	if !almostEqual(sum.NetProfit, wantNet) {
		t.Errorf("net profit: expected %v, got %v", wantNet, sum.NetProfit)
	}
	if !almostEqual(sum.ROAS, 6) {
		t.Errorf("roas: expected 6, got %v", sum.ROAS)
	}
	if !almostEqual(sum.MarginPercent, wantNet/300000*100) {
		t.Errorf("margin: got %v", sum.MarginPercent)
	}
}

func TestRecapEmptyRangeYieldsZeroes(t *testing.T) {
	sum := Recap(nil, nil, NewRange(day, day))
	if sum != (RecapSummary{}) {
		t.Fatalf("expected zero recap, got %+v", sum)
	}
}

func TestProductPerformanceSortedByRevenue(t *testing.T) {
	txs := []domain.Transaction{
		{ID: "A", Date: day, Items: []domain.TransactionItem{
			{ProductID: "P1", ProductName: "Kopi", Quantity: 2, PriceAtSale: 15000, HPPAtSale: 9000},
			{ProductID: "P2", ProductName: "Teh", Quantity: 1, PriceAtSale: 50000, HPPAtSale: 20000},
		}},
		{ID: "B", Date: day, Items: []domain.TransactionItem{
			{ProductID: "P1", ProductName: "Kopi", Quantity: 1, PriceAtSale: 15000, HPPAtSale: 9000},
		}},
	}
	stats := ProductPerformance(txs, NewRange(day, day))
	if len(stats) != 2 {
		t.Fatalf("expected 2 products, got %d", len(stats))
	}
	if stats[0].ProductID != "P2" {
		t.Fatalf("expected P2 first by revenue, got %s", stats[0].ProductID)
	}
	p1 := stats[1]
	if p1.Quantity != 3 || !almostEqual(p1.Revenue, 45000) || !almostEqual(p1.GrossProfit, 18000) || p1.TransactionCount != 2 {
		t.Fatalf("P1 stats: %+v", p1)
	}
}

func TestCashflowTimelineNewestFirst(t *testing.T) {
	txs := []domain.Transaction{
		{ID: "T1", Date: day.Add(-2 * time.Hour), Source: "Shopee", TotalRevenue: 30000,
			Items: []domain.TransactionItem{{ProductID: "P1", Quantity: 1}}},
	}
	exps := []domain.Expense{
		{ID: "E1", Date: day, Category: domain.ExpenseOperational, Amount: 10000, Description: "Listrik"},
	}
	report := Cashflow(txs, exps, NewRange(day, day))

	if len(report.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(report.Entries))
	}
	if report.Entries[0].ID != "E1" || report.Entries[1].ID != "T1" {
		t.Fatalf("expected newest first: %+v", report.Entries)
	}
	if report.Entries[1].Title != "Penjualan Shopee" || report.Entries[1].Subtitle != "1 Item" {
		t.Fatalf("income labels: %+v", report.Entries[1])
	}
	if !almostEqual(report.NetCashflow, 20000) {
		t.Fatalf("net cashflow: expected 20000, got %v", report.NetCashflow)
	}
}
