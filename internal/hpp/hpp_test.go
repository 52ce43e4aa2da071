package hpp

import (
	"errors"
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func sampleInput() Input {
	return Input{
		ProductName: "Sambal Bawang",
		Category:    "Food",
		BatchSize:   100,
		Sections: []Section{
			{Title: "Bahan Baku", Items: []Component{{Name: "Cabai", Cost: 300000}, {Name: "Bawang", Cost: 100000}}},
			{Title: "Tenaga Kerja", Items: []Component{{Name: "Produksi", Cost: 200000}}},
			{Title: "Overhead", Items: []Component{{Name: "Gas & Listrik", Cost: 100000}}},
		},
		DesiredMarginPercent: 30,
		MarketplaceFeePct:    8,
		TargetRevenue:        10000000,
		TargetROAS:           5,
	}
}

func TestCalculate(t *testing.T) {
	res := Calculate(sampleInput())

	if !almostEqual(res.TotalProductionCost, 700000) {
		t.Fatalf("total cost: got %v", res.TotalProductionCost)
	}
	if !almostEqual(res.HPPPerUnit, 7000) {
		t.Fatalf("hpp per unit: got %v", res.HPPPerUnit)
	}
	if !almostEqual(res.SuggestedPrice, 9100) {
		t.Fatalf("suggested price: got %v", res.SuggestedPrice)
	}
	if !almostEqual(res.AdminFee, 9100*0.08) {
		t.Fatalf("admin fee: got %v", res.AdminFee)
	}
	wantNet := 9100.0 - 7000 - 9100*0.08
	if !almostEqual(res.NetProfitPerUnit, wantNet) {
		t.Fatalf("net per unit: got %v", res.NetProfitPerUnit)
	}
	if !almostEqual(res.BreakEvenROAS, 1/(wantNet/9100)) {
		t.Fatalf("break-even roas: got %v", res.BreakEvenROAS)
	}
	if res.TargetSalesQty != int(math.Ceil(10000000/9100.0)) {
		t.Fatalf("target qty: got %d", res.TargetSalesQty)
	}
	if !almostEqual(res.MaxAdSpend, 2000000) {
		t.Fatalf("max ad spend: got %v", res.MaxAdSpend)
	}
	wantProjected := float64(res.TargetSalesQty)*wantNet - 2000000
	if !almostEqual(res.ProjectedMonthlyNetProfit, wantProjected) {
		t.Fatalf("projected profit: got %v", res.ProjectedMonthlyNetProfit)
	}
	if !res.TargetFeasible {
		t.Fatalf("target ROAS 5 must be feasible with break-even %v", res.BreakEvenROAS)
	}
}

func TestCalculateZeroGuards(t *testing.T) {
	res := Calculate(Input{BatchSize: 0, TargetROAS: 0})
	if res.HPPPerUnit != 0 || res.SuggestedPrice != 0 || res.BreakEvenROAS != 0 || res.MaxAdSpend != 0 || res.TargetSalesQty != 0 {
		t.Fatalf("zero input must yield zero outputs: %+v", res)
	}
}

func TestCalculateInfeasibleTarget(t *testing.T) {
	in := sampleInput()
	// Thin margin plus heavy fee: real margin is about 1%, so break-even
	// ROAS far exceeds the target of 5.
	in.DesiredMarginPercent = 10
	in.MarketplaceFeePct = 8
	in.TargetROAS = 5
	res := Calculate(in)
	if res.BreakEvenROAS <= in.TargetROAS {
		t.Fatalf("expected break-even above target, got %v", res.BreakEvenROAS)
	}
	if res.TargetFeasible {
		t.Fatal("target must be flagged infeasible")
	}
}

func TestToProduct(t *testing.T) {
	in := sampleInput()
	res := Calculate(in)
	p, err := ToProduct(in, res)
	if err != nil {
		t.Fatalf("to product: %v", err)
	}
	if p.Name != "Sambal Bawang" || p.Category != "Food" {
		t.Fatalf("identity fields: %+v", p)
	}
	if !almostEqual(p.HPP, res.HPPPerUnit) || !almostEqual(p.Price, res.SuggestedPrice) {
		t.Fatalf("pricing fields: %+v", p)
	}
	if p.Stock != 0 || p.MinStock != 10 {
		t.Fatalf("new product defaults: stock %d minStock %d", p.Stock, p.MinStock)
	}
}

func TestToProductDefaultsCategory(t *testing.T) {
	in := sampleInput()
	in.Category = ""
	p, err := ToProduct(in, Calculate(in))
	if err != nil {
		t.Fatalf("to product: %v", err)
	}
	if p.Category != "General" {
		t.Fatalf("expected General, got %s", p.Category)
	}
}

func TestToProductRejectsEmptyName(t *testing.T) {
	in := sampleInput()
	in.ProductName = ""
	if _, err := ToProduct(in, Calculate(in)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
