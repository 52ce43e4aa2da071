package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"bisnisflow/internal/advisor"
	"bisnisflow/internal/cache"
	"bisnisflow/internal/domain"
	"bisnisflow/internal/hpp"
	"bisnisflow/internal/importer"
	"bisnisflow/internal/store"
	"bisnisflow/internal/store/memory"
)

func newTestService() *Service {
	adv := advisor.New("", "", cache.NoopAdviceCache{}, 0, nil)
	return New(memory.NewSeeded(), importer.DefaultCostModel(), adv)
}

func adminCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "admin", Role: "admin"})
}

func cashierCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "kasir", Role: "cashier"})
}

func TestCreateProductRequiresAdmin(t *testing.T) {
	svc := newTestService()

	req := domain.ProductCreateRequest{Name: "Teh Tarik", HPP: 4000, Price: 10000, InitialStock: 20, MinStock: 5}
	if _, err := svc.CreateProduct(cashierCtx(), req); err == nil {
		t.Fatal("cashier must not create products")
	}

	created, err := svc.CreateProduct(adminCtx(), req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Category != "General" {
		t.Fatalf("empty category must default to General, got %q", created.Category)
	}
	if !strings.HasPrefix(created.ID, "prod-") {
		t.Fatalf("unexpected id %q", created.ID)
	}
}

func TestUpdateProductPreservesStock(t *testing.T) {
	svc := newTestService()

	req := domain.ProductUpdateRequest{Name: "Kopi Susu Spesial", Category: "Minuman", HPP: 9000, Price: 20000, MinStock: 8}
	if _, err := svc.UpdateProduct(cashierCtx(), "1", req); err == nil {
		t.Fatal("cashier must not edit products")
	}

	updated, err := svc.UpdateProduct(adminCtx(), "1", req)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Kopi Susu Spesial" || updated.Price != 20000 || updated.HPP != 9000 {
		t.Fatalf("catalog fields not applied: %+v", updated)
	}
	// Seeded stock level survives a catalog edit.
	if updated.Stock != 45 {
		t.Fatalf("stock must be preserved, got %d", updated.Stock)
	}

	if _, err := svc.UpdateProduct(adminCtx(), "no-such-id", req); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}
	if _, err := svc.UpdateProduct(adminCtx(), "1", domain.ProductUpdateRequest{Name: "", Price: 20000}); !errors.Is(err, store.ErrInvalidTransaction) {
		t.Fatalf("expected ErrInvalidTransaction for blank name, got %v", err)
	}
}

func TestGetTransaction(t *testing.T) {
	svc := newTestService()

	if _, err := svc.GetTransaction(context.Background(), "t1"); err == nil {
		t.Fatal("unauthenticated lookup must fail")
	}

	tx, err := svc.GetTransaction(cashierCtx(), "t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if tx.ID != "t1" || tx.Mode != domain.ModeRetail {
		t.Fatalf("unexpected transaction: %+v", tx)
	}

	if _, err := svc.GetTransaction(cashierCtx(), "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCheckoutRetailCash(t *testing.T) {
	svc := newTestService()

	resp, err := svc.Checkout(cashierCtx(), domain.CheckoutRequest{
		Mode:          domain.ModeRetail,
		PaymentMethod: "Cash",
		CartItems:     []domain.CartItem{{ProductID: "1", Qty: 2}},
		AmountPaid:    50000,
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	tx := resp.Transaction

	// Kopi Susu Gula Aren: price 18000, hpp 8500.
	if tx.TotalRevenue != 36000 {
		t.Fatalf("revenue: got %v", tx.TotalRevenue)
	}
	if tx.NetProfit != 36000-17000 {
		t.Fatalf("retail net profit must be revenue minus cost, got %v", tx.NetProfit)
	}
	if tx.Change != 14000 {
		t.Fatalf("change: got %v", tx.Change)
	}
	if tx.Source != "Store" {
		t.Fatalf("retail source must default to Store, got %q", tx.Source)
	}
	if tx.PlatformFee != 0 || tx.CODFee != 0 || tx.PackingCost != 0 {
		t.Fatal("online fees must stay zero on retail sales")
	}

	// Stock 45 - 2 = 43.
	products, _ := svc.ListProducts(context.Background())
	for _, p := range products {
		if p.ID == "1" && p.Stock != 43 {
			t.Fatalf("stock not deducted: %d", p.Stock)
		}
	}
}

func TestCheckoutRetailCashInsufficient(t *testing.T) {
	svc := newTestService()

	_, err := svc.Checkout(cashierCtx(), domain.CheckoutRequest{
		Mode:          domain.ModeRetail,
		PaymentMethod: "Cash",
		CartItems:     []domain.CartItem{{ProductID: "1", Qty: 1}},
		AmountPaid:    10000,
	})
	if !errors.Is(err, store.ErrInvalidTransaction) {
		t.Fatalf("expected ErrInvalidTransaction, got %v", err)
	}
}

func TestCheckoutOnlineFees(t *testing.T) {
	svc := newTestService()

	resp, err := svc.Checkout(cashierCtx(), domain.CheckoutRequest{
		Mode:               domain.ModeOnline,
		Source:             "Shopee",
		PaymentMethod:      "Transfer",
		CartItems:          []domain.CartItem{{ProductID: "1", Qty: 1}},
		PlatformFeePercent: 10,
		COD:                true,
		CODFeePercent:      4,
		ShippingCost:       12000,
		PackingCost:        2000,
		Status:             "Packing",
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	tx := resp.Transaction

	if tx.PlatformFee != 1800 {
		t.Fatalf("platform fee: got %v", tx.PlatformFee)
	}
	// COD fee applies on revenue plus shipping.
	if tx.CODFee != (18000+12000)*0.04 {
		t.Fatalf("cod fee: got %v", tx.CODFee)
	}
	want := 18000.0 - 8500 - 1800 - tx.CODFee - 2000
	if tx.NetProfit != want {
		t.Fatalf("net profit: got %v want %v", tx.NetProfit, want)
	}
	if tx.Status != domain.StatusPacking {
		t.Fatalf("status: got %q", tx.Status)
	}
}

func TestCheckoutOnlineRejectsClosedStatus(t *testing.T) {
	svc := newTestService()

	for _, status := range []string{"Completed", "Cancelled", "Hilang"} {
		_, err := svc.Checkout(cashierCtx(), domain.CheckoutRequest{
			Mode:      domain.ModeOnline,
			CartItems: []domain.CartItem{{ProductID: "1", Qty: 1}},
			Status:    status,
		})
		if !errors.Is(err, store.ErrInvalidTransaction) {
			t.Fatalf("status %q must be rejected at checkout, got %v", status, err)
		}
	}
}

func TestCheckoutClampsStockAtZero(t *testing.T) {
	svc := newTestService()

	// Croissant Butter has stock 12; sell 20.
	if _, err := svc.Checkout(cashierCtx(), domain.CheckoutRequest{
		Mode:          domain.ModeRetail,
		PaymentMethod: "QRIS",
		CartItems:     []domain.CartItem{{ProductID: "2", Qty: 20}},
	}); err != nil {
		t.Fatalf("checkout: %v", err)
	}

	products, _ := svc.ListProducts(context.Background())
	for _, p := range products {
		if p.ID == "2" && p.Stock != 0 {
			t.Fatalf("oversold stock must clamp to zero, got %d", p.Stock)
		}
	}
}

func TestCheckoutMergesDuplicateCartLines(t *testing.T) {
	svc := newTestService()

	resp, err := svc.Checkout(cashierCtx(), domain.CheckoutRequest{
		Mode:          domain.ModeRetail,
		PaymentMethod: "QRIS",
		CartItems: []domain.CartItem{
			{ProductID: "1", Qty: 1},
			{ProductID: "1", Qty: 2},
		},
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if len(resp.Transaction.Items) != 1 || resp.Transaction.Items[0].Quantity != 3 {
		t.Fatalf("duplicate lines must merge: %+v", resp.Transaction.Items)
	}
}

func TestCheckoutUnknownProduct(t *testing.T) {
	svc := newTestService()

	_, err := svc.Checkout(cashierCtx(), domain.CheckoutRequest{
		Mode:          domain.ModeRetail,
		PaymentMethod: "QRIS",
		CartItems:     []domain.CartItem{{ProductID: "ghost", Qty: 1}},
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCommitImportDeduplicates(t *testing.T) {
	svc := newTestService()
	ctx := cashierCtx()

	batch := []domain.Transaction{
		{ID: "INV-100", Date: time.Now(), Mode: domain.ModeOnline, Source: "Shopee", Status: domain.StatusCompleted},
		{ID: "INV-101", Date: time.Now(), Mode: domain.ModeOnline, Source: "Shopee", Status: domain.StatusSent},
	}
	res, err := svc.CommitImport(ctx, domain.ImportCommitRequest{Transactions: batch})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if res.Accepted != 2 || res.DuplicateCount != 0 {
		t.Fatalf("first commit: %+v", res)
	}

	// Re-uploading the same file must change nothing.
	res, err = svc.CommitImport(ctx, domain.ImportCommitRequest{Transactions: batch})
	if err != nil {
		t.Fatalf("second commit: %v", err)
	}
	if res.Accepted != 0 || res.DuplicateCount != 2 {
		t.Fatalf("second commit must be all duplicates: %+v", res)
	}

	txs, _ := svc.ListTransactions(context.Background())
	if len(txs) != 4 {
		t.Fatalf("ledger must hold seeded plus one batch, got %d", len(txs))
	}
}

func TestCommitImportRejectsMissingID(t *testing.T) {
	svc := newTestService()

	_, err := svc.CommitImport(cashierCtx(), domain.ImportCommitRequest{
		Transactions: []domain.Transaction{{ID: "  "}},
	})
	if !errors.Is(err, store.ErrInvalidTransaction) {
		t.Fatalf("expected ErrInvalidTransaction, got %v", err)
	}
}

func TestCreateExpenseValidation(t *testing.T) {
	svc := newTestService()
	ctx := cashierCtx()

	if _, err := svc.CreateExpense(ctx, domain.ExpenseCreateRequest{Category: "Jajan", Amount: 5000, Description: "x"}); err == nil {
		t.Fatal("unknown category must be rejected")
	}
	if _, err := svc.CreateExpense(ctx, domain.ExpenseCreateRequest{Category: "Marketing", Amount: 0, Description: "x"}); err == nil {
		t.Fatal("zero amount must be rejected")
	}

	exp, err := svc.CreateExpense(ctx, domain.ExpenseCreateRequest{
		Date:        "2025-03-01",
		Category:    "Marketing",
		Amount:      250000,
		Description: "  Iklan TikTok  ",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if exp.Description != "Iklan TikTok" {
		t.Fatalf("description not trimmed: %q", exp.Description)
	}
}

func TestSaveHPPProduct(t *testing.T) {
	svc := newTestService()

	in := hpp.Input{
		ProductName: "Brownies Lumer",
		BatchSize:   50,
		Sections: []hpp.Section{
			{Title: "Bahan", Items: []hpp.Component{{Name: "Coklat", Cost: 200000}}},
		},
		DesiredMarginPercent: 100,
	}
	product, err := svc.SaveHPPProduct(adminCtx(), in)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if product.HPP != 4000 || product.Price != 8000 {
		t.Fatalf("unexpected pricing: hpp=%v price=%v", product.HPP, product.Price)
	}
	if product.Stock != 0 || product.MinStock != 10 {
		t.Fatalf("unexpected stock defaults: %+v", product)
	}

	if _, err := svc.SaveHPPProduct(cashierCtx(), in); err == nil {
		t.Fatal("cashier must not save products")
	}
}

func TestDashboardReportFiltersByMode(t *testing.T) {
	svc := newTestService()

	summary, err := svc.DashboardReport(context.Background(), domain.ModeRetail, "2000-01-01", "2100-01-01")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	// Seeded retail sale: 5x Kopi Susu Gula Aren at 18000.
	if summary.GrossRevenue != 90000 {
		t.Fatalf("retail gross revenue: got %v", summary.GrossRevenue)
	}
}

func TestAdviseWithoutKeyReturnsFixedMessage(t *testing.T) {
	svc := newTestService()

	resp, err := svc.Advise(cashierCtx(), domain.ModeRetail, domain.AdviceRequest{Question: "Gimana cara naikin omzet?"})
	if err != nil {
		t.Fatalf("advise: %v", err)
	}
	if resp.Answer != advisor.MsgNotConfigured {
		t.Fatalf("unexpected answer: %q", resp.Answer)
	}
}

func TestAuditTrailRecordsMutations(t *testing.T) {
	svc := newTestService()

	if _, err := svc.CreateProduct(adminCtx(), domain.ProductCreateRequest{Name: "Es Teh", Price: 5000}); err != nil {
		t.Fatalf("create: %v", err)
	}
	logs, err := svc.ListAuditLogs(adminCtx(), "", 10)
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	if len(logs) == 0 || logs[0].Action != "product_create" {
		t.Fatalf("expected product_create audit entry, got %+v", logs)
	}
	if logs[0].ActorUsername != "admin" {
		t.Fatalf("actor not recorded: %+v", logs[0])
	}

	if _, err := svc.ListAuditLogs(cashierCtx(), "", 10); err == nil {
		t.Fatal("audit trail must be admin only")
	}
}
