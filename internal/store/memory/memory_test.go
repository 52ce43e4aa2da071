package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"bisnisflow/internal/domain"
	"bisnisflow/internal/store"
)

func TestPrependTransactionsKeepsBatchOrderAtHead(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	batch := []domain.Transaction{
		{ID: "ORD-A", Date: time.Now()},
		{ID: "ORD-B", Date: time.Now()},
	}
	if err := s.PrependTransactions(ctx, batch); err != nil {
		t.Fatalf("prepend: %v", err)
	}

	txs, err := s.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if txs[0].ID != "ORD-A" || txs[1].ID != "ORD-B" {
		t.Fatalf("batch order not preserved at head: %s %s", txs[0].ID, txs[1].ID)
	}
	// Seeded history follows the new batch.
	if txs[2].ID != "t2" {
		t.Fatalf("existing ledger must follow the batch, got %s", txs[2].ID)
	}
}

func TestPrependTransactionsRejectsDuplicateID(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	err := s.PrependTransactions(ctx, []domain.Transaction{{ID: "t1"}})
	if !errors.Is(err, store.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	// The failed batch must not change the ledger.
	txs, _ := s.ListTransactions(ctx)
	if len(txs) != 2 {
		t.Fatalf("ledger changed after rejected batch: %d entries", len(txs))
	}
}

func TestDeleteTransactionFreesItsID(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	if err := s.DeleteTransaction(ctx, "t1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetTransactionByID(ctx, "t1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	// The id can be reused once deleted.
	if err := s.PrependTransactions(ctx, []domain.Transaction{{ID: "t1"}}); err != nil {
		t.Fatalf("reinsert after delete: %v", err)
	}
}

func TestListTransactionsReturnsClones(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	txs, _ := s.ListTransactions(ctx)
	txs[0].Items[0].Quantity = 999

	again, _ := s.ListTransactions(ctx)
	if again[0].Items[0].Quantity == 999 {
		t.Fatal("store state leaked through returned slice")
	}
}

func TestSetStockValidation(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	if err := s.SetStock(ctx, "1", 70); err != nil {
		t.Fatalf("set stock: %v", err)
	}
	p, _ := s.GetProductByID(ctx, "1")
	if p.Stock != 70 {
		t.Fatalf("expected 70, got %d", p.Stock)
	}
	if err := s.SetStock(ctx, "1", -1); !errors.Is(err, store.ErrInvalidTransaction) {
		t.Fatalf("negative stock must be rejected, got %v", err)
	}
	if err := s.SetStock(ctx, "missing", 5); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateExpensePrependsNewestFirst(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	if _, err := s.CreateExpense(ctx, domain.Expense{ID: "e3", Date: time.Now(), Category: domain.ExpenseRent, Amount: 1000000, Description: "Sewa Kios"}); err != nil {
		t.Fatalf("create expense: %v", err)
	}
	exps, _ := s.ListExpenses(ctx)
	if exps[0].ID != "e3" {
		t.Fatalf("expected newest expense first, got %s", exps[0].ID)
	}
}

func TestListTransactionsBetween(t *testing.T) {
	s := NewEmpty()
	ctx := context.Background()
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	batch := []domain.Transaction{
		{ID: "in", Date: base},
		{ID: "out", Date: base.AddDate(0, 0, -5)},
	}
	if err := s.PrependTransactions(ctx, batch); err != nil {
		t.Fatalf("prepend: %v", err)
	}
	got, err := s.ListTransactionsBetween(ctx, base.AddDate(0, 0, -1), base.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("list between: %v", err)
	}
	if len(got) != 1 || got[0].ID != "in" {
		t.Fatalf("unexpected window result: %+v", got)
	}
}
