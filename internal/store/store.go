package store

import (
	"context"
	"errors"
	"time"

	"bisnisflow/internal/domain"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrDuplicateID        = errors.New("duplicate id")
)

type Repository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	SetStock(ctx context.Context, id string, qty int) error

	ListTransactions(ctx context.Context) ([]domain.Transaction, error)
	GetTransactionByID(ctx context.Context, id string) (*domain.Transaction, error)
	// PrependTransactions inserts the batch at the head of the ledger,
	// preserving the batch's own order. Ids already present fail with
	// ErrDuplicateID; callers dedup first.
	PrependTransactions(ctx context.Context, txs []domain.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
	ListTransactionsBetween(ctx context.Context, from, to time.Time) ([]domain.Transaction, error)

	ListExpenses(ctx context.Context) ([]domain.Expense, error)
	CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error)
	DeleteExpense(ctx context.Context, id string) error
	ListExpensesBetween(ctx context.Context, from, to time.Time) ([]domain.Expense, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error

	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, from, to time.Time, limit int) ([]domain.AuditLog, error)
}
