package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"bisnisflow/internal/domain"
	"bisnisflow/internal/store"
)

// Store keeps the whole ledger in memory. The transaction slice is
// ordered newest first; prepends preserve that invariant.
type Store struct {
	mu              sync.RWMutex
	products        map[string]domain.Product
	transactions    []domain.Transaction
	txIDs           map[string]struct{}
	expenses        []domain.Expense
	auditLogs       []domain.AuditLog
	usersByUsername map[string]domain.UserAccount
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials are read from SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD
// environment variables. If unset, hardcoded dev defaults are used with a
// warning printed to stdout. These credentials are never used in production
// (the backend uses PostgreSQL when DATABASE_URL is set).
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"cashier", cashierPwd, "cashier"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func NewSeeded() *Store {
	now := time.Now().UTC()
	products := []domain.Product{
		{ID: "1", Name: "Kopi Susu Gula Aren", Category: "Minuman", HPP: 8500, Price: 18000, Stock: 45, MinStock: 10},
		{ID: "2", Name: "Croissant Butter", Category: "Makanan", HPP: 12000, Price: 25000, Stock: 12, MinStock: 5},
		{ID: "3", Name: "Iced Americano", Category: "Minuman", HPP: 4000, Price: 15000, Stock: 100, MinStock: 20},
		{ID: "4", Name: "Nasi Goreng Spesial", Category: "Makanan", HPP: 15000, Price: 32000, Stock: 20, MinStock: 5},
	}

	transactions := []domain.Transaction{
		{
			ID: "t2", Date: now, Mode: domain.ModeOnline, Source: "Tokopedia", PaymentMethod: "Wallet",
			TotalRevenue: 150000, TotalCost: 72000, PlatformFee: 7500, PackingCost: 2000, NetProfit: 68500,
			Items:  []domain.TransactionItem{{ProductID: "2", ProductName: "Croissant Butter", Quantity: 6, PriceAtSale: 25000, HPPAtSale: 12000}},
			Status: domain.StatusSent, Expedition: "JNE", Resi: "JP123456789",
		},
		{
			ID: "t1", Date: now.Add(-24 * time.Hour), Mode: domain.ModeRetail, Source: "Store", PaymentMethod: "Cash",
			TotalRevenue: 90000, TotalCost: 42500, NetProfit: 47500,
			Items:      []domain.TransactionItem{{ProductID: "1", ProductName: "Kopi Susu Gula Aren", Quantity: 5, PriceAtSale: 18000, HPPAtSale: 8500}},
			AmountPaid: 100000, Change: 10000,
		},
	}

	expenses := []domain.Expense{
		{ID: "e1", Date: now, Category: domain.ExpenseMarketing, Amount: 500000, Description: "Facebook Ads Harian"},
		{ID: "e2", Date: now, Category: domain.ExpenseOperational, Amount: 150000, Description: "Beli Gas Elpiji"},
	}

	productMap := make(map[string]domain.Product, len(products))
	for _, p := range products {
		productMap[p.ID] = p
	}
	txIDs := make(map[string]struct{}, len(transactions))
	for _, tx := range transactions {
		txIDs[tx.ID] = struct{}{}
	}

	return &Store{
		products:        productMap,
		transactions:    transactions,
		txIDs:           txIDs,
		expenses:        expenses,
		auditLogs:       make([]domain.AuditLog, 0, 128),
		usersByUsername: seedUsers(),
	}
}

// NewEmpty starts with users only, no catalog or ledger data.
func NewEmpty() *Store {
	return &Store{
		products:        make(map[string]domain.Product),
		txIDs:           make(map[string]struct{}),
		usersByUsername: seedUsers(),
	}
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	slices.SortFunc(products, func(a, b domain.Product) int {
		if a.Category == b.Category {
			return strings.Compare(a.Name, b.Name)
		}
		return strings.Compare(a.Category, b.Category)
	})
	return products, nil
}

func (s *Store) GetProductByID(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyProduct := product
	return &copyProduct, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID == "" || product.Name == "" || product.Price <= 0 {
		return nil, store.ErrInvalidTransaction
	}
	if product.Stock < 0 || product.MinStock < 0 {
		return nil, store.ErrInvalidTransaction
	}
	if _, exists := s.products[product.ID]; exists {
		return nil, store.ErrDuplicateID
	}

	s.products[product.ID] = product
	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID == "" || product.Name == "" || product.Price <= 0 || product.Stock < 0 {
		return nil, store.ErrInvalidTransaction
	}
	if _, exists := s.products[product.ID]; !exists {
		return nil, store.ErrNotFound
	}

	s.products[product.ID] = product
	updated := product
	return &updated, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *Store) SetStock(_ context.Context, id string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if qty < 0 {
		return store.ErrInvalidTransaction
	}
	product, exists := s.products[id]
	if !exists {
		return store.ErrNotFound
	}
	product.Stock = qty
	s.products[id] = product
	return nil
}

func (s *Store) ListTransactions(_ context.Context) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTransactions(s.transactions), nil
}

func (s *Store) GetTransactionByID(_ context.Context, id string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.transactions {
		if s.transactions[i].ID == id {
			tx := cloneTransaction(s.transactions[i])
			return &tx, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) PrependTransactions(_ context.Context, txs []domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tx := range txs {
		if tx.ID == "" {
			return store.ErrInvalidTransaction
		}
		if _, exists := s.txIDs[tx.ID]; exists {
			return store.ErrDuplicateID
		}
	}

	head := cloneTransactions(txs)
	s.transactions = append(head, s.transactions...)
	for _, tx := range txs {
		s.txIDs[tx.ID] = struct{}{}
	}
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.transactions {
		if s.transactions[i].ID == id {
			s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
			delete(s.txIDs, id)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) ListTransactionsBetween(_ context.Context, from, to time.Time) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Transaction, 0, len(s.transactions))
	for i := range s.transactions {
		d := s.transactions[i].Date
		if !d.Before(from) && !d.After(to) {
			out = append(out, cloneTransaction(s.transactions[i]))
		}
	}
	return out, nil
}

func (s *Store) ListExpenses(_ context.Context) ([]domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.expenses), nil
}

func (s *Store) CreateExpense(_ context.Context, expense domain.Expense) (*domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expense.ID == "" || expense.Amount <= 0 || expense.Description == "" {
		return nil, store.ErrInvalidTransaction
	}
	s.expenses = append([]domain.Expense{expense}, s.expenses...)
	created := expense
	return &created, nil
}

func (s *Store) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.expenses {
		if s.expenses[i].ID == id {
			s.expenses = append(s.expenses[:i], s.expenses[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) ListExpensesBetween(_ context.Context, from, to time.Time) ([]domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Expense, 0, len(s.expenses))
	for _, e := range s.expenses {
		if !e.Date.Before(from) && !e.Date.After(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.Username == "" || user.Password == "" {
		return store.ErrInvalidTransaction
	}
	if _, exists := s.usersByUsername[user.Username]; exists {
		return store.ErrDuplicateID
	}
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, u := range s.usersByUsername {
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return strings.Compare(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.usersByUsername[username]
	if !ok {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, from, to time.Time, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.AuditLog, 0, limit)
	for i := len(s.auditLogs) - 1; i >= 0; i-- {
		entry := s.auditLogs[i]
		if entry.CreatedAt.Before(from) || entry.CreatedAt.After(to) {
			continue
		}
		out = append(out, entry)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func cloneTransaction(tx domain.Transaction) domain.Transaction {
	out := tx
	out.Items = slices.Clone(tx.Items)
	return out
}

func cloneTransactions(txs []domain.Transaction) []domain.Transaction {
	out := make([]domain.Transaction, len(txs))
	for i := range txs {
		out[i] = cloneTransaction(txs[i])
	}
	return out
}
