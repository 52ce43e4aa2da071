package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"bisnisflow/internal/domain"
	"bisnisflow/internal/store"
	"bisnisflow/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, hpp, price, stock, min_stock
		FROM products
		ORDER BY category, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 128)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.HPP, &p.Price, &p.Stock, &p.MinStock); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (s *Store) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, category, hpp, price, stock, min_stock
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Category, &p.HPP, &p.Price, &p.Stock, &p.MinStock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID == "" || product.Name == "" || product.Price <= 0 {
		return nil, store.ErrInvalidTransaction
	}
	if product.Stock < 0 || product.MinStock < 0 {
		return nil, store.ErrInvalidTransaction
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, category, hpp, price, stock, min_stock, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,now(),now())
	`, product.ID, product.Name, product.Category, product.HPP, product.Price, product.Stock, product.MinStock)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicateID
		}
		return nil, err
	}

	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID == "" || product.Name == "" || product.Price <= 0 || product.Stock < 0 {
		return nil, store.ErrInvalidTransaction
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, category = $3, hpp = $4, price = $5, stock = $6, min_stock = $7, updated_at = now()
		WHERE id = $1
	`, product.ID, product.Name, product.Category, product.HPP, product.Price, product.Stock, product.MinStock)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	updated := product
	return &updated, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) SetStock(ctx context.Context, id string, qty int) error {
	if qty < 0 {
		return store.ErrInvalidTransaction
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET stock = $2, updated_at = now() WHERE id = $1
	`, id, qty)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

const transactionColumns = `
	id, position, date, mode, source, total_revenue, total_cost,
	platform_fee, cod_fee, shipping_cost, packing_cost, net_profit,
	payment_method, customer_name, notes, amount_paid, change,
	status, resi, expedition
`

func (s *Store) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		ORDER BY position DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.scanTransactions(ctx, rows)
}

func (s *Store) ListTransactionsBetween(ctx context.Context, from, to time.Time) ([]domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE date >= $1 AND date <= $2
		ORDER BY position DESC
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.scanTransactions(ctx, rows)
}

func (s *Store) scanTransactions(ctx context.Context, rows *sql.Rows) ([]domain.Transaction, error) {
	txs := make([]domain.Transaction, 0, 128)
	ids := make([]string, 0, 128)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
		ids = append(ids, tx.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return txs, nil
	}

	itemRows, err := s.db.QueryContext(ctx, `
		SELECT transaction_id, product_id, product_name, quantity, price_at_sale, hpp_at_sale
		FROM transaction_items
		WHERE transaction_id = ANY($1)
		ORDER BY seq
	`, ids)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()

	byTx := make(map[string][]domain.TransactionItem, len(txs))
	for itemRows.Next() {
		var txID string
		var item domain.TransactionItem
		if err := itemRows.Scan(&txID, &item.ProductID, &item.ProductName, &item.Quantity, &item.PriceAtSale, &item.HPPAtSale); err != nil {
			return nil, err
		}
		byTx[txID] = append(byTx[txID], item)
	}
	if err := itemRows.Err(); err != nil {
		return nil, err
	}
	for i := range txs {
		txs[i].Items = byTx[txs[i].ID]
	}
	return txs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (domain.Transaction, error) {
	var tx domain.Transaction
	var position int64
	var customerName, notes, status, resi, expedition sql.NullString
	err := row.Scan(
		&tx.ID, &position, &tx.Date, &tx.Mode, &tx.Source, &tx.TotalRevenue, &tx.TotalCost,
		&tx.PlatformFee, &tx.CODFee, &tx.ShippingCost, &tx.PackingCost, &tx.NetProfit,
		&tx.PaymentMethod, &customerName, &notes, &tx.AmountPaid, &tx.Change,
		&status, &resi, &expedition,
	)
	if err != nil {
		return tx, err
	}
	tx.Date = tx.Date.UTC()
	tx.CustomerName = customerName.String
	tx.Notes = notes.String
	tx.Status = domain.OrderStatus(status.String)
	tx.Resi = resi.String
	tx.Expedition = expedition.String
	return tx, nil
}

func (s *Store) GetTransactionByID(ctx context.Context, id string) (*domain.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE id = $1
	`, id)
	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	itemRows, err := s.db.QueryContext(ctx, `
		SELECT product_id, product_name, quantity, price_at_sale, hpp_at_sale
		FROM transaction_items
		WHERE transaction_id = $1
		ORDER BY seq
	`, id)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item domain.TransactionItem
		if err := itemRows.Scan(&item.ProductID, &item.ProductName, &item.Quantity, &item.PriceAtSale, &item.HPPAtSale); err != nil {
			return nil, err
		}
		tx.Items = append(tx.Items, item)
	}
	if err := itemRows.Err(); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (s *Store) PrependTransactions(ctx context.Context, txs []domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	for _, tx := range txs {
		if tx.ID == "" {
			return store.ErrInvalidTransaction
		}
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = dbTx.Rollback() }()

	// Positions grow monotonically; listing orders by position DESC. The
	// batch is inserted last-first so the batch head ends up newest.
	for i := len(txs) - 1; i >= 0; i-- {
		tx := txs[i]
		_, err := dbTx.ExecContext(ctx, `
			INSERT INTO transactions (
				id, position, date, mode, source, total_revenue, total_cost,
				platform_fee, cod_fee, shipping_cost, packing_cost, net_profit,
				payment_method, customer_name, notes, amount_paid, change,
				status, resi, expedition, created_at
			)
			VALUES ($1, nextval('transactions_position_seq'), $2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19, now())
		`, tx.ID, tx.Date, tx.Mode, tx.Source, tx.TotalRevenue, tx.TotalCost,
			tx.PlatformFee, tx.CODFee, tx.ShippingCost, tx.PackingCost, tx.NetProfit,
			tx.PaymentMethod, nullable(tx.CustomerName), nullable(tx.Notes), tx.AmountPaid, tx.Change,
			nullable(string(tx.Status)), nullable(tx.Resi), nullable(tx.Expedition))
		if err != nil {
			if isUniqueViolation(err) {
				return store.ErrDuplicateID
			}
			return err
		}
		for seq, item := range tx.Items {
			_, err := dbTx.ExecContext(ctx, `
				INSERT INTO transaction_items (transaction_id, seq, product_id, product_name, quantity, price_at_sale, hpp_at_sale)
				VALUES ($1,$2,$3,$4,$5,$6,$7)
			`, tx.ID, seq, item.ProductID, item.ProductName, item.Quantity, item.PriceAtSale, item.HPPAtSale)
			if err != nil {
				return err
			}
		}
	}

	return dbTx.Commit()
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = dbTx.Rollback() }()

	if _, err := dbTx.ExecContext(ctx, `DELETE FROM transaction_items WHERE transaction_id = $1`, id); err != nil {
		return err
	}
	res, err := dbTx.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return dbTx.Commit()
}

func (s *Store) ListExpenses(ctx context.Context) ([]domain.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, category, amount, description
		FROM expenses
		ORDER BY date DESC, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanExpenses(rows)
}

func (s *Store) ListExpensesBetween(ctx context.Context, from, to time.Time) ([]domain.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, category, amount, description
		FROM expenses
		WHERE date >= $1 AND date <= $2
		ORDER BY date DESC, id
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanExpenses(rows)
}

func scanExpenses(rows *sql.Rows) ([]domain.Expense, error) {
	expenses := make([]domain.Expense, 0, 64)
	for rows.Next() {
		var e domain.Expense
		if err := rows.Scan(&e.ID, &e.Date, &e.Category, &e.Amount, &e.Description); err != nil {
			return nil, err
		}
		e.Date = e.Date.UTC()
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return expenses, nil
}

func (s *Store) CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error) {
	if expense.ID == "" || expense.Amount <= 0 || expense.Description == "" {
		return nil, store.ErrInvalidTransaction
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (id, date, category, amount, description, created_at)
		VALUES ($1,$2,$3,$4,$5,now())
	`, expense.ID, expense.Date, expense.Category, expense.Amount, expense.Description)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicateID
		}
		return nil, err
	}
	created := expense
	return &created, nil
}

func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	if user.Username == "" || user.Password == "" {
		return store.ErrInvalidTransaction
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password, role, active, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if isUniqueViolation(err) {
		return store.ErrDuplicateID
	}
	return err
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var u domain.UserAccount
		if err := rows.Scan(&u.Username, &u.Password, &u.Role, &u.Active, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.CreatedAt = u.CreatedAt.UTC()
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET password = $2 WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, entry.ID, entry.ActorUsername, entry.ActorRole, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, from, to time.Time, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		WHERE created_at >= $1 AND created_at <= $2
		ORDER BY created_at DESC
		LIMIT $3
	`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.ActorUsername, &entry.ActorRole, &entry.Action, &entry.EntityType, &entry.EntityID, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

func nullable(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
