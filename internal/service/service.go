package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"bisnisflow/internal/advisor"
	"bisnisflow/internal/domain"
	"bisnisflow/internal/hpp"
	"bisnisflow/internal/importer"
	"bisnisflow/internal/ledger"
	"bisnisflow/internal/sheet"
	"bisnisflow/internal/store"
	"bisnisflow/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo      store.Repository
	costModel importer.CostModel
	advisor   *advisor.Advisor
}

func New(repo store.Repository, costModel importer.CostModel, adv *advisor.Advisor) *Service {
	if costModel == (importer.CostModel{}) {
		costModel = importer.DefaultCostModel()
	}
	return &Service{
		repo:      repo,
		costModel: costModel,
		advisor:   adv,
	}
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Product{}, fmt.Errorf("admin role required")
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	if req.Category == "" {
		req.Category = "General"
	}

	if req.Name == "" || req.Price <= 0 || req.HPP < 0 || req.InitialStock < 0 || req.MinStock < 0 {
		return domain.Product{}, store.ErrInvalidTransaction
	}

	product := domain.Product{
		ID:       xid.New("prod"),
		Name:     req.Name,
		Category: req.Category,
		HPP:      req.HPP,
		Price:    req.Price,
		Stock:    req.InitialStock,
		MinStock: req.MinStock,
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}

	s.logAudit(ctx, "product_create", "product", created.ID, fmt.Sprintf("name=%s,price=%.0f,stock=%d", created.Name, created.Price, created.Stock))
	return *created, nil
}

// UpdateProduct edits catalog fields in place. The current stock level
// is carried over untouched.
func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Product{}, fmt.Errorf("admin role required")
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	if req.Category == "" {
		req.Category = "General"
	}
	if req.Name == "" || req.Price <= 0 || req.HPP < 0 || req.MinStock < 0 {
		return domain.Product{}, store.ErrInvalidTransaction
	}

	current, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	updated, err := s.repo.UpdateProduct(ctx, domain.Product{
		ID:       current.ID,
		Name:     req.Name,
		Category: req.Category,
		HPP:      req.HPP,
		Price:    req.Price,
		Stock:    current.Stock,
		MinStock: req.MinStock,
	})
	if err != nil {
		return domain.Product{}, err
	}

	s.logAudit(ctx, "product_update", "product", updated.ID, fmt.Sprintf("name=%s,price=%.0f,hpp=%.0f", updated.Name, updated.Price, updated.HPP))
	return *updated, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return fmt.Errorf("admin role required")
	}
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "product_delete", "product", id, "")
	return nil
}

// UpdateStock sets the absolute stock level after a manual count.
func (s *Service) UpdateStock(ctx context.Context, id string, qty int) (domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Product{}, fmt.Errorf("admin role required")
	}
	if qty < 0 {
		return domain.Product{}, store.ErrInvalidTransaction
	}
	if err := s.repo.SetStock(ctx, id, qty); err != nil {
		return domain.Product{}, err
	}
	updated, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	s.logAudit(ctx, "stock_update", "product", id, fmt.Sprintf("stock=%d", qty))
	return *updated, nil
}

// normalizeCart merges duplicate product lines and drops non-positive
// quantities.
func normalizeCart(items []domain.CartItem) []domain.CartItem {
	merged := make(map[string]int, len(items))
	var order []string
	for _, item := range items {
		id := strings.TrimSpace(item.ProductID)
		if id == "" || item.Qty < 1 {
			continue
		}
		if _, seen := merged[id]; !seen {
			order = append(order, id)
		}
		merged[id] += item.Qty
	}
	out := make([]domain.CartItem, 0, len(order))
	for _, id := range order {
		out = append(out, domain.CartItem{ProductID: id, Qty: merged[id]})
	}
	return out
}

func parseCheckoutDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now().UTC(), nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparseable date %q", store.ErrInvalidTransaction, raw)
}

func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutResponse, error) {
	if req.Mode != domain.ModeRetail && req.Mode != domain.ModeOnline {
		return domain.CheckoutResponse{}, store.ErrInvalidTransaction
	}

	cart := normalizeCart(req.CartItems)
	if len(cart) == 0 {
		return domain.CheckoutResponse{}, store.ErrInvalidTransaction
	}

	date, err := parseCheckoutDate(req.Date)
	if err != nil {
		return domain.CheckoutResponse{}, err
	}

	if req.PaymentMethod == "" {
		req.PaymentMethod = "Cash"
	}
	if req.PlatformFeePercent < 0 || req.PlatformFeePercent > 100 ||
		req.CODFeePercent < 0 || req.CODFeePercent > 100 ||
		req.ShippingCost < 0 || req.PackingCost < 0 {
		return domain.CheckoutResponse{}, store.ErrInvalidTransaction
	}

	// Snapshot catalog prices and costs at sale time.
	items := make([]domain.TransactionItem, 0, len(cart))
	var totalRevenue, totalCost float64
	for _, line := range cart {
		product, err := s.repo.GetProductByID(ctx, line.ProductID)
		if err != nil {
			return domain.CheckoutResponse{}, err
		}
		items = append(items, domain.TransactionItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    line.Qty,
			PriceAtSale: product.Price,
			HPPAtSale:   product.HPP,
		})
		totalRevenue += float64(line.Qty) * product.Price
		totalCost += float64(line.Qty) * product.HPP
	}

	tx := domain.Transaction{
		ID:            xid.New("tx"),
		Date:          date,
		Mode:          req.Mode,
		Items:         items,
		TotalRevenue:  totalRevenue,
		TotalCost:     totalCost,
		PaymentMethod: req.PaymentMethod,
		CustomerName:  strings.TrimSpace(req.CustomerName),
	}

	switch req.Mode {
	case domain.ModeRetail:
		tx.Source = "Store"
		if req.Source != "" {
			tx.Source = req.Source
		}
		tx.NetProfit = totalRevenue - totalCost
		if req.PaymentMethod == "Cash" {
			if req.AmountPaid < totalRevenue {
				return domain.CheckoutResponse{}, fmt.Errorf("%w: insufficient cash", store.ErrInvalidTransaction)
			}
			tx.AmountPaid = req.AmountPaid
			tx.Change = req.AmountPaid - totalRevenue
		} else {
			tx.AmountPaid = totalRevenue
		}

	case domain.ModeOnline:
		tx.Source = "WhatsApp"
		if req.Source != "" {
			tx.Source = req.Source
		}
		status := domain.OrderStatus(req.Status)
		if status == "" {
			status = domain.StatusPending
		}
		switch status {
		case domain.StatusPending, domain.StatusPacking, domain.StatusSent:
		default:
			return domain.CheckoutResponse{}, fmt.Errorf("%w: status %q not allowed at checkout", store.ErrInvalidTransaction, req.Status)
		}
		tx.Status = status
		tx.Expedition = req.Expedition
		tx.Resi = req.Resi
		tx.PlatformFee = totalRevenue * req.PlatformFeePercent / 100
		if req.COD {
			tx.CODFee = (totalRevenue + req.ShippingCost) * req.CODFeePercent / 100
		}
		tx.ShippingCost = req.ShippingCost
		tx.PackingCost = req.PackingCost
		tx.NetProfit = totalRevenue - totalCost - tx.PlatformFee - tx.CODFee - tx.PackingCost
	}

	if err := s.repo.PrependTransactions(ctx, []domain.Transaction{tx}); err != nil {
		return domain.CheckoutResponse{}, err
	}

	// Deduct stock, clamped at zero: overselling records the sale but
	// never drives stock negative.
	for _, item := range items {
		product, err := s.repo.GetProductByID(ctx, item.ProductID)
		if err != nil {
			continue
		}
		newStock := product.Stock - item.Quantity
		if newStock < 0 {
			newStock = 0
		}
		if err := s.repo.SetStock(ctx, item.ProductID, newStock); err != nil {
			log.Printf("[service] WARN: failed to deduct stock product=%s: %v", item.ProductID, err)
		}
	}

	s.logAudit(ctx, "checkout", "transaction", tx.ID,
		fmt.Sprintf("mode=%s,revenue=%.0f,net=%.0f,items=%d", tx.Mode, tx.TotalRevenue, tx.NetProfit, len(tx.Items)))

	return domain.CheckoutResponse{Transaction: tx}, nil
}

func (s *Service) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	return s.repo.ListTransactions(ctx)
}

func (s *Service) GetTransaction(ctx context.Context, id string) (domain.Transaction, error) {
	if _, ok := ActorFromContext(ctx); !ok {
		return domain.Transaction{}, fmt.Errorf("authentication required")
	}
	tx, err := s.repo.GetTransactionByID(ctx, id)
	if err != nil {
		return domain.Transaction{}, err
	}
	return *tx, nil
}

func (s *Service) DeleteTransaction(ctx context.Context, id string) error {
	if _, ok := ActorFromContext(ctx); !ok {
		return fmt.Errorf("authentication required")
	}
	if err := s.repo.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "transaction_delete", "transaction", id, "")
	return nil
}

func (s *Service) ListExpenses(ctx context.Context) ([]domain.Expense, error) {
	return s.repo.ListExpenses(ctx)
}

func (s *Service) CreateExpense(ctx context.Context, req domain.ExpenseCreateRequest) (domain.Expense, error) {
	if _, ok := ActorFromContext(ctx); !ok {
		return domain.Expense{}, fmt.Errorf("authentication required")
	}

	category := domain.ExpenseCategory(strings.TrimSpace(req.Category))
	if !category.Valid() {
		return domain.Expense{}, fmt.Errorf("%w: unknown expense category %q", store.ErrInvalidTransaction, req.Category)
	}
	req.Description = strings.TrimSpace(req.Description)
	if req.Amount <= 0 || req.Description == "" {
		return domain.Expense{}, store.ErrInvalidTransaction
	}
	date, err := parseCheckoutDate(req.Date)
	if err != nil {
		return domain.Expense{}, err
	}

	expense := domain.Expense{
		ID:          xid.New("exp"),
		Date:        date,
		Category:    category,
		Amount:      req.Amount,
		Description: req.Description,
	}
	created, err := s.repo.CreateExpense(ctx, expense)
	if err != nil {
		return domain.Expense{}, err
	}
	s.logAudit(ctx, "expense_create", "expense", created.ID, fmt.Sprintf("category=%s,amount=%.0f", created.Category, created.Amount))
	return *created, nil
}

func (s *Service) DeleteExpense(ctx context.Context, id string) error {
	if _, ok := ActorFromContext(ctx); !ok {
		return fmt.Errorf("authentication required")
	}
	if err := s.repo.DeleteExpense(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "expense_delete", "expense", id, "")
	return nil
}

// CalculateHPP is a pure calculation; nothing is persisted.
func (s *Service) CalculateHPP(_ context.Context, in hpp.Input) hpp.Result {
	return hpp.Calculate(in)
}

// SaveHPPProduct turns a calculation into a catalog product.
func (s *Service) SaveHPPProduct(ctx context.Context, in hpp.Input) (domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Product{}, fmt.Errorf("admin role required")
	}

	result := hpp.Calculate(in)
	product, err := hpp.ToProduct(in, result)
	if err != nil {
		return domain.Product{}, err
	}
	product.ID = xid.New("prod")

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}
	s.logAudit(ctx, "hpp_save", "product", created.ID, fmt.Sprintf("name=%s,hpp=%.2f,price=%.2f", created.Name, created.HPP, created.Price))
	return *created, nil
}

// PreviewImport decodes an uploaded seller-center export and aggregates
// it into orders. Nothing is persisted until commit.
func (s *Service) PreviewImport(ctx context.Context, marketplace domain.Marketplace, filename string, file io.Reader) (domain.ImportPreview, error) {
	if _, ok := ActorFromContext(ctx); !ok {
		return domain.ImportPreview{}, fmt.Errorf("authentication required")
	}
	if !marketplace.Valid() {
		return domain.ImportPreview{}, fmt.Errorf("%w: unknown marketplace %q", importer.ErrFormatNotRecognized, marketplace)
	}

	rows, err := sheet.Decode(filename, file)
	if err != nil {
		return domain.ImportPreview{}, err
	}
	preview, err := importer.Aggregate(marketplace, rows, s.costModel, time.Now().UTC())
	if err != nil {
		return domain.ImportPreview{}, err
	}
	return *preview, nil
}

// CommitImport records a confirmed batch. Orders whose id is already in
// the ledger are dropped and counted; an all-duplicate batch changes
// nothing and reports zero accepted.
func (s *Service) CommitImport(ctx context.Context, req domain.ImportCommitRequest) (domain.ImportResult, error) {
	if _, ok := ActorFromContext(ctx); !ok {
		return domain.ImportResult{}, fmt.Errorf("authentication required")
	}
	for _, tx := range req.Transactions {
		if strings.TrimSpace(tx.ID) == "" {
			return domain.ImportResult{}, fmt.Errorf("%w: order without id", store.ErrInvalidTransaction)
		}
	}

	existing, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return domain.ImportResult{}, err
	}
	accepted, duplicates := importer.Reconcile(existing, req.Transactions)
	if len(accepted) > 0 {
		if err := s.repo.PrependTransactions(ctx, accepted); err != nil {
			return domain.ImportResult{}, err
		}
	}

	s.logAudit(ctx, "import_commit", "transaction_batch", "", fmt.Sprintf("accepted=%d,duplicates=%d", len(accepted), duplicates))
	return domain.ImportResult{Accepted: len(accepted), DuplicateCount: duplicates}, nil
}

// parseReportRange turns query parameters into a day-inclusive range.
// Defaults mirror the dashboard: month-to-date.
func parseReportRange(startStr, endStr string) (ledger.Range, error) {
	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := now
	if startStr != "" {
		t, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			return ledger.Range{}, fmt.Errorf("%w: bad start date %q", store.ErrInvalidTransaction, startStr)
		}
		start = t
	}
	if endStr != "" {
		t, err := time.Parse("2006-01-02", endStr)
		if err != nil {
			return ledger.Range{}, fmt.Errorf("%w: bad end date %q", store.ErrInvalidTransaction, endStr)
		}
		end = t
	}
	return ledger.NewRange(start, end), nil
}

func (s *Service) DashboardReport(ctx context.Context, mode domain.BusinessMode, startStr, endStr string) (ledger.DashboardSummary, error) {
	if mode != domain.ModeRetail && mode != domain.ModeOnline {
		return ledger.DashboardSummary{}, store.ErrInvalidTransaction
	}
	r, err := parseReportRange(startStr, endStr)
	if err != nil {
		return ledger.DashboardSummary{}, err
	}
	txs, err := s.repo.ListTransactionsBetween(ctx, r.Start, r.End)
	if err != nil {
		return ledger.DashboardSummary{}, err
	}
	return ledger.Dashboard(txs, mode, r), nil
}

func (s *Service) RecapReport(ctx context.Context, startStr, endStr string) (ledger.RecapSummary, error) {
	r, err := parseReportRange(startStr, endStr)
	if err != nil {
		return ledger.RecapSummary{}, err
	}
	txs, err := s.repo.ListTransactionsBetween(ctx, r.Start, r.End)
	if err != nil {
		return ledger.RecapSummary{}, err
	}
	exps, err := s.repo.ListExpensesBetween(ctx, r.Start, r.End)
	if err != nil {
		return ledger.RecapSummary{}, err
	}
	return ledger.Recap(txs, exps, r), nil
}

func (s *Service) ProductReport(ctx context.Context, startStr, endStr string) ([]ledger.ProductStat, error) {
	r, err := parseReportRange(startStr, endStr)
	if err != nil {
		return nil, err
	}
	txs, err := s.repo.ListTransactionsBetween(ctx, r.Start, r.End)
	if err != nil {
		return nil, err
	}
	return ledger.ProductPerformance(txs, r), nil
}

func (s *Service) CashflowReport(ctx context.Context, startStr, endStr string) (ledger.CashflowReport, error) {
	r, err := parseReportRange(startStr, endStr)
	if err != nil {
		return ledger.CashflowReport{}, err
	}
	txs, err := s.repo.ListTransactionsBetween(ctx, r.Start, r.End)
	if err != nil {
		return ledger.CashflowReport{}, err
	}
	exps, err := s.repo.ListExpensesBetween(ctx, r.Start, r.End)
	if err != nil {
		return ledger.CashflowReport{}, err
	}
	return ledger.Cashflow(txs, exps, r), nil
}

// businessSnapshot folds the whole history into the context handed to
// the AI consultant.
func (s *Service) businessSnapshot(ctx context.Context, mode domain.BusinessMode) (advisor.BusinessContext, error) {
	txs, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return advisor.BusinessContext{}, err
	}
	exps, err := s.repo.ListExpenses(ctx)
	if err != nil {
		return advisor.BusinessContext{}, err
	}
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return advisor.BusinessContext{}, err
	}

	snap := advisor.BusinessContext{Mode: mode, ActiveSKUs: len(products)}
	for _, tx := range txs {
		snap.GrossRevenue += tx.TotalRevenue
		snap.NetProfit += tx.NetProfit
		if tx.Mode == domain.ModeOnline {
			snap.OnlineTxCount++
		} else {
			snap.RetailTxCount++
		}
	}
	for _, e := range exps {
		snap.TotalExpenses += e.Amount
	}
	return snap, nil
}

// Advise answers a consulting question with the current books as
// context. Advisor failures come back as messages, never errors.
func (s *Service) Advise(ctx context.Context, mode domain.BusinessMode, req domain.AdviceRequest) (domain.AdviceResponse, error) {
	if _, ok := ActorFromContext(ctx); !ok {
		return domain.AdviceResponse{}, fmt.Errorf("authentication required")
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return domain.AdviceResponse{}, store.ErrInvalidTransaction
	}
	if mode == "" {
		mode = domain.ModeRetail
	}

	snap, err := s.businessSnapshot(ctx, mode)
	if err != nil {
		return domain.AdviceResponse{}, err
	}
	return s.advisor.Advise(ctx, question, snap), nil
}

func (s *Service) ListAuditLogs(ctx context.Context, date string, limit int) ([]domain.AuditLog, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return nil, fmt.Errorf("admin role required")
	}

	day := time.Now().UTC()
	if date != "" {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("%w: bad date %q", store.ErrInvalidTransaction, date)
		}
		day = parsed
	}
	r := ledger.NewRange(day, day)
	return s.repo.ListAuditLogs(ctx, r.Start, r.End, limit)
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:            xid.New("audit"),
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     time.Now().UTC(),
	}); err != nil {
		log.Printf("[audit] WARN: failed to write audit log action=%s entity=%s/%s: %v", action, entityType, entityID, err)
	}
}
