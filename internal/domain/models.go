package domain

import "time"

type BusinessMode string

const (
	ModeRetail BusinessMode = "Retail"
	ModeOnline BusinessMode = "Online"
)

// OrderStatus is the canonical fulfilment state of an online order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusPacking   OrderStatus = "Packing"
	StatusSent      OrderStatus = "Sent"
	StatusCompleted OrderStatus = "Completed"
	StatusCancelled OrderStatus = "Cancelled"
)

// Marketplace identifies the channel a spreadsheet export came from.
type Marketplace string

const (
	MarketplaceShopee    Marketplace = "Shopee"
	MarketplaceTikTok    Marketplace = "TikTok"
	MarketplaceTokopedia Marketplace = "Tokopedia"
	MarketplaceLazada    Marketplace = "Lazada"
)

func (m Marketplace) Valid() bool {
	switch m {
	case MarketplaceShopee, MarketplaceTikTok, MarketplaceTokopedia, MarketplaceLazada:
		return true
	}
	return false
}

type ExpenseCategory string

const (
	ExpenseOperational ExpenseCategory = "Operational"
	ExpenseMarketing   ExpenseCategory = "Marketing"
	ExpenseSalary      ExpenseCategory = "Salary"
	ExpenseRent        ExpenseCategory = "Rent"
	ExpenseOther       ExpenseCategory = "Other"
)

func (c ExpenseCategory) Valid() bool {
	switch c {
	case ExpenseOperational, ExpenseMarketing, ExpenseSalary, ExpenseRent, ExpenseOther:
		return true
	}
	return false
}

type Product struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	HPP      float64 `json:"hpp"`
	Price    float64 `json:"price"`
	Stock    int     `json:"stock"`
	MinStock int     `json:"min_stock"`
}

type ProductCreateRequest struct {
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	HPP          float64 `json:"hpp"`
	Price        float64 `json:"price"`
	InitialStock int     `json:"initial_stock"`
	MinStock     int     `json:"min_stock"`
}

// ProductUpdateRequest edits catalog fields. Stock is excluded on
// purpose: counts change only through the stock endpoint or checkout.
type ProductUpdateRequest struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	HPP      float64 `json:"hpp"`
	Price    float64 `json:"price"`
	MinStock int     `json:"min_stock"`
}

// TransactionItem snapshots price and cost at sale time; later catalog
// edits never change historical transactions.
type TransactionItem struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	PriceAtSale float64 `json:"price_at_sale"`
	HPPAtSale   float64 `json:"hpp_at_sale"`
}

type Transaction struct {
	ID     string            `json:"id"`
	Date   time.Time         `json:"date"`
	Mode   BusinessMode      `json:"mode"`
	Source string            `json:"source"`
	Items  []TransactionItem `json:"items"`

	TotalRevenue float64 `json:"total_revenue"`
	TotalCost    float64 `json:"total_cost"`
	PlatformFee  float64 `json:"platform_fee"`
	CODFee       float64 `json:"cod_fee"`
	ShippingCost float64 `json:"shipping_cost"`
	PackingCost  float64 `json:"packing_cost"`
	NetProfit    float64 `json:"net_profit"`

	PaymentMethod string `json:"payment_method"`
	CustomerName  string `json:"customer_name,omitempty"`
	Notes         string `json:"notes,omitempty"`

	// Retail only.
	AmountPaid float64 `json:"amount_paid,omitempty"`
	Change     float64 `json:"change,omitempty"`

	// Online only.
	Status     OrderStatus `json:"status,omitempty"`
	Resi       string      `json:"resi,omitempty"`
	Expedition string      `json:"expedition,omitempty"`
}

type Expense struct {
	ID          string          `json:"id"`
	Date        time.Time       `json:"date"`
	Category    ExpenseCategory `json:"category"`
	Amount      float64         `json:"amount"`
	Description string          `json:"description"`
}

type ExpenseCreateRequest struct {
	Date        string  `json:"date,omitempty"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

type CartItem struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type CheckoutRequest struct {
	Mode          BusinessMode `json:"mode"`
	Date          string       `json:"date,omitempty"`
	Source        string       `json:"source,omitempty"`
	PaymentMethod string       `json:"payment_method"`
	CustomerName  string       `json:"customer_name,omitempty"`
	CartItems     []CartItem   `json:"cart_items"`

	// Retail only.
	AmountPaid float64 `json:"amount_paid,omitempty"`

	// Online only.
	PlatformFeePercent float64 `json:"platform_fee_percent,omitempty"`
	COD                bool    `json:"cod,omitempty"`
	CODFeePercent      float64 `json:"cod_fee_percent,omitempty"`
	ShippingCost       float64 `json:"shipping_cost,omitempty"`
	PackingCost        float64 `json:"packing_cost,omitempty"`
	Status             string  `json:"status,omitempty"`
	Expedition         string  `json:"expedition,omitempty"`
	Resi               string  `json:"resi,omitempty"`
}

type CheckoutResponse struct {
	Transaction Transaction `json:"transaction"`
}

// ImportPreview is an aggregated batch of marketplace orders awaiting
// confirmation, plus the summary counters shown before commit.
type ImportPreview struct {
	Marketplace  Marketplace   `json:"marketplace"`
	Transactions []Transaction `json:"transactions"`
	Completed    int           `json:"completed"`
	InProcess    int           `json:"in_process"`
	Cancelled    int           `json:"cancelled"`
	GrossRevenue float64       `json:"gross_revenue"`
}

type ImportCommitRequest struct {
	Transactions []Transaction `json:"transactions"`
}

type ImportResult struct {
	Accepted       int `json:"accepted"`
	DuplicateCount int `json:"duplicate_count"`
}

type StockUpdateRequest struct {
	Stock int `json:"stock"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type CashierCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CashierUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type AuditLog struct {
	ID            string    `json:"id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}

type AdviceRequest struct {
	Question string `json:"question"`
}

type AdviceResponse struct {
	Answer string `json:"answer"`
	Cached bool   `json:"cached"`
}
