package importer

import (
	"errors"
	"fmt"
	"strings"

	"bisnisflow/internal/domain"
)

// ErrFormatNotRecognized marks a header row that does not match the
// expected export layout of the chosen marketplace.
var ErrFormatNotRecognized = errors.New("import format not recognized")

// Columns holds resolved header indexes for one sheet; -1 means the
// column is absent.
type Columns struct {
	OrderID        int
	Status         int
	ProductName    int
	Quantity       int
	UnitPrice      int
	TotalAmount    int
	TrackingNumber int
}

// columnRule matches a header cell when it contains any of the given
// substrings (case-insensitive).
type columnRule struct {
	orderID     []string
	status      []string
	productName []string
	quantity    []string
	unitPrice   []string
	totalAmount []string
	tracking    []string
}

var columnRules = map[domain.Marketplace]columnRule{
	domain.MarketplaceShopee: {
		orderID:     []string{"no. pesanan"},
		status:      []string{"status pesanan"},
		productName: []string{"nama produk"},
		quantity:    []string{"jumlah produk"},
		unitPrice:   []string{"harga awal"},
		totalAmount: []string{"total pembayaran"},
		tracking:    []string{"no. resi"},
	},
	domain.MarketplaceTikTok: {
		orderID:     []string{"order id"},
		status:      []string{"order status"},
		productName: []string{"product name"},
		quantity:    []string{"quantity"},
		unitPrice:   []string{"unit price"},
		totalAmount: []string{"order subtotal"},
	},
	domain.MarketplaceTokopedia: {
		orderID:     []string{"invoice", "nomor invoice"},
		status:      []string{"status"},
		productName: []string{"nama produk"},
		quantity:    []string{"jumlah"},
		unitPrice:   []string{"harga jual"},
		totalAmount: []string{"total harga", "nilai total"},
	},
	domain.MarketplaceLazada: {
		orderID:     []string{"order item id", "order number"},
		status:      []string{"status"},
		productName: []string{"item name"},
		quantity:    []string{"quantity"},
		unitPrice:   []string{"unit price"},
		totalAmount: []string{"paid price"},
	},
}

func findColumn(header []string, substrings []string) int {
	if len(substrings) == 0 {
		return -1
	}
	for i, cell := range header {
		h := strings.ToLower(strings.TrimSpace(cell))
		for _, sub := range substrings {
			if strings.Contains(h, sub) {
				return i
			}
		}
	}
	return -1
}

// ResolveColumns locates the marketplace's columns in the header row.
// Order id and status are mandatory; everything else degrades to -1.
func ResolveColumns(marketplace domain.Marketplace, header []string) (Columns, error) {
	rule, ok := columnRules[marketplace]
	if !ok {
		return Columns{}, fmt.Errorf("%w: unsupported marketplace %q", ErrFormatNotRecognized, marketplace)
	}
	cols := Columns{
		OrderID:        findColumn(header, rule.orderID),
		Status:         findColumn(header, rule.status),
		ProductName:    findColumn(header, rule.productName),
		Quantity:       findColumn(header, rule.quantity),
		UnitPrice:      findColumn(header, rule.unitPrice),
		TotalAmount:    findColumn(header, rule.totalAmount),
		TrackingNumber: findColumn(header, rule.tracking),
	}
	if cols.OrderID < 0 || cols.Status < 0 {
		return Columns{}, fmt.Errorf("%w: sheet does not look like a %s export", ErrFormatNotRecognized, marketplace)
	}
	return cols, nil
}
