package importer

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"bisnisflow/internal/domain"
)

// CostModel holds the estimation rates applied to imported orders. The
// marketplace exports carry no cost data, so HPP and fees are estimated.
type CostModel struct {
	HPPRatio        float64
	PlatformFeeRate float64
	PackingCost     float64
}

// DefaultCostModel mirrors the in-app estimates: HPP 60% of price,
// platform fee 8% of revenue, packing 2000 rupiah per order.
func DefaultCostModel() CostModel {
	return CostModel{HPPRatio: 0.6, PlatformFeeRate: 0.08, PackingCost: 2000}
}

var nonNumeric = regexp.MustCompile(`[^0-9.-]+`)

// parseAmount strips currency formatting ("Rp 1.500" style symbols and
// separators are already gone after the strip) and returns 0 on garbage.
func parseAmount(raw string) float64 {
	cleaned := nonNumeric.ReplaceAllString(raw, "")
	if cleaned == "" {
		return 0
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseQuantity(raw string) int {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v <= 0 {
		return 1
	}
	return int(v)
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func importedItemID() string {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("IMP-%d", time.Now().UnixNano()%100000)
	}
	return "IMP-" + hex.EncodeToString(buf)
}

// Aggregate turns a decoded sheet (header row + data rows) into one
// transaction per marketplace order. Rows sharing an order id merge into
// a single transaction; the first-seen order of ids is preserved.
func Aggregate(marketplace domain.Marketplace, rows [][]string, model CostModel, now time.Time) (*domain.ImportPreview, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: sheet is empty", ErrFormatNotRecognized)
	}
	cols, err := ResolveColumns(marketplace, rows[0])
	if err != nil {
		return nil, err
	}

	byOrder := make(map[string]*domain.Transaction)
	var order []string

	for _, row := range rows[1:] {
		orderID := cell(row, cols.OrderID)
		if orderID == "" {
			continue
		}
		status := ClassifyStatus(marketplace, cell(row, cols.Status))
		cancelled := status == domain.StatusCancelled

		name := "Unknown Product"
		if cols.ProductName >= 0 {
			if n := cell(row, cols.ProductName); n != "" {
				name = n
			}
		}
		qty := 1
		if cols.Quantity >= 0 {
			qty = parseQuantity(cell(row, cols.Quantity))
		}
		var price float64
		if cols.UnitPrice >= 0 {
			price = parseAmount(cell(row, cols.UnitPrice))
		}
		// Revenue contribution of this row: the total-amount cell when
		// present and non-zero, price*qty otherwise.
		contribution := price * float64(qty)
		if cols.TotalAmount >= 0 {
			if amt := parseAmount(cell(row, cols.TotalAmount)); amt != 0 {
				contribution = amt
			}
		}
		cost := price * model.HPPRatio * float64(qty)
		fee := contribution * model.PlatformFeeRate

		item := domain.TransactionItem{
			ProductID:   importedItemID(),
			ProductName: name,
			Quantity:    qty,
			PriceAtSale: price,
			HPPAtSale:   price * model.HPPRatio,
		}

		if tx, ok := byOrder[orderID]; ok {
			tx.Items = append(tx.Items, item)
			// A cancelled order stays fully zeroed even when a later row
			// for the same order id carries a non-cancelled status.
			if !cancelled && tx.Status != domain.StatusCancelled {
				tx.TotalRevenue += contribution
				tx.TotalCost += cost
				tx.PlatformFee += fee
				tx.NetProfit = tx.TotalRevenue - tx.TotalCost - tx.PlatformFee - tx.PackingCost
			}
			continue
		}

		tx := &domain.Transaction{
			ID:            orderID,
			Date:          now,
			Mode:          domain.ModeOnline,
			Source:        string(marketplace),
			Items:         []domain.TransactionItem{item},
			PaymentMethod: "Marketplace",
			CustomerName:  "Marketplace User",
			Status:        status,
			Resi:          cell(row, cols.TrackingNumber),
			Expedition:    "Standard",
		}
		// Cancelled orders keep every monetary field at zero even when
		// the sheet carries refund amounts in the total column.
		if !cancelled {
			tx.TotalRevenue = contribution
			tx.TotalCost = cost
			tx.PlatformFee = fee
			tx.PackingCost = model.PackingCost
			tx.NetProfit = contribution - cost - fee - model.PackingCost
		}
		byOrder[orderID] = tx
		order = append(order, orderID)
	}

	preview := &domain.ImportPreview{Marketplace: marketplace}
	for _, id := range order {
		tx := byOrder[id]
		preview.Transactions = append(preview.Transactions, *tx)
		switch tx.Status {
		case domain.StatusCompleted:
			preview.Completed++
		case domain.StatusSent, domain.StatusPacking:
			preview.InProcess++
		case domain.StatusCancelled:
			preview.Cancelled++
		}
		if tx.Status != domain.StatusCancelled {
			preview.GrossRevenue += tx.TotalRevenue
		}
	}
	return preview, nil
}
