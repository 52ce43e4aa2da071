package importer

import (
	"strings"

	"bisnisflow/internal/domain"
)

// cancelKeywords override any marketplace-specific wording: a refunded or
// returned order is cancelled even when the raw status says "selesai".
var cancelKeywords = []string{
	"batal",
	"cancel",
	"gagal",
	"return",
	"refund",
	"pengembalian",
	"dikembalikan",
}

// statusTier maps raw-status substrings to one canonical status. Tiers are
// evaluated in order, most-final state first.
type statusTier struct {
	status   domain.OrderStatus
	keywords []string
}

var statusTables = map[domain.Marketplace][]statusTier{
	domain.MarketplaceShopee: {
		{domain.StatusCompleted, []string{"selesai", "completed"}},
		{domain.StatusSent, []string{"sedang dikirim", "dijemput kurir", "dikirim", "dalam perjalanan", "sedang transit", "terkirim"}},
		{domain.StatusPacking, []string{"perlu dikirim", "sedang dikemas", "siap dikirim", "menunggu pengambilan"}},
	},
	domain.MarketplaceTikTok: {
		{domain.StatusCompleted, []string{"completed", "selesai"}},
		{domain.StatusSent, []string{"in transit", "shipped", "dikirim", "sedang dikirim", "sedang transit"}},
		{domain.StatusPacking, []string{"awaiting shipment", "awaiting collection", "siap dikirim", "menunggu pengambilan"}},
	},
	domain.MarketplaceTokopedia: {
		{domain.StatusCompleted, []string{"selesai", "pesanan selesai"}},
		{domain.StatusSent, []string{"sedang dikirim", "dalam pengiriman", "sampai tujuan", "terkirim"}},
		{domain.StatusPacking, []string{"pesanan baru", "siap dikirim", "diproses penjual", "menunggu pengambilan"}},
	},
	domain.MarketplaceLazada: {
		{domain.StatusCompleted, []string{"delivered", "confirmed"}},
		{domain.StatusSent, []string{"shipped", "dalam pengiriman", "sedang transit"}},
		{domain.StatusPacking, []string{"ready to ship", "diproses", "menunggu pengambilan"}},
	},
}

// ClassifyStatus maps a raw status cell to the canonical order status.
// Total: unknown wording falls through to Pending.
func ClassifyStatus(marketplace domain.Marketplace, raw string) domain.OrderStatus {
	s := strings.ToLower(strings.TrimSpace(raw))
	for _, kw := range cancelKeywords {
		if strings.Contains(s, kw) {
			return domain.StatusCancelled
		}
	}
	for _, tier := range statusTables[marketplace] {
		for _, kw := range tier.keywords {
			if strings.Contains(s, kw) {
				return tier.status
			}
		}
	}
	return domain.StatusPending
}
