// Package advisor answers free-form business questions through an
// external chat-completion model, grounded on a snapshot of the books.
// The advisor degrades to fixed messages instead of failing: a chat
// box must never take the dashboard down.
package advisor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"bisnisflow/internal/cache"
	"bisnisflow/internal/domain"
)

const (
	// Shown when no API key is configured. Informational, not an error.
	MsgNotConfigured = "Konsultan AI belum dikonfigurasi. Mohon tambahkan OPENAI_API_KEY di environment variables."
	// Shown when the upstream call fails for any reason.
	MsgUnavailable = "Terjadi kesalahan saat menghubungi asisten AI. Silakan coba lagi nanti."
	// Shown when the model returns an empty completion.
	MsgEmptyAnswer = "Maaf, saya tidak dapat menghasilkan jawaban saat ini."
)

const systemInstruction = `Anda adalah konsultan bisnis AI yang ahli untuk UMKM di Indonesia.
Tugas anda adalah membantu pemilik bisnis menganalisis data penjualan, stok, HPP, dan cashflow.
Berikan jawaban yang ramah, praktis, dan langsung pada intinya.
Gunakan format Markdown untuk struktur yang rapi.

Konteks Data Bisnis Saat Ini:
%s`

// BusinessContext is the snapshot of the books handed to the model
// alongside every question.
type BusinessContext struct {
	Mode          domain.BusinessMode
	GrossRevenue  float64
	NetProfit     float64
	TotalExpenses float64
	OnlineTxCount int
	RetailTxCount int
	ActiveSKUs    int
}

// Format renders the snapshot the way the dashboard presents it.
func (c BusinessContext) Format() string {
	finalProfit := c.NetProfit - c.TotalExpenses
	return fmt.Sprintf(`Data Bisnis Terkini (Mode: %s):
- Total Omzet Kotor: Rp %.0f
- Total Profit Bersih (Setelah Potongan Marketplace/HPP): Rp %.0f
- Beban Operasional: Rp %.0f
- Net Profit Akhir (Bottom Line): Rp %.0f

Split Penjualan:
- Online: %d transaksi
- Retail (Fisik): %d transaksi

Stok: %d SKU aktif.`,
		c.Mode, c.GrossRevenue, c.NetProfit, c.TotalExpenses, finalProfit,
		c.OnlineTxCount, c.RetailTxCount, c.ActiveSKUs)
}

type Advisor struct {
	client   *openai.Client
	enabled  bool
	model    openai.ChatModel
	cache    cache.AdviceCache
	cacheTTL time.Duration
	logger   *log.Logger
}

func New(apiKey string, model string, adviceCache cache.AdviceCache, cacheTTL time.Duration, logger *log.Logger) *Advisor {
	if logger == nil {
		logger = log.Default()
	}
	a := &Advisor{
		model:    openai.ChatModel(model),
		cache:    adviceCache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
	if apiKey == "" {
		return a
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	a.client = &client
	a.enabled = true
	return a
}

func cacheKey(question string, bctx string) string {
	sum := sha256.Sum256([]byte(question + "\x00" + bctx))
	return "advice:" + hex.EncodeToString(sum[:])
}

// Advise answers one question. Identical question+context pairs are
// served from cache while the snapshot has not changed.
func (a *Advisor) Advise(ctx context.Context, question string, bctx BusinessContext) domain.AdviceResponse {
	if !a.enabled {
		return domain.AdviceResponse{Answer: MsgNotConfigured}
	}

	formatted := bctx.Format()
	key := cacheKey(question, formatted)
	if cached, ok, err := a.cache.Get(ctx, key); err == nil && ok {
		cached.Cached = true
		return *cached
	} else if err != nil {
		a.logger.Printf("advice cache get failed: %v", err)
	}

	completion, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: a.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(fmt.Sprintf(systemInstruction, formatted)),
			openai.UserMessage(question),
		},
	})
	if err != nil {
		a.logger.Printf("chat completion failed: %v", err)
		return domain.AdviceResponse{Answer: MsgUnavailable}
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return domain.AdviceResponse{Answer: MsgEmptyAnswer}
	}

	resp := domain.AdviceResponse{Answer: completion.Choices[0].Message.Content}
	if err := a.cache.Set(ctx, key, &resp, a.cacheTTL); err != nil {
		a.logger.Printf("advice cache set failed: %v", err)
	}
	return resp
}
