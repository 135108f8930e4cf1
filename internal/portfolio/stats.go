package portfolio

import (
	"github.com/shopspring/decimal"

	"tradelink/internal/models"
	"tradelink/pkg/utils"
)

// ComputeTradeStats агрегирует сделки одной пары.
//
// TotalTrades считает все сделки, суммы только покупки (IsBuyer).
// AvgBuyPrice = TotalBuyNotional / TotalBuyQty или 0 без покупок.
func ComputeTradeStats(pair string, trades []models.Trade) models.TradeStats {
	stats := models.TradeStats{
		Pair:             pair,
		TotalTrades:      len(trades),
		TotalBuyQty:      decimal.Zero,
		TotalBuyNotional: decimal.Zero,
		AvgBuyPrice:      decimal.Zero,
	}

	var last int64
	for _, t := range trades {
		if t.Time > last {
			last = t.Time
		}
		if !t.IsBuyer {
			continue
		}
		stats.TotalBuyQty = stats.TotalBuyQty.Add(t.Qty)
		stats.TotalBuyNotional = stats.TotalBuyNotional.Add(t.QuoteQty)
	}

	if !stats.TotalBuyQty.IsZero() {
		stats.AvgBuyPrice = stats.TotalBuyNotional.Div(stats.TotalBuyQty)
	}
	if len(trades) > 0 {
		ts := utils.FromUnixMillis(last)
		stats.LastTradeTime = &ts
	}
	return stats
}
