package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade - исполненная сделка владельца (Binance GET /api/v3/myTrades)
type Trade struct {
	ID              int64           `json:"id"`
	OrderID         int64           `json:"orderId"`
	Symbol          string          `json:"symbol"`
	Price           decimal.Decimal `json:"price"`
	Qty             decimal.Decimal `json:"qty"`
	QuoteQty        decimal.Decimal `json:"quoteQty"`
	Commission      decimal.Decimal `json:"commission"`
	CommissionAsset string          `json:"commissionAsset"`
	Time            int64           `json:"time"` // мс
	IsBuyer         bool            `json:"isBuyer"`
	IsMaker         bool            `json:"isMaker"`
}

// TradeStats - агрегат по сделкам одной пары
//
// AvgBuyPrice = TotalBuyNotional / TotalBuyQty, 0 если покупок не было.
// LastTradeTime = nil если сделок нет.
type TradeStats struct {
	Pair             string          `json:"pair"`
	TotalTrades      int             `json:"totalTrades"`
	TotalBuyQty      decimal.Decimal `json:"totalBuyQty"`
	TotalBuyNotional decimal.Decimal `json:"totalBuyNotional"`
	AvgBuyPrice      decimal.Decimal `json:"avgBuyPrice"`
	LastTradeTime    *time.Time      `json:"lastTradeTime"`
}
