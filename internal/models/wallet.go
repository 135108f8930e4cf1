package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance - остаток актива на спотовом аккаунте
type Balance struct {
	Asset  string          `json:"asset"`
	Free   decimal.Decimal `json:"free"`
	Locked decimal.Decimal `json:"locked"`
}

// BalanceLine - строка кошелька с оценкой в котируемой валюте
//
// Priced=false означает что цену получить не удалось, Value в этом случае 0.
type BalanceLine struct {
	Asset  string          `json:"asset"`
	Free   decimal.Decimal `json:"free"`
	Locked decimal.Decimal `json:"locked"`
	Total  decimal.Decimal `json:"total"`
	Price  decimal.Decimal `json:"price"`
	Value  decimal.Decimal `json:"value"`
	Priced bool            `json:"priced"`
}

// TrendPoint - суммарная стоимость топ-активов на конец UTC-дня
type TrendPoint struct {
	Date  string          `json:"date"` // YYYY-MM-DD
	Value decimal.Decimal `json:"value"`
}

// TrendGap - актив-день, для которого не удалось получить историческую цену
type TrendGap struct {
	Asset string `json:"asset"`
	Date  string `json:"date"`
}

// Candle - дневная свеча (используется только close)
type Candle struct {
	OpenTime time.Time
	Close    decimal.Decimal
}

// WalletSnapshot - ответ GET /binance/wallet
type WalletSnapshot struct {
	TotalValue   decimal.Decimal `json:"totalValue"`
	QuoteAsset   string          `json:"quoteAsset"`
	Assets       []BalanceLine   `json:"assets"`
	Trend        []TrendPoint    `json:"trend"`
	TrendPartial bool            `json:"trendPartial"`
	TrendGaps    []TrendGap      `json:"trendGaps"`
}
