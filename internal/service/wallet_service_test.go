package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradelink/internal/models"
	"tradelink/pkg/utils"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var walletNow = time.Date(2024, 5, 3, 15, 0, 0, 0, time.UTC)

func newWalletFixture() (*WalletService, *MockBinance, *MockKeyProvider) {
	binance := NewMockBinance()
	keys := NewMockKeyProvider()
	keys.keys[credKey("mem_1", models.VendorBinance)] = models.APIKeys{APIKey: "k", APISecret: "s"}

	svc := NewWalletService(keys, binance, WalletConfig{QuoteAsset: "USDT", TopN: 5, DefaultDays: 3, MaxDays: 30, TradesLimit: 50}, nil)
	svc.now = func() time.Time { return walletNow }
	return svc, binance, keys
}

func dailyCandles(closes ...string) []models.Candle {
	days := utils.DaysBack(walletNow, len(closes))
	out := make([]models.Candle, len(closes))
	for i, c := range closes {
		out[i] = models.Candle{OpenTime: days[i], Close: dec(c)}
	}
	return out
}

func TestWalletService_Snapshot(t *testing.T) {
	svc, binance, _ := newWalletFixture()
	binance.balances = []models.Balance{
		{Asset: "ETH", Free: dec("2"), Locked: dec("0")},
		{Asset: "BTC", Free: dec("1"), Locked: dec("0")},
		{Asset: "USDT", Free: dec("100"), Locked: dec("0")},
		{Asset: "ZERO", Free: dec("0"), Locked: dec("0")},
	}
	binance.prices = map[string]decimal.Decimal{"BTCUSDT": dec("50000"), "ETHUSDT": dec("3000")}
	binance.candles["BTCUSDT"] = dailyCandles("48000", "49000", "50000")
	binance.candles["ETHUSDT"] = dailyCandles("2900", "2950", "3000")

	snap, err := svc.Snapshot(context.Background(), "mem_1", WalletQuery{})
	require.NoError(t, err)

	require.Len(t, snap.Assets, 3)
	assert.Equal(t, "BTC", snap.Assets[0].Asset, "value desc by default")
	assert.True(t, snap.Assets[0].Value.Equal(dec("50000")))
	assert.Equal(t, "USDT", snap.Assets[2].Asset)
	assert.True(t, snap.TotalValue.Equal(dec("56100")))
	assert.Equal(t, "USDT", snap.QuoteAsset)

	require.Len(t, snap.Trend, 3)
	assert.Equal(t, "2024-05-01", snap.Trend[0].Date)
	assert.True(t, snap.Trend[0].Value.Equal(dec("53900")), "48000 + 2*2900 + 100")
	assert.True(t, snap.Trend[2].Value.Equal(dec("56100")))
	assert.False(t, snap.TrendPartial)
	assert.Empty(t, snap.TrendGaps)

	assert.ElementsMatch(t, []string{"BTCUSDT", "ETHUSDT"}, binance.klineCalls, "quote asset needs no klines")
	assert.Equal(t, 1, binance.priceCalls)
}

func TestWalletService_SnapshotPartialTrend(t *testing.T) {
	svc, binance, _ := newWalletFixture()
	binance.balances = []models.Balance{
		{Asset: "BTC", Free: dec("1")},
		{Asset: "ETH", Free: dec("1")},
	}
	binance.prices = map[string]decimal.Decimal{"BTCUSDT": dec("50000"), "ETHUSDT": dec("3000")}
	binance.candles["BTCUSDT"] = dailyCandles("48000", "49000", "50000")
	binance.candleErrs["ETHUSDT"] = upstreamErr(500, "")

	snap, err := svc.Snapshot(context.Background(), "mem_1", WalletQuery{})
	require.NoError(t, err, "failed asset must not fail the snapshot")

	assert.True(t, snap.TrendPartial)
	assert.Len(t, snap.TrendGaps, 3)
	for _, g := range snap.TrendGaps {
		assert.Equal(t, "ETH", g.Asset)
	}
	assert.True(t, snap.Trend[0].Value.Equal(dec("48000")))
}

func TestWalletService_SnapshotSortAndUnpriced(t *testing.T) {
	svc, binance, _ := newWalletFixture()
	binance.balances = []models.Balance{
		{Asset: "BTC", Free: dec("1")},
		{Asset: "ADA", Free: dec("10")},
		{Asset: "NOPE", Free: dec("5")},
	}
	binance.prices = map[string]decimal.Decimal{"BTCUSDT": dec("50000"), "ADAUSDT": dec("0.5")}

	snap, err := svc.Snapshot(context.Background(), "mem_1", WalletQuery{Sort: "asset", Order: "asc"})
	require.NoError(t, err)

	assets := []string{snap.Assets[0].Asset, snap.Assets[1].Asset, snap.Assets[2].Asset}
	assert.Equal(t, []string{"ADA", "BTC", "NOPE"}, assets)
	assert.False(t, snap.Assets[2].Priced)
	assert.NotContains(t, binance.klineCalls, "NOPEUSDT", "unpriced assets are not in the top")
}

func TestWalletService_SnapshotOnlyQuote(t *testing.T) {
	svc, binance, _ := newWalletFixture()
	binance.balances = []models.Balance{{Asset: "USDT", Free: dec("10")}}

	snap, err := svc.Snapshot(context.Background(), "mem_1", WalletQuery{Timeframe: "2d"})
	require.NoError(t, err)

	assert.Equal(t, 0, binance.priceCalls, "no prices needed for quote-only wallet")
	require.Len(t, snap.Trend, 2)
	assert.True(t, snap.Trend[1].Value.Equal(dec("10")))
}

func TestWalletService_SnapshotErrors(t *testing.T) {
	t.Run("invalid params", func(t *testing.T) {
		svc, binance, _ := newWalletFixture()
		for _, q := range []WalletQuery{{Sort: "price"}, {Order: "up"}, {Timeframe: "31d"}, {Timeframe: "week"}} {
			_, err := svc.Snapshot(context.Background(), "mem_1", q)
			assert.True(t, IsValidation(err), "query %+v: %v", q, err)
		}
		assert.Equal(t, 0, binance.accountCalls)
	})

	t.Run("not connected", func(t *testing.T) {
		svc, _, _ := newWalletFixture()
		_, err := svc.Snapshot(context.Background(), "mem_2", WalletQuery{})
		assert.ErrorIs(t, err, ErrNotConnected)
	})

	t.Run("account error propagates", func(t *testing.T) {
		svc, binance, _ := newWalletFixture()
		binance.accountErr = upstreamErr(401, "")
		_, err := svc.Snapshot(context.Background(), "mem_1", WalletQuery{})
		assert.Equal(t, binance.accountErr, err)
	})

	t.Run("prices error propagates", func(t *testing.T) {
		svc, binance, _ := newWalletFixture()
		binance.balances = []models.Balance{{Asset: "BTC", Free: dec("1")}}
		binance.pricesErr = upstreamErr(502, "")
		_, err := svc.Snapshot(context.Background(), "mem_1", WalletQuery{})
		assert.Equal(t, binance.pricesErr, err)
	})
}

func TestWalletService_TradesAndStats(t *testing.T) {
	svc, binance, _ := newWalletFixture()
	binance.trades = []models.Trade{
		{Symbol: "BTCUSDT", Qty: dec("1"), QuoteQty: dec("100"), IsBuyer: true, Time: 1700000000000},
		{Symbol: "BTCUSDT", Qty: dec("2"), QuoteQty: dec("180"), IsBuyer: true, Time: 1700000100000},
		{Symbol: "ETHUSDT", Qty: dec("5"), QuoteQty: dec("15000"), IsBuyer: true, Time: 1700000200000},
	}

	trades, err := svc.Trades(context.Background(), "mem_1", "btc-usdt")
	require.NoError(t, err)
	assert.Len(t, trades, 2)
	assert.Equal(t, 50, binance.lastLimit)

	stats, err := svc.Stats(context.Background(), "mem_1", "BTC/USDT")
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", stats.Pair)
	assert.Equal(t, 2, stats.TotalTrades)
	assert.True(t, stats.TotalBuyQty.Equal(dec("3")))
	assert.True(t, stats.TotalBuyNotional.Equal(dec("280")))
	assert.Equal(t, "93.33", stats.AvgBuyPrice.StringFixed(2))

	empty, err := svc.Trades(context.Background(), "mem_1", "XRPUSDT")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestWalletService_TradesValidation(t *testing.T) {
	svc, _, _ := newWalletFixture()

	_, err := svc.Trades(context.Background(), "mem_1", "")
	assert.True(t, IsValidation(err))

	_, err = svc.Trades(context.Background(), "", "BTCUSDT")
	assert.True(t, IsValidation(err))

	_, err = svc.Trades(context.Background(), "mem_1", "BTC USDT!")
	assert.True(t, IsValidation(err))

	svcErr, binance, _ := newWalletFixture()
	binance.tradesErr = errors.New("boom")
	_, err = svcErr.Stats(context.Background(), "mem_1", "BTCUSDT")
	assert.Error(t, err)
}

func TestCandlesIn(t *testing.T) {
	rng := utils.LastNDaysFrom(walletNow, 2)
	candles := dailyCandles("47000", "48000", "49000")

	kept := candlesIn(rng, candles)
	require.Len(t, kept, 2, "candle before the window is dropped")
	assert.True(t, kept[0].Close.Equal(dec("48000")))

	assert.Empty(t, candlesIn(rng, nil))
}
