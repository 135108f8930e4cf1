package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"tradelink/internal/models"
	"tradelink/internal/service"
)

// ============ WalletHandler Tests ============

func TestWalletHandler_GetWallet(t *testing.T) {
	t.Run("passes query and returns snapshot", func(t *testing.T) {
		mockSvc := &MockWalletService{snapshot: &models.WalletSnapshot{
			TotalValue: decimal.NewFromInt(50000),
			QuoteAsset: "USDT",
			Assets: []models.BalanceLine{
				{Asset: "BTC", Total: decimal.NewFromInt(1), Price: decimal.NewFromInt(50000), Value: decimal.NewFromInt(50000), Priced: true},
			},
			Trend:     []models.TrendPoint{},
			TrendGaps: []models.TrendGap{},
		}}
		handler := NewWalletHandler(mockSvc)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/binance/wallet?ownerId=mem_1&sort=asset&order=asc&timeframe=14d", nil)
		w := httptest.NewRecorder()

		handler.GetWallet(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
		}
		if mockSvc.lastQuery != (service.WalletQuery{Sort: "asset", Order: "asc", Timeframe: "14d"}) {
			t.Errorf("unexpected query: %+v", mockSvc.lastQuery)
		}
		for _, field := range []string{`"totalValue":"50000"`, `"assets":[`, `"trendPartial":false`, `"trendGaps":[]`} {
			if !strings.Contains(w.Body.String(), field) {
				t.Errorf("field %s missing in %s", field, w.Body.String())
			}
		}
	})

	t.Run("returns 400 when not connected", func(t *testing.T) {
		handler := NewWalletHandler(&MockWalletService{err: service.ErrNotConnected})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/binance/wallet?ownerId=mem_1", nil)
		w := httptest.NewRecorder()

		handler.GetWallet(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
	})
}

func TestWalletHandler_GetTrades(t *testing.T) {
	mockSvc := &MockWalletService{trades: []models.Trade{{ID: 1, Symbol: "BTCUSDT", IsBuyer: true}}}
	handler := NewWalletHandler(mockSvc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/binance/trades?ownerId=mem_1&pair=BTCUSDT", nil)
	w := httptest.NewRecorder()

	handler.GetTrades(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var resp TradesResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Trades) != 1 || mockSvc.lastPair != "BTCUSDT" {
		t.Errorf("unexpected response: %+v (pair %q)", resp, mockSvc.lastPair)
	}
}

func TestWalletHandler_GetStats(t *testing.T) {
	mockSvc := &MockWalletService{stats: &models.TradeStats{Pair: "BTCUSDT", TotalTrades: 3}}
	handler := NewWalletHandler(mockSvc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/binance/stats?ownerId=mem_1&pair=btcusdt", nil)
	w := httptest.NewRecorder()

	handler.GetStats(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if !strings.Contains(w.Body.String(), `"totalTrades":3`) || !strings.Contains(w.Body.String(), `"lastTradeTime":null`) {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestWalletHandler_NilService(t *testing.T) {
	handler := &WalletHandler{}

	for _, fn := range []http.HandlerFunc{handler.GetWallet, handler.GetTrades, handler.GetStats} {
		w := httptest.NewRecorder()
		fn(w, httptest.NewRequest(http.MethodGet, "/api/v1/binance/wallet", nil))
		if w.Code != http.StatusInternalServerError {
			t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
	}
}
