package handlers

import (
	"net/http"

	"tradelink/internal/models"
	"tradelink/internal/service"
)

// TradesResponse - ответ GET /binance/trades
type TradesResponse struct {
	Trades []models.Trade `json:"trades"`
}

// WalletHandler отвечает за кошелек и сделки Binance
//
// Endpoints:
// - GET /api/v1/binance/wallet - балансы, оценка и тренд
// - GET /api/v1/binance/trades - сделки по паре
// - GET /api/v1/binance/stats - агрегат сделок по паре
type WalletHandler struct {
	walletService service.WalletServiceInterface
}

// NewWalletHandler создает новый WalletHandler
func NewWalletHandler(walletService service.WalletServiceInterface) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

// GetWallet возвращает снимок кошелька
// GET /api/v1/binance/wallet?ownerId=&sort=asset|value&order=asc|desc&timeframe=7d
//
// Ответ:
//
//	{
//	  "totalValue": "56100",
//	  "quoteAsset": "USDT",
//	  "assets": [...],
//	  "trend": [{"date": "2024-05-01", "value": "55000"}],
//	  "trendPartial": false,
//	  "trendGaps": []
//	}
func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	if h.walletService == nil {
		respondWithError(w, http.StatusInternalServerError, CodeConfiguration, "Wallet service not available", nil)
		return
	}

	q := r.URL.Query()
	snapshot, err := h.walletService.Snapshot(r.Context(), ownerParam(r, ""), service.WalletQuery{
		Sort:      q.Get("sort"),
		Order:     q.Get("order"),
		Timeframe: q.Get("timeframe"),
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, snapshot)
}

// GetTrades возвращает сделки владельца по паре
// GET /api/v1/binance/trades?ownerId=&pair=BTCUSDT
func (h *WalletHandler) GetTrades(w http.ResponseWriter, r *http.Request) {
	if h.walletService == nil {
		respondWithError(w, http.StatusInternalServerError, CodeConfiguration, "Wallet service not available", nil)
		return
	}

	trades, err := h.walletService.Trades(r.Context(), ownerParam(r, ""), r.URL.Query().Get("pair"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, TradesResponse{Trades: trades})
}

// GetStats возвращает агрегат покупок по паре
// GET /api/v1/binance/stats?ownerId=&pair=BTCUSDT
func (h *WalletHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	if h.walletService == nil {
		respondWithError(w, http.StatusInternalServerError, CodeConfiguration, "Wallet service not available", nil)
		return
	}

	stats, err := h.walletService.Stats(r.Context(), ownerParam(r, ""), r.URL.Query().Get("pair"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}
