package exchange

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/shopspring/decimal"

	"tradelink/internal/metrics"
	"tradelink/internal/models"
	"tradelink/pkg/ratelimit"
)

const (
	VendorBinance = "binance"

	binanceAccountPath  = "/api/v3/account"
	binanceMyTradesPath = "/api/v3/myTrades"
	binanceMaxTrades    = 1000
)

// BinanceConfig - параметры клиента Binance
type BinanceConfig struct {
	BaseURL    string
	RecvWindow int64
	Timeout    time.Duration
	Client     *HTTPClient
	Limiter    *ratelimit.MultiLimiter
}

// Binance - клиент Binance Spot API
//
// SIGNED вызовы (account, myTrades) идут через Adapter с ключами владельца,
// адаптер создаётся на каждый вызов. Публичные данные (цены, свечи)
// запрашиваются через go-binance поверх того же HTTP клиента и лимитера.
type Binance struct {
	cfg    BinanceConfig
	market *binance.Client
}

// NewBinance создаёт клиент Binance
func NewBinance(cfg BinanceConfig) *Binance {
	if cfg.Client == nil {
		cfg.Client = NewHTTPClient(DefaultHTTPClientConfig())
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	market := binance.NewClient("", "")
	market.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	market.HTTPClient = &http.Client{
		Transport: &instrumentedTransport{
			vendor:  VendorBinance,
			limiter: cfg.Limiter,
			next:    cfg.Client.GetClient().Transport,
		},
		Timeout: cfg.Timeout,
	}

	return &Binance{cfg: cfg, market: market}
}

func (b *Binance) signedAdapter(keys models.APIKeys) (*Adapter, error) {
	if keys.APIKey == "" || keys.APISecret == "" {
		return nil, ErrConfiguration
	}
	return NewAdapter(AdapterConfig{
		Vendor:  VendorBinance,
		BaseURL: b.cfg.BaseURL,
		Auth:    NewBinanceAuth(keys.APIKey, keys.APISecret, b.cfg.RecvWindow),
		Client:  b.cfg.Client,
		Timeout: b.cfg.Timeout,
		Limiter: b.cfg.Limiter,
	})
}

type binanceAccount struct {
	Balances []struct {
		Asset  string          `json:"asset"`
		Free   decimal.Decimal `json:"free"`
		Locked decimal.Decimal `json:"locked"`
	} `json:"balances"`
}

// Account возвращает балансы спотового аккаунта (GET /api/v3/account)
//
// Также используется как проверка ключей при подключении.
func (b *Binance) Account(ctx context.Context, keys models.APIKeys) ([]models.Balance, error) {
	a, err := b.signedAdapter(keys)
	if err != nil {
		return nil, err
	}

	var acc binanceAccount
	if err := a.Get(ctx, binanceAccountPath, &acc); err != nil {
		return nil, err
	}

	balances := make([]models.Balance, 0, len(acc.Balances))
	for _, bal := range acc.Balances {
		balances = append(balances, models.Balance{Asset: bal.Asset, Free: bal.Free, Locked: bal.Locked})
	}
	return balances, nil
}

// MyTrades возвращает сделки владельца по паре (GET /api/v3/myTrades)
func (b *Binance) MyTrades(ctx context.Context, keys models.APIKeys, symbol string, limit int) ([]models.Trade, error) {
	a, err := b.signedAdapter(keys)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > binanceMaxTrades {
		limit = binanceMaxTrades
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("limit", strconv.Itoa(limit))

	var trades []models.Trade
	if err := a.Get(ctx, binanceMyTradesPath+"?"+q.Encode(), &trades); err != nil {
		return nil, err
	}
	return trades, nil
}

// Prices возвращает последние цены всех символов (GET /api/v3/ticker/price)
//
// Один запрос на весь рынок: символ без цены просто отсутствует в результате,
// тогда как фильтр по списку символов отклоняется целиком из-за одного неизвестного.
func (b *Binance) Prices(ctx context.Context) (map[string]decimal.Decimal, error) {
	ctx, status := withStatusCapture(ctx)

	prices, err := b.market.NewListPricesService().Do(ctx)
	if err != nil {
		return nil, b.wrapMarketError(err, status)
	}

	out := make(map[string]decimal.Decimal, len(prices))
	for _, p := range prices {
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			continue
		}
		out[p.Symbol] = price
	}
	return out, nil
}

// DailyCloses возвращает дневные свечи символа в интервале [start, end]
func (b *Binance) DailyCloses(ctx context.Context, symbol string, start, end time.Time) ([]models.Candle, error) {
	ctx, status := withStatusCapture(ctx)

	days := int(end.Sub(start).Hours()/24) + 1
	klines, err := b.market.NewKlinesService().
		Symbol(symbol).
		Interval("1d").
		StartTime(start.UnixMilli()).
		EndTime(end.UnixMilli()).
		Limit(days).
		Do(ctx)
	if err != nil {
		return nil, b.wrapMarketError(err, status)
	}

	candles := make([]models.Candle, 0, len(klines))
	for _, k := range klines {
		closePrice, err := decimal.NewFromString(k.Close)
		if err != nil {
			continue
		}
		candles = append(candles, models.Candle{
			OpenTime: time.UnixMilli(k.OpenTime).UTC(),
			Close:    closePrice,
		})
	}
	return candles, nil
}

// wrapMarketError приводит ошибки go-binance к *UpstreamError
func (b *Binance) wrapMarketError(err error, status *statusCapture) error {
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		return &UpstreamError{
			Vendor:     VendorBinance,
			StatusCode: status.code,
			Code:       strconv.FormatInt(apiErr.Code, 10),
			Message:    apiErr.Message,
			Original:   err,
		}
	}
	if _, ok := AsUpstream(err); ok {
		return err
	}
	if status.code >= 300 {
		return &UpstreamError{Vendor: VendorBinance, StatusCode: status.code, Message: err.Error(), Original: err}
	}
	return newTransportError(VendorBinance, err)
}

// ============================================================
// Transport для go-binance: лимитер + метрики + код ответа
// ============================================================

type statusCapture struct {
	code int
}

type statusCaptureKey struct{}

func withStatusCapture(ctx context.Context) (context.Context, *statusCapture) {
	sc := &statusCapture{}
	return context.WithValue(ctx, statusCaptureKey{}, sc), sc
}

type instrumentedTransport struct {
	vendor  string
	limiter *ratelimit.MultiLimiter
	next    http.RoundTripper
}

func (t *instrumentedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	if err := waitLimiter(ctx, t.limiter, t.vendor); err != nil {
		return nil, err
	}

	next := t.next
	if next == nil {
		next = http.DefaultTransport
	}

	start := time.Now()
	resp, err := next.RoundTrip(req)
	if err != nil {
		metrics.RecordUpstream(t.vendor, req.Method, 0, time.Since(start))
		return nil, err
	}
	metrics.RecordUpstream(t.vendor, req.Method, resp.StatusCode, time.Since(start))

	if sc, ok := ctx.Value(statusCaptureKey{}).(*statusCapture); ok {
		sc.code = resp.StatusCode
	}
	return resp, nil
}
