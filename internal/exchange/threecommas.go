package exchange

import (
	"context"
	"fmt"
	"time"

	"tradelink/internal/models"
	"tradelink/pkg/ratelimit"
)

const VendorThreeCommas = "threecommas"

// ThreeCommasConfig - параметры клиента 3Commas
type ThreeCommasConfig struct {
	BaseURL string // https://api.3commas.io/public/api
	Timeout time.Duration
	Client  *HTTPClient
	Limiter *ratelimit.MultiLimiter
}

// ThreeCommas - клиент 3Commas API (ver1)
//
// Идентичность (ключ и секрет) передаётся в каждый вызов, адаптер
// создаётся под неё. Состояния между вызовами нет.
type ThreeCommas struct {
	cfg ThreeCommasConfig
}

// NewThreeCommas создаёт клиент 3Commas
func NewThreeCommas(cfg ThreeCommasConfig) *ThreeCommas {
	if cfg.Client == nil {
		cfg.Client = NewHTTPClient(DefaultHTTPClientConfig())
	}
	return &ThreeCommas{cfg: cfg}
}

func (t *ThreeCommas) adapter(keys models.APIKeys) (*Adapter, error) {
	if keys.APIKey == "" || keys.APISecret == "" {
		return nil, ErrConfiguration
	}
	return NewAdapter(AdapterConfig{
		Vendor:  VendorThreeCommas,
		BaseURL: t.cfg.BaseURL,
		Auth:    NewThreeCommasAuth(keys.APIKey, keys.APISecret),
		Client:  t.cfg.Client,
		Timeout: t.cfg.Timeout,
		Limiter: t.cfg.Limiter,
	})
}

// ThreeCommasAccount - подключённый к 3Commas биржевой аккаунт
type ThreeCommasAccount struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	MarketCode   string `json:"market_code"`
	ExchangeName string `json:"exchange_name"`
}

// CreateBotPayload - тело POST /ver1/bots/create_bot
type CreateBotPayload struct {
	Name            string `json:"name"`
	AccountID       int64  `json:"account_id"`
	Pairs           string `json:"pairs"`
	Strategy        string `json:"strategy"`
	Type            string `json:"type"` // simple | composite
	ProfitCurrency  string `json:"profit_currency"`
	BaseOrderVolume string `json:"base_order_volume"`
	StartOrderType  string `json:"start_order_type"`
	TakeProfitType  string `json:"take_profit_type"`
	TakeProfit      string `json:"take_profit"`
}

// Accounts - GET /ver1/accounts, используется как проверка ключей
func (t *ThreeCommas) Accounts(ctx context.Context, keys models.APIKeys) ([]ThreeCommasAccount, error) {
	a, err := t.adapter(keys)
	if err != nil {
		return nil, err
	}
	var accounts []ThreeCommasAccount
	if err := a.Get(ctx, "/ver1/accounts", &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// CreateBot создаёт бота, ответ без id считается ошибкой вендора
func (t *ThreeCommas) CreateBot(ctx context.Context, keys models.APIKeys, payload CreateBotPayload) (*models.RemoteBot, error) {
	a, err := t.adapter(keys)
	if err != nil {
		return nil, err
	}
	var bot models.RemoteBot
	if err := a.Post(ctx, "/ver1/bots/create_bot", payload, &bot); err != nil {
		return nil, err
	}
	if bot.ID == 0 {
		return nil, &UpstreamError{
			Vendor:     VendorThreeCommas,
			StatusCode: 200,
			Message:    "create_bot response carries no bot id",
		}
	}
	return &bot, nil
}

// ListBots - GET /ver1/bots
func (t *ThreeCommas) ListBots(ctx context.Context, keys models.APIKeys) ([]models.RemoteBot, error) {
	a, err := t.adapter(keys)
	if err != nil {
		return nil, err
	}
	var bots []models.RemoteBot
	if err := a.Get(ctx, "/ver1/bots?limit=100", &bots); err != nil {
		return nil, err
	}
	return bots, nil
}

// EnableBot - POST /ver1/bots/{id}/enable
func (t *ThreeCommas) EnableBot(ctx context.Context, keys models.APIKeys, remoteID int64) error {
	return t.botAction(ctx, keys, remoteID, "enable")
}

// DisableBot - POST /ver1/bots/{id}/disable
func (t *ThreeCommas) DisableBot(ctx context.Context, keys models.APIKeys, remoteID int64) error {
	return t.botAction(ctx, keys, remoteID, "disable")
}

// StartNewDeal - POST /ver1/bots/{id}/start_new_deal
func (t *ThreeCommas) StartNewDeal(ctx context.Context, keys models.APIKeys, remoteID int64) error {
	return t.botAction(ctx, keys, remoteID, "start_new_deal")
}

// DeleteBot - DELETE /ver1/bots/{id}
func (t *ThreeCommas) DeleteBot(ctx context.Context, keys models.APIKeys, remoteID int64) error {
	a, err := t.adapter(keys)
	if err != nil {
		return err
	}
	return a.Delete(ctx, fmt.Sprintf("/ver1/bots/%d", remoteID), nil)
}

func (t *ThreeCommas) botAction(ctx context.Context, keys models.APIKeys, remoteID int64, action string) error {
	a, err := t.adapter(keys)
	if err != nil {
		return err
	}
	return a.Post(ctx, fmt.Sprintf("/ver1/bots/%d/%s", remoteID, action), nil, nil)
}
