package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// BotStatus - локальное зеркало состояния бота в 3Commas
type BotStatus string

const (
	BotStatusRunning BotStatus = "running"
	BotStatusPaused  BotStatus = "paused"
	BotStatusStopped BotStatus = "stopped"
)

// BotIdentity - чьими ключами 3Commas создан бот
//
// Все последующие вызовы по боту идут под той же идентичностью:
// remote_bot_id существует только в аккаунте, где бот создан.
type BotIdentity string

const (
	BotIdentityOwner   BotIdentity = "owner"   // подключённые ключи владельца
	BotIdentityProcess BotIdentity = "process" // учетная запись процесса
)

// Допустимые значения параметров бота
const (
	StrategyLong  = "long"
	StrategyShort = "short"

	BotTypeSingle = "single"
	BotTypeMulti  = "multi"

	ProfitCurrencyQuote = "quote"
	ProfitCurrencyBase  = "base"

	StartOrderMarket = "market"
	StartOrderLimit  = "limit"

	TakeProfitTotal = "total"
	TakeProfitStep  = "step"
)

// Bot - локальная запись о боте, созданном через 3Commas
//
// RemoteBotID всегда ссылается на существующий в 3Commas бот:
// запись без id из ответа на создание не сохраняется.
type Bot struct {
	ID                  string          `json:"id" db:"id"`
	OwnerID             string          `json:"ownerId" db:"owner_id"`
	Name                string          `json:"name" db:"name"`
	AccountID           int64           `json:"accountId" db:"account_id"`
	Pair                string          `json:"pair" db:"pair"`
	Strategy            string          `json:"strategy" db:"strategy"`
	BotType             string          `json:"botType" db:"bot_type"`
	ProfitCurrency      string          `json:"profitCurrency" db:"profit_currency"`
	BaseOrderSize       decimal.Decimal `json:"baseOrderSize" db:"base_order_size"`
	StartOrderType      string          `json:"startOrderType" db:"start_order_type"`
	TakeProfitType      string          `json:"takeProfitType" db:"take_profit_type"`
	TargetProfitPercent decimal.Decimal `json:"targetProfitPercent" db:"target_profit_percent"`
	RemoteBotID         int64           `json:"remoteBotId" db:"remote_bot_id"`
	Identity            BotIdentity     `json:"identity" db:"identity"`
	Status              BotStatus       `json:"status" db:"status"`
	CreatedAt           time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt           time.Time       `json:"updatedAt" db:"updated_at"`
}

// OwnedBy - явный предикат владения
func (b *Bot) OwnedBy(ownerID string) bool {
	return b != nil && ownerID != "" && b.OwnerID == ownerID
}

// RemoteBot - бот в представлении 3Commas (GET /ver1/bots)
type RemoteBot struct {
	ID          int64       `json:"id"`
	AccountID   int64       `json:"account_id"`
	IsEnabled   bool        `json:"is_enabled"`
	Name        string      `json:"name"`
	Pairs       []string    `json:"pairs"`
	Strategy    string      `json:"strategy"`
	Type        string      `json:"type"`
	BaseOrder   json.Number `json:"base_order_volume"`
	TakeProfit  json.Number `json:"take_profit"`
	ActiveDeals int         `json:"active_deals_count"`
	CreatedAt   string      `json:"created_at"`
	UpdatedAt   string      `json:"updated_at"`
}
