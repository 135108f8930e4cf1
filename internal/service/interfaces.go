package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"tradelink/internal/exchange"
	"tradelink/internal/models"
	"tradelink/internal/repository"
	"tradelink/pkg/crypto"
)

// OwnerRepositoryInterface определяет интерфейс репозитория владельцев
type OwnerRepositoryInterface interface {
	GetByID(ctx context.Context, ownerID string) (*models.Owner, error)
	Exists(ctx context.Context, ownerID string) (bool, error)
}

// CredentialRepositoryInterface определяет интерфейс репозитория ключей
type CredentialRepositoryInterface interface {
	Upsert(ctx context.Context, ownerID string, vendor models.Vendor, encKey, encSecret string) error
	Get(ctx context.Context, ownerID string, vendor models.Vendor) (*models.Credential, error)
	Clear(ctx context.Context, ownerID string, vendor models.Vendor) error
}

// BotRepositoryInterface определяет интерфейс репозитория ботов
type BotRepositoryInterface interface {
	Create(ctx context.Context, b *models.Bot) error
	GetByID(ctx context.Context, id string) (*models.Bot, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Bot, error)
	UpdateStatus(ctx context.Context, id string, status models.BotStatus) error
	Delete(ctx context.Context, id string) error
}

// Проверяем, что реальные репозитории реализуют интерфейсы
var _ OwnerRepositoryInterface = (*repository.OwnerRepository)(nil)
var _ CredentialRepositoryInterface = (*repository.CredentialRepository)(nil)
var _ BotRepositoryInterface = (*repository.BotRepository)(nil)

// Cipher - шифрование ключей перед записью в хранилище
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

var _ Cipher = (*crypto.Cipher)(nil)

// ============ Внешние API ============

// BinanceAPI - вызовы Binance, используемые сервисами
type BinanceAPI interface {
	Account(ctx context.Context, keys models.APIKeys) ([]models.Balance, error)
	MyTrades(ctx context.Context, keys models.APIKeys, symbol string, limit int) ([]models.Trade, error)
	Prices(ctx context.Context) (map[string]decimal.Decimal, error)
	DailyCloses(ctx context.Context, symbol string, start, end time.Time) ([]models.Candle, error)
}

// ThreeCommasAPI - вызовы 3Commas, используемые сервисами
type ThreeCommasAPI interface {
	Accounts(ctx context.Context, keys models.APIKeys) ([]exchange.ThreeCommasAccount, error)
	CreateBot(ctx context.Context, keys models.APIKeys, payload exchange.CreateBotPayload) (*models.RemoteBot, error)
	ListBots(ctx context.Context, keys models.APIKeys) ([]models.RemoteBot, error)
	EnableBot(ctx context.Context, keys models.APIKeys, remoteID int64) error
	DisableBot(ctx context.Context, keys models.APIKeys, remoteID int64) error
	StartNewDeal(ctx context.Context, keys models.APIKeys, remoteID int64) error
	DeleteBot(ctx context.Context, keys models.APIKeys, remoteID int64) error
}

var _ BinanceAPI = (*exchange.Binance)(nil)
var _ ThreeCommasAPI = (*exchange.ThreeCommas)(nil)

// EventBroadcaster - отправка событий подписчикам WebSocket
type EventBroadcaster interface {
	BroadcastCredentialEvent(ownerID string, vendor models.Vendor, connected bool)
	BroadcastBotEvent(ownerID string, action string, b *models.Bot)
}

// ============ Интерфейсы сервисов для Dependency Injection ============

// CredentialServiceInterface определяет интерфейс сервиса ключей
type CredentialServiceInterface interface {
	Connect(ctx context.Context, vendor models.Vendor, ownerID, apiKey, apiSecret string) error
	Status(ctx context.Context, vendor models.Vendor, ownerID string) (bool, error)
	Disconnect(ctx context.Context, vendor models.Vendor, ownerID string) error
}

// WalletServiceInterface определяет интерфейс сервиса кошелька
type WalletServiceInterface interface {
	Snapshot(ctx context.Context, ownerID string, q WalletQuery) (*models.WalletSnapshot, error)
	Trades(ctx context.Context, ownerID, pair string) ([]models.Trade, error)
	Stats(ctx context.Context, ownerID, pair string) (*models.TradeStats, error)
}

// BotServiceInterface определяет интерфейс сервиса ботов
type BotServiceInterface interface {
	Create(ctx context.Context, req *CreateBotRequest) (*models.Bot, error)
	List(ctx context.Context, ownerID string) ([]*models.Bot, error)
	ListRemote(ctx context.Context, ownerID string) ([]models.RemoteBot, error)
	Pause(ctx context.Context, botID, ownerID string) (*models.Bot, error)
	Start(ctx context.Context, botID, ownerID string) (*models.Bot, error)
	Activate(ctx context.Context, botID, ownerID string) (*models.Bot, error)
	Delete(ctx context.Context, botID, ownerID string) error
}

var _ CredentialServiceInterface = (*CredentialService)(nil)
var _ WalletServiceInterface = (*WalletService)(nil)
var _ BotServiceInterface = (*BotService)(nil)
