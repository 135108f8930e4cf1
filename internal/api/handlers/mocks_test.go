package handlers

import (
	"context"
	"errors"
	"sync"

	"tradelink/internal/models"
	"tradelink/internal/service"
)

// ErrMockDatabase - ошибка хранилища для тестов
var ErrMockDatabase = errors.New("mock database error")

// ============ Mock Credential Service ============

// MockCredentialService мок для CredentialServiceInterface
type MockCredentialService struct {
	connected  map[models.Vendor]map[string]bool
	connectErr error
	statusErr  error
	discErr    error
	lastKey    string
	mu         sync.Mutex
}

func NewMockCredentialService() *MockCredentialService {
	return &MockCredentialService{connected: make(map[models.Vendor]map[string]bool)}
}

func (m *MockCredentialService) Connect(ctx context.Context, vendor models.Vendor, ownerID, apiKey, apiSecret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.connectErr != nil {
		return m.connectErr
	}
	if ownerID == "" || apiKey == "" || apiSecret == "" {
		return &service.ValidationError{Message: "Missing required fields"}
	}
	if m.connected[vendor] == nil {
		m.connected[vendor] = make(map[string]bool)
	}
	m.connected[vendor][ownerID] = true
	m.lastKey = apiKey
	return nil
}

func (m *MockCredentialService) Status(ctx context.Context, vendor models.Vendor, ownerID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.statusErr != nil {
		return false, m.statusErr
	}
	if ownerID == "" {
		return false, &service.ValidationError{Message: "ownerId is required"}
	}
	return m.connected[vendor][ownerID], nil
}

func (m *MockCredentialService) Disconnect(ctx context.Context, vendor models.Vendor, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.discErr != nil {
		return m.discErr
	}
	if ownerID == "" {
		return &service.ValidationError{Message: "ownerId is required"}
	}
	delete(m.connected[vendor], ownerID)
	return nil
}

// ============ Mock Wallet Service ============

// MockWalletService мок для WalletServiceInterface
type MockWalletService struct {
	snapshot  *models.WalletSnapshot
	trades    []models.Trade
	stats     *models.TradeStats
	err       error
	lastQuery service.WalletQuery
	lastPair  string
}

func (m *MockWalletService) Snapshot(ctx context.Context, ownerID string, q service.WalletQuery) (*models.WalletSnapshot, error) {
	m.lastQuery = q
	if m.err != nil {
		return nil, m.err
	}
	return m.snapshot, nil
}

func (m *MockWalletService) Trades(ctx context.Context, ownerID, pair string) ([]models.Trade, error) {
	m.lastPair = pair
	if m.err != nil {
		return nil, m.err
	}
	return m.trades, nil
}

func (m *MockWalletService) Stats(ctx context.Context, ownerID, pair string) (*models.TradeStats, error) {
	m.lastPair = pair
	if m.err != nil {
		return nil, m.err
	}
	return m.stats, nil
}

// ============ Mock Bot Service ============

// MockBotService мок для BotServiceInterface
type MockBotService struct {
	bots       []*models.Bot
	remote     []models.RemoteBot
	err        error
	lastAction string
	lastBotID  string
	lastOwner  string
	lastCreate *service.CreateBotRequest
}

func (m *MockBotService) Create(ctx context.Context, req *service.CreateBotRequest) (*models.Bot, error) {
	m.lastCreate = req
	if m.err != nil {
		return nil, m.err
	}
	return &models.Bot{ID: "b-new", OwnerID: req.OwnerID, Name: req.BotName, Status: models.BotStatusRunning}, nil
}

func (m *MockBotService) List(ctx context.Context, ownerID string) ([]*models.Bot, error) {
	m.lastOwner = ownerID
	return m.bots, m.err
}

func (m *MockBotService) ListRemote(ctx context.Context, ownerID string) ([]models.RemoteBot, error) {
	m.lastOwner = ownerID
	return m.remote, m.err
}

func (m *MockBotService) control(action, botID, ownerID string, status models.BotStatus) (*models.Bot, error) {
	m.lastAction, m.lastBotID, m.lastOwner = action, botID, ownerID
	if m.err != nil {
		return nil, m.err
	}
	return &models.Bot{ID: botID, OwnerID: ownerID, Status: status}, nil
}

func (m *MockBotService) Pause(ctx context.Context, botID, ownerID string) (*models.Bot, error) {
	return m.control("pause", botID, ownerID, models.BotStatusPaused)
}

func (m *MockBotService) Start(ctx context.Context, botID, ownerID string) (*models.Bot, error) {
	return m.control("start", botID, ownerID, models.BotStatusRunning)
}

func (m *MockBotService) Activate(ctx context.Context, botID, ownerID string) (*models.Bot, error) {
	return m.control("activate", botID, ownerID, models.BotStatusRunning)
}

func (m *MockBotService) Delete(ctx context.Context, botID, ownerID string) error {
	_, err := m.control("delete", botID, ownerID, "")
	return err
}

var _ service.CredentialServiceInterface = (*MockCredentialService)(nil)
var _ service.WalletServiceInterface = (*MockWalletService)(nil)
var _ service.BotServiceInterface = (*MockBotService)(nil)
