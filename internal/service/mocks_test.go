package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"tradelink/internal/exchange"
	"tradelink/internal/models"
	"tradelink/internal/repository"
)

// ============ Mock OwnerRepository ============

type MockOwnerRepository struct {
	owners    map[string]*models.Owner
	existsErr error
}

func NewMockOwnerRepository(ids ...string) *MockOwnerRepository {
	m := &MockOwnerRepository{owners: make(map[string]*models.Owner)}
	for _, id := range ids {
		m.owners[id] = &models.Owner{OwnerID: id, CreatedAt: time.Now()}
	}
	return m
}

func (m *MockOwnerRepository) GetByID(ctx context.Context, ownerID string) (*models.Owner, error) {
	if o, ok := m.owners[ownerID]; ok {
		return o, nil
	}
	return nil, repository.ErrOwnerNotFound
}

func (m *MockOwnerRepository) Exists(ctx context.Context, ownerID string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, ok := m.owners[ownerID]
	return ok, nil
}

// ============ Mock CredentialRepository ============

type MockCredentialRepository struct {
	creds     map[string]*models.Credential
	owners    *MockOwnerRepository
	upsertErr error
	getErr    error
	clearErr  error
	upserts   int
}

func NewMockCredentialRepository(owners *MockOwnerRepository) *MockCredentialRepository {
	return &MockCredentialRepository{creds: make(map[string]*models.Credential), owners: owners}
}

func credKey(ownerID string, vendor models.Vendor) string {
	return ownerID + "/" + string(vendor)
}

func (m *MockCredentialRepository) Upsert(ctx context.Context, ownerID string, vendor models.Vendor, encKey, encSecret string) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserts++
	if m.owners != nil {
		if _, ok := m.owners.owners[ownerID]; !ok {
			m.owners.owners[ownerID] = &models.Owner{OwnerID: ownerID, CreatedAt: time.Now()}
		}
	}
	k, s := encKey, encSecret
	m.creds[credKey(ownerID, vendor)] = &models.Credential{
		OwnerID:   ownerID,
		Vendor:    vendor,
		APIKey:    &k,
		APISecret: &s,
		UpdatedAt: time.Now(),
	}
	return nil
}

func (m *MockCredentialRepository) Get(ctx context.Context, ownerID string, vendor models.Vendor) (*models.Credential, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if c, ok := m.creds[credKey(ownerID, vendor)]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, repository.ErrCredentialNotFound
}

func (m *MockCredentialRepository) Clear(ctx context.Context, ownerID string, vendor models.Vendor) error {
	if m.clearErr != nil {
		return m.clearErr
	}
	if c, ok := m.creds[credKey(ownerID, vendor)]; ok {
		c.APIKey = nil
		c.APISecret = nil
	}
	return nil
}

// ============ Mock BotRepository ============

type MockBotRepository struct {
	bots      map[string]*models.Bot
	createErr error
	updateErr error
	deleteErr error
	nextID    int
}

func NewMockBotRepository() *MockBotRepository {
	return &MockBotRepository{bots: make(map[string]*models.Bot), nextID: 1}
}

func (m *MockBotRepository) Create(ctx context.Context, b *models.Bot) error {
	if m.createErr != nil {
		return m.createErr
	}
	if b.ID == "" {
		b.ID = fmt.Sprintf("bot-%d", m.nextID)
		m.nextID++
	}
	b.CreatedAt = time.Now().Add(time.Duration(len(m.bots)) * time.Second)
	cp := *b
	m.bots[b.ID] = &cp
	return nil
}

func (m *MockBotRepository) GetByID(ctx context.Context, id string) (*models.Bot, error) {
	if b, ok := m.bots[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, repository.ErrBotNotFound
}

func (m *MockBotRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Bot, error) {
	result := make([]*models.Bot, 0)
	for _, b := range m.bots {
		if b.OwnerID == ownerID {
			cp := *b
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (m *MockBotRepository) UpdateStatus(ctx context.Context, id string, status models.BotStatus) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	b, ok := m.bots[id]
	if !ok {
		return repository.ErrBotNotFound
	}
	b.Status = status
	return nil
}

func (m *MockBotRepository) Delete(ctx context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.bots[id]; !ok {
		return repository.ErrBotNotFound
	}
	delete(m.bots, id)
	return nil
}

// ============ Mock Binance ============

type MockBinance struct {
	mu sync.Mutex

	balances   []models.Balance
	prices     map[string]decimal.Decimal
	candles    map[string][]models.Candle
	candleErrs map[string]error
	trades     []models.Trade

	accountErr error
	pricesErr  error
	tradesErr  error

	accountCalls int
	priceCalls   int
	klineCalls   []string
	lastKeys     models.APIKeys
	lastLimit    int
}

func NewMockBinance() *MockBinance {
	return &MockBinance{
		prices:     make(map[string]decimal.Decimal),
		candles:    make(map[string][]models.Candle),
		candleErrs: make(map[string]error),
	}
}

func (m *MockBinance) Account(ctx context.Context, keys models.APIKeys) ([]models.Balance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accountCalls++
	m.lastKeys = keys
	if m.accountErr != nil {
		return nil, m.accountErr
	}
	return m.balances, nil
}

func (m *MockBinance) MyTrades(ctx context.Context, keys models.APIKeys, symbol string, limit int) ([]models.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastKeys = keys
	m.lastLimit = limit
	if m.tradesErr != nil {
		return nil, m.tradesErr
	}
	var out []models.Trade
	for _, t := range m.trades {
		if t.Symbol == symbol {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *MockBinance) Prices(ctx context.Context) (map[string]decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.priceCalls++
	if m.pricesErr != nil {
		return nil, m.pricesErr
	}
	return m.prices, nil
}

func (m *MockBinance) DailyCloses(ctx context.Context, symbol string, start, end time.Time) ([]models.Candle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.klineCalls = append(m.klineCalls, symbol)
	if err := m.candleErrs[symbol]; err != nil {
		return nil, err
	}
	return m.candles[symbol], nil
}

// ============ Mock ThreeCommas ============

type MockThreeCommas struct {
	accountsErr error
	createErr   error
	actionErr   error
	listErr     error

	createResp *models.RemoteBot
	remoteBots []models.RemoteBot

	calls       []string
	lastKeys    models.APIKeys
	lastPayload exchange.CreateBotPayload
}

func NewMockThreeCommas() *MockThreeCommas {
	return &MockThreeCommas{createResp: &models.RemoteBot{ID: 9001}}
}

func (m *MockThreeCommas) Accounts(ctx context.Context, keys models.APIKeys) ([]exchange.ThreeCommasAccount, error) {
	m.calls = append(m.calls, "accounts")
	m.lastKeys = keys
	if m.accountsErr != nil {
		return nil, m.accountsErr
	}
	return []exchange.ThreeCommasAccount{{ID: 42, Name: "Binance"}}, nil
}

func (m *MockThreeCommas) CreateBot(ctx context.Context, keys models.APIKeys, payload exchange.CreateBotPayload) (*models.RemoteBot, error) {
	m.calls = append(m.calls, "create_bot")
	m.lastKeys = keys
	m.lastPayload = payload
	if m.createErr != nil {
		return nil, m.createErr
	}
	return m.createResp, nil
}

func (m *MockThreeCommas) ListBots(ctx context.Context, keys models.APIKeys) ([]models.RemoteBot, error) {
	m.calls = append(m.calls, "list")
	m.lastKeys = keys
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.remoteBots, nil
}

func (m *MockThreeCommas) action(name string, keys models.APIKeys, remoteID int64) error {
	m.calls = append(m.calls, fmt.Sprintf("%s:%d", name, remoteID))
	m.lastKeys = keys
	return m.actionErr
}

func (m *MockThreeCommas) EnableBot(ctx context.Context, keys models.APIKeys, remoteID int64) error {
	return m.action("enable", keys, remoteID)
}

func (m *MockThreeCommas) DisableBot(ctx context.Context, keys models.APIKeys, remoteID int64) error {
	return m.action("disable", keys, remoteID)
}

func (m *MockThreeCommas) StartNewDeal(ctx context.Context, keys models.APIKeys, remoteID int64) error {
	return m.action("start_new_deal", keys, remoteID)
}

func (m *MockThreeCommas) DeleteBot(ctx context.Context, keys models.APIKeys, remoteID int64) error {
	return m.action("delete", keys, remoteID)
}

// ============ Mock EventBroadcaster ============

type recordedEvent struct {
	ownerID string
	kind    string
	detail  string
}

type MockBroadcaster struct {
	events []recordedEvent
}

func (m *MockBroadcaster) BroadcastCredentialEvent(ownerID string, vendor models.Vendor, connected bool) {
	m.events = append(m.events, recordedEvent{ownerID: ownerID, kind: "credential", detail: fmt.Sprintf("%s:%v", vendor, connected)})
}

func (m *MockBroadcaster) BroadcastBotEvent(ownerID string, action string, b *models.Bot) {
	m.events = append(m.events, recordedEvent{ownerID: ownerID, kind: "bot", detail: action})
}

// ============ Mock KeyProvider ============

type MockKeyProvider struct {
	keys map[string]models.APIKeys
	err  error
}

func NewMockKeyProvider() *MockKeyProvider {
	return &MockKeyProvider{keys: make(map[string]models.APIKeys)}
}

func (m *MockKeyProvider) Keys(ctx context.Context, vendor models.Vendor, ownerID string) (models.APIKeys, error) {
	if m.err != nil {
		return models.APIKeys{}, m.err
	}
	k, ok := m.keys[credKey(ownerID, vendor)]
	if !ok {
		return models.APIKeys{}, ErrNotConnected
	}
	return k, nil
}

func upstreamErr(status int, body string) error {
	return &exchange.UpstreamError{Vendor: "test", StatusCode: status, Body: body}
}
