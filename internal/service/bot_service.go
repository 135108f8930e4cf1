package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tradelink/internal/bot"
	"tradelink/internal/exchange"
	"tradelink/internal/metrics"
	"tradelink/internal/models"
	"tradelink/pkg/utils"
)

// CreateBotRequest - параметры создания бота
type CreateBotRequest struct {
	OwnerID             string          `json:"ownerId"`
	BotName             string          `json:"botName"`
	Direction           string          `json:"direction"`
	BotType             string          `json:"botType"`
	Pair                string          `json:"pair"`
	ProfitCurrency      string          `json:"profitCurrency"`
	BaseOrderSize       decimal.Decimal `json:"baseOrderSize"`
	StartOrderType      string          `json:"startOrderType"`
	TakeProfitType      string          `json:"takeProfitType"`
	TargetProfitPercent decimal.Decimal `json:"targetProfitPercent"`
	AccountID           int64           `json:"accountId,omitempty"`
}

// ThreeCommasIdentity - учетная запись 3Commas уровня процесса
//
// Используется, когда у владельца нет своих подключенных ключей 3Commas.
type ThreeCommasIdentity struct {
	Keys      models.APIKeys
	AccountID int64
}

func (i ThreeCommasIdentity) configured() bool {
	return i.Keys.APIKey != "" && i.Keys.APISecret != ""
}

// remoteBotTypes - тип бота в терминах 3Commas
var remoteBotTypes = map[string]string{
	models.BotTypeSingle: "simple",
	models.BotTypeMulti:  "composite",
}

// BotService - создание ботов 3Commas и управление их состоянием
//
// Локальная запись хранит зеркало статуса. Проверка владения и статуса
// выполняется до удаленного вызова, новый статус сохраняется только после
// успешного ответа 3Commas.
type BotService struct {
	owners      OwnerRepositoryInterface
	bots        BotRepositoryInterface
	keys        KeyProvider
	threeCommas ThreeCommasAPI
	fallback    ThreeCommasIdentity
	events      EventBroadcaster
	log         *utils.Logger
}

// NewBotService создает новый экземпляр сервиса
func NewBotService(
	owners OwnerRepositoryInterface,
	bots BotRepositoryInterface,
	keys KeyProvider,
	threeCommas ThreeCommasAPI,
	fallback ThreeCommasIdentity,
	log *utils.Logger,
) *BotService {
	if log == nil {
		log = utils.NewNopLogger()
	}
	return &BotService{
		owners:      owners,
		bots:        bots,
		keys:        keys,
		threeCommas: threeCommas,
		fallback:    fallback,
		log:         log.WithComponent("bots"),
	}
}

// SetEventBroadcaster устанавливает получатель событий ботов
func (s *BotService) SetEventBroadcaster(b EventBroadcaster) {
	s.events = b
}

// identity выбирает ключи 3Commas для нового бота: подключенные ключи
// владельца, иначе учетная запись процесса, иначе ErrConfiguration.
func (s *BotService) identity(ctx context.Context, ownerID string) (models.APIKeys, models.BotIdentity, error) {
	keys, err := s.keys.Keys(ctx, models.VendorThreeCommas, ownerID)
	switch {
	case err == nil:
		return keys, models.BotIdentityOwner, nil
	case !errors.Is(err, ErrNotConnected):
		return models.APIKeys{}, "", err
	case s.fallback.configured():
		return s.fallback.Keys, models.BotIdentityProcess, nil
	default:
		return models.APIKeys{}, "", ErrConfiguration
	}
}

// keysFor возвращает ключи той идентичности, под которой бот создан.
// Ключи владельца отключены -> ErrNotConnected, учетная запись процесса
// не настроена -> ErrConfiguration. На другую идентичность не переключается.
func (s *BotService) keysFor(ctx context.Context, ownerID string, id models.BotIdentity) (models.APIKeys, error) {
	if id == models.BotIdentityProcess {
		if !s.fallback.configured() {
			return models.APIKeys{}, ErrConfiguration
		}
		return s.fallback.Keys, nil
	}
	return s.keys.Keys(ctx, models.VendorThreeCommas, ownerID)
}

func botIdentity(b *models.Bot) models.BotIdentity {
	if b.Identity == "" {
		return models.BotIdentityOwner
	}
	return b.Identity
}

func validateCreate(req *CreateBotRequest) error {
	if req.OwnerID == "" || req.BotName == "" || req.Direction == "" || req.BotType == "" ||
		req.Pair == "" || req.ProfitCurrency == "" || req.BaseOrderSize.IsZero() ||
		req.StartOrderType == "" || req.TakeProfitType == "" || req.TargetProfitPercent.IsZero() {
		return invalid("All fields are required.")
	}

	switch {
	case req.Direction != models.StrategyLong && req.Direction != models.StrategyShort:
		return invalid("Direction must be 'long' or 'short'")
	case req.BotType != models.BotTypeSingle && req.BotType != models.BotTypeMulti:
		return invalid("Bot type must be 'single' or 'multi'")
	case req.ProfitCurrency != models.ProfitCurrencyQuote && req.ProfitCurrency != models.ProfitCurrencyBase:
		return invalid("Profit currency must be 'quote' or 'base'")
	case req.StartOrderType != models.StartOrderMarket && req.StartOrderType != models.StartOrderLimit:
		return invalid("Start order type must be 'market' or 'limit'")
	case req.TakeProfitType != models.TakeProfitTotal && req.TakeProfitType != models.TakeProfitStep:
		return invalid("Take profit type must be 'total' or 'step'")
	case req.BaseOrderSize.IsNegative():
		return invalid("Base order size must be positive")
	case req.TargetProfitPercent.IsNegative():
		return invalid("Target profit percent must be positive")
	}
	return nil
}

// Create создает бота в 3Commas и сохраняет локальную запись.
//
// Ответ 3Commas без id считается ошибкой, локальная запись при этом
// не создается.
func (s *BotService) Create(ctx context.Context, req *CreateBotRequest) (*models.Bot, error) {
	req.OwnerID = strings.TrimSpace(req.OwnerID)
	req.BotName = strings.TrimSpace(req.BotName)
	req.Pair = strings.TrimSpace(req.Pair)

	if err := validateCreate(req); err != nil {
		return nil, err
	}

	exists, err := s.owners.Exists(ctx, req.OwnerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrOwnerNotFound
	}

	keys, ident, err := s.identity(ctx, req.OwnerID)
	if err != nil {
		return nil, err
	}
	accountID := s.fallback.AccountID
	if req.AccountID > 0 {
		accountID = req.AccountID
	}
	if accountID == 0 {
		return nil, invalid("accountId is required")
	}

	remote, err := s.threeCommas.CreateBot(ctx, keys, exchange.CreateBotPayload{
		Name:            req.BotName,
		AccountID:       accountID,
		Pairs:           req.Pair,
		Strategy:        req.Direction,
		Type:            remoteBotTypes[req.BotType],
		ProfitCurrency:  req.ProfitCurrency,
		BaseOrderVolume: req.BaseOrderSize.String(),
		StartOrderType:  req.StartOrderType,
		TakeProfitType:  req.TakeProfitType,
		TakeProfit:      req.TargetProfitPercent.String(),
	})
	if err != nil {
		metrics.RecordBotTransition("create", "upstream_error")
		return nil, err
	}

	b := &models.Bot{
		OwnerID:             req.OwnerID,
		Name:                req.BotName,
		AccountID:           accountID,
		Pair:                req.Pair,
		Strategy:            req.Direction,
		BotType:             req.BotType,
		ProfitCurrency:      req.ProfitCurrency,
		BaseOrderSize:       req.BaseOrderSize,
		StartOrderType:      req.StartOrderType,
		TakeProfitType:      req.TakeProfitType,
		TargetProfitPercent: req.TargetProfitPercent,
		RemoteBotID:         remote.ID,
		Identity:            ident,
		Status:              models.BotStatusRunning,
	}
	if err := s.bots.Create(ctx, b); err != nil {
		s.log.Error("bot created upstream but not stored",
			utils.OwnerID(req.OwnerID), zap.Int64("remote_bot_id", remote.ID), zap.Error(err))
		return nil, err
	}

	metrics.RecordBotTransition("create", "success")
	s.log.Info("bot created", utils.OwnerID(b.OwnerID), utils.BotID(b.ID), zap.Int64("remote_bot_id", b.RemoteBotID))
	s.broadcast(b.OwnerID, "created", b)
	return b, nil
}

// List возвращает локальных ботов владельца, новые первыми
func (s *BotService) List(ctx context.Context, ownerID string) ([]*models.Bot, error) {
	if err := s.requireOwner(ctx, ownerID); err != nil {
		return nil, err
	}
	return s.bots.ListByOwner(ctx, ownerID)
}

// ListRemote возвращает ботов 3Commas, которые принадлежат владельцу.
// Список запрашивается под каждой идентичностью, которой создавались его боты.
func (s *BotService) ListRemote(ctx context.Context, ownerID string) ([]models.RemoteBot, error) {
	if err := s.requireOwner(ctx, ownerID); err != nil {
		return nil, err
	}

	local, err := s.bots.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	owned := make(map[models.BotIdentity]map[int64]struct{}, 2)
	var order []models.BotIdentity
	for _, b := range local {
		id := botIdentity(b)
		if owned[id] == nil {
			owned[id] = make(map[int64]struct{})
			order = append(order, id)
		}
		owned[id][b.RemoteBotID] = struct{}{}
	}

	result := make([]models.RemoteBot, 0, len(local))
	for _, id := range order {
		keys, err := s.keysFor(ctx, ownerID, id)
		if err != nil {
			return nil, err
		}
		remote, err := s.threeCommas.ListBots(ctx, keys)
		if err != nil {
			return nil, err
		}
		for _, rb := range remote {
			if _, ok := owned[id][rb.ID]; ok {
				result = append(result, rb)
			}
		}
	}
	return result, nil
}

// Pause - running → paused (POST /ver1/bots/{id}/disable)
func (s *BotService) Pause(ctx context.Context, botID, ownerID string) (*models.Bot, error) {
	return s.control(ctx, botID, ownerID, bot.ActionPause)
}

// Start - paused|stopped → running (POST /ver1/bots/{id}/start_new_deal)
func (s *BotService) Start(ctx context.Context, botID, ownerID string) (*models.Bot, error) {
	return s.control(ctx, botID, ownerID, bot.ActionStart)
}

// Activate - paused|stopped → running (POST /ver1/bots/{id}/enable)
func (s *BotService) Activate(ctx context.Context, botID, ownerID string) (*models.Bot, error) {
	return s.control(ctx, botID, ownerID, bot.ActionActivate)
}

// Delete удаляет бота в 3Commas, затем локальную запись
func (s *BotService) Delete(ctx context.Context, botID, ownerID string) error {
	_, err := s.control(ctx, botID, ownerID, bot.ActionDelete)
	return err
}

func (s *BotService) control(ctx context.Context, botID, ownerID string, action bot.Action) (*models.Bot, error) {
	botID = strings.TrimSpace(botID)
	ownerID = strings.TrimSpace(ownerID)
	if botID == "" {
		return nil, invalid("botId is required")
	}
	if ownerID == "" {
		return nil, invalid("ownerId is required")
	}

	b, err := s.bots.GetByID(ctx, botID)
	if err != nil {
		return nil, err
	}

	tr, err := bot.Gate(b, ownerID, action)
	if err != nil {
		metrics.RecordBotTransition(string(action), "rejected")
		return nil, err
	}

	keys, err := s.keysFor(ctx, ownerID, botIdentity(b))
	if err != nil {
		return nil, err
	}

	log := s.log.With(utils.OwnerID(ownerID), utils.BotID(b.ID), zap.String("action", string(action)))

	if err := s.remote(ctx, keys, b.RemoteBotID, action); err != nil {
		metrics.RecordBotTransition(string(action), "upstream_error")
		log.Warn("bot action failed upstream", zap.Error(err))
		return nil, err
	}

	if action == bot.ActionDelete {
		if err := s.bots.Delete(ctx, b.ID); err != nil {
			return nil, err
		}
	} else {
		if err := s.bots.UpdateStatus(ctx, b.ID, tr.To); err != nil {
			return nil, err
		}
		b.Status = tr.To
	}

	metrics.RecordBotTransition(string(action), "success")
	log.Info("bot action applied", zap.String("status", string(b.Status)))
	s.broadcast(ownerID, string(action), b)
	return b, nil
}

func (s *BotService) remote(ctx context.Context, keys models.APIKeys, remoteID int64, action bot.Action) error {
	switch action {
	case bot.ActionPause:
		return s.threeCommas.DisableBot(ctx, keys, remoteID)
	case bot.ActionStart:
		return s.threeCommas.StartNewDeal(ctx, keys, remoteID)
	case bot.ActionActivate:
		return s.threeCommas.EnableBot(ctx, keys, remoteID)
	case bot.ActionDelete:
		return s.threeCommas.DeleteBot(ctx, keys, remoteID)
	}
	return bot.ErrUnknownAction
}

func (s *BotService) requireOwner(ctx context.Context, ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return invalid("ownerId is required")
	}
	exists, err := s.owners.Exists(ctx, ownerID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrOwnerNotFound
	}
	return nil
}

func (s *BotService) broadcast(ownerID, action string, b *models.Bot) {
	if s.events != nil {
		s.events.BroadcastBotEvent(ownerID, action, b)
	}
}
