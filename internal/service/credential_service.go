package service

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"tradelink/internal/exchange"
	"tradelink/internal/metrics"
	"tradelink/internal/models"
	"tradelink/internal/repository"
	"tradelink/pkg/utils"
)

// CredentialService - жизненный цикл ключей владельца для Binance и 3Commas
//
// Ключи сохраняются только после одного успешного аутентифицированного
// запроса к вендору. Plaintext ключей живет в пределах одного вызова.
type CredentialService struct {
	owners      OwnerRepositoryInterface
	creds       CredentialRepositoryInterface
	cipher      Cipher
	binance     BinanceAPI
	threeCommas ThreeCommasAPI
	events      EventBroadcaster
	log         *utils.Logger
}

// NewCredentialService создает новый экземпляр сервиса
func NewCredentialService(
	owners OwnerRepositoryInterface,
	creds CredentialRepositoryInterface,
	cipher Cipher,
	binance BinanceAPI,
	threeCommas ThreeCommasAPI,
	log *utils.Logger,
) *CredentialService {
	if log == nil {
		log = utils.NewNopLogger()
	}
	return &CredentialService{
		owners:      owners,
		creds:       creds,
		cipher:      cipher,
		binance:     binance,
		threeCommas: threeCommas,
		log:         log.WithComponent("credentials"),
	}
}

// SetEventBroadcaster устанавливает получатель событий подключения.
//
// Вызывается после инициализации Hub в main.go.
func (s *CredentialService) SetEventBroadcaster(b EventBroadcaster) {
	s.events = b
}

// Connect проверяет ключи запросом к вендору и сохраняет их зашифрованными.
//
// Порядок:
// 1. Валидация входных данных
// 2. Проверочный запрос (Binance GET /api/v3/account, 3Commas GET /ver1/accounts)
// 3. Шифрование
// 4. Upsert владельца и ключей в одной транзакции
//
// При ошибке на шагах 1-3 в хранилище ничего не пишется.
func (s *CredentialService) Connect(ctx context.Context, vendor models.Vendor, ownerID, apiKey, apiSecret string) (err error) {
	defer func() {
		metrics.RecordCredentialEvent(vendor.String(), "connect", err == nil)
	}()

	if !vendor.Valid() {
		return ErrUnsupportedVendor
	}

	ownerID = strings.TrimSpace(ownerID)
	apiKey = strings.TrimSpace(apiKey)
	apiSecret = strings.TrimSpace(apiSecret)
	if ownerID == "" || apiKey == "" || apiSecret == "" {
		return invalid("Missing required fields")
	}

	var verr utils.ValidationErrors
	verr.AddError("ownerId", utils.ValidateOwnerID(ownerID))
	verr.AddError("apiKey", utils.ValidateAPIKey(apiKey))
	verr.AddError("apiSecret", utils.ValidateAPISecret(apiSecret))
	if verr.HasErrors() {
		return invalid(verr.Error())
	}

	keys := models.APIKeys{APIKey: apiKey, APISecret: apiSecret}
	log := s.log.WithVendor(vendor.String()).WithOwner(ownerID)

	if err := s.verify(ctx, vendor, keys); err != nil {
		log.Warn("credential verification failed", zap.Error(err))
		return err
	}

	encKey, err := s.cipher.Encrypt(apiKey)
	if err != nil {
		return err
	}
	encSecret, err := s.cipher.Encrypt(apiSecret)
	if err != nil {
		return err
	}

	if err := s.creds.Upsert(ctx, ownerID, vendor, encKey, encSecret); err != nil {
		return err
	}

	log.Info("vendor connected")
	if s.events != nil {
		s.events.BroadcastCredentialEvent(ownerID, vendor, true)
	}
	return nil
}

// verify делает один аутентифицированный запрос и классифицирует ошибку
func (s *CredentialService) verify(ctx context.Context, vendor models.Vendor, keys models.APIKeys) error {
	var err error
	switch vendor {
	case models.VendorBinance:
		_, err = s.binance.Account(ctx, keys)
	case models.VendorThreeCommas:
		_, err = s.threeCommas.Accounts(ctx, keys)
	}
	if err == nil {
		return nil
	}
	return classifyVerifyError(err)
}

// classifyVerifyError: отказ вендора в доступе и прочие 4xx кроме 429 и -1021 -
// неверные ключи. 5xx, 429, -1021, транспорт и нечитаемый ответ - сбой соединения.
func classifyVerifyError(err error) error {
	if errors.Is(err, exchange.ErrConfiguration) {
		return err
	}
	ue, ok := exchange.AsUpstream(err)
	if !ok {
		return errors.Join(ErrConnectionFailed, err)
	}
	if ue.IsTimestampRejected() {
		return errors.Join(ErrConnectionFailed, err)
	}
	if ue.IsAuth() || (ue.StatusCode >= 400 && ue.StatusCode < 500 && ue.StatusCode != http.StatusTooManyRequests) {
		return errors.Join(ErrInvalidCredentials, err)
	}
	return errors.Join(ErrConnectionFailed, err)
}

// Status возвращает true, если у владельца сохранены ключ и секрет вендора.
// Вендор не вызывается.
func (s *CredentialService) Status(ctx context.Context, vendor models.Vendor, ownerID string) (bool, error) {
	if !vendor.Valid() {
		return false, ErrUnsupportedVendor
	}
	if strings.TrimSpace(ownerID) == "" {
		return false, invalid("ownerId is required")
	}

	cred, err := s.creds.Get(ctx, ownerID, vendor)
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			return false, nil
		}
		return false, err
	}
	return cred.Connected(), nil
}

// Disconnect обнуляет ключи вендора. Повторный вызов и неизвестный
// владелец завершаются успешно.
func (s *CredentialService) Disconnect(ctx context.Context, vendor models.Vendor, ownerID string) (err error) {
	defer func() {
		metrics.RecordCredentialEvent(vendor.String(), "disconnect", err == nil)
	}()

	if !vendor.Valid() {
		return ErrUnsupportedVendor
	}
	if strings.TrimSpace(ownerID) == "" {
		return invalid("ownerId is required")
	}

	if err := s.creds.Clear(ctx, ownerID, vendor); err != nil {
		return err
	}

	s.log.WithVendor(vendor.String()).WithOwner(ownerID).Info("vendor disconnected")
	if s.events != nil {
		s.events.BroadcastCredentialEvent(ownerID, vendor, false)
	}
	return nil
}

// Keys расшифровывает ключи вендора для одного запроса.
// ErrOwnerNotFound если владелец ни разу не подключался,
// ErrNotConnected если ключей вендора нет или они обнулены.
func (s *CredentialService) Keys(ctx context.Context, vendor models.Vendor, ownerID string) (models.APIKeys, error) {
	cred, err := s.creds.Get(ctx, ownerID, vendor)
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			return models.APIKeys{}, s.notConnected(ctx, ownerID)
		}
		return models.APIKeys{}, err
	}
	if !cred.Connected() {
		return models.APIKeys{}, ErrNotConnected
	}

	key, err := s.cipher.Decrypt(*cred.APIKey)
	if err != nil {
		return models.APIKeys{}, err
	}
	secret, err := s.cipher.Decrypt(*cred.APISecret)
	if err != nil {
		return models.APIKeys{}, err
	}
	return models.APIKeys{APIKey: key, APISecret: secret}, nil
}

func (s *CredentialService) notConnected(ctx context.Context, ownerID string) error {
	if s.owners == nil {
		return ErrNotConnected
	}
	exists, err := s.owners.Exists(ctx, ownerID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrOwnerNotFound
	}
	return ErrNotConnected
}
