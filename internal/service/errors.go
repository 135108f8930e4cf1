package service

import (
	"errors"

	"tradelink/internal/bot"
	"tradelink/internal/exchange"
	"tradelink/internal/repository"
)

// Ошибки сервисов
//
// Часть ошибок переиспользует sentinel-значения нижних слоев, чтобы
// errors.Is работал одинаково на любом уровне.
var (
	ErrInvalidCredentials = errors.New("invalid API credentials")
	ErrConnectionFailed   = errors.New("failed to reach vendor")
	ErrNotConnected       = errors.New("vendor is not connected")
	ErrUnsupportedVendor  = errors.New("vendor is not supported")

	ErrConfiguration     = exchange.ErrConfiguration
	ErrOwnerNotFound     = repository.ErrOwnerNotFound
	ErrBotNotFound       = repository.ErrBotNotFound
	ErrOwnership         = bot.ErrNotOwner
	ErrInvalidTransition = bot.ErrInvalidTransition
)

// ValidationError - ошибка входных данных с сообщением для клиента
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

// IsValidation проверяет, что ошибка вызвана входными данными
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
