package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Ошибки валидации
var (
	ErrInvalidSymbol    = errors.New("invalid trading pair symbol")
	ErrInvalidAPIKey    = errors.New("invalid api key format")
	ErrInvalidAPISecret = errors.New("invalid api secret format")
	ErrInvalidOwnerID   = errors.New("invalid owner id")
)

var (
	symbolRe  = regexp.MustCompile(`^[A-Za-z0-9\-_/]{2,30}$`)
	apiKeyRe  = regexp.MustCompile(`^[A-Za-z0-9\-_]{16,256}$`)
	ownerIDRe = regexp.MustCompile(`^[A-Za-z0-9\-_:.]{1,128}$`)
)

// ValidateSymbol проверяет формат торговой пары (BTCUSDT, BTC-USDT, BTC/USDT)
func ValidateSymbol(symbol string) error {
	if !symbolRe.MatchString(symbol) {
		return ErrInvalidSymbol
	}
	return nil
}

// NormalizeSymbol приводит пару к формату Binance: BTC-usdt -> BTCUSDT
func NormalizeSymbol(symbol string) string {
	r := strings.NewReplacer("-", "", "_", "", "/", "")
	return strings.ToUpper(r.Replace(strings.TrimSpace(symbol)))
}

// ValidateAPIKey проверяет формат API ключа вендора
func ValidateAPIKey(key string) error {
	if !apiKeyRe.MatchString(key) {
		return ErrInvalidAPIKey
	}
	return nil
}

// ValidateAPISecret проверяет API секрет: минимум 16 символов, без пробелов
func ValidateAPISecret(secret string) error {
	if len(secret) < 16 || len(secret) > 512 || strings.ContainsAny(secret, " \t\r\n") {
		return ErrInvalidAPISecret
	}
	return nil
}

// ValidateOwnerID проверяет идентификатор профиля (например mem_clx123...)
func ValidateOwnerID(id string) error {
	if !ownerIDRe.MatchString(id) {
		return ErrInvalidOwnerID
	}
	return nil
}

// ValidationError - ошибка конкретного поля
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors собирает ошибки нескольких полей
type ValidationErrors []ValidationError

// Add добавляет ошибку поля
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, ValidationError{Field: field, Message: message})
}

// AddError добавляет ошибку, если err != nil
func (v *ValidationErrors) AddError(field string, err error) {
	if err != nil {
		v.Add(field, err.Error())
	}
}

// HasErrors возвращает true, если есть хотя бы одна ошибка
func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

// Messages возвращает тексты ошибок без имён полей
func (v ValidationErrors) Messages() []string {
	out := make([]string, len(v))
	for i, e := range v {
		out[i] = e.Message
	}
	return out
}

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}
