package repository

import (
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// Ошибки репозиториев
var (
	ErrOwnerNotFound      = errors.New("owner not found")
	ErrCredentialNotFound = errors.New("credential not found")
	ErrBotNotFound        = errors.New("bot not found")
	ErrBotExists          = errors.New("bot already exists")
)

// isUniqueViolation проверяет, является ли ошибка нарушением UNIQUE constraint
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	errStr := err.Error()
	return strings.Contains(errStr, "duplicate key") || strings.Contains(errStr, "23505")
}

// isInvalidText - значение не приводится к типу колонки (22P02), например не-UUID id
func isInvalidText(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "22P02"
}
