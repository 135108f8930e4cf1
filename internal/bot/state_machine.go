// Package bot описывает таблицу переходов локального статуса бота.
//
// Статус бота - зеркало состояния в 3Commas: сервис проверяет переход
// здесь до удаленного вызова и сохраняет новый статус только после
// успешного ответа вендора.
package bot

import (
	"errors"
	"fmt"

	"tradelink/internal/models"
)

// Action - управляющее действие над ботом
type Action string

const (
	ActionPause    Action = "pause"
	ActionStart    Action = "start"
	ActionActivate Action = "activate"
	ActionDelete   Action = "delete"
)

var (
	ErrNotOwner          = errors.New("bot is owned by another owner")
	ErrInvalidTransition = errors.New("invalid bot transition")
	ErrUnknownAction     = errors.New("unknown bot action")
)

// Transition - допустимые исходные статусы, целевой статус и вызов 3Commas
type Transition struct {
	From   []models.BotStatus
	To     models.BotStatus
	Remote string // суффикс /ver1/bots/{id}/..., для delete - метод DELETE
}

var anyStatus = []models.BotStatus{models.BotStatusRunning, models.BotStatusPaused, models.BotStatusStopped}

// ValidTransitions определяет допустимые переходы по действиям
var ValidTransitions = map[Action]Transition{
	ActionPause:    {From: []models.BotStatus{models.BotStatusRunning}, To: models.BotStatusPaused, Remote: "disable"},
	ActionStart:    {From: []models.BotStatus{models.BotStatusPaused, models.BotStatusStopped}, To: models.BotStatusRunning, Remote: "start_new_deal"},
	ActionActivate: {From: []models.BotStatus{models.BotStatusPaused, models.BotStatusStopped}, To: models.BotStatusRunning, Remote: "enable"},
	ActionDelete:   {From: anyStatus, To: "", Remote: "delete"}, // запись удаляется
}

// TransitionError - отказ в переходе из текущего статуса
type TransitionError struct {
	BotID  string
	Action Action
	From   models.BotStatus
}

func (e *TransitionError) Error() string {
	switch e.Action {
	case ActionPause:
		return "Bot is not currently running"
	case ActionStart:
		return "Bot must be paused or stopped to start"
	case ActionActivate:
		return "Bot must be paused or stopped to activate"
	}
	return fmt.Sprintf("cannot %s bot in status %q", e.Action, e.From)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// CanTransition проверяет допустимость действия из статуса
func CanTransition(from models.BotStatus, action Action) bool {
	tr, ok := ValidTransitions[action]
	if !ok {
		return false
	}
	for _, s := range tr.From {
		if s == from {
			return true
		}
	}
	return false
}

// Gate проверяет владение и затем статус. Возвращает переход,
// который нужно выполнить удаленно.
func Gate(b *models.Bot, ownerID string, action Action) (Transition, error) {
	tr, ok := ValidTransitions[action]
	if !ok {
		return Transition{}, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
	if !b.OwnedBy(ownerID) {
		return Transition{}, ErrNotOwner
	}
	if !CanTransition(b.Status, action) {
		return Transition{}, &TransitionError{BotID: b.ID, Action: action, From: b.Status}
	}
	return tr, nil
}

// StatusInfo возвращает описание статуса для UI
func StatusInfo(s models.BotStatus) string {
	switch s {
	case models.BotStatusRunning:
		return "Бот запущен"
	case models.BotStatusPaused:
		return "Бот приостановлен"
	case models.BotStatusStopped:
		return "Бот остановлен"
	default:
		return "Неизвестное состояние"
	}
}

// IsActive возвращает true если бот торгует
func IsActive(s models.BotStatus) bool {
	return s == models.BotStatusRunning
}
