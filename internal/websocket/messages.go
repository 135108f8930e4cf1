package websocket

import (
	"time"

	"tradelink/internal/bot"
	"tradelink/internal/models"
)

// MessageType определяет тип WebSocket сообщения
type MessageType string

// Типы WebSocket сообщений
const (
	// MessageTypeCredentialUpdate - вендор подключен или отключен
	MessageTypeCredentialUpdate MessageType = "credentialUpdate"

	// MessageTypeBotUpdate - бот создан, удален или сменил статус
	MessageTypeBotUpdate MessageType = "botUpdate"
)

// BaseMessage - базовая структура для всех WebSocket сообщений
type BaseMessage struct {
	Type      MessageType `json:"type"`
	OwnerID   string      `json:"ownerId"`
	Timestamp time.Time   `json:"timestamp"`
}

// CredentialUpdateMessage - изменение подключения вендора
type CredentialUpdateMessage struct {
	BaseMessage
	Vendor    models.Vendor `json:"vendor"`
	Connected bool          `json:"connected"`
}

// BotUpdateMessage - событие жизненного цикла бота
//
// Action: created, pause, start, activate, delete.
type BotUpdateMessage struct {
	BaseMessage
	Action     string      `json:"action"`
	Bot        *models.Bot `json:"bot"`
	StatusText string      `json:"statusText,omitempty"`
	Active     bool        `json:"active"`
}

// NewCredentialUpdateMessage создает сообщение о подключении вендора
func NewCredentialUpdateMessage(ownerID string, vendor models.Vendor, connected bool) *CredentialUpdateMessage {
	return &CredentialUpdateMessage{
		BaseMessage: BaseMessage{Type: MessageTypeCredentialUpdate, OwnerID: ownerID, Timestamp: time.Now().UTC()},
		Vendor:      vendor,
		Connected:   connected,
	}
}

// NewBotUpdateMessage создает сообщение о событии бота
func NewBotUpdateMessage(ownerID, action string, b *models.Bot) *BotUpdateMessage {
	msg := &BotUpdateMessage{
		BaseMessage: BaseMessage{Type: MessageTypeBotUpdate, OwnerID: ownerID, Timestamp: time.Now().UTC()},
		Action:      action,
		Bot:         b,
	}
	if b != nil && action != string(bot.ActionDelete) {
		msg.StatusText = bot.StatusInfo(b.Status)
		msg.Active = bot.IsActive(b.Status)
	}
	return msg
}
