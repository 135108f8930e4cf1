package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"tradelink/internal/models"
	"tradelink/internal/service"
)

// BotActionRequest - тело запросов управления ботом
type BotActionRequest struct {
	OwnerID string `json:"ownerId"`
}

// BotResponse - ответ с одним ботом
type BotResponse struct {
	Message string      `json:"message"`
	Bot     *models.Bot `json:"bot"`
}

// BotListResponse - ответ со списком локальных ботов
type BotListResponse struct {
	Message string        `json:"message"`
	Total   int           `json:"total"`
	Bots    []*models.Bot `json:"bots"`
}

// RemoteBotListResponse - ответ со списком ботов из 3Commas
type RemoteBotListResponse struct {
	Message string             `json:"message"`
	Total   int                `json:"total"`
	Bots    []models.RemoteBot `json:"bots"`
}

// BotHandler отвечает за ботов 3Commas
//
// Endpoints:
// - POST /api/v1/bots - создать бота
// - GET /api/v1/bots - боты владельца, новые первыми
// - GET /api/v1/bots/remote - боты владельца в представлении 3Commas
// - POST /api/v1/bots/{id}/activate - включить
// - POST /api/v1/bots/{id}/pause - приостановить
// - POST /api/v1/bots/{id}/start - запустить новую сделку
// - DELETE /api/v1/bots/{id} - удалить
type BotHandler struct {
	botService service.BotServiceInterface
}

// NewBotHandler создает новый BotHandler
func NewBotHandler(botService service.BotServiceInterface) *BotHandler {
	return &BotHandler{botService: botService}
}

// CreateBot создает бота в 3Commas и сохраняет локальную запись
// POST /api/v1/bots
//
// Тело запроса:
//
//	{
//	  "ownerId": "mem_123",
//	  "botName": "grid",
//	  "direction": "long",
//	  "botType": "single",
//	  "pair": "USDT_BTC",
//	  "profitCurrency": "quote",
//	  "baseOrderSize": "10",
//	  "startOrderType": "market",
//	  "takeProfitType": "total",
//	  "targetProfitPercent": "1.5"
//	}
//
// Ответы:
// - 201 Created: бот создан
// - 400 Bad Request: не хватает полей
// - 404 Not Found: владелец не найден
// - 502 Bad Gateway: ошибка 3Commas
func (h *BotHandler) CreateBot(w http.ResponseWriter, r *http.Request) {
	if h.botService == nil {
		respondWithError(w, http.StatusInternalServerError, CodeConfiguration, "Bot service not available", nil)
		return
	}

	var req service.CreateBotRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, CodeInvalidRequest, "Invalid request body", err.Error())
		return
	}

	b, err := h.botService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, BotResponse{Message: "Bot created successfully", Bot: b})
}

// GetBots возвращает локальных ботов владельца
// GET /api/v1/bots?ownerId=
func (h *BotHandler) GetBots(w http.ResponseWriter, r *http.Request) {
	if h.botService == nil {
		respondWithError(w, http.StatusInternalServerError, CodeConfiguration, "Bot service not available", nil)
		return
	}

	bots, err := h.botService.List(r.Context(), ownerParam(r, ""))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if bots == nil {
		bots = []*models.Bot{}
	}

	respondWithJSON(w, http.StatusOK, BotListResponse{
		Message: "Bots fetched successfully",
		Total:   len(bots),
		Bots:    bots,
	})
}

// GetRemoteBots возвращает ботов владельца из 3Commas
// GET /api/v1/bots/remote?ownerId=
func (h *BotHandler) GetRemoteBots(w http.ResponseWriter, r *http.Request) {
	if h.botService == nil {
		respondWithError(w, http.StatusInternalServerError, CodeConfiguration, "Bot service not available", nil)
		return
	}

	bots, err := h.botService.ListRemote(r.Context(), ownerParam(r, ""))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if bots == nil {
		bots = []models.RemoteBot{}
	}

	respondWithJSON(w, http.StatusOK, RemoteBotListResponse{
		Message: "Remote bots fetched successfully",
		Total:   len(bots),
		Bots:    bots,
	})
}

// ActivateBot включает бота
// POST /api/v1/bots/{id}/activate
func (h *BotHandler) ActivateBot(w http.ResponseWriter, r *http.Request) {
	h.control(w, r, service.BotServiceInterface.Activate, "Bot activated successfully")
}

// PauseBot приостанавливает работающего бота
// POST /api/v1/bots/{id}/pause
//
// Ответы:
// - 200 OK: бот приостановлен
// - 403 Forbidden: бот принадлежит другому владельцу
// - 404 Not Found: бот не найден
// - 409 Conflict: бот не запущен
func (h *BotHandler) PauseBot(w http.ResponseWriter, r *http.Request) {
	h.control(w, r, service.BotServiceInterface.Pause, "Bot paused successfully")
}

// StartBot запускает новую сделку
// POST /api/v1/bots/{id}/start
func (h *BotHandler) StartBot(w http.ResponseWriter, r *http.Request) {
	h.control(w, r, service.BotServiceInterface.Start, "Bot started successfully")
}

// DeleteBot удаляет бота в 3Commas и локально
// DELETE /api/v1/bots/{id}
func (h *BotHandler) DeleteBot(w http.ResponseWriter, r *http.Request) {
	if h.botService == nil {
		respondWithError(w, http.StatusInternalServerError, CodeConfiguration, "Bot service not available", nil)
		return
	}

	var req BotActionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, CodeInvalidRequest, "Invalid request body", err.Error())
		return
	}

	if err := h.botService.Delete(r.Context(), mux.Vars(r)["id"], ownerParam(r, req.OwnerID)); err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, MessageResponse{Message: "Bot deleted successfully"})
}

type controlFunc func(s service.BotServiceInterface, ctx context.Context, botID, ownerID string) (*models.Bot, error)

func (h *BotHandler) control(w http.ResponseWriter, r *http.Request, fn controlFunc, message string) {
	if h.botService == nil {
		respondWithError(w, http.StatusInternalServerError, CodeConfiguration, "Bot service not available", nil)
		return
	}

	var req BotActionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, CodeInvalidRequest, "Invalid request body", err.Error())
		return
	}

	b, err := fn(h.botService, r.Context(), mux.Vars(r)["id"], ownerParam(r, req.OwnerID))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, BotResponse{Message: message, Bot: b})
}
