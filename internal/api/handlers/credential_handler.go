package handlers

import (
	"net/http"

	"tradelink/internal/models"
	"tradelink/internal/service"
)

// ConnectRequest - тело запроса подключения вендора
type ConnectRequest struct {
	OwnerID   string `json:"ownerId"`
	APIKey    string `json:"apiKey"`
	APISecret string `json:"apiSecret"`
}

// DisconnectRequest - тело запроса отключения вендора
type DisconnectRequest struct {
	OwnerID string `json:"ownerId"`
}

// ConnectResponse - ответ на успешное подключение
type ConnectResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// StatusResponse - статус подключения вендора
type StatusResponse struct {
	Connected bool `json:"connected"`
}

// vendorTitles - название вендора в сообщениях клиенту
var vendorTitles = map[models.Vendor]string{
	models.VendorBinance:     "Binance",
	models.VendorThreeCommas: "3Commas",
}

// CredentialHandler отвечает за ключи одного вендора
//
// Endpoints (на примере Binance, 3Commas аналогично):
// - POST /api/v1/binance/connect - проверка и сохранение ключей
// - GET /api/v1/binance/status - подключен ли вендор
// - POST /api/v1/binance/disconnect - обнуление ключей
type CredentialHandler struct {
	credentialService service.CredentialServiceInterface
	vendor            models.Vendor
}

// NewCredentialHandler создает handler для вендора
func NewCredentialHandler(credentialService service.CredentialServiceInterface, vendor models.Vendor) *CredentialHandler {
	return &CredentialHandler{
		credentialService: credentialService,
		vendor:            vendor,
	}
}

// Connect проверяет ключи одним запросом к вендору и сохраняет их
// POST /api/v1/{vendor}/connect
//
// Тело запроса:
//
//	{
//	  "ownerId": "mem_123",
//	  "apiKey": "...",
//	  "apiSecret": "..."
//	}
//
// Ответы:
// - 200 OK: ключи проверены и сохранены
// - 400 Bad Request: не хватает полей
// - 401 Unauthorized: вендор отклонил ключи
// - 502 Bad Gateway: вендор недоступен
func (h *CredentialHandler) Connect(w http.ResponseWriter, r *http.Request) {
	if h.credentialService == nil {
		respondWithError(w, http.StatusInternalServerError, CodeConfiguration, "Credential service not available", nil)
		return
	}

	var req ConnectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, CodeInvalidRequest, "Invalid request body", err.Error())
		return
	}

	if err := h.credentialService.Connect(r.Context(), h.vendor, req.OwnerID, req.APIKey, req.APISecret); err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, ConnectResponse{
		Success: true,
		Message: vendorTitles[h.vendor] + " API connected successfully",
	})
}

// Status возвращает статус подключения по локальным данным
// GET /api/v1/{vendor}/status?ownerId=
func (h *CredentialHandler) Status(w http.ResponseWriter, r *http.Request) {
	if h.credentialService == nil {
		respondWithError(w, http.StatusInternalServerError, CodeConfiguration, "Credential service not available", nil)
		return
	}

	connected, err := h.credentialService.Status(r.Context(), h.vendor, ownerParam(r, ""))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, StatusResponse{Connected: connected})
}

// Disconnect обнуляет ключи, повторный вызов тоже успешен
// POST /api/v1/{vendor}/disconnect
func (h *CredentialHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	if h.credentialService == nil {
		respondWithError(w, http.StatusInternalServerError, CodeConfiguration, "Credential service not available", nil)
		return
	}

	var req DisconnectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, CodeInvalidRequest, "Invalid request body", err.Error())
		return
	}

	if err := h.credentialService.Disconnect(r.Context(), h.vendor, ownerParam(r, req.OwnerID)); err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, MessageResponse{
		Message: vendorTitles[h.vendor] + " API disconnected successfully",
	})
}
