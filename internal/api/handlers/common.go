package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"tradelink/internal/bot"
	"tradelink/internal/exchange"
	"tradelink/internal/service"
	"tradelink/pkg/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MaxRequestBodySize ограничение размера тела запроса (1 MB)
const MaxRequestBodySize = 1 << 20 // 1 MB

// Коды ошибок API
const (
	CodeConfiguration      = "configuration_error"
	CodeInvalidCredentials = "invalid_credentials"
	CodeUpstream           = "upstream_error"
	CodeOwnership          = "ownership_error"
	CodeNotFound           = "not_found"
	CodeInvalidRequest     = "invalid_request"
	CodeInvalidTransition  = "invalid_transition"
	CodeConnectionFailed   = "connection_failed"
	CodeInternal           = "internal_error"
)

// ErrorResponse стандартный формат ответа об ошибке для всех API endpoints
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// UpstreamDetails - детали ответа вендора для кода upstream_error
type UpstreamDetails struct {
	Vendor string `json:"vendor"`
	Status int    `json:"status"`
	Code   string `json:"code,omitempty"`
	Body   string `json:"body,omitempty"`
}

// MessageResponse - ответ только с сообщением
type MessageResponse struct {
	Message string `json:"message"`
}

// respondWithJSON отправляет JSON ответ
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to marshal response","code":"internal_error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondWithError отправляет JSON ответ с ошибкой
func respondWithError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	respondWithJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}

// decodeJSON читает тело запроса с ограничением размера.
// Пустое тело не считается ошибкой.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ownerParam - ownerId из тела, если не задан, то из query
func ownerParam(r *http.Request, fromBody string) string {
	if owner := strings.TrimSpace(fromBody); owner != "" {
		return owner
	}
	return strings.TrimSpace(r.URL.Query().Get("ownerId"))
}

// respondServiceError сопоставляет ошибку сервиса со статусом и кодом
//
// Порядок проверок важен: ErrInvalidCredentials и ErrConnectionFailed
// объединены с исходной UpstreamError и должны распознаваться первыми.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr *service.ValidationError
		terr *bot.TransitionError
	)

	switch {
	case errors.As(err, &verr):
		respondWithError(w, http.StatusBadRequest, CodeInvalidRequest, verr.Message, nil)
	case errors.Is(err, service.ErrUnsupportedVendor):
		respondWithError(w, http.StatusBadRequest, CodeInvalidRequest, "Unsupported vendor", nil)
	case errors.Is(err, service.ErrNotConnected):
		respondWithError(w, http.StatusBadRequest, CodeInvalidRequest, "Vendor is not connected", nil)
	case errors.Is(err, service.ErrOwnerNotFound):
		respondWithError(w, http.StatusNotFound, CodeNotFound, "User not found", nil)
	case errors.Is(err, service.ErrBotNotFound):
		respondWithError(w, http.StatusNotFound, CodeNotFound, "Bot not found", nil)
	case errors.Is(err, service.ErrOwnership):
		respondWithError(w, http.StatusForbidden, CodeOwnership, "Bot does not belong to this user", nil)
	case errors.As(err, &terr):
		respondWithError(w, http.StatusConflict, CodeInvalidTransition, terr.Error(), nil)
	case errors.Is(err, service.ErrInvalidTransition):
		respondWithError(w, http.StatusConflict, CodeInvalidTransition, "Invalid bot state transition", nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		respondWithError(w, http.StatusUnauthorized, CodeInvalidCredentials, "Invalid API credentials", upstreamDetails(err))
	case errors.Is(err, service.ErrConnectionFailed):
		respondWithError(w, http.StatusBadGateway, CodeConnectionFailed, "Failed to connect to vendor", upstreamDetails(err))
	case errors.Is(err, service.ErrConfiguration):
		utils.L().Error("configuration error", zap.String("path", r.URL.Path), zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, CodeConfiguration, "Service is not configured for this operation", nil)
	default:
		if ue, ok := exchange.AsUpstream(err); ok {
			respondWithError(w, http.StatusBadGateway, CodeUpstream, "Upstream request failed", upstreamDetails(ue))
			return
		}
		utils.L().Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, CodeInternal, "Internal server error", nil)
	}
}

// upstreamDetails возвращает nil, если в цепочке нет ответа вендора
func upstreamDetails(err error) interface{} {
	ue, ok := exchange.AsUpstream(err)
	if !ok {
		return nil
	}
	return UpstreamDetails{
		Vendor: ue.Vendor,
		Status: ue.StatusCode,
		Code:   ue.Code,
		Body:   ue.Body,
	}
}
