package exchange

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Ошибки уровня адаптера
var (
	// ErrConfiguration - не задан секрет или базовый URL, запрос не отправлялся
	ErrConfiguration = errors.New("upstream adapter is not configured")
	// ErrUnsupportedMethod - адаптер поддерживает только GET, POST и DELETE
	ErrUnsupportedMethod = errors.New("unsupported http method")
)

// UpstreamError - любая неудача вызова вендора
//
// StatusCode == 0 означает ошибку транспорта (таймаут, DNS, обрыв),
// в этом случае Original содержит исходную ошибку.
type UpstreamError struct {
	Vendor     string
	StatusCode int
	Body       string
	Code       string // код ошибки вендора, если удалось распознать
	Message    string
	Original   error
}

func (e *UpstreamError) Error() string {
	var b strings.Builder
	b.WriteString(e.Vendor)
	if e.StatusCode > 0 {
		b.WriteString(": status ")
		b.WriteString(strconv.Itoa(e.StatusCode))
	} else {
		b.WriteString(": transport error")
	}
	if e.Code != "" {
		b.WriteString(" code ")
		b.WriteString(e.Code)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Unwrap возвращает оригинальную ошибку для поддержки errors.Is() и errors.As()
func (e *UpstreamError) Unwrap() error {
	return e.Original
}

// IsTransport - запрос не дошёл или ответ не получен
func (e *UpstreamError) IsTransport() bool {
	return e.StatusCode == 0
}

// IsAuth - вендор отклонил ключи или подпись
func (e *UpstreamError) IsAuth() bool {
	if e.StatusCode == 401 || e.StatusCode == 403 {
		return true
	}
	// Binance отвечает 400 с кодами -2014/-2015/-1022 на неверный ключ или подпись
	switch e.Code {
	case "-2014", "-2015", "-1022":
		return true
	}
	return false
}

// IsTimestampRejected - Binance -1021: timestamp вне recvWindow, ключи не проверялись
func (e *UpstreamError) IsTimestampRejected() bool {
	return e.Code == "-1021"
}

// IsServer - ошибка на стороне вендора (5xx)
func (e *UpstreamError) IsServer() bool {
	return e.StatusCode >= 500
}

// AsUpstream извлекает *UpstreamError из цепочки
func AsUpstream(err error) (*UpstreamError, bool) {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

// vendorErrorBody - общие поля тел ошибок Binance и 3Commas
//
// Binance:  {"code":-2015,"msg":"Invalid API-key, IP, or permissions for action."}
// 3Commas:  {"error":"signature_invalid","error_description":"Provided signature is invalid"}
type vendorErrorBody struct {
	Code             interface{} `json:"code"`
	Msg              string      `json:"msg"`
	Error            string      `json:"error"`
	ErrorDescription string      `json:"error_description"`
	Message          string      `json:"message"`
}

// newStatusError строит UpstreamError из не-2xx ответа
func newStatusError(vendor string, status int, body []byte) *UpstreamError {
	ue := &UpstreamError{
		Vendor:     vendor,
		StatusCode: status,
		Body:       truncate(string(body), 2048),
	}

	var parsed vendorErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		switch c := parsed.Code.(type) {
		case float64:
			ue.Code = strconv.FormatInt(int64(c), 10)
		case string:
			ue.Code = c
		}
		if ue.Code == "" {
			ue.Code = parsed.Error
		}
		switch {
		case parsed.Msg != "":
			ue.Message = parsed.Msg
		case parsed.ErrorDescription != "":
			ue.Message = parsed.ErrorDescription
		case parsed.Message != "":
			ue.Message = parsed.Message
		case parsed.Error != "":
			ue.Message = parsed.Error
		}
	}
	return ue
}

// newTransportError оборачивает ошибку транспорта
func newTransportError(vendor string, err error) *UpstreamError {
	return &UpstreamError{
		Vendor:   vendor,
		Message:  err.Error(),
		Original: err,
	}
}

// newDecodeError - 2xx ответ, который не удалось разобрать
func newDecodeError(vendor string, status int, body []byte, err error) *UpstreamError {
	return &UpstreamError{
		Vendor:     vendor,
		StatusCode: status,
		Body:       truncate(string(body), 2048),
		Message:    fmt.Sprintf("decode response: %v", err),
		Original:   err,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
