// Package metrics содержит Prometheus метрики relay-сервиса.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================================
// Prometheus метрики
// ============================================================
//
// Экспортируются через GET /metrics (promhttp).
// - Латентность и коды ответов вендоров
// - Переходы состояний ботов
// - Пропуски в тренде кошелька

const namespace = "tradelink"

// ============ Вызовы вендоров ============

// UpstreamRequests - количество запросов к вендорам
var UpstreamRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "upstream",
		Name:      "requests_total",
		Help:      "Total number of upstream requests by vendor, method and status class",
	},
	[]string{"vendor", "method", "status"}, // status: 2xx, 4xx, 5xx, transport
)

// UpstreamLatency - длительность запроса к вендору
var UpstreamLatency = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "upstream",
		Name:      "request_duration_ms",
		Help:      "Upstream request duration in milliseconds",
		Buckets:   []float64{25, 50, 100, 200, 300, 500, 1000, 2000, 5000, 15000},
	},
	[]string{"vendor", "method"},
)

// RateLimitWait - время ожидания токена клиентского rate limiter
var RateLimitWait = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "upstream",
		Name:      "rate_limit_wait_ms",
		Help:      "Time spent waiting for a client-side rate limit token in milliseconds",
		Buckets:   []float64{0.1, 1, 10, 50, 100, 500, 1000},
	},
	[]string{"vendor"},
)

// RateLimitTokens - остаток токенов в ведре вендора после выдачи очередного
var RateLimitTokens = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "upstream",
		Name:      "rate_limit_tokens",
		Help:      "Client-side rate limit tokens left after the last grant",
	},
	[]string{"vendor"},
)

// ============ Бизнес-события ============

// BotTransitions - переходы состояний ботов
var BotTransitions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "bots",
		Name:      "transitions_total",
		Help:      "Bot control operations by action and result",
	},
	[]string{"action", "result"}, // result: success, rejected, upstream_error
)

// CredentialEvents - подключения и отключения вендоров
var CredentialEvents = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "credentials",
		Name:      "events_total",
		Help:      "Credential connect/disconnect operations by vendor and result",
	},
	[]string{"vendor", "action", "result"},
)

// TrendGaps - актив-дни без исторической цены
var TrendGaps = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "wallet",
		Name:      "trend_gaps_total",
		Help:      "Asset-days that contributed zero to the wallet trend because no price was available",
	},
)

// WebSocketClients - текущее количество подключённых WS клиентов
var WebSocketClients = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ws",
		Name:      "clients",
		Help:      "Current number of connected websocket clients",
	},
)

// ============ Хелперы ============

// RecordUpstream записывает результат вызова вендора
// statusCode == 0 означает ошибку транспорта
func RecordUpstream(vendor, method string, statusCode int, elapsed time.Duration) {
	UpstreamRequests.WithLabelValues(vendor, method, StatusClass(statusCode)).Inc()
	UpstreamLatency.WithLabelValues(vendor, method).Observe(float64(elapsed.Microseconds()) / 1000)
}

// RecordRateLimitWait записывает ожидание rate limiter
func RecordRateLimitWait(vendor string, waited time.Duration) {
	RateLimitWait.WithLabelValues(vendor).Observe(float64(waited.Microseconds()) / 1000)
}

// RecordRateLimitTokens выставляет остаток токенов вендора
func RecordRateLimitTokens(vendor string, tokens float64) {
	RateLimitTokens.WithLabelValues(vendor).Set(tokens)
}

// RecordBotTransition записывает операцию управления ботом
func RecordBotTransition(action, result string) {
	BotTransitions.WithLabelValues(action, result).Inc()
}

// RecordCredentialEvent записывает connect/disconnect
func RecordCredentialEvent(vendor, action string, success bool) {
	result := "success"
	if !success {
		result = "failed"
	}
	CredentialEvents.WithLabelValues(vendor, action, result).Inc()
}

// RecordTrendGaps добавляет количество пропусков тренда
func RecordTrendGaps(n int) {
	if n > 0 {
		TrendGaps.Add(float64(n))
	}
}

// StatusClass группирует HTTP код в класс для метки
func StatusClass(code int) string {
	if code <= 0 {
		return "transport"
	}
	return strconv.Itoa(code/100) + "xx"
}
