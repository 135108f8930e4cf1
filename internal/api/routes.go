package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tradelink/internal/api/handlers"
	"tradelink/internal/api/middleware"
	"tradelink/internal/models"
	"tradelink/internal/service"
	"tradelink/internal/websocket"
	"tradelink/pkg/utils"
)

// Dependencies содержит все зависимости для API handlers
type Dependencies struct {
	CredentialService service.CredentialServiceInterface
	WalletService     service.WalletServiceInterface
	BotService        service.BotServiceInterface
	Hub               *websocket.Hub
	Logger            *utils.Logger

	// APIToken - если задан, требуется для /api/v1 и /ws
	APIToken       string
	AllowedOrigins []string
}

// SetupRoutes настраивает все HTTP маршруты приложения
//
// Структура маршрутов:
//
// /api/v1/
//
//	├── /binance/
//	│   ├── POST /connect - проверить и сохранить ключи
//	│   ├── GET /status - статус подключения
//	│   ├── POST /disconnect - обнулить ключи
//	│   ├── GET /wallet - балансы, оценка, тренд
//	│   ├── GET /trades - сделки по паре
//	│   └── GET /stats - агрегат сделок по паре
//	├── /threecommas/
//	│   ├── POST /connect
//	│   ├── GET /status
//	│   └── POST /disconnect
//	└── /bots/
//	    ├── POST / - создать бота
//	    ├── GET / - боты владельца
//	    ├── GET /remote - боты владельца в 3Commas
//	    ├── POST /{id}/activate
//	    ├── POST /{id}/pause
//	    ├── POST /{id}/start
//	    └── DELETE /{id}
//
// /ws/stream - WebSocket события владельца
// /health, /metrics
//
// Middleware применяется в следующем порядке:
// 1. Logging (для всех маршрутов, присваивает request id)
// 2. Recovery (для всех маршрутов)
// 3. CORS (для всех маршрутов)
// 4. BearerAuth (только /api/v1 и /ws, если задан токен)
func SetupRoutes(deps *Dependencies) *mux.Router {
	if deps == nil {
		deps = &Dependencies{}
	}

	router := mux.NewRouter()

	// Глобальные middleware (применяются ко всем маршрутам)
	router.Use(middleware.Logging(deps.Logger))
	router.Use(middleware.Recovery(deps.Logger))
	router.Use(middleware.CORS(deps.AllowedOrigins))

	auth := middleware.BearerAuth(deps.APIToken)

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(auth)

	if deps.CredentialService != nil {
		binance := handlers.NewCredentialHandler(deps.CredentialService, models.VendorBinance)
		api.HandleFunc("/binance/connect", binance.Connect).Methods("POST")
		api.HandleFunc("/binance/status", binance.Status).Methods("GET")
		api.HandleFunc("/binance/disconnect", binance.Disconnect).Methods("POST")

		threeCommas := handlers.NewCredentialHandler(deps.CredentialService, models.VendorThreeCommas)
		api.HandleFunc("/threecommas/connect", threeCommas.Connect).Methods("POST")
		api.HandleFunc("/threecommas/status", threeCommas.Status).Methods("GET")
		api.HandleFunc("/threecommas/disconnect", threeCommas.Disconnect).Methods("POST")
	}

	if deps.WalletService != nil {
		wallet := handlers.NewWalletHandler(deps.WalletService)
		api.HandleFunc("/binance/wallet", wallet.GetWallet).Methods("GET")
		api.HandleFunc("/binance/trades", wallet.GetTrades).Methods("GET")
		api.HandleFunc("/binance/stats", wallet.GetStats).Methods("GET")
	}

	if deps.BotService != nil {
		bots := handlers.NewBotHandler(deps.BotService)
		api.HandleFunc("/bots", bots.CreateBot).Methods("POST")
		api.HandleFunc("/bots", bots.GetBots).Methods("GET")
		api.HandleFunc("/bots/remote", bots.GetRemoteBots).Methods("GET")
		api.HandleFunc("/bots/{id}/activate", bots.ActivateBot).Methods("POST")
		api.HandleFunc("/bots/{id}/pause", bots.PauseBot).Methods("POST")
		api.HandleFunc("/bots/{id}/start", bots.StartBot).Methods("POST")
		api.HandleFunc("/bots/{id}", bots.DeleteBot).Methods("DELETE")
	}

	// WebSocket route
	if deps.Hub != nil {
		router.Handle("/ws/stream", auth(deps.Hub.Handler(deps.AllowedOrigins))).Methods("GET")
	}

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Preflight для любых путей, чтобы CORS middleware отработал
	router.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	return router
}
