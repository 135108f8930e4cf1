package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"tradelink/internal/api"
	"tradelink/internal/config"
	"tradelink/internal/exchange"
	"tradelink/internal/models"
	"tradelink/internal/repository"
	"tradelink/internal/service"
	"tradelink/internal/websocket"
	"tradelink/pkg/crypto"
	"tradelink/pkg/ratelimit"
	"tradelink/pkg/utils"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := utils.InitGlobalLogger(utils.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *utils.Logger) error {
	// Инициализация базы данных
	db, err := initDatabase(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	logger.Info("connected to database", zap.String("dsn", cfg.Database.DSNWithoutPassword()))

	if cfg.Database.AutoMigrate {
		if err := repository.Migrate(db, logger.Logger); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	cipher, err := crypto.NewCipher([]byte(cfg.Security.EncryptionKey))
	if err != nil {
		return fmt.Errorf("init cipher: %w", err)
	}

	// Инициализация репозиториев
	ownerRepo := repository.NewOwnerRepository(db)
	credentialRepo := repository.NewCredentialRepository(db)
	botRepo := repository.NewBotRepository(db)

	// Общий HTTP клиент и лимиты запросов для вендоров
	httpClient := exchange.NewHTTPClient(exchange.DefaultHTTPClientConfig())
	defer httpClient.Close()

	limiter := ratelimit.NewMultiLimiter()
	limiter.Add(exchange.VendorBinance, cfg.Binance.RateLimit, cfg.Binance.RateBurst)
	limiter.Add(exchange.VendorThreeCommas, cfg.ThreeCommas.RateLimit, cfg.ThreeCommas.RateBurst)

	binanceClient := exchange.NewBinance(exchange.BinanceConfig{
		BaseURL:    cfg.Binance.BaseURL,
		RecvWindow: cfg.Binance.RecvWindow,
		Timeout:    cfg.Binance.Timeout,
		Client:     httpClient,
		Limiter:    limiter,
	})
	threeCommasClient := exchange.NewThreeCommas(exchange.ThreeCommasConfig{
		BaseURL: cfg.ThreeCommas.BaseURL,
		Timeout: cfg.ThreeCommas.Timeout,
		Client:  httpClient,
		Limiter: limiter,
	})

	// Инициализация сервисов
	credentialService := service.NewCredentialService(ownerRepo, credentialRepo, cipher, binanceClient, threeCommasClient, logger)

	walletService := service.NewWalletService(credentialService, binanceClient, service.WalletConfig{
		QuoteAsset:  cfg.Wallet.QuoteAsset,
		TopN:        cfg.Wallet.TrendTopN,
		DefaultDays: cfg.Wallet.TrendDefaultDays,
		MaxDays:     cfg.Wallet.TrendMaxDays,
		TradesLimit: cfg.Wallet.TradesLimit,
	}, logger)

	processAccount := service.ThreeCommasIdentity{AccountID: cfg.ThreeCommas.AccountID}
	if cfg.ThreeCommas.HasProcessAccount() {
		processAccount.Keys = models.APIKeys{APIKey: cfg.ThreeCommas.APIKey, APISecret: cfg.ThreeCommas.APISecret}
	} else {
		logger.Warn("3Commas process account not configured, bots require owner keys")
	}
	botService := service.NewBotService(ownerRepo, botRepo, credentialService, threeCommasClient, processAccount, logger)

	// WebSocket hub
	hub := websocket.NewHub(logger)
	go hub.Run()
	defer hub.Stop()

	credentialService.SetEventBroadcaster(hub)
	botService.SetEventBroadcaster(hub)

	// Настройка HTTP роутера
	router := api.SetupRoutes(&api.Dependencies{
		CredentialService: credentialService,
		WalletService:     walletService,
		BotService:        botService,
		Hub:               hub,
		Logger:            logger,
		APIToken:          cfg.Security.APIToken,
		AllowedOrigins:    cfg.Server.AllowedOrigins,
	})

	// HTTP сервер
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", server.Addr), zap.Bool("https", cfg.Server.UseHTTPS))
		var err error
		if cfg.Server.UseHTTPS {
			err = server.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("shutting down server", zap.String("signal", sig.String()))
	case err, ok := <-serverErr:
		if ok {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited")
	return nil
}

// initDatabase создает подключение к базе данных
func initDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Настройка пула соединений
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxOpenConns / 2)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Проверка подключения
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
