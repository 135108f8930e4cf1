package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"tradelink/pkg/crypto"
)

// Config содержит всю конфигурацию приложения
//
// Порядок применения: значения по умолчанию -> YAML файл (CONFIG_FILE) -> переменные окружения.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Security    SecurityConfig    `yaml:"security"`
	Binance     BinanceConfig     `yaml:"binance"`
	ThreeCommas ThreeCommasConfig `yaml:"threecommas"`
	Wallet      WalletConfig      `yaml:"wallet"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Port            int           `yaml:"port"`
	Host            string        `yaml:"host"`
	UseHTTPS        bool          `yaml:"use_https"`
	CertFile        string        `yaml:"cert_file"`
	KeyFile         string        `yaml:"key_file"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

// DatabaseConfig - настройки подключения к БД
type DatabaseConfig struct {
	Driver       string `yaml:"driver"`
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Name         string `yaml:"name"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	SSLMode      string `yaml:"ssl_mode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	AutoMigrate  bool   `yaml:"auto_migrate"`
}

// SecurityConfig - настройки безопасности
type SecurityConfig struct {
	// EncryptionKey - мастер-ключ шифрования API ключей (ровно 32 байта)
	EncryptionKey string `yaml:"encryption_key"`
	// APIToken - если задан, требуется заголовок Authorization: Bearer <token>
	APIToken string `yaml:"api_token"`
}

// BinanceConfig - настройки вендора Binance
type BinanceConfig struct {
	BaseURL    string        `yaml:"base_url"`
	RecvWindow int64         `yaml:"recv_window"` // мс
	Timeout    time.Duration `yaml:"timeout"`
	RateLimit  float64       `yaml:"rate_limit"` // запросов/сек
	RateBurst  float64       `yaml:"rate_burst"`
}

// ThreeCommasConfig - настройки вендора 3Commas
//
// APIKey/APISecret/AccountID - аккаунт уровня процесса, используется
// для владельцев без собственного подключённого 3Commas.
type ThreeCommasConfig struct {
	BaseURL   string        `yaml:"base_url"`
	APIKey    string        `yaml:"api_key"`
	APISecret string        `yaml:"api_secret"`
	AccountID int64         `yaml:"account_id"`
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rate_limit"`
	RateBurst float64       `yaml:"rate_burst"`
}

// WalletConfig - параметры агрегации кошелька
type WalletConfig struct {
	QuoteAsset       string `yaml:"quote_asset"`
	TrendTopN        int    `yaml:"trend_top_n"`
	TrendDefaultDays int    `yaml:"trend_default_days"`
	TrendMaxDays     int    `yaml:"trend_max_days"`
	TradesLimit      int    `yaml:"trades_limit"`
}

// LoggingConfig - настройки логирования
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// HasProcessAccount - задан ли аккаунт 3Commas уровня процесса
func (c ThreeCommasConfig) HasProcessAccount() bool {
	return c.APIKey != "" && c.APISecret != ""
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		Database: DatabaseConfig{
			Driver:       "postgres",
			Host:         "localhost",
			Port:         5432,
			Name:         "tradelink",
			User:         "user",
			Password:     "password",
			SSLMode:      "disable",
			MaxOpenConns: 10,
			AutoMigrate:  true,
		},
		Binance: BinanceConfig{
			BaseURL:    "https://api.binance.com",
			RecvWindow: 5000,
			Timeout:    15 * time.Second,
			RateLimit:  10,
			RateBurst:  20,
		},
		ThreeCommas: ThreeCommasConfig{
			BaseURL:   "https://api.3commas.io/public/api",
			Timeout:   15 * time.Second,
			RateLimit: 5,
			RateBurst: 10,
		},
		Wallet: WalletConfig{
			QuoteAsset:       "USDT",
			TrendTopN:        5,
			TrendDefaultDays: 7,
			TrendMaxDays:     30,
			TradesLimit:      50,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// Load загружает конфигурацию: defaults, затем CONFIG_FILE (если задан), затем env
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	// Валидация критичных параметров безопасности
	if err := cfg.validateSecurity(); err != nil {
		return nil, err
	}

	// Валидация числовых диапазонов
	if err := cfg.validateRanges(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnvAsInt("SERVER_PORT", c.Server.Port)
	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	c.Server.UseHTTPS = getEnvAsBool("USE_HTTPS", c.Server.UseHTTPS)
	c.Server.CertFile = getEnv("CERT_FILE", c.Server.CertFile)
	c.Server.KeyFile = getEnv("KEY_FILE", c.Server.KeyFile)
	c.Server.ReadTimeout = getEnvAsDuration("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvAsDuration("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.ShutdownTimeout = getEnvAsDuration("SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	c.Server.AllowedOrigins = getEnvAsList("ALLOWED_ORIGINS", c.Server.AllowedOrigins)

	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnvAsInt("DB_PORT", c.Database.Port)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.SSLMode = getEnv("DB_SSL_MODE", c.Database.SSLMode)
	c.Database.MaxOpenConns = getEnvAsInt("DB_MAX_OPEN_CONNS", c.Database.MaxOpenConns)
	c.Database.AutoMigrate = getEnvAsBool("DB_AUTO_MIGRATE", c.Database.AutoMigrate)

	c.Security.EncryptionKey = getEnv("ENCRYPTION_KEY", c.Security.EncryptionKey)
	c.Security.APIToken = getEnv("API_TOKEN", c.Security.APIToken)

	c.Binance.BaseURL = getEnv("BINANCE_BASE_URL", c.Binance.BaseURL)
	c.Binance.RecvWindow = int64(getEnvAsInt("BINANCE_RECV_WINDOW", int(c.Binance.RecvWindow)))
	c.Binance.Timeout = getEnvAsDuration("BINANCE_TIMEOUT", c.Binance.Timeout)
	c.Binance.RateLimit = getEnvAsFloat("BINANCE_RATE_LIMIT", c.Binance.RateLimit)
	c.Binance.RateBurst = getEnvAsFloat("BINANCE_RATE_BURST", c.Binance.RateBurst)

	c.ThreeCommas.BaseURL = getEnv("THREECOMMAS_BASE_URL", c.ThreeCommas.BaseURL)
	c.ThreeCommas.APIKey = getEnv("THREECOMMAS_API_KEY", c.ThreeCommas.APIKey)
	c.ThreeCommas.APISecret = getEnv("THREECOMMAS_API_SECRET", c.ThreeCommas.APISecret)
	c.ThreeCommas.AccountID = int64(getEnvAsInt("THREECOMMAS_ACCOUNT_ID", int(c.ThreeCommas.AccountID)))
	c.ThreeCommas.Timeout = getEnvAsDuration("THREECOMMAS_TIMEOUT", c.ThreeCommas.Timeout)
	c.ThreeCommas.RateLimit = getEnvAsFloat("THREECOMMAS_RATE_LIMIT", c.ThreeCommas.RateLimit)
	c.ThreeCommas.RateBurst = getEnvAsFloat("THREECOMMAS_RATE_BURST", c.ThreeCommas.RateBurst)

	c.Wallet.QuoteAsset = strings.ToUpper(getEnv("WALLET_QUOTE_ASSET", c.Wallet.QuoteAsset))
	c.Wallet.TrendTopN = getEnvAsInt("WALLET_TREND_TOP_N", c.Wallet.TrendTopN)
	c.Wallet.TrendDefaultDays = getEnvAsInt("WALLET_TREND_DEFAULT_DAYS", c.Wallet.TrendDefaultDays)
	c.Wallet.TrendMaxDays = getEnvAsInt("WALLET_TREND_MAX_DAYS", c.Wallet.TrendMaxDays)
	c.Wallet.TradesLimit = getEnvAsInt("WALLET_TRADES_LIMIT", c.Wallet.TradesLimit)

	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("LOG_FORMAT", c.Logging.Format)
	c.Logging.Output = getEnv("LOG_OUTPUT", c.Logging.Output)
}

// validateSecurity проверяет параметры безопасности
func (c *Config) validateSecurity() error {
	// ENCRYPTION_KEY обязателен для шифрования API ключей вендоров
	if c.Security.EncryptionKey == "" {
		return fmt.Errorf("ENCRYPTION_KEY is required for encrypting API keys")
	}

	if err := crypto.ValidateKey([]byte(c.Security.EncryptionKey)); err != nil {
		return fmt.Errorf("ENCRYPTION_KEY must be exactly %d bytes for AES-256", crypto.KeySize)
	}

	if c.Security.APIToken != "" && len(c.Security.APIToken) < 16 {
		return fmt.Errorf("API_TOKEN must be at least 16 characters when set")
	}

	// Половина пары ключей 3Commas - почти наверняка ошибка конфигурации
	if (c.ThreeCommas.APIKey == "") != (c.ThreeCommas.APISecret == "") {
		return fmt.Errorf("THREECOMMAS_API_KEY and THREECOMMAS_API_SECRET must be set together")
	}

	return nil
}

// validateRanges проверяет числовые диапазоны параметров
func (c *Config) validateRanges() error {
	// Валидация портов
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("DB_PORT must be between 1 and 65535, got %d", c.Database.Port)
	}

	// Таймауты запросов к вендорам должны быть ограничены
	if c.Binance.Timeout <= 0 || c.Binance.Timeout > 2*time.Minute {
		return fmt.Errorf("BINANCE_TIMEOUT must be in (0, 2m], got %v", c.Binance.Timeout)
	}

	if c.ThreeCommas.Timeout <= 0 || c.ThreeCommas.Timeout > 2*time.Minute {
		return fmt.Errorf("THREECOMMAS_TIMEOUT must be in (0, 2m], got %v", c.ThreeCommas.Timeout)
	}

	// Binance допускает recvWindow не больше 60000 мс
	if c.Binance.RecvWindow <= 0 || c.Binance.RecvWindow > 60000 {
		return fmt.Errorf("BINANCE_RECV_WINDOW must be between 1 and 60000, got %d", c.Binance.RecvWindow)
	}

	if c.Wallet.QuoteAsset == "" {
		return fmt.Errorf("WALLET_QUOTE_ASSET cannot be empty")
	}

	if c.Wallet.TrendTopN < 1 || c.Wallet.TrendTopN > 20 {
		return fmt.Errorf("WALLET_TREND_TOP_N must be between 1 and 20, got %d", c.Wallet.TrendTopN)
	}

	if c.Wallet.TrendMaxDays < 1 || c.Wallet.TrendMaxDays > 365 {
		return fmt.Errorf("WALLET_TREND_MAX_DAYS must be between 1 and 365, got %d", c.Wallet.TrendMaxDays)
	}

	if c.Wallet.TrendDefaultDays < 1 || c.Wallet.TrendDefaultDays > c.Wallet.TrendMaxDays {
		return fmt.Errorf("WALLET_TREND_DEFAULT_DAYS must be between 1 and %d, got %d",
			c.Wallet.TrendMaxDays, c.Wallet.TrendDefaultDays)
	}

	// Binance myTrades принимает limit до 1000
	if c.Wallet.TradesLimit < 1 || c.Wallet.TradesLimit > 1000 {
		return fmt.Errorf("WALLET_TRADES_LIMIT must be between 1 and 1000, got %d", c.Wallet.TradesLimit)
	}

	return nil
}

// Addr возвращает адрес для net/http
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DSN возвращает строку подключения к базе данных
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// DSNWithoutPassword возвращает строку подключения без пароля (для логирования)
func (d DatabaseConfig) DSNWithoutPassword() string {
	return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Name, d.SSLMode)
}

// Вспомогательные функции для чтения переменных окружения

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
