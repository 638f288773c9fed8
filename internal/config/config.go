package config

import (
	"log/slog"
	"os"
	"strconv"
)

// Config содержит конфигурацию приложения
type Config struct {
	Port      string
	DBPath    string
	WebDir    string
	JWTSecret string

	// Deriv API
	DerivWSURL string // endpoint realtime API
	DerivAppID string // фиксированный application id

	// Telegram уведомления (опционально)
	TelegramToken  string
	TelegramChatID int64
}

// Load загружает конфигурацию из переменных окружения
func Load(logger *slog.Logger) *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./web_deriv.db"
	}

	webDir := os.Getenv("WEB_DIR")
	if webDir == "" {
		webDir = "./web/"
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "default-secret-change-me-in-production" // В продакшене использовать настоящий секрет!

		logger.Warn("⚠️  JWT_SECRET not set, using default (insecure!)")
	}

	derivWSURL := os.Getenv("DERIV_WS_URL")
	if derivWSURL == "" {
		derivWSURL = "wss://ws.binaryws.com/websockets/v3"
	}

	derivAppID := os.Getenv("DERIV_APP_ID")
	if derivAppID == "" {
		derivAppID = "1089"

		logger.Warn("⚠️  DERIV_APP_ID not set, using public test app id")
	}

	telegramToken := os.Getenv("TELEGRAM_BOT_TOKEN")

	var telegramChatID int64
	if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			logger.Error("❌ Invalid TELEGRAM_CHAT_ID", slog.String("value", raw))
			os.Exit(1)
		}

		telegramChatID = id
	}

	if telegramToken != "" && telegramChatID != 0 {
		logger.Info("🔔 Telegram notifications enabled")
	} else {
		logger.Info("Telegram notifications disabled")
	}

	return &Config{
		Port:           port,
		DBPath:         dbPath,
		WebDir:         webDir,
		JWTSecret:      jwtSecret,
		DerivWSURL:     derivWSURL,
		DerivAppID:     derivAppID,
		TelegramToken:  telegramToken,
		TelegramChatID: telegramChatID,
	}
}
