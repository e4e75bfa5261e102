package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Telegram accepts 1-256 characters from this set for a webhook secret_token.
var webhookSecretPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,256}$`)

var defaultCORSOrigins = []string{
	"http://localhost",
	"http://localhost:3000",
	"http://localhost:5173",
	"http://localhost:5137",
}

// Config holds the configuration for the application.
type Config struct {
	DatabasePath string
	Port         string
	LogMode      string

	JWTSecretKey   string
	AccessTokenTTL time.Duration

	CORSAllowedOrigins []string

	// LLM Config (optional, enables ingredient parsing on import)
	GeminiAPIKey string
	GeminiModel  string
	GroqAPIKey   string
	GroqModel    string

	// Ghost Config (optional, source for bulk catalog import)
	GhostURL        string
	GhostContentKey string

	// Telegram Config (optional)
	TelegramBotToken      string
	TelegramWebhookURL    string
	TelegramWebhookSecret string
	TelegramAllowUserID   int64
	TelegramUserEmail     string
}

// NewFromEnv creates a new Config object from environment variables.
// A .env file in the working directory is loaded first when present.
func NewFromEnv() (*Config, error) {
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET_KEY")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable not set")
	}

	ttlMinutes, err := intFromEnv("ACCESS_TOKEN_TTL", 30)
	if err != nil {
		return nil, err
	}

	var allowUserID int64
	if raw := os.Getenv("TELEGRAM_ALLOW_USER_ID"); raw != "" {
		allowUserID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_ALLOW_USER_ID must be an integer: %w", err)
		}
	}

	webhookSecret := os.Getenv("TELEGRAM_WEBHOOK_SECRET")
	if os.Getenv("TELEGRAM_BOT_TOKEN") != "" && !webhookSecretPattern.MatchString(webhookSecret) {
		return nil, fmt.Errorf("TELEGRAM_WEBHOOK_SECRET must be 1-256 characters of A-Z, a-z, 0-9, _ or -")
	}

	origins := defaultCORSOrigins
	if raw := os.Getenv("CORS_ALLOWED_ORIGINS"); raw != "" {
		origins = splitList(raw)
	}

	return &Config{
		DatabasePath:        stringFromEnv("DATABASE_PATH", "data/mealplanr.db"),
		Port:                stringFromEnv("PORT", "8080"),
		LogMode:             stringFromEnv("LOG_MODE", "dev"),
		JWTSecretKey:        jwtSecret,
		AccessTokenTTL:      time.Duration(ttlMinutes) * time.Minute,
		CORSAllowedOrigins:  origins,
		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		GeminiModel:         stringFromEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GroqAPIKey:          os.Getenv("GROQ_API_KEY"),
		GroqModel:           stringFromEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
		GhostURL:            os.Getenv("GHOST_URL"),
		GhostContentKey:     os.Getenv("GHOST_CONTENT_KEY"),
		TelegramBotToken:      os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL:    os.Getenv("TELEGRAM_WEBHOOK_URL"),
		TelegramWebhookSecret: webhookSecret,
		TelegramAllowUserID:   allowUserID,
		TelegramUserEmail:     os.Getenv("TELEGRAM_USER_EMAIL"),
	}, nil
}

// LLMEnabled reports whether any text generation provider is configured.
func (c *Config) LLMEnabled() bool {
	return c.GeminiAPIKey != "" || c.GroqAPIKey != ""
}

// TelegramEnabled reports whether the bot front-end should be started.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != ""
}

func stringFromEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intFromEnv(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	if i <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, i)
	}
	return i, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
