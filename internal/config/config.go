package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// メール送信プロバイダ
const (
	EmailProviderResend   = "resend"
	EmailProviderSendGrid = "sendgrid"
	EmailProviderLog      = "log"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Email
	EmailProvider string
	EmailAPIKey   string
	EmailFrom     string

	// Rate Limit（req/min/client）
	RateLimitGeneral   int
	RateLimitSubscribe int

	// Logging
	LogLevel string

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合、またはメール送信プロバイダが不明な場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.EmailProvider = strings.ToLower(getEnvString("EMAIL_PROVIDER", EmailProviderResend))
	switch cfg.EmailProvider {
	case EmailProviderResend, EmailProviderSendGrid, EmailProviderLog:
	default:
		return nil, fmt.Errorf("unsupported EMAIL_PROVIDER %q (want resend, sendgrid or log)", cfg.EmailProvider)
	}

	// logプロバイダ以外はAPIキーが必要
	cfg.EmailAPIKey = os.Getenv("EMAIL_API_KEY")
	if cfg.EmailAPIKey == "" && cfg.EmailProvider != EmailProviderLog {
		missing = append(missing, "EMAIL_API_KEY")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.EmailFrom = getEnvString("EMAIL_FROM", "Bulletin <onboarding@resend.dev>")
	cfg.RateLimitGeneral = getEnvPositiveInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitSubscribe = getEnvPositiveInt("RATE_LIMIT_SUBSCRIBE", 10)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// getEnvPositiveInt は正の整数として解釈できない値をデフォルト値として扱う。
func getEnvPositiveInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		return defaultVal
	}
	return i
}
