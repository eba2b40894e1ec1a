package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Sentiment（Google Natural Language API）
	SentimentAPIURL  string
	SentimentAPIKey  string
	SentimentTimeout time.Duration

	// Chat（Gemini）
	GeminiAPIKey string
	ChatModel    string

	// Notifier（通知ゲートウェイ）
	NotifierURL     string
	NotifierTimeout time.Duration

	// Worker
	ResyncInterval      time.Duration
	ResyncMaxConcurrent int
	CleanupInterval     time.Duration

	// Upload
	MaxImageSize int64

	// Rate Limit（req/min）
	RateLimitGeneral int
	RateLimitChat    int

	// Server
	ServerPort string
	BaseURL    string

	// CORS
	CORSAllowedOrigin string
}

// defaultSentimentAPIURL はGoogle Natural Language APIのanalyzeSentimentエンドポイント。
const defaultSentimentAPIURL = "https://language.googleapis.com/v1/documents:analyzeSentiment"

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	cfg.SentimentAPIKey = os.Getenv("SENTIMENT_API_KEY")
	if cfg.SentimentAPIKey == "" {
		missing = append(missing, "SENTIMENT_API_KEY")
	}

	cfg.NotifierURL = os.Getenv("NOTIFIER_URL")
	if cfg.NotifierURL == "" {
		missing = append(missing, "NOTIFIER_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	// GEMINI_API_KEYは未設定を許容する（未設定ならチャット機能を無効化して起動する）
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.SentimentAPIURL = getEnvString("SENTIMENT_API_URL", defaultSentimentAPIURL)
	cfg.SentimentTimeout = getEnvDuration("SENTIMENT_TIMEOUT", 10*time.Second)
	cfg.ChatModel = getEnvString("CHAT_MODEL", "gemini-1.5-pro-latest")
	cfg.NotifierTimeout = getEnvDuration("NOTIFIER_TIMEOUT", 10*time.Second)
	cfg.ResyncInterval = getEnvDuration("RESYNC_INTERVAL", 10*time.Minute)
	cfg.ResyncMaxConcurrent = getEnvInt("RESYNC_MAX_CONCURRENT", 5)
	cfg.CleanupInterval = getEnvDuration("CLEANUP_INTERVAL", 24*time.Hour)
	cfg.MaxImageSize = getEnvInt64("MAX_IMAGE_SIZE", 5242880)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitChat = getEnvInt("RATE_LIMIT_CHAT", 20)
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

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
