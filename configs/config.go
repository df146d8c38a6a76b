package config

import (
	"log/slog"
	"os"
	"time"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type OpenAI struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

type Webhook struct {
	VerifyToken string
	AppSecret   string
}

type SeedAdmin struct {
	Username string
	Email    string
	Password string
}

type Config struct {
	Port          string
	PostgresURI   string
	RedisURI      string
	FrontendURL   string
	PublicURL     string
	SecretKey     string
	TokenTTL      time.Duration
	StorageDriver string
	UploadDir     string
	R2            R2
	OpenAI        OpenAI
	Webhook       Webhook
	SeedAdmin     SeedAdmin
}

func LoadConfig() *Config {
	return &Config{
		Port:          getEnv("PORT", "5000"),
		PostgresURI:   getEnv("POSTGRES_URI", ""),
		RedisURI:      getEnv("REDIS_URI", ""),
		FrontendURL:   getEnv("FRONTEND_URL", "http://localhost:5173"),
		PublicURL:     getEnv("PUBLIC_URL", "http://localhost:5000"),
		SecretKey:     getEnv("SECRET_KEY", ""),
		TokenTTL:      getDuration("TOKEN_TTL", 7*24*time.Hour),
		StorageDriver: getEnv("STORAGE_DRIVER", "local"),
		UploadDir:     getEnv("UPLOAD_DIR", "uploads"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
		OpenAI: OpenAI{
			APIKey:  getEnv("OPENAI_API_KEY", ""),
			BaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			Timeout: getDuration("AUTO_REPLY_TIMEOUT", 10*time.Second),
		},
		Webhook: Webhook{
			VerifyToken: getEnv("WEBHOOK_VERIFY_TOKEN", ""),
			AppSecret:   getEnv("WEBHOOK_APP_SECRET", ""),
		},
		SeedAdmin: SeedAdmin{
			Username: getEnv("SEED_ADMIN_USERNAME", "admin"),
			Email:    getEnv("SEED_ADMIN_EMAIL", ""),
			Password: getEnv("SEED_ADMIN_PASSWORD", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("invalid duration, using default", "key", key, "value", value)
		return defaultValue
	}
	return d
}
