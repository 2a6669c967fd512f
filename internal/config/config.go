package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr    string
	PostgresDSN string
	LogLevel    string

	AdminAPIKey string
	ClientURL   string

	CodeTTLMinutes    int
	RewardAmount      float64
	MaxUploadBytes    int64
	EligibilityPolicy string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string

	SolanaRPCURL     string
	SolanaNetwork    string
	MintAddress      string
	TreasuryKeyPath  string
	TokenDecimals    int

	RateLimitRequests      int
	RateLimitWindowSeconds int
	RateLimitMaxKeys       int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:               addr,
		PostgresDSN:            os.Getenv("POSTGRES_DSN"),
		LogLevel:               envDefault("LOG_LEVEL", "info"),
		AdminAPIKey:            os.Getenv("ADMIN_API_KEY"),
		ClientURL:              envDefault("CLIENT_URL", "http://localhost:5173"),
		CodeTTLMinutes:         envIntDefault("CODE_TTL_MINUTES", 15),
		RewardAmount:           envFloatDefault("REWARD_AMOUNT", 8),
		MaxUploadBytes:         int64(envIntDefault("MAX_UPLOAD_MB", 15)) * 1024 * 1024,
		EligibilityPolicy:      os.Getenv("ELIGIBILITY_POLICY_PATH"),
		SMTPHost:               os.Getenv("SMTP_HOST"),
		SMTPPort:               envIntDefault("SMTP_PORT", 587),
		SMTPUser:               os.Getenv("SMTP_USER"),
		SMTPPassword:           os.Getenv("SMTP_PASSWORD"),
		MailFrom:               envDefault("MAIL_FROM", "noreply@solsign.app"),
		SolanaRPCURL:           envDefault("SOLANA_RPC_URL", "https://api.devnet.solana.com"),
		SolanaNetwork:          envDefault("SOLANA_NETWORK", "devnet"),
		MintAddress:            os.Getenv("SOLSIGN_MINT_ADDRESS"),
		TreasuryKeyPath:        os.Getenv("TREASURY_KEYPAIR_PATH"),
		TokenDecimals:          envIntDefault("TOKEN_DECIMALS", 9),
		RateLimitRequests:      envIntDefault("RATE_LIMIT_REQUESTS", 3),
		RateLimitWindowSeconds: envIntDefault("RATE_LIMIT_WINDOW_SECONDS", 900),
		RateLimitMaxKeys:       envIntDefault("RATE_LIMIT_MAX_KEYS", 10000),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		RedisDB:                envIntDefault("REDIS_DB", 0),
	}
}

func envDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func envFloatDefault(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func (c Config) CodeTTL() time.Duration {
	if c.CodeTTLMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(c.CodeTTLMinutes) * time.Minute
}

func (c Config) RateLimitWindow() time.Duration {
	if c.RateLimitWindowSeconds <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}
