package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	AuthProviderLocal   = "local"
	AuthProviderCasdoor = "casdoor"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	DatabaseURL string
	RedisURL    string
	CacheTTL    time.Duration

	JWT          JWTConfig
	AuthProvider string // "local" or "casdoor"
	Casdoor      CasdoorConfig

	Kafka KafkaConfig
	Mail  MailConfig
	CORS  CORSConfig

	AdminSecretKey    string
	UnverifiedUserTTL time.Duration
	SweepInterval     time.Duration
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

// CasdoorConfig holds the configuration for the optional Casdoor token verifier
type CasdoorConfig struct {
	Endpoint     string
	ClientID     string
	ClientSecret string
	Cert         string
	Organization string
	Application  string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// CORSConfig lists the browser origins allowed to call the API. "*" allows
// any origin without credentials.
type CORSConfig struct {
	AllowedOrigins []string
	AllowedHeaders []string
	MaxAge         time.Duration
}

type MailConfig struct {
	Provider       string // "console" or "sendgrid"
	SendGridAPIKey string
	From           string
	AppName        string
}

// LoadConfig reads configuration from the environment. A .env file in the
// working directory is loaded first when present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
			Issuer: getEnv("JWT_ISSUER", "course-service"),
		},
		AuthProvider: strings.ToLower(getEnv("AUTH_PROVIDER", AuthProviderLocal)),
		Casdoor: CasdoorConfig{
			Endpoint:     os.Getenv("CASDOOR_ENDPOINT"),
			ClientID:     os.Getenv("CASDOOR_CLIENT_ID"),
			ClientSecret: os.Getenv("CASDOOR_CLIENT_SECRET"),
			Cert:         os.Getenv("CASDOOR_CERT"),
			Organization: os.Getenv("CASDOOR_ORGANIZATION"),
			Application:  os.Getenv("CASDOOR_APPLICATION"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getEnv("KAFKA_TOPIC", "course-service.events"),
		},
		Mail: MailConfig{
			Provider:       strings.ToLower(getEnv("MAIL_PROVIDER", "console")),
			SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
			From:           getEnv("MAIL_FROM", "no-reply@localhost"),
			AppName:        getEnv("APP_NAME", "Course Service"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
			AllowedHeaders: splitList(getEnv("CORS_ALLOWED_HEADERS", "Content-Type, Authorization, X-Request-ID")),
		},
		AdminSecretKey: os.Getenv("ADMIN_SECRET_KEY"),
	}

	var err error
	if cfg.JWT.TTL, err = getDuration("JWT_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = getDuration("CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.UnverifiedUserTTL, err = getDuration("UNVERIFIED_USER_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = getDuration("SWEEP_INTERVAL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.CORS.MaxAge, err = getDuration("CORS_MAX_AGE", 12*time.Hour); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.AuthProvider != AuthProviderLocal && c.AuthProvider != AuthProviderCasdoor {
		return fmt.Errorf("unsupported AUTH_PROVIDER %q", c.AuthProvider)
	}
	// tokens are still issued locally on login, even with casdoor verification enabled
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Mail.Provider == "sendgrid" && c.Mail.SendGridAPIKey == "" {
		return fmt.Errorf("SENDGRID_API_KEY is required when MAIL_PROVIDER=sendgrid")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
