package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"dscatalog/internal/model"
)

const (
	RateLimitMemory = "memory"
	RateLimitRedis  = "redis"

	minJWTSecretBytes = 32
)

type Config struct {
	ServerPort              string
	ServerReadHeaderTimeout time.Duration
	ServerWriteTimeout      time.Duration
	ServerIdleTimeout       time.Duration
	RequestTimeout          time.Duration
	MetricsAddr             string
	DatabaseURL             string
	DBMaxConns              int32
	DBMinConns              int32
	JWTSecret               string
	OAuthClientID           string
	OAuthClientSecret       string
	OAuthClientSecretHash   string
	OAuthClientScopes       []string
	TokenTTLSeconds         int
	BcryptCost              int
	CORSOrigins             []string
	RateLimitBackend        string
	RedisURL                string
	RateLimitRPM            int
	AuthRateLimitRPM        int
	LogFormat               string
	LogLevel                string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:              getEnv("SERVER_PORT", "8080"),
		ServerReadHeaderTimeout: getDuration("SERVER_READ_HEADER_TIMEOUT", 10*time.Second),
		ServerWriteTimeout:      getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ServerIdleTimeout:       getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:          getDuration("REQUEST_TIMEOUT", 30*time.Second),
		MetricsAddr:             getEnv("METRICS_ADDR", ":9090"),
		DatabaseURL:             strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:              int32(getInt("DB_MAX_CONNS", 10)),
		DBMinConns:              int32(getInt("DB_MIN_CONNS", 2)),
		JWTSecret:               strings.TrimSpace(os.Getenv("JWT_SECRET")),
		OAuthClientID:           getEnv("OAUTH_CLIENT_ID", "dscatalog"),
		OAuthClientSecret:       os.Getenv("OAUTH_CLIENT_SECRET"),
		OAuthClientSecretHash:   strings.TrimSpace(os.Getenv("OAUTH_CLIENT_SECRET_HASH")),
		OAuthClientScopes:       splitCSV(getEnv("OAUTH_CLIENT_SCOPES", "read,write")),
		TokenTTLSeconds:         getInt("TOKEN_TTL_SECONDS", 86400),
		BcryptCost:              getInt("BCRYPT_COST", 10),
		CORSOrigins:             splitCSV(getEnv("CORS_ORIGINS", "*")),
		RateLimitBackend:        strings.ToLower(getEnv("RATE_LIMIT_BACKEND", RateLimitMemory)),
		RedisURL:                strings.TrimSpace(os.Getenv("REDIS_URL")),
		RateLimitRPM:            getInt("RATE_LIMIT_RPM", 100),
		AuthRateLimitRPM:        getInt("AUTH_RATE_LIMIT_RPM", 10),
		LogFormat:               strings.ToLower(getEnv("LOG_FORMAT", "pretty")),
		LogLevel:                strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if len(c.JWTSecret) < minJWTSecretBytes {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes", minJWTSecretBytes)
	}

	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS (%d)", c.DBMaxConns)
	}

	if strings.TrimSpace(c.OAuthClientID) == "" {
		return fmt.Errorf("OAUTH_CLIENT_ID cannot be empty")
	}

	if c.OAuthClientSecret == "" && c.OAuthClientSecretHash == "" {
		return fmt.Errorf("one of OAUTH_CLIENT_SECRET or OAUTH_CLIENT_SECRET_HASH is required")
	}

	if c.OAuthClientSecretHash != "" {
		if _, err := bcrypt.Cost([]byte(c.OAuthClientSecretHash)); err != nil {
			return fmt.Errorf("OAUTH_CLIENT_SECRET_HASH is not a bcrypt hash: %w", err)
		}
	}

	if len(c.OAuthClientScopes) == 0 {
		return fmt.Errorf("OAUTH_CLIENT_SCOPES cannot be empty")
	}

	if c.TokenTTLSeconds <= 0 {
		return fmt.Errorf("TOKEN_TTL_SECONDS must be positive")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	switch c.RateLimitBackend {
	case RateLimitMemory:
	case RateLimitRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when RATE_LIMIT_BACKEND=redis")
		}
	default:
		return fmt.Errorf("RATE_LIMIT_BACKEND must be %q or %q", RateLimitMemory, RateLimitRedis)
	}

	return nil
}

// ClientRegistration builds the OAuth client from the configuration. A plain
// secret is hashed with hash; a supplied hash is used as is.
func (c *Config) ClientRegistration(hash func(string) (string, error)) (model.ClientRegistration, error) {
	secretHash := c.OAuthClientSecretHash
	if secretHash == "" {
		hashed, err := hash(c.OAuthClientSecret)
		if err != nil {
			return model.ClientRegistration{}, fmt.Errorf("hash client secret: %w", err)
		}
		secretHash = hashed
	}

	return model.ClientRegistration{
		ClientID:        c.OAuthClientID,
		SecretHash:      secretHash,
		AllowedScopes:   append([]string(nil), c.OAuthClientScopes...),
		GrantType:       model.GrantTypePassword,
		TokenTTLSeconds: c.TokenTTLSeconds,
	}, nil
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
