package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	LedgerBackendPostgres = "postgres"
	LedgerBackendRedis    = "redis"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Auth     AuthConfig
	Lockout  LockoutConfig
	Redis    RedisConfig
	Email    EmailConfig
	Events   EventsConfig
	Sentry   SentryConfig
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	AutoMigrate       bool
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	// AuthRequestsPerMinute throttles /api/auth/login and /api/auth/register per client IP.
	AuthRequestsPerMinute int
	// TrustedProxies are CIDR ranges whose X-Forwarded-For is believed.
	TrustedProxies []string
}

type AuthConfig struct {
	JWTSecret           string
	SessionExpiry       time.Duration
	CookieDomain        string
	TimingDelayBaseMs   int
	TimingDelayRandomMs int
}

type LockoutConfig struct {
	Backend         string // "postgres" or "redis"
	MaxAttempts     int
	LockoutDuration time.Duration
	WriteTimeout    time.Duration
}

type RedisConfig struct {
	URL       string
	KeyPrefix string
}

type EmailConfig struct {
	AWSRegion   string
	FromAddress string
}

// Enabled reports whether lockout notices should be sent.
func (c EmailConfig) Enabled() bool {
	return c.AWSRegion != "" && c.FromAddress != ""
}

type EventsConfig struct {
	AMQPURL  string
	Exchange string
}

type SentryConfig struct {
	DSN string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "shiftbook"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
			AutoMigrate:       getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Server: ServerConfig{
			Port:                  getEnv("PORT", "8080"),
			Env:                   env,
			LogLevel:              getEnv("LOG_LEVEL", "info"),
			AllowedOrigins:        parseAllowedOrigins(env),
			ReadTimeout:           getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:          getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:           getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			AuthRequestsPerMinute: getEnvAsInt("AUTH_REQUESTS_PER_MINUTE", 20),
			TrustedProxies:        getEnvAsList("TRUSTED_PROXIES"),
		},
		Auth: AuthConfig{
			JWTSecret:           jwtSecret,
			SessionExpiry:       getEnvAsDuration("SESSION_EXPIRY", 7*24*time.Hour),
			CookieDomain:        getEnv("COOKIE_DOMAIN", ""),
			TimingDelayBaseMs:   getEnvAsInt("TIMING_DELAY_BASE_MS", 100),
			TimingDelayRandomMs: getEnvAsInt("TIMING_DELAY_RANDOM_MS", 50),
		},
		Lockout: LockoutConfig{
			Backend:         strings.ToLower(getEnv("LEDGER_BACKEND", LedgerBackendPostgres)),
			MaxAttempts:     getEnvAsInt("LOCKOUT_MAX_ATTEMPTS", 6),
			LockoutDuration: getEnvAsDuration("LOCKOUT_DURATION", 10*time.Minute),
			WriteTimeout:    getEnvAsDuration("LOCKOUT_WRITE_TIMEOUT", 5*time.Second),
		},
		Redis: RedisConfig{
			URL:       getEnv("REDIS_URL", ""),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "shiftbook:login_attempts"),
		},
		Email: EmailConfig{
			AWSRegion:   getEnv("AWS_REGION", ""),
			FromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),
		},
		Events: EventsConfig{
			AMQPURL:  getEnv("AMQP_URL", ""),
			Exchange: getEnv("EVENTS_EXCHANGE", "shiftbook.auth"),
		},
		Sentry: SentryConfig{
			DSN: getEnv("SENTRY_DSN", ""),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	// Validate JWT secret strength
	if err := validateJWTSecret(jwtSecret, env); err != nil {
		return nil, err
	}

	if err := validateLockout(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction reports whether cookies must be marked Secure.
func (c *ServerConfig) IsProduction() bool {
	return c.Env == "production"
}

// validateJWTSecret enforces minimum security standards for JWT secret
func validateJWTSecret(secret, env string) error {
	// Minimum length based on environment
	minLength := 16 // Development minimum
	if env == "production" {
		minLength = 32 // Production requires stronger secret (256 bits)
	}

	if len(secret) < minLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	// Check against common weak secrets
	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("JWT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func validateLockout(cfg *Config) error {
	switch cfg.Lockout.Backend {
	case LedgerBackendPostgres:
	case LedgerBackendRedis:
		if cfg.Redis.URL == "" {
			return fmt.Errorf("REDIS_URL is required when LEDGER_BACKEND=redis")
		}
	default:
		return fmt.Errorf("LEDGER_BACKEND must be %q or %q (got %q)",
			LedgerBackendPostgres, LedgerBackendRedis, cfg.Lockout.Backend)
	}

	if cfg.Lockout.MaxAttempts < 1 {
		return fmt.Errorf("LOCKOUT_MAX_ATTEMPTS must be at least 1")
	}
	if cfg.Lockout.LockoutDuration <= 0 {
		return fmt.Errorf("LOCKOUT_DURATION must be positive")
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func getEnvAsList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		originsStr := getEnv("ALLOWED_ORIGINS", "")
		if originsStr == "" {
			return []string{} // Default to no origins in production
		}
		origins := strings.Split(originsStr, ",")
		for i, origin := range origins {
			origins[i] = strings.TrimSpace(origin)
		}
		return origins
	}

	// Development: allow localhost variants
	return []string{
		"http://localhost:3000",
		"http://localhost:8080",
		"http://localhost:5173", // Vite default
		"http://127.0.0.1:3000",
		"http://127.0.0.1:8080",
		"http://127.0.0.1:5173",
	}
}
