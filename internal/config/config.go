package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database      DatabaseConfig
	Server        ServerConfig
	Auth          AuthConfig
	LoginAttempts LoginAttemptConfig
	Timing        TimingConfig
	Email         EmailConfig
	Observability ObservabilityConfig
	Portal        PortalConfig
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
	QueryTimeout      time.Duration
	MigrateOnStart    bool
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
	TrustedProxies []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
	LoginRateLimit int // requests per minute per IP
}

type AuthConfig struct {
	JWTSecret      string
	TokenTTL       time.Duration
	TokenIssuer    string
	TokenAudience  string
	TokenClockSkew time.Duration
}

type LoginAttemptConfig struct {
	MaxAttempts   int
	Window        time.Duration
	SweepInterval time.Duration
}

type TimingConfig struct {
	BaseDelay      time.Duration
	RandomDelay    time.Duration
	DelayOnSuccess bool
}

type EmailConfig struct {
	Enabled     bool
	AWSRegion   string
	FromAddress string
}

type ObservabilityConfig struct {
	SentryDSN string
}

type PortalConfig struct {
	BaseURL string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	env := getEnv("ENV", "development")
	port := getEnv("PORT", "8081")

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "supportportal"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
			QueryTimeout:      getEnvAsDuration("DB_QUERY_TIMEOUT", 3*time.Second),
			MigrateOnStart:    getEnvAsBool("DB_MIGRATE_ON_START", true),
		},
		Server: ServerConfig{
			Port:           port,
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
			TrustedProxies: parseList(getEnv("TRUSTED_PROXIES", "")),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", 10*time.Second),
			LoginRateLimit: getEnvAsInt("LOGIN_RATE_LIMIT_PER_MINUTE", 20),
		},
		Auth: AuthConfig{
			JWTSecret:      jwtSecret,
			TokenTTL:       getEnvAsDuration("TOKEN_TTL", 5*24*time.Hour),
			TokenIssuer:    getEnv("TOKEN_ISSUER", "Support Portal"),
			TokenAudience:  getEnv("TOKEN_AUDIENCE", "User Management Portal"),
			TokenClockSkew: getEnvAsDuration("TOKEN_CLOCK_SKEW", 0),
		},
		LoginAttempts: LoginAttemptConfig{
			MaxAttempts:   getEnvAsInt("LOGIN_MAX_ATTEMPTS", 5),
			Window:        getEnvAsDuration("LOGIN_ATTEMPT_WINDOW", 15*time.Minute),
			SweepInterval: getEnvAsDuration("LOGIN_ATTEMPT_SWEEP_INTERVAL", 1*time.Minute),
		},
		Timing: TimingConfig{
			BaseDelay:      time.Duration(getEnvAsInt("AUTH_DELAY_BASE_MS", 500)) * time.Millisecond,
			RandomDelay:    time.Duration(getEnvAsInt("AUTH_DELAY_RANDOM_MS", 250)) * time.Millisecond,
			DelayOnSuccess: getEnvAsBool("AUTH_DELAY_ON_SUCCESS", false),
		},
		Email: EmailConfig{
			Enabled:     getEnvAsBool("EMAIL_ENABLED", false),
			AWSRegion:   getEnv("AWS_REGION", "us-east-1"),
			FromAddress: getEnv("EMAIL_FROM", ""),
		},
		Observability: ObservabilityConfig{
			SentryDSN: getEnv("SENTRY_DSN", ""),
		},
		Portal: PortalConfig{
			BaseURL: getEnv("PORTAL_BASE_URL", "http://localhost:"+port),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	if err := validateJWTSecret(jwtSecret, env); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.LoginAttempts.MaxAttempts < 1 {
		return fmt.Errorf("LOGIN_MAX_ATTEMPTS must be at least 1 (got %d)", c.LoginAttempts.MaxAttempts)
	}
	if c.LoginAttempts.Window <= 0 {
		return fmt.Errorf("LOGIN_ATTEMPT_WINDOW must be positive")
	}
	if c.LoginAttempts.SweepInterval <= 0 {
		return fmt.Errorf("LOGIN_ATTEMPT_SWEEP_INTERVAL must be positive")
	}
	if c.Auth.TokenTTL < time.Second {
		return fmt.Errorf("TOKEN_TTL must be at least 1s (got %s)", c.Auth.TokenTTL)
	}
	if c.Auth.TokenClockSkew < 0 {
		return fmt.Errorf("TOKEN_CLOCK_SKEW cannot be negative")
	}
	if c.Timing.BaseDelay < 0 || c.Timing.RandomDelay < 0 {
		return fmt.Errorf("AUTH_DELAY_BASE_MS and AUTH_DELAY_RANDOM_MS cannot be negative")
	}
	if c.Email.Enabled && c.Email.FromAddress == "" {
		return fmt.Errorf("EMAIL_FROM is required when EMAIL_ENABLED is true")
	}
	return nil
}

// validateJWTSecret enforces minimum security standards for JWT secret
func validateJWTSecret(secret, env string) error {
	// HS512 keys should be at least 512 bits in production
	minLength := 16
	if env == "production" {
		minLength = 64
	}

	if len(secret) < minLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

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

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
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

func parseList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		return parseList(getEnv("ALLOWED_ORIGINS", ""))
	}

	if origins := parseList(getEnv("ALLOWED_ORIGINS", "")); len(origins) > 0 {
		return origins
	}

	// Development: the Angular dev server and local variants
	return []string{
		"http://localhost:4200",
		"http://127.0.0.1:4200",
		"http://localhost:3000",
	}
}
