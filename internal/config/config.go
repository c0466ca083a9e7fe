package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tendant/simple-idm-mfa/pkg/totp"
)

// Config holds application configuration.
type Config struct {
	// Server
	ServerAddr         string
	ServerPort         int
	MaxRequestBodySize int64

	// Database
	DBDriver   string // postgres, sqlite or memory
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// Sessions
	SessionBackend string // memory, redis or sql
	RedisURL       string
	SessionTTL     time.Duration
	CookieSecure   bool

	// MFA
	MFAIssuer        string
	MFAEncryptionKey string // optional, 64 hex chars
	TOTP             TOTPConfig

	// Optional account created at startup
	SeedUsername string
	SeedPassword string

	RateLimit       RateLimitConfig
	SecurityHeaders SecurityHeadersConfig
	PasswordPolicy  PasswordPolicyConfig
}

// TOTPConfig holds one-time code parameters.
type TOTPConfig struct {
	Digits    int
	Period    int
	Skew      int
	Algorithm string
}

// RateLimitConfig limits login and registration attempts per client IP.
type RateLimitConfig struct {
	Enabled      bool
	AuthRequests int
	AuthWindow   time.Duration
}

// SecurityHeadersConfig holds response security header values. Empty values
// are not sent.
type SecurityHeadersConfig struct {
	Enabled            bool
	CSP                string
	HSTSMaxAge         int
	FrameOptions       string
	ContentTypeOptions string
	XSSProtection      string
	ReferrerPolicy     string
	PermissionsPolicy  string
}

// PasswordPolicyConfig holds registration password requirements.
type PasswordPolicyConfig struct {
	MinLength        int
	MaxLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireNumber    bool
	RequireSpecial   bool
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		// Server defaults
		ServerAddr:         getEnv("SERVER_ADDR", "0.0.0.0"),
		ServerPort:         getEnvInt("SERVER_PORT", 8080),
		MaxRequestBodySize: int64(getEnvInt("MAX_REQUEST_BODY_SIZE", 1<<20)),

		// Database defaults: a local SQLite file
		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnvInt("DB_PORT", 25432),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "simple_idm_mfa"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "simple-idm-mfa.db"),

		SessionBackend: strings.ToLower(getEnv("SESSION_BACKEND", "memory")),
		RedisURL:       getEnv("REDIS_URL", ""),
		SessionTTL:     getEnvDuration("SESSION_TTL", 12*time.Hour),
		CookieSecure:   getEnvBool("COOKIE_SECURE", false),

		MFAIssuer:        getEnv("MFA_ISSUER", "Simple IDM"),
		MFAEncryptionKey: getEnv("MFA_ENCRYPTION_KEY", ""),
		TOTP: TOTPConfig{
			Digits:    getEnvInt("TOTP_DIGITS", totp.DefaultDigits),
			Period:    getEnvInt("TOTP_PERIOD", totp.DefaultPeriod),
			Skew:      getEnvInt("TOTP_SKEW", totp.DefaultSkew),
			Algorithm: getEnv("TOTP_ALGORITHM", string(totp.DefaultAlgorithm)),
		},

		SeedUsername: getEnv("SEED_USERNAME", ""),
		SeedPassword: getEnv("SEED_PASSWORD", ""),

		RateLimit: RateLimitConfig{
			Enabled:      getEnvBool("RATE_LIMIT_ENABLED", true),
			AuthRequests: getEnvInt("AUTH_RATE_LIMIT_REQUESTS", 10),
			AuthWindow:   getEnvDuration("AUTH_RATE_LIMIT_WINDOW", time.Minute),
		},

		SecurityHeaders: SecurityHeadersConfig{
			Enabled:            getEnvBool("SECURITY_HEADERS_ENABLED", true),
			CSP:                getEnv("SECURITY_CSP", "default-src 'none'; img-src data:; frame-ancestors 'none'"),
			HSTSMaxAge:         getEnvInt("SECURITY_HSTS_MAX_AGE", 0),
			FrameOptions:       getEnv("SECURITY_FRAME_OPTIONS", "DENY"),
			ContentTypeOptions: getEnv("SECURITY_CONTENT_TYPE_OPTIONS", "nosniff"),
			XSSProtection:      getEnv("SECURITY_XSS_PROTECTION", "0"),
			ReferrerPolicy:     getEnv("SECURITY_REFERRER_POLICY", "no-referrer"),
			PermissionsPolicy:  getEnv("SECURITY_PERMISSIONS_POLICY", ""),
		},

		PasswordPolicy: PasswordPolicyConfig{
			MinLength:        getEnvInt("PASSWORD_MIN_LENGTH", 8),
			MaxLength:        getEnvInt("PASSWORD_MAX_LENGTH", 128),
			RequireUppercase: getEnvBool("PASSWORD_REQUIRE_UPPERCASE", false),
			RequireLowercase: getEnvBool("PASSWORD_REQUIRE_LOWERCASE", false),
			RequireNumber:    getEnvBool("PASSWORD_REQUIRE_NUMBER", false),
			RequireSpecial:   getEnvBool("PASSWORD_REQUIRE_SPECIAL", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail at first use.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite", "memory":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres, sqlite or memory, got %q", c.DBDriver)
	}

	switch c.SessionBackend {
	case "memory":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when SESSION_BACKEND=redis")
		}
	case "sql":
		if c.DBDriver == "memory" {
			return fmt.Errorf("SESSION_BACKEND=sql requires a SQL DB_DRIVER")
		}
	default:
		return fmt.Errorf("SESSION_BACKEND must be memory, redis or sql, got %q", c.SessionBackend)
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}

	if c.RateLimit.Enabled && (c.RateLimit.AuthRequests <= 0 || c.RateLimit.AuthWindow <= 0) {
		return fmt.Errorf("AUTH_RATE_LIMIT_REQUESTS and AUTH_RATE_LIMIT_WINDOW must be positive when rate limiting is enabled")
	}

	if c.MFAEncryptionKey != "" {
		if _, err := c.EncryptionKey(); err != nil {
			return err
		}
	}
	if strings.Contains(c.MFAIssuer, ":") {
		return fmt.Errorf("MFA_ISSUER must not contain ':'")
	}

	if c.TOTP.Period <= 0 {
		return fmt.Errorf("TOTP_PERIOD must be positive")
	}
	if _, err := totp.ParseAlgorithm(c.TOTP.Algorithm); err != nil {
		return fmt.Errorf("TOTP_ALGORITHM: %w", err)
	}
	if err := c.TOTPConfig().Validate(); err != nil {
		return fmt.Errorf("TOTP settings: %w", err)
	}

	if (c.SeedUsername == "") != (c.SeedPassword == "") {
		return fmt.Errorf("SEED_USERNAME and SEED_PASSWORD must be set together")
	}
	return nil
}

// TOTPConfig returns the engine configuration.
func (c *Config) TOTPConfig() totp.Config {
	alg, _ := totp.ParseAlgorithm(c.TOTP.Algorithm)
	return totp.Config{
		Digits:    c.TOTP.Digits,
		Period:    c.TOTP.Period,
		Skew:      c.TOTP.Skew,
		Algorithm: alg,
	}
}

// EncryptionKey decodes MFA_ENCRYPTION_KEY. It returns nil when unset.
func (c *Config) EncryptionKey() ([]byte, error) {
	if c.MFAEncryptionKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.MFAEncryptionKey)
	if err != nil || len(key) != 32 {
		return nil, fmt.Errorf("MFA_ENCRYPTION_KEY must be 64-char hex (32 bytes)")
	}
	return key, nil
}

// HasSeedUser returns true if a startup account is configured.
func (c *Config) HasSeedUser() bool {
	return c.SeedUsername != "" && c.SeedPassword != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
