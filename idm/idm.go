// Package idm provides embeddable password login with an optional TOTP
// second factor.
//
// Basic usage:
//
//	auth, err := idm.New(idm.Config{Issuer: "My App"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer auth.Close()
//
//	mux := http.NewServeMux()
//	mux.Handle("/", auth.Handler())
//	mux.Handle("/reports", auth.RequireMFA()(reportsHandler))
//
// With a database (run migrations first, or set AutoMigrate):
//
//	db, _ := repository.NewDB(repository.Config{Driver: repository.DialectSQLite, SQLitePath: "idm.db"})
//	auth, err := idm.New(idm.Config{DB: db, AutoMigrate: true})
package idm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/tendant/simple-idm-mfa/internal/config"
	httpserver "github.com/tendant/simple-idm-mfa/internal/http"
	"github.com/tendant/simple-idm-mfa/internal/http/middleware"
	"github.com/tendant/simple-idm-mfa/internal/httputil"
	"github.com/tendant/simple-idm-mfa/pkg/auth"
	"github.com/tendant/simple-idm-mfa/pkg/repository"
	"github.com/tendant/simple-idm-mfa/pkg/session"
	"github.com/tendant/simple-idm-mfa/pkg/totp"
)

// Config holds the configuration for the IDM library.
type Config struct {
	// DB stores accounts. Nil keeps them in memory.
	DB *repository.DB

	// AutoMigrate applies the embedded migrations to DB in New.
	AutoMigrate bool

	// Sessions stores per-session authentication state
	// (default: in memory, expiring after SessionTTL).
	Sessions session.Store

	// SessionTTL is the idle lifetime of a session (default: 12 hours).
	SessionTTL time.Duration

	// Issuer is shown in authenticator apps (default: "Simple IDM").
	Issuer string

	// TOTP sets digits, period, skew and algorithm (default: 6 digits,
	// 30 seconds, one step of skew, SHA1).
	TOTP totp.Config

	// EncryptionKey seals stored TOTP secrets with AES-256-GCM when set.
	// Must be 32 bytes.
	EncryptionKey []byte

	// PasswordPolicy applies at registration (default: 8 characters minimum).
	PasswordPolicy *auth.PasswordPolicy

	// AuthRateLimit caps login and registration requests per client IP
	// within AuthRateWindow. Zero disables the limit.
	AuthRateLimit  int
	AuthRateWindow time.Duration

	// CookieSecure marks the session cookie Secure. Set it behind HTTPS.
	CookieSecure bool

	// SecurityHeaders are added to every response when Enabled.
	SecurityHeaders config.SecurityHeadersConfig

	// MaxRequestBodySize caps request bodies (default: 1 MiB).
	MaxRequestBodySize int64

	// Logger is the structured logger (default: JSON to stdout).
	Logger *slog.Logger
}

// IDM is the main identity management instance.
type IDM struct {
	config          Config
	users           auth.UserStore
	ownedSessions   *session.MemoryStore
	passwordService *auth.PasswordService
	mfaService      *auth.MFAService
}

// New creates a new IDM instance with the given configuration.
// Returns an error if DB lacks the required tables and AutoMigrate is off.
func New(cfg Config) (*IDM, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	var users auth.UserStore
	if cfg.DB != nil {
		if cfg.AutoMigrate {
			if err := cfg.DB.Migrate(); err != nil {
				return nil, fmt.Errorf("idm: %w", err)
			}
		}
		if err := validateSchema(cfg.DB); err != nil {
			return nil, err
		}
		users = repository.NewUsersRepository(cfg.DB)
	} else {
		users = repository.NewMemoryUsersRepository()
	}

	i := &IDM{config: cfg, users: users}

	if cfg.Sessions == nil {
		i.ownedSessions = session.NewMemoryStore(cfg.SessionTTL, time.Minute)
		cfg.Sessions = i.ownedSessions
	}

	var codec auth.SecretCodec = auth.PlainSecretCodec{}
	if len(cfg.EncryptionKey) > 0 {
		sealed, err := auth.NewAESGCMSecretCodec(cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("idm: %w", err)
		}
		codec = sealed
	}

	i.passwordService = auth.NewPasswordService(users, cfg.PasswordPolicy)
	i.mfaService = auth.NewMFAService(auth.MFAConfig{
		Issuer: cfg.Issuer,
		TOTP:   cfg.TOTP,
		Codec:  codec,
	}, users, cfg.Sessions, cfg.Logger)
	i.config = cfg

	return i, nil
}

// Handler returns the login, challenge, MFA management and profile routes:
//
//	POST /v1/auth/register        - Create an account (MFA off)
//	POST /v1/auth/login           - Check the password, start a session
//	GET  /v1/auth/mfa/challenge   - Is a TOTP code expected?
//	POST /v1/auth/mfa/challenge   - Submit a TOTP code
//	POST /v1/auth/logout          - Destroy the session
//	GET  /v1/me                   - Current user (fully authenticated)
//	GET  /v1/me/mfa/status        - MFA flag (fully authenticated)
//	POST /v1/me/mfa/enroll        - New secret, URI and QR (fully authenticated)
//	POST /v1/me/mfa/disable       - Turn MFA off (fully authenticated)
//	GET  /health
func (i *IDM) Handler() http.Handler {
	return httpserver.NewRouter(httpserver.RouterConfig{
		Logger:          i.config.Logger,
		PasswordService: i.passwordService,
		MFAService:      i.mfaService,
		RateLimitConfig: config.RateLimitConfig{
			Enabled:      i.config.AuthRateLimit > 0,
			AuthRequests: i.config.AuthRateLimit,
			AuthWindow:   i.config.AuthRateWindow,
		},
		SecurityHeaders:    i.config.SecurityHeaders,
		MaxRequestBodySize: i.config.MaxRequestBodySize,
		Cookie:             i.cookieConfig(),
	})
}

// RequireMFA returns middleware that admits only fully authenticated
// sessions. Use it to protect your own routes:
//
//	mux.Handle("/reports", auth.RequireMFA()(reportsHandler))
func (i *IDM) RequireMFA() func(http.Handler) http.Handler {
	load := middleware.Session(i.mfaService, i.config.Logger)
	gate := middleware.RequireFullyAuthenticated()
	return func(next http.Handler) http.Handler {
		return load(gate(next))
	}
}

// GetUsername returns the signed-in username. Use after RequireMFA:
//
//	username, ok := idm.GetUsername(r)
func GetUsername(r *http.Request) (string, bool) {
	state := middleware.GetAuthState(r.Context())
	if !state.IsFullyAuthenticated() {
		return "", false
	}
	return state.PrimaryUser, true
}

// EnsureUser creates the account unless the username is already taken.
// It reports whether an account was created.
func (i *IDM) EnsureUser(ctx context.Context, username, password string) (bool, error) {
	return i.passwordService.EnsureUser(ctx, username, password)
}

// PasswordService returns the password service for advanced usage.
func (i *IDM) PasswordService() *auth.PasswordService {
	return i.passwordService
}

// MFAService returns the MFA state machine for advanced usage.
func (i *IDM) MFAService() *auth.MFAService {
	return i.mfaService
}

// Close stops background work owned by the instance. It does not close DB
// or a caller-supplied session store.
func (i *IDM) Close() error {
	if i.ownedSessions != nil {
		return i.ownedSessions.Close()
	}
	return nil
}

func (i *IDM) cookieConfig() httputil.CookieConfig {
	cookie := httputil.DefaultCookieConfig()
	cookie.Secure = i.config.CookieSecure
	cookie.TTL = i.config.SessionTTL
	return cookie
}

func validateConfig(cfg *Config) error {
	if len(cfg.EncryptionKey) > 0 && len(cfg.EncryptionKey) != 32 {
		return errors.New("idm: EncryptionKey must be 32 bytes")
	}
	if cfg.TOTP != (totp.Config{}) {
		if err := cfg.TOTP.Validate(); err != nil {
			return fmt.Errorf("idm: %w", err)
		}
	}
	if cfg.AuthRateLimit > 0 && cfg.AuthRateWindow <= 0 {
		return errors.New("idm: AuthRateWindow is required when AuthRateLimit is set")
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 12 * time.Hour
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "Simple IDM"
	}
	if cfg.TOTP == (totp.Config{}) {
		cfg.TOTP = totp.DefaultConfig()
	}
	if cfg.PasswordPolicy == nil {
		cfg.PasswordPolicy = &auth.PasswordPolicy{MinLength: 8, MaxLength: 128}
	}
	if cfg.MaxRequestBodySize == 0 {
		cfg.MaxRequestBodySize = 1 << 20
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
}

// validateSchema checks that required database tables exist.
func validateSchema(db *repository.DB) error {
	for _, table := range []string{"users"} {
		ok, err := db.HasTable(context.Background(), table)
		if err != nil {
			return fmt.Errorf("idm: failed to check schema: %w", err)
		}
		if !ok {
			return fmt.Errorf("idm: missing table '%s' - run migrations first or set AutoMigrate", table)
		}
	}
	return nil
}
