package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tendant/simple-idm-mfa/idm"
	"github.com/tendant/simple-idm-mfa/internal/config"
	"github.com/tendant/simple-idm-mfa/pkg/auth"
	"github.com/tendant/simple-idm-mfa/pkg/repository"
	"github.com/tendant/simple-idm-mfa/pkg/session"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	var db *repository.DB
	if cfg.DBDriver != "memory" {
		db, err = repository.NewDB(repository.Config{
			Driver:     repository.Dialect(cfg.DBDriver),
			Host:       cfg.DBHost,
			Port:       cfg.DBPort,
			User:       cfg.DBUser,
			Password:   cfg.DBPassword,
			DBName:     cfg.DBName,
			SSLMode:    cfg.DBSSLMode,
			SQLitePath: cfg.SQLitePath,
		})
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.Migrate(); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		logger.Info("connected to database", "driver", cfg.DBDriver)
	} else {
		logger.Warn("using in-memory account store; accounts are lost on restart")
	}

	// Session state backend
	var sessions session.Store
	switch cfg.SessionBackend {
	case "redis":
		client, err := session.Connect(ctx, cfg.RedisURL, 5, 2*time.Second)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		sessions = session.NewRedisStore(client, cfg.SessionTTL)
	case "sql":
		repo := repository.NewSessionsRepository(db, cfg.SessionTTL)
		go purgeExpiredSessions(ctx, repo, logger)
		sessions = repo
	}
	logger.Info("session backend ready", "backend", cfg.SessionBackend)

	encryptionKey, err := cfg.EncryptionKey()
	if err != nil {
		logger.Error("invalid MFA encryption key", "error", err)
		os.Exit(1)
	}
	if encryptionKey == nil {
		logger.Warn("MFA_ENCRYPTION_KEY not set; TOTP secrets are stored unencrypted")
	}

	instance, err := idm.New(idm.Config{
		DB:                 db,
		Sessions:           sessions,
		SessionTTL:         cfg.SessionTTL,
		Issuer:             cfg.MFAIssuer,
		TOTP:               cfg.TOTPConfig(),
		EncryptionKey:      encryptionKey,
		PasswordPolicy:     auth.NewPasswordPolicy(cfg.PasswordPolicy),
		AuthRateLimit:      rateLimit(cfg.RateLimit),
		AuthRateWindow:     cfg.RateLimit.AuthWindow,
		CookieSecure:       cfg.CookieSecure,
		SecurityHeaders:    cfg.SecurityHeaders,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		Logger:             logger,
	})
	if err != nil {
		logger.Error("failed to initialize identity service", "error", err)
		os.Exit(1)
	}
	defer instance.Close()

	if cfg.HasSeedUser() {
		created, err := instance.EnsureUser(ctx, cfg.SeedUsername, cfg.SeedPassword)
		if err != nil {
			logger.Error("failed to create seed account", "error", err)
			os.Exit(1)
		}
		if created {
			logger.Info("seed account created", "username", cfg.SeedUsername)
		}
	}

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.ServerAddr, cfg.ServerPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      instance.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()
	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}

func rateLimit(cfg config.RateLimitConfig) int {
	if !cfg.Enabled {
		return 0
	}
	return cfg.AuthRequests
}

// purgeExpiredSessions deletes expired session rows until ctx is done.
func purgeExpiredSessions(ctx context.Context, repo *repository.SessionsRepository, logger *slog.Logger) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.DeleteExpired(ctx)
			if err != nil {
				logger.Error("failed to purge expired sessions", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("purged expired sessions", "count", n)
			}
		}
	}
}
