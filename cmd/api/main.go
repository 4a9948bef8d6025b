package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mholloway/pennygate/internal/auth"
	"github.com/mholloway/pennygate/internal/background"
	"github.com/mholloway/pennygate/internal/clock"
	"github.com/mholloway/pennygate/internal/config"
	"github.com/mholloway/pennygate/internal/database"
	"github.com/mholloway/pennygate/internal/handlers"
	middlewareCustom "github.com/mholloway/pennygate/internal/middleware"
	"github.com/mholloway/pennygate/internal/models"
	"github.com/mholloway/pennygate/internal/repositories"
	"github.com/mholloway/pennygate/internal/routes"
	"github.com/mholloway/pennygate/internal/services"
	pkgauth "github.com/mholloway/pennygate/pkg/auth"
	pkghttp "github.com/mholloway/pennygate/pkg/http"
	pkglogger "github.com/mholloway/pennygate/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	if err := database.Migrate(&cfg.Database, logger); err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	banRepo := repositories.NewBanRepository(db)

	systemClock := clock.System()

	// Ban tracker and login service
	banTracker := services.NewBanTracker(banRepo, systemClock, cfg.Ban, logger)

	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelayMs:   cfg.Auth.TimingDelayBaseMs,
		RandomDelayMs: cfg.Auth.TimingDelayRandomMs,
	})

	auditLogger := pkglogger.NewAuditLogger(logger)
	loginService := services.NewLoginService(userRepo, banTracker, timingDelay, systemClock, logger, auditLogger)

	// Token manager
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)

	// Handlers
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	authHandler := handlers.NewAuthHandler(loginService, tokenManager, ipConfig)

	// Ban entry cleanup
	cleanupManager := background.NewCleanupManager(banRepo, cfg.Ban, systemClock, logger, cfg.Auth.CleanupInterval)

	// Bootstrap first user if configured
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureFirstUser(ctx, userRepo, logger); err != nil {
		logger.Error("failed to ensure first user", slog.Any("error", err))
	}
	cancel()

	// Setup router
	router := chi.NewRouter()
	// No middleware.RealIP here: the ban tracker keys on the client IP,
	// so forwarding headers are honored only from trusted proxies via
	// pkghttp.ExtractClientIP.
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(router, authHandler, tokenManager)

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := db.HealthCheck(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// ensureFirstUser creates the first account if ADMIN_NAME and ADMIN_PIN are set
func ensureFirstUser(ctx context.Context, userRepo *repositories.UserRepository, logger *slog.Logger) error {
	adminName := os.Getenv("ADMIN_NAME")
	adminPin := os.Getenv("ADMIN_PIN")

	if adminName == "" || adminPin == "" {
		logger.Info("no ADMIN_NAME or ADMIN_PIN set, skipping first user creation")
		return nil
	}

	pin, err := strconv.Atoi(adminPin)
	if err != nil || !pkgauth.ValidPinFormat(pin) {
		return fmt.Errorf("ADMIN_PIN must be a four-digit number")
	}

	_, err = userRepo.GetByName(ctx, adminName)
	if err == nil {
		logger.Info("first user already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if first user exists: %w", err)
	}

	pinHash, err := pkgauth.HashPin(pin)
	if err != nil {
		return fmt.Errorf("failed to hash first user pin: %w", err)
	}

	if _, err := userRepo.Create(ctx, &models.User{Name: adminName, PinHash: pinHash}); err != nil {
		return fmt.Errorf("failed to create first user: %w", err)
	}

	logger.Info("first user created successfully")
	return nil
}
