package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/BradenHooton/supportportal/internal/auth"
	"github.com/BradenHooton/supportportal/internal/background"
	"github.com/BradenHooton/supportportal/internal/config"
	"github.com/BradenHooton/supportportal/internal/database"
	"github.com/BradenHooton/supportportal/internal/handlers"
	"github.com/BradenHooton/supportportal/internal/models"
	"github.com/BradenHooton/supportportal/internal/observability"
	"github.com/BradenHooton/supportportal/internal/repositories"
	"github.com/BradenHooton/supportportal/internal/routes"
	"github.com/BradenHooton/supportportal/internal/services"
	pkgauth "github.com/BradenHooton/supportportal/pkg/auth"
	pkghttp "github.com/BradenHooton/supportportal/pkg/http"
	pkglogger "github.com/BradenHooton/supportportal/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	sentryEnabled, err := observability.InitSentry(cfg.Observability.SentryDSN, cfg.Server.Env)
	if err != nil {
		logger.Error("failed to initialize sentry", slog.Any("error", err))
		os.Exit(1)
	}
	if sentryEnabled {
		defer observability.FlushSentry()
		logger.Info("error reporting enabled")
	}

	ctx := context.Background()

	// Initialize database
	db, err := database.NewConnection(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if cfg.Database.MigrateOnStart {
		if err := database.Migrate(ctx, db.Pool, logger); err != nil {
			logger.Error("failed to apply migrations", slog.Any("error", err))
			os.Exit(1)
		}
	}

	ipConfig, err := pkghttp.NewIPConfig(cfg.Server.TrustedProxies)
	if err != nil {
		logger.Error("invalid TRUSTED_PROXIES", slog.Any("error", err))
		os.Exit(1)
	}

	userRepo := repositories.NewUserRepository(db, cfg.Database.QueryTimeout)
	auditLogger := pkglogger.NewAuditLogger(logger)

	// Login attempt tracking and lockout
	tracker := auth.NewAttemptTracker(cfg.LoginAttempts.Window)
	policy := auth.NewLockoutPolicy(tracker, cfg.LoginAttempts.MaxAttempts)
	failureListener := auth.NewAuthenticationFailureListener(tracker, auditLogger, cfg.Server.Env)
	sweeper := background.NewTrackerSweeper(tracker, logger, cfg.LoginAttempts.SweepInterval)

	tokenIssuer, err := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		Secret:    cfg.Auth.JWTSecret,
		Issuer:    cfg.Auth.TokenIssuer,
		Audience:  cfg.Auth.TokenAudience,
		ClockSkew: cfg.Auth.TokenClockSkew,
	})
	if err != nil {
		logger.Error("failed to initialize token issuer", slog.Any("error", err))
		os.Exit(1)
	}

	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelay:      cfg.Timing.BaseDelay,
		RandomDelay:    cfg.Timing.RandomDelay,
		DelayOnSuccess: cfg.Timing.DelayOnSuccess,
	})

	mailer, err := newMailer(ctx, cfg.Email, logger)
	if err != nil {
		logger.Error("failed to initialize email service", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize services
	authService := services.NewAuthService(services.AuthServiceConfig{
		Store:       userRepo,
		Verifier:    pkgauth.NewBcryptVerifier(),
		Failures:    failureListener,
		Policy:      policy,
		Tracker:     tracker,
		Tokens:      tokenIssuer,
		Timing:      timingDelay,
		TokenTTL:    cfg.Auth.TokenTTL,
		Logger:      logger,
		AuditLogger: auditLogger,
		Env:         cfg.Server.Env,
	})
	userService := services.NewUserService(userRepo, policy, tracker, mailer, cfg.Portal.BaseURL, logger, auditLogger)

	// Bootstrap first super admin if configured
	bootstrapCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := ensureAdminUser(bootstrapCtx, userRepo, cfg.Portal.BaseURL, logger); err != nil {
		logger.Error("failed to ensure admin user", slog.Any("error", err))
	}
	cancel()

	router := routes.NewRouter(routes.Dependencies{
		AuthHandler:    handlers.NewAuthHandler(authService, userService, ipConfig, logger),
		UserHandler:    handlers.NewUserHandler(userService, logger),
		HealthHandler:  handlers.NewHealthHandler(db, logger),
		Tokens:         authService,
		IPConfig:       ipConfig,
		Logger:         logger,
		Env:            cfg.Server.Env,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		LoginRateLimit: cfg.Server.LoginRateLimit,
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	sweepCtx, sweepCancel := context.WithCancel(ctx)
	defer sweepCancel()
	go sweeper.Start(sweepCtx)

	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")
	sweeper.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		return
	}

	logger.Info("server stopped gracefully")
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newMailer(ctx context.Context, cfg config.EmailConfig, logger *slog.Logger) (services.Mailer, error) {
	if !cfg.Enabled {
		logger.Warn("email delivery disabled, new passwords will not be sent")
		return services.NewLogMailer(logger), nil
	}
	return services.NewSESMailer(ctx, cfg.AWSRegion, cfg.FromAddress, logger)
}

// ensureAdminUser creates a super admin from ADMIN_USERNAME, ADMIN_EMAIL and
// ADMIN_PASSWORD when no account with that username exists yet
func ensureAdminUser(ctx context.Context, userRepo *repositories.UserRepository, baseURL string, logger *slog.Logger) error {
	username := strings.TrimSpace(os.Getenv("ADMIN_USERNAME"))
	email := services.NormalizeIdentity(os.Getenv("ADMIN_EMAIL"))
	password := os.Getenv("ADMIN_PASSWORD")

	if username == "" || email == "" || password == "" {
		logger.Info("no admin bootstrap credentials set, skipping admin user creation")
		return nil
	}

	_, err := userRepo.GetByUsername(ctx, username)
	if err == nil {
		logger.Info("admin user already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if admin exists: %w", err)
	}

	if err := pkgauth.ValidatePassword(password); err != nil {
		return fmt.Errorf("ADMIN_PASSWORD rejected: %w", err)
	}
	hash, err := pkgauth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	userID, err := pkgauth.GenerateUserID()
	if err != nil {
		return fmt.Errorf("failed to generate admin user id: %w", err)
	}
	authorities, err := models.AuthoritiesForRole(models.RoleSuperAdmin)
	if err != nil {
		return err
	}

	now := time.Now()
	_, err = userRepo.Create(ctx, &models.User{
		UserID:          userID,
		FirstName:       "Portal",
		LastName:        "Admin",
		Username:        username,
		Email:           email,
		PasswordHash:    hash,
		ProfileImageURL: strings.TrimRight(baseURL, "/") + "/user/image/profile/" + username,
		Role:            models.RoleSuperAdmin,
		Authorities:     authorities,
		Active:          true,
		JoinedAt:        now,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("admin user created", slog.String("user_id", userID))
	return nil
}
