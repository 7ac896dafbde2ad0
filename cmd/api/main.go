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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/BradenHooton/supportportal/internal/auth"
	"github.com/BradenHooton/supportportal/internal/background"
	"github.com/BradenHooton/supportportal/internal/config"
	"github.com/BradenHooton/supportportal/internal/database"
	"github.com/BradenHooton/supportportal/internal/handlers"
	middlewareCustom "github.com/BradenHooton/supportportal/internal/middleware"
	"github.com/BradenHooton/supportportal/internal/models"
	"github.com/BradenHooton/supportportal/internal/repositories"
	"github.com/BradenHooton/supportportal/internal/routes"
	"github.com/BradenHooton/supportportal/internal/services"
	pkgauth "github.com/BradenHooton/supportportal/pkg/auth"
	pkghttp "github.com/BradenHooton/supportportal/pkg/http"
	pkglogger "github.com/BradenHooton/supportportal/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	db, err := database.NewConnection(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	userRepo := repositories.NewUserRepository(db)

	// Authentication
	tokenProvider, err := auth.NewTokenProvider(cfg.Auth.JWTSecret)
	if err != nil {
		return fmt.Errorf("failed to create token provider: %w", err)
	}

	attemptGuard := auth.NewLoginAttemptGuard(auth.LoginAttemptConfig{
		MaxEntries:  cfg.Auth.MaxTrackedUsernames,
		TTL:         cfg.Auth.AttemptTTL,
		MaxAttempts: cfg.Auth.MaxFailedAttempts,
	})

	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelay: cfg.Auth.TimingDelayBase,
		Jitter:    cfg.Auth.TimingDelayRandom,
	})

	// Email
	var emailService services.EmailService
	if cfg.Email.FromAddress != "" {
		sesService, err := services.NewAWSSESEmailService(ctx, cfg.Email.AWSRegion, cfg.Email.FromAddress, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize email service: %w", err)
		}
		emailService = sesService
	} else {
		logger.Warn("EMAIL_FROM_ADDRESS not set, generated passwords will not be delivered")
		emailService = services.NewLogEmailService(logger)
	}

	// Services
	auditLogger := pkglogger.NewAuditLogger(logger)
	userService := services.NewUserService(userRepo, emailService, logger, auditLogger)
	authService := services.NewAuthService(userRepo, tokenProvider, attemptGuard, timingDelay, cfg.Auth.LockoutCooldown, logger, auditLogger)

	bootstrapCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := ensureSuperAdmin(bootstrapCtx, userRepo, logger); err != nil {
		logger.Error("failed to ensure super admin", slog.Any("error", err))
	}
	cancel()

	// HTTP
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	userHandler := handlers.NewUserHandler(userService, logger)
	authHandler := handlers.NewAuthHandler(authService, userService, ipConfig, logger)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.NewCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger, ipConfig))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(auth.Gatekeeper(tokenProvider))

	routes.RegisterRoutes(router, userHandler, authHandler, routes.Options{
		LoginRateLimit:         middlewareCustom.RateLimitConfig{RequestsPerMinute: cfg.Auth.LoginRequestsPerMinute},
		AuthenticatedRateLimit: middlewareCustom.DefaultAuthenticatedRateLimit(),
		IPConfig:               ipConfig,
	})

	router.Get("/health", routes.HealthHandler(func(r *http.Request) error {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		return db.HealthCheck(ctx)
	}))

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	sweeper := background.NewLockSweeper(userRepo, logger, cfg.Auth.LockSweepInterval, cfg.Auth.LockoutCooldown)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return sweeper.Run(gctx)
	})

	g.Go(func() error {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("server stopped gracefully")
	return nil
}

func parseLogLevel(level string) slog.Level {
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

// ensureSuperAdmin creates the first super admin if ADMIN_USERNAME,
// ADMIN_EMAIL and ADMIN_PASSWORD are set
func ensureSuperAdmin(ctx context.Context, userRepo *repositories.UserRepository, logger *slog.Logger) error {
	username := os.Getenv("ADMIN_USERNAME")
	email := strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL")))
	password := os.Getenv("ADMIN_PASSWORD")

	if username == "" || email == "" || password == "" {
		logger.Info("admin credentials not set, skipping super admin creation")
		return nil
	}

	_, err := userRepo.GetByUsername(ctx, username)
	if err == nil {
		logger.Info("super admin already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if super admin exists: %w", err)
	}

	if err := pkgauth.ValidatePassword(password); err != nil {
		return fmt.Errorf("ADMIN_PASSWORD rejected: %w", err)
	}

	hashedPassword, err := pkgauth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.User{
		FirstName:    "Super",
		LastName:     "Admin",
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         models.RoleSuperAdmin.String(),
		Authorities:  models.RoleSuperAdmin.Authorities(),
		Active:       true,
	}

	if _, err := userRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create super admin: %w", err)
	}

	logger.Info("super admin created", slog.String("username", username))
	return nil
}
