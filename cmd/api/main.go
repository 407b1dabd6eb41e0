package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/vnxcius/accounts-back/internal/account"
	"github.com/vnxcius/accounts-back/internal/config"
	"github.com/vnxcius/accounts-back/internal/database/pg"
	"github.com/vnxcius/accounts-back/internal/database/store"
	"github.com/vnxcius/accounts-back/internal/http/handlers"
	"github.com/vnxcius/accounts-back/internal/http/router"
	"github.com/vnxcius/accounts-back/internal/logging"
	"github.com/vnxcius/accounts-back/internal/metrics"
	"github.com/vnxcius/accounts-back/internal/session"
	"github.com/vnxcius/accounts-back/internal/token"
	"github.com/vnxcius/accounts-back/internal/util"
)

func main() {
	// load environment variables
	cfg := config.GetConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	switch cfg.Environment {
	case "development":
		gin.SetMode(gin.DebugMode)
	case "production":
		gin.SetMode(gin.ReleaseMode)
	}

	if err := logging.SetupLogger(cfg.LogFile, logging.LevelFor(cfg.Environment)); err != nil {
		log.Fatal("Failed to set up logger: ", err)
	}
	slog.Info("Loaded environment", "environment", cfg.Environment, "gin_mode", gin.Mode())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	users, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("Failed to open user store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	issuer, err := token.NewIssuer(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		slog.Error("Failed to create token issuer", "error", err)
		os.Exit(1)
	}

	m := metrics.New()
	hasher := util.NewBcryptHasher(cfg.PasswordCost)
	opts := []session.Option{session.WithMetrics(m)}

	if cfg.SessionAuditDir != "" {
		audit, err := logging.NewSessionLog(cfg.SessionAuditDir)
		if err != nil {
			slog.Error("Failed to open session audit log", "error", err)
			os.Exit(1)
		}
		defer audit.Close()
		opts = append(opts, session.WithAudit(audit))
	}

	h := handlers.New(
		session.NewManager(users, hasher, issuer, opts...),
		account.NewService(users, hasher),
		handlers.CookieConfig{
			MaxAge:   cfg.RefreshTokenTTL,
			Secure:   cfg.CookieSecure,
			HTTPOnly: cfg.CookieHTTPOnly,
		},
	)

	r, err := router.NewRouter(h, router.Options{
		AllowedOrigins: cfg.Origins(),
		TrustedProxies: []string{"127.0.0.1", "::1"},
		Guard:          issuer.VerifyAccess,
		Metrics:        m,
	})
	if err != nil {
		slog.Error("Failed to build router", "error", err)
		os.Exit(1)
	}

	if err := router.Run(ctx, r, cfg.Port); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (store.UserStore, func(), error) {
	if cfg.DBDriver == config.DriverMemory {
		slog.Warn("Using in-memory user store, data is lost on restart")
		return store.NewMemoryUserStore(), func() {}, nil
	}

	db, err := pg.NewConnection(cfg)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	if err := pg.RunMigrations(ctx, db); err != nil {
		sqlDB.Close()
		return nil, nil, err
	}
	return store.NewGormUserStore(db), func() { sqlDB.Close() }, nil
}
