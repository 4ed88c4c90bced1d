package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/commerceplatform/wallet/docs"
	"github.com/commerceplatform/wallet/internal/config"
	"github.com/commerceplatform/wallet/internal/database"
	"github.com/commerceplatform/wallet/internal/handlers"
	mW "github.com/commerceplatform/wallet/internal/middleware"
	"github.com/commerceplatform/wallet/internal/services"
	"github.com/commerceplatform/wallet/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// @title Wallet API
// @version 1.0
// @description Wallet balances and transaction ledger for the commerce platform
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = ".env"
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		panic(err)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	docs.SwaggerInfo.Host = "localhost:" + cfg.Server.Port

	st, directory, closeStore, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	var events services.EventPublisher = services.NoopEventPublisher{}
	if redisClient := database.InitRedis(ctx, cfg.Redis, logger); redisClient != nil {
		defer redisClient.Close()
		events = services.NewRedisEventPublisher(redisClient, cfg.Redis.EventsKey)
	}

	accountService := services.NewAccountService(st, directory, logger)
	ledgerService := services.NewLedgerService(st, accountService, events,
		services.NewAuditLogger(logger), cfg.Wallet.OperationTimeout, logger)
	historyService := services.NewHistoryService(st, accountService,
		cfg.Wallet.HistoryDefaultLimit, cfg.Wallet.HistoryMaxLimit, logger)
	walletHandler := handlers.NewWalletHandler(accountService, ledgerService, historyService,
		mW.NewRoleResolver(directory, logger), logger)

	// Setup router
	r := chi.NewRouter()

	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Access-Control-Allow-Origin"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware(cfg.JWT.SecretKey))
			r.Route("/wallet", walletHandler.Routes)
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", server.Addr), zap.String("store", cfg.Database.Driver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

// openStore returns the wallet store and the user directory for the
// configured driver, plus a function releasing their resources.
func openStore(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (store.Store, store.Directory, func(), error) {
	if cfg.Driver == "memory" {
		logger.Warn("using in-memory store, balances are lost on restart")
		m := store.NewMemory()
		return m, m, func() {}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	db, err := database.InitDB(connectCtx, cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			logger.Warn("failed to close database", zap.Error(err))
		}
	}

	if cfg.AutoMigrate {
		if err := database.EnsureSchema(connectCtx, db); err != nil {
			closeDB()
			return nil, nil, nil, err
		}
		logger.Info("database schema ensured")
	}
	return store.NewPostgres(db), store.NewPostgresDirectory(db), closeDB, nil
}
