package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/library/api/handler"
	"github.com/fastygo/library/internal/bootstrap"
	"github.com/fastygo/library/internal/config"
	"github.com/fastygo/library/internal/infrastructure/monitor"
	redisInfra "github.com/fastygo/library/internal/infrastructure/redis"
	"github.com/fastygo/library/internal/middleware"
	"github.com/fastygo/library/internal/router"
	"github.com/fastygo/library/internal/seed"
	"github.com/fastygo/library/internal/services"
	"github.com/fastygo/library/internal/services/lifecycle"
	"github.com/fastygo/library/pkg/clock"
	"github.com/fastygo/library/pkg/httpcontext"
	"github.com/fastygo/library/pkg/logger"
	"github.com/fastygo/library/pkg/token"
	"github.com/fastygo/library/repository"
	redisRepo "github.com/fastygo/library/repository/redis"
	authUC "github.com/fastygo/library/usecase/auth"
	"github.com/fastygo/library/usecase/catalog"
	"github.com/fastygo/library/usecase/dashboard"
	"github.com/fastygo/library/usecase/ledger"
	"github.com/fastygo/library/usecase/membership"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		Service:  cfg.AppName,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	appCtx, cancel := manager.Listen(context.Background())
	defer cancel()

	store, err := bootstrap.OpenStore(appCtx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("store initialization failed", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	manager.Register("store", func(ctx context.Context) error {
		return store.Close()
	})

	var (
		sessionRepo repository.SessionRepository
		redisPinger monitor.Pinger
	)
	if cfg.Redis.Enabled() {
		redisClient, err := redisInfra.NewClient(appCtx, cfg.Redis, zapLogger)
		if err != nil {
			zapLogger.Fatal("redis connection failed", zap.Error(err))
		}
		manager.Register("redis", func(ctx context.Context) error {
			return redisClient.Close()
		})
		sessionRepo = redisRepo.NewSessionRepository(redisClient, cfg.JWT.TTL)
		redisPinger = monitor.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	} else {
		zapLogger.Info("redis disabled, issuing stateless tokens")
	}

	mon := monitor.New(store, cfg.Storage.Driver, redisPinger, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	clk := clock.System{}
	tokens, err := token.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL, clk)
	if err != nil {
		zapLogger.Fatal("token manager", zap.Error(err))
	}

	catalogUseCase := catalog.New(store, clk, zapLogger)
	membershipUseCase := membership.New(store, clk, zapLogger)
	ledgerUseCase := ledger.New(store, clk, zapLogger)
	dashboardUseCase := dashboard.New(store, zapLogger)
	authUseCase := authUC.New(store.Users(), membershipUseCase, sessionRepo, tokens, clk, zapLogger)

	if cfg.SeedDemo {
		if _, err := seed.New(store, membershipUseCase, catalogUseCase, zapLogger).Run(appCtx); err != nil {
			zapLogger.Fatal("demo seeding failed", zap.Error(err))
		}
	}

	if cfg.Sweeper.Enabled {
		sweeper, err := services.NewOverdueSweeper(ledgerUseCase, mon, zapLogger, services.SweeperConfig{
			Schedule: cfg.Sweeper.Schedule,
			Timeout:  cfg.Sweeper.Timeout,
		})
		if err != nil {
			zapLogger.Fatal("overdue sweeper", zap.Error(err))
		}
		sweeper.Start()
		manager.Register("overdue_sweeper", sweeper.Stop)
	}

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:        apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger),
		Book:        apiHandler.NewBookHandler(catalogUseCase, ctxAdapter, zapLogger),
		User:        apiHandler.NewUserHandler(membershipUseCase, ctxAdapter, zapLogger),
		Transaction: apiHandler.NewTransactionHandler(ledgerUseCase, ctxAdapter, zapLogger),
		Dashboard:   apiHandler.NewDashboardHandler(dashboardUseCase, ctxAdapter, zapLogger),
		Health:      apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(authUseCase, ctxAdapter, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:            r.Handler,
		ReadTimeout:        cfg.HTTP.ReadTimeout,
		WriteTimeout:       cfg.HTTP.WriteTimeout,
		IdleTimeout:        cfg.HTTP.IdleTimeout,
		Concurrency:        cfg.HTTP.MaxConn,
		Name:               cfg.AppName,
		MaxRequestBodySize: 1 << 20,
	}

	go func() {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("storage", cfg.Storage.Driver),
		)
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Error("server stopped", zap.Error(err))
			cancel()
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
