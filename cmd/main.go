package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dex-market-core/internal/api"
	"dex-market-core/internal/chart"
	"dex-market-core/internal/executor"
	"dex-market-core/internal/market"
	"dex-market-core/internal/model"
	"dex-market-core/internal/service"
	"dex-market-core/internal/server"
	"dex-market-core/internal/stream"
	"dex-market-core/internal/watch"
	"dex-market-core/pkg/ta"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// .env 只是可选的本地覆盖
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		panic(err)
	}

	cfg, err := service.LoadConfig("config")
	if err != nil {
		panic(err)
	}

	service.InitLogger(cfg.Log.Level)
	defer service.Logger.Sync()
	logger := service.Logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. 账本客户端 (读写共用)
	ledger := api.NewLedgerClient(api.LedgerConfig{
		URL:      cfg.Ledger.URL,
		Username: cfg.Ledger.Username,
		Password: cfg.Ledger.Password,
		Session:  cfg.Ledger.Session,
		Timeout:  cfg.Ledger.Timeout,
	}, logger)

	// 2. 响应缓存
	store, closeStore := newStore(ctx, cfg, logger)
	defer closeStore()
	caller := api.NewCachedCaller(ledger, api.NewCache(store, logger), cfg.Cache.TTL).
		WithEndpointTTL(market.TokenEndpoint, cfg.Cache.TokenTTL)

	// 3. 推送中心和错误展示
	hub := stream.NewHub(logger)
	go hub.Run(ctx)
	reporter := stream.NewReporter(hub, service.NewLogReporter(logger))

	// 4. 市场数据服务
	loc, err := cfg.ChartLocation()
	if err != nil {
		logger.Fatal("Invalid chart location", zap.String("location", cfg.Chart.Location), zap.Error(err))
	}
	calc := ta.NewTACalculator(cfg.Chart.SMAPeriod, cfg.Chart.EMAPeriod, cfg.Chart.BollingerPeriod, cfg.Chart.BollingerDev, logger)
	svc := market.NewService(caller, chart.NewBuilder(loc, logger), calc, reporter, logger)

	// 5. 执行器
	var exec executor.Executor = executor.NewLedgerExecutor(ledger, logger)
	if cfg.DryRun {
		logger.Warn("Dry run enabled, orders will only be simulated")
		exec = executor.NewSimulatorExecutor(logger)
	}

	// 6. 视图轮询
	poller, err := watch.NewPoller(svc, hub, stream.OverviewTopic, cfg.Poll.Interval, logger)
	if err != nil {
		logger.Fatal("Invalid poll configuration", zap.Error(err))
	}
	if cfg.Poll.Market != "" {
		pair, err := model.ParsePair(cfg.Poll.Market)
		if err != nil {
			logger.Fatal("Invalid Poll.Market", zap.Error(err))
		}
		poller.Watch(pair)
	}
	go poller.Run(ctx)

	// 7. HTTP / WS
	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: server.NewRouter(server.Deps{
			Market:   svc,
			Executor: exec,
			Watcher:  poller,
			WS:       hub.ServeWS,
			Logger:   logger,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", zap.Error(err))
	}
}

// newStore 按配置选择缓存后端
func newStore(ctx context.Context, cfg *service.Config, logger *zap.Logger) (api.Store, func()) {
	if cfg.Cache.Backend == "redis" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Fatal("Redis unreachable", zap.String("addr", cfg.Cache.RedisAddr), zap.Error(err))
		}
		logger.Info("Using redis cache", zap.String("addr", cfg.Cache.RedisAddr))
		return api.NewRedisStore(client), func() { _ = client.Close() }
	}

	mem := api.NewMemoryStore()
	go mem.RunSweeper(ctx, cfg.Cache.SweepInterval, logger)
	return mem, func() {}
}
