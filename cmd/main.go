package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/Leganyst/mci-platform/internal/admission"
	"github.com/Leganyst/mci-platform/internal/changefeed"
	"github.com/Leganyst/mci-platform/internal/config"
	"github.com/Leganyst/mci-platform/internal/db"
	"github.com/Leganyst/mci-platform/internal/grpcapi"
	"github.com/Leganyst/mci-platform/internal/model"
	"github.com/Leganyst/mci-platform/internal/ratelimit"
	"github.com/Leganyst/mci-platform/internal/service"
	"github.com/Leganyst/mci-platform/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("core: %v", err)
	}
}

// run поднимает ядро и блокируется до сигнала.
func run() error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Загружаем конфиг из .env и окружения.
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Подключаемся к БД через GORM.
	gormDB, err := db.NewGormDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("init db: %w", err)
	}

	// 3. Миграции моделей.
	if err := model.AutoMigrate(gormDB); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return fmt.Errorf("sql DB: %w", err)
	}
	defer sqlDB.Close()

	// 4. Метрики и трассировка.
	metrics := telemetry.NewMetrics()
	shutdownTracing, err := telemetry.SetupTracing(ctx, "mci-core", cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}

	// 5. Счётчики попыток входа: Redis, если задан, иначе память процесса.
	limits := ratelimit.Limits{MaxAttempts: cfg.Login.MaxAttempts, Window: cfg.Login.Window}
	var attempts ratelimit.AttemptTracker = ratelimit.NewMemoryTracker(limits)
	if cfg.Login.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Login.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping %s: %w", cfg.Login.RedisAddr, err)
		}
		attempts = ratelimit.NewRedisTracker(rdb, limits)
	}

	// 6. Публикация изменений.
	var publisher changefeed.Publisher = changefeed.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = changefeed.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}
	defer publisher.Close()

	policy, err := admission.ParsePolicy(cfg.CampCapacityPolicy)
	if err != nil {
		return fmt.Errorf("camp capacity policy: %w", err)
	}

	// 7. Сервис координации.
	svc := service.New(gormDB,
		service.WithAdmission(admission.NewController(policy)),
		service.WithPublisher(publisher),
		service.WithAttemptTracker(attempts),
		service.WithMetrics(metrics),
		service.WithLogger(logger),
	)

	// 8. gRPC и HTTP для метрик.
	grpcServer, health := grpcapi.NewGRPCServer(svc, logger)
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.GRPCAddr, err)
	}
	metricsServer := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("core gRPC server listening", "addr", cfg.GRPCAddr, "policy", string(policy))
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("metrics server listening", "addr", cfg.MetricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// 9. Грейсфул-шатдаун по сигналу или падению одного из серверов.
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		health.Shutdown()
		grpcServer.GracefulStop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics server shutdown", "err", err)
		}
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown", "err", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
