package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Maaaiiik/cerebrin-prev3-production-sub002/internal/audit"
	"github.com/Maaaiiik/cerebrin-prev3-production-sub002/internal/console/handler"
	"github.com/Maaaiiik/cerebrin-prev3-production-sub002/internal/console/server"
	"github.com/Maaaiiik/cerebrin-prev3-production-sub002/internal/console/service"
	"github.com/Maaaiiik/cerebrin-prev3-production-sub002/internal/gate"
	"github.com/Maaaiiik/cerebrin-prev3-production-sub002/internal/infra"
	"github.com/Maaaiiik/cerebrin-prev3-production-sub002/internal/infra/auth"
	"github.com/Maaaiiik/cerebrin-prev3-production-sub002/internal/repository/postgres"
	"github.com/Maaaiiik/cerebrin-prev3-production-sub002/internal/runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// 1. Конфигурация и логгер
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	// Контекст жизненного цикла фоновых горутин: SIGTERM останавливает
	// слушателей и свипер
	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Инфраструктура и ресурсы
	initCtx, initCancel := context.WithTimeout(appCtx, 5*time.Second)
	store, err := postgres.NewStore(initCtx, cfg.Database)
	if err != nil {
		logger.Fatal("failed to init postgres", zap.Error(err))
	}
	if err := store.Ping(initCtx); err != nil {
		logger.Fatal("database unreachable", zap.Error(err))
	}
	initCancel()
	defer store.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// 3. Журнал решений (batching, non-blocking)
	trail := audit.NewTrail(store, logger, cfg.Gate.AuditBufferSize, cfg.Gate.AuditFlushInterval)
	trail.Start()

	// 4. L1 кэш autonomy-профилей + инвалидация через Pub/Sub
	profiles := gate.NewProfileCache(store, rdb, logger)
	if err := profiles.Refresh(appCtx); err != nil {
		logger.Fatal("failed to warm up autonomy profile cache", zap.Error(err))
	}
	go profiles.StartListener(appCtx)

	// 5. Классификатор рисков из конфигурационной таблицы
	classifier, err := gate.NewClassifier(cfg.Gate.ActionRiskFloors)
	if err != nil {
		logger.Fatal("invalid risk floor table", zap.Error(err))
	}

	// 6. Колбэк исполнения, обернутый в Reliability (Retries, CB, Rate Limit)
	executor := runtime.NewReliabilityWrapper(&runtime.MockRuntime{})

	// Метрики
	reg := prometheus.NewRegistry()
	metrics := gate.NewMetrics(reg)

	// 7. Сборка шлюза одобрений
	gateService := gate.NewService(gate.Deps{
		Tickets:      store,
		Ledgers:      store,
		Profiles:     profiles,
		Perspectives: store,
		Executor:     executor,
		Classifier:   classifier,
		Trail:        trail,
		Metrics:      metrics,
		RDB:          rdb,
		TicketTTL:    cfg.Gate.TicketTTL,
		Logger:       logger,
	})

	// Свипер протухших тикетов — единственный не-человеческий переход
	sweeper := gate.NewSweeper(gateService, cfg.Gate.SweepInterval, logger)
	go sweeper.Run(appCtx)

	// 8. Auth (RS256 + bcrypt)
	pubKey, err := auth.ParseRSAPublicKey(cfg.Auth.PublicKey)
	if err != nil {
		logger.Fatal("failed to parse public key", zap.Error(err))
	}
	privKey, err := auth.ParseRSAPrivateKey(cfg.Auth.PrivateKey)
	if err != nil {
		logger.Fatal("failed to parse private key", zap.Error(err))
	}
	validator := auth.NewBaseValidator(pubKey)
	authService := service.NewAuthService(store, privKey, cfg.Auth.TokenTTL)

	// 9. HTTP Server
	srv := &http.Server{
		Addr: fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: server.NewConsoleServer(
			cfg,
			logger,
			validator,
			handler.NewAuthHandler(authService),
			handler.NewTicketHandler(gateService),
			reg,
		),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 10. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("HITL gate started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	<-stop // Ждем сигнал
	logger.Info("HITL gate stopping...")

	// Даем 5 секунд на завершение запросов
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}

	cancel()      // Останавливаем свипер и слушателей
	trail.Stop()  // Final Flush журнала решений
	logger.Info("HITL gate exited properly")
}
