package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/barna-bash/URelf/internal/cache"
	"github.com/barna-bash/URelf/internal/config"
	"github.com/barna-bash/URelf/internal/database"
	"github.com/barna-bash/URelf/internal/handlers"
	"github.com/barna-bash/URelf/internal/logger"
	"github.com/barna-bash/URelf/internal/middleware"
	"github.com/barna-bash/URelf/internal/repositories"
	"github.com/barna-bash/URelf/internal/router"
	"github.com/barna-bash/URelf/internal/service"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Инициализация конфигурации
	cfg := config.NewConfig()

	log, err := logger.New(cfg.LogFilePath)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDB(cfg.DatabaseDSN, log)
	if err != nil {
		log.Fatal("Не удалось подключиться к БД", zap.Error(err))
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.PgMigrationsPath, cfg.DatabaseDSN, log); err != nil {
		log.Fatal("Не удалось применить миграции", zap.Error(err))
	}

	// Кэш: Redis при заданном адресе, иначе in-memory
	var store cache.Cache
	if cfg.CacheMode == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer client.Close()
		store = cache.NewRedisCache(client)
	} else {
		mem := cache.NewMemoryCache(2 * time.Minute)
		mem.StartJanitor(ctx)
		store = mem
	}

	aliasRepo := repositories.NewAliasRepository(db)
	accountRepo := repositories.NewAccountRepository(db)
	activityRepo := repositories.NewActivityRepository(db)

	usage := service.NewUsageRecorder(aliasRepo, log, cfg.UsageQueueSize)
	go usage.Run(ctx)

	accounts := service.NewAccountService(accountRepo, activityRepo, log)
	resolver := service.NewResolverService(aliasRepo, store, usage, log, cfg.RedirectCacheTTL)
	shortener := service.NewShortenerService(aliasRepo, activityRepo, store, log)

	handler := handlers.NewHandler(shortener, resolver, usage, accounts, store, db, log, cfg.BaseURL, cfg.ListCacheTTL)

	ipLimiter := middleware.NewIPLimiter(1, 5)
	ipLimiter.StartJanitor(ctx)

	r := router.NewRouter(handler, accounts, activityRepo, ipLimiter, log)

	srv := &http.Server{
		Addr:    cfg.ServerAddress,
		Handler: r,
	}

	go func() {
		log.Info("Сервер запущен", zap.String("address", cfg.ServerAddress))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Ошибка при запуске сервера", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Останавливаем сервер")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Ошибка при остановке сервера", zap.Error(err))
	}

	// Пул соединений закрывается defer-ом, поэтому сначала дожидаемся,
	// пока рекордер допишет очередь визитов.
	<-usage.Done()
	log.Info("Очередь визитов дописана")
}
