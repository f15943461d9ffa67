package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pribylovaa/go-foody/internal/cache"
	"github.com/pribylovaa/go-foody/internal/config"
	"github.com/pribylovaa/go-foody/internal/hasher"
	httpapi "github.com/pribylovaa/go-foody/internal/http"
	"github.com/pribylovaa/go-foody/internal/http/metrics"
	"github.com/pribylovaa/go-foody/internal/service"
	"github.com/pribylovaa/go-foody/internal/storage"
	"github.com/pribylovaa/go-foody/internal/storage/cached"
	"github.com/pribylovaa/go-foody/internal/storage/minio"
	"github.com/pribylovaa/go-foody/internal/storage/postgres"
	"github.com/pribylovaa/go-foody/internal/token"
)

// Константы для определения окружения.
const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

const cachePrefix = "foody:user:"

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting application", "env", cfg.Env)

	// Корневой контекст по сигналам.
	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	if err := run(rootCtx, cfg, log); err != nil {
		log.Error("service_failed", slog.String("err", err.Error()))
		rootCancel()
		os.Exit(1)
	}

	log.Info("service_stopped")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	// Подключение к БД c таймаутом.
	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	pg, err := postgres.New(dbCtx, cfg.DB.DatabaseURL)
	dbCancel()
	if err != nil {
		return fmt.Errorf("postgres connect: %w", err)
	}
	log.Info("postgres_connected")

	var str storage.Storage = pg
	defer func() { str.Close() }()

	if cfg.Redis.Enabled() {
		rdCtx, rdCancel := context.WithTimeout(ctx, 5*time.Second)
		uc, err := cache.NewRedisCache(rdCtx, cfg.Redis.RedisURL, cachePrefix, cfg.Redis.UserTTL)
		rdCancel()
		if err != nil {
			return fmt.Errorf("redis connect: %w", err)
		}
		str = cached.New(pg, uc)
		log.Info("redis_cache_enabled", slog.Duration("ttl", cfg.Redis.UserTTL))
	}

	codec, err := token.NewCodec(cfg.Auth)
	if err != nil {
		return fmt.Errorf("token codec: %w", err)
	}

	srvc := service.New(str, hasher.NewBcrypt(cfg.Auth.BcryptCost), codec)

	if cfg.S3.Enabled() {
		s3Ctx, s3Cancel := context.WithTimeout(ctx, 10*time.Second)
		img, err := minio.New(s3Ctx, cfg.S3)
		s3Cancel()
		if err != nil {
			return fmt.Errorf("minio connect: %w", err)
		}
		srvc.SetImageStorage(img, cfg.Images)
		log.Info("image_storage_enabled", slog.String("bucket", cfg.S3.Bucket))
	} else {
		log.Warn("image_storage_disabled")
	}
	log.Info("service_initialized")

	var ready atomic.Bool

	router := httpapi.NewRouter(srvc, httpapi.Options{
		Logger:  log,
		Timeout: cfg.Timeouts.Service,
		Metrics: metrics.New(prometheus.DefaultRegisterer),
		Ready: func(r *http.Request) error {
			if !ready.Load() {
				return errors.New("not ready")
			}
			return pg.Ping(r.Context())
		},
		// Запас сверх суммарного лимита на служебные части multipart.
		MaxUploadBytes: int64(cfg.Images.MaxCount)*cfg.Images.MaxSizeBytes + 1<<20,
	})

	httpAddr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Фоновая очистка просроченных refresh-слотов.
	startRefreshJanitor(ctx, srvc, log, cfg.Janitor.Period)

	serveErrCh := make(chan error, 1)
	go func() {
		log.Info("http_listen_start", slog.String("addr", httpAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	ready.Store(true)

	// Ожидание сигнала завершения или фатальной ошибки сервера.
	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown_requested")
	case serveErr = <-serveErrCh:
		if serveErr != nil {
			log.Error("http_serve_failed", slog.String("err", serveErr.Error()))
		}
	}

	ready.Store(false)

	// Graceful stop с таймаутом.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Timeouts.Shutdown)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_force_stop", slog.String("err", err.Error()))
		_ = httpSrv.Close()
	} else {
		log.Info("http_stopped")
	}

	return serveErr
}

// setupLogger настраивает slog по окружению.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	}

	return log
}

type refreshCleaner interface {
	CleanupExpiredRefreshTokens(ctx context.Context) (int64, error)
}

// startRefreshJanitor периодически очищает просроченные refresh-слоты.
// Возвращает канал, закрываемый после остановки горутины.
func startRefreshJanitor(ctx context.Context, c refreshCleaner, log *slog.Logger, period time.Duration) <-chan struct{} {
	done := make(chan struct{})
	if period <= 0 {
		close(done)
		return done
	}

	go func() {
		defer close(done)

		t := time.NewTicker(period)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				n, err := c.CleanupExpiredRefreshTokens(ctx)
				if err != nil {
					log.Error("refresh_janitor_failed", slog.String("err", err.Error()))
					continue
				}
				if n > 0 {
					log.Info("refresh_janitor_cleared", slog.Int64("count", n))
				}
			}
		}
	}()

	return done
}
