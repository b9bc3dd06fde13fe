package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	gintrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/gin-gonic/gin"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/File-Sharing-BondBridg/Coupon-File-Service/cmd/middleware"
	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/api"
	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/api/handlers"
	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/configuration"
	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/logging"
	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/services"
	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/services/command"
	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/services/query"
	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/storage"
	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/validator"
	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := configuration.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *configuration.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		tracer.Start(tracer.WithService(cfg.Tracing.Service))
		defer tracer.Stop()
	}

	checks := map[string]handlers.Checker{}

	repo, closeRepo, err := openRepository(ctx, cfg, logger, checks)
	if err != nil {
		return err
	}
	defer closeRepo()

	minioService, err := services.NewMinioService(ctx,
		cfg.MinIO.Endpoint,
		cfg.MinIO.AccessKey,
		cfg.MinIO.SecretKey,
		cfg.MinIO.BucketName,
		cfg.MinIO.UseSSL,
		logger,
	)
	if err != nil {
		return err
	}
	checks["minio"] = minioService

	var events services.EventPublisher = services.NopPublisher{}
	if cfg.NATS.Enabled {
		publisher, err := services.ConnectNATS(cfg.NATS.URL, logger)
		if err != nil {
			logger.Warn("[NATS] unavailable, lifecycle events disabled", "url", cfg.NATS.URL, "error", err)
		} else {
			events = publisher
			defer publisher.Close()
		}
	}

	validatorOpts := []command.ValidatorOption{
		command.WithEvents(events),
		command.WithTimeout(cfg.Validation.Timeout),
	}
	if cfg.ClamAV.Enabled {
		scanner := services.NewClamAVScanner(cfg.ClamAV.URL)
		if err := scanner.Ping(); err != nil {
			logger.Warn("[ClamAV] ping failed, scans will fail until it is reachable", "url", cfg.ClamAV.URL, "error", err)
		}
		validatorOpts = append(validatorOpts, command.WithScanner(scanner))
		checks["clamav"] = handlers.CheckFunc(func(context.Context) error { return scanner.Ping() })
	}

	pool := worker.New(cfg.Validation.Workers, cfg.Validation.QueueSize, cfg.Validation.EnqueueWait, logger.With("component", "worker"))
	pool.Start(context.WithoutCancel(ctx))

	validation := command.NewValidator(minioService, repo, validator.Default(), logger, validatorOpts...)
	uploader := command.NewUploader(minioService, repo, pool, validation, events, logger)
	downloads := query.NewDownloads(minioService, repo, cfg.Server.PresignTTL, logger)

	startedAt := time.Now()
	go func() {
		if _, err := validation.RecoverPending(ctx, pool, startedAt, cfg.Validation.RecoveryBatch); err != nil {
			logger.Error("failed to reschedule pending files", "error", err)
		}
	}()

	router := newRouter(cfg, logger,
		handlers.NewFileHandler(uploader, downloads, cfg.Server.MaxUploadSize, logger),
		handlers.NewHealthHandler(pool, checks),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down gracefully")
	case err := <-serveErr:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown", "error", err)
	}
	if err := pool.Shutdown(shutdownCtx); err != nil {
		logger.Error("validation pool did not drain", "error", err)
	}
	return nil
}

// openRepository builds the metadata store selected by METADATA_DRIVER,
// fronted by the record cache.
func openRepository(ctx context.Context, cfg *configuration.Config, logger *slog.Logger, checks map[string]handlers.Checker) (storage.Repository, func(), error) {
	var (
		inner   storage.Repository
		closeFn = func() {}
	)

	switch cfg.Metadata.Driver {
	case configuration.DriverLocal:
		local, err := storage.NewLocalStorage(cfg.Metadata.LocalPath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using local metadata store", "path", cfg.Metadata.LocalPath)
		inner = local
	default:
		connString := cfg.Database.ConnectionString()
		if err := storage.Migrate(connString, logger); err != nil {
			return nil, nil, err
		}
		pg, err := storage.Connect(ctx, connString, logger)
		if err != nil {
			return nil, nil, err
		}
		checks["postgres"] = handlers.CheckFunc(pg.Ping)
		closeFn = func() {
			if err := pg.Close(); err != nil {
				logger.Error("failed to close postgres", "error", err)
			}
		}
		inner = pg
	}

	if cfg.Metadata.CacheSize > 0 {
		return storage.NewCachedRepository(inner, cfg.Metadata.CacheSize, cfg.Metadata.CacheTTL), closeFn, nil
	}
	return inner, closeFn, nil
}

func newRouter(cfg *configuration.Config, logger *slog.Logger, files *handlers.FileHandler, health *handlers.HealthHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Tracing.Enabled {
		r.Use(gintrace.Middleware(cfg.Tracing.Service))
	}
	r.Use(middleware.RequestLogger(logger))
	r.MaxMultipartMemory = 8 << 20

	api.RegisterRoutes(r, files, health)
	return r
}
