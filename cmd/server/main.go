package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"Postline/internal/api"
	"Postline/internal/auth"
	"Postline/internal/config"
	"Postline/internal/db"
	"Postline/internal/email"
	"Postline/internal/liteapi"
	"Postline/internal/metrics"
	"Postline/internal/ratelimit"
	"Postline/internal/service"
	"Postline/internal/storage"
	"Postline/internal/taskapi"
	"Postline/internal/worker"
)

func main() {

	// ------------------------------------------------
	// Logger
	// ------------------------------------------------
	logCfg := zap.NewProductionConfig()
	logger, err := logCfg.Build()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// ------------------------------------------------
	// Config
	// ------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	if lvl, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		logCfg.Level.SetLevel(lvl)
	} else {
		logger.Warn("invalid LOG_LEVEL, keeping info", zap.String("level", cfg.LogLevel))
	}

	// ------------------------------------------------
	// Root Context + Shutdown
	// ------------------------------------------------
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
		cancel()
	}()

	// ------------------------------------------------
	// Database
	// ------------------------------------------------
	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer store.Close()

	if err := store.RunMigrations(ctx); err != nil {
		logger.Fatal("database migration failed", zap.Error(err))
	}

	// ------------------------------------------------
	// Metrics
	// ------------------------------------------------
	metrics.Init()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())

	metricsServer := &http.Server{
		Addr:    ":" + cfg.MetricsPort,
		Handler: metricsMux,
	}

	go func() {
		logger.Info("metrics server started", zap.String("port", cfg.MetricsPort))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("metrics server error", zap.Error(err))
		}
	}()

	// ------------------------------------------------
	// File Storage
	// ------------------------------------------------
	var files storage.FileStore
	if cfg.UploadS3Bucket != "" {
		files, err = storage.NewS3(ctx, cfg.UploadS3Bucket, cfg.UploadS3Region, cfg.UploadS3Endpoint, cfg.UploadS3PathStyle)
		logger.Info("storing uploads in s3", zap.String("bucket", cfg.UploadS3Bucket))
	} else {
		files, err = storage.NewLocal(cfg.UploadDir)
		logger.Info("storing uploads on disk", zap.String("dir", cfg.UploadDir))
	}
	if err != nil {
		logger.Fatal("file storage init failed", zap.Error(err))
	}

	// ------------------------------------------------
	// Email Sender + Rate Limiter
	// ------------------------------------------------
	limiter := email.NewLimiter(cfg.SMTPRateLimit)
	if limiter == nil {
		logger.Warn("smtp send throttle disabled", zap.Float64("rate", cfg.SMTPRateLimit))
	}

	sender := email.NewSender(
		cfg.SMTPHost,
		cfg.SMTPPort,
		cfg.SMTPUser,
		cfg.SMTPPassword,
		cfg.SMTPFrom,
		limiter,
		cfg.SMTPRetryAttempts,
		logger.Named("email"),
	)

	// ------------------------------------------------
	// Outbox Schedulers
	// ------------------------------------------------
	sessions := func(ctx context.Context) (worker.Store, func(), error) {
		return store.OutboxSession(ctx)
	}
	attachments := &worker.PostAttachments{Posts: store, Files: files}

	outbox := worker.NewScheduler(
		"email-outbox",
		cfg.OutboxPollInterval,
		logger,
		worker.OutboxJob(sessions, sender, attachments, logger.Named("outbox")),
	)
	recovery := worker.NewScheduler(
		"email-outbox-recovery",
		cfg.OutboxRecoveryInterval,
		logger,
		worker.RecoveryJob(store, cfg.OutboxStaleAfter, logger.Named("outbox")),
	)

	var wg sync.WaitGroup
	for _, s := range []*worker.Scheduler{outbox, recovery} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Start(ctx)
		}()
	}

	// ------------------------------------------------
	// Services
	// ------------------------------------------------
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)

	hotelClient := liteapi.NewClient(cfg.LiteAPIURL, cfg.LiteAPIKey, cfg.LiteAPITimeout, cfg.HTTPRetryAttempts, logger.Named("liteapi"))
	taskClient := taskapi.NewClient(taskapi.Config{
		LoginURL:           cfg.TaskAPILoginURL,
		MessagesURL:        cfg.TaskAPIMessagesURL,
		Username:           cfg.TaskAPIUsername,
		InsecureSkipVerify: cfg.TaskAPIInsecureSkipVerify,
		Timeout:            cfg.TaskAPITimeout,
		Retries:            cfg.HTTPRetryAttempts,
	}, logger.Named("taskapi"))

	srv := &api.Server{
		Users:          service.NewUsers(store, tokens, logger),
		Profiles:       service.NewProfiles(store, store, logger),
		Posts:          service.NewPosts(store, store, files, logger),
		Hotels:         service.NewHotels(hotelClient, store, logger),
		TaskMessages:   service.NewTaskMessages(taskClient, store, logger),
		Broadcasts:     service.NewBroadcasts(store, cfg.BroadcastMaxRows, logger),
		MaxUploadBytes: cfg.MaxUploadBytes,
		Log:            logger,
	}

	// ------------------------------------------------
	// Auth Rate Limiting (Redis)
	// ------------------------------------------------
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		srv.AuthLimiter = ratelimit.NewTokenBucket(rdb, cfg.AuthRateCapacity, cfg.AuthRateRefill, cfg.AuthRateBucketTTL)
		logger.Info("auth rate limiting enabled", zap.String("redis", cfg.RedisAddr))
	}

	// ------------------------------------------------
	// HTTP API Server
	// ------------------------------------------------
	apiServer := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("api server started", zap.String("port", cfg.APIPort))
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("api server error", zap.Error(err))
		}
	}()

	// ------------------------------------------------
	// Wait for shutdown
	// ------------------------------------------------
	<-ctx.Done()

	logger.Info("shutting down services...")

	// Let an in-flight outbox pass finish
	outbox.Stop()
	recovery.Stop()
	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("api shutdown failed", zap.Error(err))
	}

	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics shutdown failed", zap.Error(err))
	}

	logger.Info("application shutdown complete")
}
