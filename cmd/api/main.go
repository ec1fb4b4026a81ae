package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-booking-engine/internal/audit"
	"github.com/BruksfildServices01/barber-booking-engine/internal/config"
	dbpkg "github.com/BruksfildServices01/barber-booking-engine/internal/db"
	infraRepo "github.com/BruksfildServices01/barber-booking-engine/internal/infra/repository"
	"github.com/BruksfildServices01/barber-booking-engine/internal/lock"
	"github.com/BruksfildServices01/barber-booking-engine/internal/logger"
	"github.com/BruksfildServices01/barber-booking-engine/internal/middleware"
	"github.com/BruksfildServices01/barber-booking-engine/internal/notify"
	"github.com/BruksfildServices01/barber-booking-engine/internal/routes"
	"github.com/BruksfildServices01/barber-booking-engine/internal/scheduling"
	"github.com/BruksfildServices01/barber-booking-engine/internal/tracing"
)

func main() {
	cfg := config.Load()

	log := logger.New(cfg.Env, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg)
	if err != nil {
		log.Fatal("failed to setup tracing", zap.Error(err))
	}

	db := dbpkg.NewDB(cfg, log)

	// --------------------------------------------------
	// Redis (lock distribuído / rate limit compartilhado)
	// --------------------------------------------------
	var rdb *redis.Client
	if cfg.LockBackend == "redis" || cfg.RateLimitBackend == "redis" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal("failed to connect redis", zap.Error(err))
		}
		defer rdb.Close()
	}

	var locker lock.Locker
	switch cfg.LockBackend {
	case "redis":
		locker = lock.NewRedis(rdb, cfg.LockWaitTimeout, cfg.LockTTL)
	default:
		// só serve para uma instância da API
		locker = lock.NewLocal(cfg.LockWaitTimeout)
	}

	var limiter middleware.Limiter
	switch cfg.RateLimitBackend {
	case "redis":
		limiter = middleware.NewRedisLimiter(rdb, cfg.RateLimitBurst, cfg.RateLimitWindow)
	default:
		ipl := middleware.NewIPLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		go ipl.Cleanup(ctx, time.Minute)
		limiter = ipl
	}

	// --------------------------------------------------
	// Notificação da lista de espera
	// --------------------------------------------------
	var dispatcher notify.Dispatcher
	switch cfg.NotifyBackend {
	case "asynq":
		client := asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer client.Close()
		dispatcher = notify.NewAsynqDispatcher(client)
	default:
		dispatcher = notify.NewLogDispatcher(log)
	}

	auditDispatcher := audit.NewDispatcher(audit.New(db), log)
	defer auditDispatcher.Close()

	appointmentRepo := infraRepo.NewAppointmentGormRepository(db)
	waitlistRepo := infraRepo.NewWaitlistGormRepository(db)

	svc := scheduling.New(scheduling.Deps{
		Appointments:   appointmentRepo,
		Waitlist:       waitlistRepo,
		Locker:         locker,
		Dispatcher:     dispatcher,
		Audit:          auditDispatcher,
		Log:            log,
		BookingURL:     cfg.BookingURL,
		TimeoutRetries: cfg.BookingTimeoutRetries,
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	routes.RegisterRoutes(r, routes.Deps{
		DB:         db,
		Config:     cfg,
		Log:        log,
		Repo:       appointmentRepo,
		Scheduling: svc,
		Audit:      auditDispatcher,
		Limiter:    limiter,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           otelhttp.NewHandler(r, "barber-booking-api"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server running", zap.String("addr", cfg.Addr()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown", zap.Error(err))
	}
}
