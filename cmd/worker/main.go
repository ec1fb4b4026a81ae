package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-booking-engine/internal/audit"
	"github.com/BruksfildServices01/barber-booking-engine/internal/config"
	dbpkg "github.com/BruksfildServices01/barber-booking-engine/internal/db"
	infraRepo "github.com/BruksfildServices01/barber-booking-engine/internal/infra/repository"
	"github.com/BruksfildServices01/barber-booking-engine/internal/lock"
	"github.com/BruksfildServices01/barber-booking-engine/internal/logger"
	"github.com/BruksfildServices01/barber-booking-engine/internal/notify"
	"github.com/BruksfildServices01/barber-booking-engine/internal/scheduling"
	"github.com/BruksfildServices01/barber-booking-engine/internal/tracing"
)

// O worker entrega os avisos da lista de espera enfileirados pela API e
// expira periodicamente as esperas de datas passadas.
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
	defer func() { _ = shutdownTracing(context.Background()) }()

	db := dbpkg.NewDB(cfg, log)

	auditDispatcher := audit.NewDispatcher(audit.New(db), log)
	defer auditDispatcher.Close()

	// expiração não reserva nem avisa; lock e dispatcher locais bastam
	svc := scheduling.New(scheduling.Deps{
		Appointments: infraRepo.NewAppointmentGormRepository(db),
		Waitlist:     infraRepo.NewWaitlistGormRepository(db),
		Locker:       lock.NewLocal(cfg.LockWaitTimeout),
		Dispatcher:   notify.NewLogDispatcher(log),
		Audit:        auditDispatcher,
		Log:          log,
		BookingURL:   cfg.BookingURL,
	})

	var sender notify.Dispatcher = notify.NewLogDispatcher(log)
	if cfg.EmailAPIKey != "" {
		sender = notify.NewEmailSender(cfg.EmailAPIURL, cfg.EmailAPIKey, cfg.EmailFrom)
	} else {
		log.Warn("EMAIL_API_KEY not set, notifications will only be logged")
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			"default": 6,
			"low":     1,
		},
		Logger: log.Sugar(),
	})

	mux := asynq.NewServeMux()
	mux.Handle(notify.TypeWaitlistNotify, notify.NotifyHandler(sender, log))
	mux.Handle(notify.TypeWaitlistExpire, notify.ExpireHandler(svc.ExpireWaitlist, log))

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{Logger: log.Sugar()})
	if _, err := scheduler.Register(cfg.WaitlistExpiryCron, notify.NewExpireTask()); err != nil {
		log.Fatal("failed to register expiry job", zap.Error(err))
	}

	if err := scheduler.Start(); err != nil {
		log.Fatal("scheduler failed to start", zap.Error(err))
	}
	defer scheduler.Shutdown()

	if err := srv.Start(mux); err != nil {
		log.Fatal("asynq server failed to start", zap.Error(err))
	}

	log.Info("worker running", zap.String("expiry_cron", cfg.WaitlistExpiryCron))
	<-ctx.Done()

	log.Info("shutting down")
	srv.Shutdown()
}
