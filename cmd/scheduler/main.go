package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/licenzohq/expiry-notifier/internal/config/scheduler"
	"github.com/licenzohq/expiry-notifier/internal/obs"
	"github.com/licenzohq/expiry-notifier/internal/obs/retry"
	"github.com/licenzohq/expiry-notifier/internal/outbox"
	kafkaRepo "github.com/licenzohq/expiry-notifier/internal/repository/kafka"
	pg "github.com/licenzohq/expiry-notifier/internal/repository/postgres"
	"github.com/licenzohq/expiry-notifier/internal/services/expiry"
	"github.com/licenzohq/expiry-notifier/internal/services/expiry/repo"

	"go.uber.org/zap"
)

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

func main() {
	// init
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cfg, err := config.Load(env("CONFIG_PATH", "config/scheduler.yaml"))
	if err != nil {
		log.Fatal(err)
	}

	// logger
	l, err := obs.NewLogger(cfg.Log.AsLoggerConfig())
	if err != nil {
		log.Fatal(err)
	}
	l.Info("starting scheduler",
		zap.Any("kafka_out", cfg.Kafka),
		zap.String("cron_spec", cfg.Sched.CronSpec),
		zap.String("metrics_addr", cfg.Sched.MetricsAddr),
	)

	// otel
	otelCloser, err := obs.SetupOTel(ctx, cfg.OTEL.AsOTELConfig())
	if err != nil {
		l.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	// db
	db, err := pg.NewDB(ctx, cfg.DB)
	if err != nil {
		l.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// kafka
	kafkaProd := kafkaRepo.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	publisher := kafkaRepo.NewMailEventsKafka(kafkaProd)
	defer func() { _ = kafkaProd.Close() }()

	// metrics
	ms := obs.BootstrapMetricsServer(cfg.Sched.MetricsAddr, func(ctx context.Context) error {
		hctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		return db.Pool.Ping(hctx)
	}, l)

	// outbox workers drain email-dispatch rows into kafka
	boxRepo := pg.NewOutboxRepo(db)
	dispatch := outbox.MakeGlobalOutboxHandler(publisher, retry.DefaultDispatchPolicy(l))
	boxRunner := outbox.NewOutboxRunner(l, boxRepo, dispatch,
		cfg.Outbox.Workers, cfg.Outbox.BatchSize, cfg.Outbox.WaitTime, cfg.Outbox.InProgressTTL)
	boxRunner.Start(ctx)

	// wiring
	notifs := pg.NewNotificationRepo(db)
	uc := &expiry.Usecase{
		Serials: repo.SerialSource{R: pg.NewSerialRepo(db)},
		Assigns: repo.AssignmentSource{R: pg.NewAssignmentRepo(db)},
		Users:   repo.UserSource{R: pg.NewUserRepo(db)},
		Guard:   repo.DedupGuard{R: notifs},
		Writer: &expiry.OutboxWriter{
			Tx:    pg.NewTransactor(db, l),
			Store: notifs,
			Box:   boxRepo,
			Clock: systemClock{},
		},
		Clock: systemClock{},
		Log:   l,
	}
	runner := expiry.New(l, uc, &cfg.Sched)

	// run
	errCh := make(chan error, 1)
	go func() { errCh <- runner.Run(ctx) }()

	l.Info("scheduler started")

	// loop
	select {
	case <-ctx.Done():
	case err = <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			l.Error("runner error", zap.Error(err))
		}
	}

	// graceful shutdown
	shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
