package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/licenzohq/expiry-notifier/internal/config/expiry-scan"
	"github.com/licenzohq/expiry-notifier/internal/obs"
	pg "github.com/licenzohq/expiry-notifier/internal/repository/postgres"
	sender "github.com/licenzohq/expiry-notifier/internal/services/email-sender"
	"github.com/licenzohq/expiry-notifier/internal/services/expiry"
	"github.com/licenzohq/expiry-notifier/internal/services/expiry/repo"

	"go.uber.org/zap"
)

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// expiry-scan is the run-once variant: connect, scan, notify inline over
// SMTP, exit. A DB that cannot be reached is fatal; everything after that
// point is logged and the process still exits zero.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(env("CONFIG_PATH", "config/expiry-scan.yaml"))
	if err != nil {
		log.Fatal(err)
	}

	l, err := obs.NewLogger(cfg.Log.AsLoggerConfig())
	if err != nil {
		log.Fatal(err)
	}
	l.Info("starting expiry-scan", zap.String("smtp_addr", cfg.SMTP.Addr))

	otelCloser, err := obs.SetupOTel(ctx, cfg.OTEL.AsOTELConfig())
	if err != nil {
		l.Warn("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	db, err := pg.NewDB(ctx, cfg.DB)
	if err != nil {
		l.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()
	l.Info("db connected")

	mailer := sender.NewMailer(cfg.SMTP).WithLogger(l)

	uc := &expiry.Usecase{
		Serials: repo.SerialSource{R: pg.NewSerialRepo(db)},
		Assigns: repo.AssignmentSource{R: pg.NewAssignmentRepo(db)},
		Users:   repo.UserSource{R: pg.NewUserRepo(db)},
		Guard:   repo.DedupGuard{R: pg.NewNotificationRepo(db)},
		Writer:  &expiry.DirectWriter{Store: pg.NewNotificationRepo(db), Mail: mailer, Log: l},
		Clock:   systemClock{},
		Log:     l,
	}

	stats, err := uc.Run(ctx)
	if err != nil {
		l.Error("scan run error", zap.Error(err))
	}
	l.Info("scan finished",
		zap.Int("scanned", stats.Scanned),
		zap.Int("expiring_soon", stats.ExpiringSoon),
		zap.Int("expired", stats.Expired),
		zap.Int("skipped_no_tag", stats.SkippedNoTag),
		zap.Int("deduped", stats.Deduped),
		zap.Int("created", stats.Created),
		zap.Int("errors", stats.Errors),
	)
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
