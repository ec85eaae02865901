package expiry

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	config "github.com/licenzohq/expiry-notifier/internal/config/scheduler"
)

// Runner triggers the scan on a cron spec. Cron runs in UTC so the trigger
// day matches the reference day the pipeline computes.
type Runner struct {
	Log *zap.Logger
	UC  *Usecase
	Cfg *config.SchedCfg

	mRuns    prometheus.Counter
	mScanned prometheus.Counter
	mCreated prometheus.Counter
	mDeduped prometheus.Counter
	mErr     prometheus.Counter
	mRunDur  prometheus.Histogram
}

func New(log *zap.Logger, uc *Usecase, cfg *config.SchedCfg) *Runner {
	return &Runner{
		Log: log,
		UC:  uc,
		Cfg: cfg,
		mRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "expiry_scans_total", Help: "Completed scan runs",
		}),
		mScanned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "expiry_serials_scanned_total", Help: "Serials evaluated",
		}),
		mCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "expiry_notifications_created_total", Help: "Notifications persisted",
		}),
		mDeduped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "expiry_notifications_deduped_total", Help: "Recipients skipped by the per-day dedup guard",
		}),
		mErr: promauto.NewCounter(prometheus.CounterOpts{
			Name: "expiry_scan_errors_total", Help: "Unit-level errors in scan runs",
		}),
		mRunDur: promauto.NewHistogram(prometheus.HistogramOpts{
			Name: "expiry_scan_duration_seconds", Help: "Scan run duration",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (r *Runner) runOnce(ctx context.Context) {
	start := time.Now()
	stats, err := r.UC.Run(ctx)
	if err != nil {
		r.mErr.Inc()
		r.Log.Warn("scan run error", zap.Error(err))
	}
	r.mRuns.Inc()
	r.mScanned.Add(float64(stats.Scanned))
	r.mCreated.Add(float64(stats.Created))
	r.mDeduped.Add(float64(stats.Deduped))
	if stats.Errors > 0 {
		r.mErr.Add(float64(stats.Errors))
	}
	r.mRunDur.Observe(time.Since(start).Seconds())

	r.Log.Info("scan finished",
		zap.Int("scanned", stats.Scanned),
		zap.Int("expired", stats.Expired),
		zap.Int("expiring_soon", stats.ExpiringSoon),
		zap.Int("skipped_no_tag", stats.SkippedNoTag),
		zap.Int("created", stats.Created),
		zap.Int("deduped", stats.Deduped),
		zap.Int("errors", stats.Errors),
		zap.Duration("elapsed", time.Since(start)),
	)
}

func (r *Runner) Run(ctx context.Context) error {
	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(r.Cfg.CronSpec, func() { r.runOnce(ctx) }); err != nil {
		return fmt.Errorf("cron spec %q: %w", r.Cfg.CronSpec, err)
	}

	if r.Cfg.RunOnStart {
		r.runOnce(ctx)
	}

	c.Start()
	<-ctx.Done()

	// Let an in-flight run finish before reporting shutdown.
	<-c.Stop().Done()
	return ctx.Err()
}
