package scheduler_config

import (
	"time"

	"github.com/licenzohq/expiry-notifier/internal/obs"
	pginfra "github.com/licenzohq/expiry-notifier/internal/repository/postgres"
)

type KafkaCfg struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type SchedCfg struct {
	CronSpec    string `mapstructure:"cron_spec"`
	RunOnStart  bool   `mapstructure:"run_on_start"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

type OutboxCfg struct {
	Workers       int           `mapstructure:"workers"`
	BatchSize     int           `mapstructure:"batch_size"`
	WaitTime      time.Duration `mapstructure:"wait_time"`
	InProgressTTL time.Duration `mapstructure:"in_progress_ttl"`
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

func (oc *OTEL) AsOTELConfig() *obs.OTELConfig {
	return &obs.OTELConfig{
		Enable:      oc.Enable,
		Endpoint:    oc.OTLPEndpoint,
		ServiceName: oc.ServiceName,
		SampleRatio: oc.SampleRatio,
	}
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func (lc *Log) AsLoggerConfig() *obs.LogConfig {
	return &obs.LogConfig{
		Level:  lc.Level,
		Pretty: lc.Pretty,
		App:    "expiry-notifier/scheduler",
	}
}

type Config struct {
	DB     pginfra.Config `mapstructure:"db"`
	Kafka  KafkaCfg       `mapstructure:"kafka"`
	Sched  SchedCfg       `mapstructure:"sched"`
	Outbox OutboxCfg      `mapstructure:"outbox"`
	OTEL   OTEL           `mapstructure:"otel"`
	Log    Log            `mapstructure:"log"`
}
