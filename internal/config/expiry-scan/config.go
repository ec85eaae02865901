package expiry_scan_config

import (
	"github.com/licenzohq/expiry-notifier/internal/obs"
	pginfra "github.com/licenzohq/expiry-notifier/internal/repository/postgres"
	sender "github.com/licenzohq/expiry-notifier/internal/services/email-sender"
)

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
		App:    "expiry-notifier/expiry-scan",
	}
}

type Config struct {
	DB   pginfra.Config    `mapstructure:"db"`
	SMTP sender.SMTPConfig `mapstructure:"smtp"`
	OTEL OTEL              `mapstructure:"otel"`
	Log  Log               `mapstructure:"log"`
}
