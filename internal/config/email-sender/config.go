package email_sender_config

import (
	"github.com/licenzohq/expiry-notifier/internal/obs"
	kafkax "github.com/licenzohq/expiry-notifier/internal/repository/kafka"
	sender "github.com/licenzohq/expiry-notifier/internal/services/email-sender"
)

type KafkaIn struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

func (k *KafkaIn) AsConsumerConfig() *kafkax.ConsumerConfig {
	return &kafkax.ConsumerConfig{
		Brokers: k.Brokers,
		GroupID: k.GroupID,
		Topic:   k.Topic,
	}
}

type Server struct {
	MetricsAddr string `mapstructure:"metrics_addr"`
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
		App:    "expiry-notifier/email-sender",
	}
}

type Config struct {
	In     KafkaIn           `mapstructure:"kafka_in"`
	SMTP   sender.SMTPConfig `mapstructure:"smtp"`
	Server Server            `mapstructure:"server"`
	OTEL   OTEL              `mapstructure:"otel"`
	Log    Log               `mapstructure:"log"`
}
