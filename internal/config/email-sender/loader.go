package email_sender_config

import (
	"strings"

	"github.com/spf13/viper"
)

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		_ = v.ReadInConfig()
	}

	v.SetDefault("kafka_in.brokers", []string{"localhost:9094"})
	v.SetDefault("kafka_in.topic", "licenzo.email.dispatch")
	v.SetDefault("kafka_in.group_id", "email-sender")

	v.SetDefault("smtp.addr", "localhost:1025")
	v.SetDefault("smtp.from", "noreply@licenzo.dev")
	v.SetDefault("smtp.use_tls", false)
	v.SetDefault("smtp.timeout", "5s")
	v.SetDefault("smtp.subj_prefix", "[Licenzo]")

	v.SetDefault("otel.enable", false)
	v.SetDefault("otel.service_name", "email-sender")
	v.SetDefault("otel.sample_ratio", 1.0)
	v.SetDefault("otel.otlp_endpoint", "localhost:4317")

	v.SetDefault("server.metrics_addr", ":8084")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
