package scheduler_config

import (
	"time"

	"github.com/NordCoder/Barberus/internal/config"
	pginfra "github.com/NordCoder/Barberus/internal/repository/postgres"
)

type SchedCfg struct {
	Tick       time.Duration `mapstructure:"tick"`
	BatchLimit int           `mapstructure:"batch_limit"`
}

type OutboxCfg struct {
	Workers       int           `mapstructure:"workers"`
	BatchSize     int           `mapstructure:"batch_size"`
	Wait          time.Duration `mapstructure:"wait"`
	InProgressTTL time.Duration `mapstructure:"in_progress_ttl"`
}

type Config struct {
	App    config.App      `mapstructure:"app"`
	DB     pginfra.Config  `mapstructure:"db"`
	Kafka  config.KafkaOut `mapstructure:"kafka_out"`
	Sched  SchedCfg        `mapstructure:"sched"`
	Outbox OutboxCfg       `mapstructure:"outbox"`
	Server config.Server   `mapstructure:"server"`
	OTEL   config.OTEL     `mapstructure:"otel"`
	Log    config.Log      `mapstructure:"log"`
}
