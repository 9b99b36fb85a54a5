package config

import (
	"time"

	"github.com/NordCoder/Barberus/internal/obs"
	kafkax "github.com/NordCoder/Barberus/internal/repository/kafka"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

func (oc *OTEL) AsOTELConfig(app App) *obs.OTELConfig {
	name := oc.ServiceName
	if name == "" {
		name = "barberus-" + app.Name
	}
	return &obs.OTELConfig{
		Enable:      oc.Enable,
		Endpoint:    oc.OTLPEndpoint,
		ServiceName: name,
		Env:         app.Env,
		Version:     app.Version,
		SampleRatio: oc.SampleRatio,
	}
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func (lc *Log) AsLoggerConfig(app App) obs.LogConfig {
	return obs.LogConfig{
		Level:  lc.Level,
		Pretty: lc.Pretty,
		App:    "barberus/" + app.Name,
		Env:    app.Env,
		Ver:    app.Version,
	}
}

type KafkaIn struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
	// HandleAttempts bounds redelivery of one message before it is skipped.
	HandleAttempts int `mapstructure:"handle_attempts"`
}

func (k *KafkaIn) AsConsumerConfig() *kafkax.ConsumerConfig {
	return &kafkax.ConsumerConfig{
		Brokers:        k.Brokers,
		GroupID:        k.GroupID,
		Topic:          k.Topic,
		HandleAttempts: k.HandleAttempts,
	}
}

type KafkaOut struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type Server struct {
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
}

type ErrConfig string

func (e ErrConfig) Error() string { return string(e) }
