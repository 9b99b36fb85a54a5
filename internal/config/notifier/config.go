package notifier_config

import (
	"time"

	"github.com/NordCoder/Barberus/internal/config"
	pginfra "github.com/NordCoder/Barberus/internal/repository/postgres"
	redisinfra "github.com/NordCoder/Barberus/internal/repository/redis"
)

type SMTP struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	UseTLS   bool   `mapstructure:"use_tls"`
}

const (
	PushWebPush = "webpush"
	PushFCM     = "fcm"
	PushNone    = "none"
)

type Push struct {
	Provider            string        `mapstructure:"provider"`
	VAPIDPublicKey      string        `mapstructure:"vapid_public_key"`
	VAPIDPrivateKey     string        `mapstructure:"vapid_private_key"`
	Subscriber          string        `mapstructure:"subscriber"`
	TTL                 time.Duration `mapstructure:"ttl"`
	FirebaseCredentials string        `mapstructure:"firebase_credentials"`
	FirebaseProjectID   string        `mapstructure:"firebase_project_id"`
}

type Dispatch struct {
	SendTimeout   time.Duration `mapstructure:"send_timeout"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryBase     time.Duration `mapstructure:"retry_base"`
	RequireEmail  bool          `mapstructure:"require_email"`
}

type Render struct {
	AppointmentsURL string `mapstructure:"appointments_url"`
	ReviewsURL      string `mapstructure:"reviews_url"`
	Icon            string `mapstructure:"icon"`
	Timezone        string `mapstructure:"timezone"`
}

type Config struct {
	App      config.App        `mapstructure:"app"`
	DB       pginfra.Config    `mapstructure:"db"`
	Redis    redisinfra.Config `mapstructure:"redis"`
	In       config.KafkaIn    `mapstructure:"kafka_in"`
	SMTP     SMTP              `mapstructure:"smtp"`
	Push     Push              `mapstructure:"push"`
	Dispatch Dispatch          `mapstructure:"dispatch"`
	Render   Render            `mapstructure:"render"`
	Server   config.Server     `mapstructure:"server"`
	OTEL     config.OTEL       `mapstructure:"otel"`
	Log      config.Log        `mapstructure:"log"`
}
