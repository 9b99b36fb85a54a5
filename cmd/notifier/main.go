package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/NordCoder/Barberus/internal/config/notifier"
	"github.com/NordCoder/Barberus/internal/domain/notification"
	"github.com/NordCoder/Barberus/internal/obs"
	"github.com/NordCoder/Barberus/internal/obs/retry"
	"github.com/NordCoder/Barberus/internal/repository/kafka"
	pg "github.com/NordCoder/Barberus/internal/repository/postgres"
	redisinfra "github.com/NordCoder/Barberus/internal/repository/redis"
	"github.com/NordCoder/Barberus/internal/services/lifecycle"
	"github.com/NordCoder/Barberus/internal/services/lifecycle/repo"
	"github.com/NordCoder/Barberus/internal/services/notifier"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

func buildSenders(ctx context.Context, cfg *config.Config, l *zap.Logger) []notification.Sender {
	var senders []notification.Sender

	mailer := notifier.NewMailer(cfg.SMTP).WithLogger(l)
	senders = append(senders, mailer)

	switch cfg.Push.Provider {
	case config.PushWebPush:
		senders = append(senders, notifier.NewWebPushSender(cfg.Push, nil).WithLogger(l))
	case config.PushFCM:
		fcm, err := notifier.NewFCMSender(ctx, cfg.Push, l)
		if err != nil {
			l.Fatal("fcm init", zap.Error(err))
		}
		senders = append(senders, fcm)
	default:
		l.Warn("push disabled; users with push enabled will see push failures")
	}

	out := make([]notification.Sender, 0, len(senders))
	for _, s := range senders {
		pol := retry.SendPolicy("send_"+string(s.Channel()), cfg.Dispatch.RetryAttempts, cfg.Dispatch.RetryBase,
			notifier.PermanentFor(s), l)
		out = append(out, notifier.WithRetry(s, pol))
	}
	return out
}

func wiring(ctx context.Context, db *pg.DB, rdb *redis.Client, cfg *config.Config, cons *kafka.Consumer, l *zap.Logger) *lifecycle.Controller {
	users := pg.NewUserRepo(db)
	appts := pg.NewAppointmentRepo(db)
	notifs := pg.NewNotificationRepo(db)

	var recipients notifier.UserReader = repo.UserReader{R: users}
	pruner := repo.SubscriptionPruner{R: users}
	if rdb != nil {
		cache := redisinfra.NewCachedUsers(rdb, recipients, cfg.Redis.TTL, l)
		recipients = cache
		pruner.Cache = cache
	}

	loc, err := time.LoadLocation(cfg.Render.Timezone)
	if err != nil {
		l.Fatal("render timezone", zap.String("timezone", cfg.Render.Timezone), zap.Error(err))
	}
	renderer := notifier.NewRenderer(notifier.RenderConfig{
		AppointmentsURL: cfg.Render.AppointmentsURL,
		ReviewsURL:      cfg.Render.ReviewsURL,
		Icon:            cfg.Render.Icon,
		Location:        loc,
	})

	dispatcher := notifier.NewDispatcher(recipients, renderer, cfg.Dispatch.SendTimeout, l, buildSenders(ctx, cfg, l)...)

	uc := &lifecycle.Handler{
		Appointments: repo.AppointmentReader{R: appts},
		Dispatcher:   dispatcher,
		History:      notifs,
		Pruner:       pruner,
		Clock:        systemClock{},
		RequireEmail: cfg.Dispatch.RequireEmail,
		Log:          obs.Component(l, "lifecycle"),
	}

	return &lifecycle.Controller{Log: l, Sub: cons, UC: uc, Validate: validator.New()}
}

func main() {
	cfgPath := flag.String("config", "config/notifier.yaml", "path to yaml config")
	flag.Parse()

	// init
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	// logger
	l, err := obs.NewLogger(cfg.Log.AsLoggerConfig(cfg.App))
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Sync() }()

	l.Info("starting notifier",
		zap.Any("kafka_in", cfg.In),
		zap.String("metrics_addr", cfg.Server.MetricsAddr),
		zap.String("smtp_host", cfg.SMTP.Host),
		zap.String("push_provider", cfg.Push.Provider),
	)

	// otel
	otelCloser, err := obs.SetupOTel(rootCtx, cfg.OTEL.AsOTELConfig(cfg.App))
	if err != nil {
		l.Warn("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	// db
	db, err := pg.NewDB(rootCtx, cfg.DB)
	if err != nil {
		l.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()
	l.Info("db connected")

	// redis
	var rdb *redis.Client
	if cfg.Redis.Enable {
		rdb, err = redisinfra.NewClient(rootCtx, cfg.Redis)
		if err != nil {
			l.Warn("redis unavailable; recipient cache disabled", zap.Error(err))
			rdb = nil
		} else {
			defer func() { _ = rdb.Close() }()
		}
	}

	// metrics
	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, db.Healthy, l)

	// kafka
	cons := kafka.BootstrapConsumer(rootCtx, cfg.In.AsConsumerConfig(), l).WithLogger(l)
	defer func() { _ = cons.Close() }()
	l.Info("kafka consumer initialized",
		zap.Strings("brokers", cfg.In.Brokers),
		zap.String("group_id", cfg.In.GroupID),
		zap.String("topic", cfg.In.Topic),
	)

	// start
	ctrl := wiring(rootCtx, db, rdb, cfg, cons, l)
	errCh := make(chan error, 1)
	go func() {
		l.Info("controller starting")
		errCh <- ctrl.Run(rootCtx)
	}()

	// main loop
	select {
	case <-rootCtx.Done():
		l.Info("shutdown signal")
	case runErr := <-errCh:
		if runErr != nil && !errors.Is(runErr, context.Canceled) {
			l.Error("controller error", zap.Error(runErr))
		}
	}

	// graceful metrics server shutdown
	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
