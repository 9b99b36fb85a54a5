package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	config "github.com/NordCoder/Barberus/internal/config/scheduler"
	"github.com/NordCoder/Barberus/internal/obs"
	"github.com/NordCoder/Barberus/internal/obs/retry"
	"github.com/NordCoder/Barberus/internal/outbox"
	kafkaRepo "github.com/NordCoder/Barberus/internal/repository/kafka"
	pg "github.com/NordCoder/Barberus/internal/repository/postgres"
	"github.com/NordCoder/Barberus/internal/services/scheduler"
	"github.com/NordCoder/Barberus/internal/services/scheduler/repo"

	"go.uber.org/zap"
)

func main() {
	cfgPath := flag.String("config", "config/scheduler.yaml", "path to yaml config")
	flag.Parse()

	// init
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
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
	l.Info("starting scheduler",
		zap.Any("kafka_out", cfg.Kafka),
		zap.Duration("tick", cfg.Sched.Tick),
		zap.String("metrics_addr", cfg.Server.MetricsAddr),
	)

	// otel
	otelCloser, err := obs.SetupOTel(ctx, cfg.OTEL.AsOTELConfig(cfg.App))
	if err != nil {
		l.Warn("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	// db
	db, err := pg.NewDB(ctx, cfg.DB)
	if err != nil {
		l.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// kafka
	kafkaProd := kafkaRepo.BootstrapProducer(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, l)
	publisher := kafkaRepo.NewLifecycleEventsKafka(kafkaProd)
	defer func() { _ = kafkaProd.Close() }()

	// run metrics server
	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, db.Healthy, l)

	// outbox
	outboxRepo := pg.NewOutboxRepo(db)
	ob := outbox.NewOutboxRunner(l, outboxRepo,
		outbox.MakeGlobalOutboxHandler(publisher, retry.DefaultOutboxPolicy(l)),
		cfg.Outbox.Workers, cfg.Outbox.BatchSize, cfg.Outbox.Wait, cfg.Outbox.InProgressTTL,
	)
	ob.Start(ctx)

	// wiring
	uc := scheduler.NewUC(
		pg.NewTransactor(db, l),
		repo.Appointments{R: pg.NewAppointmentRepo(db)},
		repo.Events{R: outboxRepo},
	)
	runner := scheduler.New(l, uc, &cfg.Sched)

	// run
	errCh := make(chan error, 1)
	go func() { errCh <- runner.Run(ctx) }()

	l.Info("scheduler started")

	// loop
	select {
	case <-ctx.Done():
	case err = <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			l.Error("runner error", zap.Error(err))
		}
	}

	// graceful shutdown
	stop()
	ob.Wait()
	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
