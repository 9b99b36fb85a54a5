package kafka

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/NordCoder/Barberus/internal/obs"
	"github.com/NordCoder/Barberus/internal/obs/retry"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Handler func(ctx context.Context, key, value []byte) error

type Consumer struct {
	reader *kafka.Reader
	log    *zap.Logger
	cfg    *ConsumerConfig
}

type ConsumerConfig struct {
	Brokers       []string
	GroupID       string
	Topic         string
	FromBeginning bool
	// HandleAttempts bounds how many times one message is handed to the
	// handler before it is committed anyway.
	HandleAttempts int
	Logger         *zap.Logger
}

func NewConsumer(cfg *ConsumerConfig) *Consumer {
	if cfg.Logger == nil {
		cfg.Logger = zap.L()
	}

	start := kafka.LastOffset
	if cfg.FromBeginning {
		start = kafka.FirstOffset
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:               cfg.Brokers,
		GroupID:               cfg.GroupID,
		Topic:                 cfg.Topic,
		StartOffset:           start,
		WatchPartitionChanges: true,

		MinBytes:          1e3,
		MaxBytes:          10e6,
		SessionTimeout:    10 * time.Second,
		RebalanceTimeout:  15 * time.Second,
		HeartbeatInterval: 3 * time.Second,
	})

	if cfg.HandleAttempts <= 0 {
		cfg.HandleAttempts = 5
	}

	log := obs.Component(cfg.Logger, "kafka.consumer").With(
		zap.String("topic", cfg.Topic),
		zap.String("group", cfg.GroupID),
	)

	return &Consumer{reader: r, log: log, cfg: cfg}
}

func (c *Consumer) WithLogger(l *zap.Logger) *Consumer {
	if l == nil {
		return c
	}
	cp := *c
	cp.log = obs.Component(l, "kafka.consumer").With(
		zap.String("topic", c.cfg.Topic),
		zap.String("group", c.cfg.GroupID),
	)
	return &cp
}

func (c *Consumer) Consume(ctx context.Context, h Handler) error {
	log := c.log
	log.Info("consumer started")

	backoff := 200 * time.Millisecond
	const maxBackoff = 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			log.Info("consumer stopped (ctx canceled)")
			return ctx.Err()
		default:
		}

		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("consumer stopped (ctx canceled)")
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				log.Debug("fetch EOF; retry", zap.Duration("backoff", backoff))
			} else {
				log.Warn("fetch failed; retry", zap.Error(err), zap.Duration("backoff", backoff))
			}
			time.Sleep(backoff)
			if backoff < maxBackoff {
				backoff *= 2
			}
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}

		backoff = 200 * time.Millisecond

		if err := retry.Do(ctx, func() error { return c.handle(ctx, h, msg) }, c.redelivery()); err != nil {
			if ctx.Err() != nil {
				log.Info("consumer stopped (ctx canceled)")
				return ctx.Err()
			}
			consumedTotal.WithLabelValues(c.cfg.Topic, "dropped").Inc()
			log.Error("handler gave up; committing",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Int("attempts", c.cfg.HandleAttempts),
				zap.Error(err),
			)
		} else {
			consumedTotal.WithLabelValues(c.cfg.Topic, "ok").Inc()
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				log.Info("commit interrupted by context cancel")
				return ctx.Err()
			}
			log.Warn("commit failed; will retry later", zap.Error(err))
		}
	}
}

// redelivery hands a failed message back to the handler until it succeeds
// or the attempts run out. The offset is not committed in between.
func (c *Consumer) redelivery() retry.Policy {
	return retry.Policy{
		Name:     "kafka_redelivery",
		Attempts: c.cfg.HandleAttempts,
		Backoff:  retry.ExpoJitter{Base: 500 * time.Millisecond, Max: 30 * time.Second, Jitter: 0.2},
		Retryable: func(err error) bool {
			return !retry.IsPermanent(err)
		},
		OnAttempt: func(i int, err error) {
			consumedTotal.WithLabelValues(c.cfg.Topic, "error").Inc()
			c.log.Warn("handler error", zap.Int("attempt", i+1), zap.Error(err))
		},
	}
}

// handle continues the producer's trace from the record headers.
func (c *Consumer) handle(ctx context.Context, h Handler, msg kafka.Message) error {
	ctx = otel.GetTextMapPropagator().Extract(ctx, mapCarrierFromKafka(msg.Headers))
	ctx, span := otel.Tracer("kafka.consumer").Start(ctx, "kafka.consume "+msg.Topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			semconv.MessagingSystemKafka,
			semconv.MessagingDestinationName(msg.Topic),
			semconv.MessagingKafkaMessageOffset(int(msg.Offset)),
		),
	)
	defer span.End()

	err := h(ctx, msg.Key, msg.Value)
	if err != nil {
		span.RecordError(err)
	}
	return err
}

func (c *Consumer) Close() error { return c.reader.Close() }
