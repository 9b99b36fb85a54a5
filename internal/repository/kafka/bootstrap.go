package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// lifecycle events are keyed by appointment id, so partitions only bound parallelism
const defaultPartitions = 3

func bootstrapTopic(ctx context.Context, brokers []string, topic string, logger *zap.Logger) {
	err := EnsureTopic(ctx, brokers, TopicSpec{
		Name:              topic,
		NumPartitions:     defaultPartitions,
		ReplicationFactor: 1,
		MaxWait:           5 * time.Second,
	}, logger)
	if err != nil && logger != nil {
		logger.Warn("topic bootstrap failed; relying on broker auto-create", zap.String("topic", topic), zap.Error(err))
	}
}

func BootstrapConsumer(ctx context.Context, cfg *ConsumerConfig, logger *zap.Logger) *Consumer {
	bootstrapTopic(ctx, cfg.Brokers, cfg.Topic, logger)
	return NewConsumer(cfg)
}

// BootstrapProducer makes sure the topic exists before the first write.
func BootstrapProducer(ctx context.Context, brokers []string, topic string, logger *zap.Logger) *Producer {
	bootstrapTopic(ctx, brokers, topic, logger)
	return NewProducer(brokers, topic).WithLogger(logger)
}
