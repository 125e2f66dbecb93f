package kafka

import (
	"context"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

type Config struct {
	Addrs []string `yaml:"addrs" envconfig:"KAFKA_ADDRS" default:"localhost:9092"`
}

const (
	EventsTopic        = "reservation-events"
	StatsConsumerGroup = "kniznica-stats"
)

const (
	SimplexUp   = "UP"
	SimplexDown = "DOWN"
)

// Event is published after every committed reservation state change.
type Event struct {
	Timestamp      time.Time `json:"timestamp"`
	UserName       string    `json:"username"`
	ReservationUid string    `json:"reservationUid"`
	BookUid        string    `json:"bookUid"`
	Simplex        string    `json:"simplex"`
}

func NewProducer(cfg Config) (sarama.SyncProducer, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Producer.RequiredAcks = sarama.WaitForAll
	defaultCfg.Producer.Return.Successes = true

	return sarama.NewSyncProducer(cfg.Addrs, defaultCfg)
}

func NewConsumer(cfg Config, group string) (sarama.ConsumerGroup, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Consumer.Offsets.Initial = sarama.OffsetOldest

	return sarama.NewConsumerGroup(cfg.Addrs, group, defaultCfg)
}

// Consume runs the consumer group loop until ctx is cancelled.
func Consume(ctx context.Context, consumer sarama.ConsumerGroup, h sarama.ConsumerGroupHandler, topic string, log *zap.Logger) {
	for {
		if err := consumer.Consume(ctx, []string{topic}, h); err != nil {
			log.Error("consumer.Consume", zap.Error(err))
		}
		if ctx.Err() != nil {
			return
		}
	}
}
