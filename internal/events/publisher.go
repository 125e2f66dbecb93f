package events

import (
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/mhudec/kniznica/internal/model"
	"github.com/mhudec/kniznica/pkg/breaker"
	"github.com/mhudec/kniznica/pkg/kafka"
)

// Publisher emits reservation lifecycle events after commit. The ledger
// is the source of truth, so publishing is best effort and must never
// roll back a reservation.
type Publisher interface {
	ReservationCreated(res model.Reservation)
	ReservationCancelled(res model.Reservation)
}

type publisher struct {
	producer sarama.SyncProducer
	cb       breaker.CircuitBreaker
	log      *zap.Logger
}

func NewPublisher(producer sarama.SyncProducer, log *zap.Logger) Publisher {
	return &publisher{
		producer: producer,
		cb:       breaker.New(20, 30*time.Second, 0.5, 5),
		log:      log.Named("events"),
	}
}

func (p *publisher) ReservationCreated(res model.Reservation) {
	p.publish(kafka.SimplexUp, res)
}

func (p *publisher) ReservationCancelled(res model.Reservation) {
	p.publish(kafka.SimplexDown, res)
}

func (p *publisher) publish(simplex string, res model.Reservation) {
	e := kafka.Event{
		Timestamp:      time.Now().UTC(),
		UserName:       res.Username,
		ReservationUid: res.ReservationUid,
		BookUid:        res.BookUid,
		Simplex:        simplex,
	}
	data, err := json.Marshal(e)
	if err != nil {
		p.log.Error("marshal event", zap.Error(err))
		return
	}
	if err := p.cb.Call(func() error {
		msg := &sarama.ProducerMessage{Topic: kafka.EventsTopic, Value: sarama.ByteEncoder(data)}
		_, _, err := p.producer.SendMessage(msg)
		return err
	}); err != nil {
		p.log.Warn("publish event",
			zap.String("simplex", simplex),
			zap.String("reservation_uid", res.ReservationUid),
			zap.Error(err))
	}
}

// Nop discards events. Used when Kafka is not configured.
func Nop() Publisher { return nopPublisher{} }

type nopPublisher struct{}

func (nopPublisher) ReservationCreated(model.Reservation)   {}
func (nopPublisher) ReservationCancelled(model.Reservation) {}
