package handler

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/IBM/sarama"
	"github.com/lbrs/book-reservation-service/pkg/kafka"
	"go.uber.org/zap"
)

type recordEvent func(ctx context.Context, event kafka.ReservationEvent) error

type Consumer struct {
	recordEventHandler recordEvent
	log                *zap.Logger
	ready              chan bool
	readyOnce          sync.Once
}

func NewConsumer(record recordEvent, log *zap.Logger) *Consumer {
	return &Consumer{
		recordEventHandler: record,
		log:                log.Named("consumer"),
		ready:              make(chan bool),
	}
}

// Setup runs at the start of every consumer group session. Sessions restart
// on every rebalance, so the readiness signal must fire only once.
func (consumer *Consumer) Setup(sarama.ConsumerGroupSession) error {
	consumer.readyOnce.Do(func() {
		close(consumer.ready)
	})
	return nil
}

// Ready is closed once the consumer has joined its first session.
func (consumer *Consumer) Ready() <-chan bool {
	return consumer.ready
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited.
func (consumer *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (consumer *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				consumer.log.Warn("message channel was closed")
				return nil
			}
			var event kafka.ReservationEvent
			if err := json.Unmarshal(message.Value, &event); err != nil {
				consumer.log.Error("unmarshal event", zap.Error(err))
				session.MarkMessage(message, "")
				continue
			}

			if err := consumer.recordEventHandler(context.Background(), event); err != nil {
				consumer.log.Error("consumer.recordEventHandler",
					zap.String("reservation_uid", event.ReservationID), zap.Error(err))
				continue
			}

			consumer.log.Debug("Message claimed:", zap.String("value", string(message.Value)), zap.Time("timestamp", message.Timestamp), zap.String("topic", message.Topic))
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}
