package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

const writeTimeout = 5 * time.Second

var (
	ErrNoBrokers = errors.New("events: kafka brokers are not configured")
	ErrPublish   = errors.New("events: publish failed")
)

// MessageWriter часть *kafka.Writer, которую использует продюсер
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher пишет события в один топик, ключ сообщения = id бронирования,
// чтобы события одной записи шли в одну партицию по порядку
type KafkaPublisher struct {
	writer MessageWriter
	log    Logger
}

// NewKafkaPublisher создает продюсера для брокеров и топика
func NewKafkaPublisher(brokers []string, topic string, log Logger) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, ErrNoBrokers
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
	}

	log.Info("Kafka publisher initialized (brokers=%v, topic=%s)", brokers, topic)
	return NewKafkaPublisherWithWriter(writer, log), nil
}

// NewKafkaPublisherWithWriter создает продюсера поверх готового writer
func NewKafkaPublisherWithWriter(writer MessageWriter, log Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, log: log}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event BookingEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: marshal %s: %v", ErrPublish, event.Type, err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(event.BookingID, 10)),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	}

	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(writeCtx, msg); err != nil {
		p.log.Error("Kafka: failed to publish %s for booking %d: %v", event.Type, event.BookingID, err)
		return fmt.Errorf("%w: %s: %v", ErrPublish, event.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
