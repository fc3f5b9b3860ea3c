package kafka

import (
	"context"
	"strconv"

	"github.com/ariefcatur/go-kiosk-orders/internal/orders"
	"github.com/segmentio/kafka-go"
)

const (
	HeaderEventType    = "x-event-type"
	HeaderEventVersion = "x-event-version"
)

// Publisher puts order envelopes on the producer, keyed by order id.
type Publisher struct {
	p *Producer
}

var _ orders.Publisher = (*Publisher)(nil)

func NewPublisher(p *Producer) *Publisher { return &Publisher{p: p} }

func (pub *Publisher) Publish(ctx context.Context, env orders.Envelope) error {
	value, err := Marshal(env)
	if err != nil {
		return err
	}
	return pub.p.enqueue(ctx, Message(env, value))
}

// Message builds the kafka message for an envelope.
func Message(env orders.Envelope, value []byte) kafka.Message {
	return kafka.Message{
		Key:   orders.PartitionKey(env.CorrelationID),
		Value: value,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(env.EventType)},
			{Key: HeaderEventVersion, Value: []byte(strconv.Itoa(env.EventVersion))},
		},
	}
}
