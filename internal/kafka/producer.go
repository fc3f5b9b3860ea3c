package kafka

import (
	"context"
	"errors"
	"sync"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Writer is the subset of *kafka.Writer the producer needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var ErrProducerClosed = errors.New("producer closed")

type Producer struct {
	w       Writer
	log     *zap.Logger
	inbox   chan kafka.Message
	closeCh chan struct{}

	mu     sync.RWMutex // guards closed against sends on a closed inbox
	closed bool
}

func NewProducer(brokers []string, topic string, buf int, log *zap.Logger) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        true, // fire-and-forget untuk throughput; error dilaporkan via Completion
	}
	p := newProducer(w, buf, log)
	w.Completion = func(msgs []kafka.Message, err error) {
		if err != nil {
			p.log.Error("kafka write failed", zap.Int("messages", len(msgs)), zap.Error(err))
		}
	}
	return p
}

func newProducer(w Writer, buf int, log *zap.Logger) *Producer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Producer{
		w:       w,
		log:     log.Named("kafka.producer"),
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
	}
}

// Start runs the write loop until Close is called.
func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		for m := range p.inbox {
			if err := p.w.WriteMessages(ctx, m); err != nil {
				p.log.Error("publish failed", zap.ByteString("key", m.Key), zap.Error(err))
			}
		}
		// inbox closed: semua pesan sudah di-flush
		if err := p.w.Close(); err != nil {
			p.log.Warn("writer close", zap.Error(err))
		}
	}()
}

// enqueue hands m to the write loop. After Close it returns ErrProducerClosed
// instead of panicking, so late publishers during shutdown are safe.
func (p *Producer) enqueue(ctx context.Context, m kafka.Message) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrProducerClosed
	}
	select {
	case p.inbox <- m:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Tutup channel supaya goroutine nge-flush sisa pesan lalu exit rapi.
// Aman dipanggil lebih dari sekali.
func (p *Producer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.inbox)
}

// Tunggu sampai goroutine selesai.
func (p *Producer) WaitClosed() { <-p.closeCh }
