package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Handler harus return nil hanya jika proses sukses & boleh commit offset.
type Handler func(ctx context.Context, m kafka.Message) error

// Reader is the subset of *kafka.Reader the consumer needs.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

const (
	defaultAttempts = 5
	defaultBackoff  = 200 * time.Millisecond
)

// Consumer runs a handler over a consumer group. Each partition is pinned to
// one worker, so offsets of a partition are handled and committed in order.
// A message that keeps failing stops the consumer without committing it; the
// group redelivers it after restart.
type Consumer struct {
	r        Reader
	workers  int
	attempts int
	backoff  time.Duration
	log      *zap.Logger
}

func NewConsumer(brokers []string, group, topic string, workers int, log *zap.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	return newConsumer(r, workers, log)
}

func newConsumer(r Reader, workers int, log *zap.Logger) *Consumer {
	if workers <= 0 {
		workers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Consumer{
		r:        r,
		workers:  workers,
		attempts: defaultAttempts,
		backoff:  defaultBackoff,
		log:      log.Named("kafka.consumer"),
	}
}

// Start blocks until ctx is cancelled (returns nil) or a message exhausts its
// retries (returns that error).
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	// satu lane per worker, partisi -> lane tetap
	lanes := make([]chan kafka.Message, c.workers)
	var wg sync.WaitGroup
	for i := range lanes {
		lanes[i] = make(chan kafka.Message, 64)
		wg.Add(1)
		go func(in <-chan kafka.Message) {
			defer wg.Done()
			for m := range in {
				if ctx.Err() != nil {
					return
				}
				if err := c.process(ctx, h, m); err != nil {
					cancel(err)
					return
				}
			}
		}(lanes[i])
	}
	stop := func() error {
		for _, l := range lanes {
			close(l)
		}
		wg.Wait()
		return exitErr(ctx)
	}

	// dispatcher loop
	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return stop()
			}
			stop()
			return err
		}
		select {
		case lanes[m.Partition%c.workers] <- m:
		case <-ctx.Done():
			return stop()
		}
	}
}

// process retries h with linear backoff and commits on success.
func (c *Consumer) process(ctx context.Context, h Handler, m kafka.Message) error {
	var err error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if err = h(ctx, m); err == nil {
			if err := c.r.CommitMessages(ctx, m); err != nil {
				return fmt.Errorf("commit partition %d offset %d: %w", m.Partition, m.Offset, err)
			}
			return nil
		}
		c.log.Warn("handler failed",
			zap.String("topic", m.Topic), zap.Int("partition", m.Partition),
			zap.Int64("offset", m.Offset), zap.Int("attempt", attempt), zap.Error(err))
		if attempt == c.attempts {
			break
		}
		select {
		case <-time.After(c.backoff * time.Duration(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	c.log.Error("giving up, offset not committed",
		zap.Int("partition", m.Partition), zap.Int64("offset", m.Offset), zap.Error(err))
	return fmt.Errorf("partition %d offset %d: %w", m.Partition, m.Offset, err)
}

// exitErr: shutdown is not an error, a worker failure is.
func exitErr(ctx context.Context) error {
	cause := context.Cause(ctx)
	if cause == nil || errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		return nil
	}
	return cause
}
