package kafka

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

type fakeReader struct {
	mu      sync.Mutex
	queue   []kafka.Message
	commits []kafka.Message
	closed  bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	for {
		r.mu.Lock()
		if len(r.queue) > 0 {
			m := r.queue[0]
			r.queue = r.queue[1:]
			r.mu.Unlock()
			return m, nil
		}
		r.mu.Unlock()
		select {
		case <-ctx.Done():
			return kafka.Message{}, ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commits = append(r.commits, msgs...)
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *fakeReader) committed() []kafka.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]kafka.Message(nil), r.commits...)
}

func msg(partition int, offset int64) kafka.Message {
	return kafka.Message{Topic: "order.events", Partition: partition, Offset: offset}
}

func testConsumer(r Reader, workers int) *Consumer {
	c := newConsumer(r, workers, nil)
	c.attempts = 3
	c.backoff = time.Millisecond
	return c
}

func TestConsumerStopsOnFailingMessage(t *testing.T) {
	r := &fakeReader{queue: []kafka.Message{msg(0, 0), msg(0, 1), msg(0, 2)}}
	errBroken := errors.New("broken payload")

	var (
		mu    sync.Mutex
		calls = map[int64]int{}
	)
	h := func(_ context.Context, m kafka.Message) error {
		mu.Lock()
		calls[m.Offset]++
		mu.Unlock()
		if m.Offset == 1 {
			return errBroken
		}
		return nil
	}

	err := testConsumer(r, 2).Start(context.Background(), h)
	if !errors.Is(err, errBroken) {
		t.Fatalf("Start error = %v", err)
	}
	commits := r.committed()
	if len(commits) != 1 || commits[0].Offset != 0 {
		t.Fatalf("commits = %v, want only offset 0", commits)
	}
	mu.Lock()
	defer mu.Unlock()
	if calls[1] != 3 {
		t.Fatalf("failing message tried %d times, want 3", calls[1])
	}
	if calls[2] != 0 {
		t.Fatalf("message after the failing one was handled")
	}
	if !r.closed {
		t.Fatalf("reader not closed")
	}
}

func TestConsumerCommitsEachPartitionInOrder(t *testing.T) {
	const partitions, perPartition = 3, 20
	r := &fakeReader{}
	for off := int64(0); off < perPartition; off++ {
		for p := 0; p < partitions; p++ {
			r.queue = append(r.queue, msg(p, off))
		}
	}

	var (
		mu       sync.Mutex
		attempts = map[string]int{}
	)
	h := func(_ context.Context, m kafka.Message) error {
		key := fmt.Sprintf("%d/%d", m.Partition, m.Offset)
		mu.Lock()
		attempts[key]++
		n := attempts[key]
		mu.Unlock()
		time.Sleep(time.Duration(rand.IntN(300)) * time.Microsecond)
		if m.Offset%7 == 3 && n == 1 {
			return errors.New("transient")
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- testConsumer(r, 2).Start(ctx, h) }()

	deadline := time.Now().Add(5 * time.Second)
	for len(r.committed()) < partitions*perPartition {
		if time.Now().After(deadline) {
			t.Fatalf("only %d commits", len(r.committed()))
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Start after cancel = %v", err)
	}

	last := map[int]int64{}
	for p := 0; p < partitions; p++ {
		last[p] = -1
	}
	for _, m := range r.committed() {
		if m.Offset != last[m.Partition]+1 {
			t.Fatalf("partition %d committed %d after %d", m.Partition, m.Offset, last[m.Partition])
		}
		last[m.Partition] = m.Offset
	}
}
