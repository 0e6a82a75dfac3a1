package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/event-gallery/internal/bus"
)

const defaultForwardTimeout = 5 * time.Second

// BrokerForwarder hands messages to a bus.Publisher from a background goroutine so
// broker latency never reaches the request path. When the buffer is full the
// message is dropped and logged.
type BrokerForwarder struct {
	publisher bus.Publisher
	logger    *zap.Logger
	timeout   time.Duration

	mu      sync.RWMutex
	closed  bool
	queue   chan bus.Message
	done    chan struct{}
	dropped atomic.Int64
}

// NewBrokerForwarder starts the forwarding goroutine.
func NewBrokerForwarder(publisher bus.Publisher, logger *zap.Logger, buffer int) *BrokerForwarder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if buffer <= 0 {
		buffer = 256
	}
	f := &BrokerForwarder{
		publisher: publisher,
		logger:    logger,
		timeout:   defaultForwardTimeout,
		queue:     make(chan bus.Message, buffer),
		done:      make(chan struct{}),
	}
	go f.run()
	return f
}

// Publish enqueues msg without blocking.
func (f *BrokerForwarder) Publish(_ context.Context, msg bus.Message) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return nil
	}
	select {
	case f.queue <- msg:
	default:
		f.dropped.Add(1)
		f.logger.Warn("broker queue full; dropping message",
			zap.String("message_id", msg.ID),
			zap.String("type", string(msg.Type)))
	}
	return nil
}

// Close drains queued messages and closes the publisher.
func (f *BrokerForwarder) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	close(f.queue)
	f.mu.Unlock()

	<-f.done
	return f.publisher.Close()
}

// Dropped reports how many messages were discarded because the buffer was full.
func (f *BrokerForwarder) Dropped() int64 {
	return f.dropped.Load()
}

func (f *BrokerForwarder) run() {
	defer close(f.done)
	for msg := range f.queue {
		ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
		if err := f.publisher.Publish(ctx, msg); err != nil {
			f.logger.Warn("forward message to broker failed",
				zap.String("message_id", msg.ID),
				zap.Error(err))
		}
		cancel()
	}
}
