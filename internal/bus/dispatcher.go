package bus

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Handler handles a published message.
type Handler func(context.Context, Message) error

// Dispatcher interface allows message publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, msg Message) error
	Subscribe(msgType MessageType, handler Handler)
}

// inMemoryDispatcher is a simple synchronous dispatcher.
type inMemoryDispatcher struct {
	mu        sync.RWMutex
	listeners map[MessageType][]Handler
	logger    *zap.Logger
}

// NewInMemoryDispatcher creates a dispatcher instance.
func NewInMemoryDispatcher(logger *zap.Logger) Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &inMemoryDispatcher{
		listeners: make(map[MessageType][]Handler),
		logger:    logger,
	}
}

// Publish synchronously invokes handlers for the given message. Handler failures
// are logged and never reach the publisher.
func (d *inMemoryDispatcher) Publish(ctx context.Context, msg Message) error {
	d.mu.RLock()
	handlers := append([]Handler{}, d.listeners[msg.Type]...)
	d.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, msg); err != nil {
			d.logger.Warn("message handler failed",
				zap.String("type", string(msg.Type)),
				zap.String("message_id", msg.ID),
				zap.Error(err))
		}
	}
	return nil
}

// Subscribe registers a handler for the given message type.
func (d *inMemoryDispatcher) Subscribe(msgType MessageType, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[msgType] = append(d.listeners[msgType], handler)
}

// Nop discards every message.
type Nop struct{}

func (Nop) Publish(context.Context, Message) error { return nil }
func (Nop) Subscribe(MessageType, Handler)         {}
