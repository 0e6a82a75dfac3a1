package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/event-gallery/internal/bus"
)

// NotificationService logs domain messages and forwards them to the broker when one is configured.
type NotificationService struct {
	dispatcher bus.Dispatcher
	publisher  bus.Publisher
	logger     *zap.Logger
}

// NewNotificationService creates the service. publisher may be nil.
func NewNotificationService(dispatcher bus.Dispatcher, publisher bus.Publisher, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		publisher:  publisher,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to every message type.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, msgType := range bus.AllMessageTypes {
		n.dispatcher.Subscribe(msgType, n.handle)
	}
}

func (n *NotificationService) handle(ctx context.Context, msg bus.Message) error {
	n.logger.Info(string(msg.Type),
		zap.String("message_id", msg.ID),
		zap.String("resource", string(msg.Resource)),
		zap.Int64("resource_id", msg.ResourceID),
		zap.Int64("actor_id", msg.ActorID),
		zap.Any("payload", msg.Payload))

	if n.publisher == nil {
		return nil
	}
	if err := n.publisher.Publish(ctx, msg); err != nil {
		n.logger.Warn("forward message to broker failed",
			zap.String("message_id", msg.ID),
			zap.Error(err))
	}
	return nil
}
