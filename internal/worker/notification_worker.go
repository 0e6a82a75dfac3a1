package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/event-gallery/internal/bus"
	"github.com/spec-kit/event-gallery/internal/config"
	"github.com/spec-kit/event-gallery/internal/service"
)

// NotificationWorker owns the notification subscribers and, when a broker is
// configured, the forwarder feeding it.
type NotificationWorker struct {
	forwarder *BrokerForwarder
}

// StartNotificationWorker subscribes the notification service to every message type
// on dispatcher. An empty cfg.URL keeps notifications in the log only.
func StartNotificationWorker(cfg config.BrokerConfig, dispatcher bus.Dispatcher, logger *zap.Logger) (*NotificationWorker, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &NotificationWorker{}

	var publisher bus.Publisher
	if cfg.URL != "" {
		amqpPublisher, err := bus.NewAMQPPublisher(cfg.URL, cfg.Queue, logger)
		if err != nil {
			return nil, err
		}
		w.forwarder = NewBrokerForwarder(amqpPublisher, logger, cfg.Buffer)
		publisher = w.forwarder
		logger.Info("forwarding domain messages to broker", zap.String("queue", cfg.Queue))
	}

	service.NewNotificationService(dispatcher, publisher, logger).RegisterHandlers()
	return w, nil
}

// Stop flushes queued broker messages.
func (w *NotificationWorker) Stop() error {
	if w == nil || w.forwarder == nil {
		return nil
	}
	return w.forwarder.Close()
}
