package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/care-scheduling-service/internal/service"
)

// StartNotificationWorker subscribes the notification handlers to the
// appointment lifecycle events. Handlers run inline on the dispatcher
// goroutine, so there is no separate loop to stop on shutdown.
func StartNotificationWorker(notificationService *service.NotificationService, logger *zap.Logger) {
	if notificationService == nil {
		logger.Warn("notification service unavailable; appointment events will not notify")
		return
	}
	notificationService.RegisterHandlers()
	logger.Info("notification worker subscribed to appointment events")
}
