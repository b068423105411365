package worker

import (
	"go.uber.org/zap"

	"github.com/worklane/ticket-tracker/internal/service"
)

// StartNotificationWorker subscribes the notification rules to ticket and comment events. Delivery
// is synchronous with the publishing request, so there is no goroutine to manage.
func StartNotificationWorker(notificationService *service.NotificationService, logger *zap.Logger) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
	if logger != nil {
		logger.Info("notification handlers registered")
	}
}
