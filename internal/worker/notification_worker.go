package worker

import (
	"go.uber.org/zap"

	"github.com/vibe-music/vibe-music-server/internal/service"
)

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService, logger *zap.Logger) {
	if notificationService == nil {
		logger.Warn("notification service not configured; session events will not be delivered")
		return
	}
	notificationService.RegisterHandlers()
	logger.Info("notification handlers registered")
}
