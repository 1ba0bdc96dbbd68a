package worker

import (
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/service"
)

// StartNotificationWorker subscribes the requester and technician notifications
// to ticket events. Handlers run inline on the publishing request.
func StartNotificationWorker(notifications *service.NotificationService) {
	if notifications == nil {
		return
	}
	notifications.RegisterHandlers()
}
