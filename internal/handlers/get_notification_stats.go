package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	notificationsmodels "io.winapps.memorialboard/internal/models/notifications"
)

// GetNotificationStats returns the alert topic and how many entries await
// review.
func (ns *NotificationsHandler) GetNotificationStats(c *gin.Context) {
	if !ns.requireAdmin(c) {
		return
	}
	pending, err := ns.notifier.PendingCount(c.Request.Context())
	if err != nil {
		ns.logError(c, err, "Failed to count pending entries")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load notification stats"})
		return
	}
	c.JSON(http.StatusOK, notificationsmodels.NotificationStats{
		Topic:   ns.notifier.Topic(),
		Pending: pending,
	})
}
