package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"io.winapps.memorialboard/internal/identity"
	"io.winapps.memorialboard/internal/middleware"
	notificationsmodels "io.winapps.memorialboard/internal/models/notifications"
	"io.winapps.memorialboard/internal/notify"
)

// NotificationsHandler lets admin devices subscribe to moderation alerts.
type NotificationsHandler struct {
	notifier *notify.Notifier
	admins   identity.AdminSet
	logger   *zap.SugaredLogger
}

func NewNotificationsHandler(notifier *notify.Notifier, admins identity.AdminSet, logger *zap.SugaredLogger) *NotificationsHandler {
	return &NotificationsHandler{
		notifier: notifier,
		admins:   admins,
		logger:   logger,
	}
}

func (ns *NotificationsHandler) logError(c *gin.Context, err error, msg string, fields ...interface{}) {
	logWithContext(ns.logger, c, "error", msg, append(fields, "error", err)...)
}

func (ns *NotificationsHandler) requireAdmin(c *gin.Context) bool {
	if !ns.admins.IsAdmin(middleware.IdentityFrom(c)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only admins can receive moderation alerts"})
		return false
	}
	return true
}

// RegisterPushToken subscribes an admin device to the moderation topic.
func (ns *NotificationsHandler) RegisterPushToken(c *gin.Context) {
	ns.updatePushToken(c, true)
}

// UnregisterPushToken removes an admin device from the moderation topic.
func (ns *NotificationsHandler) UnregisterPushToken(c *gin.Context) {
	ns.updatePushToken(c, false)
}

func (ns *NotificationsHandler) updatePushToken(c *gin.Context, register bool) {
	if !ns.requireAdmin(c) {
		return
	}
	var tokenData notificationsmodels.PushToken
	if err := c.ShouldBindJSON(&tokenData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if tokenData.FCMToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fcm_token is required"})
		return
	}

	ctx := c.Request.Context()
	var err error
	if register {
		err = ns.notifier.RegisterDevice(ctx, tokenData.FCMToken)
	} else {
		err = ns.notifier.UnregisterDevice(ctx, tokenData.FCMToken)
	}
	if errors.Is(err, notify.ErrDisabled) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Push notifications are not configured"})
		return
	}
	if err != nil {
		ns.logError(c, err, "Failed to update push token", "platform", tokenData.Platform, "register", register)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save token"})
		return
	}

	message := "Token registered successfully"
	if !register {
		message = "Token removed successfully"
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "topic": ns.notifier.Topic()})
}
