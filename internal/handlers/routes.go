package handlers

import (
	"github.com/gin-gonic/gin"

	"io.winapps.memorialboard/internal/identity"
	"io.winapps.memorialboard/internal/middleware"
)

// API paths that rendered markup links to.
const (
	APIPrefix  = "/api/v1"
	CompatPath = APIPrefix + "/media/compat"
	TempPath   = APIPrefix + "/media/tmp"
)

// Routes groups the handlers mounted under /api/v1. Media and
// Notifications are optional.
type Routes struct {
	Submissions   *SubmissionHandler
	Feeds         *FeedHandler
	Moderation    *ModerationHandler
	Media         *MediaHandler
	Notifications *NotificationsHandler

	Identity  identity.Provider
	RateLimit middleware.RateLimitConfig
}

// Register mounts the board API on router.
func (r Routes) Register(router *gin.Engine) {
	auth := middleware.AuthMiddleware(r.Identity)
	optionalAuth := middleware.OptionalAuthMiddleware(r.Identity)

	v1 := router.Group(APIPrefix)
	{
		submissions := v1.Group("/submissions")
		submissions.Use(auth)
		{
			submissions.POST("", middleware.RateLimitMiddleware(r.RateLimit), r.Submissions.CreateEntry)
			submissions.GET("/progress", r.Submissions.UploadProgress)
			submissions.POST("/cancel", r.Submissions.CancelUpload)
		}

		v1.GET("/home", r.Feeds.ListFeeds)
		v1.GET("/sections/:section/entries", r.Feeds.ListSectionEntries)
		v1.GET("/sections/:section/fragment", r.Feeds.SectionFragment)
		v1.GET("/entries/:id", r.Feeds.GetEntry)

		admin := v1.Group("/admin")
		{
			admin.GET("/pending", optionalAuth, r.Moderation.ListPending)
			admin.GET("/published", optionalAuth, r.Moderation.ListPublished)
			admin.POST("/approve", auth, r.Moderation.ApproveEntry)
			admin.POST("/edit", auth, r.Moderation.UpdateEntry)
			admin.POST("/delete", auth, r.Moderation.DeleteEntry)
		}

		if r.Notifications != nil {
			notifications := v1.Group("/admin/notifications")
			notifications.Use(auth)
			{
				notifications.POST("/register", r.Notifications.RegisterPushToken)
				notifications.POST("/unregister", r.Notifications.UnregisterPushToken)
				notifications.GET("/stats", r.Notifications.GetNotificationStats)
			}
		}

		if r.Media != nil {
			mediaGroup := v1.Group("/media")
			{
				mediaGroup.GET("/compat", r.Media.ConvertLegacy)
				mediaGroup.DELETE("/compat", r.Media.ReleaseLegacy)
				mediaGroup.GET("/tmp/:ref", r.Media.OpenTemp)
			}
		}
	}
}
