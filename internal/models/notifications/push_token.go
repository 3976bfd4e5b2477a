package models

// PushToken is an admin device registering for moderation alerts.
type PushToken struct {
	FCMToken string `json:"fcm_token"`
	Platform string `json:"platform"`
}

type NotificationStats struct {
	Topic   string `json:"topic"`
	Pending int    `json:"pending"`
}
