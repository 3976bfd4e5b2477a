package models

// CreateEntryRequest is the multipart form of a public submission. The
// optional attachment is sent as the "media" file part.
type CreateEntryRequest struct {
	Surface       string `form:"surface"`
	CollectsEmail bool   `form:"collectsEmail"`
	UploadID      string `form:"uploadId"`
	Author        string `form:"author"`
	Email         string `form:"email"`
	Credits       string `form:"credits"`
	Title         string `form:"title"`
	Content       string `form:"content"`
	EventDate     string `form:"eventDate"`
	Section       string `form:"section"`
	CaptchaToken  string `form:"captchaToken"`
}
