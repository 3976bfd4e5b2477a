package models

type UploadProgressResponse struct {
	UploadID    string  `json:"uploadId"`
	Status      string  `json:"status"`
	Progress    int     `json:"progress"`
	EntryID     string  `json:"entryId,omitempty"`
	Error       string  `json:"error,omitempty"`
	StartedAt   string  `json:"startedAt"`
	CompletedAt *string `json:"completedAt"`
}

type CancelUploadResponse struct {
	Canceled bool `json:"canceled"`
}
