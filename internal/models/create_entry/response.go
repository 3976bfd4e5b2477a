package models

type CreateEntryResponse struct {
	ID       string `json:"id"`
	UploadID string `json:"uploadId"`
	Message  string `json:"message"`
}

type CreateEntryError struct {
	Error    string            `json:"error"`
	Fields   map[string]string `json:"fields,omitempty"`
	UploadID string            `json:"uploadId,omitempty"`
}
