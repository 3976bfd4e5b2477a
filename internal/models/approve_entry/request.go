package models

type ApproveEntryRequest struct {
	EntryID string `json:"entryId"`
}
