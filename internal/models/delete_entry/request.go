package models

// DeleteEntryRequest must carry Confirm=true; deletion is permanent.
type DeleteEntryRequest struct {
	EntryID string `json:"entryId"`
	Confirm bool   `json:"confirm"`
}
