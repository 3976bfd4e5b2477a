package models

// UpdateEntryRequest edits the content fields of an entry. Omitted fields are
// left unchanged.
type UpdateEntryRequest struct {
	EntryID   string  `json:"entryId"`
	Author    *string `json:"author,omitempty"`
	Credits   *string `json:"credits,omitempty"`
	Title     *string `json:"title,omitempty"`
	Content   *string `json:"content,omitempty"`
	EventDate *string `json:"eventDate,omitempty"`
	Section   *string `json:"section,omitempty"`
}
