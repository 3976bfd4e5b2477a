package models

import (
	"io.winapps.memorialboard/internal/board"
)

// GetEntryResponse reports Found=false for unknown or pending entries so the
// detail page can show its not-found state.
type GetEntryResponse struct {
	Found bool                `json:"found"`
	Entry *board.DisplayEntry `json:"entry,omitempty"`
}
