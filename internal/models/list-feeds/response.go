package models

import (
	"io.winapps.memorialboard/internal/board"
)

type ListFeedsResponse struct {
	Feeds []board.SectionView `json:"feeds"`
}
