package board

import (
	"cmp"
	"slices"

	"io.winapps.memorialboard/internal/dates"
	models "io.winapps.memorialboard/internal/models/board"
)

// CompareEntries orders entries most relevant first. It returns a negative
// number when a sorts before b.
//
// Event dates win when both resolve and differ. When only one resolves, the
// undated entry sorts first. Otherwise the later postedAt sorts first, an
// entry with a postedAt ahead of one without. Ids break remaining ties.
func CompareEntries(a, b models.Entry) int {
	ea, okA := dates.ParseInstant(a.EventDate)
	eb, okB := dates.ParseInstant(b.EventDate)
	switch {
	case okA && okB && ea != eb:
		return cmp.Compare(eb, ea)
	case okA && !okB:
		return 1
	case !okA && okB:
		return -1
	}

	pa, okA := postedMillis(a)
	pb, okB := postedMillis(b)
	switch {
	case okA && okB && pa != pb:
		return cmp.Compare(pb, pa)
	case okA && !okB:
		return -1
	case !okA && okB:
		return 1
	}

	return cmp.Compare(a.ID, b.ID)
}

// SortEntries sorts entries in place with CompareEntries.
func SortEntries(entries []models.Entry) {
	slices.SortStableFunc(entries, CompareEntries)
}

func postedMillis(e models.Entry) (int64, bool) {
	if e.PostedAt == nil {
		return 0, false
	}
	return dates.ParseInstant(*e.PostedAt)
}
