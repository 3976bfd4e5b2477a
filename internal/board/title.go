package board

import (
	"strings"

	models "io.winapps.memorialboard/internal/models/board"
)

const (
	maxTitleRunes = 80
	cutTitleRunes = 77
	ellipsis      = "…"
)

// SanitizeTitle derives a display title from free text: whitespace runs
// collapse to one space, and anything over 80 characters is cut to 77 plus
// an ellipsis.
func SanitizeTitle(text string) string {
	t := strings.Join(strings.Fields(text), " ")
	runes := []rune(t)
	if len(runes) <= maxTitleRunes {
		return t
	}
	return string(runes[:cutTitleRunes]) + ellipsis
}

// DisplayTitle returns the entry's own title when set, else one derived from
// its content.
func DisplayTitle(e models.Entry) string {
	if t := strings.TrimSpace(e.Title); t != "" {
		return t
	}
	return SanitizeTitle(e.Content)
}
