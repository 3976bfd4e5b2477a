package dates

import (
	"fmt"
	"strings"
	"time"
)

// DateInfo is what a rendered date needs: a machine datetime attribute and a
// display string.
type DateInfo struct {
	Datetime string `json:"datetime"`
	Display  string `json:"display"`
}

// FromMillis converts epoch milliseconds to a UTC time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// FormatISO formats epoch milliseconds like the browser's toISOString.
func FormatISO(ms int64) string {
	return FromMillis(ms).Format(ISOLayout)
}

// FormatDisplay formats a time for display.
func FormatDisplay(t time.Time) string {
	return t.UTC().Format(DisplayLayout)
}

// EventDateInfo describes an author-supplied event date. Strings that do not
// parse are echoed back so the author's wording is still shown.
func EventDateInfo(v any) (DateInfo, bool) {
	if v == nil {
		return DateInfo{}, false
	}
	if s, ok := v.(string); ok {
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			return DateInfo{}, false
		}
		if ms, ok := ParseString(trimmed); ok {
			return DateInfo{Datetime: FormatISO(ms), Display: FormatDisplay(FromMillis(ms))}, true
		}
		return DateInfo{Datetime: trimmed, Display: trimmed}, true
	}
	if ms, ok := ParseInstant(v); ok {
		return DateInfo{Datetime: FormatISO(ms), Display: FormatDisplay(FromMillis(ms))}, true
	}
	fallback := strings.TrimSpace(fmt.Sprint(v))
	if fallback == "" {
		return DateInfo{}, false
	}
	return DateInfo{Datetime: fallback, Display: fallback}, true
}
