// Package dates turns the date representations found on entries (server
// timestamps, author-typed strings, epoch numbers) into one comparable
// instant in epoch milliseconds.
package dates

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/markusmobius/go-dateparser"
)

// ISOLayout matches the browser's toISOString output.
const ISOLayout = "2006-01-02T15:04:05.000Z"

// DisplayLayout is used for human readable dates ("01 Jun 2024").
const DisplayLayout = "02 Jan 2006"

// Timestamp is the {seconds, nanoseconds} wire shape of server timestamps.
type Timestamp struct {
	Seconds     int64 `json:"seconds"`
	Nanoseconds int64 `json:"nanoseconds"`
}

// Millis returns seconds*1000 + floor(nanoseconds/1e6).
func (t Timestamp) Millis() int64 {
	return t.Seconds*1000 + floorDiv(t.Nanoseconds, 1e6)
}

type dateConverter interface {
	AsTime() time.Time
}

type millisConverter interface {
	ToMillis() int64
}

var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01",
	time.RFC1123Z,
	time.RFC1123,
}

// freeText fills missing parts from a fixed reference instead of the clock so
// the same string always yields the same instant.
var freeText = &dateparser.Configuration{
	Languages:            []string{"en"},
	CurrentTime:          time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC),
	DefaultTimezone:      time.UTC,
	PreferredDayOfMonth:  dateparser.First,
	PreferredMonthOfYear: dateparser.FirstMonth,
}

// absoluteOnly skips the relative ("yesterday", "3 days ago") and unix
// timestamp parsers.
var absoluteOnly = &dateparser.Parser{
	ParserTypes: []dateparser.ParserType{dateparser.AbsoluteTime, dateparser.NoSpacesTime},
}

// ParseInstant returns v as epoch milliseconds, or false when v carries no
// usable date.
func ParseInstant(v any) (int64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case int:
		return int64(t), true
	case int8:
		return int64(t), true
	case int16:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case uint:
		return int64(t), true
	case uint8:
		return int64(t), true
	case uint16:
		return int64(t), true
	case uint32:
		return int64(t), true
	case uint64:
		if t > math.MaxInt64 {
			return 0, false
		}
		return int64(t), true
	case float32:
		return finite(float64(t))
	case float64:
		return finite(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return finite(f)
	case time.Time:
		return fromTime(t)
	case *time.Time:
		if t == nil {
			return 0, false
		}
		return fromTime(*t)
	case string:
		return ParseString(t)
	case *string:
		if t == nil {
			return 0, false
		}
		return ParseString(*t)
	case dateConverter:
		return fromTime(t.AsTime())
	case millisConverter:
		return t.ToMillis(), true
	case Timestamp:
		return t.Millis(), true
	case *Timestamp:
		if t == nil {
			return 0, false
		}
		return t.Millis(), true
	case map[string]any:
		return fromWireMap(t)
	}
	return 0, false
}

// ParseString parses a free-form date string. Empty or unparseable input
// yields false.
func ParseString(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UnixMilli(), true
		}
	}
	parsed, err := absoluteOnly.Parse(freeText, s)
	if err != nil || parsed.Time.IsZero() {
		return 0, false
	}
	return parsed.Time.UnixMilli(), true
}

// fromWireMap handles decoded {seconds, nanoseconds} objects, including the
// underscore-prefixed form some SDKs serialize.
func fromWireMap(m map[string]any) (int64, bool) {
	secKey, nanoKey := "seconds", "nanoseconds"
	if _, ok := m[secKey]; !ok {
		secKey, nanoKey = "_seconds", "_nanoseconds"
	}
	sec, ok := number(m[secKey])
	if !ok {
		return 0, false
	}
	nanos, ok := number(m[nanoKey])
	if !ok {
		nanos = 0
	}
	ms := sec*1000 + math.Floor(nanos/1e6)
	return finite(ms)
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func finite(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(f), true
}

func fromTime(t time.Time) (int64, bool) {
	if t.IsZero() {
		return 0, false
	}
	return t.UnixMilli(), true
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
