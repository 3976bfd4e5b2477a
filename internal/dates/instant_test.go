package dates

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/timestamppb"
)

type millisOnly struct{ ms int64 }

func (m millisOnly) ToMillis() int64 { return m.ms }

type bothConverters struct{}

func (bothConverters) AsTime() time.Time { return time.UnixMilli(42) }
func (bothConverters) ToMillis() int64   { return 7 }

func TestParseInstant(t *testing.T) {
	ts := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		input  any
		want   int64
		wantOK bool
	}{
		{"nil", nil, 0, false},
		{"int64 epoch", int64(1700000000000), 1700000000000, true},
		{"int epoch", 1234, 1234, true},
		{"float epoch", float64(1700000000000), 1700000000000, true},
		{"NaN", math.NaN(), 0, false},
		{"infinity", math.Inf(1), 0, false},
		{"time value", ts, ts.UnixMilli(), true},
		{"time pointer", &ts, ts.UnixMilli(), true},
		{"nil time pointer", (*time.Time)(nil), 0, false},
		{"zero time", time.Time{}, 0, false},
		{"empty string", "", 0, false},
		{"blank string", "   ", 0, false},
		{"iso date", "2024-01-01", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli(), true},
		{"iso date padded", "  2024-01-01 ", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli(), true},
		{"rfc3339", "2024-06-01T12:30:00Z", ts.UnixMilli(), true},
		{"unparseable", "xyzzy plugh", 0, false},
		{"month and year", "June 2024", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC).UnixMilli(), true},
		{"day month year", "15 March 2023", time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC).UnixMilli(), true},
		{"relative day", "yesterday", 0, false},
		{"relative offset", "3 days ago", 0, false},
		{"protobuf timestamp", timestamppb.New(ts), ts.UnixMilli(), true},
		{"to-millis method", millisOnly{ms: 99}, 99, true},
		{"to-date preferred over to-millis", bothConverters{}, 42, true},
		{"timestamp struct", Timestamp{Seconds: 1700000000, Nanoseconds: 500000000}, 1700000000500, true},
		{"timestamp map", map[string]any{"seconds": float64(1700000000), "nanoseconds": float64(500000000)}, 1700000000500, true},
		{"timestamp map without nanos", map[string]any{"seconds": 10}, 10000, true},
		{"underscore timestamp map", map[string]any{"_seconds": int64(2), "_nanoseconds": int64(1999999)}, 2001, true},
		{"map without seconds", map[string]any{"when": "today"}, 0, false},
		{"unsupported type", struct{}{}, 0, false},
		{"bool", true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseInstant(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseInstant_ServerTimestampRoundTrip(t *testing.T) {
	got, ok := ParseInstant(Timestamp{Seconds: 1700000000, Nanoseconds: 500000000})
	require.True(t, ok)
	assert.Equal(t, int64(1700000000500), got)
}

func TestParseStringIgnoresClock(t *testing.T) {
	first, ok := ParseString("May")
	require.True(t, ok)
	second, ok := ParseString("May")
	require.True(t, ok)
	assert.Equal(t, first, second)
	assert.Equal(t, time.May, time.UnixMilli(first).UTC().Month())
	assert.Equal(t, 1, time.UnixMilli(first).UTC().Day())
}

func TestTimestampMillisFloorsNanoseconds(t *testing.T) {
	assert.Equal(t, int64(1000), Timestamp{Seconds: 1, Nanoseconds: 999999}.Millis())
	assert.Equal(t, int64(1001), Timestamp{Seconds: 1, Nanoseconds: 1000000}.Millis())
}

func TestEventDateInfo(t *testing.T) {
	info, ok := EventDateInfo("2023-05-01")
	require.True(t, ok)
	assert.Equal(t, "2023-05-01T00:00:00.000Z", info.Datetime)
	assert.Equal(t, "01 May 2023", info.Display)

	info, ok = EventDateInfo("  xyzzy plugh  ")
	require.True(t, ok)
	assert.Equal(t, "xyzzy plugh", info.Datetime)
	assert.Equal(t, "xyzzy plugh", info.Display)

	_, ok = EventDateInfo("   ")
	assert.False(t, ok)

	_, ok = EventDateInfo(nil)
	assert.False(t, ok)

	info, ok = EventDateInfo(Timestamp{Seconds: 0, Nanoseconds: 0})
	require.True(t, ok)
	assert.Equal(t, "1970-01-01T00:00:00.000Z", info.Datetime)
}
