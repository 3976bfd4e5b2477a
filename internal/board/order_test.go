package board

import (
	"math/rand"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	models "io.winapps.memorialboard/internal/models/board"
)

func at(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func ids(entries []models.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestCompareEntries(t *testing.T) {
	tests := []struct {
		name string
		a, b models.Entry
		want int
	}{
		{
			name: "later event date first",
			a:    models.Entry{ID: "a", EventDate: "2023-05-01"},
			b:    models.Entry{ID: "b", EventDate: "2024-06-01"},
			want: 1,
		},
		{
			name: "undated before dated regardless of posted time",
			a:    models.Entry{ID: "a", EventDate: "2024-01-01", PostedAt: at("2025-01-01T00:00:00Z")},
			b:    models.Entry{ID: "b", PostedAt: at("2020-01-01T00:00:00Z")},
			want: 1,
		},
		{
			name: "unparseable event date counts as undated",
			a:    models.Entry{ID: "a", EventDate: "xyzzy plugh"},
			b:    models.Entry{ID: "b", EventDate: "2024-01-01"},
			want: -1,
		},
		{
			name: "equal event dates fall back to posted time",
			a:    models.Entry{ID: "a", EventDate: "2024-01-01", PostedAt: at("2024-02-01T00:00:00Z")},
			b:    models.Entry{ID: "b", EventDate: "2024-01-01", PostedAt: at("2024-03-01T00:00:00Z")},
			want: 1,
		},
		{
			name: "resolved posted time before unresolved",
			a:    models.Entry{ID: "z", PostedAt: at("2024-02-01T00:00:00Z")},
			b:    models.Entry{ID: "a"},
			want: -1,
		},
		{
			name: "id breaks remaining ties",
			a:    models.Entry{ID: "a"},
			b:    models.Entry{ID: "b"},
			want: -1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompareEntries(tt.a, tt.b)
			assert.Equal(t, tt.want, sign(got))
			assert.Equal(t, -tt.want, sign(CompareEntries(tt.b, tt.a)))
		})
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

func TestSortEntriesUndatedFirst(t *testing.T) {
	entries := []models.Entry{
		{ID: "dated", EventDate: "2024-01-01", PostedAt: at("2024-06-01T00:00:00Z")},
		{ID: "undated", PostedAt: at("2020-01-01T00:00:00Z")},
	}
	SortEntries(entries)
	assert.Equal(t, []string{"undated", "dated"}, ids(entries))
}

func TestSortEntriesTotalAndDeterministic(t *testing.T) {
	base := []models.Entry{
		{ID: "e1", EventDate: "2024-06-01", PostedAt: at("2024-06-02T00:00:00Z")},
		{ID: "e2", EventDate: "2023-05-01", PostedAt: at("2024-06-03T00:00:00Z")},
		{ID: "e3", PostedAt: at("2024-01-01T00:00:00Z")},
		{ID: "e4", PostedAt: at("2024-02-01T00:00:00Z")},
		{ID: "e5"},
		{ID: "e6", EventDate: "2023-05-01", PostedAt: at("2024-06-03T00:00:00Z")},
		{ID: "e7", EventDate: "xyzzy plugh"},
	}
	want := slices.Clone(base)
	SortEntries(want)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := slices.Clone(base)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		SortEntries(shuffled)
		assert.Equal(t, ids(want), ids(shuffled))
	}
	assert.Equal(t, []string{"e4", "e3", "e5", "e7", "e1", "e2", "e6"}, ids(want))
}

func TestRenderedOrderScenario(t *testing.T) {
	entries := []models.Entry{
		{ID: "A", EventDate: "2023-05-01", Verified: true},
		{ID: "B", EventDate: "2024-06-01", Verified: true},
	}
	SortEntries(entries)
	assert.Equal(t, []string{"B", "A"}, ids(entries))
}
