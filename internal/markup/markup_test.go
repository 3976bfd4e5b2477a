package markup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(id, datetime string) string {
	if datetime == "" {
		return `<li data-entry-id="` + id + `"><h3>` + id + `</h3></li>`
	}
	return `<li data-entry-id="` + id + `"><time datetime="` + datetime + `">x</time></li>`
}

func order(t *testing.T, html string) []string {
	t.Helper()
	var ids []string
	for _, part := range strings.Split(html, `data-entry-id="`)[1:] {
		ids = append(ids, part[:strings.Index(part, `"`)])
	}
	return ids
}

func TestSortNewsListUntimedFirstThenNewest(t *testing.T) {
	in := item("undated", "") +
		item("old", "2020-01-01T00:00:00.000Z") +
		item("new", "2024-05-01T00:00:00.000Z") +
		item("junk", "xyzzy plugh") +
		item("mid", "2022-03-03")

	out, err := SortNewsList(in)
	require.NoError(t, err)
	assert.Equal(t, []string{"undated", "junk", "new", "mid", "old"}, order(t, out))
}

func TestSortNewsListStableForEqualTimes(t *testing.T) {
	in := item("a", "2024-01-01") + item("b", "2024-01-01") + item("c", "")
	out, err := SortNewsList(in)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, order(t, out))
}

func TestSortNewsListEmpty(t *testing.T) {
	out, err := SortNewsList("")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestMarkLegacyImages(t *testing.T) {
	in := `<li data-entry-id="e1"><img src="https://cdn.example/o/IMG_1.HEIC?alt=media"/>` +
		`<img src="https://cdn.example/o/ok.jpg"/></li>`

	out, err := MarkLegacyImages(in, "/api/v1/media/compat")
	require.NoError(t, err)
	assert.Contains(t, out, `data-heic-converted="1"`)
	assert.Contains(t, out, `data-original-src="https://cdn.example/o/IMG_1.HEIC?alt=media"`)
	assert.Contains(t, out, `key=e1%2Fimg-0`)
	assert.Contains(t, out, `src="https://cdn.example/o/ok.jpg"`)
	assert.Equal(t, 1, strings.Count(out, ConvertedAttr))

	again, err := MarkLegacyImages(out, "/api/v1/media/compat")
	require.NoError(t, err)
	assert.Equal(t, out, again)
}
