package board

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	models "io.winapps.memorialboard/internal/models/board"
)

func TestSanitizeTitle(t *testing.T) {
	assert.Equal(t, "Hello world", SanitizeTitle("   Hello   world   "))
	assert.Equal(t, "line one line two", SanitizeTitle("line one\n\n\tline two"))
	assert.Equal(t, "", SanitizeTitle("   "))

	exact := strings.Repeat("y", 80)
	assert.Equal(t, exact, SanitizeTitle(exact))

	long := SanitizeTitle(strings.Repeat("x", 90))
	assert.Equal(t, 78, utf8.RuneCountInString(long))
	assert.True(t, strings.HasSuffix(long, "…"))
	assert.Equal(t, strings.Repeat("x", 77), strings.TrimSuffix(long, "…"))
}

func TestDisplayTitle(t *testing.T) {
	assert.Equal(t, "Given", DisplayTitle(models.Entry{Title: "  Given ", Content: "body"}))
	assert.Equal(t, "Hello world", DisplayTitle(models.Entry{Title: "   ", Content: "   Hello   world   "}))
}
