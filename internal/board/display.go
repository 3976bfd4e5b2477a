package board

import (
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"io.winapps.memorialboard/internal/dates"
	models "io.winapps.memorialboard/internal/models/board"
)

// strictPolicy removes all markup from author-supplied text.
var strictPolicy = bluemonday.StrictPolicy()

var blankLines = regexp.MustCompile(`\n{2,}`)

// DisplayEntry is the public projection of an entry. It never carries the
// submitter's email.
type DisplayEntry struct {
	ID           string          `json:"id"`
	Section      models.Section  `json:"section"`
	SectionTitle string          `json:"sectionTitle"`
	SectionPage  string          `json:"sectionPage"`
	Link         string          `json:"link"`
	Author       string          `json:"author"`
	Title        string          `json:"title"`
	Content      string          `json:"content"`
	Paragraphs   []string        `json:"paragraphs"`
	Credits      string          `json:"credits,omitempty"`
	EventDate    *dates.DateInfo `json:"eventDate,omitempty"`
	PostedAt     *dates.DateInfo `json:"postedAt,omitempty"`
	MediaURL     string          `json:"mediaURL,omitempty"`
	MediaType    string          `json:"mediaType,omitempty"`
	MediaKind    string          `json:"mediaKind,omitempty"`
}

// PlainText strips markup from s, leaving readable text.
func PlainText(s string) string {
	return html.UnescapeString(strictPolicy.Sanitize(s))
}

// Project builds the display form of e as listed under section. An unknown
// section renders as memories.
func Project(e models.Entry, section models.Section) DisplayEntry {
	if section == "" {
		section = e.Section
	}
	section = section.OrDefault()

	d := DisplayEntry{
		ID:           e.ID,
		Section:      section,
		SectionTitle: section.Title(),
		SectionPage:  section.Page(),
		Link:         EntryLink(e.ID, section),
		Author:       PlainText(e.DisplayAuthor()),
		Title:        PlainText(DisplayTitle(e)),
		Content:      PlainText(e.Content),
		Credits:      PlainText(e.Credits),
	}
	d.Paragraphs = Paragraphs(d.Content)

	if info, ok := dates.EventDateInfo(e.EventDate); ok {
		d.EventDate = &info
	}
	if e.PostedAt != nil && !e.PostedAt.IsZero() {
		ms := e.PostedAt.UnixMilli()
		d.PostedAt = &dates.DateInfo{Datetime: dates.FormatISO(ms), Display: dates.FormatDisplay(*e.PostedAt)}
	}
	if e.HasMedia() {
		d.MediaURL = e.MediaURL
		d.MediaType = e.MediaType
		d.MediaKind = MediaKind(e.MediaType)
	}
	return d
}

// ProjectAll projects entries in order.
func ProjectAll(entries []models.Entry, section models.Section) []DisplayEntry {
	out := make([]DisplayEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, Project(e, section))
	}
	return out
}

// MediaKind classifies a MIME type as image, video or audio. Anything else
// is not rendered inline.
func MediaKind(mediaType string) string {
	switch {
	case strings.HasPrefix(mediaType, "image/"):
		return "image"
	case strings.HasPrefix(mediaType, "video/"):
		return "video"
	case strings.HasPrefix(mediaType, "audio/"):
		return "audio"
	}
	return ""
}

// Paragraphs splits text into blank-line separated blocks, dropping empty
// ones. Single newlines stay inside a block.
func Paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, block := range blankLines.Split(text, -1) {
		if strings.TrimSpace(block) != "" {
			out = append(out, block)
		}
	}
	return out
}

// EntryLink is the detail page URL, carrying id and section both as query
// and fragment parameters.
func EntryLink(id string, section models.Section) string {
	q := url.Values{}
	q.Set("id", id)
	q.Set("section", string(section))
	return "../entry/?" + q.Encode() + "#" + q.Encode()
}
