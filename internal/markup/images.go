package markup

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"io.winapps.memorialboard/internal/media"
)

// ConvertedAttr marks an <img> already pointed at the compat endpoint.
const ConvertedAttr = "data-heic-converted"

// MarkLegacyImages points every HEIC/HEIF <img> in fragment at compatBase,
// which converts the image on first load. Each image keeps its original
// source in data-original-src and is rewritten at most once.
func MarkLegacyImages(fragment, compatBase string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<div id="` + listID + `">` + fragment + `</div>`))
	if err != nil {
		return "", err
	}

	root := doc.Find("#" + listID)
	root.Find("img").Each(func(i int, s *goquery.Selection) {
		if _, done := s.Attr(ConvertedAttr); done {
			return
		}
		src, ok := s.Attr("src")
		if !ok || !media.IsLegacy("", src) {
			return
		}
		key, ok := s.Attr("data-key")
		if !ok || key == "" {
			key = fmt.Sprintf("img-%d", i)
			if id, ok := s.Closest("[data-entry-id]").Attr("data-entry-id"); ok {
				key = id + "/" + key
			}
		}
		q := url.Values{}
		q.Set("src", src)
		q.Set("key", key)
		s.SetAttr("data-original-src", src)
		s.SetAttr("src", compatBase+"?"+q.Encode())
		s.SetAttr(ConvertedAttr, "1")
	})

	return root.Html()
}
