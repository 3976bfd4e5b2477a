// Package markup post-processes rendered HTML fragments.
package markup

import (
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"io.winapps.memorialboard/internal/dates"
)

const listID = "markup-root"

type timedItem struct {
	html  string
	ms    int64
	timed bool
}

// SortNewsList reorders a fragment of <li> items by the datetime attribute of
// each item's first <time> element, newest first. Items without a parseable
// datetime lead, in their original order, matching the feed comparator.
func SortNewsList(fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<ul id="` + listID + `">` + fragment + `</ul>`))
	if err != nil {
		return "", err
	}

	var items []timedItem
	var renderErr error
	doc.Find("#" + listID + " > li").Each(func(_ int, s *goquery.Selection) {
		html, err := goquery.OuterHtml(s)
		if err != nil {
			renderErr = err
			return
		}
		item := timedItem{html: html}
		if dt, ok := s.Find("time").First().Attr("datetime"); ok {
			item.ms, item.timed = dates.ParseInstant(dt)
		}
		items = append(items, item)
	})
	if renderErr != nil {
		return "", renderErr
	}

	slices.SortStableFunc(items, func(a, b timedItem) int {
		switch {
		case a.timed && b.timed:
			if a.ms > b.ms {
				return -1
			}
			if a.ms < b.ms {
				return 1
			}
			return 0
		case a.timed:
			return 1
		case b.timed:
			return -1
		default:
			return 0
		}
	})

	var sb strings.Builder
	for _, it := range items {
		sb.WriteString(it.html)
	}
	return sb.String(), nil
}
