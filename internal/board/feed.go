package board

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"strings"

	"golang.org/x/sync/errgroup"

	"io.winapps.memorialboard/internal/markup"
	models "io.winapps.memorialboard/internal/models/board"
	"io.winapps.memorialboard/internal/store"
)

// FeedLimit bounds each section feed to its most recent entries.
const FeedLimit = 100

// SectionView is one rendered section feed.
type SectionView struct {
	Section models.Section `json:"section"`
	Title   string         `json:"title"`
	Page    string         `json:"page"`
	FeedID  string         `json:"feedId"`
	Entries []DisplayEntry `json:"entries"`
}

// HomeView holds every section feed in display order.
type HomeView struct {
	Sections []SectionView `json:"sections"`
}

// FetchSectionPosts returns approved entries of one section, newest posted
// first.
func (s *Service) FetchSectionPosts(ctx context.Context, section models.Section) ([]models.Entry, error) {
	entries, err := s.entries.Query(ctx, store.PublishedQuery(section, FeedLimit))
	if err != nil {
		s.logger.Errorw("Failed to fetch section posts", "section", section, "error", err)
		return nil, err
	}
	return entries, nil
}

// RenderSection returns the display feed of a section in comparator order.
func (s *Service) RenderSection(ctx context.Context, section models.Section) (SectionView, error) {
	entries, err := s.FetchSectionPosts(ctx, section)
	if err != nil {
		return SectionView{}, err
	}
	SortEntries(entries)
	return SectionView{
		Section: section,
		Title:   section.Title(),
		Page:    section.Page(),
		FeedID:  section.FeedID(),
		Entries: ProjectAll(entries, section),
	}, nil
}

// RenderHome fetches every section concurrently and returns once all have
// been rendered.
func (s *Service) RenderHome(ctx context.Context) (HomeView, error) {
	views := make([]SectionView, len(models.Sections))
	g, gctx := errgroup.WithContext(ctx)
	for i, section := range models.Sections {
		g.Go(func() error {
			v, err := s.RenderSection(gctx, section)
			if err != nil {
				return err
			}
			views[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return HomeView{}, err
	}
	return HomeView{Sections: views}, nil
}

// FetchEntry returns an approved entry, or nil when the id is unknown or the
// entry is still pending.
func (s *Service) FetchEntry(ctx context.Context, id string) (*models.Entry, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	e, err := s.entries.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logger.Errorw("Failed to fetch entry", "id", id, "error", err)
		return nil, err
	}
	if e == nil || !e.Verified {
		return nil, nil
	}
	return e, nil
}

// RenderEntry projects an approved entry for its detail page. section is the
// section the visitor came from and defaults to memories.
func (s *Service) RenderEntry(ctx context.Context, id string, section models.Section) (*DisplayEntry, error) {
	e, err := s.FetchEntry(ctx, id)
	if err != nil || e == nil {
		return nil, err
	}
	d := Project(*e, section.OrDefault())
	return &d, nil
}

var newsTemplate = template.Must(template.New("news").Funcs(template.FuncMap{
	"lines": func(block string) template.HTML {
		parts := strings.Split(block, "\n")
		for i, p := range parts {
			parts[i] = template.HTMLEscapeString(p)
		}
		return template.HTML(strings.Join(parts, "<br />"))
	},
}).Parse(`{{range .}}<li class="js-news-dynamic" data-entry-id="{{.ID}}">` +
	`<div class="news-item{{if not .EventDate}} news-item--no-date{{end}}">` +
	`{{with .EventDate}}<time class="news-date" datetime="{{.Datetime}}">{{.Display}}</time>{{end}}` +
	`<div class="news-body">` +
	`{{if eq .MediaKind "image"}}<img alt="" src="{{.MediaURL}}" />{{end}}` +
	`<h3 class="h3">{{.Title}}</h3>` +
	`{{range .Paragraphs}}<p>{{lines .}}</p>{{end}}` +
	`</div></div></li>{{end}}`))

// RenderNewsFragment renders the news feed as <li> items for embedding in an
// existing list. Legacy images point at compatBase for display conversion.
func (s *Service) RenderNewsFragment(ctx context.Context, compatBase string) (string, error) {
	view, err := s.RenderSection(ctx, models.SectionNews)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := newsTemplate.Execute(&buf, view.Entries); err != nil {
		return "", err
	}
	sorted, err := markup.SortNewsList(buf.String())
	if err != nil {
		return "", err
	}
	return markup.MarkLegacyImages(sorted, compatBase)
}
