package presentation

import (
	"context"
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/sanity-io/demo-graphql-presentation-nextjs/portabletext"
	"github.com/sanity-io/demo-graphql-presentation-nextjs/sanity"
	"github.com/sanity-io/demo-graphql-presentation-nextjs/sanity/stega"
	"github.com/sanity-io/demo-graphql-presentation-nextjs/views"
)

const (
	moreStoriesHome = 100
	moreStoriesPost = 2
	feedLimit       = 1000
)

// query runs a GraphQL document with the draft-mode defaults and decodes its
// data into out.
func (a *App) query(ctx context.Context, draft bool, doc string, params map[string]any, out any) error {
	return a.fetch(ctx, sanity.FetchRequest{
		Query:     doc,
		Params:    params,
		DraftMode: draft,
	}, out)
}

// queryPublished runs doc against published content without stega, for
// machine-read outputs such as feeds.
func (a *App) queryPublished(ctx context.Context, doc string, params map[string]any, out any) error {
	off := false
	return a.fetch(ctx, sanity.FetchRequest{
		Query:       doc,
		Params:      params,
		Perspective: sanity.PerspectivePublished,
		Stega:       &off,
	}, out)
}

func (a *App) fetch(ctx context.Context, req sanity.FetchRequest, out any) error {
	res, err := a.Fetcher.Fetch(ctx, req)
	if err != nil {
		return err
	}
	if err := res.Err(); err != nil {
		return err
	}
	if err := res.Decode(out); err != nil {
		return fmt.Errorf("presentation: %w", err)
	}
	return nil
}

// page builds the shared page data. Meta fields fall back to the settings
// document and then to the static site config.
func (a *App) page(c echo.Context, settings *Settings, meta views.PageMeta) views.Page {
	site := a.Config.viewSite()
	p := views.Page{Site: site, Meta: meta, DraftMode: IsDraftMode(c)}
	if settings != nil {
		p.Settings = *settings
	}

	if p.Meta.Title == "" {
		p.Meta.Title = stega.CleanAll(p.Settings.Title)
	}
	if p.Meta.Title == "" {
		p.Meta.Title = site.Name
	}
	if p.Meta.Description == "" {
		p.Meta.Description = stega.CleanAll(portabletext.PlainText(p.Settings.Description))
	}
	if p.Meta.Description == "" {
		p.Meta.Description = site.Description
	}
	if p.Meta.URL == "" {
		p.Meta.URL = views.BuildURL(site.URL, c.Request().URL.Path)
	}
	if p.Meta.OGType == "" {
		p.Meta.OGType = "website"
	}
	if p.Meta.Image == "" {
		p.Meta.Image = views.ImageURL(site, p.Settings.OGImage, 1200, 627)
	}
	return p
}

// postMeta describes a single post for the document head.
func (a *App) postMeta(post Post) views.PageMeta {
	title := stega.CleanAll(post.Title)
	if title != "" && a.Config.Name != "" {
		title = title + " | " + a.Config.Name
	}
	return views.PageMeta{
		Title:       title,
		Description: stega.CleanAll(post.Excerpt),
		URL:         views.BuildURL(a.Config.URL, "posts", stega.Clean(post.Slug.Current)),
		OGType:      "article",
		Image:       views.ImageURL(a.Config.viewSite(), post.CoverImage, 1200, 627),
	}
}
