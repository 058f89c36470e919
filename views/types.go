package views

import (
	"github.com/sanity-io/demo-graphql-presentation-nextjs/portabletext"
	"github.com/sanity-io/demo-graphql-presentation-nextjs/sanity/stega"
)

// SiteConfig holds the site-wide settings every page needs.
type SiteConfig struct {
	Name        string
	URL         string
	Description string
	ProjectID   string
	Dataset     string
	Studio      stega.StudioURL
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string
}

// Page is the data shared by every full page render.
type Page struct {
	Site      SiteConfig
	Meta      PageMeta
	Settings  Settings
	DraftMode bool
}

// Asset references an uploaded file in the Content Lake.
type Asset struct {
	ID string `json:"_id"`
}

// Hotspot is the focal area of an image, in fractions of its size.
type Hotspot struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Height float64 `json:"height"`
	Width  float64 `json:"width"`
}

// Crop trims an image, in fractions of its size from each edge.
type Crop struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
}

// Image is a Sanity image field.
type Image struct {
	Asset   *Asset   `json:"asset"`
	Hotspot *Hotspot `json:"hotspot"`
	Crop    *Crop    `json:"crop"`
}

type Author struct {
	Name    string `json:"name"`
	Picture *Image `json:"picture"`
}

type Slug struct {
	Current string `json:"current"`
}

// Post is a blog post. Content is only set by the single-post query.
type Post struct {
	ID         string               `json:"_id"`
	UpdatedAt  string               `json:"_updatedAt"`
	Title      string               `json:"title"`
	Slug       Slug                 `json:"slug"`
	Excerpt    string               `json:"excerpt"`
	CoverImage *Image               `json:"coverImage"`
	Date       string               `json:"date"`
	Author     *Author              `json:"author"`
	Content    []portabletext.Block `json:"contentRaw"`
}

// Settings is the singleton site settings document.
type Settings struct {
	Title       string               `json:"title"`
	Description []portabletext.Block `json:"descriptionRaw"`
	Footer      []portabletext.Block `json:"footerRaw"`
	OGImage     *Image               `json:"ogImage"`
}
