package presentation

import "github.com/sanity-io/demo-graphql-presentation-nextjs/views"

// Content types decoded from GraphQL results. They live in views so templates
// can render them without importing this package.
type (
	Post     = views.Post
	Author   = views.Author
	Settings = views.Settings
	Image    = views.Image
	Slug     = views.Slug
)
