// Package sanity queries the Sanity GraphQL API with perspective-aware clients
// and transcodes content source maps into stega-encoded results for visual editing.
package sanity

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/sanity-io/demo-graphql-presentation-nextjs/sanity/stega"
)

const (
	apiDomain    = "api.sanity.io"
	apiCdnDomain = "apicdn.sanity.io"

	// DefaultAPIVersion is used when no API version is configured.
	DefaultAPIVersion = "2024-02-28"
)

// Perspective selects which view of the content a query reads.
type Perspective string

const (
	PerspectivePublished     Perspective = "published"
	PerspectivePreviewDrafts Perspective = "previewDrafts"
)

// ParsePerspective converts s to a Perspective. Unknown values are rejected
// rather than defaulted.
func ParsePerspective(s string) (Perspective, error) {
	p := Perspective(s)
	if err := p.Validate(); err != nil {
		return "", err
	}
	return p, nil
}

// Validate reports whether p is a supported perspective.
func (p Perspective) Validate() error {
	switch p {
	case PerspectivePublished, PerspectivePreviewDrafts:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownPerspective, string(p))
}

// Config holds the project coordinates and credentials for the Content Lake.
type Config struct {
	ProjectID  string          `yaml:"project_id"`
	Dataset    string          `yaml:"dataset"`
	APIVersion string          `yaml:"api_version"`
	GraphQLTag string          `yaml:"graphql_tag"`
	Token      string          `yaml:"-"`
	StudioURL  stega.StudioURL `yaml:"studio"`
}

// SetDefaults fills optional settings.
func (c *Config) SetDefaults() {
	if c.APIVersion == "" {
		c.APIVersion = DefaultAPIVersion
	}
	if c.StudioURL.BaseURL == "" {
		c.StudioURL.BaseURL = "/studio"
	}
}

// Validate checks the settings every client needs.
func (c Config) Validate() error {
	switch {
	case c.ProjectID == "":
		return missing("project id")
	case c.Dataset == "":
		return missing("dataset")
	case c.GraphQLTag == "":
		return missing("graphql tag")
	}
	return nil
}

// ValidateToken checks that draft content can be read.
func (c Config) ValidateToken() error {
	if strings.TrimSpace(c.Token) == "" {
		return ErrTokenRequired
	}
	return nil
}

func (c Config) host(useCdn bool) string {
	domain := apiDomain
	if useCdn {
		domain = apiCdnDomain
	}
	return c.ProjectID + "." + domain
}

// GraphQLURL returns the GraphQL endpoint of the configured dataset and tag.
func (c Config) GraphQLURL(useCdn bool) string {
	u := url.URL{
		Scheme: "https",
		Host:   c.host(useCdn),
		Path:   fmt.Sprintf("/v%s/graphql/%s/%s/", c.APIVersion, c.Dataset, c.GraphQLTag),
	}
	return u.String()
}

// QueryURL returns the GROQ query endpoint of the configured dataset.
func (c Config) QueryURL() string {
	u := url.URL{
		Scheme: "https",
		Host:   c.host(false),
		Path:   fmt.Sprintf("/v%s/data/query/%s", c.APIVersion, c.Dataset),
	}
	return u.String()
}

// rewriteHost swaps between the API and API CDN hosts of a project.
func rewriteHost(host string, useCdn bool) string {
	if useCdn {
		if strings.HasSuffix(host, "."+apiDomain) {
			return strings.TrimSuffix(host, apiDomain) + apiCdnDomain
		}
		return host
	}
	if strings.HasSuffix(host, "."+apiCdnDomain) {
		return strings.TrimSuffix(host, apiCdnDomain) + apiDomain
	}
	return host
}
