package stega

import (
	"net/url"
	"strings"
)

const draftsPrefix = "drafts."

// StudioURL locates the Studio that edit links open.
type StudioURL struct {
	BaseURL   string `yaml:"base_url"`
	Workspace string `yaml:"workspace"`
	Tool      string `yaml:"tool"`
}

// PublishedID strips the drafts prefix from a document id.
func PublishedID(id string) string {
	return strings.TrimPrefix(id, draftsPrefix)
}

// EditURL builds the Studio intent link for a field of doc.
func EditURL(studio StudioURL, doc SourceDocument, path Path) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(studio.BaseURL, "/"))
	if studio.Workspace != "" {
		b.WriteByte('/')
		b.WriteString(studio.Workspace)
	}
	if studio.Tool != "" {
		b.WriteByte('/')
		b.WriteString(studio.Tool)
	}
	b.WriteString("/intent/edit/id=")
	b.WriteString(url.PathEscape(PublishedID(doc.ID)))
	b.WriteString(";type=")
	b.WriteString(url.PathEscape(doc.Type))
	b.WriteString(";path=")
	b.WriteString(url.PathEscape(path.StudioPath()))
	return b.String()
}

// DataAttribute returns the value of a data-sanity attribute for overlays on
// elements that cannot carry stega text, such as images. Values are query
// escaped so keys containing ";" or "=" keep the pairs intact.
func DataAttribute(studio StudioURL, id, typ string, path Path) string {
	parts := []string{
		"id=" + url.QueryEscape(PublishedID(id)),
		"type=" + url.QueryEscape(typ),
		"path=" + url.QueryEscape(path.StudioPath()),
	}
	if studio.BaseURL != "" {
		parts = append(parts, "base="+url.QueryEscape(studio.BaseURL))
	}
	if studio.Workspace != "" {
		parts = append(parts, "workspace="+url.QueryEscape(studio.Workspace))
	}
	if studio.Tool != "" {
		parts = append(parts, "tool="+url.QueryEscape(studio.Tool))
	}
	return strings.Join(parts, ";")
}
