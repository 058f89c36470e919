package stega

import (
	"net/url"
	"strings"
	"time"
	"unicode"
)

// FilterProps describes a string leaf that is about to be encoded.
type FilterProps struct {
	SourcePath     Path
	SourceDocument SourceDocument
	ResultPath     Path
	Value          string
	FilterDefault  Filter
}

// Filter decides whether a leaf is encoded.
type Filter func(FilterProps) bool

// AllowAll encodes every mapped string leaf.
func AllowAll(FilterProps) bool { return true }

// TitleFilter always encodes fields named title and defers to the default
// heuristics for everything else.
func TitleFilter(props FilterProps) bool {
	if props.SourcePath.Last() == "title" {
		return true
	}
	if props.FilterDefault == nil {
		return FilterDefault(props)
	}
	return props.FilterDefault(props)
}

// denylist holds field names that usually feed markup rather than visible text.
var denylist = map[string]struct{}{
	"color": {}, "colour": {}, "currency": {}, "email": {}, "format": {},
	"gid": {}, "hex": {}, "href": {}, "hsl": {}, "hsla": {}, "icon": {},
	"id": {}, "index": {}, "key": {}, "language": {}, "layout": {},
	"link": {}, "linkAction": {}, "locale": {}, "lqip": {}, "page": {},
	"path": {}, "pathname": {}, "position": {}, "presentation": {},
	"rgb": {}, "rgba": {}, "role": {}, "route": {}, "rule": {}, "slug": {},
	"status": {}, "style": {}, "listItem": {}, "target": {}, "textAlign": {},
	"type": {}, "url": {}, "variant": {}, "video": {}, "visibility": {},
	"webhook": {}, "width": {},
}

// seoSegments mark subtrees rendered into meta tags.
var seoSegments = map[string]struct{}{
	"meta": {}, "metadata": {}, "openGraph": {}, "seo": {}, "marks": {}, "markDefs": {},
}

// FilterDefault skips values that are unlikely to be rendered as text:
// dates, URLs, slugs, system fields, ids, SEO subtrees and layout keys.
func FilterDefault(props FilterProps) bool {
	if isDate(props.Value) || isURL(props.Value) {
		return false
	}
	end := props.SourcePath.Last()
	if end == "current" && props.SourcePath.FieldAt(2) == "slug" {
		return false
	}
	if strings.HasPrefix(end, "_") || strings.HasSuffix(end, "Id") {
		return false
	}
	for _, s := range props.SourcePath {
		if s.Kind != FieldSegment {
			continue
		}
		if _, ok := seoSegments[s.Field]; ok {
			return false
		}
	}
	if hasTypeLike(props.SourcePath) || hasTypeLike(props.ResultPath) {
		return false
	}
	if _, ok := denylist[end]; ok {
		return false
	}
	return true
}

func hasTypeLike(p Path) bool {
	for _, s := range p {
		if s.Kind == FieldSegment && strings.Contains(strings.ToLower(s.Field), "type") {
			return true
		}
	}
	return false
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func isDate(s string) bool {
	if s == "" || !unicode.IsDigit(rune(s[0])) {
		return false
	}
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

func isURL(s string) bool {
	if strings.HasPrefix(s, "/") && !strings.ContainsAny(s, " \t\n") {
		return true
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "http", "https", "ftp":
		return u.Host != ""
	case "mailto", "tel":
		return u.Opaque != ""
	}
	return false
}
