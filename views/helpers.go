package views

import (
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/sanity-io/demo-graphql-presentation-nextjs/sanity/stega"
)

const imageCDN = "https://cdn.sanity.io/images"

// BuildURL joins path segments onto a base URL, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// PostPath returns the site-relative link of a post.
func PostPath(p Post) string {
	return "/posts/" + url.PathEscape(stega.Clean(p.Slug.Current)) + "/"
}

// FormatDate renders an ISO date as "January 2, 2006". Unparseable input is
// returned cleaned of stega characters.
func FormatDate(s string) string {
	s = stega.Clean(s)
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("January 2, 2006")
		}
	}
	return s
}

// ImageURL builds an image CDN link for img at the given size. It returns ""
// when the image has no asset.
func ImageURL(site SiteConfig, img *Image, width, height int) string {
	if img == nil || img.Asset == nil {
		return ""
	}
	// image-<hash>-<w>x<h>-<format>
	parts := strings.Split(strings.TrimPrefix(img.Asset.ID, "image-"), "-")
	if len(parts) != 3 {
		return ""
	}
	hash, dims, format := parts[0], parts[1], parts[2]
	w, h, ok := parseDims(dims)
	if !ok {
		return ""
	}

	q := url.Values{}
	if img.Crop != nil {
		left := int(img.Crop.Left * float64(w))
		top := int(img.Crop.Top * float64(h))
		cw := w - left - int(img.Crop.Right*float64(w))
		ch := h - top - int(img.Crop.Bottom*float64(h))
		if cw > 0 && ch > 0 && (left > 0 || top > 0 || cw < w || ch < h) {
			q.Set("rect", fmt.Sprintf("%d,%d,%d,%d", left, top, cw, ch))
		}
	}
	if width > 0 {
		q.Set("w", strconv.Itoa(width))
	}
	if height > 0 {
		q.Set("h", strconv.Itoa(height))
		q.Set("fit", "crop")
	}
	if img.Hotspot != nil && height > 0 {
		q.Set("fp-x", strconv.FormatFloat(img.Hotspot.X, 'f', 3, 64))
		q.Set("fp-y", strconv.FormatFloat(img.Hotspot.Y, 'f', 3, 64))
		q.Set("crop", "focalpoint")
	}
	q.Set("auto", "format")

	return fmt.Sprintf("%s/%s/%s/%s-%s.%s?%s", imageCDN, site.ProjectID, site.Dataset, hash, dims, format, q.Encode())
}

func parseDims(s string) (int, int, bool) {
	w, h, ok := strings.Cut(s, "x")
	if !ok {
		return 0, 0, false
	}
	wi, err := strconv.Atoi(w)
	if err != nil {
		return 0, 0, false
	}
	hi, err := strconv.Atoi(h)
	if err != nil {
		return 0, 0, false
	}
	return wi, hi, true
}

// dataSanity returns the data-sanity attribute for a field of a document in
// draft mode, or "" outside it.
func dataSanity(page Page, id, typ string, fields ...string) string {
	if !page.DraftMode || id == "" {
		return ""
	}
	p := make(stega.Path, len(fields))
	for i, f := range fields {
		p[i] = stega.Field(f)
	}
	return stega.DataAttribute(page.Site.Studio, id, typ, p)
}
