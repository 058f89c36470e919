package views

import (
	"bytes"
	"context"
	"html"
	"io"

	"github.com/a-h/templ"

	"github.com/sanity-io/demo-graphql-presentation-nextjs/portabletext"
	"github.com/sanity-io/demo-graphql-presentation-nextjs/sanity/stega"
)

const (
	demoTitle       = "Blog."
	demoDescription = "A statically generated blog example using Go and Sanity."
)

func component(fn func(buf *bytes.Buffer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		fn(&buf)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

func esc(s string) string { return html.EscapeString(s) }

func attr(buf *bytes.Buffer, name, value string) {
	if value == "" {
		return
	}
	buf.WriteString(" " + name + `="` + esc(value) + `"`)
}

func layout(buf *bytes.Buffer, page Page, body func()) {
	title := stega.CleanAll(page.Meta.Title)
	if title == "" {
		title = page.Site.Name
	}
	buf.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"/>`)
	buf.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1"/>`)
	buf.WriteString("<title>" + esc(title) + "</title>")
	if d := stega.CleanAll(page.Meta.Description); d != "" {
		buf.WriteString(`<meta name="description" content="` + esc(d) + `"/>`)
		buf.WriteString(`<meta property="og:description" content="` + esc(d) + `"/>`)
	}
	buf.WriteString(`<meta property="og:title" content="` + esc(title) + `"/>`)
	if page.Meta.URL != "" {
		buf.WriteString(`<link rel="canonical" href="` + esc(page.Meta.URL) + `"/>`)
		buf.WriteString(`<meta property="og:url" content="` + esc(page.Meta.URL) + `"/>`)
	}
	if page.Meta.OGType != "" {
		buf.WriteString(`<meta property="og:type" content="` + esc(page.Meta.OGType) + `"/>`)
	}
	if page.Meta.Image != "" {
		buf.WriteString(`<meta property="og:image" content="` + esc(page.Meta.Image) + `"/>`)
	}
	buf.WriteString(`<link rel="alternate" type="application/rss+xml" href="/feed.xml"/>`)
	buf.WriteString(`</head><body class="bg-white text-black">`)
	if page.DraftMode {
		buf.WriteString(`<div class="draft-banner" role="status">Draft mode is on. <a href="/api/disable-draft">Back to published</a></div>`)
	}
	buf.WriteString(`<div class="container mx-auto px-5">`)
	body()
	buf.WriteString(`</div><footer class="bg-accent-1 border-t">`)
	if len(page.Settings.Footer) > 0 {
		buf.WriteString(`<div class="container mx-auto px-5 py-28">`)
		portabletext.Render(buf, page.Settings.Footer)
		buf.WriteString(`</div>`)
	}
	buf.WriteString(`</footer></body></html>`)
}

func writeCoverImage(buf *bytes.Buffer, page Page, img *Image, dataAttr string, priority bool) {
	src := ImageURL(page.Site, img, 2000, 1000)
	buf.WriteString(`<div class="shadow-md transition-shadow duration-200 group-hover:shadow-lg sm:mx-0"`)
	attr(buf, "data-sanity", dataAttr)
	buf.WriteString(">")
	if src == "" {
		buf.WriteString(`<div class="bg-slate-50" style="padding-top:50%"></div>`)
	} else {
		buf.WriteString(`<img class="h-auto w-full" width="2000" height="1000" alt=""`)
		attr(buf, "src", src)
		if priority {
			buf.WriteString(` fetchpriority="high"`)
		} else {
			buf.WriteString(` loading="lazy"`)
		}
		buf.WriteString(` decoding="async"/>`)
	}
	buf.WriteString("</div>")
}

func writeAvatar(buf *bytes.Buffer, page Page, a *Author) {
	if a == nil {
		return
	}
	buf.WriteString(`<div class="flex items-center text-xl">`)
	if src := ImageURL(page.Site, a.Picture, 96, 96); src != "" {
		buf.WriteString(`<div class="mr-4 h-12 w-12"><img class="h-full rounded-full object-cover" width="48" height="48"`)
		attr(buf, "alt", stega.Clean(a.Name))
		attr(buf, "src", src)
		buf.WriteString(`/></div>`)
	}
	buf.WriteString(`<div class="text-pretty text-xl font-bold">` + esc(a.Name) + `</div></div>`)
}

func writeDate(buf *bytes.Buffer, date string) {
	if date == "" {
		return
	}
	buf.WriteString(`<time datetime="` + esc(stega.Clean(date)) + `">` + esc(FormatDate(date)) + `</time>`)
}

func postTitle(p Post) string {
	if p.Title == "" {
		return "Untitled"
	}
	return p.Title
}

func writeMoreStories(buf *bytes.Buffer, page Page, posts []Post) {
	if len(posts) == 0 {
		return
	}
	buf.WriteString(`<div class="mb-32 grid grid-cols-1 gap-y-20 md:grid-cols-2 md:gap-x-16 md:gap-y-32 lg:gap-x-32">`)
	for _, p := range posts {
		link := PostPath(p)
		buf.WriteString(`<article><a class="group mb-5 block" href="` + esc(link) + `">`)
		writeCoverImage(buf, page, p.CoverImage, dataSanity(page, p.ID, "post", "coverImage"), false)
		buf.WriteString(`</a><h3 class="text-balance mb-3 text-3xl leading-snug"><a class="hover:underline" href="` + esc(link) + `">`)
		buf.WriteString(esc(postTitle(p)))
		buf.WriteString(`</a></h3><div class="mb-4 text-lg">`)
		writeDate(buf, p.Date)
		buf.WriteString(`</div>`)
		if p.Excerpt != "" {
			buf.WriteString(`<p class="text-pretty mb-4 text-lg leading-relaxed">` + esc(p.Excerpt) + `</p>`)
		}
		writeAvatar(buf, page, p.Author)
		buf.WriteString(`</article>`)
	}
	buf.WriteString(`</div>`)
}

// Home renders the index page: intro, hero post and more stories.
func Home(page Page, hero *Post, more []Post) templ.Component {
	return component(func(buf *bytes.Buffer) {
		layout(buf, page, func() {
			title := page.Settings.Title
			if title == "" {
				title = demoTitle
			}
			buf.WriteString(`<section class="mb-16 mt-16 flex flex-col items-center lg:mb-12 lg:flex-row lg:justify-between">`)
			buf.WriteString(`<h1 class="text-balance text-6xl font-bold leading-tight tracking-tighter lg:pr-8 lg:text-8xl">` + esc(title) + `</h1>`)
			buf.WriteString(`<h2 class="text-pretty mt-5 text-center text-lg lg:pl-8 lg:text-left">`)
			if len(page.Settings.Description) > 0 {
				portabletext.Render(buf, page.Settings.Description)
			} else {
				buf.WriteString(esc(demoDescription))
			}
			buf.WriteString(`</h2></section>`)

			if hero == nil {
				buf.WriteString(`<p class="mb-32 text-lg">No posts yet.</p>`)
				return
			}
			link := PostPath(*hero)
			buf.WriteString(`<article><a class="group mb-8 block md:mb-16" href="` + esc(link) + `">`)
			writeCoverImage(buf, page, hero.CoverImage, dataSanity(page, hero.ID, "post", "coverImage"), true)
			buf.WriteString(`</a><div class="mb-20 md:mb-28 md:grid md:grid-cols-2 md:gap-x-16 lg:gap-x-8"><div>`)
			buf.WriteString(`<h3 class="text-pretty mb-4 text-4xl leading-tight lg:text-6xl"><a class="hover:underline" href="` + esc(link) + `">`)
			buf.WriteString(esc(postTitle(*hero)))
			buf.WriteString(`</a></h3><div class="mb-4 text-lg md:mb-0">`)
			writeDate(buf, hero.Date)
			buf.WriteString(`</div></div><div>`)
			if hero.Excerpt != "" {
				buf.WriteString(`<p class="text-pretty mb-4 text-lg leading-relaxed">` + esc(hero.Excerpt) + `</p>`)
			}
			writeAvatar(buf, page, hero.Author)
			buf.WriteString(`</div></div></article>`)

			if len(more) > 0 {
				buf.WriteString(`<aside><h2 class="mb-8 text-6xl font-bold leading-tight tracking-tighter md:text-7xl">More Stories</h2>`)
				writeMoreStories(buf, page, more)
				buf.WriteString(`</aside>`)
			}
		})
	})
}

// PostPage renders a single post followed by recent stories.
func PostPage(page Page, post Post, more []Post) templ.Component {
	return component(func(buf *bytes.Buffer) {
		layout(buf, page, func() {
			siteTitle := page.Settings.Title
			if siteTitle == "" {
				siteTitle = demoTitle
			}
			buf.WriteString(`<h2 class="mb-16 mt-10 text-2xl font-bold leading-tight tracking-tight md:text-4xl md:tracking-tighter"><a class="hover:underline" href="/">`)
			buf.WriteString(esc(siteTitle) + `</a></h2>`)
			buf.WriteString(`<article><h1 class="text-balance mb-12 text-6xl font-bold leading-tight tracking-tighter md:text-7xl md:leading-none lg:text-8xl">`)
			buf.WriteString(esc(postTitle(post)) + `</h1>`)
			buf.WriteString(`<div class="hidden md:mb-12 md:block">`)
			writeAvatar(buf, page, post.Author)
			buf.WriteString(`</div><div class="mb-8 sm:mx-0 md:mb-16">`)
			writeCoverImage(buf, page, post.CoverImage, dataSanity(page, post.ID, "post", "coverImage"), true)
			buf.WriteString(`</div><div class="mx-auto max-w-2xl"><div class="mb-6 block md:hidden">`)
			writeAvatar(buf, page, post.Author)
			buf.WriteString(`</div><div class="mb-6 text-lg"><div class="mb-4 text-lg">`)
			writeDate(buf, post.Date)
			buf.WriteString(`</div></div></div>`)
			if len(post.Content) > 0 {
				buf.WriteString(`<div class="prose-lg prose-violet mx-auto max-w-2xl">`)
				portabletext.Render(buf, post.Content)
				buf.WriteString(`</div>`)
			}
			buf.WriteString(`</article>`)
			if len(more) > 0 {
				buf.WriteString(`<aside><hr class="border-accent-2 mb-24 mt-28"/><h2 class="mb-8 text-6xl font-bold leading-tight tracking-tighter md:text-7xl">Recent Stories</h2>`)
				writeMoreStories(buf, page, more)
				buf.WriteString(`</aside>`)
			}
		})
	})
}

// NotFound renders the 404 page.
func NotFound(page Page) templ.Component {
	return component(func(buf *bytes.Buffer) {
		layout(buf, page, func() {
			buf.WriteString(`<section class="mt-16 mb-32"><h1 class="text-6xl font-bold">Not found</h1><p class="mt-4 text-lg"><a class="underline" href="/">Back to the blog</a></p></section>`)
		})
	})
}

// ServerError renders the 500 page without any fetched data.
func ServerError() templ.Component {
	return component(func(buf *bytes.Buffer) {
		layout(buf, Page{Meta: PageMeta{Title: "Something went wrong"}}, func() {
			buf.WriteString(`<section class="mt-16 mb-32"><h1 class="text-6xl font-bold">Something went wrong</h1><p class="mt-4 text-lg">Please try again later.</p></section>`)
		})
	})
}
