// Package portabletext renders Sanity Portable Text blocks to HTML as a templ component.
package portabletext

import (
	"bytes"
	"context"
	"html"
	"io"
	"net/url"
	"strings"

	"github.com/a-h/templ"
)

// Block is a single Portable Text block.
type Block struct {
	Type     string    `json:"_type"`
	Key      string    `json:"_key,omitempty"`
	Style    string    `json:"style,omitempty"`
	ListItem string    `json:"listItem,omitempty"`
	Level    int       `json:"level,omitempty"`
	Children []Span    `json:"children,omitempty"`
	MarkDefs []MarkDef `json:"markDefs,omitempty"`
}

// Span is a run of text inside a block.
type Span struct {
	Type  string   `json:"_type"`
	Key   string   `json:"_key,omitempty"`
	Text  string   `json:"text"`
	Marks []string `json:"marks,omitempty"`
}

// MarkDef is an annotation referenced from span marks by key.
type MarkDef struct {
	Key  string `json:"_key"`
	Type string `json:"_type"`
	Href string `json:"href,omitempty"`
}

var decorators = map[string]string{
	"strong":         "strong",
	"em":             "em",
	"code":           "code",
	"underline":      "u",
	"strike-through": "s",
}

var blockStyles = map[string]string{
	"normal":     "p",
	"h1":         "h1",
	"h2":         "h2",
	"h3":         "h3",
	"h4":         "h4",
	"h5":         "h5",
	"h6":         "h6",
	"blockquote": "blockquote",
}

// Component returns a templ.Component that renders blocks as HTML.
func Component(blocks []Block) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		Render(&buf, blocks)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

type openList struct {
	tag    string
	itemOn bool
}

// Render writes the HTML representation of blocks to buf. Blocks of types
// other than "block" are skipped.
func Render(buf *bytes.Buffer, blocks []Block) {
	var lists []openList

	closeTop := func() {
		top := lists[len(lists)-1]
		if top.itemOn {
			buf.WriteString("</li>")
		}
		buf.WriteString("</" + top.tag + ">")
		lists = lists[:len(lists)-1]
	}
	closeLists := func(depth int) {
		for len(lists) > depth {
			closeTop()
		}
	}

	for _, b := range blocks {
		if b.Type != "block" {
			continue
		}
		if b.ListItem == "" {
			closeLists(0)
			tag, ok := blockStyles[b.Style]
			if !ok {
				tag = "p"
			}
			buf.WriteString("<" + tag + ">")
			writeSpans(buf, b)
			buf.WriteString("</" + tag + ">")
			continue
		}

		level := b.Level
		if level < 1 {
			level = 1
		}
		tag := "ul"
		if b.ListItem == "number" {
			tag = "ol"
		}
		closeLists(level)
		if len(lists) == level && lists[level-1].tag != tag {
			closeTop()
		}
		if len(lists) == level && lists[level-1].itemOn {
			buf.WriteString("</li>")
			lists[level-1].itemOn = false
		}
		for len(lists) < level {
			buf.WriteString("<" + tag + ">")
			lists = append(lists, openList{tag: tag})
		}
		buf.WriteString("<li>")
		lists[level-1].itemOn = true
		writeSpans(buf, b)
	}
	closeLists(0)
}

func writeSpans(buf *bytes.Buffer, b Block) {
	defs := make(map[string]MarkDef, len(b.MarkDefs))
	for _, d := range b.MarkDefs {
		defs[d.Key] = d
	}
	for _, s := range b.Children {
		var closers []string
		for _, m := range s.Marks {
			if tag, ok := decorators[m]; ok {
				buf.WriteString("<" + tag + ">")
				closers = append(closers, "</"+tag+">")
				continue
			}
			def, ok := defs[m]
			if !ok || def.Type != "link" {
				continue
			}
			href := SafeURL(def.Href)
			if href == "" {
				continue
			}
			buf.WriteString(`<a href="` + href + `" class="underline decoration-2 underline-offset-4">`)
			closers = append(closers, "</a>")
		}
		lines := strings.Split(s.Text, "\n")
		for i, line := range lines {
			if i > 0 {
				buf.WriteString("<br/>")
			}
			buf.WriteString(html.EscapeString(line))
		}
		for i := len(closers) - 1; i >= 0; i-- {
			buf.WriteString(closers[i])
		}
	}
}

// PlainText joins the text of every block, separated by blank lines.
func PlainText(blocks []Block) string {
	var parts []string
	for _, b := range blocks {
		if b.Type != "block" {
			continue
		}
		var sb strings.Builder
		for _, s := range b.Children {
			sb.WriteString(s.Text)
		}
		parts = append(parts, sb.String())
	}
	return strings.Join(parts, "\n\n")
}

// SafeURL validates and sanitizes a URL for use in HTML attributes.
func SafeURL(raw string) string {
	val := strings.TrimSpace(raw)
	if val == "" {
		return ""
	}
	if (strings.HasPrefix(val, "/") && !strings.HasPrefix(val, "//")) || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto":
		return html.EscapeString(val)
	default:
		return ""
	}
}
