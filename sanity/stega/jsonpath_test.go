package stega

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseJSONPath(t *testing.T) {
	tests := []struct {
		in   string
		want Path
	}{
		{"$", nil},
		{"$['title']", Path{Field("title")}},
		{"$['allPost'][0]['author']['name']", Path{Field("allPost"), Index(0), Field("author"), Field("name")}},
		{"$['content'][?(@._key=='a1')]['children'][2]['text']", Path{Field("content"), Keyed("a1"), Field("children"), Index(2), Field("text")}},
		{`$['it\'s']`, Path{Field("it's")}},
	}
	for _, tt := range tests {
		got, err := ParseJSONPath(tt.in)
		if err != nil {
			t.Fatalf("ParseJSONPath(%q): %v", tt.in, err)
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("ParseJSONPath(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
		if back := got.JSONPath(); back != tt.in {
			t.Errorf("JSONPath() = %q, want %q", back, tt.in)
		}
	}
}

func TestParseJSONPathErrors(t *testing.T) {
	for _, in := range []string{"", "title", "$['title'", "$[x]", "$[-1]", "$.title"} {
		if _, err := ParseJSONPath(in); err == nil {
			t.Errorf("ParseJSONPath(%q): expected error", in)
		}
	}
}

func TestStudioPath(t *testing.T) {
	p := Path{Field("content"), Keyed("a1"), Field("children"), Index(0), Field("text")}
	if got, want := p.StudioPath(), `content[_key=="a1"].children[0].text`; got != want {
		t.Fatalf("StudioPath() = %q, want %q", got, want)
	}
}
