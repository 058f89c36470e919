package stega

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStudio = StudioURL{BaseURL: "/studio", Workspace: "app-router"}

const postSourceMap = `{
  "documents": [{"_id": "drafts.post-1", "_type": "post"}, {"_id": "author-1", "_type": "author"}],
  "paths": ["$['title']", "$['slug']['current']", "$['excerpt']", "$['name']", "$['date']"],
  "mappings": {
    "$['allPost'][0]['title']": {"type": "value", "source": {"type": "documentValue", "document": 0, "path": 0}},
    "$['allPost'][0]['slug']['current']": {"type": "value", "source": {"type": "documentValue", "document": 0, "path": 1}},
    "$['allPost'][0]['excerpt']": {"type": "value", "source": {"type": "documentValue", "document": 0, "path": 2}},
    "$['allPost'][0]['author']['name']": {"type": "value", "source": {"type": "documentValue", "document": 1, "path": 3}},
    "$['allPost'][0]['date']": {"type": "value", "source": {"type": "documentValue", "document": 0, "path": 4}}
  }
}`

func decodeJSON(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func mustSourceMap(t *testing.T, s string) *ContentSourceMap {
	t.Helper()
	csm, err := ParseSourceMap([]byte(s))
	require.NoError(t, err)
	return csm
}

func TestEncodeSourceMapTitle(t *testing.T) {
	data := map[string]any{"title": "Hello"}
	csm := mustSourceMap(t, `{
	  "documents": [{"_id": "post-1", "_type": "post"}],
	  "paths": ["$['title']"],
	  "mappings": {"$['title']": {"type": "value", "source": {"type": "documentValue", "document": 0, "path": 0}}}
	}`)

	out := EncodeSourceMap(data, csm, Config{Enabled: true, StudioURL: testStudio})
	title := out.(map[string]any)["title"].(string)

	assert.NotEqual(t, "Hello", title)
	assert.Equal(t, "Hello", Clean(title))
	payload, err := Decode(title)
	require.NoError(t, err)
	assert.Equal(t, Origin, payload.Origin)
	assert.Equal(t, "/studio/app-router/intent/edit/id=post-1;type=post;path=title", payload.Href)

	// The input is left untouched.
	assert.Equal(t, "Hello", data["title"])
}

func TestEncodeSourceMapWithTitleFilter(t *testing.T) {
	data := decodeJSON(t, `{"allPost": [{"title": "Hello", "slug": {"current": "hello"}, "excerpt": "Short", "date": "2024-02-28", "author": {"name": "Ada"}, "_id": "post-1"}]}`)
	csm := mustSourceMap(t, postSourceMap)

	out := EncodeSourceMap(data, csm, Config{Enabled: true, StudioURL: testStudio, Filter: TitleFilter})
	post := out.(map[string]any)["allPost"].([]any)[0].(map[string]any)

	assert.True(t, IsEncoded(post["title"].(string)), "title")
	assert.True(t, IsEncoded(post["excerpt"].(string)), "excerpt")
	assert.True(t, IsEncoded(post["author"].(map[string]any)["name"].(string)), "author name")
	assert.False(t, IsEncoded(post["slug"].(map[string]any)["current"].(string)), "slug")
	assert.False(t, IsEncoded(post["date"].(string)), "date")
	// Unmapped leaves stay as they are.
	assert.Equal(t, "post-1", post["_id"])

	name, err := Decode(post["author"].(map[string]any)["name"].(string))
	require.NoError(t, err)
	assert.Equal(t, "/studio/app-router/intent/edit/id=author-1;type=author;path=name", name.Href)
}

func TestEncodeSourceMapDraftIDUsesPublishedID(t *testing.T) {
	data := decodeJSON(t, `{"allPost": [{"title": "Hello"}]}`)
	out := EncodeSourceMap(data, mustSourceMap(t, postSourceMap), Config{Enabled: true, StudioURL: testStudio})
	title := out.(map[string]any)["allPost"].([]any)[0].(map[string]any)["title"].(string)

	payload, err := Decode(title)
	require.NoError(t, err)
	assert.Contains(t, payload.Href, "id=post-1;")
}

func TestEncodeSourceMapPrefixMapping(t *testing.T) {
	data := decodeJSON(t, `{"Settings": {"descriptionRaw": [{"_type": "block", "children": [{"_type": "span", "text": "Hi"}]}]}}`)
	csm := mustSourceMap(t, `{
	  "documents": [{"_id": "settings", "_type": "settings"}],
	  "paths": ["$['description']"],
	  "mappings": {"$['Settings']['descriptionRaw']": {"type": "value", "source": {"type": "documentValue", "document": 0, "path": 0}}}
	}`)

	out := EncodeSourceMap(data, csm, Config{Enabled: true, StudioURL: testStudio})
	span := out.(map[string]any)["Settings"].(map[string]any)["descriptionRaw"].([]any)[0].(map[string]any)["children"].([]any)[0].(map[string]any)

	payload, err := Decode(span["text"].(string))
	require.NoError(t, err)
	assert.Equal(t, "/studio/app-router/intent/edit/id=settings;type=settings;path=description%5B0%5D.children%5B0%5D.text", payload.Href)
}

func TestEncodeSourceMapDisabled(t *testing.T) {
	data := decodeJSON(t, `{"allPost": [{"title": "Hello"}]}`)
	out := EncodeSourceMap(data, mustSourceMap(t, postSourceMap), Config{Enabled: false})
	if diff := cmp.Diff(data, out); diff != "" {
		t.Fatalf("disabled transcoding changed data (-want +got):\n%s", diff)
	}
}

func TestEncodeSourceMapBadIndexesSkipLeaf(t *testing.T) {
	data := decodeJSON(t, `{"a": "one", "b": "two"}`)
	csm := &ContentSourceMap{
		Documents: []SourceDocument{{ID: "d", Type: "doc"}},
		Paths:     []string{"$['a']", "not-a-path"},
		Mappings: map[string]Mapping{
			"$['a']": {Type: "value", Source: MappingSource{Type: "documentValue", Document: 7, Path: 0}},
			"$['b']": {Type: "value", Source: MappingSource{Type: "documentValue", Document: 0, Path: 1}},
		},
	}
	out := EncodeSourceMap(data, csm, Config{Enabled: true})
	if diff := cmp.Diff(data, out); diff != "" {
		t.Fatalf("unresolvable leaves changed (-want +got):\n%s", diff)
	}
}

func TestEncodeSourceMapDoesNotReencode(t *testing.T) {
	data := map[string]any{"title": "Hello"}
	csm := &ContentSourceMap{
		Documents: []SourceDocument{{ID: "p", Type: "post"}},
		Paths:     []string{"$['title']"},
		Mappings: map[string]Mapping{
			"$['title']": {Type: "value", Source: MappingSource{Type: "documentValue"}},
		},
	}
	once := EncodeSourceMap(data, csm, Config{Enabled: true})
	twice := EncodeSourceMap(once, csm, Config{Enabled: true})
	assert.Equal(t, once, twice)
}

func TestParseSourceMapRejectsMalformed(t *testing.T) {
	for _, raw := range []string{
		`{}`,
		`{"documents": [], "paths": [], "mappings": {"$": {"type": "value"}}}`,
		`{"documents": [{"_type": "post"}], "paths": [], "mappings": {}}`,
		`[1, 2]`,
	} {
		_, err := ParseSourceMap([]byte(raw))
		assert.Error(t, err, raw)
	}
}

func TestTitleFilterOverridesDefault(t *testing.T) {
	deny := func(FilterProps) bool { return false }
	props := FilterProps{SourcePath: Path{Field("seo"), Field("title")}, Value: "Hi", FilterDefault: deny}
	assert.True(t, TitleFilter(props))

	props.SourcePath = Path{Field("excerpt")}
	assert.False(t, TitleFilter(props))
}

func TestFilterDefault(t *testing.T) {
	tests := []struct {
		name  string
		path  Path
		value string
		want  bool
	}{
		{"plain text", Path{Field("excerpt")}, "Some words", true},
		{"date", Path{Field("date")}, "2024-02-28", false},
		{"datetime", Path{Field("publishedAt")}, "2024-02-28T10:00:00Z", false},
		{"url", Path{Field("website")}, "https://example.com", false},
		{"relative url", Path{Field("cta")}, "/posts/hello", false},
		{"slug", Path{Field("slug"), Field("current")}, "hello", false},
		{"system field", Path{Field("_id")}, "abc", false},
		{"id suffix", Path{Field("videoId")}, "abc", false},
		{"seo subtree", Path{Field("seo"), Field("description")}, "text", false},
		{"type like", Path{Field("iconType")}, "arrow", false},
		{"denylisted", Path{Field("layout")}, "wide", false},
	}
	for _, tt := range tests {
		got := FilterDefault(FilterProps{SourcePath: tt.path, Value: tt.value})
		assert.Equal(t, tt.want, got, tt.name)
	}
}
