package sanity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanity-io/demo-graphql-presentation-nextjs/cache"
)

func TestFetcherResolve(t *testing.T) {
	yes, no := true, false
	tests := []struct {
		name              string
		previewDeployment bool
		req               FetchRequest
		wantPerspective   Perspective
		wantStega         bool
	}{
		{"published by default", false, FetchRequest{}, PerspectivePublished, false},
		{"draft mode", false, FetchRequest{DraftMode: true}, PerspectivePreviewDrafts, true},
		{"preview deployment", true, FetchRequest{}, PerspectivePublished, true},
		{"explicit perspective wins", false, FetchRequest{DraftMode: true, Perspective: PerspectivePublished}, PerspectivePublished, false},
		{"explicit stega wins", false, FetchRequest{DraftMode: true, Stega: &no}, PerspectivePreviewDrafts, false},
		{"stega forced on", false, FetchRequest{Stega: &yes}, PerspectivePublished, true},
	}
	for _, tt := range tests {
		f := NewFetcher(nil, tt.previewDeployment)
		p, s := f.Resolve(tt.req)
		if p != tt.wantPerspective || s != tt.wantStega {
			t.Fatalf("%s: got (%s, %v), want (%s, %v)", tt.name, p, s, tt.wantPerspective, tt.wantStega)
		}
	}
}

func TestFetcherDraftModeQuery(t *testing.T) {
	httpClient, rec := newTestAPI(t, respondJSON(titleResponse))
	cc := NewClientCache(newTestFactory(t, httpClient))
	fetcher := NewFetcher(cc, false)

	res, err := fetcher.Fetch(context.Background(), FetchRequest{
		Query:     `query Post($slug: String!) { Post(slug: $slug) { title } }`,
		Params:    map[string]any{"slug": "hello"},
		DraftMode: true,
	})
	require.NoError(t, err)

	sent := rec.last(t)
	assert.Equal(t, "p1.api.sanity.io", sent.URL.Host)
	assert.Equal(t, "Bearer tok", sent.Header.Get("Authorization"))
	assert.JSONEq(t, `{"query": "query Post($slug: String!) { Post(slug: $slug) { title } }", "variables": {"slug": "hello"}}`, sent.Body)

	var out struct {
		Post struct{ Title string }
	}
	require.NoError(t, res.Decode(&out))
	assert.NotEqual(t, "Hello", out.Post.Title)

	_, err = cc.Get(PerspectivePreviewDrafts, true)
	require.NoError(t, err)
	assert.Equal(t, 1, cc.Len())
}

func TestFetcherPublishedQuery(t *testing.T) {
	httpClient, rec := newTestAPI(t, respondJSON(`{"data": {"Post": {"title": "Hello"}}}`))
	fetcher := NewFetcher(NewClientCache(newTestFactory(t, httpClient)), false)

	_, err := fetcher.Fetch(context.Background(), FetchRequest{Query: `query { Post { title } }`})
	require.NoError(t, err)
	assert.Equal(t, "p1.apicdn.sanity.io", rec.last(t).URL.Host)
	assert.Empty(t, rec.last(t).Header.Get("Authorization"))
}

func TestFetcherRejectsUnknownPerspective(t *testing.T) {
	f, err := NewFactory(testConfig)
	require.NoError(t, err)
	fetcher := NewFetcher(NewClientCache(f), false)

	_, err = fetcher.Fetch(context.Background(), FetchRequest{Perspective: "drafts"})
	assert.ErrorIs(t, err, ErrUnknownPerspective)
}

func TestFetcherNetworkOnlySkipsResultCache(t *testing.T) {
	httpClient, rec := newTestAPI(t, respondJSON(`{"data": {"Post": {"title": "Hello"}}}`))
	store := cache.NewMemory()
	defer store.Close()
	fetcher := NewFetcher(NewClientCache(newTestFactory(t, httpClient, WithResultCache(store, time.Minute))), false)
	req := FetchRequest{Query: `query { Post { title } }`}

	_, err := fetcher.Fetch(context.Background(), req)
	require.NoError(t, err)
	res, err := fetcher.Fetch(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.Equal(t, 1, rec.count())

	req.Policy = NetworkOnly
	res, err = fetcher.Fetch(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Equal(t, 2, rec.count())
}
