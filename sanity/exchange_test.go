package sanity

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sanity-io/demo-graphql-presentation-nextjs/cache"
)

const testCDNURL = "https://p1.apicdn.sanity.io/v2024-02-28/graphql/production/default/?perspective=published"

// capture is a terminal stage recording the operations that reach it.
type capture struct {
	ops    []*Operation
	result func(op *Operation) (*Result, error)
}

func (c *capture) forward(_ context.Context, op *Operation) (*Result, error) {
	c.ops = append(c.ops, op)
	if c.result != nil {
		return c.result(op)
	}
	return &Result{Operation: op, Data: map[string]any{"title": "Hello"}}, nil
}

func queryOp(ctx OperationContext) *Operation {
	if ctx.URL == "" {
		ctx.URL = testCDNURL
	}
	return &Operation{Kind: KindQuery, Query: `query { title }`, Context: ctx}
}

func TestComposeOrder(t *testing.T) {
	var order []string
	mark := func(name string) Exchange {
		return func(next Forward) Forward {
			return func(ctx context.Context, op *Operation) (*Result, error) {
				order = append(order, name)
				return next(ctx, op)
			}
		}
	}
	term := &capture{}
	fwd := Compose(term.forward, mark("a"), mark("b"), mark("c"))
	_, err := fwd(context.Background(), queryOp(OperationContext{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestSanityExchangeRouting(t *testing.T) {
	yes, no := true, false
	tests := []struct {
		name       string
		cfg        SanityExchangeConfig
		ctx        OperationContext
		wantHost   string
		wantParams url.Values
	}{
		{
			name:       "published defaults to cdn",
			ctx:        OperationContext{},
			wantHost:   "p1.apicdn.sanity.io",
			wantParams: url.Values{"perspective": {"published"}},
		},
		{
			name:       "stega from config bypasses cdn",
			cfg:        SanityExchangeConfig{Stega: true},
			wantHost:   "p1.api.sanity.io",
			wantParams: url.Values{"perspective": {"published"}, "resultSourceMap": {"true"}},
		},
		{
			name:       "operation stega overrides config",
			cfg:        SanityExchangeConfig{Stega: true},
			ctx:        OperationContext{Stega: &no},
			wantHost:   "p1.apicdn.sanity.io",
			wantParams: url.Values{"perspective": {"published"}},
		},
		{
			name:       "operation perspective overrides config",
			ctx:        OperationContext{Perspective: PerspectivePreviewDrafts, Stega: &yes, Headers: http.Header{"Authorization": {"Bearer tok"}}},
			wantHost:   "p1.api.sanity.io",
			wantParams: url.Values{"perspective": {"previewDrafts"}, "resultSourceMap": {"true"}},
		},
		{
			name:       "previewDrafts without stega stays off cdn",
			cfg:        SanityExchangeConfig{Perspective: PerspectivePreviewDrafts},
			ctx:        OperationContext{Headers: http.Header{"Authorization": {"Bearer tok"}}},
			wantHost:   "p1.api.sanity.io",
			wantParams: url.Values{"perspective": {"previewDrafts"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			term := &capture{}
			fwd := SanityExchange(tt.cfg)(term.forward)
			_, err := fwd(context.Background(), queryOp(tt.ctx))
			require.NoError(t, err)
			require.Len(t, term.ops, 1)

			u, err := url.Parse(term.ops[0].Context.URL)
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, u.Host)
			assert.Equal(t, tt.wantParams, u.Query())
		})
	}
}

func TestSanityExchangeCredentials(t *testing.T) {
	term := &capture{}
	fwd := SanityExchange(SanityExchangeConfig{})(term.forward)

	_, err := fwd(context.Background(), queryOp(OperationContext{Perspective: PerspectivePreviewDrafts}))
	assert.ErrorIs(t, err, ErrTokenRequired)
	assert.Empty(t, term.ops, "operation without a token must not reach the network")

	headers := http.Header{"Authorization": {"Bearer tok"}, "X-Custom": {"1"}}
	_, err = fwd(context.Background(), queryOp(OperationContext{Perspective: PerspectivePublished, Headers: headers}))
	require.NoError(t, err)
	require.Len(t, term.ops, 1)
	assert.Empty(t, term.ops[0].Context.Headers.Get("Authorization"))
	assert.Equal(t, "1", term.ops[0].Context.Headers.Get("X-Custom"))
	// The caller's headers are not modified.
	assert.Equal(t, "Bearer tok", headers.Get("Authorization"))
}

func TestSanityExchangeRejectsUnknownPerspective(t *testing.T) {
	term := &capture{}
	fwd := SanityExchange(SanityExchangeConfig{})(term.forward)
	_, err := fwd(context.Background(), queryOp(OperationContext{Perspective: "raw"}))
	assert.ErrorIs(t, err, ErrUnknownPerspective)
}

func TestSanityExchangeMutationPassesThrough(t *testing.T) {
	term := &capture{}
	fwd := SanityExchange(SanityExchangeConfig{Stega: true})(term.forward)
	op := &Operation{Kind: KindMutation, Query: `mutation { x }`, Context: OperationContext{URL: testCDNURL}}

	_, err := fwd(context.Background(), op)
	require.NoError(t, err)
	assert.Same(t, op, term.ops[0])
}

func TestSanityExchangePropagatesTransportErrors(t *testing.T) {
	boom := &url.Error{Op: "Post", URL: testCDNURL, Err: errors.New("connection refused")}
	term := &capture{result: func(*Operation) (*Result, error) { return nil, boom }}
	fwd := SanityExchange(SanityExchangeConfig{})(term.forward)

	_, err := fwd(context.Background(), queryOp(OperationContext{}))
	var urlErr *url.Error
	require.ErrorAs(t, err, &urlErr)
	assert.Same(t, boom, urlErr)
}

func TestSanityExchangeMalformedSourceMapLogsAndSkips(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	term := &capture{result: func(op *Operation) (*Result, error) {
		return decodeResult(op, []byte(`{"data": {"title": "Hello"}, "extensions": {"sanitySourceMap": {"documents": 3}}}`))
	}}
	fwd := SanityExchange(SanityExchangeConfig{Stega: true, Logger: zap.New(core)})(term.forward)

	res, err := fwd(context.Background(), queryOp(OperationContext{}))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "Hello"}, res.Data)
	assert.Equal(t, 1, logs.FilterMessage("sanity: skipping stega, malformed source map").Len())
}

func TestCacheExchangeServesPublishedQueries(t *testing.T) {
	store := cache.NewMemory()
	defer store.Close()
	term := &capture{}
	fwd := CacheExchange(store, 0, nil)(term.forward)

	op := queryOp(OperationContext{Perspective: PerspectivePublished, Stega: new(bool)})
	op.Variables = map[string]any{"slug": "hello", "limit": 2}

	first, err := fwd(context.Background(), op)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	again := op.WithContext(op.Context)
	again.Variables = map[string]any{"limit": 2, "slug": "hello"}
	second, err := fwd(context.Background(), again)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, map[string]any{"title": "Hello"}, second.Data)
	assert.Len(t, term.ops, 1)
}

func TestCacheExchangeSkips(t *testing.T) {
	yes := true
	tests := []struct {
		name string
		op   *Operation
	}{
		{"stega", queryOp(OperationContext{Perspective: PerspectivePublished, Stega: &yes})},
		{"previewDrafts", queryOp(OperationContext{Perspective: PerspectivePreviewDrafts})},
		{"network-only", queryOp(OperationContext{Perspective: PerspectivePublished, RequestPolicy: NetworkOnly})},
		{"mutation", &Operation{Kind: KindMutation, Context: OperationContext{URL: testCDNURL, Perspective: PerspectivePublished}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := cache.NewMemory()
			defer store.Close()
			term := &capture{}
			fwd := CacheExchange(store, 0, nil)(term.forward)
			for i := 0; i < 2; i++ {
				res, err := fwd(context.Background(), tt.op)
				require.NoError(t, err)
				assert.False(t, res.Cached)
			}
			assert.Len(t, term.ops, 2)
		})
	}
}

func TestCacheExchangeDoesNotStoreErrors(t *testing.T) {
	store := cache.NewMemory()
	defer store.Close()
	term := &capture{result: func(op *Operation) (*Result, error) {
		return &Result{Operation: op, Errors: []GraphQLError{{Message: "nope"}}}, nil
	}}
	fwd := CacheExchange(store, 0, nil)(term.forward)
	op := queryOp(OperationContext{Perspective: PerspectivePublished})

	for i := 0; i < 2; i++ {
		_, err := fwd(context.Background(), op)
		require.NoError(t, err)
	}
	assert.Len(t, term.ops, 2)
}

// failingCache errors on every call.
type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("down")
}

func (failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("down")
}

func TestCacheExchangeTreatsFailuresAsMisses(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	term := &capture{}
	fwd := CacheExchange(failingCache{}, 0, zap.New(core))(term.forward)

	res, err := fwd(context.Background(), queryOp(OperationContext{Perspective: PerspectivePublished}))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "Hello"}, res.Data)
	assert.Equal(t, 2, logs.Len())
}

func TestSanityExchangeAboveCacheStoresRawResult(t *testing.T) {
	store := cache.NewMemory()
	defer store.Close()
	term := &capture{result: func(op *Operation) (*Result, error) {
		return decodeResult(op, []byte(titleResponse))
	}}
	fwd := Compose(term.forward, SanityExchange(SanityExchangeConfig{}), CacheExchange(store, 0, nil))
	op := queryOp(OperationContext{})

	for i := 0; i < 2; i++ {
		_, err := fwd(context.Background(), op)
		require.NoError(t, err)
	}
	assert.Len(t, term.ops, 1)

	key, err := cacheKey(term.ops[0])
	require.NoError(t, err)
	raw, ok, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, string(raw), `"title":"Hello"`)
}

func TestFetchExchangeHTTPError(t *testing.T) {
	httpClient, _ := newTestAPI(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream broke", http.StatusBadGateway)
	})
	fwd := FetchExchange(httpClient, nil)

	_, err := fwd(context.Background(), queryOp(OperationContext{}))
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	assert.Equal(t, "upstream broke", httpErr.Body)
}

func TestFetchExchangeGraphQLErrorStatus(t *testing.T) {
	httpClient, _ := newTestAPI(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors": [{"message": "Syntax Error"}]}`))
	})
	fwd := FetchExchange(httpClient, nil)

	res, err := fwd(context.Background(), queryOp(OperationContext{}))
	require.NoError(t, err)
	assert.EqualError(t, res.Err(), "sanity: graphql: Syntax Error")
}

func TestFetchExchangeContextCanceled(t *testing.T) {
	httpClient, _ := newTestAPI(t, respondJSON(`{"data": {}}`))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := FetchExchange(httpClient, nil)(ctx, queryOp(OperationContext{}))
	assert.ErrorIs(t, err, context.Canceled)
}
