package sanity

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/sanity-io/demo-graphql-presentation-nextjs/sanity/stega"
)

// Factory builds GraphQL clients for one project and dataset.
type Factory struct {
	cfg        Config
	httpClient *http.Client
	cache      ResultCache
	cacheTTL   time.Duration
	filter     stega.Filter
	logger     *zap.Logger
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithHTTPClient sets the client used by the fetch exchange.
func WithHTTPClient(c *http.Client) FactoryOption {
	return func(f *Factory) { f.httpClient = c }
}

// WithResultCache enables the cache exchange for published queries.
func WithResultCache(c ResultCache, ttl time.Duration) FactoryOption {
	return func(f *Factory) {
		f.cache = c
		f.cacheTTL = ttl
	}
}

// WithLogger sets the logger passed to every exchange.
func WithLogger(l *zap.Logger) FactoryOption {
	return func(f *Factory) { f.logger = l }
}

// WithFilter overrides the stega filter. The default annotates titles
// unconditionally and defers to stega.FilterDefault otherwise.
func WithFilter(fn stega.Filter) FactoryOption {
	return func(f *Factory) { f.filter = fn }
}

// NewFactory validates cfg and returns a Factory.
func NewFactory(cfg Config, opts ...FactoryOption) (*Factory, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	f := &Factory{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		filter:     stega.TitleFilter,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Config returns the validated configuration.
func (f *Factory) Config() Config { return f.cfg }

// NewClient returns a client bound to perspective. Published clients start on
// the API CDN host; previewDrafts clients use the API host with the read token.
// No request is made.
func (f *Factory) NewClient(perspective Perspective, resultSourceMap bool) (*Client, error) {
	if err := perspective.Validate(); err != nil {
		return nil, err
	}
	headers := http.Header{}
	if perspective == PerspectivePreviewDrafts {
		if err := f.cfg.ValidateToken(); err != nil {
			return nil, err
		}
		headers.Set("Authorization", "Bearer "+f.cfg.Token)
	}

	u, err := url.Parse(f.cfg.GraphQLURL(perspective == PerspectivePublished))
	if err != nil {
		return nil, fmt.Errorf("sanity: graphql url: %w", err)
	}
	q := u.Query()
	q.Set("perspective", string(perspective))
	if resultSourceMap {
		q.Set("resultSourceMap", "true")
	}
	u.RawQuery = q.Encode()

	exchanges := []Exchange{SanityExchange(SanityExchangeConfig{
		Perspective: perspective,
		Stega:       resultSourceMap,
		StudioURL:   f.cfg.StudioURL,
		Filter:      f.filter,
		Logger:      f.logger,
	})}
	if f.cache != nil {
		exchanges = append(exchanges, CacheExchange(f.cache, f.cacheTTL, f.logger))
	}

	return &Client{
		url:         u.String(),
		headers:     headers,
		perspective: perspective,
		stega:       resultSourceMap,
		forward:     Compose(FetchExchange(f.httpClient, f.logger), exchanges...),
	}, nil
}

// Client sends operations through its exchange pipeline.
type Client struct {
	url         string
	headers     http.Header
	perspective Perspective
	stega       bool
	forward     Forward
}

// URL returns the endpoint the client was built with.
func (c *Client) URL() string { return c.url }

func (c *Client) Perspective() Perspective { return c.perspective }

func (c *Client) Stega() bool { return c.stega }

// OperationOption adjusts the context of a single operation.
type OperationOption func(*OperationContext)

// WithPerspective overrides the client perspective for one operation.
func WithPerspective(p Perspective) OperationOption {
	return func(oc *OperationContext) { oc.Perspective = p }
}

// WithStega overrides the client stega setting for one operation.
func WithStega(enabled bool) OperationOption {
	return func(oc *OperationContext) { oc.Stega = &enabled }
}

// WithRequestPolicy sets the result cache policy for one operation.
func WithRequestPolicy(p RequestPolicy) OperationOption {
	return func(oc *OperationContext) { oc.RequestPolicy = p }
}

// Query runs a GraphQL query.
func (c *Client) Query(ctx context.Context, query string, variables map[string]any, opts ...OperationOption) (*Result, error) {
	return c.execute(ctx, KindQuery, query, variables, opts)
}

// Mutation runs a GraphQL mutation. Mutations bypass perspective routing,
// stega and the result cache.
func (c *Client) Mutation(ctx context.Context, query string, variables map[string]any, opts ...OperationOption) (*Result, error) {
	return c.execute(ctx, KindMutation, query, variables, opts)
}

func (c *Client) execute(ctx context.Context, kind OperationKind, query string, variables map[string]any, opts []OperationOption) (*Result, error) {
	oc := OperationContext{
		URL:           c.url,
		RequestPolicy: CacheFirst,
		Headers:       c.headers.Clone(),
	}
	for _, opt := range opts {
		opt(&oc)
	}
	return c.forward(ctx, &Operation{
		Kind:      kind,
		Query:     query,
		Variables: variables,
		Context:   oc,
	})
}
