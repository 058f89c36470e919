package sanity

import (
	"context"
)

// FetchRequest describes one query issued through a Fetcher. Zero values
// are resolved from DraftMode and the preview-deployment flag.
type FetchRequest struct {
	Query       string
	Params      map[string]any
	Perspective Perspective
	Stega       *bool
	DraftMode   bool
	// Policy overrides the result cache policy; empty means CacheFirst.
	Policy RequestPolicy
}

// Fetcher picks perspective and stega defaults for server-side queries.
type Fetcher struct {
	clients           *ClientCache
	previewDeployment bool
}

// NewFetcher returns a Fetcher drawing clients from clients.
func NewFetcher(clients *ClientCache, previewDeployment bool) *Fetcher {
	return &Fetcher{clients: clients, previewDeployment: previewDeployment}
}

// Resolve fills the perspective and stega defaults of req.
func (f *Fetcher) Resolve(req FetchRequest) (Perspective, bool) {
	perspective := req.Perspective
	if perspective == "" {
		perspective = PerspectivePublished
		if req.DraftMode {
			perspective = PerspectivePreviewDrafts
		}
	}
	useStega := perspective == PerspectivePreviewDrafts || f.previewDeployment
	if req.Stega != nil {
		useStega = *req.Stega
	}
	return perspective, useStega
}

// Fetch runs req.Query with the resolved settings.
func (f *Fetcher) Fetch(ctx context.Context, req FetchRequest) (*Result, error) {
	perspective, useStega := f.Resolve(req)
	if err := perspective.Validate(); err != nil {
		return nil, err
	}
	client, err := f.clients.Get(perspective, useStega)
	if err != nil {
		return nil, err
	}
	opts := []OperationOption{WithPerspective(perspective), WithStega(useStega)}
	if req.Policy != "" {
		opts = append(opts, WithRequestPolicy(req.Policy))
	}
	return client.Query(ctx, req.Query, req.Params, opts...)
}
