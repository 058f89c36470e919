package sanity

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/sanity-io/demo-graphql-presentation-nextjs/sanity/stega"
)

// Forward sends an operation to the next stage and returns its result.
type Forward func(ctx context.Context, op *Operation) (*Result, error)

// Exchange wraps the next stage. It may rewrite the operation on the way
// down and the result on the way up.
type Exchange func(next Forward) Forward

// Compose chains exchanges in order in front of terminal.
func Compose(terminal Forward, exchanges ...Exchange) Forward {
	f := terminal
	for i := len(exchanges) - 1; i >= 0; i-- {
		f = exchanges[i](f)
	}
	return f
}

// SanityExchangeConfig configures SanityExchange.
type SanityExchangeConfig struct {
	// Perspective defaults to published.
	Perspective Perspective
	Stega       bool
	StudioURL   stega.StudioURL
	Filter      stega.Filter
	Logger      *zap.Logger
}

// SanityExchange routes query operations to the API or API CDN host, sets the
// perspective and resultSourceMap parameters, and stega-encodes results that
// carry a content source map. Mutations pass through untouched.
func SanityExchange(cfg SanityExchangeConfig) Exchange {
	if cfg.Perspective == "" {
		cfg.Perspective = PerspectivePublished
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return func(next Forward) Forward {
		return func(ctx context.Context, op *Operation) (*Result, error) {
			if op.Kind != KindQuery {
				return next(ctx, op)
			}
			rewritten, err := cfg.processOperation(op)
			if err != nil {
				return nil, err
			}
			res, err := next(ctx, rewritten)
			if err != nil {
				return nil, err
			}
			return cfg.processResult(res), nil
		}
	}
}

func (cfg SanityExchangeConfig) processOperation(op *Operation) (*Operation, error) {
	useStega := op.stega(cfg.Stega)
	perspective := cfg.Perspective
	if op.Context.Perspective != "" {
		perspective = op.Context.Perspective
	}
	if err := perspective.Validate(); err != nil {
		return nil, err
	}
	useCdn := perspective != PerspectivePreviewDrafts && !useStega

	u, err := url.Parse(op.Context.URL)
	if err != nil {
		return nil, fmt.Errorf("sanity: parse operation url: %w", err)
	}
	u.Host = rewriteHost(u.Host, useCdn)
	q := u.Query()
	q.Set("perspective", string(perspective))
	if useStega {
		q.Set("resultSourceMap", "true")
	} else {
		q.Del("resultSourceMap")
	}
	u.RawQuery = q.Encode()

	headers := op.Context.Headers.Clone()
	switch perspective {
	case PerspectivePreviewDrafts:
		if headers.Get("Authorization") == "" {
			return nil, ErrTokenRequired
		}
	case PerspectivePublished:
		headers.Del("Authorization")
	}

	opCtx := op.Context
	opCtx.URL = u.String()
	opCtx.Perspective = perspective
	opCtx.Stega = &useStega
	opCtx.Headers = headers

	cfg.Logger.Debug("sanity: operation routed",
		zap.String("perspective", string(perspective)),
		zap.Bool("stega", useStega),
		zap.Bool("cdn", useCdn),
		zap.String("host", u.Host),
	)
	return op.WithContext(opCtx), nil
}

func (cfg SanityExchangeConfig) processResult(res *Result) *Result {
	if res.Operation == nil || res.Operation.Kind != KindQuery {
		return res
	}
	if !res.Operation.stega(cfg.Stega) || res.Data == nil {
		return res
	}
	csm, ok, err := res.SourceMap()
	if !ok {
		return res
	}
	if err != nil {
		cfg.Logger.Warn("sanity: skipping stega, malformed source map", zap.Error(err))
		return res
	}
	out := *res
	out.Data = stega.EncodeSourceMap(res.Data, csm, stega.Config{
		Enabled:   true,
		StudioURL: cfg.StudioURL,
		Filter:    cfg.Filter,
		Logger:    cfg.Logger,
	})
	return &out
}
