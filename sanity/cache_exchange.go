package sanity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gowebpki/jcs"
	"go.uber.org/zap"
)

// DefaultResultTTL matches the API CDN cache lifetime.
const DefaultResultTTL = 30 * time.Second

// ResultCache stores raw GraphQL response bodies.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CacheExchange answers published, non-stega queries from cache. It must sit
// below SanityExchange so the stored copy is the untranscoded response.
func CacheExchange(cache ResultCache, ttl time.Duration, logger *zap.Logger) Exchange {
	if ttl <= 0 {
		ttl = DefaultResultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next Forward) Forward {
		return func(ctx context.Context, op *Operation) (*Result, error) {
			if !cacheable(op) {
				return next(ctx, op)
			}
			key, err := cacheKey(op)
			if err != nil {
				logger.Warn("sanity: cache key", zap.Error(err))
				return next(ctx, op)
			}

			raw, ok, err := cache.Get(ctx, key)
			if err != nil {
				logger.Warn("sanity: cache get", zap.String("key", key), zap.Error(err))
			}
			if ok && err == nil {
				res, err := decodeResult(op, raw)
				if err == nil {
					logger.Debug("sanity: cache hit", zap.String("key", key))
					res.Cached = true
					return res, nil
				}
				logger.Warn("sanity: cached result unreadable", zap.String("key", key), zap.Error(err))
			}

			res, err := next(ctx, op)
			if err != nil {
				return nil, err
			}
			if len(res.Errors) > 0 {
				return res, nil
			}
			body, err := encodeResult(res)
			if err != nil {
				logger.Warn("sanity: encode result for cache", zap.Error(err))
				return res, nil
			}
			if err := cache.Set(ctx, key, body, ttl); err != nil {
				logger.Warn("sanity: cache set", zap.String("key", key), zap.Error(err))
			}
			return res, nil
		}
	}
}

func cacheable(op *Operation) bool {
	if op.Kind != KindQuery || op.Context.RequestPolicy == NetworkOnly {
		return false
	}
	return op.Context.Perspective == PerspectivePublished && !op.stega(false)
}

// cacheKey digests the canonical JSON of the operation's url, query and
// variables so equivalent variable maps share an entry.
func cacheKey(op *Operation) (string, error) {
	raw, err := json.Marshal(map[string]any{
		"url":       op.Context.URL,
		"query":     op.Query,
		"variables": op.Variables,
	})
	if err != nil {
		return "", fmt.Errorf("sanity: marshal cache key: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("sanity: canonicalize cache key: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
