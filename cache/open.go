package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Store is the interface shared by every backend.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// SweepInterval is how often the SQLite backend opened by Open drops expired rows.
const SweepInterval = 5 * time.Minute

// Open picks a backend from rawURL: "" or "memory" for Memory, "redis://" or
// "rediss://" for Redis, and "sqlite://path" for SQLite.
func Open(ctx context.Context, rawURL string, logger *zap.Logger) (Store, error) {
	switch {
	case rawURL == "" || rawURL == "memory":
		return NewMemory(), nil
	case strings.HasPrefix(rawURL, "redis://"), strings.HasPrefix(rawURL, "rediss://"):
		return NewRedis(ctx, rawURL)
	case strings.HasPrefix(rawURL, "sqlite://"):
		path := strings.TrimPrefix(rawURL, "sqlite://")
		if path == "" {
			return nil, fmt.Errorf("cache: sqlite url %q has no path", rawURL)
		}
		s, err := NewSQLite(path, logger)
		if err != nil {
			return nil, err
		}
		s.StartSweeper(SweepInterval)
		return s, nil
	}
	return nil, fmt.Errorf("cache: unsupported url %q", rawURL)
}
