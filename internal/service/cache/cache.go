package cache

import (
	"context"
	"strings"
	"time"
)

// BytesCache stores raw bytes with a TTL. A miss is (nil, false, nil).
type BytesCache interface {
	GetBytes(ctx context.Context, key string) (b []byte, ok bool, err error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Key joins parts with ':' under the fincast namespace.
func Key(parts ...string) string {
	return strings.Join(append([]string{"fincast"}, parts...), ":")
}
