// internal/pkg/storage/prefix.go
package storage

import (
	"context"
	"time"
)

// PrefixedKV namespaces a KV under a fixed key prefix. Used to carve
// independent tiers out of one backing store.
type PrefixedKV struct {
	inner  KV
	prefix string
}

// NewPrefixedKV wraps kv so every key gets the prefix
func NewPrefixedKV(kv KV, prefix string) *PrefixedKV {
	return &PrefixedKV{inner: kv, prefix: prefix}
}

func (p *PrefixedKV) Set(ctx context.Context, key, value string, expiration time.Duration) error {
	return p.inner.Set(ctx, p.prefix+key, value, expiration)
}

func (p *PrefixedKV) Get(ctx context.Context, key string) (string, error) {
	return p.inner.Get(ctx, p.prefix+key)
}

func (p *PrefixedKV) Del(ctx context.Context, keys ...string) error {
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = p.prefix + key
	}
	return p.inner.Del(ctx, prefixed...)
}
