package cache

import (
	"context"
	"time"

	"github.com/custodia-labs/timeport-cli/internal/core/ports/driven"
	"github.com/custodia-labs/timeport-cli/internal/logger"
)

// Ensure Layered implements the interface.
var _ driven.Cache = (*Layered)(nil)

// Layered composes a fast volatile tier with a slower durable tier.
// Reads hit the fast tier first and fall back to the durable tier on a
// miss, promoting the found entry; writes go to both tiers. Hot reads
// never pay durable-store latency while cold starts still benefit from
// prior durable state.
type Layered struct {
	fast    driven.Cache
	durable driven.Cache

	// promoteTTL bounds the lifetime of entries promoted into the fast
	// tier; the durable tier keeps the authoritative expiry.
	promoteTTL time.Duration
}

// NewLayered creates a layered cache. Either tier may be nil, degrading
// to the other alone.
func NewLayered(fast, durable driven.Cache) *Layered {
	return &Layered{
		fast:       fast,
		durable:    durable,
		promoteTTL: time.Hour,
	}
}

// Get reads the fast tier, then the durable tier.
func (l *Layered) Get(ctx context.Context, namespace, key string) ([]byte, bool, error) {
	if l.fast != nil {
		value, ok, err := l.fast.Get(ctx, namespace, key)
		if err == nil && ok {
			return value, true, nil
		}
		if err != nil {
			logger.Warn("fast cache read failed: %v", err)
		}
	}

	if l.durable == nil {
		return nil, false, nil
	}
	value, ok, err := l.durable.Get(ctx, namespace, key)
	if err != nil || !ok {
		return nil, ok, err
	}

	if l.fast != nil {
		if err := l.fast.Set(ctx, namespace, key, value, l.promoteTTL); err != nil {
			logger.Warn("promoting cache entry failed: %v", err)
		}
	}
	return value, true, nil
}

// Set writes to both tiers.
func (l *Layered) Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	if l.fast != nil {
		if err := l.fast.Set(ctx, namespace, key, value, ttl); err != nil {
			logger.Warn("fast cache write failed: %v", err)
		}
	}
	if l.durable != nil {
		return l.durable.Set(ctx, namespace, key, value, ttl)
	}
	return nil
}

// Invalidate removes the entry from both tiers.
func (l *Layered) Invalidate(ctx context.Context, namespace, key string) error {
	if l.fast != nil {
		if err := l.fast.Invalidate(ctx, namespace, key); err != nil {
			logger.Warn("fast cache invalidate failed: %v", err)
		}
	}
	if l.durable != nil {
		return l.durable.Invalidate(ctx, namespace, key)
	}
	return nil
}

// InvalidateNamespace removes the namespace from both tiers.
func (l *Layered) InvalidateNamespace(ctx context.Context, namespace string) error {
	if l.fast != nil {
		if err := l.fast.InvalidateNamespace(ctx, namespace); err != nil {
			logger.Warn("fast cache invalidate failed: %v", err)
		}
	}
	if l.durable != nil {
		return l.durable.InvalidateNamespace(ctx, namespace)
	}
	return nil
}
