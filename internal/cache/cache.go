// Package cache provides a thin result cache for analysis output.
// Cache failures are never fatal; callers degrade to recomputing.
package cache

import (
	"context"
	"time"
)

// Key prefixes per cached entity.
const (
	PrefixReport   = "report:"
	PrefixDeployer = "deployer:"
	PrefixWallet   = "wallet:"
)

// Default time-to-live per cached entity.
const (
	TTLReport   = 6 * time.Hour
	TTLDeployer = 24 * time.Hour
	TTLWallet   = 6 * time.Hour
)

// Store is a byte-oriented cache. Get returns (nil, false, nil) on miss.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
	Close() error
}

// Noop satisfies Store without storing anything. Used when no cache
// backend is configured.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (Noop) Invalidate(context.Context, string) error { return nil }

func (Noop) Close() error { return nil }

var _ Store = Noop{}
