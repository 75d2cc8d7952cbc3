// Package ratelimit counts requests per client key against a per-minute budget.
package ratelimit

import (
	"context"
	"time"
)

type Result struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// Limiter is implemented by the in-process and Redis backends.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

const defaultWindow = time.Minute
