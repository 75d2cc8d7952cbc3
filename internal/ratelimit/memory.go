package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	gcThreshold = 1000
	idleTTL     = 10 * time.Minute
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter keeps one token bucket per key in process memory. The burst
// equals the per-minute budget and tokens refill evenly over the minute.
type MemoryLimiter struct {
	perMinute int
	mu        sync.Mutex
	buckets   map[string]*bucket
	now       func() time.Time
}

func NewMemoryLimiter(perMinute int) *MemoryLimiter {
	return &MemoryLimiter{
		perMinute: perMinute,
		buckets:   map[string]*bucket{},
		now:       time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	if l.perMinute <= 0 {
		return Result{Allowed: true, Remaining: math.MaxInt64}, nil
	}

	now := l.now()
	b := l.bucketFor(key, now)

	reservation := b.limiter.ReserveN(now, 1)
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return Result{Allowed: false, RetryAfter: delay}, nil
	}

	return Result{Allowed: true, Remaining: int64(b.limiter.TokensAt(now))}, nil
}

func (l *MemoryLimiter) bucketFor(key string, now time.Time) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{
			limiter: rate.NewLimiter(rate.Every(defaultWindow/time.Duration(l.perMinute)), l.perMinute),
		}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.gcLocked(now)

	return b
}

func (l *MemoryLimiter) gcLocked(now time.Time) {
	if len(l.buckets) < gcThreshold {
		return
	}

	cutoff := now.Add(-idleTTL)
	for key, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}
