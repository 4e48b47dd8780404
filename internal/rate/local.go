package rate

import (
	"context"
	"sync"
	"time"

	xrate "golang.org/x/time/rate"
)

// LocalFailureLimiter: token bucket por origen, en proceso. Para despliegues
// de una sola instancia o sin redis.
type LocalFailureLimiter struct {
	mu      sync.Mutex
	buckets map[string]*localBucket
	limit   xrate.Limit
	burst   int
}

type localBucket struct {
	lim      *xrate.Limiter
	lastSeen time.Time
}

// NewLocalFailureLimiter admite max fallos por window, con ráfaga max.
func NewLocalFailureLimiter(max int, window time.Duration) *LocalFailureLimiter {
	return &LocalFailureLimiter{
		buckets: map[string]*localBucket{},
		limit:   xrate.Every(window / time.Duration(max)),
		burst:   max,
	}
}

func (l *LocalFailureLimiter) bucket(key string) *localBucket {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		b = &localBucket{lim: xrate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
		// poda ocasional de orígenes viejos
		if len(l.buckets) > 10_000 {
			cutoff := time.Now().Add(-time.Hour)
			for k, old := range l.buckets {
				if old.lastSeen.Before(cutoff) {
					delete(l.buckets, k)
				}
			}
		}
	}
	b.lastSeen = time.Now()
	return b
}

func (l *LocalFailureLimiter) Allow(_ context.Context, key string) bool {
	return l.bucket(key).lim.Tokens() >= 1
}

func (l *LocalFailureLimiter) RecordFailure(_ context.Context, key string) {
	_ = l.bucket(key).lim.Allow()
}
