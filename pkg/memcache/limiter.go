// pkg/memcache/limiter.go
package mem

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter throttles checkout attempts per key (usually the client IP).
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type Policy struct {
	PerMinute int
	Burst     int
}

func (p Policy) ratePerSecond() float64 {
	if p.PerMinute <= 0 {
		return 1
	}
	return float64(p.PerMinute) / 60.0
}

func (p Policy) burst() int {
	if p.Burst <= 0 {
		return 1
	}
	return p.Burst
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalLimiter keeps buckets in process memory. Only correct for a single instance;
// multi-instance deployments use RedisLimiter.
type LocalLimiter struct {
	mu     sync.Mutex
	policy Policy
	idle   time.Duration
	data   map[string]*entry
	now    func() time.Time
}

func NewLocalLimiter(policy Policy) *LocalLimiter {
	return &LocalLimiter{
		policy: policy,
		idle:   10 * time.Minute,
		data:   make(map[string]*entry),
		now:    time.Now,
	}
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.data[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(rate.Limit(l.policy.ratePerSecond()), l.policy.burst())}
		l.data[key] = e
	}
	e.lastSeen = now
	allowed := e.limiter.AllowN(now, 1)

	l.sweep(now)
	return allowed, nil
}

// sweep drops idle buckets; callers hold mu.
func (l *LocalLimiter) sweep(now time.Time) {
	for k, e := range l.data {
		if now.Sub(e.lastSeen) > l.idle {
			delete(l.data, k)
		}
	}
}
