package ws

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const maxTrackedIPs = 4096

// JoinLimiter caps join and rejoin attempts per client address.
type JoinLimiter struct {
	mu        sync.Mutex
	perMinute int
	entries   map[string]*limiterEntry
	now       func() time.Time
}

type limiterEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewJoinLimiter allows perMinute attempts per address, refilled evenly over
// a minute. A non-positive perMinute disables limiting.
func NewJoinLimiter(perMinute int) *JoinLimiter {
	return &JoinLimiter{
		perMinute: perMinute,
		entries:   make(map[string]*limiterEntry),
		now:       time.Now,
	}
}

func (l *JoinLimiter) Allow(ip string) bool {
	if l == nil || l.perMinute <= 0 {
		return true
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.entries[ip]
	if e == nil {
		if len(l.entries) >= maxTrackedIPs {
			l.prune(now)
		}
		every := rate.Every(time.Minute / time.Duration(l.perMinute))
		e = &limiterEntry{lim: rate.NewLimiter(every, l.perMinute)}
		l.entries[ip] = e
	}
	e.seen = now
	return e.lim.AllowN(now, 1)
}

// prune forgets addresses idle long enough to have a full bucket again.
func (l *JoinLimiter) prune(now time.Time) {
	for ip, e := range l.entries {
		if now.Sub(e.seen) > time.Minute {
			delete(l.entries, ip)
		}
	}
}
