package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	pkgerrors "mindcanvas/pkg/errors"
)

// RateLimiter is a per-client token bucket. Each client starts with burst
// tokens and regains one every refill interval.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	burst   int
	refill  time.Duration
	now     func() time.Time
	errors  *pkgerrors.ErrorHandler
}

type bucket struct {
	tokens   int
	last     time.Time
	lastSeen time.Time
}

// NewRateLimiter allows perMinute requests per client on average with
// bursts up to burst. A burst below one defaults to perMinute.
func NewRateLimiter(perMinute, burst int, errs *pkgerrors.ErrorHandler) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	if burst < 1 {
		burst = perMinute
	}
	return &RateLimiter{
		buckets: make(map[string]*bucket),
		burst:   burst,
		refill:  time.Minute / time.Duration(perMinute),
		now:     time.Now,
		errors:  errs,
	}
}

// Allow takes a token for key. When none is left it reports how long
// until the next one.
func (l *RateLimiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.burst, last: now, lastSeen: now}
		l.buckets[key] = b
		l.evict(now)
	}
	b.lastSeen = now

	if gained := int(now.Sub(b.last) / l.refill); gained > 0 {
		b.tokens = min(b.tokens+gained, l.burst)
		b.last = b.last.Add(time.Duration(gained) * l.refill)
	}
	if b.tokens > 0 {
		b.tokens--
		return true, 0
	}
	return false, b.last.Add(l.refill).Sub(now)
}

// evict drops buckets idle long enough to have refilled completely. It
// runs when a new client shows up, so the map is bounded by active clients.
func (l *RateLimiter) evict(now time.Time) {
	idle := l.refill * time.Duration(l.burst)
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > idle {
			delete(l.buckets, key)
		}
	}
}

// Middleware rejects requests over the limit with 429. Clients are keyed
// by remote address, so mount it after chi's RealIP.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, wait := l.Allow(clientKey(r))
		if !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			l.errors.HandleStatus(w, r, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey is the remote host. RealIP leaves a bare address, which
// SplitHostPort rejects.
func clientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
