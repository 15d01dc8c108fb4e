package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

const defaultMaxEntries = 10000

type windowCount struct {
	count      int
	windowEnds time.Time
}

type IPRateLimiter struct {
	mu         sync.Mutex
	limit      int
	window     time.Duration
	maxEntries int
	now        func() time.Time
	counts     map[string]windowCount
}

// NewIPRateLimiterWithMaxEntries bounds the number of tracked addresses.
// When the table is full, expired windows are swept first; if none have
// expired the table is reset.
func NewIPRateLimiterWithMaxEntries(limit int, window time.Duration, maxEntries int) *IPRateLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &IPRateLimiter{
		limit:      limit,
		window:     window,
		maxEntries: maxEntries,
		now:        time.Now,
		counts:     map[string]windowCount{},
	}
}

func (rl *IPRateLimiter) Middleware(message string) func(http.Handler) http.Handler {
	if message == "" {
		message = "Rate limit exceeded"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r.RemoteAddr)
			if ip == "" {
				ip = "unknown"
			}

			allowed, retryAfter := rl.allow(ip)
			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Round(time.Second).Seconds())))
				writeError(w, r, http.StatusTooManyRequests, "rate_limited", message, nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (rl *IPRateLimiter) allow(ip string) (bool, time.Duration) {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.counts[ip]
	if !ok && len(rl.counts) >= rl.maxEntries {
		rl.sweep(now)
	}
	if entry.windowEnds.Before(now) {
		entry = windowCount{windowEnds: now.Add(rl.window)}
	}
	entry.count++
	rl.counts[ip] = entry

	if entry.count > rl.limit {
		return false, entry.windowEnds.Sub(now)
	}
	return true, 0
}

func (rl *IPRateLimiter) sweep(now time.Time) {
	for ip, entry := range rl.counts {
		if entry.windowEnds.Before(now) {
			delete(rl.counts, ip)
		}
	}
	if len(rl.counts) >= rl.maxEntries {
		clear(rl.counts)
	}
}

func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
