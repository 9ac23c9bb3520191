package kit

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// IPRateLimiter is a sliding-window limiter keyed by client IP.
//
// The key is the connection's remote address. Set TrustForwardedFor only
// when the service sits behind a proxy that overwrites X-Forwarded-For;
// otherwise clients can pick their own key by sending the header.
type IPRateLimiter struct {
	TrustForwardedFor bool

	mu     sync.Mutex
	limit  int
	window time.Duration
	hits   map[string][]time.Time
	now    func() time.Time
}

func NewIPRateLimiter(limit int, window time.Duration) *IPRateLimiter {
	return &IPRateLimiter{
		limit:  limit,
		window: window,
		hits:   make(map[string][]time.Time),
		now:    time.Now,
	}
}

func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientIP(r, l.TrustForwardedFor)) {
			w.Header().Set("Retry-After", strconv.Itoa(int(l.window.Seconds())))
			WriteError(w, r, http.StatusTooManyRequests, "too many requests", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Allow records a hit for ip and reports whether it is within the limit.
func (l *IPRateLimiter) Allow(ip string) bool {
	now := l.now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	ts := prune(l.hits[ip], cutoff)

	if len(ts) >= l.limit {
		l.hits[ip] = ts
		return false
	}

	l.hits[ip] = append(ts, now)
	return true
}

// Sweep drops clients with no hits inside the window.
func (l *IPRateLimiter) Sweep() {
	cutoff := l.now().Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	for ip, ts := range l.hits {
		if ts = prune(ts, cutoff); len(ts) == 0 {
			delete(l.hits, ip)
		} else {
			l.hits[ip] = ts
		}
	}
}

// RunSweeper calls Sweep every interval until ctx is done.
func (l *IPRateLimiter) RunSweeper(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.Sweep()
		}
	}
}

func prune(ts []time.Time, cutoff time.Time) []time.Time {
	n := 0
	for _, t := range ts {
		if t.After(cutoff) {
			ts[n] = t
			n++
		}
	}
	return ts[:n]
}

func clientIP(r *http.Request, trustXFF bool) string {
	if trustXFF {
		if ip := firstForwardedFor(r.Header.Get("X-Forwarded-For")); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}

	return r.RemoteAddr
}

func firstForwardedFor(xff string) string {
	if xff == "" {
		return ""
	}
	first, _, _ := strings.Cut(xff, ",")
	return strings.TrimSpace(first)
}
