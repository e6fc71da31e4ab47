package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// RateLimiter applies a sliding-window request limit per client IP.
type RateLimiter struct {
	maxRequests int
	window      time.Duration
	now         func() time.Time

	mu        sync.Mutex
	requests  map[string][]time.Time // IP -> request times inside the window
	lastSweep time.Time
}

// NewRateLimiter allows maxRequests per client within window.
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
		requests:    make(map[string][]time.Time),
	}
}

// allow records a request from clientIP and reports whether it is within the limit.
func (l *RateLimiter) allow(clientIP string) bool {
	now := l.now()
	windowStart := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.window {
		l.sweep(windowStart)
		l.lastSweep = now
	}

	kept := l.requests[clientIP][:0]
	for _, ts := range l.requests[clientIP] {
		if ts.After(windowStart) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.maxRequests {
		l.requests[clientIP] = kept
		return false
	}
	l.requests[clientIP] = append(kept, now)
	return true
}

// sweep drops clients whose requests have all left the window.
func (l *RateLimiter) sweep(windowStart time.Time) {
	for ip, times := range l.requests {
		if len(times) == 0 || !times[len(times)-1].After(windowStart) {
			delete(l.requests, ip)
		}
	}
}

// Handler rejects requests over the limit with 429 Too Many Requests.
func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := getClientIP(r)
		if !l.allow(clientIP) {
			log.WithFields(log.Fields{"client_ip": clientIP, "path": r.URL.Path}).Warn("Rate limit exceeded")
			w.Header().Set("Retry-After", strconv.Itoa(int(l.window.Seconds())))
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return strings.TrimSpace(strings.Split(ip, ",")[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
