package main

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// rateLimiter is a fixed-window counter per client IP. Counts live in
// process memory and are lost on restart.
type rateLimiter struct {
	hits       *cache.Cache
	limit      int
	window     time.Duration
	message    string
	trustProxy bool
}

func newRateLimiter(limit int, window time.Duration, trustProxy bool, message string) *rateLimiter {
	return &rateLimiter{
		hits:       cache.New(window, 2*window),
		limit:      limit,
		window:     window,
		message:    message,
		trustProxy: trustProxy,
	}
}

// allow counts one hit for key and reports whether it is within budget.
func (rl *rateLimiter) allow(key string) bool {
	if err := rl.hits.Add(key, 1, rl.window); err == nil {
		return true
	}
	n, err := rl.hits.IncrementInt(key, 1)
	if err != nil {
		// The window expired between Add and IncrementInt.
		rl.hits.Set(key, 1, rl.window)
		return true
	}
	return n <= rl.limit
}

func (rl *rateLimiter) middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientIP(r, rl.trustProxy)) {
			w.Header().Set("Retry-After", retryAfter(rl.window))
			writeErrorMessage(w, http.StatusTooManyRequests, rl.message)
			return
		}
		next.ServeHTTP(w, r)
	}
}

func retryAfter(window time.Duration) string {
	return strconv.Itoa(int(window.Round(time.Second).Seconds()))
}

// clientIP uses the first X-Forwarded-For hop only behind a trusted proxy.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			if ip := strings.TrimSpace(strings.Split(fwd, ",")[0]); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
