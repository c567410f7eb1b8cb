package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"gather/pkg/logger"
)

// KeyExtractor picks the identity a request is rate limited under. An empty
// key bypasses the limiter.
type KeyExtractor func(r *http.Request) string

type RateLimiter struct {
	mu           sync.Mutex
	requests     map[string][]time.Time
	limit        int
	window       time.Duration
	keyExtractor KeyExtractor
	log          *logger.Logger
	stopCh       chan struct{}
	stopOnce     sync.Once
}

func NewRateLimiter(limit int, window time.Duration, extractor KeyExtractor, log *logger.Logger) *RateLimiter {
	if extractor == nil {
		extractor = ClientIPExtractor
	}
	limiter := &RateLimiter{
		requests:     make(map[string][]time.Time),
		limit:        limit,
		window:       window,
		keyExtractor: extractor,
		log:          log,
		stopCh:       make(chan struct{}),
	}

	go limiter.cleanup()

	return limiter
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for key, timestamps := range rl.requests {
				if len(timestamps) == 0 || time.Since(timestamps[len(timestamps)-1]) > rl.window {
					delete(rl.requests, key)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Allow records a hit for key and reports whether it is within the window's
// budget. The check and the record happen under one lock.
func (rl *RateLimiter) Allow(key string) bool {
	if key == "" {
		return true
	}

	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	valid := rl.requests[key][:0]
	for _, ts := range rl.requests[key] {
		if now.Sub(ts) < rl.window {
			valid = append(valid, ts)
		}
	}

	if len(valid) >= rl.limit {
		rl.requests[key] = valid
		return false
	}

	rl.requests[key] = append(valid, now)
	return true
}

// RateLimit applies the limiter to write requests only; reads are free.
func RateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			key := limiter.keyExtractor(r)
			if !limiter.Allow(key) {
				limiter.log.Warn("Rate limit exceeded",
					"request_id", RequestIDFromContext(r.Context()),
					"client", key,
					"path", r.URL.Path,
				)
				w.Header().Set("Retry-After", strconv.Itoa(max(int(limiter.window.Seconds()), 1)))
				writeJSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIPExtractor keys on the first X-Forwarded-For hop, falling back to
// the connection's remote address.
func ClientIPExtractor(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
