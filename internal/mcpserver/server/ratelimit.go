package server

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// One token bucket per client address: bursts up to capacity, then a steady
// refill of perMinute/60 tokens per second.

// TokenBucket implements a token bucket rate limiter
type TokenBucket struct {
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

// NewTokenBucket creates a full bucket with given capacity and refill rate
func NewTokenBucket(capacity int, refillRate float64) *TokenBucket {
	return &TokenBucket{
		tokens:     float64(capacity),
		capacity:   float64(capacity),
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow consumes a token if one is available at now.
// When denied, retryAfter is the wait until the next token.
func (tb *TokenBucket) Allow(now time.Time) (allowed bool, remaining int, retryAfter time.Duration) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	// Refill tokens based on elapsed time
	elapsed := now.Sub(tb.lastRefill).Seconds()
	if elapsed > 0 {
		tb.tokens += elapsed * tb.refillRate
		if tb.tokens > tb.capacity {
			tb.tokens = tb.capacity
		}
		tb.lastRefill = now
	}

	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true, int(tb.tokens), 0
	}

	secondsUntilNext := (1.0 - tb.tokens) / tb.refillRate
	return false, 0, time.Duration(secondsUntilNext * float64(time.Second))
}

func (tb *TokenBucket) idleSince(now time.Time) time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return now.Sub(tb.lastRefill)
}

// RateLimiter manages per-client token buckets
type RateLimiter struct {
	buckets   map[string]*TokenBucket
	perMinute int
	burst     int
	mu        sync.RWMutex

	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter allows perMinute requests per client with bursts of up to burst
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	rl := &RateLimiter{
		buckets:   make(map[string]*TokenBucket),
		perMinute: perMinute,
		burst:     burst,
		stop:      make(chan struct{}),
	}

	// Start cleanup goroutine to remove inactive buckets
	go rl.cleanupLoop()

	return rl
}

// getBucket retrieves or creates the token bucket for a client
func (rl *RateLimiter) getBucket(clientID string) *TokenBucket {
	rl.mu.RLock()
	bucket, exists := rl.buckets[clientID]
	rl.mu.RUnlock()

	if exists {
		return bucket
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Double-check after acquiring write lock
	if bucket, exists := rl.buckets[clientID]; exists {
		return bucket
	}

	bucket = NewTokenBucket(rl.burst, float64(rl.perMinute)/60)
	rl.buckets[clientID] = bucket
	return bucket
}

// Allow checks whether the client may make a request now
func (rl *RateLimiter) Allow(clientID string) (bool, int, time.Duration) {
	return rl.getBucket(clientID).Allow(time.Now())
}

// Close stops the cleanup goroutine
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// cleanupLoop periodically removes buckets unused for an hour
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case now := <-ticker.C:
			rl.mu.Lock()
			for clientID, bucket := range rl.buckets {
				if bucket.idleSince(now) > time.Hour {
					delete(rl.buckets, clientID)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Middleware enforces the limit per client address (after chi's RealIP)
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := clientAddr(r)

		allowed, remaining, retryAfter := rl.Allow(clientID)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.perMinute))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Burst", strconv.Itoa(rl.burst))

		if !allowed {
			seconds := retryAfterSeconds(retryAfter)
			w.Header().Set("Retry-After", strconv.Itoa(seconds))

			log.Ctx(r.Context()).Warn().
				Str("client", clientID).
				Int("retryAfter", seconds).
				Msg("Rate limit exceeded")

			http.Error(w, "rate limit exceeded, retry after "+strconv.Itoa(seconds)+" seconds", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// retryAfterSeconds rounds a wait up to whole seconds, at least one
func retryAfterSeconds(d time.Duration) int {
	seconds := int(math.Ceil(d.Seconds()))
	if seconds < 1 {
		return 1
	}
	return seconds
}

// clientAddr strips the port from RemoteAddr
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
