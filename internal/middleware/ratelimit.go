package middleware

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/specificocean23/ABie-backend/pkg/logger"
)

// RateLimiter enforces a per-IP request budget over a time window using one
// token bucket per client. With SkipSuccessful set, requests that complete
// with a status below 400 refund their token, so only failures count toward
// the budget.
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	skipOK   bool
	logger   *logger.Logger
}

// NewRateLimiter creates a limiter admitting limit requests per window from
// each client IP.
func NewRateLimiter(limit int, window time.Duration, skipSuccessful bool, log *logger.Logger) *RateLimiter {
	if log == nil {
		log = logger.NewDefault("ratelimit")
	}
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(float64(limit) / window.Seconds()),
		burst:    limit,
		skipOK:   skipSuccessful,
		logger:   log,
	}
}

// getLimiter returns the rate limiter for the given client IP.
func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[key] = limiter
	}

	return limiter
}

// Handler returns the rate limiting middleware handler.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r)
		limiter := rl.getLimiter(key)

		if rl.skipOK {
			res := limiter.Reserve()
			if !res.OK() || res.Delay() > 0 {
				if res.OK() {
					res.Cancel()
				}
				rl.reject(w, r, key)
				return
			}

			rec := &limitRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			if rec.status < http.StatusBadRequest {
				// Successful requests do not count toward the budget.
				res.Cancel()
			}
			return
		}

		if !limiter.Allow() {
			rl.reject(w, r, key)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) reject(w http.ResponseWriter, r *http.Request, key string) {
	rl.logger.WithFields(map[string]interface{}{
		"ip":     key,
		"path":   r.URL.Path,
		"method": r.Method,
	}).Warn("rate limit exceeded")

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.burst))
	w.Header().Set("Retry-After", strconv.Itoa(rl.retryAfterSeconds()))
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": "rate limit exceeded, please try again later",
	})
}

// retryAfterSeconds estimates the wait until one token becomes available.
func (rl *RateLimiter) retryAfterSeconds() int {
	if rl.rate <= 0 {
		return 1
	}
	return int(math.Ceil(1 / float64(rl.rate)))
}

// Cleanup drops all per-client limiters once the map grows past a threshold.
// Idle buckets refill to full burst anyway, so resetting is harmless.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if len(rl.limiters) > 10000 {
		rl.limiters = make(map[string]*rate.Limiter)
	}
}

// StartCleanup starts a background goroutine to periodically cleanup old
// limiters. It stops when the returned func is called.
func (rl *RateLimiter) StartCleanup(interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				rl.Cleanup()
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()
	return func() { close(done) }
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type limitRecorder struct {
	http.ResponseWriter
	status int
}

func (r *limitRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
