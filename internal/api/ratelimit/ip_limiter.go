// Package ratelimit throttles inbound requests per client IP.
package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

type ipBucket struct {
	count     int
	resetTime time.Time
}

// IPLimiter allows a fixed number of requests per IP per window.
type IPLimiter struct {
	mu      sync.Mutex
	buckets map[string]*ipBucket
	limit   int
	window  time.Duration
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewIPLimiter creates a limiter allowing limit requests per window.
func NewIPLimiter(limit int, window time.Duration) *IPLimiter {
	return &IPLimiter{
		buckets: make(map[string]*ipBucket),
		limit:   limit,
		window:  window,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
}

// Middleware rejects requests over the limit with 429.
func (l *IPLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Allow(c.RealIP()) {
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests, please try again later")
			}
			return next(c)
		}
	}
}

// Allow records a request from ip and reports whether it is within the limit.
func (l *IPLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	bucket, exists := l.buckets[ip]
	if !exists || now.After(bucket.resetTime) {
		l.buckets[ip] = &ipBucket{count: 1, resetTime: now.Add(l.window)}
		return true
	}
	if bucket.count >= l.limit {
		return false
	}
	bucket.count++
	return true
}

// Cleanup drops expired buckets.
func (l *IPLimiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for ip, bucket := range l.buckets {
		if now.After(bucket.resetTime) {
			delete(l.buckets, ip)
		}
	}
}

// StartCleanup runs Cleanup every interval until Stop.
func (l *IPLimiter) StartCleanup(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				l.Cleanup()
			case <-l.stop:
				return
			}
		}
	}()
}

// Stop ends the cleanup loop.
func (l *IPLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}
