// File: internal/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Config holds rate limiting configuration
type Config struct {
	WindowSize    time.Duration // Time window for rate limiting
	MaxRequests   int           // Maximum requests per window
	CleanupPeriod time.Duration // How often to clean up old entries
	// BanDuration blocks an identifier after it exceeds the limit. Zero
	// means the caller only waits for the window to reset.
	BanDuration time.Duration
}

// PerMinuteConfig limits each caller to n requests per minute.
func PerMinuteConfig(n int) *Config {
	return &Config{
		WindowSize:    time.Minute,
		MaxRequests:   n,
		CleanupPeriod: 5 * time.Minute,
	}
}

type windowRecord struct {
	Count     int
	FirstSeen time.Time
	BannedAt  *time.Time
}

// MemoryRateLimiter is a fixed-window limiter kept in process memory.
type MemoryRateLimiter struct {
	config  *Config
	windows map[string]*windowRecord
	mu      sync.Mutex
	stopCh  chan struct{}
	once    sync.Once
	now     func() time.Time
}

func NewMemoryRateLimiter(config *Config) *MemoryRateLimiter {
	limiter := &MemoryRateLimiter{
		config:  config,
		windows: make(map[string]*windowRecord),
		stopCh:  make(chan struct{}),
		now:     time.Now,
	}
	if config.CleanupPeriod > 0 {
		go limiter.cleanupLoop()
	}
	return limiter
}

// Info describes the caller's position in the current window.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
	Banned     bool
}

// Allow counts one request for identifier.
func (rl *MemoryRateLimiter) Allow(identifier string) Info {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	limit := rl.config.MaxRequests
	rec, exists := rl.windows[identifier]

	if exists && rec.BannedAt != nil {
		if left := rl.config.BanDuration - now.Sub(*rec.BannedAt); left > 0 {
			return Info{Limit: limit, ResetTime: rec.BannedAt.Add(rl.config.BanDuration), RetryAfter: left, Banned: true}
		}
		exists = false
	}
	if !exists || now.Sub(rec.FirstSeen) >= rl.config.WindowSize {
		rl.windows[identifier] = &windowRecord{Count: 1, FirstSeen: now}
		return Info{Allowed: true, Limit: limit, Remaining: limit - 1, ResetTime: now.Add(rl.config.WindowSize)}
	}

	rec.Count++
	reset := rec.FirstSeen.Add(rl.config.WindowSize)
	if rec.Count > limit {
		if rl.config.BanDuration > 0 {
			banTime := now
			rec.BannedAt = &banTime
			return Info{Limit: limit, ResetTime: now.Add(rl.config.BanDuration), RetryAfter: rl.config.BanDuration, Banned: true}
		}
		return Info{Limit: limit, ResetTime: reset, RetryAfter: reset.Sub(now)}
	}
	return Info{Allowed: true, Limit: limit, Remaining: limit - rec.Count, ResetTime: reset}
}

// Reset forgets identifier's window.
func (rl *MemoryRateLimiter) Reset(identifier string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.windows, identifier)
}

func (rl *MemoryRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *MemoryRateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for id, rec := range rl.windows {
		windowExpired := now.Sub(rec.FirstSeen) > rl.config.WindowSize
		banExpired := rec.BannedAt != nil && now.Sub(*rec.BannedAt) > rl.config.BanDuration
		if (windowExpired && rec.BannedAt == nil) || banExpired {
			delete(rl.windows, id)
		}
	}
}

// Close stops the cleanup goroutine
func (rl *MemoryRateLimiter) Close() {
	rl.once.Do(func() { close(rl.stopCh) })
}

// GetClientIP extracts the real client IP from request
func GetClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if ip := strings.TrimSpace(strings.Split(forwarded, ",")[0]); ip != "" {
			return ip
		}
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
