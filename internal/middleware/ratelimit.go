package middleware

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"insight-dashboard/internal/config"
)

const limiterIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP. Idle buckets are pruned
// lazily on access.
type RateLimiter struct {
	name    string
	limit   rate.Limit
	burst   int
	enabled bool

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastPrune time.Time
	now       func() time.Time
}

func newRateLimiter(name string, limit rate.Limit, burst int, enabled bool) *RateLimiter {
	return &RateLimiter{
		name:     name,
		limit:    limit,
		burst:    burst,
		enabled:  enabled,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

// NewRateLimiter limits all requests per client to RateLimitRPS with RateLimitBurst.
func NewRateLimiter(cfg config.SecurityConfig) *RateLimiter {
	return newRateLimiter("global", rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst, cfg.EnableRateLimit)
}

// NewUploadLimiter allows UploadRatePerMinute uploads per client per minute.
func NewUploadLimiter(cfg config.SecurityConfig) *RateLimiter {
	n := max(cfg.UploadRatePerMinute, 1)
	return newRateLimiter("upload", rate.Every(time.Minute/time.Duration(n)), n, cfg.EnableRateLimit)
}

func (rl *RateLimiter) Allow(ip string) bool {
	if !rl.enabled {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.prune(now)

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now

	return v.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) prune(now time.Time) {
	if now.Sub(rl.lastPrune) < time.Minute {
		return
	}
	rl.lastPrune = now

	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > limiterIdleTTL {
			delete(rl.visitors, ip)
		}
	}
}

// retryAfter is the whole number of seconds until one token is refilled.
func (rl *RateLimiter) retryAfter() int {
	if rl.limit <= 0 {
		return 60
	}
	return int(math.Ceil(1 / float64(rl.limit)))
}
