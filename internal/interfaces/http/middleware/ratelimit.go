package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/marketplace/backend/internal/interfaces/http/dto"
)

// RateLimiter keeps one token bucket per key: limit requests per window with
// bursts up to limit. Each replica keeps its own buckets.
type RateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	limit     int
	every     rate.Limit
	idleAfter time.Duration
	now       func() time.Time
	done      chan struct{}
	once      sync.Once
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter and starts its eviction loop; call Stop
// on shutdown
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit < 1 {
		limit = 1
	}
	rl := &RateLimiter{
		buckets:   make(map[string]*bucket),
		limit:     limit,
		every:     rate.Every(window / time.Duration(limit)),
		idleAfter: window * 2,
		now:       time.Now,
		done:      make(chan struct{}),
	}
	go rl.evictLoop(rl.idleAfter)
	return rl
}

// Stop ends the eviction loop
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.done) })
}

func (rl *RateLimiter) evictLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.evictIdle(rl.now())
		}
	}
}

// evictIdle drops buckets unused for idleAfter. An idle bucket has refilled,
// so dropping it changes nothing for its key.
func (rl *RateLimiter) evictIdle(now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	evicted := 0
	for key, b := range rl.buckets {
		if now.Sub(b.lastSeen) > rl.idleAfter {
			delete(rl.buckets, key)
			evicted++
		}
	}
	return evicted
}

// Allow takes one token for key. It returns the whole tokens left and, when
// refused, how long until a token is available.
func (rl *RateLimiter) Allow(key string) (bool, int, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rl.every, rl.limit)}
		rl.buckets[key] = b
	}
	b.lastSeen = now

	if b.limiter.AllowN(now, 1) {
		return true, remainingTokens(b.limiter, now), 0
	}
	r := b.limiter.ReserveN(now, 1)
	wait := r.DelayFrom(now)
	r.CancelAt(now)
	return false, 0, wait
}

func remainingTokens(l *rate.Limiter, now time.Time) int {
	tokens := l.TokensAt(now)
	if tokens < 0 {
		return 0
	}
	return int(math.Floor(tokens))
}

// RateLimitByKey limits requests per key. An empty key falls back to the
// client IP.
func RateLimitByKey(limiter *RateLimiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFunc(c)
		if key == "" {
			key = c.ClientIP()
		}

		allowed, remaining, wait := limiter.Allow(key)
		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(wait)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRateLimited,
				"Too many requests. Please try again later.",
				c.GetString(RequestIDKey),
			))
			return
		}
		c.Next()
	}
}

func retryAfterSeconds(wait time.Duration) int {
	secs := int(math.Ceil(wait.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

// MerchantKey keys admin requests by the token's merchant
func MerchantKey(c *gin.Context) string {
	if id := GetJWTMerchantID(c); id != "" {
		return "merchant:" + id
	}
	return ""
}

// ClientIPKey keys requests by client IP
func ClientIPKey(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}
