package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/menezmethod/memoria/internal/apierror"
	"github.com/menezmethod/memoria/internal/auth"
	"github.com/menezmethod/memoria/internal/chain"
)

// RateLimiter implements a per-user token bucket rate limiter.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64 // tokens per second
	burst   int     // maximum tokens
	now     func() time.Time
}

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// NewRateLimiter creates a RateLimiter with the given refill rate and burst size.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*bucket),
		rate:    rps,
		burst:   burst,
		now:     time.Now,
	}
}

// RateLimit returns the chain member that enforces per-user limits. It
// must follow BasicAuth: the user is re-derived from the Authorization
// header, which BasicAuth has already accepted.
func RateLimit(rl *RateLimiter) chain.Handler {
	return chain.HandlerFunc(func(w http.ResponseWriter, r *http.Request, next chain.Next) {
		user, _, _ := auth.DecodeCredentials(r.Header.Get("Authorization"))

		remaining, ok := rl.Allow(user)
		if !ok {
			RateLimitRejections.Inc()
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.burst))
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", "1")
			apierror.Write(w, apierror.RateLimited())
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.burst))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		next()
	})
}

// Allow checks whether the key has tokens available and consumes one if so.
// It returns the remaining token count and whether the request is allowed.
func (rl *RateLimiter) Allow(key string) (int, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, exists := rl.buckets[key]
	if !exists {
		b = &bucket{tokens: float64(rl.burst), lastSeen: now}
		rl.buckets[key] = b
	}

	elapsed := now.Sub(b.lastSeen).Seconds()
	b.tokens = math.Min(float64(rl.burst), b.tokens+elapsed*rl.rate)
	b.lastSeen = now

	if b.tokens < 1 {
		return 0, false
	}

	b.tokens--
	return int(b.tokens), true
}

// Prune drops buckets idle since before cutoff and returns how many went.
func (rl *RateLimiter) Prune(cutoff time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	n := 0
	for key, b := range rl.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(rl.buckets, key)
			n++
		}
	}
	return n
}

// RunCleanup prunes buckets idle for ten minutes every five minutes until
// stop is closed.
func (rl *RateLimiter) RunCleanup(stop <-chan struct{}) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			rl.Prune(rl.now().Add(-10 * time.Minute))
		}
	}
}
