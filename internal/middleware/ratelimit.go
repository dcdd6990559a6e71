package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/dsolisav/designio/internal/config"
	"github.com/dsolisav/designio/pkg/response"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	visitorTTL    = 5 * time.Minute
	sweepInterval = 3 * time.Minute
)

// visitor tracks one client's limiter and when it was last used.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per client IP. It guards the public
// auth routes against credential brute forcing; limits come from the
// rate_limit config section.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
}

func NewRateLimiter(cfg *config.RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(cfg.RPS),
		burst:    cfg.Burst,
	}
	go rl.sweep()
	return rl
}

func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter.Allow()
}

// sweep drops visitors that have been idle past the TTL.
func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(sweepInterval)
	for range ticker.C {
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastSeen) > visitorTTL {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// Middleware rejects over-limit requests with 429.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, response.Response{
				Code:    429,
				Message: "too many attempts, try again later",
			})
			return
		}
		c.Next()
	}
}
