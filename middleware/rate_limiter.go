package middleware

import (
	"net/http"
	"sync"
	"time"

	"fundihub/config"
	"fundihub/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterStore tracks one token bucket per client IP. Entries idle for
// longer than limiterIdleTTL are evicted so the map cannot grow unbounded.
type limiterStore struct {
	mu      sync.Mutex
	entries map[string]*ipLimiter
}

var store = &limiterStore{entries: make(map[string]*ipLimiter)}

func (s *limiterStore) get(ip string, perMin int) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	e, ok := s.entries[ip]
	if !ok {
		e = &ipLimiter{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMin)), perMin)}
		s.entries[ip] = e
	}
	e.lastSeen = now

	for addr, entry := range s.entries {
		if now.Sub(entry.lastSeen) > limiterIdleTTL {
			delete(s.entries, addr)
		}
	}
	return e.limiter
}

// RateLimitMiddleware throttles requests per client IP using the
// MAX_REQUESTS_PER_MIN setting.
func RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		perMin := config.AppConfig.MaxRequestsPerMin
		if perMin <= 0 {
			perMin = 100
		}
		ip := getClientIP(c)
		if !store.get(ip, perMin).Allow() {
			utils.GetLogger().Warn("Rate limit exceeded", zap.String("ip", ip))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded. Try again later."})
			return
		}
		c.Next()
	}
}
