package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// IPRateLimiter hands out one token-bucket limiter per client IP, evicting
// entries idle for more than three minutes.
type IPRateLimiter struct {
	ips sync.Map
	mu  sync.Mutex
	r   rate.Limit
	b   int
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	l := &IPRateLimiter{r: r, b: b}
	go l.cleanupLoop()
	return l
}

func (i *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	if v, ok := i.ips.Load(ip); ok {
		c := v.(*client)
		c.lastSeen = time.Now()
		return c.limiter
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if v, ok := i.ips.Load(ip); ok {
		c := v.(*client)
		c.lastSeen = time.Now()
		return c.limiter
	}

	limiter := rate.NewLimiter(i.r, i.b)
	i.ips.Store(ip, &client{limiter: limiter, lastSeen: time.Now()})
	return limiter
}

func (i *IPRateLimiter) cleanupLoop() {
	for {
		time.Sleep(time.Minute)
		i.ips.Range(func(key, value any) bool {
			if time.Since(value.(*client).lastSeen) > 3*time.Minute {
				i.ips.Delete(key)
			}
			return true
		})
	}
}

// RateLimit builds a per-IP limiting middleware from a requests-per-window
// and burst budget. windowMs/maxRequests come from config.RateLimitConfig.
func RateLimit(windowMs, maxRequests int) gin.HandlerFunc {
	if windowMs <= 0 {
		windowMs = 60000
	}
	if maxRequests <= 0 {
		maxRequests = 100
	}
	rps := float64(maxRequests) / (float64(windowMs) / 1000.0)
	limiter := NewIPRateLimiter(rate.Limit(rps), maxRequests)

	return func(c *gin.Context) {
		if !limiter.getLimiter(c.ClientIP()).Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{"success": false, "message": "too many requests, please slow down"})
			c.Abort()
			return
		}
		c.Next()
	}
}
