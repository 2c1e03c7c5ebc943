package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// RateLimit applies a per-IP token bucket limiter. Limiters of idle
// clients expire after ten minutes.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	visitors := cache.New(10*time.Minute, 5*time.Minute)
	var mu sync.Mutex

	limiterFor := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		if v, ok := visitors.Get(ip); ok {
			visitors.SetDefault(ip, v)
			return v.(*rate.Limiter)
		}
		l := rate.NewLimiter(rate.Limit(rps), burst)
		visitors.SetDefault(ip, l)
		return l
	}

	return func(c *gin.Context) {
		if !limiterFor(c.ClientIP()).Allow() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests, please try again later",
				"code":  "rate_limited",
			})
			return
		}
		c.Next()
	}
}
