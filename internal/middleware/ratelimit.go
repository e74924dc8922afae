package middleware

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	apperrors "github.com/clinicore/clinic-api/pkg/errors"
)

type RateLimiter struct {
	limiter *rate.Limiter
}

func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// RateLimit sheds load once the global token bucket is empty. Rejections
// reuse the Busy kind so clients get the same retry signal as for slot
// lock contention.
func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.limiter.Allow() {
			abortWith(c, apperrors.Busy("rate limit exceeded"))
			return
		}
		c.Next()
	}
}
