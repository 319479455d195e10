package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/fiddyhq/autopublisher/pkg/models"
)

// TierLimits defines rate limits for each subscription tier
type TierLimits struct {
	RequestsPerMinute int
	Burst             int
}

// TierRateLimiter implements tier-based rate limiting. Authenticated
// requests are limited per user according to their subscription tier,
// everything else per IP.
type TierRateLimiter struct {
	userLimiters map[int64]*rate.Limiter
	ipLimiters   map[string]*rate.Limiter
	mu           sync.RWMutex

	tierLimits map[string]TierLimits

	// Default limits for unauthenticated requests
	defaultLimits TierLimits
}

// NewTierRateLimiter creates a new tier-based rate limiter
func NewTierRateLimiter() *TierRateLimiter {
	trl := &TierRateLimiter{
		userLimiters: make(map[int64]*rate.Limiter),
		ipLimiters:   make(map[string]*rate.Limiter),
		tierLimits: map[string]TierLimits{
			models.TierTrial: {
				RequestsPerMinute: 60, // 1 request per second
				Burst:             10,
			},
			models.TierHobbyist: {
				RequestsPerMinute: 120, // 2 requests per second
				Burst:             20,
			},
			models.TierProfessional: {
				RequestsPerMinute: 300, // 5 requests per second
				Burst:             50,
			},
		},
		defaultLimits: TierLimits{
			RequestsPerMinute: 30,
			Burst:             5,
		},
	}

	go trl.cleanupLimiters()

	return trl
}

// getUserLimiter returns or creates a rate limiter for a user based on their tier
func (trl *TierRateLimiter) getUserLimiter(userID int64, tier string) *rate.Limiter {
	trl.mu.Lock()
	defer trl.mu.Unlock()

	if limiter, exists := trl.userLimiters[userID]; exists {
		return limiter
	}

	limits, exists := trl.tierLimits[tier]
	if !exists {
		// Unknown tiers get the lowest paid allowance
		limits = trl.tierLimits[models.TierTrial]
	}

	rps := float64(limits.RequestsPerMinute) / 60.0
	limiter := rate.NewLimiter(rate.Limit(rps), limits.Burst)
	trl.userLimiters[userID] = limiter

	return limiter
}

// getIPLimiter returns or creates a rate limiter for an IP address
func (trl *TierRateLimiter) getIPLimiter(ip string) *rate.Limiter {
	trl.mu.Lock()
	defer trl.mu.Unlock()

	if limiter, exists := trl.ipLimiters[ip]; exists {
		return limiter
	}

	rps := float64(trl.defaultLimits.RequestsPerMinute) / 60.0
	limiter := rate.NewLimiter(rate.Limit(rps), trl.defaultLimits.Burst)
	trl.ipLimiters[ip] = limiter

	return limiter
}

// cleanupLimiters removes inactive limiters every 5 minutes
func (trl *TierRateLimiter) cleanupLimiters() {
	for {
		time.Sleep(5 * time.Minute)

		trl.mu.Lock()

		for userID, limiter := range trl.userLimiters {
			// A limiter back at full burst tokens has not been used recently
			if limiter.Tokens() >= float64(limiter.Burst()) {
				delete(trl.userLimiters, userID)
			}
		}

		for ip, limiter := range trl.ipLimiters {
			if limiter.Tokens() >= float64(limiter.Burst()) {
				delete(trl.ipLimiters, ip)
			}
		}

		trl.mu.Unlock()
	}
}

// Middleware creates an Echo middleware for tier-based rate limiting
func (trl *TierRateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var limiter *rate.Limiter

			// User ID and tier are set by the JWT middleware
			userID, hasUserID := c.Get("user_id").(int64)
			tier, hasTier := c.Get("user_tier").(string)

			if hasUserID && hasTier {
				limiter = trl.getUserLimiter(userID, tier)
			} else {
				ip := c.RealIP()
				if ip == "" {
					ip = c.Request().RemoteAddr
				}
				limiter = trl.getIPLimiter(ip)
			}

			if !limiter.Allow() {
				tierInfo := "unauthenticated"
				if hasTier {
					tierInfo = tier
				}

				return c.JSON(http.StatusTooManyRequests, models.ErrorResponse{
					Error:   "rate_limit_exceeded",
					Message: "Rate limit exceeded for " + tierInfo + " tier. Please upgrade for higher limits or try again later.",
				})
			}

			return next(c)
		}
	}
}

// GetTierLimits returns the rate limits for a specific tier
func (trl *TierRateLimiter) GetTierLimits(tier string) (TierLimits, bool) {
	trl.mu.RLock()
	defer trl.mu.RUnlock()

	limits, exists := trl.tierLimits[tier]
	return limits, exists
}

// SetTierLimits allows customizing rate limits for a tier
func (trl *TierRateLimiter) SetTierLimits(tier string, requestsPerMinute, burst int) {
	trl.mu.Lock()
	defer trl.mu.Unlock()

	trl.tierLimits[tier] = TierLimits{
		RequestsPerMinute: requestsPerMinute,
		Burst:             burst,
	}
}
