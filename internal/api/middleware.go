package api

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"ralph-xpert/internal/auth"
)

// CookieName holds the admin session token.
const CookieName = "admin-token"

const sessionKey = "admin_session"

// CORS echoes allowed origins back, or "*" when everything is allowed.
func CORS(allowed []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && originAllowed(origin, allowed) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Vary", "Origin")
		} else if len(allowed) == 1 && allowed[0] == "*" {
			c.Header("Access-Control-Allow-Origin", "*")
		}
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// originAllowed is also used by the websocket upgrader.
func originAllowed(origin string, allowed []string) bool {
	if origin == "" {
		return true
	}
	for _, o := range allowed {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// simple token bucket per client IP
type bucket struct {
	tokens     int
	lastRefill time.Time
}

type RateLimiter struct {
	max    int
	period time.Duration
	now    func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

// NewRateLimiter allows perMinute requests per IP each minute. A
// non-positive limit disables limiting.
func NewRateLimiter(perMinute int) *RateLimiter {
	return &RateLimiter{
		max:     perMinute,
		period:  time.Minute,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// Allow consumes one token for key.
func (l *RateLimiter) Allow(key string) bool {
	if l.max <= 0 {
		return true
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.max, lastRefill: now}
		l.buckets[key] = b
	}
	if now.Sub(b.lastRefill) >= l.period {
		b.tokens = l.max
		b.lastRefill = now
	}
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

// sweep drops buckets idle for a full period, at most once per period. A
// dropped bucket would have been refilled on its next request anyway.
func (l *RateLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.period {
		return
	}
	l.lastSweep = now
	for key, b := range l.buckets {
		if now.Sub(b.lastRefill) >= l.period {
			delete(l.buckets, key)
		}
	}
}

func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			failure(c, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}
		c.Next()
	}
}

// tokenFromRequest reads the session cookie, then a Bearer header.
func tokenFromRequest(c *gin.Context) string {
	if token, err := c.Cookie(CookieName); err == nil && token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// RequireAdmin rejects requests without a valid admin token.
func RequireAdmin(a *auth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := a.Verify(tokenFromRequest(c))
		if err != nil {
			if errors.Is(err, auth.ErrNoToken) {
				failure(c, http.StatusUnauthorized, "No token provided")
				return
			}
			failure(c, http.StatusUnauthorized, "Invalid token")
			return
		}
		c.Set(sessionKey, session)
		c.Next()
	}
}

// CurrentAdmin returns the session stored by RequireAdmin.
func CurrentAdmin(c *gin.Context) (auth.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return auth.Session{}, false
	}
	s, ok := v.(auth.Session)
	return s, ok
}
