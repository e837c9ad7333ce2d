package middleware

import (
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Per-client HTTP throttling. The defaults suit a small club where a
// phone syncing after a run can burst but sustained hammering means a
// misbehaving client. Tune with HTTP_RATE_RPS, HTTP_RATE_BURST and
// HTTP_RATE_IDLE_EVICT.
const (
	defaultRPS       = 5.0
	defaultBurst     = 30
	defaultIdleEvict = 3 * time.Minute
)

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var (
	clientsMu sync.Mutex
	clients   = make(map[string]*client)

	limitOnce  sync.Once
	limitRPS   rate.Limit
	limitBurst int
	idleEvict  time.Duration
)

func loadLimits() {
	limitOnce.Do(func() {
		limitRPS = rate.Limit(parseEnvFloat("HTTP_RATE_RPS", defaultRPS))
		limitBurst = parseEnvInt("HTTP_RATE_BURST", defaultBurst)
		idleEvict = parseEnvDuration("HTTP_RATE_IDLE_EVICT", defaultIdleEvict)
	})
}

func parseEnvFloat(key string, fallback float64) float64 {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 {
			return v
		}
	}
	return fallback
}

func parseEnvInt(key string, fallback int) int {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return fallback
}

func parseEnvDuration(key string, fallback time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if v, err := time.ParseDuration(raw); err == nil && v > 0 {
			return v
		}
	}
	return fallback
}

// clientKey identifies the caller: the first X-Forwarded-For hop when
// a proxy fronts us, the socket address otherwise.
func clientKey(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.SplitN(xff, ",", 2)[0])
	}
	ip, _, _ := net.SplitHostPort(r.RemoteAddr)
	return ip
}

// RateLimitMiddleware applies a per-client token bucket to every
// request.
func RateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !clientLimiter(clientKey(r)).Allow() {
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientLimiter(key string) *rate.Limiter {
	loadLimits()

	clientsMu.Lock()
	defer clientsMu.Unlock()

	c, exists := clients[key]
	if !exists {
		c = &client{limiter: rate.NewLimiter(limitRPS, limitBurst)}
		clients[key] = c
	}
	c.lastSeen = time.Now()

	return c.limiter
}

// CleanupVisitors evicts idle clients. Run in a goroutine from main.
func CleanupVisitors() {
	loadLimits()
	for {
		time.Sleep(time.Minute)
		clientsMu.Lock()
		for key, c := range clients {
			if time.Since(c.lastSeen) > idleEvict {
				delete(clients, key)
			}
		}
		clientsMu.Unlock()
	}
}
