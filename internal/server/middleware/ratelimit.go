package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// idleClientTTL is how long an idle client's limiter is kept
const idleClientTTL = 2 * time.Minute

// rateLimiter holds one token bucket per client host
type rateLimiter struct {
	mu      sync.Mutex
	limit   int
	clients map[string]*clientLimiter
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a rate limiting middleware.
// limit is requests per minute per client host, with bursts up to limit.
// Clients are keyed by the host of r.RemoteAddr only; forwarding headers
// are honored only when a trusted proxy rewrote RemoteAddr upstream (see
// chi's RealIP). onReject, when set, is called for every rejected request.
func NewRateLimiter(limit int, onReject func()) func(http.Handler) http.Handler {
	limiter := &rateLimiter{
		limit:   limit,
		clients: make(map[string]*clientLimiter),
	}

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for now := range ticker.C {
			limiter.cleanup(now)
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.allow(clientHost(r), time.Now()) {
				if onReject != nil {
					onReject()
				}
				w.Header().Set("Retry-After", "60")
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (rl *rateLimiter) allow(host string, now time.Time) bool {
	rl.mu.Lock()
	client, ok := rl.clients[host]
	if !ok {
		client = &clientLimiter{
			limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rl.limit)), rl.limit),
		}
		rl.clients[host] = client
	}
	client.lastSeen = now
	rl.mu.Unlock()

	return client.limiter.AllowN(now, 1)
}

func (rl *rateLimiter) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for host, client := range rl.clients {
		if now.Sub(client.lastSeen) > idleClientTTL {
			delete(rl.clients, host)
		}
	}
}

// clientHost is the host part of RemoteAddr. RealIP leaves a bare IP.
func clientHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
