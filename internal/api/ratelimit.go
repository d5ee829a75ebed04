package api

import (
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/joestump/devhub/internal/metrics"
)

// maxLimiterClients caps the per-client limiter map; past it the map is reset.
const maxLimiterClients = 10000

// clientLimiter hands out one token bucket per client IP.
type clientLimiter struct {
	mu      sync.Mutex
	clients map[string]*rate.Limiter
	every   rate.Limit
	burst   int
}

func newClientLimiter(perSecond float64, burst int) *clientLimiter {
	if burst < 1 {
		burst = 1
	}
	return &clientLimiter{
		clients: make(map[string]*rate.Limiter),
		every:   rate.Limit(perSecond),
		burst:   burst,
	}
}

func (l *clientLimiter) limiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.clients[key]
	if !ok {
		if len(l.clients) >= maxLimiterClients {
			l.clients = make(map[string]*rate.Limiter)
		}
		lim = rate.NewLimiter(l.every, l.burst)
		l.clients[key] = lim
	}
	return lim
}

// Limit rejects requests beyond the client's budget with 429.
func (l *clientLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !l.limiter(host).Allow() {
			metrics.RateLimitedTotal.Inc()
			writeError(w, http.StatusTooManyRequests, "too many requests, please try again later", "RATE_LIMITED")
			return
		}
		next.ServeHTTP(w, r)
	})
}
