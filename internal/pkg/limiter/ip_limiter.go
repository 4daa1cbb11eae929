/*
Package limiter provides per-client-IP rate limiting for the chat server's HTTP surface
(message sends and WebSocket upgrades).

Each IP gets its own token bucket (rate.Limiter). Buckets of IPs that stayed quiet
for longer than the idle window are swept periodically.
*/
package limiter

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"campushub/internal/pkg/errs"
	"campushub/internal/pkg/logx"
	"campushub/internal/pkg/resp"
)

const (
	// visitorIdleTTL is how long an IP may stay silent before its bucket is dropped.
	visitorIdleTTL = 3 * time.Minute

	sweepInterval = time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter implements a rate limiter keyed by client IP address.
type IPRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor

	// r is the sustained rate in events per second, b the burst size.
	r rate.Limit
	b int

	now    func() time.Time
	stop   chan struct{}
	once   sync.Once
	logger zerolog.Logger
}

// NewIPRateLimiter creates and returns a new IPRateLimiter instance and starts its
// background sweeper. Call Stop to release it.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	i := &IPRateLimiter{
		visitors: make(map[string]*visitor),
		r:        r,
		b:        b,
		now:      time.Now,
		stop:     make(chan struct{}),
		logger:   logx.Component("RateLimiter"),
	}

	go i.sweepLoop()

	return i
}

// Allow reports whether the client IP of r may proceed under the limit.
func (i *IPRateLimiter) Allow(r *http.Request) bool {
	return i.allowIP(clientIP(r))
}

// Middleware returns an HTTP middleware that responds 429 once a client exceeds the limit.
func (i *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !i.Allow(r) {
			logx.Ctx(r.Context()).Warn().Msg("Request rejected: Rate limit exceeded.")
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Stop ends the background sweeper.
func (i *IPRateLimiter) Stop() {
	i.once.Do(func() { close(i.stop) })
}

func (i *IPRateLimiter) allowIP(ip string) bool {
	now := i.now()

	i.mu.Lock()
	v, ok := i.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(i.r, i.b)}
		i.visitors[ip] = v
	}
	v.lastSeen = now
	i.mu.Unlock()

	return v.limiter.AllowN(now, 1)
}

func (i *IPRateLimiter) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			i.sweep()
		case <-i.stop:
			return
		}
	}
}

// sweep drops visitors idle for longer than visitorIdleTTL and returns how many it removed.
func (i *IPRateLimiter) sweep() int {
	cutoff := i.now().Add(-visitorIdleTTL)

	i.mu.Lock()
	removed := 0
	for ip, v := range i.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(i.visitors, ip)
			removed++
		}
	}
	active := len(i.visitors)
	i.mu.Unlock()

	if removed > 0 {
		i.logger.Debug().Int("removed", removed).Int("active", active).Msg("Rate limiter sweep finished")
	}
	return removed
}

// clientIP returns the host part of RemoteAddr (already rewritten by middleware.RealIP).
func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}

	if ip == "" {
		ip = "unknown_ip"
	}

	return ip
}
