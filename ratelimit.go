package contract

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures the RateLimit middleware.
type RateLimitConfig struct {
	Rate            float64                                      // requests per second; <= 0 means burst-only
	Burst           int                                          // max burst
	KeyFunc         func(r *http.Request) string                 // default: remote IP
	OnLimit         func(w http.ResponseWriter, r *http.Request) // default: 429 error envelope
	CleanupInterval time.Duration                                // how often to prune idle limiters (default: 1m)
	MaxIdle         time.Duration                                // remove limiters idle longer than this (default: 5m)
}

// RateLimit returns middleware that applies per-key rate limiting in front
// of the contract pipeline. The default limited response speaks the same
// error envelope as the pipeline and carries the correlation header, so a
// throttled client sees the taxonomy rather than a bare status line.
func RateLimit(cfg RateLimitConfig) Middleware {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = remoteIPKey
	}
	if cfg.OnLimit == nil {
		cfg.OnLimit = limitedResponse
	}

	pool := newLimiterPool(cfg)
	retryAfter := retryAfterSeconds(cfg.Rate)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !pool.allow(cfg.KeyFunc(r)) {
				w.Header().Set("Retry-After", retryAfter)
				cfg.OnLimit(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// remoteIPKey keys limiters by the client IP, falling back to the raw
// RemoteAddr when it carries no port.
func remoteIPKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// limitedResponse answers a throttled request with the taxonomy envelope.
// The correlation id is resolved here because the request never reaches the
// pipeline's correlate stage.
func limitedResponse(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(CorrelationHeader, ResolveCorrelationID(r.Header.Get(CorrelationHeader)))
	writeError(w, TooManyRequestsf("rate limit exceeded"))
}

// retryAfterSeconds reports the whole seconds until one token refills.
// Burst-only configurations have no refill interval and fall back to one
// second.
func retryAfterSeconds(rps float64) string {
	if rps <= 0 {
		return "1"
	}
	return strconv.FormatFloat(math.Ceil(1/rps), 'f', 0, 64)
}

// limiterPool tracks one limiter per key and prunes idle entries lazily on
// the request path instead of running a background goroutine.
type limiterPool struct {
	rate  rate.Limit
	burst int

	cleanupEvery time.Duration
	maxIdle      time.Duration

	mu          sync.Mutex
	entries     map[string]*limiterEntry
	lastCleanup time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterPool(cfg RateLimitConfig) *limiterPool {
	cleanupEvery := cfg.CleanupInterval
	if cleanupEvery <= 0 {
		cleanupEvery = time.Minute
	}
	maxIdle := cfg.MaxIdle
	if maxIdle <= 0 {
		maxIdle = 5 * time.Minute
	}
	return &limiterPool{
		rate:         rate.Limit(cfg.Rate),
		burst:        cfg.Burst,
		cleanupEvery: cleanupEvery,
		maxIdle:      maxIdle,
		entries:      make(map[string]*limiterEntry),
	}
}

func (p *limiterPool) allow(key string) bool {
	p.mu.Lock()
	now := time.Now()

	if now.Sub(p.lastCleanup) >= p.cleanupEvery {
		for k, e := range p.entries {
			if now.Sub(e.lastSeen) > p.maxIdle {
				delete(p.entries, k)
			}
		}
		p.lastCleanup = now
	}

	entry, ok := p.entries[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(p.rate, p.burst)}
		p.entries[key] = entry
	}
	entry.lastSeen = now
	p.mu.Unlock()

	return entry.limiter.Allow()
}
