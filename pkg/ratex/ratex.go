// Package ratex provides keyed token-bucket admission control. A Gate owns a
// lazy map of per-key limiters; services consume from it with the caller's
// identifying keys (IP, email, token) before doing any other work.
package ratex

import (
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config defines a bucket profile.
type Config struct {
	// RequestsPerWindow is the sustained number of requests allowed per Window.
	RequestsPerWindow int
	// Window is the accounting window.
	Window time.Duration
	// Burst is the bucket capacity available immediately.
	Burst int
}

// Profiles used across the service. Overridable via RATELIMIT_{NAME}_REQUESTS,
// RATELIMIT_{NAME}_WINDOW_SEC and RATELIMIT_{NAME}_BURST environment variables,
// which matters mostly for tests.
var (
	// StrictConfig guards authentication and proof-validation endpoints.
	StrictConfig = Config{RequestsPerWindow: 20, Window: time.Minute, Burst: 20}

	// EmailConfig guards operations that result in outbound mail.
	EmailConfig = Config{RequestsPerWindow: 2, Window: time.Minute, Burst: 2}

	// VaultConfig guards authenticated cipher and collection operations.
	VaultConfig = Config{RequestsPerWindow: 120, Window: time.Minute, Burst: 120}
)

func init() {
	StrictConfig = FromEnv("STRICT", StrictConfig)
	EmailConfig = FromEnv("EMAIL", EmailConfig)
	VaultConfig = FromEnv("VAULT", VaultConfig)
}

// FromEnv overlays a profile with RATELIMIT_{prefix}_* environment variables.
func FromEnv(prefix string, def Config) Config {
	cfg := def

	if v := os.Getenv("RATELIMIT_" + prefix + "_REQUESTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RequestsPerWindow = n
		}
	}
	if v := os.Getenv("RATELIMIT_" + prefix + "_WINDOW_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Window = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv("RATELIMIT_" + prefix + "_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Burst = n
		}
	}

	return cfg
}

// Gate is a concurrent map of per-key token buckets. The zero value is not
// usable; construct with NewGate. Disabled gates allow everything, which is
// how the rate-limit toggle in config is implemented.
type Gate struct {
	limiters sync.Map // map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
	disabled bool

	mu          sync.Mutex
	lastSweep   time.Time
	sweepPeriod time.Duration
}

// NewGate builds a gate from a profile.
func NewGate(cfg Config) *Gate {
	return &Gate{
		limit:       rate.Limit(float64(cfg.RequestsPerWindow) / cfg.Window.Seconds()),
		burst:       cfg.Burst,
		lastSweep:   time.Now(),
		sweepPeriod: 5 * time.Minute,
	}
}

// Disabled returns a gate that always admits. Used when rate limiting is
// switched off in configuration.
func Disabled() *Gate {
	return &Gate{disabled: true}
}

// Consume takes one token from key's bucket, creating the bucket on first
// sight. The LoadOrStore makes the two-concurrent-first-requests race safe:
// both callers end up consuming from the same bucket.
func (g *Gate) Consume(key string) bool {
	if g.disabled || key == "" {
		return true
	}

	limiter := g.bucket(key)
	g.maybeSweep()
	return limiter.Allow()
}

func (g *Gate) bucket(key string) *rate.Limiter {
	if l, ok := g.limiters.Load(key); ok {
		return l.(*rate.Limiter)
	}

	fresh := rate.NewLimiter(g.limit, g.burst)
	actual, _ := g.limiters.LoadOrStore(key, fresh)
	return actual.(*rate.Limiter)
}

// maybeSweep drops buckets that have refilled completely, so idle keys do not
// accumulate forever. A full bucket means the key has been quiet for at least
// one whole window.
func (g *Gate) maybeSweep() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if time.Since(g.lastSweep) < g.sweepPeriod {
		return
	}
	g.lastSweep = time.Now()

	g.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(g.burst) {
			g.limiters.Delete(key)
		}
		return true
	})
}
