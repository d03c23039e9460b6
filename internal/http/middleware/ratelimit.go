package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/httprate"
	"github.com/reschool/eschool-gateway/internal/httputil"
)

// Operation classes sharing one rate-limit policy.
const (
	ClassVerification = "verification"
	ClassTokenCheck   = "token_check"
	ClassDevices      = "devices"
	ClassDefault      = "default"
)

// Policy is the quota for one operation class.
type Policy struct {
	Requests int
	Window   time.Duration
}

// DefaultPolicies returns the per-class quotas.
func DefaultPolicies() map[string]Policy {
	return map[string]Policy{
		ClassVerification: {Requests: 5, Window: 5 * time.Minute},
		ClassTokenCheck:   {Requests: 30, Window: time.Minute},
		ClassDevices:      {Requests: 20, Window: time.Minute},
		ClassDefault:      {Requests: 60, Window: time.Minute},
	}
}

// Limiter is a sliding-log rate limiter keyed by (client key, operation
// class). Unlike a fixed-bucket counter it never admits a burst right after
// a window boundary: every admission is logged with its timestamp and the
// log is pruned lazily on each check.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string][]time.Time
	policies map[string]Policy
	now      func() time.Time
}

// NewLimiter creates a limiter with the given per-class policies. Classes
// without an explicit policy fall back to ClassDefault.
func NewLimiter(policies map[string]Policy) *Limiter {
	if policies == nil {
		policies = DefaultPolicies()
	}
	return &Limiter{
		windows:  make(map[string][]time.Time),
		policies: policies,
		now:      time.Now,
	}
}

func (l *Limiter) policy(class string) Policy {
	if p, ok := l.policies[class]; ok {
		return p
	}
	return l.policies[ClassDefault]
}

// Allow reports whether the client may perform another operation of the
// given class, recording the attempt when admitted. Prune, check and record
// happen under one lock so concurrent callers cannot exceed the quota.
func (l *Limiter) Allow(clientKey, class string) bool {
	p := l.policy(class)
	key := clientKey + "|" + class

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	kept := pruneBefore(l.windows[key], now.Add(-p.Window))
	if len(kept) >= p.Requests {
		l.windows[key] = kept
		return false
	}
	l.windows[key] = append(kept, now)
	return true
}

// RetryAfter returns how long the client has to wait before an operation of
// the given class can be admitted again. Zero means it may retry now.
func (l *Limiter) RetryAfter(clientKey, class string) time.Duration {
	p := l.policy(class)
	key := clientKey + "|" + class

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	kept := pruneBefore(l.windows[key], now.Add(-p.Window))
	l.windows[key] = kept
	if len(kept) < p.Requests {
		return 0
	}
	wait := p.Window - now.Sub(kept[0])
	if wait < 0 {
		return 0
	}
	return wait
}

// pruneBefore drops timestamps older than cutoff. Entries are appended in
// time order, so the kept suffix stays ordered with its oldest entry first.
func pruneBefore(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	return ts[i:]
}

// RateLimit creates middleware that admits requests through the limiter
// under the given operation class. Rejections answer 429 with a retry hint.
func RateLimit(limiter *Limiter, class string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := httputil.ClientKey(r)
			if !limiter.Allow(key, class) {
				retryAfter := int(limiter.RetryAfter(key, class).Seconds())
				if logger != nil {
					logger.Warn("rate limit exceeded",
						"client", key,
						"class", class,
						"path", r.URL.Path,
					)
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				httputil.JSON(w, http.StatusTooManyRequests, map[string]any{
					"error":       "Too many requests",
					"retry_after": retryAfter,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NoRateLimit returns a no-op middleware when rate limiting is disabled.
func NoRateLimit() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return next
	}
}

// GlobalRateLimit is a coarse per-IP cap applied in front of the per-class
// limiters, guarding the whole surface against spray abuse.
func GlobalRateLimit(requestsPerMinute int, logger *slog.Logger) func(http.Handler) http.Handler {
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			if logger != nil {
				logger.Warn("global rate limit exceeded",
					"ip", r.RemoteAddr,
					"path", r.URL.Path,
					"method", r.Method,
				)
			}
			httputil.Error(w, http.StatusTooManyRequests, "rate limit exceeded. please try again later")
		}),
	)
}
