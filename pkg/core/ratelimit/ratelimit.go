// Package ratelimit provides a wrapper around golang.org/x/time/rate and a
// per-client HTTP middleware built on it.
package ratelimit

import (
	"fmt"
	"net/netip"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter wraps rate.Limiter with convenience methods.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a limiter allowing requestsPerMinute with the given burst.
func New(requestsPerMinute int, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), burst),
	}
}

// Allow reports whether an event may happen now.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// RetryAfter returns how long until the next token, without consuming one.
func (l *Limiter) RetryAfter() time.Duration {
	r := l.limiter.Reserve()
	defer r.Cancel()
	return r.Delay()
}

// Tokens returns the current number of available tokens.
func (l *Limiter) Tokens() float64 {
	return l.limiter.Tokens()
}

// KeyedLimiter keeps one Limiter per key (client address) and forgets idle keys.
type KeyedLimiter struct {
	mu                sync.Mutex
	limiters          map[string]*keyedEntry
	requestsPerMinute int
	burst             int
	idle              time.Duration
	trusted           []netip.Prefix
}

type keyedEntry struct {
	limiter  *Limiter
	lastSeen time.Time
}

// NewKeyed creates a per-key limiter. Keys unused for idle are dropped on the next sweep.
func NewKeyed(requestsPerMinute, burst int, idle time.Duration) *KeyedLimiter {
	return &KeyedLimiter{
		limiters:          make(map[string]*keyedEntry),
		requestsPerMinute: requestsPerMinute,
		burst:             burst,
		idle:              idle,
	}
}

// TrustProxies sets the proxies whose X-Forwarded-For header is honoured.
// Entries are single addresses ("10.0.0.1") or CIDR ranges ("10.0.0.0/8").
func (k *KeyedLimiter) TrustProxies(entries ...string) error {
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if strings.Contains(e, "/") {
			p, err := netip.ParsePrefix(e)
			if err != nil {
				return fmt.Errorf("invalid trusted proxy %q: %w", e, err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(e)
		if err != nil {
			return fmt.Errorf("invalid trusted proxy %q: %w", e, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}

	k.mu.Lock()
	k.trusted = prefixes
	k.mu.Unlock()
	return nil
}

func (k *KeyedLimiter) isTrusted(host string) bool {
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap()

	k.mu.Lock()
	defer k.mu.Unlock()
	for _, p := range k.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// Get returns the limiter for key, creating it on first use.
func (k *KeyedLimiter) Get(key string) *Limiter {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := time.Now()
	if e, ok := k.limiters[key]; ok {
		e.lastSeen = now
		return e.limiter
	}
	l := New(k.requestsPerMinute, k.burst)
	k.limiters[key] = &keyedEntry{limiter: l, lastSeen: now}
	return l
}

// Sweep drops limiters idle longer than the configured window and returns how many were removed.
func (k *KeyedLimiter) Sweep() int {
	k.mu.Lock()
	defer k.mu.Unlock()

	removed := 0
	cutoff := time.Now().Add(-k.idle)
	for key, e := range k.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(k.limiters, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (k *KeyedLimiter) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.limiters)
}
