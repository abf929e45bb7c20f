package productcache

import "time"

// DefaultMaxCacheAge is how long a snapshot stays servable after it was
// written. Callers with different freshness needs pass their own value to
// NewCachePolicy.
const DefaultMaxCacheAge = 7 * 24 * time.Hour

// CachePolicy decides whether a snapshot timestamp is still within the
// validity window. It is a pure predicate: no I/O, deterministic given both
// instants.
type CachePolicy struct {
	maxAge time.Duration
}

// NewCachePolicy returns a policy with the given validity window. A
// non-positive maxAge falls back to DefaultMaxCacheAge.
func NewCachePolicy(maxAge time.Duration) CachePolicy {
	if maxAge <= 0 {
		maxAge = DefaultMaxCacheAge
	}
	return CachePolicy{maxAge: maxAge}
}

// MaxAge reports the validity window the policy enforces.
func (p CachePolicy) MaxAge() time.Duration {
	return p.maxAge
}

// Validate reports whether a snapshot written at timestamp is still valid at
// now. The boundary is inclusive: a snapshot aged exactly MaxAge is valid,
// one instant older is not. Timestamps ahead of now validate; skewed clocks
// are the Store owner's problem, not a reason to drop data.
func (p CachePolicy) Validate(timestamp, now time.Time) bool {
	return now.Sub(timestamp) <= p.maxAge
}
